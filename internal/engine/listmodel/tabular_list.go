package listmodel

import "strings"

// Column describes one header column: its label, width bounds, sort
// symbol (the Alt+<symbol> key that toggles sorting on it) and alignment.
// Grounded on original_source/b4n-tui/table/column.rs (column layout
// fields) and header.tests.rs (sort-symbol matching), trimmed to the
// non-rendering fields spec.md §3 names for the Tabular list invariant:
// "owns a header with per-column {name, min_width, max_width, sort_symbol,
// is_right_aligned, has_reversed_sort}".
type Column struct {
	Name            string
	MinWidth        int
	MaxWidth        int // 0 means unbounded
	SortSymbol      rune
	IsRightAligned  bool
	HasReversedSort bool // column's "natural" sort direction is descending first
	IsExtra         bool // collapses first when width is scarce
}

// Header owns the column definitions and their currently computed widths.
type Header struct {
	Columns []Column
	widths  []int
}

// NewHeader builds a Header from column definitions, with widths seeded to
// each column's MinWidth.
func NewHeader(columns []Column) *Header {
	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = c.MinWidth
	}
	return &Header{Columns: columns, widths: widths}
}

// Width returns the current computed width of column i.
func (h *Header) Width(i int) int { return h.widths[i] }

// RecomputeWidths grows each column's width to fit the longest current
// cell text (via textFor), clamped to [MinWidth, MaxWidth], collapsing
// extra columns first when the sum would exceed totalWidth.
func (h *Header) RecomputeWidths(rowCount int, textFor func(row, col int) string, totalWidth int) {
	for c := range h.Columns {
		w := h.Columns[c].MinWidth
		if len(h.Columns[c].Name) > w {
			w = len(h.Columns[c].Name)
		}
		for r := 0; r < rowCount; r++ {
			if tw := len(textFor(r, c)); tw > w {
				w = tw
			}
		}
		if max := h.Columns[c].MaxWidth; max > 0 && w > max {
			w = max
		}
		h.widths[c] = w
	}
	h.collapseToFit(totalWidth)
}

func (h *Header) sum() int {
	total := 0
	for _, w := range h.widths {
		total += w
	}
	return total
}

// collapseToFit shrinks columns flagged IsExtra (in reverse column order)
// down to their MinWidth until the total fits totalWidth, matching
// spec.md §3's invariant "columns flagged as extras collapse first when
// width is scarce".
func (h *Header) collapseToFit(totalWidth int) {
	if totalWidth <= 0 {
		return
	}
	for i := len(h.Columns) - 1; i >= 0 && h.sum() > totalWidth; i-- {
		if !h.Columns[i].IsExtra {
			continue
		}
		if h.widths[i] > h.Columns[i].MinWidth {
			h.widths[i] = h.Columns[i].MinWidth
		}
	}
}

// ColumnForSortKey returns the column index whose SortSymbol matches key
// (case-insensitive), used for Alt+<digit>/Alt+<letter> sort toggling
// (spec.md §4.8).
func (h *Header) ColumnForSortKey(key rune) (int, bool) {
	lower := strings.ToLower(string(key))
	for i, c := range h.Columns {
		if strings.ToLower(string(c.SortSymbol)) == lower {
			return i, true
		}
	}
	return 0, false
}

// TabularList composes a Header with a ScrollableList, dispatching
// Alt+<digit>/Alt+<letter> keys (matched via sort_symbols) to toggle sort
// on the corresponding column (spec.md §4.8).
type TabularList[T Row] struct {
	*ScrollableList[T]
	Header *Header
}

// NewTabularList builds a TabularList over data with the given column
// definitions.
func NewTabularList[T Row](data []T, columns []Column) *TabularList[T] {
	return &TabularList[T]{
		ScrollableList: NewScrollableList(data),
		Header:         NewHeader(columns),
	}
}

// HandleSortKey toggles sort on the column bound to the given Alt+key
// symbol, if any. Returns true if a column matched and sort was toggled.
func (t *TabularList[T]) HandleSortKey(key rune) bool {
	col, ok := t.Header.ColumnForSortKey(key)
	if !ok {
		return false
	}
	t.ToggleSort(col)
	return true
}

// RefreshColumnWidths recomputes header widths from the currently visible
// rows' ColumnText values, clamped to totalWidth.
func (t *TabularList[T]) RefreshColumnWidths(totalWidth int) {
	rows := t.Iter()
	t.Header.RecomputeWidths(len(rows), func(r, c int) string {
		return rows[r].Data.ColumnText(c)
	}, totalWidth)
}
