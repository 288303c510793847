package listmodel

import "sort"

// ScrollableList adds cursor/selection/page-window/column-sort behavior on
// top of FilterableList (spec component C3). The page follows the
// highlighted row: whenever the highlighted index would fall outside the
// current page window, the window scrolls by the minimum amount needed to
// keep it visible (spec.md §4.8).
//
// Grounded on original_source/b4n-lists/scrollable_list.tests.rs (filter
// semantics layered on FilterableList) and b4n-tui/table/mod.rs's `Table`
// trait (the non-rendering subset of its capability set: everything except
// get_paged_items/get_header/refresh_header/offset, which require a Theme
// and concrete rendering — explicitly out of scope per spec.md §1).
type ScrollableList[T Row] struct {
	list *FilterableList[T]

	pageStart   int
	pageHeight  int
	highlighted int // index into the visible subset; -1 = nothing highlighted

	sortColumn     int
	sortDescending bool
	hasSort        bool
}

// NewScrollableList builds a ScrollableList over data, with nothing
// highlighted and a page height of 0 (callers must UpdatePage before
// relying on paging).
func NewScrollableList[T Row](data []T) *ScrollableList[T] {
	return &ScrollableList[T]{
		list:        NewFilterableList(data),
		highlighted: -1,
	}
}

// Len returns the number of currently visible rows.
func (l *ScrollableList[T]) Len() int { return l.list.Len() }

// IsEmpty reports whether there are zero visible rows.
func (l *ScrollableList[T]) IsEmpty() bool { return l.Len() == 0 }

// Clear removes all items and resets cursor/highlight/sort state.
func (l *ScrollableList[T]) Clear() {
	l.list = NewFilterableList[T](nil)
	l.pageStart = 0
	l.highlighted = -1
	l.hasSort = false
}

// IsFiltered reports whether a filter is active.
func (l *ScrollableList[T]) IsFiltered() bool { return l.list.IsFiltered() }

// Filter applies a substring filter over each row's Contains method, or
// clears any active filter when pattern is nil — mirroring the original
// `filter(Option<String>)` signature exactly (nil == Rust's `None`).
func (l *ScrollableList[T]) Filter(pattern *string) {
	if pattern == nil {
		l.list.FilterReset()
	} else {
		p := *pattern
		l.list.Filter(func(r T) bool { return r.Contains(p) })
	}
	l.reconcileHighlight()
}

// Push appends a new row (possibly invisible if a filter is active and it
// does not match), preserving FilterableList's ordering invariants.
func (l *ScrollableList[T]) Push(data T) {
	l.list.Push(data)
}

// Iter returns the currently visible items, in display order (post-sort).
func (l *ScrollableList[T]) Iter() []*Item[T] { return l.list.Iter() }

// At returns the visible item at position i.
func (l *ScrollableList[T]) At(i int) *Item[T] { return l.list.At(i) }

// Sort reorders the full underlying list (so the order survives filter
// reset) by column's sort text, ascending unless descending is true.
func (l *ScrollableList[T]) Sort(column int, descending bool) {
	items := l.list.items
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].Data.ColumnSortText(column), items[j].Data.ColumnSortText(column)
		if descending {
			return a > b
		}
		return a < b
	})
	l.sortColumn, l.sortDescending, l.hasSort = column, descending, true
	if l.list.IsFiltered() {
		l.list.Filter(l.list.pattern)
	}
	l.reconcileHighlight()
}

// ToggleSort sorts by column, flipping direction if column is already the
// active sort column, otherwise starting ascending.
func (l *ScrollableList[T]) ToggleSort(column int) {
	descending := false
	if l.hasSort && l.sortColumn == column {
		descending = !l.sortDescending
	}
	l.Sort(column, descending)
}

// SortColumn reports the active sort column and direction, and whether any
// sort has been applied yet.
func (l *ScrollableList[T]) SortColumn() (column int, descending bool, ok bool) {
	return l.sortColumn, l.sortDescending, l.hasSort
}

// IsAnythingHighlighted reports whether a row is currently highlighted.
func (l *ScrollableList[T]) IsAnythingHighlighted() bool {
	return l.highlighted >= 0 && l.highlighted < l.Len()
}

// HighlightedIndex returns the visible index of the highlighted row.
func (l *ScrollableList[T]) HighlightedIndex() (int, bool) {
	if !l.IsAnythingHighlighted() {
		return 0, false
	}
	return l.highlighted, true
}

// HighlightedItem returns the highlighted item itself.
func (l *ScrollableList[T]) HighlightedItem() (*Item[T], bool) {
	if !l.IsAnythingHighlighted() {
		return nil, false
	}
	return l.list.At(l.highlighted), true
}

// HighlightByUID highlights the row whose Row.UID() matches uid, surviving
// a preceding Apply/Delete sequence that did not touch that uid (the
// "highlight stability" testable property in spec.md §8).
func (l *ScrollableList[T]) HighlightByUID(uid string) bool {
	return l.highlightWhere(func(r T) bool { return r.UID() == uid })
}

// HighlightByName highlights the first row whose name exactly equals name.
func (l *ScrollableList[T]) HighlightByName(name string) bool {
	return l.highlightWhere(func(r T) bool { return r.IsEqual(name) })
}

// HighlightByNameStart highlights the first row whose name starts with
// text.
func (l *ScrollableList[T]) HighlightByNameStart(text string) bool {
	return l.highlightWhere(func(r T) bool { return r.StartsWith(text) })
}

// HighlightFirst highlights the first visible row, if any.
func (l *ScrollableList[T]) HighlightFirst() bool {
	if l.Len() == 0 {
		l.highlighted = -1
		return false
	}
	l.highlighted = 0
	l.followHighlight()
	return true
}

// HighlightByLine highlights the row currently rendered at the given
// 0-based visible line number (relative to the top of the viewport, not
// the page-start offset).
func (l *ScrollableList[T]) HighlightByLine(lineNo int) bool {
	idx := l.pageStart + lineNo
	if idx < 0 || idx >= l.Len() {
		return false
	}
	l.highlighted = idx
	l.followHighlight()
	return true
}

func (l *ScrollableList[T]) highlightWhere(pred func(T) bool) bool {
	items := l.list.Iter()
	for i, it := range items {
		if pred(it.Data) {
			l.highlighted = i
			l.followHighlight()
			return true
		}
	}
	return false
}

// reconcileHighlight re-clamps the highlighted index after the visible set
// changes shape (filter/sort), without trying to preserve "which row" was
// highlighted — callers that need stability across updates should re-call
// HighlightByUID after applying observer events.
func (l *ScrollableList[T]) reconcileHighlight() {
	if l.highlighted >= l.Len() {
		l.highlighted = l.Len() - 1
	}
	l.followHighlight()
}

// DeselectAll clears the selection flag on every item (visible and
// hidden).
func (l *ScrollableList[T]) DeselectAll() {
	for _, it := range l.list.FullIter() {
		it.Select(false)
	}
}

// InvertSelection flips the selection flag on every visible item.
func (l *ScrollableList[T]) InvertSelection() {
	for _, it := range l.list.Iter() {
		it.InvertSelection()
	}
}

// SelectHighlighted toggles selection on the currently highlighted row.
func (l *ScrollableList[T]) SelectHighlighted() {
	if it, ok := l.HighlightedItem(); ok {
		it.InvertSelection()
	}
}

// IsAnythingSelected reports whether any visible item is selected.
func (l *ScrollableList[T]) IsAnythingSelected() bool {
	for _, it := range l.list.Iter() {
		if it.IsSelected {
			return true
		}
	}
	return false
}

// SelectedItems returns selected item names grouped by Row.Group(),
// mirroring the original's `HashMap<&str, Vec<&str>>` return shape.
func (l *ScrollableList[T]) SelectedItems() map[string][]string {
	out := make(map[string][]string)
	for _, it := range l.list.Iter() {
		if it.IsSelected {
			out[it.Data.Group()] = append(out[it.Data.Group()], it.Data.Name())
		}
	}
	return out
}

// UpdatePage recalculates the page window for a new viewport height,
// re-applying the "page follows highlight" invariant.
func (l *ScrollableList[T]) UpdatePage(newHeight int) {
	l.pageHeight = newHeight
	if l.pageStart > 0 && l.pageStart+l.pageHeight > l.Len() {
		l.pageStart = max(0, l.Len()-l.pageHeight)
	}
	l.followHighlight()
}

// PageStart returns the first visible row index of the current page.
func (l *ScrollableList[T]) PageStart() int { return l.pageStart }

// PageHeight returns the configured page height.
func (l *ScrollableList[T]) PageHeight() int { return l.pageHeight }

// followHighlight scrolls the page window by the minimum amount necessary
// to keep the highlighted row inside [pageStart, pageStart+pageHeight).
func (l *ScrollableList[T]) followHighlight() {
	if l.pageHeight <= 0 || !l.IsAnythingHighlighted() {
		return
	}
	if l.highlighted < l.pageStart {
		l.pageStart = l.highlighted
	} else if l.highlighted >= l.pageStart+l.pageHeight {
		l.pageStart = l.highlighted - l.pageHeight + 1
	}
	if l.pageStart < 0 {
		l.pageStart = 0
	}
}
