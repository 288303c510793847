package listmodel

import "testing"

func TestHeaderRecomputeWidthsClampsAndCollapses(t *testing.T) {
	h := NewHeader([]Column{
		{Name: "NAME", MinWidth: 4, MaxWidth: 0, SortSymbol: 'n'},
		{Name: "NODE", MinWidth: 4, MaxWidth: 0, SortSymbol: 'd', IsExtra: true},
	})
	text := [][]string{
		{"short", "very-long-node-name"},
	}
	h.RecomputeWidths(1, func(r, c int) string { return text[r][c] }, 100)
	if h.Width(0) != len("short") {
		t.Fatalf("Width(0) = %d, want %d", h.Width(0), len("short"))
	}
	if h.Width(1) != len("very-long-node-name") {
		t.Fatalf("Width(1) = %d, want %d", h.Width(1), len("very-long-node-name"))
	}

	h.RecomputeWidths(1, func(r, c int) string { return text[r][c] }, 10)
	if h.Width(1) != 4 {
		t.Fatalf("Width(1) after collapse = %d, want MinWidth 4", h.Width(1))
	}
}

func TestHeaderColumnForSortKeyCaseInsensitive(t *testing.T) {
	h := NewHeader([]Column{
		{Name: "NAME", SortSymbol: 'n'},
		{Name: "AGE", SortSymbol: 'a'},
	})
	col, ok := h.ColumnForSortKey('N')
	if !ok || col != 0 {
		t.Fatalf("ColumnForSortKey(N) = (%d,%v), want (0,true)", col, ok)
	}
	if _, ok := h.ColumnForSortKey('z'); ok {
		t.Fatal("ColumnForSortKey(z) should not match")
	}
}

func TestTabularListHandleSortKeyTogglesColumn(t *testing.T) {
	tl := NewTabularList([]testRow{tr("b"), tr("a"), tr("c")}, []Column{
		{Name: "NAME", MinWidth: 4, SortSymbol: 'n'},
	})
	if !tl.HandleSortKey('n') {
		t.Fatal("HandleSortKey(n) should match the NAME column")
	}
	col, desc, ok := tl.SortColumn()
	if !ok || col != 0 || desc {
		t.Fatalf("SortColumn() = (%d,%v,%v), want (0,false,true)", col, desc, ok)
	}
	if got := tl.At(0).Data.name; got != "a" {
		t.Fatalf("At(0) = %q, want a", got)
	}
	if tl.HandleSortKey('z') {
		t.Fatal("HandleSortKey(z) should not match any column")
	}
}

func TestTabularListRefreshColumnWidths(t *testing.T) {
	tl := NewTabularList([]testRow{tr("short"), tr("a-much-longer-name")}, []Column{
		{Name: "NAME", MinWidth: 1, SortSymbol: 'n'},
	})
	tl.RefreshColumnWidths(100)
	if got := tl.Header.Width(0); got != len("a-much-longer-name") {
		t.Fatalf("Header.Width(0) = %d, want %d", got, len("a-much-longer-name"))
	}
}
