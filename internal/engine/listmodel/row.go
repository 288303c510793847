// Package listmodel implements the filterable/scrollable/sortable tabular
// list model (spec components C2 FilterableList and C3
// ScrollableList/TabularList) that every list/table widget in the outer TUI
// is built on.
package listmodel

// Row is the capability contract a list item must satisfy (spec.md §9's
// "Table"/"Row" capability set, and original_source/b4n-list/item.rs's
// `Row` trait). Built-in and custom (CRD-backed) rows are both just this
// interface over a concrete struct carrying a cell array — the registry
// (C12) supplies the extractor, not a new Row implementation per kind.
type Row interface {
	UID() string
	Group() string
	Name() string
	// GetName renders the name column, truncated/padded to width.
	GetName(width int) string
	// ColumnText renders column's display text.
	ColumnText(column int) string
	// ColumnSortText renders column's sort key (may differ from display
	// text, e.g. zero-padded numbers or raw RFC3339 timestamps).
	ColumnSortText(column int) string
	// Contains reports whether pattern appears in the row's name.
	Contains(pattern string) bool
	// StartsWith reports whether the row's name starts with pattern.
	StartsWith(pattern string) bool
	// IsEqual reports whether the row's name exactly equals pattern.
	IsEqual(pattern string) bool
}
