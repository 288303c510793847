package listmodel

// FilterableList is an ordered sequence of Item[T] with a secondary
// "visible subset" view (spec component C2). The visible subset is always
// a projection preserving the full list's insertion order; resetting the
// filter restores the total order. Selection/fixed/dirty flags on an Item
// survive filtering since filtering never touches the Item itself, only
// which indices are visible.
//
// Grounded on original_source/b4n-list/filter/filterable_list.rs and its
// test oracle (filterable_list.tests.rs): len/iter/full_iter,
// filter/filter_reset, and "pushes during an active filter are invisible
// until they match" are all exercised directly in filterable_list_test.go.
type FilterableList[T Row] struct {
	items    []*Item[T]
	visible  []int // indices into items, insertion order; nil when unfiltered
	filtered bool
	pattern  func(T) bool
}

// NewFilterableList builds a FilterableList from initial data, unfiltered.
func NewFilterableList[T Row](data []T) *FilterableList[T] {
	items := make([]*Item[T], len(data))
	for i, d := range data {
		items[i] = NewItem(d)
	}
	return &FilterableList[T]{items: items}
}

// Len returns the number of visible items (the full count if no filter is
// active).
func (l *FilterableList[T]) Len() int {
	if l.filtered {
		return len(l.visible)
	}
	return len(l.items)
}

// FullLen returns the total number of items regardless of any active
// filter.
func (l *FilterableList[T]) FullLen() int { return len(l.items) }

// Push appends a new item. If a filter is active, the item becomes visible
// immediately only if it matches the active predicate; otherwise it stays
// hidden until FilterReset or a future Filter call that matches it.
func (l *FilterableList[T]) Push(data T) {
	item := NewItem(data)
	l.items = append(l.items, item)
	if l.filtered && l.pattern(data) {
		l.visible = append(l.visible, len(l.items)-1)
	}
}

// Filter narrows the visible subset to items matching pred, preserving
// insertion order. Calling Filter again (including with a different pred)
// always re-evaluates against the full list, it does not narrow the
// current visible subset further.
func (l *FilterableList[T]) Filter(pred func(T) bool) {
	l.pattern = pred
	l.filtered = true
	l.visible = l.visible[:0]
	for i, it := range l.items {
		if pred(it.Data) {
			l.visible = append(l.visible, i)
		}
	}
}

// FilterReset clears any active filter, restoring the total order.
func (l *FilterableList[T]) FilterReset() {
	l.filtered = false
	l.visible = nil
	l.pattern = nil
}

// IsFiltered reports whether a filter is currently active.
func (l *FilterableList[T]) IsFiltered() bool { return l.filtered }

// FullRetain removes items (from the full list, including hidden ones) for
// which pred returns false, re-deriving the visible subset afterwards if a
// filter is active.
func (l *FilterableList[T]) FullRetain(pred func(T) bool) {
	kept := l.items[:0]
	for _, it := range l.items {
		if pred(it.Data) {
			kept = append(kept, it)
		}
	}
	l.items = kept
	if l.filtered {
		l.Filter(l.pattern)
	}
}

// At returns the item at visible position i (or the full-list position i
// when unfiltered).
func (l *FilterableList[T]) At(i int) *Item[T] {
	if l.filtered {
		return l.items[l.visible[i]]
	}
	return l.items[i]
}

// FullAt returns the item at full-list position i, ignoring any filter.
func (l *FilterableList[T]) FullAt(i int) *Item[T] { return l.items[i] }

// Iter returns the currently visible items in order.
func (l *FilterableList[T]) Iter() []*Item[T] {
	if !l.filtered {
		return l.items
	}
	out := make([]*Item[T], len(l.visible))
	for i, idx := range l.visible {
		out[i] = l.items[idx]
	}
	return out
}

// FullIter returns every item regardless of any active filter.
func (l *FilterableList[T]) FullIter() []*Item[T] { return l.items }

// VisibleIndex maps a visible position back to its full-list index;
// returns -1 if out of range.
func (l *FilterableList[T]) VisibleIndex(i int) int {
	if l.filtered {
		if i < 0 || i >= len(l.visible) {
			return -1
		}
		return l.visible[i]
	}
	if i < 0 || i >= len(l.items) {
		return -1
	}
	return i
}
