package listmodel

// Item wraps a Row with list-membership flags, mirroring
// original_source/b4n-list/item.rs's `Item<T, Fc>`.
type Item[T Row] struct {
	Data       T
	IsActive   bool
	IsSelected bool
	IsDirty    bool
	IsFixed    bool
}

// NewItem wraps data in a plain (non-dirty, non-fixed) Item.
func NewItem[T Row](data T) *Item[T] {
	return &Item[T]{Data: data}
}

// DirtyItem wraps data in an Item already marked dirty (used when an
// observer reconnect re-delivers state that was previously rendered — the
// UI may want to flash/highlight it).
func DirtyItem[T Row](data T) *Item[T] {
	return &Item[T]{Data: data, IsDirty: true}
}

// FixedItem wraps data in an Item pinned in place (excluded from
// selection/sort reordering — e.g. a "parent" row in an xray tree).
func FixedItem[T Row](data T) *Item[T] {
	return &Item[T]{Data: data, IsFixed: true}
}

// Select sets the selection flag; fixed items can never be selected.
func (i *Item[T]) Select(selected bool) {
	i.IsSelected = !i.IsFixed && selected
}

// InvertSelection toggles the selection flag; fixed items are unaffected.
func (i *Item[T]) InvertSelection() {
	i.IsSelected = !i.IsFixed && !i.IsSelected
}
