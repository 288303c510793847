package listmodel

import (
	"strings"
	"testing"
)

// testRow is a minimal Row implementation used across listmodel tests,
// mirroring original_source's `TestItem` (filterable_list.tests.rs /
// scrollable_list.tests.rs).
type testRow struct {
	name string
}

func tr(name string) testRow { return testRow{name: name} }

func (r testRow) UID() string                     { return r.name }
func (r testRow) Group() string                   { return "" }
func (r testRow) Name() string                    { return r.name }
func (r testRow) GetName(width int) string        { return r.name }
func (r testRow) ColumnText(col int) string       { return r.name }
func (r testRow) ColumnSortText(col int) string   { return r.name }
func (r testRow) Contains(pattern string) bool    { return strings.Contains(r.name, pattern) }
func (r testRow) StartsWith(pattern string) bool  { return strings.HasPrefix(r.name, pattern) }
func (r testRow) IsEqual(pattern string) bool      { return r.name == pattern }

func byPattern(pattern string) func(testRow) bool {
	return func(r testRow) bool { return r.Contains(pattern) }
}

func names(items []*Item[testRow]) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Data.name
	}
	return out
}

func TestFilterableListLen(t *testing.T) {
	data := []testRow{tr("1"), tr("2"), tr("3"), tr("4"), tr("5"), tr("10"), tr("11")}
	list := NewFilterableList(data)
	if got := list.Len(); got != 7 {
		t.Fatalf("Len() = %d, want 7", got)
	}
	list.Filter(byPattern("1"))
	if got := list.Len(); got != 3 {
		t.Fatalf("Len() after filter = %d, want 3", got)
	}
}

func TestFilterableListIterators(t *testing.T) {
	list := NewFilterableList([]testRow{tr("abc"), tr("bcd"), tr("cde")})

	if got := names(list.Iter()); !equalSlices(got, []string{"abc", "bcd", "cde"}) {
		t.Fatalf("Iter() = %v", got)
	}

	list.Filter(byPattern("bc"))
	if got := names(list.Iter()); !equalSlices(got, []string{"abc", "bcd"}) {
		t.Fatalf("Iter() after filter = %v", got)
	}
	if got := names(list.FullIter()); !equalSlices(got, []string{"abc", "bcd", "cde"}) {
		t.Fatalf("FullIter() = %v, want all three regardless of filter", got)
	}
}

func TestFilterableListMutableIteration(t *testing.T) {
	list := NewFilterableList([]testRow{tr("abc"), tr("bcd"), tr("cde")})
	list.Filter(byPattern("bc"))

	for _, it := range list.Iter() {
		it.Data = tr("test")
	}
	list.FilterReset()

	full := list.FullIter()
	if full[0].Data.name != "test" || full[1].Data.name != "test" || full[2].Data.name != "cde" {
		t.Fatalf("unexpected full list after mutate+reset: %v", names(full))
	}
}

func TestFilterableListPushDuringFilterIsHiddenUntilMatch(t *testing.T) {
	list := NewFilterableList([]testRow{tr("abc"), tr("abd")})
	list.Filter(byPattern("xyz"))
	if list.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", list.Len())
	}

	list.Push(tr("xyzzy"))
	if list.Len() != 1 {
		t.Fatalf("Len() after matching push = %d, want 1", list.Len())
	}

	list.Push(tr("nope"))
	if list.Len() != 1 {
		t.Fatalf("Len() after non-matching push = %d, want 1", list.Len())
	}

	list.FilterReset()
	if list.Len() != 4 {
		t.Fatalf("Len() after reset = %d, want 4", list.Len())
	}
}

func equalSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
