package collection

import "github.com/semi-lang/semi/value"

// IteratorObj is the heap cursor FOR loops iterate over (spec.md
// §4.5's generic iteration protocol). It is intentionally a single
// self-contained type rather than reusing each source collection's own
// shape, since a dict's open-addressed slots carry no integer index an
// external cursor could re-index by (spec.md §3's tombstone/compaction
// model) — materializing a flat snapshot once up front and walking it
// by position is the simplest cursor that works uniformly for String,
// List, and Dict.
type IteratorObj struct {
	items []value.Value
	pos   int
}

// NewIteratorObj snapshots items for positional iteration.
func NewIteratorObj(items []value.Value) *IteratorObj {
	return &IteratorObj{items: items}
}

func (it *IteratorObj) HeapVariant() value.Variant { return value.VariantHeap }

// Next returns the next snapshotted value, or (Invalid, false) once
// exhausted.
func (it *IteratorObj) Next() (value.Value, bool) {
	if it.pos >= len(it.items) {
		return value.InvalidValue, false
	}
	v := it.items[it.pos]
	it.pos++
	return v, true
}
