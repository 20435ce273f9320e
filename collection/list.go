package collection

import (
	"github.com/semi-lang/semi/errid"
	"github.com/semi-lang/semi/value"
)

// ListObj is a dense resizable vector of Values (spec.md §3). Go's
// append already doubles capacity on growth, matching the spec'd
// growth policy, so the explicit size/capacity fields the C original
// tracks collapse into the slice's own len/cap.
type ListObj struct {
	items []value.Value
}

func NewListObj() *ListObj { return &ListObj{} }

func NewListObjFrom(items []value.Value) *ListObj {
	l := &ListObj{items: make([]value.Value, len(items))}
	copy(l.items, items)
	return l
}

func (l *ListObj) HeapVariant() value.Variant { return value.VariantHeap }

func (l *ListObj) Len() int { return len(l.items) }

// normalizeIndex accepts negative indices (wrap against length), per
// spec.md §4.5.
func (l *ListObj) normalizeIndex(i int) (int, bool) {
	n := len(l.items)
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, false
	}
	return i, true
}

func (l *ListObj) Get(i int) (value.Value, error) {
	idx, ok := l.normalizeIndex(i)
	if !ok {
		return value.InvalidValue, errid.NewRuntimeError(errid.IndexOOB, 0)
	}
	return l.items[idx], nil
}

func (l *ListObj) Set(i int, v value.Value) error {
	idx, ok := l.normalizeIndex(i)
	if !ok {
		return errid.NewRuntimeError(errid.IndexOOB, 0)
	}
	l.items[idx] = v
	return nil
}

func (l *ListObj) Append(v value.Value) { l.items = append(l.items, v) }

func (l *ListObj) Extend(items []value.Value) { l.items = append(l.items, items...) }

// Pop removes and returns the last element.
func (l *ListObj) Pop() (value.Value, error) {
	n := len(l.items)
	if n == 0 {
		return value.InvalidValue, errid.NewRuntimeError(errid.IndexOOB, 0)
	}
	v := l.items[n-1]
	l.items = l.items[:n-1]
	return v, nil
}

func (l *ListObj) Del(i int) error {
	idx, ok := l.normalizeIndex(i)
	if !ok {
		return errid.NewRuntimeError(errid.IndexOOB, 0)
	}
	l.items = append(l.items[:idx], l.items[idx+1:]...)
	return nil
}

// Contains implements the naive linear membership test the `in`
// operator and CONTAIN opcode use for lists.
func (l *ListObj) Contains(v value.Value) bool {
	for _, item := range l.items {
		if value.Equals(item, v) {
			return true
		}
	}
	return false
}

// Items exposes the backing slice read-only for iteration.
func (l *ListObj) Items() []value.Value { return l.items }
