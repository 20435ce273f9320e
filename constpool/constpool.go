// Package constpool implements the per-module ordered, deduplicated
// constant table of spec.md §4.2.
package constpool

import (
	"github.com/semi-lang/semi/value"
)

// MaxIndex is the largest representable index: a 16-bit index space
// (spec.md §4.2).
const MaxIndex = 0xFFFF

// InvalidIndex is returned when the pool's capacity is exhausted.
const InvalidIndex = -1

// Table is the ordered, deduplicated constant pool (spec.md §4.2,
// C1-C3). Insertion returns the existing index if an equal value (by
// the language's structural equality) is already present.
type Table struct {
	values []value.Value
}

func New() *Table { return &Table{} }

// Insert returns the stable index for v, adding it if this is the
// first structurally-equal value seen (C1, C2). Returns InvalidIndex if
// the pool's 16-bit index space is exhausted.
func (t *Table) Insert(v value.Value) int {
	for idx, existing := range t.values {
		if value.Equals(existing, v) {
			return idx
		}
	}
	if len(t.values) > MaxIndex {
		return InvalidIndex
	}
	t.values = append(t.values, v)
	return len(t.values) - 1
}

// Get returns the value at idx.
func (t *Table) Get(idx int) (value.Value, bool) {
	if idx < 0 || idx >= len(t.values) {
		return value.InvalidValue, false
	}
	return t.values[idx], true
}

// Len is the number of distinct constants currently pooled.
func (t *Table) Len() int { return len(t.values) }

// All returns the pool contents in index order (the module's
// constants[] array at rest, spec.md §6).
func (t *Table) All() []value.Value { return t.values }
