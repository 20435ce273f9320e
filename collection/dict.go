package collection

import (
	"github.com/semi-lang/semi/errid"
	"github.com/semi-lang/semi/value"
)

// MinIndexSize is the smallest index array size (spec.md §3).
const MinIndexSize = 8

const (
	slotEmpty     int64 = -1
	slotTombstone int64 = -2
)

type dictEntry struct {
	key     value.Value
	val     value.Value
	hash    uint64
	deleted bool
}

// DictObj is an open-addressed hash table with a separated index array
// (tids) and a parallel key/value entry table (spec.md §3). Invariants
// D1-D3 are maintained by Set/Get/Del/resize below.
type DictObj struct {
	tids    []int64
	entries []dictEntry
	len     int // live key count
	used    int // used index slots (live + tombstone)
}

func NewDictObj() *DictObj {
	d := &DictObj{tids: make([]int64, MinIndexSize)}
	for i := range d.tids {
		d.tids[i] = slotEmpty
	}
	return d
}

func (d *DictObj) HeapVariant() value.Variant { return value.VariantHeap }

func (d *DictObj) Len() int { return d.len }

func (d *DictObj) mask() int { return len(d.tids) - 1 }

// findSlot probes from hash's home slot until an empty slot or a match
// is found (D3: tombstones are skipped for reads).
func (d *DictObj) findSlot(key value.Value, hash uint64) (slotIdx int, tid int64, found bool) {
	mask := d.mask()
	idx := int(hash) & mask
	for i := 0; i < len(d.tids); i++ {
		t := d.tids[idx]
		if t == slotEmpty {
			return idx, slotEmpty, false
		}
		if t != slotTombstone {
			e := &d.entries[t]
			if e.hash == hash && value.Equals(e.key, key) {
				return idx, t, true
			}
		}
		idx = (idx + 1) & mask
	}
	return -1, slotEmpty, false
}

func (d *DictObj) Get(key value.Value) (value.Value, bool) {
	hash := value.Hash(key)
	_, tid, found := d.findSlot(key, hash)
	if !found {
		return value.InvalidValue, false
	}
	return d.entries[tid].val, true
}

func (d *DictObj) Contains(key value.Value) bool {
	_, ok := d.Get(key)
	return ok
}

// Set inserts or updates key -> val, resizing first if the 2/3 load
// factor would be exceeded (spec.md §3).
func (d *DictObj) Set(key, val value.Value) {
	hash := value.Hash(key)
	if float64(d.used+1)/float64(len(d.tids)) > 2.0/3.0 {
		d.resize(len(d.tids) * 2)
	}
	mask := d.mask()
	idx := int(hash) & mask
	firstTombstone := -1
	for {
		t := d.tids[idx]
		if t == slotTombstone {
			if firstTombstone < 0 {
				firstTombstone = idx
			}
			idx = (idx + 1) & mask
			continue
		}
		if t == slotEmpty {
			writeIdx := idx
			reuseTombstone := firstTombstone >= 0
			if reuseTombstone {
				writeIdx = firstTombstone
			}
			eid := int64(len(d.entries))
			d.entries = append(d.entries, dictEntry{key: key, val: val, hash: hash})
			d.tids[writeIdx] = eid
			d.len++
			if !reuseTombstone {
				d.used++
			}
			return
		}
		e := &d.entries[t]
		if e.hash == hash && value.Equals(e.key, key) {
			e.val = val
			return
		}
		idx = (idx + 1) & mask
	}
}

// Del removes key, leaving a tombstone in the index array (spec.md §3).
func (d *DictObj) Del(key value.Value) bool {
	hash := value.Hash(key)
	slotIdx, tid, found := d.findSlot(key, hash)
	if !found {
		return false
	}
	d.tids[slotIdx] = slotTombstone
	d.entries[tid].deleted = true
	d.len--
	return true
}

// resize rebuilds the table at newSize, compacting away tombstoned
// entries (spec.md §3: "Deletion...may compact entries").
func (d *DictObj) resize(newSize int) {
	if newSize < MinIndexSize {
		newSize = MinIndexSize
	}
	live := make([]dictEntry, 0, d.len)
	for _, e := range d.entries {
		if !e.deleted {
			live = append(live, e)
		}
	}
	d.tids = make([]int64, newSize)
	for i := range d.tids {
		d.tids[i] = slotEmpty
	}
	d.entries = live
	d.used = len(live)
	d.len = len(live)
	mask := newSize - 1
	for i := range d.entries {
		idx := int(d.entries[i].hash) & mask
		for d.tids[idx] != slotEmpty {
			idx = (idx + 1) & mask
		}
		d.tids[idx] = int64(i)
	}
}

// Each calls fn for every live key/value pair in entry-table order
// (effectively insertion order modulo deletions), used by dict
// iteration and GET_ATTR-style dumps.
func (d *DictObj) Each(fn func(key, val value.Value) bool) {
	for _, e := range d.entries {
		if e.deleted {
			continue
		}
		if !fn(e.key, e.val) {
			return
		}
	}
}

// Pop removes and returns the value for key.
func (d *DictObj) Pop(key value.Value) (value.Value, error) {
	v, ok := d.Get(key)
	if !ok {
		return value.InvalidValue, errid.NewRuntimeError(errid.KeyNotFound, 0)
	}
	d.Del(key)
	return v, nil
}

// IndexSize exposes the current index array size for invariant tests
// (D2: len <= used <= indexSize).
func (d *DictObj) IndexSize() int { return len(d.tids) }
func (d *DictObj) Used() int      { return d.used }
