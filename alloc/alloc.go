// Package alloc implements the size-tracked heap allocator and the
// process-wide (per-VM) string interner named by spec.md §2 component 1.
package alloc

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Allocator is the host-provided collaborator interface from spec.md
// §6: "(ptr, newSize, userdata) -> ptr". newSize == 0 frees. Unlike the
// C contract, Go slices already carry their own length/capacity, so the
// interface is expressed as a realloc-shaped method rather than a raw
// pointer swap.
type Allocator interface {
	// Allocate grows, shrinks, or frees old (pass nil to allocate fresh).
	// newSize == 0 frees and returns nil. Failure returns an error
	// (MEMORY_ALLOCATION_FAILURE at the caller).
	Allocate(old []byte, newSize int) ([]byte, error)
	// Allocated reports the live byte count granted so far.
	Allocated() int64
}

// DefaultAllocator is a slab-style allocator grounded on
// tinyrange-rtg/std/compiler/backend_vm.go's slabAllocSmall/
// slabAllocLarge bump allocator, generalized from fixed-size VM memory
// slabs to a size-tracked Go byte-slice allocator with a soft cap.
type DefaultAllocator struct {
	limit     int64
	allocated int64
}

// NewDefaultAllocator returns an allocator that fails once the live byte
// count would exceed limit. limit <= 0 means unlimited.
func NewDefaultAllocator(limit int64) *DefaultAllocator {
	return &DefaultAllocator{limit: limit}
}

func (a *DefaultAllocator) Allocated() int64 { return a.allocated }

func (a *DefaultAllocator) Allocate(old []byte, newSize int) ([]byte, error) {
	oldLen := len(old)
	if newSize == 0 {
		a.allocated -= int64(oldLen)
		return nil, nil
	}
	delta := int64(newSize - oldLen)
	if a.limit > 0 && a.allocated+delta > a.limit {
		return nil, &AllocationError{Requested: int64(newSize), Limit: a.limit, Used: a.allocated}
	}
	buf := make([]byte, newSize)
	copy(buf, old)
	a.allocated += delta
	return buf, nil
}

// AllocationError is MEMORY_ALLOCATION_FAILURE surfaced with
// human-readable sizes, grounded on the go-humanize usage seen across
// the retrieval pack's VM/language repos (mcgru-funxy, funvibe-funxy,
// sentra-language-sentra).
type AllocationError struct {
	Requested int64
	Limit     int64
	Used      int64
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("allocation failed: requested %s, %s already used of %s limit",
		humanize.Bytes(uint64(e.Requested)), humanize.Bytes(uint64(e.Used)), humanize.Bytes(uint64(e.Limit)))
}
