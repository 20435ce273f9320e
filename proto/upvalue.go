package proto

import "github.com/semi-lang/semi/value"

// Upvalue is the shared mutable cell from spec.md §9's re-architecture
// note: "Model with a shared mutable cell type whose interior holds
// either an index-into-frame (Open{frameId, slot}) or an owned value
// (Closed(Value))." Because the VM's register file is a single
// reallocatable []value.Value (spec.md §3), a raw Go pointer into it
// would go stale across a growth-triggered reallocation; storing an
// absolute register index instead (resolved against the VM's current
// backing slice by the vm package) is what the Design Notes call for
// and is the only representation that survives reallocation.
type Upvalue struct {
	open     bool
	regIndex int // valid registers file index while open
	closed   value.Value
	next     *Upvalue // open-upvalue list link, sorted by descending regIndex
}

func NewOpenUpvalue(regIndex int) *Upvalue {
	return &Upvalue{open: true, regIndex: regIndex}
}

func (u *Upvalue) HeapVariant() value.Variant { return value.VariantHeap }

func (u *Upvalue) IsOpen() bool    { return u.open }
func (u *Upvalue) RegIndex() int   { return u.regIndex }
func (u *Upvalue) Next() *Upvalue  { return u.next }
func (u *Upvalue) SetNext(n *Upvalue) { u.next = n }

// Get reads the upvalue's current value; registers is the VM's live
// register-file slice, needed only while open.
func (u *Upvalue) Get(registers []value.Value) value.Value {
	if u.open {
		return registers[u.regIndex]
	}
	return u.closed
}

// Set writes the upvalue's current value.
func (u *Upvalue) Set(registers []value.Value, v value.Value) {
	if u.open {
		registers[u.regIndex] = v
		return
	}
	u.closed = v
}

// Close moves the register's current value into the upvalue's own
// storage and marks it closed (spec.md §3 U1/U2, §4.6's CLOSE_UPVALUES).
func (u *Upvalue) Close(registers []value.Value) {
	if !u.open {
		return // idempotent, per invariant U2
	}
	u.closed = registers[u.regIndex]
	u.open = false
}
