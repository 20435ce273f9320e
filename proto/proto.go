// Package proto implements the immutable FunctionProto and the runtime
// Closure/Upvalue objects of spec.md §3 component 8.
package proto

import (
	"github.com/google/uuid"

	"github.com/semi-lang/semi/bytecode"
	"github.com/semi-lang/semi/value"
)

// UpvalueDesc is one compile-time capture descriptor: isLocal selects
// between "capture enclosing frame's register index" and "capture
// enclosing closure's upvalue index" (spec.md §3).
type UpvalueDesc struct {
	Index   byte
	IsLocal bool
}

// FunctionProto is the immutable record the compiler produces for one
// function (spec.md §3's 6-tuple, minus ModuleID folded in as a uuid
// for the SPEC_FULL.md module-identity wiring).
type FunctionProto struct {
	Code         []bytecode.Instruction
	ModuleID     uuid.UUID
	Name         string
	Arity        int
	Coarity      int
	MaxStackSize int
	Upvalues     []UpvalueDesc
}

func (p *FunctionProto) HeapVariant() value.Variant { return value.VariantHeap }

// NativeFunc is the host-provided native function interface of spec.md
// §6: "(vm, argCount, args, out) -> ErrorId". host is an opaque handle
// (the embedding vm.VM) kept as `any` here so this package does not
// import vm (which imports proto).
type NativeFunc func(host any, args []value.Value, out *value.Value) error

// Closure pairs a FunctionProto with its captured Upvalue instances
// (spec.md §3). Native closures carry Fn instead of Proto/Upvalues.
type Closure struct {
	Proto    *FunctionProto
	Upvalues []*Upvalue
	Fn       NativeFunc

	// PrevDeferredFn links deferred closures into a frame's LIFO defer
	// list (spec.md §3, §4.6).
	PrevDeferredFn *Closure
}

func (c *Closure) HeapVariant() value.Variant { return value.VariantHeap }

func (c *Closure) IsNative() bool { return c.Fn != nil }

// NewClosure allocates a closure over proto with freshly-sized upvalue
// slots (populated by the VM's capture logic, spec.md §4.6).
func NewClosure(p *FunctionProto) *Closure {
	return &Closure{Proto: p, Upvalues: make([]*Upvalue, len(p.Upvalues))}
}

func NewNativeClosure(fn NativeFunc) *Closure {
	return &Closure{Fn: fn}
}
