// Package semimod implements the Module record of spec.md §3/§4.2/§4.7
// (component 7): constant pool, globals, exports, types, and moduleInit.
package semimod

import (
	"github.com/google/uuid"

	"github.com/semi-lang/semi/constpool"
	"github.com/semi-lang/semi/proto"
	"github.com/semi-lang/semi/value"
)

// Vars is a module-scope variable table: a compile-time name->slot
// index plus the runtime slot storage GET_MODULE_VAR/SET_MODULE_VAR
// address directly by slot index K (spec.md §4.1). Existence checks
// (spec.md §4.4.2: "globals -> exports -> module globals") consult the
// name map, not the slot array.
type Vars struct {
	names map[string]int
	slots []value.Value
}

func newVars() *Vars {
	return &Vars{names: make(map[string]int)}
}

// Declare allocates a new slot for name if it doesn't already have one
// and returns its slot index either way.
func (v *Vars) Declare(name string) int {
	if idx, ok := v.names[name]; ok {
		return idx
	}
	idx := len(v.slots)
	v.names[name] = idx
	v.slots = append(v.slots, value.InvalidValue)
	return idx
}

func (v *Vars) Lookup(name string) (int, bool) {
	idx, ok := v.names[name]
	return idx, ok
}

func (v *Vars) Get(idx int) value.Value {
	if idx < 0 || idx >= len(v.slots) {
		return value.InvalidValue
	}
	return v.slots[idx]
}

func (v *Vars) Set(idx int, val value.Value) {
	if idx < 0 || idx >= len(v.slots) {
		return
	}
	v.slots[idx] = val
}

func (v *Vars) Len() int { return len(v.slots) }

// ClassInfo records a SPEC_FULL.md `struct` declaration: its allocated
// class BaseType id and the compile-time field name -> slot layout.
type ClassInfo struct {
	ClassID value.BaseType
	Fields  map[string]int
	Order   []string // field declaration order; struct literals name every field, so the compiler does not read it
}

// Module is the spec.md §3 6-tuple: constants, globals, exports, types,
// moduleInit (the ID field is the SPEC_FULL.md module-identity wiring).
type Module struct {
	ID         uuid.UUID
	Constants  *constpool.Table
	Globals    *Vars
	Exports    *Vars
	Types      map[string]*ClassInfo
	ModuleInit *proto.FunctionProto

	nextClassID value.BaseType
}

func New() *Module {
	return &Module{
		ID:          uuid.New(),
		Constants:   constpool.New(),
		Globals:     newVars(),
		Exports:     newVars(),
		Types:       make(map[string]*ClassInfo),
		nextClassID: value.ClassBase,
	}
}

// DeclareClass allocates a fresh class id for a `struct` declaration
// (SPEC_FULL.md). Field declaration order is kept in ClassInfo.Order.
func (m *Module) DeclareClass(name string, fieldOrder []string) *ClassInfo {
	fields := make(map[string]int, len(fieldOrder))
	for i, f := range fieldOrder {
		fields[f] = i
	}
	ci := &ClassInfo{ClassID: m.nextClassID, Fields: fields, Order: fieldOrder}
	m.nextClassID++
	m.Types[name] = ci
	return ci
}
