// Package dispatch implements the per-base-type method tables of
// spec.md §4.5: hash, numeric, comparison, conversion, and collection
// operation groups keyed by a Value's base type, with every
// unsupported entry routed to a shared "invalid" stub that returns
// UNEXPECTED_TYPE. Implemented as a table-of-function-pointers per
// spec.md §9's guidance ("table form when the hot path is an indirect
// call anyway" — the VM's opcode dispatch is always indirect here).
package dispatch

import (
	"github.com/semi-lang/semi/errid"
	"github.com/semi-lang/semi/value"
)

// BinaryFunc and UnaryFunc are the numeric/comparison method shapes.
type BinaryFunc func(a, b value.Value) (value.Value, error)
type UnaryFunc func(a value.Value) (value.Value, error)

type NumericMethods struct {
	Add, Sub, Mul, Div, FloorDiv, Mod, Pow BinaryFunc
	Neg                                    UnaryFunc
	And, Or, Xor, Shl, Shr                 BinaryFunc
	Invert                                 UnaryFunc
}

type ComparisonMethods struct {
	Gt, Ge, Lt, Le, Eq, Neq BinaryFunc
}

type ConversionMethods struct {
	ToInt, ToFloat, ToString UnaryFunc
	ToType                   func(v value.Value, t value.BaseType) (value.Value, error)
	ToBool                   func(v value.Value) bool
}

type CollectionMethods struct {
	Len     func(v value.Value) (int, error)
	Contain func(v, item value.Value) (bool, error)
	GetItem func(v, key value.Value) (value.Value, error)
	SetItem func(v, key, val value.Value) error
	DelItem func(v, key value.Value) error
	Append  func(v, item value.Value) error
	Extend  func(v, items value.Value) error
	Pop     func(v value.Value) (value.Value, error)
	Iter    func(v value.Value) (value.Value, error) // returns an iterator seed value (usually v itself)
}

// MethodTable is one base type's full dispatch surface.
type MethodTable struct {
	Hash       func(v value.Value) uint64
	Numeric    NumericMethods
	Comparison ComparisonMethods
	Conversion ConversionMethods
	Collection CollectionMethods
	// Next is the one-shot iterator advance (spec.md §4.5): returns the
	// next value, or (Invalid, false) on exhaustion.
	Next func(v value.Value) (value.Value, bool)
}

func invalidBinary(a, b value.Value) (value.Value, error) {
	return value.InvalidValue, errid.NewRuntimeError(errid.UnexpectedType, 0)
}

func invalidUnary(a value.Value) (value.Value, error) {
	return value.InvalidValue, errid.NewRuntimeError(errid.UnexpectedType, 0)
}

// newInvalidTable returns a table whose every method returns
// UNEXPECTED_TYPE, the shared fallback spec.md §4.5 names.
func newInvalidTable() *MethodTable {
	return &MethodTable{
		Hash: value.Hash,
		Numeric: NumericMethods{
			Add: invalidBinary, Sub: invalidBinary, Mul: invalidBinary,
			Div: invalidBinary, FloorDiv: invalidBinary, Mod: invalidBinary,
			Pow: invalidBinary, Neg: invalidUnary,
			And: invalidBinary, Or: invalidBinary, Xor: invalidBinary,
			Shl: invalidBinary, Shr: invalidBinary, Invert: invalidUnary,
		},
		Comparison: ComparisonMethods{
			Gt: invalidBinary, Ge: invalidBinary, Lt: invalidBinary, Le: invalidBinary,
			Eq: func(a, b value.Value) (value.Value, error) { return value.NewBool(value.Equals(a, b)), nil },
			Neq: func(a, b value.Value) (value.Value, error) {
				return value.NewBool(!value.Equals(a, b)), nil
			},
		},
		Conversion: ConversionMethods{
			ToInt: invalidUnary, ToFloat: invalidUnary, ToString: invalidUnary,
			ToType: func(v value.Value, t value.BaseType) (value.Value, error) {
				return value.InvalidValue, errid.NewRuntimeError(errid.UnexpectedType, 0)
			},
			ToBool: func(v value.Value) bool { return v.Truthy() },
		},
		Collection: CollectionMethods{
			Len:     func(v value.Value) (int, error) { return 0, errid.NewRuntimeError(errid.UnexpectedType, 0) },
			Contain: func(v, item value.Value) (bool, error) { return false, errid.NewRuntimeError(errid.UnexpectedType, 0) },
			GetItem: func(v, key value.Value) (value.Value, error) {
				return value.InvalidValue, errid.NewRuntimeError(errid.UnexpectedType, 0)
			},
			SetItem: func(v, key, val value.Value) error { return errid.NewRuntimeError(errid.UnexpectedType, 0) },
			DelItem: func(v, key value.Value) error { return errid.NewRuntimeError(errid.UnexpectedType, 0) },
			Append:  func(v, item value.Value) error { return errid.NewRuntimeError(errid.UnexpectedType, 0) },
			Extend:  func(v, items value.Value) error { return errid.NewRuntimeError(errid.UnexpectedType, 0) },
			Pop: func(v value.Value) (value.Value, error) {
				return value.InvalidValue, errid.NewRuntimeError(errid.UnexpectedType, 0)
			},
			Iter: func(v value.Value) (value.Value, error) {
				return value.InvalidValue, errid.NewRuntimeError(errid.UnexpectedType, 0)
			},
		},
		Next: func(v value.Value) (value.Value, bool) { return value.InvalidValue, false },
	}
}

// tables is keyed by BaseType; class instances above value.ClassBase
// all route to the dict-shaped table via For().
var tables = map[value.BaseType]*MethodTable{}

func register(t value.BaseType, tbl *MethodTable) { tables[t] = tbl }

// For returns the dispatch table for v's base type, falling back to the
// shared invalid stub table for anything unregistered (spec.md §4.5).
func For(t value.BaseType) *MethodTable {
	if tbl, ok := tables[t]; ok {
		return tbl
	}
	if t >= value.ClassBase {
		return tables[value.Dict] // class instances dispatch like dicts (field map)
	}
	return newInvalidTable()
}
