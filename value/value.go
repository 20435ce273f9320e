// Package value implements the tagged Value representation of spec.md
// §3, re-architected per spec.md §9 from a bit-packed header/payload
// union into a Go sum type: one struct with a BaseType/Variant tag pair
// and the fields relevant to that tag. The bit layout spec.md §3
// describes for the C original is explicitly not part of the Go
// semantics (spec.md §9); only the logical tag and payload matter.
package value

import "math"

// HeapObject is implemented by every heap-allocated object a Value can
// reference (collection.StringObj, collection.RangeObj, collection.ListObj,
// collection.DictObj, proto.Closure, proto.FunctionProto, proto.Upvalue,
// and user class instances). Keeping this a narrow marker interface
// lets value.Value hold a heap pointer (invariant I2) without value
// importing collection/proto, which instead import value.
type HeapObject interface {
	HeapVariant() Variant
}

// Value is a single cell: spec.md invariant I1 (the base tag fully
// determines dispatch), I4 (Invalid is a distinct sentinel).
type Value struct {
	typ     BaseType
	variant Variant

	boolean bool
	i       int64
	f       float64

	inlineLen byte
	inlineStr [2]byte

	inlineStart int32
	inlineEnd   int32

	obj HeapObject
}

// Invalid value singleton, the "absent" sentinel (I4).
var InvalidValue = Value{typ: Invalid}

func NewBool(b bool) Value  { return Value{typ: Bool, boolean: b} }
func NewInt(i int64) Value  { return Value{typ: Int, i: i} }
func NewFloat(f float64) Value { return Value{typ: Float, f: f} }

// NewInlineString holds 0-2 bytes directly in the cell (spec.md §3).
func NewInlineString(b []byte) Value {
	if len(b) > 2 {
		panic("value: inline string must be <= 2 bytes")
	}
	v := Value{typ: String, variant: VariantInlineString, inlineLen: byte(len(b))}
	copy(v.inlineStr[:], b)
	return v
}

// NewHeapString wraps a heap object (collection.StringObj) implementing
// HeapObject with HeapVariant() == VariantHeapString.
func NewHeapString(obj HeapObject) Value {
	return Value{typ: String, variant: VariantHeapString, obj: obj}
}

// NewInlineRange is the `[start, end)` step-1 inline form.
func NewInlineRange(start, end int32) Value {
	return Value{typ: Range, variant: VariantInlineRange, inlineStart: start, inlineEnd: end}
}

func NewHeapRange(obj HeapObject) Value {
	return Value{typ: Range, variant: VariantHeapRange, obj: obj}
}

func NewList(obj HeapObject) Value { return Value{typ: List, variant: VariantHeap, obj: obj} }
func NewDict(obj HeapObject) Value { return Value{typ: Dict, variant: VariantHeap, obj: obj} }

// NewIterator tags a collection.IteratorObj heap cursor (spec.md §4.5's
// FOR loop protocol, enriched per SPEC_FULL.md to cover String/List/
// Dict uniformly alongside Range's own native cursor).
func NewIterator(obj HeapObject) Value {
	return Value{typ: Iterator, variant: VariantHeap, obj: obj}
}

func NewUpvalue(obj HeapObject) Value {
	return Value{typ: UpvalueType, variant: VariantHeap, obj: obj}
}

func NewFunction(obj HeapObject) Value {
	return Value{typ: Function, variant: VariantHeap, obj: obj}
}

func NewFunctionProto(obj HeapObject) Value {
	return Value{typ: FunctionProto, variant: VariantHeap, obj: obj}
}

// NewClassInstance tags a heap object with a user-defined class id
// (SPEC_FULL.md "struct literals"); classID must be >= ClassBase.
func NewClassInstance(classID BaseType, obj HeapObject) Value {
	if classID < ClassBase {
		panic("value: class id below ClassBase")
	}
	return Value{typ: classID, variant: VariantHeap, obj: obj}
}

// --- predicates & accessors ---

func (v Value) Type() BaseType    { return v.typ }
func (v Value) Variant() Variant  { return v.variant }
func (v Value) IsInvalid() bool   { return v.typ == Invalid }
func (v Value) IsBool() bool      { return v.typ == Bool }
func (v Value) IsInt() bool       { return v.typ == Int }
func (v Value) IsFloat() bool     { return v.typ == Float }
func (v Value) IsNumeric() bool   { return v.typ == Int || v.typ == Float }
func (v Value) IsString() bool    { return v.typ == String }
func (v Value) IsRange() bool     { return v.typ == Range }
func (v Value) IsList() bool      { return v.typ == List }
func (v Value) IsDict() bool      { return v.typ == Dict }
func (v Value) IsHeap() bool      { return v.obj != nil }
func (v Value) IsClassInstance() bool { return v.typ >= ClassBase }

func (v Value) Bool() bool    { return v.boolean }
func (v Value) Int() int64    { return v.i }
func (v Value) Float() float64 { return v.f }

// InlineStringBytes returns the raw bytes for an inline string value.
func (v Value) InlineStringBytes() []byte { return v.inlineStr[:v.inlineLen] }

// InlineRangeBounds returns (start, end) for an inline range value.
func (v Value) InlineRangeBounds() (int32, int32) { return v.inlineStart, v.inlineEnd }

// Heap returns the heap payload (nil if the value has no heap form).
func (v Value) Heap() HeapObject { return v.obj }

// FloatBits returns the IEEE-754 bit pattern, used by the numeric
// hashing scheme of spec.md §4.5.
func (v Value) FloatBits() uint64 { return math.Float64bits(v.f) }

// Truthy implements the VM's bool() coercion used by C_JUMP/LOAD_BOOL
// and the `and`/`or`/`if` lowering of spec.md §4.4.1: Bool(false),
// Invalid, Int(0), Float(0), and the empty string are falsy
// (original_source/src/primitives.c's STRING.toBool: size != 0);
// everything else is truthy.
func (v Value) Truthy() bool {
	switch v.typ {
	case Invalid:
		return false
	case Bool:
		return v.boolean
	case Int:
		return v.i != 0
	case Float:
		return v.f != 0
	case String:
		return len(v.Bytes()) != 0
	default:
		return true
	}
}
