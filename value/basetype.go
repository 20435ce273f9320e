package value

// BaseType is the low bits of a Value's header (spec.md §3): it fully
// determines which dispatch table applies (invariant I1).
type BaseType uint16

const (
	Invalid BaseType = iota
	Bool
	Int
	Float
	String
	Range
	List
	Dict
	UpvalueType
	Function
	FunctionProto
	Class
	Iterator

	// ClassBase is the first id available to user-defined class/struct
	// declarations (SPEC_FULL.md "struct literals"); every BaseType at
	// or above this is a distinct nominal class id minted by the
	// compiler for one `struct` declaration.
	ClassBase BaseType = 100
)

var baseTypeNames = map[BaseType]string{
	Invalid:       "Invalid",
	Bool:          "Bool",
	Int:           "Int",
	Float:         "Float",
	String:        "String",
	Range:         "Range",
	List:          "List",
	Dict:          "Dict",
	UpvalueType:   "Upvalue",
	Function:      "Function",
	FunctionProto: "FunctionProto",
	Class:         "Class",
	Iterator:      "Iterator",
}

func (t BaseType) String() string {
	if s, ok := baseTypeNames[t]; ok {
		return s
	}
	if t >= ClassBase {
		return "UserClass"
	}
	return "Unknown"
}

// Variant distinguishes inline vs heap forms sharing the same BaseType
// (spec.md §3's "variant" header field).
type Variant uint16

const (
	VariantNone Variant = iota
	VariantInlineString
	VariantHeapString
	VariantInlineRange
	VariantHeapRange
	VariantHeap
)
