// Package errid defines the flat ErrorId enumeration shared by the
// lexer, compiler, and VM (spec.md §7). Numerical stability across
// versions is not promised; symbolic names are, per spec.md §6.
package errid

// ErrorId identifies one error kind. Zero value Ok means "no error".
type ErrorId int

const (
	Ok ErrorId = iota

	// Lexical
	InvalidUTF8
	UnclosedString
	IncompleteStringEscape
	UnknownStringEscape
	InvalidNumberLiteral
	IdentifierTooLong

	// Parse
	UnexpectedToken
	UnexpectedEndOfFile
	ExpectLvalue
	MaximumBracketReached

	// Semantic (compile)
	VariableAlreadyDefined
	UninitializedVariable
	BindingError
	NestedDefer
	ReturnValueInDefer
	InconsistentReturnCount

	// Runtime
	UnexpectedType
	DivideByZero
	IndexOOB
	KeyNotFound
	ArgsCountMismatch
	MissingReturnValue
	StringTooLong
	MemoryAllocationFailure
	UnimplementedFeature
	InternalError
	UserRaised
)

var names = map[ErrorId]string{
	Ok:                      "OK",
	InvalidUTF8:             "INVALID_UTF_8",
	UnclosedString:          "UNCLOSED_STRING",
	IncompleteStringEscape:  "INCOMPLETE_STIRNG_ESCAPE",
	UnknownStringEscape:     "UNKNOWN_STIRNG_ESCAPE",
	InvalidNumberLiteral:    "INVALID_NUMBER_LITERAL",
	IdentifierTooLong:       "IDENTIFIER_TOO_LONG",
	UnexpectedToken:         "UNEXPECTED_TOKEN",
	UnexpectedEndOfFile:     "UNEXPECTED_END_OF_FILE",
	ExpectLvalue:            "EXPECT_LVALUE",
	MaximumBracketReached:   "MAXMUM_BRACKET_REACHED",
	VariableAlreadyDefined:  "VARIABLE_ALREADY_DEFINED",
	UninitializedVariable:   "UNINITIALIZED_VARIABLE",
	BindingError:            "BINDING_ERROR",
	NestedDefer:             "NESTED_DEFER",
	ReturnValueInDefer:      "RETURN_VALUE_IN_DEFER",
	InconsistentReturnCount: "INCONSISTENT_RETURN_COUNT",
	UnexpectedType:          "UNEXPECTED_TYPE",
	DivideByZero:            "DIVIDE_BY_ZERO",
	IndexOOB:                "INDEX_OOB",
	KeyNotFound:             "KEY_NOT_FOUND",
	ArgsCountMismatch:       "ARGS_COUNT_MISMATCH",
	MissingReturnValue:      "MISSING_RETURN_VALUE",
	StringTooLong:           "STRING_TOO_LONG",
	MemoryAllocationFailure: "MEMORY_ALLOCATION_FAILURE",
	UnimplementedFeature:    "UNIMPLEMENTED_FEATURE",
	InternalError:           "INTERNAL_ERROR",
	UserRaised:              "USER_RAISED",
}

func (e ErrorId) String() string {
	if s, ok := names[e]; ok {
		return s
	}
	return "UNKNOWN_ERROR"
}
