package errid

import (
	"fmt"

	"github.com/pkg/errors"
)

// CompileError wraps an ErrorId with the positional context the lexer
// and compiler track (spec.md §7: "line number from the lexer, source
// offset within the current function from the compiler").
type CompileError struct {
	ID     ErrorId
	Line   int
	Offset int
	cause  error
}

// NewCompileError builds a CompileError. For ID == InternalError the
// cause carries a captured stack trace via github.com/pkg/errors so a
// host can report where in this module's own code the bug was tripped.
func NewCompileError(id ErrorId, line, offset int) *CompileError {
	ce := &CompileError{ID: id, Line: line, Offset: offset}
	if id == InternalError {
		ce.cause = errors.WithStack(fmt.Errorf("internal error at line %d", line))
	}
	return ce
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s at line %d, offset %d", e.ID, e.Line, e.Offset)
}

func (e *CompileError) Unwrap() error { return e.cause }

// RuntimeError wraps an ErrorId with the instruction PC active when the
// VM latched it (spec.md §7: "instruction PC from the VM").
type RuntimeError struct {
	ID    ErrorId
	PC    int
	cause error
}

func NewRuntimeError(id ErrorId, pc int) *RuntimeError {
	re := &RuntimeError{ID: id, PC: pc}
	if id == InternalError {
		re.cause = errors.WithStack(fmt.Errorf("internal error at pc %d", pc))
	}
	return re
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s at pc %d", e.ID, e.PC)
}

func (e *RuntimeError) Unwrap() error { return e.cause }
