package compiler

import (
	"github.com/semi-lang/semi/bytecode"
	"github.com/semi-lang/semi/dispatch"
	"github.com/semi-lang/semi/errid"
	"github.com/semi-lang/semi/value"
)

// binFolder/unaryFolder fold a compile-time constant operation by
// calling straight into the same dispatch.MethodTable the VM uses at
// runtime (spec.md §4.4.1's constant folding must observe identical
// semantics to executing the instruction, including DIVIDE_BY_ZERO).
type binFolder func(a, b value.Value) (value.Value, errid.ErrorId)
type unaryFolder func(a value.Value) (value.Value, errid.ErrorId)

func wrapErr(v value.Value, err error) (value.Value, errid.ErrorId) {
	if err == nil {
		return v, errid.Ok
	}
	if re, ok := err.(*errid.RuntimeError); ok {
		return v, re.ID
	}
	return v, errid.InternalError
}

func binDispatch(sel func(*dispatch.MethodTable) dispatch.BinaryFunc) binFolder {
	return func(a, b value.Value) (value.Value, errid.ErrorId) {
		return wrapErr(sel(dispatch.For(a.Type()))(a, b))
	}
}

func unaryDispatch(sel func(*dispatch.MethodTable) dispatch.UnaryFunc) unaryFolder {
	return func(a value.Value) (value.Value, errid.ErrorId) {
		return wrapErr(sel(dispatch.For(a.Type()))(a))
	}
}

var constFolders = map[bytecode.Opcode]binFolder{
	bytecode.ADD: binDispatch(func(t *dispatch.MethodTable) dispatch.BinaryFunc { return t.Numeric.Add }),
	bytecode.SUB: binDispatch(func(t *dispatch.MethodTable) dispatch.BinaryFunc { return t.Numeric.Sub }),
	bytecode.MUL: binDispatch(func(t *dispatch.MethodTable) dispatch.BinaryFunc { return t.Numeric.Mul }),
	bytecode.DIV: binDispatch(func(t *dispatch.MethodTable) dispatch.BinaryFunc { return t.Numeric.Div }),
	bytecode.FDIV: binDispatch(func(t *dispatch.MethodTable) dispatch.BinaryFunc { return t.Numeric.FloorDiv }),
	bytecode.MOD: binDispatch(func(t *dispatch.MethodTable) dispatch.BinaryFunc { return t.Numeric.Mod }),
	bytecode.POW: binDispatch(func(t *dispatch.MethodTable) dispatch.BinaryFunc { return t.Numeric.Pow }),
	bytecode.BITWISE_AND:     binDispatch(func(t *dispatch.MethodTable) dispatch.BinaryFunc { return t.Numeric.And }),
	bytecode.BITWISE_OR:      binDispatch(func(t *dispatch.MethodTable) dispatch.BinaryFunc { return t.Numeric.Or }),
	bytecode.BITWISE_XOR:     binDispatch(func(t *dispatch.MethodTable) dispatch.BinaryFunc { return t.Numeric.Xor }),
	bytecode.BITWISE_L_SHIFT: binDispatch(func(t *dispatch.MethodTable) dispatch.BinaryFunc { return t.Numeric.Shl }),
	bytecode.BITWISE_R_SHIFT: binDispatch(func(t *dispatch.MethodTable) dispatch.BinaryFunc { return t.Numeric.Shr }),
	bytecode.GT:  binDispatch(func(t *dispatch.MethodTable) dispatch.BinaryFunc { return t.Comparison.Gt }),
	bytecode.GE:  binDispatch(func(t *dispatch.MethodTable) dispatch.BinaryFunc { return t.Comparison.Ge }),
	bytecode.LT:  binDispatch(func(t *dispatch.MethodTable) dispatch.BinaryFunc { return t.Comparison.Lt }),
	bytecode.LE:  binDispatch(func(t *dispatch.MethodTable) dispatch.BinaryFunc { return t.Comparison.Le }),
	bytecode.EQ:  binDispatch(func(t *dispatch.MethodTable) dispatch.BinaryFunc { return t.Comparison.Eq }),
	bytecode.NEQ: binDispatch(func(t *dispatch.MethodTable) dispatch.BinaryFunc { return t.Comparison.Neq }),
	bytecode.CONTAIN: func(container, item value.Value) (value.Value, errid.ErrorId) {
		ok, err := dispatch.For(container.Type()).Collection.Contain(container, item)
		if err != nil {
			return wrapErr(value.InvalidValue, err)
		}
		return value.NewBool(ok), errid.Ok
	},
}

var constUnaryFolders = map[bytecode.Opcode]unaryFolder{
	bytecode.NEG:             unaryDispatch(func(t *dispatch.MethodTable) dispatch.UnaryFunc { return t.Numeric.Neg }),
	bytecode.BITWISE_INVERT:  unaryDispatch(func(t *dispatch.MethodTable) dispatch.UnaryFunc { return t.Numeric.Invert }),
	bytecode.BOOL_NOT: func(a value.Value) (value.Value, errid.ErrorId) {
		return value.NewBool(!a.Truthy()), errid.Ok
	},
}
