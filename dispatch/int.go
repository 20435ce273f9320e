package dispatch

import (
	"github.com/semi-lang/semi/errid"
	"github.com/semi-lang/semi/value"
)

func init() {
	tbl := newInvalidTable()
	tbl.Numeric = NumericMethods{
		Add: arith(func(a, b float64) float64 { return a + b }, func(a, b int64) int64 { return a + b }),
		Sub: arith(func(a, b float64) float64 { return a - b }, func(a, b int64) int64 { return a - b }),
		Mul: arith(func(a, b float64) float64 { return a * b }, func(a, b int64) int64 { return a * b }),
		Div: divOp, FloorDiv: floorDivOp, Mod: modOp, Pow: powOp,
		Neg: func(a value.Value) (value.Value, error) { return value.NewInt(-a.Int()), nil },
		And: intBinary(func(a, b int64) int64 { return a & b }),
		Or:  intBinary(func(a, b int64) int64 { return a | b }),
		Xor: intBinary(func(a, b int64) int64 { return a ^ b }),
		Shl: intBinary(func(a, b int64) int64 { return a << uint(b) }),
		Shr: intBinary(func(a, b int64) int64 { return a >> uint(b) }),
		Invert: func(a value.Value) (value.Value, error) { return value.NewInt(^a.Int()), nil },
	}
	tbl.Comparison = numericComparisonMethods()
	tbl.Conversion = ConversionMethods{
		ToInt:    func(v value.Value) (value.Value, error) { return v, nil },
		ToFloat:  func(v value.Value) (value.Value, error) { return value.NewFloat(float64(v.Int())), nil },
		ToString: func(v value.Value) (value.Value, error) { return stringValue(intToString(v.Int())), nil },
		ToType: func(v value.Value, t value.BaseType) (value.Value, error) {
			return convertTo(v, t)
		},
		ToBool: func(v value.Value) bool { return v.Int() != 0 },
	}
	register(value.Int, tbl)
}

func intBinary(op func(a, b int64) int64) BinaryFunc {
	return func(a, b value.Value) (value.Value, error) {
		if !bothInt(a, b) {
			return value.InvalidValue, errid.NewRuntimeError(errid.UnexpectedType, 0)
		}
		return value.NewInt(op(a.Int(), b.Int())), nil
	}
}
