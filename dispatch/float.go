package dispatch

import "github.com/semi-lang/semi/value"

func init() {
	tbl := newInvalidTable()
	tbl.Numeric = NumericMethods{
		Add: arith(func(a, b float64) float64 { return a + b }, func(a, b int64) int64 { return a + b }),
		Sub: arith(func(a, b float64) float64 { return a - b }, func(a, b int64) int64 { return a - b }),
		Mul: arith(func(a, b float64) float64 { return a * b }, func(a, b int64) int64 { return a * b }),
		Div: divOp, FloorDiv: floorDivOp, Mod: modOp, Pow: powOp,
		Neg: func(a value.Value) (value.Value, error) { return value.NewFloat(-a.Float()), nil },
	}
	tbl.Comparison = numericComparisonMethods()
	tbl.Conversion = ConversionMethods{
		ToInt:    func(v value.Value) (value.Value, error) { return value.NewInt(int64(v.Float())), nil },
		ToFloat:  func(v value.Value) (value.Value, error) { return v, nil },
		ToString: func(v value.Value) (value.Value, error) { return stringValue(floatToString(v.Float())), nil },
		ToType:   convertTo,
		ToBool:   func(v value.Value) bool { return v.Float() != 0 },
	}
	register(value.Float, tbl)
}
