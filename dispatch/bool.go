package dispatch

import "github.com/semi-lang/semi/value"

func init() {
	tbl := newInvalidTable()
	tbl.Comparison = ComparisonMethods{
		Eq:  func(a, b value.Value) (value.Value, error) { return value.NewBool(value.Equals(a, b)), nil },
		Neq: func(a, b value.Value) (value.Value, error) { return value.NewBool(!value.Equals(a, b)), nil },
	}
	tbl.Conversion = ConversionMethods{
		ToInt: func(v value.Value) (value.Value, error) {
			if v.Bool() {
				return value.NewInt(1), nil
			}
			return value.NewInt(0), nil
		},
		ToFloat: func(v value.Value) (value.Value, error) {
			if v.Bool() {
				return value.NewFloat(1), nil
			}
			return value.NewFloat(0), nil
		},
		ToString: func(v value.Value) (value.Value, error) {
			if v.Bool() {
				return stringValue([]byte("true")), nil
			}
			return stringValue([]byte("false")), nil
		},
		ToType: convertTo,
		ToBool: func(v value.Value) bool { return v.Bool() },
	}
	register(value.Bool, tbl)
}
