package dispatch

import (
	"math"

	"github.com/semi-lang/semi/errid"
	"github.com/semi-lang/semi/value"
)

// asFloat widens an Int/Float value to float64.
func asFloat(v value.Value) float64 {
	if v.IsInt() {
		return float64(v.Int())
	}
	return v.Float()
}

// bothInt reports whether a and b are both Int, in which case an
// operation preserves Int type (spec.md §4.5's promotion rule: "any
// Float operand promotes the result to Float; otherwise Int").
func bothInt(a, b value.Value) bool { return a.IsInt() && b.IsInt() }

func arith(op func(af, bf float64) float64, intOp func(ai, bi int64) int64) BinaryFunc {
	return func(a, b value.Value) (value.Value, error) {
		if bothInt(a, b) {
			return value.NewInt(intOp(a.Int(), b.Int())), nil
		}
		return value.NewFloat(op(asFloat(a), asFloat(b))), nil
	}
}

func divOp(a, b value.Value) (value.Value, error) {
	if bothInt(a, b) {
		if b.Int() == 0 {
			return value.InvalidValue, errid.NewRuntimeError(errid.DivideByZero, 0)
		}
		// Int/Int division in this language is float division unless
		// using FDIV (floor division); DIV always promotes per
		// original_source/src/primitives.c's div_values.
		return value.NewFloat(float64(a.Int()) / float64(b.Int())), nil
	}
	bf := asFloat(b)
	if bf == 0 {
		return value.InvalidValue, errid.NewRuntimeError(errid.DivideByZero, 0)
	}
	return value.NewFloat(asFloat(a) / bf), nil
}

func floorDivOp(a, b value.Value) (value.Value, error) {
	if bothInt(a, b) {
		if b.Int() == 0 {
			return value.InvalidValue, errid.NewRuntimeError(errid.DivideByZero, 0)
		}
		return value.NewInt(floorDivInt(a.Int(), b.Int())), nil
	}
	bf := asFloat(b)
	if bf == 0 {
		return value.InvalidValue, errid.NewRuntimeError(errid.DivideByZero, 0)
	}
	return value.NewFloat(math.Floor(asFloat(a) / bf)), nil
}

func floorDivInt(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func modOp(a, b value.Value) (value.Value, error) {
	if bothInt(a, b) {
		if b.Int() == 0 {
			return value.InvalidValue, errid.NewRuntimeError(errid.DivideByZero, 0)
		}
		return value.NewInt(modInt(a.Int(), b.Int())), nil
	}
	bf := asFloat(b)
	if bf == 0 {
		return value.InvalidValue, errid.NewRuntimeError(errid.DivideByZero, 0)
	}
	return value.NewFloat(math.Mod(asFloat(a), bf)), nil
}

func modInt(a, b int64) int64 {
	m := a % b
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}

func powOp(a, b value.Value) (value.Value, error) {
	if bothInt(a, b) && b.Int() >= 0 {
		return value.NewInt(intPow(a.Int(), b.Int())), nil
	}
	return value.NewFloat(math.Pow(asFloat(a), asFloat(b))), nil
}

func intPow(base, exp int64) int64 {
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result
}

func compareNumeric(a, b value.Value) int {
	af, bf := asFloat(a), asFloat(b)
	switch {
	case af < bf:
		return -1
	case af > bf:
		return 1
	default:
		return 0
	}
}

func numericComparisonMethods() ComparisonMethods {
	return ComparisonMethods{
		Gt: func(a, b value.Value) (value.Value, error) { return value.NewBool(compareNumeric(a, b) > 0), nil },
		Ge: func(a, b value.Value) (value.Value, error) { return value.NewBool(compareNumeric(a, b) >= 0), nil },
		Lt: func(a, b value.Value) (value.Value, error) { return value.NewBool(compareNumeric(a, b) < 0), nil },
		Le: func(a, b value.Value) (value.Value, error) { return value.NewBool(compareNumeric(a, b) <= 0), nil },
		Eq: func(a, b value.Value) (value.Value, error) { return value.NewBool(value.Equals(a, b)), nil },
		Neq: func(a, b value.Value) (value.Value, error) {
			return value.NewBool(!value.Equals(a, b)), nil
		},
	}
}
