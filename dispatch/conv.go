package dispatch

import (
	"strconv"

	"github.com/semi-lang/semi/collection"
	"github.com/semi-lang/semi/errid"
	"github.com/semi-lang/semi/value"
)

// stringValue builds the inline form for <=2 bytes, heap form otherwise
// (spec.md §3).
func stringValue(b []byte) value.Value {
	if len(b) <= 2 {
		return value.NewInlineString(b)
	}
	return value.NewHeapString(collection.NewStringObj(b))
}

func intToString(i int64) []byte { return []byte(strconv.FormatInt(i, 10)) }

func floatToString(f float64) []byte { return []byte(strconv.FormatFloat(f, 'g', -1, 64)) }

// convertTo coerces v to base type t where a sensible conversion exists
// (the conversion behind the Conversion tables' ToType). CHECK_TYPE and
// the `is` operator do not use it; they compare type tags only.
func convertTo(v value.Value, t value.BaseType) (value.Value, error) {
	switch t {
	case value.Int:
		return For(v.Type()).Conversion.ToInt(v)
	case value.Float:
		return For(v.Type()).Conversion.ToFloat(v)
	case value.String:
		return For(v.Type()).Conversion.ToString(v)
	case value.Bool:
		return value.NewBool(For(v.Type()).Conversion.ToBool(v)), nil
	default:
		if v.Type() == t {
			return v, nil
		}
		return value.InvalidValue, errid.NewRuntimeError(errid.UnexpectedType, 0)
	}
}
