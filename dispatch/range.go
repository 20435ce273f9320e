package dispatch

import (
	"github.com/semi-lang/semi/collection"
	"github.com/semi-lang/semi/errid"
	"github.com/semi-lang/semi/value"
)

func rangeObj(v value.Value) *collection.RangeObj {
	if obj, ok := v.Heap().(*collection.RangeObj); ok {
		return obj
	}
	start, end, step, _ := v.RangeParts()
	return collection.NewRangeObj(start, end, step)
}

func init() {
	tbl := newInvalidTable()
	tbl.Comparison = ComparisonMethods{
		Eq:  func(a, b value.Value) (value.Value, error) { return value.NewBool(value.Equals(a, b)), nil },
		Neq: func(a, b value.Value) (value.Value, error) { return value.NewBool(!value.Equals(a, b)), nil },
	}
	tbl.Conversion = ConversionMethods{
		ToInt: func(v value.Value) (value.Value, error) {
			return value.InvalidValue, errid.NewRuntimeError(errid.UnexpectedType, 0)
		},
		ToFloat: func(v value.Value) (value.Value, error) {
			return value.InvalidValue, errid.NewRuntimeError(errid.UnexpectedType, 0)
		},
		ToString: func(v value.Value) (value.Value, error) {
			return value.InvalidValue, errid.NewRuntimeError(errid.UnexpectedType, 0)
		},
		ToType: convertTo,
		ToBool: func(v value.Value) bool { return true },
	}
	tbl.Collection = CollectionMethods{
		Iter: func(v value.Value) (value.Value, error) {
			// A fresh heap range is used as the cursor so advancing it
			// during iteration never mutates the original range value
			// (ranges compare and hash structurally, spec.md §3).
			s, e, st, _ := v.RangeParts()
			return value.NewHeapRange(collection.NewRangeObj(s, e, st)), nil
		},
	}
	// Next is the one-shot advance spec.md §4.5 assigns to the Range
	// table directly: mutate the cursor's start field in place and
	// yield the pre-advance value.
	tbl.Next = func(v value.Value) (value.Value, bool) {
		r := rangeObj(v)
		if !r.Advancing() {
			return value.InvalidValue, false
		}
		cur := r.Current()
		r.Advance()
		return cur, true
	}
	register(value.Range, tbl)
}
