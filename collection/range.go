package collection

import "github.com/semi-lang/semi/value"

// RangeObj is the heap form of a Range: three Values (start, end, step),
// all either all-int or all-float (spec.md §3). Used when the step is
// not the implicit 1, or any endpoint is a Float.
type RangeObj struct {
	start, end, step value.Value
	isInt            bool
}

// NewRangeObj validates that start/end/step are homogeneously int or
// float, per spec.md §3's "isIntRange caches which".
func NewRangeObj(start, end, step value.Value) *RangeObj {
	isInt := start.IsInt() && end.IsInt() && step.IsInt()
	return &RangeObj{start: start, end: end, step: step, isInt: isInt}
}

func (r *RangeObj) HeapVariant() value.Variant { return value.VariantHeapRange }

// RangeBounds implements value.RangeBounds.
func (r *RangeObj) RangeBounds() (start, end, step value.Value, isInt bool) {
	return r.start, r.end, r.step, r.isInt
}

// Advancing returns true while iteration should continue: strictly
// less than end when ascending (step > 0), strictly greater when
// descending (step < 0), per spec.md §4.5.
func (r *RangeObj) Advancing() bool {
	if r.isInt {
		if r.step.Int() >= 0 {
			return r.start.Int() < r.end.Int()
		}
		return r.start.Int() > r.end.Int()
	}
	if r.step.Float() >= 0 {
		return r.start.Float() < r.end.Float()
	}
	return r.start.Float() > r.end.Float()
}

// Advance mutates start in place by step, matching spec.md §4.5's "heap
// range's start field is reassigned via numeric add".
func (r *RangeObj) Advance() {
	if r.isInt {
		r.start = value.NewInt(r.start.Int() + r.step.Int())
		return
	}
	r.start = value.NewFloat(r.start.Float() + r.step.Float())
}

// Current returns the value an iterator should yield before advancing.
func (r *RangeObj) Current() value.Value { return r.start }
