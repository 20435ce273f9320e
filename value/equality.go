package value

// StringBytes is implemented by collection.StringObj so that value.Equals
// can compare inline and heap strings identically (invariant I3) without
// value importing collection.
type StringBytes interface {
	StringBytes() []byte
}

// RangeBounds is implemented by collection.RangeObj for the same reason:
// structural range equality (start, end, step) regardless of inline/heap
// form.
type RangeBounds interface {
	RangeBounds() (start, end, step Value, isInt bool)
}

// Bytes returns the byte content of a String value, inline or heap.
func (v Value) Bytes() []byte {
	switch v.variant {
	case VariantInlineString:
		return v.InlineStringBytes()
	case VariantHeapString:
		if sb, ok := v.obj.(StringBytes); ok {
			return sb.StringBytes()
		}
	}
	return nil
}

// RangeParts returns the (start, end, step, isInt) tuple for a Range
// value, inline or heap. Inline ranges always have step 1 and are int.
func (v Value) RangeParts() (start, end, step Value, isInt bool) {
	switch v.variant {
	case VariantInlineRange:
		s, e := v.InlineRangeBounds()
		return NewInt(int64(s)), NewInt(int64(e)), NewInt(1), true
	case VariantHeapRange:
		if rb, ok := v.obj.(RangeBounds); ok {
			return rb.RangeBounds()
		}
	}
	return InvalidValue, InvalidValue, InvalidValue, false
}

// FloatEqEpsilon is the fixed absolute epsilon spec.md §4.5/§9 pins for
// float equality; documented rather than silently tightened.
const FloatEqEpsilon = 1e-6

// Equals implements the language's structural equality, used by the
// constant pool's dedup (spec.md §4.2 C1) and the EQ/NEQ opcodes.
func Equals(a, b Value) bool {
	if a.typ != b.typ {
		// Mixed Int/Float compare numerically, matching arithmetic's
		// promotion rule (spec.md §4.5).
		if a.IsNumeric() && b.IsNumeric() {
			return numericEqual(a, b)
		}
		return false
	}
	switch a.typ {
	case Invalid:
		return true
	case Bool:
		return a.boolean == b.boolean
	case Int:
		return a.i == b.i
	case Float:
		return floatEqual(a.f, b.f)
	case String:
		return bytesEqual(a.Bytes(), b.Bytes())
	case Range:
		return rangeEqual(a, b)
	default:
		// Lists/dicts/closures/prototypes compare by identity: same
		// heap object reference, matching invariant I2 (object flag
		// implies a live, unique allocation).
		return a.obj != nil && a.obj == b.obj
	}
}

func numericEqual(a, b Value) bool {
	af := a.f
	if a.typ == Int {
		af = float64(a.i)
	}
	bf := b.f
	if b.typ == Int {
		bf = float64(b.i)
	}
	return floatEqual(af, bf)
}

func floatEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= FloatEqEpsilon
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func rangeEqual(a, b Value) bool {
	as, ae, astep, aInt := a.RangeParts()
	bs, be, bstep, bInt := b.RangeParts()
	if aInt != bInt {
		return false
	}
	return Equals(as, bs) && Equals(ae, be) && Equals(astep, bstep)
}
