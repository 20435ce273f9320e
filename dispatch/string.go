package dispatch

import (
	"github.com/semi-lang/semi/collection"
	"github.com/semi-lang/semi/errid"
	"github.com/semi-lang/semi/value"
)

func init() {
	tbl := newInvalidTable()
	tbl.Comparison = ComparisonMethods{
		Gt:  func(a, b value.Value) (value.Value, error) { return value.NewBool(collection.Compare(a.Bytes(), b.Bytes()) > 0), nil },
		Ge:  func(a, b value.Value) (value.Value, error) { return value.NewBool(collection.Compare(a.Bytes(), b.Bytes()) >= 0), nil },
		Lt:  func(a, b value.Value) (value.Value, error) { return value.NewBool(collection.Compare(a.Bytes(), b.Bytes()) < 0), nil },
		Le:  func(a, b value.Value) (value.Value, error) { return value.NewBool(collection.Compare(a.Bytes(), b.Bytes()) <= 0), nil },
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
		ToString: func(v value.Value) (value.Value, error) { return v, nil },
		ToType:   convertTo,
		// original_source/src/primitives.c's STRING.toBool: size != 0.
		ToBool: func(v value.Value) bool { return len(v.Bytes()) != 0 },
	}
	tbl.Collection = CollectionMethods{
		Len: func(v value.Value) (int, error) { return len(v.Bytes()), nil },
		Contain: func(v, item value.Value) (bool, error) {
			return collection.Contains(v.Bytes(), item.Bytes()), nil
		},
		GetItem: func(v, key value.Value) (value.Value, error) {
			b := v.Bytes()
			idx := int(key.Int())
			if idx < 0 {
				idx += len(b)
			}
			if idx < 0 || idx >= len(b) {
				return value.InvalidValue, errid.NewRuntimeError(errid.IndexOOB, 0)
			}
			return stringValue(b[idx : idx+1]), nil
		},
		// Iter snapshots one single-byte string value per position
		// (spec.md §4.5's generic FOR protocol, SPEC_FULL.md iterator).
		Iter: func(v value.Value) (value.Value, error) {
			b := v.Bytes()
			items := make([]value.Value, len(b))
			for i := range b {
				items[i] = stringValue(b[i : i+1])
			}
			return value.NewIterator(collection.NewIteratorObj(items)), nil
		},
	}
	register(value.String, tbl)
}
