package dispatch

import (
	"github.com/semi-lang/semi/collection"
	"github.com/semi-lang/semi/errid"
	"github.com/semi-lang/semi/value"
)

func dictObj(v value.Value) (*collection.DictObj, error) {
	obj, ok := v.Heap().(*collection.DictObj)
	if !ok {
		return nil, errid.NewRuntimeError(errid.UnexpectedType, 0)
	}
	return obj, nil
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
		Len: func(v value.Value) (int, error) {
			d, err := dictObj(v)
			if err != nil {
				return 0, err
			}
			return d.Len(), nil
		},
		Contain: func(v, item value.Value) (bool, error) {
			d, err := dictObj(v)
			if err != nil {
				return false, err
			}
			return d.Contains(item), nil
		},
		GetItem: func(v, key value.Value) (value.Value, error) {
			d, err := dictObj(v)
			if err != nil {
				return value.InvalidValue, err
			}
			val, ok := d.Get(key)
			if !ok {
				return value.InvalidValue, errid.NewRuntimeError(errid.KeyNotFound, 0)
			}
			return val, nil
		},
		SetItem: func(v, key, val value.Value) error {
			d, err := dictObj(v)
			if err != nil {
				return err
			}
			d.Set(key, val)
			return nil
		},
		DelItem: func(v, key value.Value) error {
			d, err := dictObj(v)
			if err != nil {
				return err
			}
			if !d.Del(key) {
				return errid.NewRuntimeError(errid.KeyNotFound, 0)
			}
			return nil
		},
		Pop: func(v value.Value) (value.Value, error) {
			return value.InvalidValue, errid.NewRuntimeError(errid.UnexpectedType, 0)
		},
		// Iter snapshots keys in entry order, since a dict's
		// open-addressed slots carry no stable integer index an
		// external cursor could re-index by (spec.md §3's
		// tombstone/compaction model).
		Iter: func(v value.Value) (value.Value, error) {
			d, err := dictObj(v)
			if err != nil {
				return value.InvalidValue, err
			}
			keys := make([]value.Value, 0, d.Len())
			d.Each(func(k, _ value.Value) bool {
				keys = append(keys, k)
				return true
			})
			return value.NewIterator(collection.NewIteratorObj(keys)), nil
		},
	}
	register(value.Dict, tbl)
}
