package dispatch

import (
	"github.com/semi-lang/semi/collection"
	"github.com/semi-lang/semi/errid"
	"github.com/semi-lang/semi/value"
)

func listObj(v value.Value) (*collection.ListObj, error) {
	obj, ok := v.Heap().(*collection.ListObj)
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
			l, err := listObj(v)
			if err != nil {
				return 0, err
			}
			return l.Len(), nil
		},
		Contain: func(v, item value.Value) (bool, error) {
			l, err := listObj(v)
			if err != nil {
				return false, err
			}
			return l.Contains(item), nil
		},
		GetItem: func(v, key value.Value) (value.Value, error) {
			l, err := listObj(v)
			if err != nil {
				return value.InvalidValue, err
			}
			return l.Get(int(key.Int()))
		},
		SetItem: func(v, key, val value.Value) error {
			l, err := listObj(v)
			if err != nil {
				return err
			}
			return l.Set(int(key.Int()), val)
		},
		DelItem: func(v, key value.Value) error {
			l, err := listObj(v)
			if err != nil {
				return err
			}
			return l.Del(int(key.Int()))
		},
		Append: func(v, item value.Value) error {
			l, err := listObj(v)
			if err != nil {
				return err
			}
			l.Append(item)
			return nil
		},
		Extend: func(v, items value.Value) error {
			l, err := listObj(v)
			if err != nil {
				return err
			}
			other, err := listObj(items)
			if err != nil {
				return err
			}
			l.Extend(other.Items())
			return nil
		},
		Pop: func(v value.Value) (value.Value, error) {
			l, err := listObj(v)
			if err != nil {
				return value.InvalidValue, err
			}
			return l.Pop()
		},
		// Iter snapshots the backing slice, the same generic FOR
		// protocol strings and dicts use (spec.md §4.5).
		Iter: func(v value.Value) (value.Value, error) {
			l, err := listObj(v)
			if err != nil {
				return value.InvalidValue, err
			}
			items := make([]value.Value, l.Len())
			copy(items, l.Items())
			return value.NewIterator(collection.NewIteratorObj(items)), nil
		},
	}
	register(value.List, tbl)
}
