package dispatch

import (
	"github.com/semi-lang/semi/collection"
	"github.com/semi-lang/semi/errid"
	"github.com/semi-lang/semi/value"
)

// init registers the dispatch table for the snapshot-cursor iterator
// kind String/List/Dict hand out (SPEC_FULL.md iterator; Range instead
// iterates itself, see range.go).
func init() {
	tbl := newInvalidTable()
	tbl.Collection = CollectionMethods{
		Iter: func(v value.Value) (value.Value, error) { return v, nil },
	}
	tbl.Next = func(v value.Value) (value.Value, bool) {
		obj, ok := v.Heap().(*collection.IteratorObj)
		if !ok {
			return value.InvalidValue, false
		}
		return obj.Next()
	}
	tbl.Conversion = ConversionMethods{
		ToInt:    func(v value.Value) (value.Value, error) { return value.InvalidValue, errid.NewRuntimeError(errid.UnexpectedType, 0) },
		ToFloat:  func(v value.Value) (value.Value, error) { return value.InvalidValue, errid.NewRuntimeError(errid.UnexpectedType, 0) },
		ToString: func(v value.Value) (value.Value, error) { return value.InvalidValue, errid.NewRuntimeError(errid.UnexpectedType, 0) },
		ToType:   convertTo,
		ToBool:   func(v value.Value) bool { return true },
	}
	register(value.Iterator, tbl)
}
