package vm

import (
	"go.uber.org/zap"

	"github.com/semi-lang/semi/collection"
	"github.com/semi-lang/semi/dispatch"
	"github.com/semi-lang/semi/errid"
	"github.com/semi-lang/semi/proto"
	"github.com/semi-lang/semi/value"
)

// BuiltinNames is the fixed host-global surface wired at compile time
// via compiler.WithHostGlobals (spec.md §6's host collaborator
// interface) and filled at runtime via InstallBuiltins.
var BuiltinNames = []string{"print", "len", "str", "int", "float", "bool", "type"}

// InstallBuiltins fills each of BuiltinNames' module-global slots with a
// native closure, so ordinary source resolves `print(...)` etc. as a
// plain identifier call with no separate builtin call opcode (spec.md
// §6: natives are just Values of kind Function whose Closure.Fn is set).
func (vm *VM) InstallBuiltins() {
	for _, name := range BuiltinNames {
		idx, ok := vm.module.Globals.Lookup(name)
		if !ok {
			continue
		}
		fn, ok := builtinTable[name]
		if !ok {
			continue
		}
		vm.module.Globals.Set(idx, value.NewFunction(proto.NewNativeClosure(fn)))
	}
}

var builtinTable = map[string]proto.NativeFunc{
	"print": nativePrint,
	"len":   nativeLen,
	"str":   nativeConvert(value.String),
	"int":   nativeConvert(value.Int),
	"float": nativeConvert(value.Float),
	"bool":  nativeConvert(value.Bool),
	"type":  nativeType,
}

// nativePrint writes every argument's string conversion space-separated
// to the VM's logger at Info level (spec.md's host I/O is otherwise
// unspecified; logging through zap keeps this consistent with the rest
// of the VM's observability surface rather than writing to stdout
// directly).
func nativePrint(host any, args []value.Value, out *value.Value) error {
	vm, _ := host.(*VM)
	parts := make([]string, len(args))
	for i, a := range args {
		s, err := dispatch.For(a.Type()).Conversion.ToString(a)
		if err != nil {
			parts[i] = a.Type().String()
			continue
		}
		parts[i] = string(s.Bytes())
	}
	if vm != nil {
		vm.logger.Info("print", zap.Strings("args", parts))
	}
	return nil
}

func nativeLen(host any, args []value.Value, out *value.Value) error {
	if len(args) != 1 {
		return errid.NewRuntimeError(errid.ArgsCountMismatch, 0)
	}
	n, err := dispatch.For(args[0].Type()).Collection.Len(args[0])
	if err != nil {
		return err
	}
	*out = value.NewInt(int64(n))
	return nil
}

// nativeConvert builds a one-argument conversion builtin for t on top
// of the Conversion tables' ToType (dispatch/conv.go's convertTo),
// reused here instead of re-implementing per-type coercion rules a
// second time.
func nativeConvert(t value.BaseType) proto.NativeFunc {
	return func(host any, args []value.Value, out *value.Value) error {
		if len(args) != 1 {
			return errid.NewRuntimeError(errid.ArgsCountMismatch, 0)
		}
		v, err := dispatch.For(args[0].Type()).Conversion.ToType(args[0], t)
		if err != nil {
			return err
		}
		*out = v
		return nil
	}
}

func nativeType(host any, args []value.Value, out *value.Value) error {
	if len(args) != 1 {
		return errid.NewRuntimeError(errid.ArgsCountMismatch, 0)
	}
	name := args[0].Type().String()
	*out = value.NewHeapString(collection.NewStringObj([]byte(name)))
	return nil
}
