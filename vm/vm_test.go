package vm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/semi-lang/semi/bytecode"
	"github.com/semi-lang/semi/proto"
	"github.com/semi-lang/semi/semimod"
	"github.com/semi-lang/semi/value"
	"github.com/semi-lang/semi/vm"
)

// newReturningModule builds a one-function module whose moduleInit runs
// code and returns R[0], for exercising the dispatch loop directly
// without going through the lexer/compiler.
func newReturningModule(code []bytecode.Instruction, maxStack int) *semimod.Module {
	mod := semimod.New()
	mod.ModuleInit = &proto.FunctionProto{
		Code:         code,
		Name:         "<module>",
		Arity:        0,
		Coarity:      1,
		MaxStackSize: maxStack,
	}
	return mod
}

func TestLoadInlineIntegerAndReturn(t *testing.T) {
	code := []bytecode.Instruction{
		bytecode.EncodeK(bytecode.LOAD_INLINE_INTEGER, 0, 41, false, true),
		bytecode.EncodeT(bytecode.RETURN, 0, 0, 0, false, false),
	}
	mod := newReturningModule(code, 4)
	v := vm.New(mod, vm.Config{InitialRegisterCapacity: 8, MaxCallDepth: 8})
	defer v.Close()

	out, err := v.Run()
	require.NoError(t, err)
	require.True(t, out.IsInt())
	require.Equal(t, int64(41), out.Int())
}

func TestRegisterHostGlobalReachableViaLoadConstant(t *testing.T) {
	code := []bytecode.Instruction{
		bytecode.EncodeK(bytecode.LOAD_CONSTANT, 0, 7, true, false),
		bytecode.EncodeT(bytecode.RETURN, 0, 0, 0, false, false),
	}
	mod := newReturningModule(code, 4)
	v := vm.New(mod, vm.Config{InitialRegisterCapacity: 8, MaxCallDepth: 8})
	defer v.Close()
	v.RegisterHostGlobal(7, value.NewInt(99))

	out, err := v.Run()
	require.NoError(t, err)
	require.Equal(t, int64(99), out.Int())
}

func TestRegisterFileGrowsPastInitialCapacity(t *testing.T) {
	code := []bytecode.Instruction{
		bytecode.EncodeK(bytecode.LOAD_INLINE_INTEGER, 20, 5, false, true),
		bytecode.EncodeT(bytecode.RETURN, 20, 0, 0, false, false),
	}
	mod := newReturningModule(code, 21)
	v := vm.New(mod, vm.Config{InitialRegisterCapacity: 2, MaxCallDepth: 8})
	defer v.Close()

	out, err := v.Run()
	require.NoError(t, err)
	require.Equal(t, int64(5), out.Int())
}

func TestRaiseCarriesPayloadOnVM(t *testing.T) {
	code := []bytecode.Instruction{
		bytecode.EncodeK(bytecode.LOAD_INLINE_INTEGER, 0, 13, false, true),
		bytecode.EncodeT(bytecode.RAISE, 0, 0, 0, false, false),
	}
	mod := newReturningModule(code, 4)
	v := vm.New(mod, vm.Config{InitialRegisterCapacity: 8, MaxCallDepth: 8})
	defer v.Close()

	_, err := v.Run()
	require.Error(t, err)
	require.Equal(t, int64(13), v.RaisedValue().Int())
}
