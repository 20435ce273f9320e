// Package semi is the top-level convenience entry point wiring the
// lexer/compiler/vm pipeline together: intern, compile with the
// builtin host globals pre-declared, install the builtins, and run.
package semi

import (
	"github.com/semi-lang/semi/alloc"
	"github.com/semi-lang/semi/compiler"
	"github.com/semi-lang/semi/semimod"
	"github.com/semi-lang/semi/value"
	"github.com/semi-lang/semi/vm"
)

// Compile lexes and compiles src into a Module with vm.BuiltinNames
// pre-declared as module globals, ready for NewVM/Run.
func Compile(src []byte) (*semimod.Module, error) {
	interner := alloc.NewInterner()
	return compiler.Compile(src, interner, compiler.WithHostGlobals(vm.BuiltinNames))
}

// ModuleHandle pairs a compiled Module with the VM that ran it, letting
// a caller read back exported globals after Run returns.
type ModuleHandle struct {
	Module *semimod.Module
	VM     *vm.VM
}

// NewVM builds a VM over mod with builtins installed and the given
// config (pass vm.Config{} for defaults, or vm.NewConfig() to read the
// environment).
func NewVM(mod *semimod.Module, cfg vm.Config) *vm.VM {
	v := vm.New(mod, cfg)
	v.InstallBuiltins()
	return v
}

// Run compiles and executes src in one call with a default Config.
func Run(src []byte) (value.Value, error) {
	mod, err := Compile(src)
	if err != nil {
		return value.InvalidValue, err
	}
	cfg, err := vm.NewConfig()
	if err != nil {
		return value.InvalidValue, err
	}
	v := NewVM(mod, cfg)
	defer v.Close()
	return v.Run()
}
