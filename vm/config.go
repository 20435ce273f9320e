// Package vm implements the register-based bytecode interpreter of
// spec.md §4.6: the growable register file, call-frame stack, open
// upvalue list, and the single fetch/decode/dispatch loop over the
// bytecode.Opcode catalog.
package vm

import (
	"github.com/caarlos0/env/v6"
	"go.uber.org/zap"

	"github.com/semi-lang/semi/alloc"
)

// Config holds the VM's tunables, sourced from the environment through
// github.com/caarlos0/env struct tags. Every field has a workable zero/default, so a host can use Config{}
// directly or call NewConfig to pick up overrides.
type Config struct {
	// InitialRegisterCapacity sizes the register file's first
	// allocation; it grows by doubling past this per spec.md §4.6.
	InitialRegisterCapacity int `env:"SEMI_VM_INITIAL_REGISTERS" envDefault:"256"`

	// MemoryLimitBytes bounds the heap allocator's tracked usage (0 =
	// unlimited); passed to alloc.NewDefaultAllocator.
	MemoryLimitBytes int64 `env:"SEMI_VM_MEMORY_LIMIT_BYTES" envDefault:"0"`

	// MaxCallDepth bounds recursion depth (RETURN's nested deferred
	// calls and CALL's Go-stack recursion both count against it), the
	// idiomatic substitute for a C stack-overflow guard. Zero or a
	// negative value falls back to 1024.
	MaxCallDepth int `env:"SEMI_VM_MAX_CALL_DEPTH" envDefault:"1024"`

	// Debug enables per-instruction zap.DebugLevel tracing; expensive,
	// off by default.
	Debug bool `env:"SEMI_VM_DEBUG" envDefault:"false"`
}

// NewConfig returns a Config populated from the environment, falling
// back to the struct tag defaults for anything unset.
func NewConfig() (Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// newLogger builds the zap.Logger the VM logs lifecycle/error events
// through; Debug selects a development (human-readable, debug-level)
// configuration, otherwise a production JSON logger at InfoLevel.
func newLogger(cfg Config) *zap.Logger {
	var l *zap.Logger
	var err error
	if cfg.Debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func newAllocator(cfg Config) alloc.Allocator {
	return alloc.NewDefaultAllocator(cfg.MemoryLimitBytes)
}
