// Package compiler implements spec.md §4.4: a single-pass recursive
// descent statement compiler with a Pratt (precedence-climbing)
// expression compiler, lowering directly into bytecode.Instruction
// streams against a semimod.Module's constant pool.
package compiler

import (
	"github.com/semi-lang/semi/alloc"
	"github.com/semi-lang/semi/bytecode"
	"github.com/semi-lang/semi/constpool"
	"github.com/semi-lang/semi/errid"
	"github.com/semi-lang/semi/lexer"
	"github.com/semi-lang/semi/proto"
	"github.com/semi-lang/semi/semimod"
	"github.com/semi-lang/semi/value"
)

// MaxBracketCount is the deepest nesting of ([{ the compiler tracks
// (spec.md §4.4.1); exceeding it raises MAXMUM_BRACKET_REACHED.
const MaxBracketCount = 127

// Compiler holds the state spec.md §4.4 describes threading through a
// single compilation: the lexer, the interner, the module under
// construction, and the active function scope stack.
type Compiler struct {
	lex      *lexer.Lexer
	interner *alloc.Interner
	module   *semimod.Module

	cur *funcState

	bracketDepth int

	// cjumpRegs tracks the pending (register, wanted-bool) state of a
	// C_JUMP placeholder between emitJump and its later patchCJumpTarget
	// call, since C_JUMP's K-layout encoding can't be finished until the
	// jump target is known (see compiler/expr.go).
	cjumpRegs map[int]cjumpPending
}

// Errors leave compilation through spec.md §4.4.4's "longjmp-style
// escape", done here with a panic (fail) that Compile recovers rather
// than with C-style jumps: the idiomatic Go substitute for a one-shot
// non-local exit.

// compileAbort is the panic payload carrying the latched error id,
// spec.md §4.4.4's "cheaply-thrown typed error" escape.
type compileAbort struct{ err *errid.CompileError }

func (c *Compiler) fail(id errid.ErrorId) {
	line := 0
	if c.lex != nil {
		line = c.lex.Peek().Line
	}
	panic(compileAbort{errid.NewCompileError(id, line, 0)})
}

// Option configures a Compile call before any source is lexed (spec.md
// §6's host collaborator interface: "the host may register (name,
// Value) pairs that the compiler/VM resolve as globals").
type Option func(*Compiler)

// WithHostGlobals pre-declares a module-global slot for each name in
// names, in the order given, before compilation begins, so ordinary
// identifier resolution finds them without a `:=`. The vm package fills
// the corresponding slot values once the module is built.
func WithHostGlobals(names []string) Option {
	return func(c *Compiler) {
		for _, n := range names {
			c.module.Globals.Declare(n)
		}
	}
}

// Compile lexes and compiles src into a fresh, fully populated Module
// (spec.md §4.4's top-level ParseModule). On error the returned error
// is the latched *errid.CompileError; the module is left in whatever
// partial state compilation reached, per spec.md §4.4.4 ("partial
// output is discarded for the enclosing statement" — not the whole
// module, which a host discards wholesale on error instead).
func Compile(src []byte, interner *alloc.Interner, opts ...Option) (mod *semimod.Module, err error) {
	c := &Compiler{
		lex:       lexer.New(src, interner),
		interner:  interner,
		module:    semimod.New(),
		cjumpRegs: make(map[int]cjumpPending),
	}
	for _, opt := range opts {
		opt(c)
	}
	defer func() {
		if r := recover(); r != nil {
			abort, ok := r.(compileAbort)
			if !ok {
				panic(r)
			}
			err = abort.err
			if lexErr := c.lex.Err(); lexErr != nil {
				err = lexErr // the lexer latched first and fed the parser EOF
			}
		}
	}()

	if lexErr := c.lex.Err(); lexErr != nil {
		return c.module, lexErr
	}

	c.cur = newFuncState(nil, "<module>", 0)
	c.compileModuleBody()
	if lexErr := c.lex.Err(); lexErr != nil {
		return c.module, lexErr
	}

	proto := &proto.FunctionProto{
		Code:         c.cur.code,
		ModuleID:     c.module.ID,
		Name:         "<module>",
		Arity:        0,
		Coarity:      0,
		MaxStackSize: int(c.cur.maxReg),
	}
	c.module.ModuleInit = proto
	return c.module, nil
}

func (c *Compiler) compileModuleBody() {
	c.cur.pushBlock()
	for c.peek().Kind != lexer.EOF {
		c.skipSeparators()
		if c.peek().Kind == lexer.EOF {
			break
		}
		c.compileStatement()
	}
	c.cur.popBlock()
}

// --- token helpers ---

func (c *Compiler) peek() lexer.Token { return c.lex.Peek() }
func (c *Compiler) next() lexer.Token { return c.lex.Next() }

func (c *Compiler) skipSeparators() {
	for c.peek().Kind == lexer.SEPARATOR {
		c.next()
	}
}

func (c *Compiler) expect(k lexer.Kind) lexer.Token {
	tok := c.peek()
	if tok.Kind != k {
		c.fail(errid.UnexpectedToken)
	}
	return c.next()
}

func (c *Compiler) check(k lexer.Kind) bool { return c.peek().Kind == k }

func (c *Compiler) match(k lexer.Kind) bool {
	if c.check(k) {
		c.next()
		return true
	}
	return false
}

// --- constant pool / emit helpers ---

func (c *Compiler) internConst(v value.Value) uint16 {
	idx := c.module.Constants.Insert(v)
	if idx == constpool.InvalidIndex {
		c.fail(errid.InternalError)
	}
	return uint16(idx)
}

func (c *Compiler) emit(ins bytecode.Instruction) int { return c.cur.emit(ins) }

// emitJump emits a placeholder J-layout jump and returns its pc for a
// later patchJumpTo call.
func (c *Compiler) emitJump(op bytecode.Opcode) int {
	return c.emit(bytecode.EncodeJ(op, 0, true))
}

// patchJumpTo rewrites the placeholder at pc to jump to target.
func (c *Compiler) patchJumpTo(pc int, target int) {
	delta := target - pc
	sign := delta >= 0
	mag := delta
	if !sign {
		mag = -mag
	}
	op := c.cur.code[pc].Op()
	c.cur.patchJump(pc, bytecode.EncodeJ(op, uint32(mag), sign))
}

// emitBackwardJump emits an unconditional jump back to target (for
// loop bodies and ITER_NEXT, spec.md §4.4.2).
func (c *Compiler) emitBackwardJump(op bytecode.Opcode, target int) {
	pc := c.emit(bytecode.EncodeJ(op, 0, false))
	c.patchJumpTo(pc, target)
}

func (c *Compiler) loadConstantInto(target byte, v value.Value) {
	idx := c.internConst(v)
	c.emit(bytecode.EncodeK(bytecode.LOAD_CONSTANT, target, idx, false, false))
}

func (c *Compiler) loadBoolInto(target byte, b bool) {
	var payload uint16
	if b {
		payload = 1
	}
	c.emit(bytecode.EncodeK(bytecode.LOAD_BOOL, target, payload, false, false))
}
