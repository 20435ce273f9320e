package compiler

import (
	"github.com/semi-lang/semi/alloc"
	"github.com/semi-lang/semi/bytecode"
	"github.com/semi-lang/semi/proto"
)

// localVar is one entry of the function's flat variable-description
// array (spec.md §4.4: "(identifierId, registerId)").
type localVar struct {
	id  alloc.IdentifierId
	reg byte
}

// loopState tracks one enclosing `for` loop's patch lists so `break`/
// `continue` can be lowered to forward/backward jumps (spec.md §4.4.2).
type loopState struct {
	continueTarget int
	breakJumps     []int
}

// funcState is one nested function's compilation context: its own
// register allocator, block-scope stack, upvalue descriptor list, and
// instruction buffer (spec.md §4.4: "Function scope stack").
type funcState struct {
	parent *funcState

	name    string
	arity   int
	code    []bytecode.Instruction
	nextReg byte
	maxReg  byte

	locals      []localVar
	blockStarts []int

	upvalues     []proto.UpvalueDesc
	upvalueNames []alloc.IdentifierId

	loops []*loopState

	coarity int // -1 = not yet fixed by any return
	inDefer bool

	// isFunction distinguishes a real function scope (named fn, fn
	// expression, or defer block — all of which allow `return`) from
	// the module-level pseudo-function compileModuleBody runs in, where
	// a bare `return` is UNEXPECTED_TOKEN.
	isFunction bool
}

func newFuncState(parent *funcState, name string, arity int) *funcState {
	return &funcState{parent: parent, name: name, arity: arity, coarity: -1}
}

// allocReg reserves the next free register and bumps the high-water
// mark the FunctionProto records as MaxStackSize.
func (f *funcState) allocReg() byte {
	r := f.nextReg
	f.nextReg++
	if f.nextReg > f.maxReg {
		f.maxReg = f.nextReg
	}
	return r
}

// reserveRegs reserves n contiguous registers starting at the next
// free one (spec.md §4.4.1's call-argument contiguous reservation).
func (f *funcState) reserveRegs(n int) byte {
	start := f.nextReg
	for i := 0; i < n; i++ {
		f.allocReg()
	}
	return start
}

func (f *funcState) emit(ins bytecode.Instruction) int {
	f.code = append(f.code, ins)
	return len(f.code) - 1
}

func (f *funcState) patchJump(pc int, ins bytecode.Instruction) { f.code[pc] = ins }

// pushBlock opens a new block scope at the current variable-table
// length (spec.md §4.4: "half-open range [variableStackStart,
// variableStackEnd)").
func (f *funcState) pushBlock() {
	f.blockStarts = append(f.blockStarts, len(f.locals))
}

// popBlock truncates the variable table back to the block's start and
// frees the registers the block's locals occupied, returning the first
// freed register (for CLOSE_UPVALUES's operand) and whether any local
// was actually freed.
func (f *funcState) popBlock() (firstFreed byte, any bool) {
	start := f.blockStarts[len(f.blockStarts)-1]
	f.blockStarts = f.blockStarts[:len(f.blockStarts)-1]
	if start < len(f.locals) {
		firstFreed = f.locals[start].reg
		any = true
	}
	f.locals = f.locals[:start]
	if any {
		f.nextReg = firstFreed
	}
	return firstFreed, any
}

// declareLocal binds id to a freshly allocated register in the
// innermost block.
func (f *funcState) declareLocal(id alloc.IdentifierId) byte {
	reg := f.allocReg()
	f.locals = append(f.locals, localVar{id: id, reg: reg})
	return reg
}

// resolveLocal looks up id innermost-to-outermost within this function
// only (spec.md §4.4: "Lookup is innermost-to-outermost").
func (f *funcState) resolveLocal(id alloc.IdentifierId) (byte, bool) {
	for i := len(f.locals) - 1; i >= 0; i-- {
		if f.locals[i].id == id {
			return f.locals[i].reg, true
		}
	}
	return 0, false
}

// resolveUpvalue walks the function scope stack outward per spec.md
// §4.4.3, deduplicating descriptors already recorded for this function.
func (f *funcState) resolveUpvalue(id alloc.IdentifierId) (byte, bool) {
	if f.parent == nil {
		return 0, false
	}
	for i, name := range f.upvalueNames {
		if name == id {
			return byte(i), true
		}
	}
	if reg, ok := f.parent.resolveLocal(id); ok {
		return f.addUpvalue(id, reg, true), true
	}
	if idx, ok := f.parent.resolveUpvalue(id); ok {
		return f.addUpvalue(id, idx, false), true
	}
	return 0, false
}

func (f *funcState) addUpvalue(id alloc.IdentifierId, index byte, isLocal bool) byte {
	f.upvalues = append(f.upvalues, proto.UpvalueDesc{Index: index, IsLocal: isLocal})
	f.upvalueNames = append(f.upvalueNames, id)
	return byte(len(f.upvalues) - 1)
}

func (f *funcState) pushLoop() *loopState {
	l := &loopState{}
	f.loops = append(f.loops, l)
	return l
}

func (f *funcState) popLoop() {
	f.loops = f.loops[:len(f.loops)-1]
}

func (f *funcState) currentLoop() *loopState {
	if len(f.loops) == 0 {
		return nil
	}
	return f.loops[len(f.loops)-1]
}
