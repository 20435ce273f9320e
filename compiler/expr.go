package compiler

import (
	"math"

	"github.com/samber/lo"

	"github.com/semi-lang/semi/alloc"
	"github.com/semi-lang/semi/bytecode"
	"github.com/semi-lang/semi/collection"
	"github.com/semi-lang/semi/errid"
	"github.com/semi-lang/semi/lexer"
	"github.com/semi-lang/semi/semimod"
	"github.com/semi-lang/semi/value"
)

// exprKind tags a PrattExpr result (spec.md §4.4.1): constant folding
// eliminated code (constant), the value lives in a register (reg), the
// expression names a base type for `is`/CHECK_TYPE (typ), or nothing
// was produced (unset, used only as a zero value).
type exprKind int

const (
	exprUnset exprKind = iota
	exprConstant
	exprReg
	exprType
)

// prattExpr is the compiler's PrattExpr: a tagged result threaded
// through NUD/LED handlers (spec.md §4.4.1).
type prattExpr struct {
	kind exprKind
	val  value.Value
	reg  byte
	typ  value.BaseType
}

func constExpr(v value.Value) prattExpr   { return prattExpr{kind: exprConstant, val: v} }
func regExpr(r byte) prattExpr            { return prattExpr{kind: exprReg, reg: r} }
func typeExpr(t value.BaseType) prattExpr { return prattExpr{kind: exprType, typ: t} }

func (c *Compiler) isConst(e prattExpr) bool { return e.kind == exprConstant }

// toReg materializes e into register target, emitting a LOAD_CONSTANT/
// LOAD_BOOL/MOVE as needed, and returns target.
func (c *Compiler) toReg(e prattExpr, target byte) byte {
	switch e.kind {
	case exprConstant:
		c.loadConst(target, e.val)
	case exprReg:
		if e.reg != target {
			c.emit(bytecode.EncodeT(bytecode.MOVE, target, e.reg, 0, false, false))
		}
	case exprType:
		c.loadConst(target, value.NewInt(int64(e.typ)))
	default:
		c.fail(errid.InternalError)
	}
	return target
}

// loadConst emits the cheapest encoding for a constant value into dst.
func (c *Compiler) loadConst(dst byte, v value.Value) {
	switch {
	case v.IsBool():
		c.loadBoolInto(dst, v.Bool())
	case v.IsInt() && v.Int() >= -32768 && v.Int() <= 32767:
		mag := v.Int()
		sign := mag >= 0
		if !sign {
			mag = -mag
		}
		c.emit(bytecode.EncodeK(bytecode.LOAD_INLINE_INTEGER, dst, uint16(mag), false, sign))
	case v.IsString() && len(v.Bytes()) <= 2:
		var payload uint16
		b := v.Bytes()
		if len(b) > 0 {
			payload = uint16(b[0])
		}
		if len(b) > 1 {
			payload |= uint16(b[1]) << 8
		}
		c.emit(bytecode.EncodeK(bytecode.LOAD_INLINE_STRING, dst, payload, false, false))
	default:
		c.loadConstantInto(dst, v)
	}
}

// regOf returns a register already holding e's value, reusing e's own
// register instead of forcing a copy into target when possible.
func (c *Compiler) regOf(e prattExpr, target byte) byte {
	if e.kind == exprReg {
		return e.reg
	}
	return c.toReg(e, target)
}

// --- precedence-climbing expression compiler (spec.md §4.4.1) ---

func (c *Compiler) parseExpr() prattExpr { return c.parseTernary() }

// discardBranch compiles and discards tokens for a ternary/short-circuit
// branch the constant-folded side already proved unreachable; a scratch
// funcState keeps its dead instructions from ever being linked into the
// real code buffer while still consuming bracket/upvalue-affecting state
// correctly (declarations inside a dead branch are impossible in this
// grammar — only expressions, never statements, appear there).
func (c *Compiler) discardBranch(parse func()) {
	saved := c.cur
	scratch := newFuncState(saved.parent, saved.name+"<const-folded>", saved.arity)
	scratch.nextReg, scratch.maxReg = saved.nextReg, saved.maxReg
	scratch.locals = saved.locals
	scratch.upvalues, scratch.upvalueNames = saved.upvalues, saved.upvalueNames
	c.cur = scratch
	parse()
	saved.upvalues, saved.upvalueNames = scratch.upvalues, scratch.upvalueNames
	c.cur = saved
}

// parseRange handles `start..end` range literals, binding looser than
// `or` but tighter than the ternary/ (spec.md §4.4.2's `for` lowering:
// "constant-folded range literals go via LOAD_CONSTANT ... variable-
// bearing ranges via MAKE_RANGE").
func (c *Compiler) parseRange() prattExpr {
	left := c.parseOr()
	if !c.check(lexer.DOT_DOT) {
		return left
	}
	c.next()
	right := c.parseOr()
	return c.emitRange(left, right)
}

func (c *Compiler) emitRange(left, right prattExpr) prattExpr {
	if c.isConst(left) && c.isConst(right) && left.val.IsInt() && right.val.IsInt() {
		s, e := left.val.Int(), right.val.Int()
		if s >= math.MinInt32 && s <= math.MaxInt32 && e >= math.MinInt32 && e <= math.MaxInt32 {
			return constExpr(value.NewInlineRange(int32(s), int32(e)))
		}
	}
	target := c.cur.allocReg()
	lReg := c.regOf(left, target)
	rTarget := c.cur.allocReg()
	rReg := c.regOf(right, rTarget)
	c.emit(bytecode.EncodeT(bytecode.MAKE_RANGE, target, lReg, rReg, false, false))
	return regExpr(target)
}

func (c *Compiler) parseTernary() prattExpr {
	cond := c.parseRange()
	if !c.check(lexer.QUESTION) {
		return cond
	}
	c.next()
	if c.isConst(cond) {
		if cond.val.Truthy() {
			t := c.parseExpr()
			c.expect(lexer.COLON)
			c.discardBranch(func() { c.parseExpr() })
			return t
		}
		c.discardBranch(func() { c.parseExpr() })
		c.expect(lexer.COLON)
		return c.parseExpr()
	}
	target := c.cur.allocReg()
	condReg := c.regOf(cond, target)
	falseJump := c.emitJump(bytecode.C_JUMP)
	c.patchCJump(falseJump, condReg, false, 1)
	c.toReg(c.parseExpr(), target)
	endJump := c.emitJump(bytecode.JUMP)
	c.patchCJumpTarget(falseJump, len(c.cur.code))
	c.expect(lexer.COLON)
	c.toReg(c.parseExpr(), target)
	c.patchJumpTo(endJump, len(c.cur.code))
	return regExpr(target)
}

// patchCJump rewrites a placeholder C_JUMP (emitted via emitJump, which
// picks the J layout) into the K-layout C_JUMP it actually is: tests
// R[reg] == want, jumping forward by a magnitude patched in a second
// step once the target is known (patchCJumpTarget).
func (c *Compiler) patchCJump(pc int, reg byte, want bool, _ int) {
	c.cjumpRegs[pc] = cjumpPending{reg: reg, want: want}
}

func (c *Compiler) patchCJumpTarget(pc int, target int) {
	p := c.cjumpRegs[pc]
	delta := target - pc
	var i uint16
	if p.want {
		i = 1
	}
	c.cur.code[pc] = bytecode.EncodeK(bytecode.C_JUMP, p.reg, uint16(delta), i != 0, true)
	delete(c.cjumpRegs, pc)
}

type cjumpPending struct {
	reg  byte
	want bool
}

func (c *Compiler) parseOr() prattExpr {
	left := c.parseAnd()
	for c.check(lexer.OR) {
		c.next()
		left = c.lowerShortCircuit(left, false)
	}
	return left
}

func (c *Compiler) parseAnd() prattExpr {
	left := c.parseEquality()
	for c.check(lexer.AND) {
		c.next()
		left = c.lowerShortCircuit(left, true)
	}
	return left
}

// rhsPrec is the precedence level `and`/`or`'s right operand parses at
// (spec.md: `and` binds tighter than `or`, both above equality).
func (c *Compiler) rhsPrec(isAnd bool) prattExpr {
	if isAnd {
		return c.parseEquality()
	}
	return c.parseAnd()
}

// lowerShortCircuit implements spec.md §4.4.1's `and`/`or` lowering.
func (c *Compiler) lowerShortCircuit(left prattExpr, isAnd bool) prattExpr {
	if c.isConst(left) {
		truthy := left.val.Truthy()
		if truthy == !isAnd {
			// and with truthy left, or with falsy left: short circuit
			// does NOT apply; right-hand side is the result.
			return c.rhsPrec(isAnd)
		}
		// and with falsy left, or with truthy left: left is the result;
		// the RHS is unreachable but its tokens must still be consumed.
		c.discardBranch(func() { c.rhsPrec(isAnd) })
		return left
	}
	target := c.cur.allocReg()
	leftReg := c.regOf(left, target)
	if leftReg != target {
		c.emit(bytecode.EncodeT(bytecode.MOVE, target, leftReg, 0, false, false))
	}
	wantTruthy := !isAnd
	jmp := c.emitJump(bytecode.C_JUMP)
	c.patchCJump(jmp, target, wantTruthy, 0)
	c.toReg(c.rhsPrec(isAnd), target)
	c.patchCJumpTarget(jmp, len(c.cur.code))
	return regExpr(target)
}

func (c *Compiler) parseEquality() prattExpr {
	left := c.parseComparison()
	for {
		var op bytecode.Opcode
		switch {
		case c.check(lexer.EQ):
			op = bytecode.EQ
		case c.check(lexer.NEQ):
			op = bytecode.NEQ
		default:
			return left
		}
		c.next()
		right := c.parseComparison()
		left = c.emitBinary(op, left, right)
	}
}

func (c *Compiler) parseComparison() prattExpr {
	left := c.parseBitOr()
	for {
		switch {
		case c.check(lexer.GT):
			c.next()
			left = c.emitBinary(bytecode.GT, left, c.parseBitOr())
		case c.check(lexer.GE):
			c.next()
			left = c.emitBinary(bytecode.GE, left, c.parseBitOr())
		case c.check(lexer.LT):
			c.next()
			left = c.emitBinary(bytecode.LT, left, c.parseBitOr())
		case c.check(lexer.LE):
			c.next()
			left = c.emitBinary(bytecode.LE, left, c.parseBitOr())
		case c.check(lexer.IS):
			c.next()
			left = c.emitIsCheck(left, c.parseTypeOperand())
		case c.check(lexer.IN):
			c.next()
			right := c.parseBitOr()
			left = c.emitBinary(bytecode.CONTAIN, right, left)
		default:
			return left
		}
	}
}

// parseTypeOperand parses the RHS of `is`: a type identifier naming a
// BaseType (spec.md §4.4.1's `type` PrattExpr tag).
func (c *Compiler) parseTypeOperand() prattExpr {
	tok := c.expect(lexer.IDENT)
	name, _ := c.interner.Lookup(tok.Ident)
	if t, ok := builtinTypeNames[name]; ok {
		return typeExpr(t)
	}
	if ci, ok := c.module.Types[name]; ok {
		return typeExpr(ci.ClassID)
	}
	c.fail(errid.UnexpectedToken)
	return prattExpr{}
}

var builtinTypeNames = map[string]value.BaseType{
	"Bool": value.Bool, "Int": value.Int, "Float": value.Float,
	"String": value.String, "Range": value.Range, "List": value.List,
	"Dict": value.Dict, "Function": value.Function,
}

// emitIsCheck lowers `x is Type` to CHECK_TYPE (SPEC_FULL.md's
// supplemental `is` operator).
func (c *Compiler) emitIsCheck(left prattExpr, t prattExpr) prattExpr {
	if c.isConst(left) {
		return constExpr(value.NewBool(left.val.Type() == t.typ))
	}
	target := c.cur.allocReg()
	leftReg := c.regOf(left, target)
	c.emit(bytecode.EncodeT(bytecode.CHECK_TYPE, leftReg, byte(t.typ), 0, false, false))
	if leftReg != target {
		c.emit(bytecode.EncodeT(bytecode.MOVE, target, leftReg, 0, false, false))
	}
	return regExpr(target)
}

func (c *Compiler) parseBitOr() prattExpr {
	left := c.parseBitXor()
	for c.check(lexer.PIPE) {
		c.next()
		left = c.emitBinary(bytecode.BITWISE_OR, left, c.parseBitXor())
	}
	return left
}

func (c *Compiler) parseBitXor() prattExpr {
	left := c.parseBitAnd()
	for c.check(lexer.CARET) {
		c.next()
		left = c.emitBinary(bytecode.BITWISE_XOR, left, c.parseBitAnd())
	}
	return left
}

func (c *Compiler) parseBitAnd() prattExpr {
	left := c.parseShift()
	for c.check(lexer.AMPERSAND) {
		c.next()
		left = c.emitBinary(bytecode.BITWISE_AND, left, c.parseShift())
	}
	return left
}

func (c *Compiler) parseShift() prattExpr {
	left := c.parseAdditive()
	for {
		switch {
		case c.check(lexer.SHL):
			c.next()
			left = c.emitBinary(bytecode.BITWISE_L_SHIFT, left, c.parseAdditive())
		case c.check(lexer.SHR):
			c.next()
			left = c.emitBinary(bytecode.BITWISE_R_SHIFT, left, c.parseAdditive())
		default:
			return left
		}
	}
}

func (c *Compiler) parseAdditive() prattExpr {
	left := c.parseMultiplicative()
	for {
		switch {
		case c.check(lexer.PLUS):
			c.next()
			left = c.emitBinary(bytecode.ADD, left, c.parseMultiplicative())
		case c.check(lexer.MINUS):
			c.next()
			left = c.emitBinary(bytecode.SUB, left, c.parseMultiplicative())
		default:
			return left
		}
	}
}

func (c *Compiler) parseMultiplicative() prattExpr {
	left := c.parseExponent()
	for {
		switch {
		case c.check(lexer.STAR):
			c.next()
			left = c.emitBinary(bytecode.MUL, left, c.parseExponent())
		case c.check(lexer.SLASH):
			c.next()
			left = c.emitBinary(bytecode.DIV, left, c.parseExponent())
		case c.check(lexer.SLASH_SLASH):
			c.next()
			left = c.emitBinary(bytecode.FDIV, left, c.parseExponent())
		case c.check(lexer.PERCENT):
			c.next()
			left = c.emitBinary(bytecode.MOD, left, c.parseExponent())
		default:
			return left
		}
	}
}

func (c *Compiler) parseExponent() prattExpr {
	left := c.parseUnary()
	if c.check(lexer.STAR_STAR) {
		c.next()
		right := c.parseExponent() // right-associative
		return c.emitBinary(bytecode.POW, left, right)
	}
	return left
}

func (c *Compiler) parseUnary() prattExpr {
	switch {
	case c.check(lexer.BANG):
		c.next()
		return c.emitUnary(bytecode.BOOL_NOT, c.parseUnary())
	case c.check(lexer.MINUS):
		c.next()
		return c.emitUnary(bytecode.NEG, c.parseUnary())
	case c.check(lexer.TILDE):
		c.next()
		return c.emitUnary(bytecode.BITWISE_INVERT, c.parseUnary())
	default:
		return c.parsePostfix()
	}
}

func (c *Compiler) emitBinary(op bytecode.Opcode, left, right prattExpr) prattExpr {
	if c.isConst(left) && c.isConst(right) {
		if v, ok := c.foldConstBinary(op, left.val, right.val); ok {
			return constExpr(v)
		}
	}
	target := c.cur.allocReg()
	lReg := c.regOf(left, target)
	rTarget := c.cur.allocReg()
	rReg := c.regOf(right, rTarget)
	c.emit(bytecode.EncodeT(op, target, lReg, rReg, false, false))
	return regExpr(target)
}

func (c *Compiler) emitUnary(op bytecode.Opcode, operand prattExpr) prattExpr {
	if c.isConst(operand) {
		if fn, ok := constUnaryFolders[op]; ok {
			v, id := fn(operand.val)
			if id != errid.Ok {
				c.fail(id)
			}
			return constExpr(v)
		}
	}
	target := c.cur.allocReg()
	src := c.regOf(operand, target)
	c.emit(bytecode.EncodeT(op, target, src, 0, false, false))
	return regExpr(target)
}

// foldConstBinary applies spec.md §4.4.1's constant folding: arithmetic/
// bitwise/comparison/boolean ops between two constants fold with no code
// emitted. Integer overflow wraps (Go's default int64 two's-complement
// arithmetic); division by zero raises DIVIDE_BY_ZERO even though it is
// normally a runtime-only error, since folding it away would otherwise
// silently discard a guaranteed-failing program.
func (c *Compiler) foldConstBinary(op bytecode.Opcode, a, b value.Value) (value.Value, bool) {
	fn, ok := constFolders[op]
	if !ok {
		return value.InvalidValue, false
	}
	v, id := fn(a, b)
	if id != errid.Ok {
		c.fail(id)
	}
	return v, true
}

// --- postfix: call / index / attribute ---

func (c *Compiler) parsePostfix() prattExpr {
	e := c.parsePrimary()
	for {
		switch {
		case c.check(lexer.LPAREN):
			e = c.parseCall(e)
		case c.check(lexer.LBRACKET):
			e = c.parseIndex(e)
		case c.check(lexer.DOT), c.check(lexer.QUESTION_DOT):
			c.next()
			e = c.parseAttr(e)
		default:
			return e
		}
	}
}

// parseCall reserves contiguous registers [target, target+argCount] and
// lowers the callee then each argument into them in turn (spec.md
// §4.4.1's "Function call").
func (c *Compiler) parseCall(callee prattExpr) prattExpr {
	c.next() // '('
	c.enterBracket()
	defer c.leaveBracket()
	target := c.cur.reserveRegs(1)
	c.toReg(callee, target)
	argCount := 0
	for !c.check(lexer.RPAREN) {
		argReg := c.cur.allocReg()
		c.toReg(c.parseExpr(), argReg)
		c.cur.nextReg = argReg + 1 // free the argument's temporaries so the next argument is adjacent
		argCount++
		if !c.match(lexer.COMMA) {
			break
		}
	}
	c.expect(lexer.RPAREN)
	c.emit(bytecode.EncodeT(bytecode.CALL, target, byte(target+1), byte(argCount), false, false))
	return regExpr(target)
}

func (c *Compiler) parseIndex(recv prattExpr) prattExpr {
	c.next() // '['
	c.enterBracket()
	defer c.leaveBracket()
	target := c.cur.allocReg()
	recvReg := c.regOf(recv, target)
	keyTarget := c.cur.allocReg()
	key := c.toReg(c.parseExpr(), keyTarget)
	c.expect(lexer.RBRACKET)
	c.emit(bytecode.EncodeT(bytecode.GET_ITEM, target, recvReg, key, false, false))
	return regExpr(target)
}

// parseAttr lowers `obj.field` to GET_ATTR. The field name is interned
// as a String constant and addressed by its low byte, since GET_ATTR's
// T layout has no room for the full 16-bit constant index.
func (c *Compiler) parseAttr(recv prattExpr) prattExpr {
	tok := c.expect(lexer.IDENT)
	name, _ := c.interner.Lookup(tok.Ident)
	target := c.cur.allocReg()
	recvReg := c.regOf(recv, target)
	idx := c.internConst(stringConst(name))
	c.emit(bytecode.EncodeT(bytecode.GET_ATTR, target, recvReg, byte(idx), false, false))
	return regExpr(target)
}

func stringConst(s string) value.Value {
	b := []byte(s)
	if len(b) <= 2 {
		return value.NewInlineString(b)
	}
	return value.NewHeapString(collection.NewStringObj(b))
}

// --- primary expressions ---

func (c *Compiler) parsePrimary() prattExpr {
	tok := c.peek()
	switch tok.Kind {
	case lexer.INT:
		c.next()
		return constExpr(value.NewInt(tok.IntVal))
	case lexer.FLOAT:
		c.next()
		return constExpr(value.NewFloat(tok.FloatVal))
	case lexer.STRING:
		c.next()
		return constExpr(stringConst(string(tok.StringVal)))
	case lexer.TRUE:
		c.next()
		return constExpr(value.NewBool(true))
	case lexer.FALSE:
		c.next()
		return constExpr(value.NewBool(false))
	case lexer.LPAREN:
		c.next()
		c.enterBracket()
		e := c.parseExpr()
		c.leaveBracket()
		c.expect(lexer.RPAREN)
		return e
	case lexer.LBRACKET:
		return c.parseListLiteral()
	case lexer.FN:
		return c.parseFnExpr()
	case lexer.IDENT:
		return c.parseIdentPrimary(tok)
	}
	c.fail(errid.UnexpectedToken)
	return prattExpr{}
}

func (c *Compiler) enterBracket() {
	c.bracketDepth++
	if c.bracketDepth > MaxBracketCount {
		c.fail(errid.MaximumBracketReached)
	}
	c.lex.SetIgnoreSeparators(true)
}

func (c *Compiler) leaveBracket() {
	c.bracketDepth--
	if c.bracketDepth == 0 {
		c.lex.SetIgnoreSeparators(false)
	}
}

// parseIdentPrimary resolves a bare identifier: local, upvalue, global,
// module var, or (for type identifiers) the `List`/`Dict` collection
// literal and `TypeName{...}` struct literal forms.
func (c *Compiler) parseIdentPrimary(tok lexer.Token) prattExpr {
	c.next() // consume the identifier; only then can we peek what follows
	name, _ := c.interner.Lookup(tok.Ident)
	if tok.IsTypeIdent {
		switch name {
		case "List":
			return c.parseTypedCollectionLiteral(0)
		case "Dict":
			return c.parseTypedCollectionLiteral(1)
		}
		if ci, ok := c.module.Types[name]; ok && c.check(lexer.LBRACE) {
			return c.parseStructLiteral(ci)
		}
	}
	return c.resolveIdent(tok.Ident)
}

// resolveIdent looks up id as local -> upvalue -> global -> module
// variable (spec.md §4.4: existence checks "globals -> exports ->
// module globals" for declaration; reads resolve the same chain plus
// locals/upvalues first).
func (c *Compiler) resolveIdent(id alloc.IdentifierId) prattExpr {
	if reg, ok := c.cur.resolveLocal(id); ok {
		return regExpr(reg)
	}
	if idx, ok := c.cur.resolveUpvalue(id); ok {
		target := c.cur.allocReg()
		c.emit(bytecode.EncodeT(bytecode.GET_UPVALUE, target, idx, 0, false, false))
		return regExpr(target)
	}
	name, _ := c.interner.Lookup(id)
	if slot, ok := c.module.Globals.Lookup(name); ok {
		target := c.cur.allocReg()
		c.emit(bytecode.EncodeK(bytecode.GET_MODULE_VAR, target, uint16(slot), false, false))
		return regExpr(target)
	}
	if slot, ok := c.module.Exports.Lookup(name); ok {
		target := c.cur.allocReg()
		c.emit(bytecode.EncodeK(bytecode.GET_MODULE_VAR, target, uint16(slot), false, true))
		return regExpr(target)
	}
	c.fail(errid.BindingError)
	return prattExpr{}
}

// parseListLiteral handles bracket-literal lists written without the
// `List` type prefix: `[e1, e2]`.
func (c *Compiler) parseListLiteral() prattExpr {
	c.next() // '['
	c.enterBracket()
	defer c.leaveBracket()
	target := c.cur.allocReg()
	c.emit(bytecode.EncodeT(bytecode.NEW_COLLECTION, target, 0, 0, false, false))
	c.emitListElements(target)
	c.expect(lexer.RBRACKET)
	return regExpr(target)
}

func (c *Compiler) parseTypedCollectionLiteral(kind byte) prattExpr {
	c.expect(lexer.LBRACKET)
	c.enterBracket()
	defer c.leaveBracket()
	target := c.cur.allocReg()
	c.emit(bytecode.EncodeT(bytecode.NEW_COLLECTION, target, kind, 0, false, false))
	if kind == 0 {
		c.emitListElements(target)
	} else {
		c.emitMapElements(target)
	}
	c.expect(lexer.RBRACKET)
	return regExpr(target)
}

const listBatchSize = 16
const mapBatchSize = 8

// emitListElements parses comma-separated expressions up to RBRACKET,
// batching APPEND_LIST in groups of listBatchSize (spec.md §4.4.1).
func (c *Compiler) emitListElements(target byte) {
	var regs []byte
	flush := func() {
		for _, batch := range lo.Chunk(regs, listBatchSize) {
			if len(batch) == 0 {
				continue
			}
			c.emit(bytecode.EncodeT(bytecode.APPEND_LIST, target, batch[0], byte(len(batch)), false, false))
		}
		regs = nil
	}
	for !c.check(lexer.RBRACKET) {
		r := c.cur.allocReg()
		c.toReg(c.parseExpr(), r)
		c.cur.nextReg = r + 1 // APPEND_LIST reads its elements from adjacent registers
		regs = append(regs, r)
		if len(regs) == listBatchSize {
			flush()
		}
		if !c.match(lexer.COMMA) {
			break
		}
	}
	flush()
}

// emitMapElements parses comma-separated `key:value` pairs up to
// RBRACKET, batching APPEND_MAP in groups of mapBatchSize key/value
// register pairs (spec.md §4.4.1). Mixing colon/non-colon forms in one
// literal fails with UNEXPECTED_TOKEN: here through expect(COLON), and
// in a List literal because emitListElements stops at anything but a
// COMMA and its caller then expects RBRACKET.
func (c *Compiler) emitMapElements(target byte) {
	var regs []byte
	flush := func() {
		pairSpan := mapBatchSize * 2
		for i := 0; i < len(regs); i += pairSpan {
			end := i + pairSpan
			if end > len(regs) {
				end = len(regs)
			}
			batch := regs[i:end]
			c.emit(bytecode.EncodeT(bytecode.APPEND_MAP, target, batch[0], byte(len(batch)/2), false, false))
		}
		regs = nil
	}
	for !c.check(lexer.RBRACKET) {
		kReg := c.cur.allocReg()
		c.toReg(c.parseExpr(), kReg)
		c.cur.nextReg = kReg + 1 // APPEND_MAP reads key/value pairs from adjacent registers
		c.expect(lexer.COLON)
		vReg := c.cur.allocReg()
		c.toReg(c.parseExpr(), vReg)
		c.cur.nextReg = vReg + 1
		regs = append(regs, kReg, vReg)
		if len(regs) == mapBatchSize*2 {
			flush()
		}
		if !c.match(lexer.COMMA) {
			break
		}
	}
	flush()
}

// parseStructLiteral handles `TypeName{field: value, ...}` (SPEC_FULL.md
// supplemental struct literal): compiles like a Dict literal but tags
// the resulting collection with ci's class id (NEW_COLLECTION kind=2).
func (c *Compiler) parseStructLiteral(ci *semimod.ClassInfo) prattExpr {
	c.expect(lexer.LBRACE)
	c.enterBracket()
	defer c.leaveBracket()
	target := c.cur.allocReg()
	c.emit(bytecode.EncodeT(bytecode.NEW_COLLECTION, target, 2, byte(ci.ClassID), false, false))
	for !c.check(lexer.RBRACE) {
		fieldTok := c.expect(lexer.IDENT)
		fieldName, _ := c.interner.Lookup(fieldTok.Ident)
		if _, ok := ci.Fields[fieldName]; !ok {
			c.fail(errid.UnexpectedToken)
		}
		c.expect(lexer.COLON)
		valTarget := c.cur.allocReg()
		c.toReg(c.parseExpr(), valTarget)
		keyIdx := c.internConst(stringConst(fieldName))
		c.emit(bytecode.EncodeT(bytecode.SET_ATTR, target, valTarget, byte(keyIdx), false, false))
		if !c.match(lexer.COMMA) {
			break
		}
	}
	c.expect(lexer.RBRACE)
	return regExpr(target)
}

// parseFnExpr compiles an anonymous function literal as a nested
// FunctionProto constant (spec.md §4.4.2's `fn` lowering, used here as
// an expression so closures can be passed as values, e.g. to `defer`
// or returned directly).
func (c *Compiler) parseFnExpr() prattExpr {
	proto := c.compileFunctionBody("<anonymous>")
	target := c.cur.allocReg()
	c.loadConstantInto(target, value.NewFunctionProto(proto))
	if len(proto.Upvalues) > 0 {
		// A closure capturing upvalues must be materialized at runtime,
		// not treated as a bare constant load; the vm's LOAD_CONSTANT
		// wraps a FunctionProto that has upvalue descriptors into a
		// Closure bound to the executing frame (spec.md §9's "implicit
		// CLOSURE" design choice), so loading the constant is sufficient.
	}
	return regExpr(target)
}
