package vm

import (
	"go.uber.org/zap"

	"github.com/semi-lang/semi/alloc"
	"github.com/semi-lang/semi/bytecode"
	"github.com/semi-lang/semi/dispatch"
	"github.com/semi-lang/semi/errid"
	"github.com/semi-lang/semi/proto"
	"github.com/semi-lang/semi/semimod"
	"github.com/semi-lang/semi/value"
)

// frame is one activation record (spec.md §4.6): base is the absolute
// index into VM.registers this call's register window starts at, so
// register growth-by-doubling never invalidates a frame already on the
// Go call stack (only the backing array moves, indices stay valid).
type frame struct {
	closure   *proto.Closure
	pc        int
	base      int
	deferHead *proto.Closure // LIFO list of deferred closures, spec.md §3/§4.6
}

// VM is the register machine of spec.md §4.6: one growable register
// file shared by every frame, one sorted open-upvalue list, and a
// module of compiled code to run. Frames are not kept in an explicit
// slice; CALL instead recurses into a nested execFrame call on the Go
// stack, which is what gives runtime errors (spec.md §7) their "exit
// without unwinding or running defers" behavior for free: a Go `return
// err` from deep inside unwinds straight past every intermediate
// frame's RETURN/defer logic.
type VM struct {
	registers []value.Value

	openUpvalues *proto.Upvalue // sorted by descending RegIndex

	module *semimod.Module

	cfg       Config
	logger    *zap.Logger
	allocator alloc.Allocator

	// raisedValue holds the payload of the most recent RAISE (spec.md
	// RAISE opcode); errid.RuntimeError carries only the ErrorId/PC, not
	// an arbitrary Value, so the raised payload rides alongside on the
	// VM rather than changing that shared error type.
	raisedValue value.Value

	// hostGlobals is the separate host-level global table LOAD_CONSTANT's
	// i-flag addresses (spec.md §6), distinct from module.Globals: the
	// host registers values here by index, outside any one module's own
	// variable table, before Run.
	hostGlobals []value.Value

	// top is the logical stack pointer: the first register index not
	// currently owned by any live frame. Distinct from len(registers),
	// which is the physical capacity and may exceed top after growth.
	top int

	depth int
}

// New builds a VM bound to mod, ready for Run. cfg.Debug turns on
// per-instruction trace logging.
func New(mod *semimod.Module, cfg Config) *VM {
	return &VM{
		registers: make([]value.Value, cfg.InitialRegisterCapacity),
		module:    mod,
		cfg:       cfg,
		logger:    newLogger(cfg),
		allocator: newAllocator(cfg),
	}
}

// Close flushes the VM's logger; callers should defer it after New.
func (vm *VM) Close() error { return vm.logger.Sync() }

// RegisterHostGlobal assigns the Value a host global resolves to at
// index idx, growing the table as needed. Only a LOAD_CONSTANT with the
// i flag set reads this table, and the compiler never emits one;
// compiler.WithHostGlobals instead declares slots in the module's own
// Globals, which InstallBuiltins fills.
func (vm *VM) RegisterHostGlobal(idx int, v value.Value) {
	if idx >= len(vm.hostGlobals) {
		grown := make([]value.Value, idx+1)
		copy(grown, vm.hostGlobals)
		vm.hostGlobals = grown
	}
	vm.hostGlobals[idx] = v
}

// Run invokes the module's moduleInit (spec.md §4.7: "a module is run
// by invoking its moduleInit with zero arguments"), returning its
// result value (Invalid if moduleInit has coarity 0).
func (vm *VM) Run() (value.Value, error) {
	cl := proto.NewClosure(vm.module.ModuleInit)
	vm.logger.Info("module start", zap.String("module", vm.module.ID.String()))
	out, err := vm.invokeClosure(cl, nil)
	if err != nil {
		vm.logger.Error("module error", zap.Error(err))
		return value.InvalidValue, err
	}
	vm.logger.Info("module done")
	return out, nil
}

// ensureCapacity grows the register file by doubling so base+size
// fits, per spec.md §4.6 ("grows by doubling when a new frame's base +
// maxStackSize exceeds capacity"). Absolute indices survive since the
// old contents are copied forward.
func (vm *VM) ensureCapacity(base, size int) {
	need := base + size
	if need <= len(vm.registers) {
		return
	}
	newCap := len(vm.registers)
	if newCap == 0 {
		newCap = 1
	}
	for newCap < need {
		newCap *= 2
	}
	grown := make([]value.Value, newCap)
	copy(grown, vm.registers)
	vm.registers = grown
}

// --- upvalue capture / close ---

// findOrCreateUpvalue returns the open upvalue at absolute register
// addr, reusing an existing one if present (spec.md §4.6: "search the
// sorted open list before allocating a new cell"), else splices a
// fresh one into the descending-RegIndex sorted position.
func (vm *VM) findOrCreateUpvalue(addr int) *proto.Upvalue {
	var prev *proto.Upvalue
	cur := vm.openUpvalues
	for cur != nil && cur.RegIndex() > addr {
		prev = cur
		cur = cur.Next()
	}
	if cur != nil && cur.RegIndex() == addr {
		return cur
	}
	fresh := proto.NewOpenUpvalue(addr)
	fresh.SetNext(cur)
	if prev == nil {
		vm.openUpvalues = fresh
	} else {
		prev.SetNext(fresh)
	}
	return fresh
}

// closeUpvaluesFrom closes (and unlinks) every open upvalue with
// RegIndex >= addr (CLOSE_UPVALUES and RETURN call this; an exhausted
// ITER_NEXT does not, it falls into the loop's exit JUMP, which lands on
// the loop's CLOSE_UPVALUES).
func (vm *VM) closeUpvaluesFrom(addr int) {
	var prev *proto.Upvalue
	cur := vm.openUpvalues
	for cur != nil && cur.RegIndex() >= addr {
		cur.Close(vm.registers)
		cur = cur.Next()
	}
	if prev == nil {
		vm.openUpvalues = cur
	} else {
		prev.SetNext(cur)
	}
}

// buildClosure materializes a *proto.Closure from p, resolving each
// UpvalueDesc against the frame executing the LOAD_CONSTANT/CALL/
// DEFER_CALL (spec.md
// §3: "IsLocal captures the enclosing frame's register, else copies the
// enclosing closure's own upvalue slot").
func (vm *VM) buildClosure(p *proto.FunctionProto, caller *frame) *proto.Closure {
	cl := proto.NewClosure(p)
	for i, desc := range p.Upvalues {
		if desc.IsLocal {
			cl.Upvalues[i] = vm.findOrCreateUpvalue(caller.base + int(desc.Index))
		} else {
			cl.Upvalues[i] = caller.closure.Upvalues[desc.Index]
		}
	}
	return cl
}

// asCallable resolves R[reg] into an invocable *proto.Closure,
// lazily materializing one if the register instead holds a raw
// value.FunctionProto. Only protos without upvalue descriptors reach a
// register unwrapped (LOAD_CONSTANT wraps the others), so the closure
// built here captures nothing. It is written back into the register so
// later uses of that register see the same closure.
func (vm *VM) asCallable(reg int, caller *frame) (*proto.Closure, error) {
	v := vm.registers[reg]
	switch v.Type() {
	case value.Function:
		cl, ok := v.Heap().(*proto.Closure)
		if !ok {
			return nil, errid.NewRuntimeError(errid.InternalError, caller.pc)
		}
		return cl, nil
	case value.FunctionProto:
		p, ok := v.Heap().(*proto.FunctionProto)
		if !ok {
			return nil, errid.NewRuntimeError(errid.InternalError, caller.pc)
		}
		cl := vm.buildClosure(p, caller)
		vm.registers[reg] = value.NewFunction(cl)
		return cl, nil
	default:
		return nil, errid.NewRuntimeError(errid.UnexpectedType, caller.pc)
	}
}

// invokeClosure runs cl to completion (native or compiled); for a
// compiled closure it copies args into the first registers of the new
// frame. It does not touch any caller register itself (CALL/defer
// callers copy results out).
// Returns the single coarity-0-or-1 result value.
func (vm *VM) invokeClosure(cl *proto.Closure, args []value.Value) (value.Value, error) {
	if cl.IsNative() {
		var out value.Value
		if err := cl.Fn(vm, args, &out); err != nil {
			return value.InvalidValue, err
		}
		return out, nil
	}

	vm.depth++
	defer func() { vm.depth-- }()
	limit := vm.cfg.MaxCallDepth
	if limit <= 0 {
		limit = 1024 // Config's envDefault, so Config{} stays usable
	}
	if vm.depth > limit {
		return value.InvalidValue, errid.NewRuntimeError(errid.InternalError, 0)
	}

	p := cl.Proto
	if len(args) != p.Arity {
		return value.InvalidValue, errid.NewRuntimeError(errid.ArgsCountMismatch, 0)
	}

	base := vm.top
	vm.ensureCapacity(base, p.MaxStackSize)
	copy(vm.registers[base:base+len(args)], args)
	vm.top = base + p.MaxStackSize

	f := &frame{closure: cl, base: base}
	result, err := vm.execFrame(f)
	vm.top = base
	return result, err
}

// execFrame runs f's instruction stream to a RETURN, an uncaught
// runtime error, or end-of-code. Errors returned here propagate via a
// plain Go `return`, which is exactly spec.md §7's "exit the dispatch
// loop without unwinding frames or running deferred calls": the Go
// runtime itself unwinds every execFrame still on the stack above the
// point of failure, and none of their own RETURN-time defer handling
// ever executes.
func (vm *VM) execFrame(f *frame) (value.Value, error) {
	code := f.closure.Proto.Code
	for {
		if f.pc >= len(code) {
			if f.closure.Proto.Coarity > 0 {
				return value.InvalidValue, errid.NewRuntimeError(errid.MissingReturnValue, f.pc)
			}
			return vm.finishReturn(f, value.InvalidValue)
		}
		insPC := f.pc
		ins := code[insPC]
		f.pc++
		if vm.cfg.Debug {
			vm.logger.Debug("exec", zap.Int("pc", insPC), zap.String("op", ins.Op().String()))
		}

		switch ins.Op() {
		case bytecode.NOOP:
			// no effect

		case bytecode.JUMP:
			// jump targets are patched relative to this instruction's own
			// address (compiler.patchJumpTo), not the post-fetch pc.
			f.pc = insPC + ins.JumpDelta()

		case bytecode.C_JUMP:
			a, k, want, s := ins.KA(), ins.KPayload(), ins.KI(), ins.KS()
			if k != 0 && vm.registers[f.base+int(a)].Truthy() == want {
				delta := int(k)
				if !s {
					delta = -delta
				}
				f.pc = insPC + delta
			}

		case bytecode.LOAD_CONSTANT:
			a, k, i, s := ins.KA(), ins.KPayload(), ins.KI(), ins.KS()
			var v value.Value
			if i {
				v = vm.hostGlobal(int(k))
			} else if s {
				v = vm.module.Exports.Get(int(k))
			} else {
				cv, ok := vm.module.Constants.Get(int(k))
				if !ok {
					return value.InvalidValue, errid.NewRuntimeError(errid.InternalError, f.pc)
				}
				v = cv
			}
			// A proto with upvalue descriptors becomes a closure here, bound
			// to this frame's registers, so its captures stay correct when
			// it is returned and later called from another frame.
			if p, ok := v.Heap().(*proto.FunctionProto); ok && len(p.Upvalues) > 0 {
				v = value.NewFunction(vm.buildClosure(p, f))
			}
			vm.registers[f.base+int(a)] = v

		case bytecode.LOAD_BOOL:
			a, k := ins.KA(), ins.KPayload()
			vm.registers[f.base+int(a)] = value.NewBool(k != 0)

		case bytecode.LOAD_INLINE_INTEGER:
			a, k, s := ins.KA(), ins.KPayload(), ins.KS()
			n := int64(k)
			if !s {
				n = -n
			}
			vm.registers[f.base+int(a)] = value.NewInt(n)

		case bytecode.LOAD_INLINE_STRING:
			// compiler.loadConst packs b[0] into the low byte and b[1]
			// (if present) into the high byte; the reverse mapping infers
			// length from which bytes are nonzero, mirroring that encode.
			a, k := ins.KA(), ins.KPayload()
			lo, hi := byte(k), byte(k>>8)
			var b []byte
			switch {
			case hi != 0:
				b = []byte{lo, hi}
			case lo != 0:
				b = []byte{lo}
			}
			vm.registers[f.base+int(a)] = value.NewInlineString(b)

		case bytecode.GET_MODULE_VAR:
			a, k, s := ins.KA(), ins.KPayload(), ins.KS()
			if s {
				vm.registers[f.base+int(a)] = vm.module.Exports.Get(int(k))
			} else {
				vm.registers[f.base+int(a)] = vm.module.Globals.Get(int(k))
			}

		case bytecode.SET_MODULE_VAR:
			a, k, s := ins.KA(), ins.KPayload(), ins.KS()
			v := vm.registers[f.base+int(a)]
			if s {
				vm.module.Exports.Set(int(k), v)
			} else {
				vm.module.Globals.Set(int(k), v)
			}

		case bytecode.DEFER_CALL:
			k := ins.KPayload()
			cv, ok := vm.module.Constants.Get(int(k))
			if !ok {
				return value.InvalidValue, errid.NewRuntimeError(errid.InternalError, f.pc)
			}
			p, ok := cv.Heap().(*proto.FunctionProto)
			if !ok {
				return value.InvalidValue, errid.NewRuntimeError(errid.InternalError, f.pc)
			}
			dcl := vm.buildClosure(p, f)
			dcl.PrevDeferredFn = f.deferHead
			f.deferHead = dcl

		case bytecode.MOVE:
			a, b, c, kc := ins.A(), ins.B(), ins.C(), ins.Kc()
			vm.registers[f.base+int(a)] = vm.registers[f.base+int(b)]
			if kc && c != 0 {
				f.pc = insPC + (int(c) - bytecode.RKOffset)
			}

		case bytecode.GET_UPVALUE:
			a, b := ins.A(), ins.B()
			vm.registers[f.base+int(a)] = f.closure.Upvalues[b].Get(vm.registers)

		case bytecode.SET_UPVALUE:
			a, b := ins.A(), ins.B()
			f.closure.Upvalues[a].Set(vm.registers, vm.registers[f.base+int(b)])

		case bytecode.CLOSE_UPVALUES:
			a := ins.A()
			vm.closeUpvaluesFrom(f.base + int(a))

		case bytecode.ADD, bytecode.SUB, bytecode.MUL, bytecode.DIV, bytecode.FDIV,
			bytecode.MOD, bytecode.POW,
			bytecode.BITWISE_AND, bytecode.BITWISE_OR, bytecode.BITWISE_XOR,
			bytecode.BITWISE_L_SHIFT, bytecode.BITWISE_R_SHIFT:
			a, l, r, err := vm.binaryOperands(f, ins)
			if err != nil {
				return value.InvalidValue, err
			}
			result, err := vm.dispatchBinary(ins.Op(), l, r)
			if err != nil {
				return value.InvalidValue, errid.NewRuntimeError(errIDFromErr(err), f.pc)
			}
			vm.registers[f.base+int(a)] = result

		case bytecode.NEG, bytecode.BITWISE_INVERT:
			a, b := ins.A(), ins.B()
			operand := vm.registers[f.base+int(b)]
			tbl := dispatch.For(operand.Type())
			var result value.Value
			var err error
			if ins.Op() == bytecode.NEG {
				result, err = tbl.Numeric.Neg(operand)
			} else {
				result, err = tbl.Numeric.Invert(operand)
			}
			if err != nil {
				return value.InvalidValue, errid.NewRuntimeError(errIDFromErr(err), f.pc)
			}
			vm.registers[f.base+int(a)] = result

		case bytecode.GT, bytecode.GE, bytecode.EQ, bytecode.NEQ, bytecode.LT, bytecode.LE:
			a, l, r, err := vm.binaryOperands(f, ins)
			if err != nil {
				return value.InvalidValue, err
			}
			tbl := dispatch.For(l.Type()).Comparison
			var result value.Value
			switch ins.Op() {
			case bytecode.GT:
				result, err = tbl.Gt(l, r)
			case bytecode.GE:
				result, err = tbl.Ge(l, r)
			case bytecode.EQ:
				result, err = tbl.Eq(l, r)
			case bytecode.NEQ:
				result, err = tbl.Neq(l, r)
			case bytecode.LT:
				result, err = tbl.Lt(l, r)
			case bytecode.LE:
				result, err = tbl.Le(l, r)
			}
			if err != nil {
				return value.InvalidValue, errid.NewRuntimeError(errIDFromErr(err), f.pc)
			}
			vm.registers[f.base+int(a)] = result

		case bytecode.BOOL_NOT:
			a, b := ins.A(), ins.B()
			vm.registers[f.base+int(a)] = value.NewBool(!vm.registers[f.base+int(b)].Truthy())

		case bytecode.MAKE_RANGE:
			if err := vm.execMakeRange(f, ins); err != nil {
				return value.InvalidValue, err
			}

		case bytecode.SET_RANGE_STEP:
			if err := vm.execSetRangeStep(f, ins); err != nil {
				return value.InvalidValue, err
			}

		case bytecode.ITER_NEXT:
			// A=index register (0xFF sentinel means no index requested),
			// B=value register, C=iterable/cursor register (spec.md §4.1;
			// compiler/stmt.go's compileFor emits EncodeT(ITER_NEXT, idxReg,
			// valReg, iterReg, ...)). On a successful advance, skip the JUMP
			// that immediately follows (insPC+1) and land on the loop body
			// at insPC+2; on exhaustion fall through normally into that
			// JUMP, which always targets the loop's CLOSE_UPVALUES
			// (compileFor's documented contract).
			idxReg, valReg, curReg := ins.A(), ins.B(), ins.C()
			cur := vm.registers[f.base+int(curReg)]
			if !isIterCursor(cur) {
				seeded, err := dispatch.For(cur.Type()).Collection.Iter(cur)
				if err != nil {
					return value.InvalidValue, errid.NewRuntimeError(errIDFromErr(err), insPC)
				}
				cur = seeded
				vm.registers[f.base+int(curReg)] = cur
			}
			next, ok := dispatch.For(cur.Type()).Next(cur)
			if ok {
				vm.registers[f.base+int(valReg)] = next
				if idxReg != 0xFF {
					prevIdx := vm.registers[f.base+int(idxReg)]
					var n int64
					if prevIdx.IsInt() {
						n = prevIdx.Int() + 1
					}
					vm.registers[f.base+int(idxReg)] = value.NewInt(n)
				}
				f.pc = insPC + 2
			}
			// exhaustion: leave f.pc at insPC+1, falling into the exit JUMP

		case bytecode.GET_ATTR:
			a, b, c := ins.A(), ins.B(), ins.C()
			name, ok := vm.module.Constants.Get(int(c))
			if !ok {
				return value.InvalidValue, errid.NewRuntimeError(errid.InternalError, f.pc)
			}
			recv := vm.registers[f.base+int(b)]
			result, err := dispatch.For(recv.Type()).Collection.GetItem(recv, name)
			if err != nil {
				return value.InvalidValue, errid.NewRuntimeError(errIDFromErr(err), f.pc)
			}
			vm.registers[f.base+int(a)] = result

		case bytecode.SET_ATTR:
			a, b, c := ins.A(), ins.B(), ins.C()
			name, ok := vm.module.Constants.Get(int(c))
			if !ok {
				return value.InvalidValue, errid.NewRuntimeError(errid.InternalError, f.pc)
			}
			recv := vm.registers[f.base+int(a)]
			val := vm.registers[f.base+int(b)]
			if err := dispatch.For(recv.Type()).Collection.SetItem(recv, name, val); err != nil {
				return value.InvalidValue, errid.NewRuntimeError(errIDFromErr(err), f.pc)
			}

		case bytecode.GET_ITEM:
			a, b, c := ins.A(), ins.B(), ins.C()
			recv := vm.registers[f.base+int(b)]
			key := vm.registers[f.base+int(c)]
			result, err := dispatch.For(recv.Type()).Collection.GetItem(recv, key)
			if err != nil {
				return value.InvalidValue, errid.NewRuntimeError(errIDFromErr(err), f.pc)
			}
			vm.registers[f.base+int(a)] = result

		case bytecode.SET_ITEM:
			a, b, c := ins.A(), ins.B(), ins.C()
			recv := vm.registers[f.base+int(a)]
			key := vm.registers[f.base+int(b)]
			val := vm.registers[f.base+int(c)]
			if err := dispatch.For(recv.Type()).Collection.SetItem(recv, key, val); err != nil {
				return value.InvalidValue, errid.NewRuntimeError(errIDFromErr(err), f.pc)
			}

		case bytecode.DEL_ITEM:
			a, b := ins.A(), ins.B()
			recv := vm.registers[f.base+int(a)]
			key := vm.registers[f.base+int(b)]
			if err := dispatch.For(recv.Type()).Collection.DelItem(recv, key); err != nil {
				return value.InvalidValue, errid.NewRuntimeError(errIDFromErr(err), f.pc)
			}

		case bytecode.CONTAIN:
			a, b, c := ins.A(), ins.B(), ins.C()
			container := vm.registers[f.base+int(b)]
			item := vm.registers[f.base+int(c)]
			found, err := dispatch.For(container.Type()).Collection.Contain(container, item)
			if err != nil {
				return value.InvalidValue, errid.NewRuntimeError(errIDFromErr(err), f.pc)
			}
			vm.registers[f.base+int(a)] = value.NewBool(found)

		case bytecode.CALL:
			if err := vm.execCall(f, ins); err != nil {
				return value.InvalidValue, err
			}

		case bytecode.RETURN:
			a := ins.A()
			var result value.Value
			if f.closure.Proto.Coarity > 0 {
				result = vm.registers[f.base+int(a)]
			}
			return vm.finishReturn(f, result)

		case bytecode.CHECK_TYPE:
			a, b := ins.A(), ins.B()
			target := value.BaseType(b)
			operand := vm.registers[f.base+int(a)]
			vm.registers[f.base+int(a)] = value.NewBool(operand.Type() == target)

		case bytecode.NEW_COLLECTION:
			if err := vm.execNewCollection(f, ins); err != nil {
				return value.InvalidValue, err
			}

		case bytecode.APPEND_LIST:
			if err := vm.execAppendList(f, ins); err != nil {
				return value.InvalidValue, err
			}

		case bytecode.APPEND_MAP:
			if err := vm.execAppendMap(f, ins); err != nil {
				return value.InvalidValue, err
			}

		case bytecode.RAISE:
			a := ins.A()
			vm.raisedValue = vm.registers[f.base+int(a)]
			return value.InvalidValue, errid.NewRuntimeError(errid.UserRaised, f.pc)

		default:
			return value.InvalidValue, errid.NewRuntimeError(errid.UnimplementedFeature, f.pc)
		}
	}
}

// finishReturn implements spec.md §4.6's RETURN protocol in full: run
// every deferred closure LIFO to completion, close this frame's open
// upvalues, and hand back the result (the caller copies it into the
// slot that held the callee).
func (vm *VM) finishReturn(f *frame, result value.Value) (value.Value, error) {
	for d := f.deferHead; d != nil; d = d.PrevDeferredFn {
		if _, err := vm.invokeClosure(d, nil); err != nil {
			return value.InvalidValue, err
		}
	}
	vm.closeUpvaluesFrom(f.base)
	return result, nil
}

// RaisedValue returns the payload of the most recent RAISE (valid only
// immediately after Run/invokeClosure returns a UserRaised error).
func (vm *VM) RaisedValue() value.Value { return vm.raisedValue }

func errIDFromErr(err error) errid.ErrorId {
	if re, ok := err.(*errid.RuntimeError); ok {
		return re.ID
	}
	return errid.InternalError
}

func (vm *VM) hostGlobal(idx int) value.Value {
	if idx < 0 || idx >= len(vm.hostGlobals) {
		return value.InvalidValue
	}
	return vm.hostGlobals[idx]
}
