package vm

import (
	"github.com/semi-lang/semi/bytecode"
	"github.com/semi-lang/semi/collection"
	"github.com/semi-lang/semi/dispatch"
	"github.com/semi-lang/semi/errid"
	"github.com/semi-lang/semi/value"
)

// isIterCursor reports whether v is already a live iteration cursor
// (spec.md §4.5's generic FOR protocol): a snapshot Iterator, or a heap
// Range already mid-advance. Anything else (a bare List/Dict/String, or
// an inline Range) needs one Collection.Iter call to seed a cursor
// before Next is ever called on it.
func isIterCursor(v value.Value) bool {
	if v.Type() == value.Iterator {
		return true
	}
	return v.Type() == value.Range && v.Variant() == value.VariantHeapRange
}

// binaryOperands decodes a T-layout binary instruction's A/B/C operands,
// resolving any RK-inlined integer operand (bytecode.DecodeRK) into a
// plain Int value (spec.md §4.1's RK convention); the compiler
// currently never sets kb/kc, but the decode is generic regardless.
func (vm *VM) binaryOperands(f *frame, ins bytecode.Instruction) (a byte, left, right value.Value, err error) {
	a = ins.A()
	left, err = vm.rkOperand(f, ins.B(), ins.Kb())
	if err != nil {
		return
	}
	right, err = vm.rkOperand(f, ins.C(), ins.Kc())
	return
}

func (vm *VM) rkOperand(f *frame, operand byte, k bool) (value.Value, error) {
	reg, inline, isInline := bytecode.DecodeRK(operand, k)
	if isInline {
		return value.NewInt(int64(inline)), nil
	}
	return vm.registers[f.base+int(reg)], nil
}

// dispatchBinary routes a numeric/bitwise opcode to the left operand's
// type table (spec.md §4.5: "the left operand's base type selects the
// method table").
func (vm *VM) dispatchBinary(op bytecode.Opcode, a, b value.Value) (value.Value, error) {
	n := dispatch.For(a.Type()).Numeric
	switch op {
	case bytecode.ADD:
		return n.Add(a, b)
	case bytecode.SUB:
		return n.Sub(a, b)
	case bytecode.MUL:
		return n.Mul(a, b)
	case bytecode.DIV:
		return n.Div(a, b)
	case bytecode.FDIV:
		return n.FloorDiv(a, b)
	case bytecode.MOD:
		return n.Mod(a, b)
	case bytecode.POW:
		return n.Pow(a, b)
	case bytecode.BITWISE_AND:
		return n.And(a, b)
	case bytecode.BITWISE_OR:
		return n.Or(a, b)
	case bytecode.BITWISE_XOR:
		return n.Xor(a, b)
	case bytecode.BITWISE_L_SHIFT:
		return n.Shl(a, b)
	case bytecode.BITWISE_R_SHIFT:
		return n.Shr(a, b)
	default:
		return value.InvalidValue, errid.NewRuntimeError(errid.InternalError, 0)
	}
}

// execMakeRange builds a range value from RK-decoded B/C operands
// (compiler/expr.go's emitRange: A=fresh target, B=start, C=end,
// step defaults to 1 and is only overridden by a later SET_RANGE_STEP).
func (vm *VM) execMakeRange(f *frame, ins bytecode.Instruction) error {
	a := ins.A()
	start, err := vm.rkOperand(f, ins.B(), ins.Kb())
	if err != nil {
		return err
	}
	end, err := vm.rkOperand(f, ins.C(), ins.Kc())
	if err != nil {
		return err
	}
	var step value.Value
	if start.IsInt() && end.IsInt() {
		step = value.NewInt(1)
	} else {
		step = value.NewFloat(1)
	}
	vm.registers[f.base+int(a)] = value.NewHeapRange(collection.NewRangeObj(start, end, step))
	return nil
}

// execSetRangeStep rewrites an already-built range's step field
// in-place (A=B=existing range register, C=new step register).
func (vm *VM) execSetRangeStep(f *frame, ins bytecode.Instruction) error {
	a, c := ins.A(), ins.C()
	cur := vm.registers[f.base+int(a)]
	start, end, _, _ := cur.RangeParts()
	step := vm.registers[f.base+int(c)]
	vm.registers[f.base+int(a)] = value.NewHeapRange(collection.NewRangeObj(start, end, step))
	return nil
}

// execCall implements spec.md §4.6's CALL protocol: the callee may be a
// built closure or a raw FunctionProto needing lazy materialization;
// result overwrites the register that held the callee, per the spec's
// "the slot holding the callee closure is reused for the return value".
func (vm *VM) execCall(f *frame, ins bytecode.Instruction) error {
	a, b, c := ins.A(), ins.B(), ins.C()
	calleeReg := f.base + int(a)
	cl, err := vm.asCallable(calleeReg, f)
	if err != nil {
		return err
	}
	argBase := f.base + int(b)
	argCount := int(c)
	args := make([]value.Value, argCount)
	copy(args, vm.registers[argBase:argBase+argCount])

	result, err := vm.invokeClosure(cl, args)
	if err != nil {
		return err
	}
	vm.registers[calleeReg] = result
	return nil
}

// newCollectionUnitBytes is the nominal per-collection charge tracked
// against vm.allocator on each NEW_COLLECTION (spec.md §6's allocator
// collaborator has no natural per-Value size of its own, since List/
// Dict/struct instances hold Go-native backing stores rather than
// VM-managed byte buffers; charging a small fixed unit still lets a
// host-configured MemoryLimitBytes cap the number of live collections).
const newCollectionUnitBytes = 64

func (vm *VM) execNewCollection(f *frame, ins bytecode.Instruction) error {
	a, kind, classID := ins.A(), ins.B(), ins.C()
	if _, err := vm.allocator.Allocate(nil, newCollectionUnitBytes); err != nil {
		return errid.NewRuntimeError(errid.MemoryAllocationFailure, f.pc)
	}
	var v value.Value
	switch kind {
	case 0:
		v = value.NewList(collection.NewListObj())
	case 1:
		v = value.NewDict(collection.NewDictObj())
	case 2:
		v = value.NewClassInstance(value.BaseType(classID), collection.NewDictObj())
	default:
		return errid.NewRuntimeError(errid.InternalError, f.pc)
	}
	vm.registers[f.base+int(a)] = v
	return nil
}

func (vm *VM) execAppendList(f *frame, ins bytecode.Instruction) error {
	a, b, c := ins.A(), ins.B(), ins.C()
	list := vm.registers[f.base+int(a)]
	appendFn := dispatch.For(list.Type()).Collection.Append
	base := f.base + int(b)
	for i := 0; i < int(c); i++ {
		if err := appendFn(list, vm.registers[base+i]); err != nil {
			return errid.NewRuntimeError(errIDFromErr(err), f.pc)
		}
	}
	return nil
}

func (vm *VM) execAppendMap(f *frame, ins bytecode.Instruction) error {
	a, b, c := ins.A(), ins.B(), ins.C()
	dict := vm.registers[f.base+int(a)]
	setFn := dispatch.For(dict.Type()).Collection.SetItem
	base := f.base + int(b)
	for i := 0; i < int(c); i++ {
		key := vm.registers[base+2*i]
		val := vm.registers[base+2*i+1]
		if err := setFn(dict, key, val); err != nil {
			return errid.NewRuntimeError(errIDFromErr(err), f.pc)
		}
	}
	return nil
}
