package bytecode

// Instruction is one 32-bit fixed-width word (spec.md §4.1). Stored as
// little-endian words per spec.md §6, but within this process we keep
// it as a plain uint32 and only serialize to bytes at module-at-rest
// boundaries (not specified further by spec.md — no persistence format
// is required of the core).
type Instruction uint32

const opcodeBits = 6
const opcodeMask = (1 << opcodeBits) - 1

// Op decodes the opcode, common to all three layouts.
func (ins Instruction) Op() Opcode { return Opcode(ins & opcodeMask) }

// --- T layout: A:8 | B:8 | C:8 | kb:1 | kc:1 | op:6 ---

// EncodeT builds a T-layout instruction.
func EncodeT(op Opcode, a, b, c byte, kb, kc bool) Instruction {
	w := uint32(op) & opcodeMask
	if kb {
		w |= 1 << 6
	}
	if kc {
		w |= 1 << 7
	}
	w |= uint32(c) << 8
	w |= uint32(b) << 16
	w |= uint32(a) << 24
	return Instruction(w)
}

func (ins Instruction) A() byte { return byte(ins >> 24) }
func (ins Instruction) B() byte { return byte(ins >> 16) }
func (ins Instruction) C() byte { return byte(ins >> 8) }
func (ins Instruction) Kb() bool { return ins&(1<<6) != 0 }
func (ins Instruction) Kc() bool { return ins&(1<<7) != 0 }

// RKOffset is the bias applied to an inline T-operand: the encoded
// byte X denotes integer X-128, range -128..127 (spec.md §4.1).
const RKOffset = 128

// DecodeRK decodes a T-layout RK operand (spec.md GLOSSARY): when k is
// set, operand is the inline integer byte-128; otherwise it is a
// register index.
func DecodeRK(operand byte, k bool) (reg byte, inline int32, isInline bool) {
	if k {
		return 0, int32(operand) - RKOffset, true
	}
	return operand, 0, false
}

// EncodeRKInline encodes an inline integer -128..127 as a T operand byte.
func EncodeRKInline(v int32) byte {
	return byte(v + RKOffset)
}

// --- K layout: A:8 | K:16 | i:1 | s:1 | op:6 ---

func EncodeK(op Opcode, a byte, k uint16, i, s bool) Instruction {
	w := uint32(op) & opcodeMask
	if i {
		w |= 1 << 6
	}
	if s {
		w |= 1 << 7
	}
	w |= uint32(k) << 8
	w |= uint32(a) << 24
	return Instruction(w)
}

func (ins Instruction) KA() byte    { return byte(ins >> 24) }
func (ins Instruction) KPayload() uint16 { return uint16(ins >> 8) }
func (ins Instruction) KI() bool    { return ins&(1<<6) != 0 }
func (ins Instruction) KS() bool    { return ins&(1<<7) != 0 }

// --- J layout: J:24 | s:1 | _:1 | op:6 ---

// MaxJump is the largest representable jump magnitude (2^24-1).
const MaxJump = (1 << 24) - 1

func EncodeJ(op Opcode, j uint32, s bool) Instruction {
	w := uint32(op) & opcodeMask
	if s {
		w |= 1 << 7
	}
	w |= (j & MaxJump) << 8
	return Instruction(w)
}

func (ins Instruction) J() uint32 { return uint32(ins>>8) & MaxJump }
func (ins Instruction) JS() bool  { return ins&(1<<7) != 0 }

// JumpDelta returns the signed PC delta encoded by a J-layout
// instruction: +J if s, -J otherwise.
func (ins Instruction) JumpDelta() int {
	d := int(ins.J())
	if ins.JS() {
		return d
	}
	return -d
}
