package bytecode_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/semi-lang/semi/bytecode"
)

func TestTLayoutRoundTrip(t *testing.T) {
	ins := bytecode.EncodeT(bytecode.ADD, 3, 4, 5, true, false)
	require.Equal(t, bytecode.ADD, ins.Op())
	require.Equal(t, byte(3), ins.A())
	require.Equal(t, byte(4), ins.B())
	require.Equal(t, byte(5), ins.C())
	require.True(t, ins.Kb())
	require.False(t, ins.Kc())
}

func TestKLayoutRoundTrip(t *testing.T) {
	ins := bytecode.EncodeK(bytecode.LOAD_CONSTANT, 7, 1000, true, false)
	require.Equal(t, bytecode.LOAD_CONSTANT, ins.Op())
	require.Equal(t, byte(7), ins.KA())
	require.Equal(t, uint16(1000), ins.KPayload())
	require.True(t, ins.KI())
	require.False(t, ins.KS())
}

func TestJLayoutRoundTripAndMaxJump(t *testing.T) {
	ins := bytecode.EncodeJ(bytecode.JUMP, bytecode.MaxJump, true)
	require.Equal(t, bytecode.JUMP, ins.Op())
	require.Equal(t, uint32(bytecode.MaxJump), ins.J())
	require.Equal(t, bytecode.MaxJump, ins.JumpDelta())

	back := bytecode.EncodeJ(bytecode.JUMP, 5, false)
	require.Equal(t, -5, back.JumpDelta())
}

func TestRKInlineOperandBias(t *testing.T) {
	b := bytecode.EncodeRKInline(-1)
	_, inline, isInline := bytecode.DecodeRK(b, true)
	require.True(t, isInline)
	require.Equal(t, int32(-1), inline)

	reg, _, isInline := bytecode.DecodeRK(42, false)
	require.False(t, isInline)
	require.Equal(t, byte(42), reg)
}
