package value_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/semi-lang/semi/value"
)

func TestInlineStringBytes(t *testing.T) {
	inline := value.NewInlineString([]byte("ab"))
	require.True(t, inline.IsString())
	require.Equal(t, []byte("ab"), inline.Bytes())
}

func TestInvalidIsDistinctSentinel(t *testing.T) {
	require.True(t, value.InvalidValue.IsInvalid())
	require.False(t, value.Equals(value.InvalidValue, value.NewInt(0)))
	require.False(t, value.NewInt(0).Truthy())
	require.False(t, value.InvalidValue.Truthy())
}

func TestNumericEqualityPromotion(t *testing.T) {
	require.True(t, value.Equals(value.NewInt(2), value.NewFloat(2.0)))
	require.False(t, value.Equals(value.NewInt(2), value.NewFloat(2.1)))
}

func TestFloatEpsilon(t *testing.T) {
	a := value.NewFloat(1.0000001)
	b := value.NewFloat(1.0000002)
	require.True(t, value.Equals(a, b))
	require.False(t, value.Equals(value.NewFloat(1.0), value.NewFloat(1.1)))
}

func TestInlineRangeParts(t *testing.T) {
	r := value.NewInlineRange(0, 10)
	s, e, step, isInt := r.RangeParts()
	require.True(t, isInt)
	require.Equal(t, int64(0), s.Int())
	require.Equal(t, int64(10), e.Int())
	require.Equal(t, int64(1), step.Int())
}

func TestHashDeterministicAndEqualForEqualValues(t *testing.T) {
	a := value.NewInt(42)
	b := value.NewInt(42)
	require.Equal(t, value.Hash(a), value.Hash(b))

	s1 := value.NewInlineString([]byte("hi"))
	s2 := value.NewInlineString([]byte("hi"))
	require.Equal(t, value.Hash(s1), value.Hash(s2))
}

func TestTruthiness(t *testing.T) {
	require.True(t, value.NewBool(true).Truthy())
	require.False(t, value.NewBool(false).Truthy())
	require.True(t, value.NewInt(1).Truthy())
	require.False(t, value.NewInt(0).Truthy())
	require.True(t, value.NewFloat(0.1).Truthy())
	require.False(t, value.NewFloat(0).Truthy())
}
