package constpool_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/semi-lang/semi/constpool"
	"github.com/semi-lang/semi/value"
)

func TestInsertDedupesStructurallyEqualValues(t *testing.T) {
	tbl := constpool.New()
	i1 := tbl.Insert(value.NewInt(42))
	i2 := tbl.Insert(value.NewInt(42))
	require.Equal(t, i1, i2)
	require.Equal(t, 1, tbl.Len())

	i3 := tbl.Insert(value.NewInt(43))
	require.NotEqual(t, i1, i3)
	require.Equal(t, 2, tbl.Len())
}

func TestGetRoundTrip(t *testing.T) {
	tbl := constpool.New()
	idx := tbl.Insert(value.NewInlineString([]byte("hi")))
	v, ok := tbl.Get(idx)
	require.True(t, ok)
	require.Equal(t, []byte("hi"), v.Bytes())
}
