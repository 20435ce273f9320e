package collection_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/semi-lang/semi/collection"
	"github.com/semi-lang/semi/value"
)

func TestStringContainsNaive(t *testing.T) {
	require.True(t, collection.Contains([]byte("hello world"), []byte("wor")))
	require.False(t, collection.Contains([]byte("hello"), []byte("xyz")))
	require.True(t, collection.Contains([]byte("anything"), nil))
}

func TestStringCompareMemcmpWithLengthTiebreak(t *testing.T) {
	require.Equal(t, -1, collection.Compare([]byte("ab"), []byte("abc")))
	require.Equal(t, 1, collection.Compare([]byte("b"), []byte("a")))
	require.Equal(t, 0, collection.Compare([]byte("same"), []byte("same")))
}

func TestListNegativeIndexWrapsAndOOBErrors(t *testing.T) {
	l := collection.NewListObjFrom([]value.Value{value.NewInt(1), value.NewInt(2), value.NewInt(3)})
	v, err := l.Get(-1)
	require.NoError(t, err)
	require.Equal(t, int64(3), v.Int())

	_, err = l.Get(5)
	require.Error(t, err)
}

func TestDictBasicSetGetDel(t *testing.T) {
	d := collection.NewDictObj()
	d.Set(value.NewInlineString([]byte("k")), value.NewInt(1))
	v, ok := d.Get(value.NewInlineString([]byte("k")))
	require.True(t, ok)
	require.Equal(t, int64(1), v.Int())

	require.True(t, d.Del(value.NewInlineString([]byte("k"))))
	_, ok = d.Get(value.NewInlineString([]byte("k")))
	require.False(t, ok)
}

func TestDictInvariantsUnderManyInsertions(t *testing.T) {
	d := collection.NewDictObj()
	for i := 0; i < 500; i++ {
		d.Set(value.NewInt(int64(i)), value.NewInt(int64(i*2)))
	}
	require.Equal(t, 500, d.Len())
	require.LessOrEqual(t, d.Len(), d.Used())
	require.LessOrEqual(t, d.Used(), d.IndexSize())

	for i := 0; i < 500; i++ {
		v, ok := d.Get(value.NewInt(int64(i)))
		require.True(t, ok)
		require.Equal(t, int64(i*2), v.Int())
	}
}

func TestDictLenAfterDeleteThenInsert(t *testing.T) {
	d := collection.NewDictObj()
	d.Set(value.NewInt(1), value.NewInt(1))
	d.Del(value.NewInt(1))
	d.Set(value.NewInt(2), value.NewInt(2))
	require.Equal(t, 1, d.Len())
}

func TestRangeAdvanceAscendingAndDescending(t *testing.T) {
	r := collection.NewRangeObj(value.NewInt(0), value.NewInt(3), value.NewInt(1))
	var seen []int64
	for r.Advancing() {
		seen = append(seen, r.Current().Int())
		r.Advance()
	}
	require.Equal(t, []int64{0, 1, 2}, seen)

	desc := collection.NewRangeObj(value.NewInt(3), value.NewInt(0), value.NewInt(-1))
	seen = nil
	for desc.Advancing() {
		seen = append(seen, desc.Current().Int())
		desc.Advance()
	}
	require.Equal(t, []int64{3, 2, 1}, seen)
}
