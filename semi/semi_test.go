package semi_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/semi-lang/semi/semi"
	"github.com/semi-lang/semi/value"
	"github.com/semi-lang/semi/vm"
)

func testConfig() vm.Config {
	return vm.Config{InitialRegisterCapacity: 64, MaxCallDepth: 64}
}

// runModule compiles and runs src, returning the module so callers can
// read back whatever exports they declared.
func runModule(t *testing.T, src string) (*semi.ModuleHandle, error) {
	t.Helper()
	mod, err := semi.Compile([]byte(src))
	require.NoError(t, err)
	v := semi.NewVM(mod, testConfig())
	defer v.Close()
	_, runErr := v.Run()
	return &semi.ModuleHandle{Module: mod, VM: v}, runErr
}

func exported(t *testing.T, h *semi.ModuleHandle, name string) value.Value {
	t.Helper()
	idx, ok := h.Module.Exports.Lookup(name)
	require.True(t, ok, "export %q not declared", name)
	return h.Module.Exports.Get(idx)
}

func TestArithmeticPrecedence(t *testing.T) {
	h, err := runModule(t, "export result := 1 + 2 * 3")
	require.NoError(t, err)
	require.Equal(t, int64(7), exported(t, h, "result").Int())
}

func TestIfElifElse(t *testing.T) {
	src := `
n := 2
out := 0
if n == 1 {
	out = 10
} elif n == 2 {
	out = 20
} else {
	out = 30
}
export result := out
`
	h, err := runModule(t, src)
	require.NoError(t, err)
	require.Equal(t, int64(20), exported(t, h, "result").Int())
}

func TestForOverRangeWithIndex(t *testing.T) {
	src := `
total := 0
count := 0
for v, i in 0..3 {
	total = total + v
	count = count + 1
}
export result := total
export n := count
`
	h, err := runModule(t, src)
	require.NoError(t, err)
	require.Equal(t, int64(3), exported(t, h, "result").Int())
	require.Equal(t, int64(3), exported(t, h, "n").Int())
}

// TestForTwoVariableBindsIndexThenValue uses a non-identity sequence
// ([10, 20, 30], whose values differ from their positions) so a swapped
// index/value binding would be caught: the two-variable form binds the
// first name to the index and the second to the value.
func TestForTwoVariableBindsIndexThenValue(t *testing.T) {
	src := `
xs := [10, 20, 30]
lastIdx := -1
lastVal := -1
for i, v in xs {
	lastIdx = i
	lastVal = v
}
export idx := lastIdx
export val := lastVal
`
	h, err := runModule(t, src)
	require.NoError(t, err)
	require.Equal(t, int64(2), exported(t, h, "idx").Int())
	require.Equal(t, int64(30), exported(t, h, "val").Int())
}

func TestClosureCapturesUpvalue(t *testing.T) {
	src := `
fn makeCounter() {
	n := 0
	fn bump() {
		n = n + 1
		return n
	}
	return bump
}

counter := makeCounter()
a := counter()
b := counter()
export result := b
`
	h, err := runModule(t, src)
	require.NoError(t, err)
	require.Equal(t, int64(2), exported(t, h, "result").Int())
}

func TestDeferRunsOnReturn(t *testing.T) {
	src := `
trace := 0
fn run() {
	defer {
		trace = trace + 1
	}
	trace = trace + 10
	return trace
}
out := run()
export result := out
export afterDefer := trace
`
	h, err := runModule(t, src)
	require.NoError(t, err)
	require.Equal(t, int64(10), exported(t, h, "result").Int())
	require.Equal(t, int64(11), exported(t, h, "afterDefer").Int())
}

func TestStructLiteralFieldAccess(t *testing.T) {
	src := `
struct Point {
	x, y
}

p := Point{x: 3, y: 4}
export px := p.x
export py := p.y
`
	h, err := runModule(t, src)
	require.NoError(t, err)
	require.Equal(t, int64(3), exported(t, h, "px").Int())
	require.Equal(t, int64(4), exported(t, h, "py").Int())
}

func TestListAndDictLiterals(t *testing.T) {
	src := `
xs := [1, 2, 3]
total := 0
for v in xs {
	total = total + v
}
m := Dict["a": 1, "b": 2]
export result := total
export mb := m["b"]
`
	h, err := runModule(t, src)
	require.NoError(t, err)
	require.Equal(t, int64(6), exported(t, h, "result").Int())
	require.Equal(t, int64(2), exported(t, h, "mb").Int())
}

func TestRaisePropagatesAsRuntimeError(t *testing.T) {
	src := `
fn boom() {
	raise 42
}
boom()
export unreachable := 1
`
	h, err := runModule(t, src)
	require.Error(t, err)
	require.True(t, h.VM.RaisedValue().IsInt())
	require.Equal(t, int64(42), h.VM.RaisedValue().Int())
}
