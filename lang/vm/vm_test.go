package vm_test

import (
	"bytes"
	"testing"

	"github.com/mna/embervm/lang/compiler"
	"github.com/mna/embervm/lang/vm"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, src string) (string, error) {
	t.Helper()
	fn, err := compiler.Compile(src)
	require.NoError(t, err)

	var out bytes.Buffer
	m := vm.New()
	m.Stdout = &out
	err = m.Run(fn)
	return out.String(), err
}

func TestArithmeticPrint(t *testing.T) {
	out, err := run(t, "print 1 + 2;")
	require.NoError(t, err)
	require.Equal(t, "3\n", out)
}

func TestStringConcat(t *testing.T) {
	out, err := run(t, `var a = "foo"; print a + "bar";`)
	require.NoError(t, err)
	require.Equal(t, "foobar\n", out)
}

func TestBlockScoping(t *testing.T) {
	out, err := run(t, `var a; { var a = 1; print a; } print a;`)
	require.NoError(t, err)
	require.Equal(t, "1\nnil\n", out)
}

func TestFibRecursion(t *testing.T) {
	out, err := run(t, `fun fib(n) { if (n < 2) return n; return fib(n-1) + fib(n-2); } print fib(10);`)
	require.NoError(t, err)
	require.Equal(t, "55\n", out)
}

func TestForLoop(t *testing.T) {
	out, err := run(t, `for (var i = 0; i < 3; i = i + 1) print i;`)
	require.NoError(t, err)
	require.Equal(t, "0\n1\n2\n", out)
}

func TestUndefinedVariableCall(t *testing.T) {
	_, err := run(t, `undef();`)
	require.Error(t, err)
	rerr, ok := err.(*vm.RuntimeError)
	require.True(t, ok)
	require.Contains(t, rerr.Msg, "Undefined variable 'undef'.")
}

func TestShortCircuitAnd(t *testing.T) {
	out, err := run(t, `fun sideEffect() { print "called"; return true; } print false and sideEffect();`)
	require.NoError(t, err)
	require.Equal(t, "false\n", out)
}

func TestShortCircuitOr(t *testing.T) {
	out, err := run(t, `fun sideEffect() { print "called"; return true; } print true or sideEffect();`)
	require.NoError(t, err)
	require.Equal(t, "true\n", out)
}

func TestArityMismatch(t *testing.T) {
	_, err := run(t, `fun f(a, b) { return a + b; } f(1);`)
	require.Error(t, err)
	rerr := err.(*vm.RuntimeError)
	require.Contains(t, rerr.Msg, "Expected 2 arguments but got 1.")
}

func TestCallNonCallable(t *testing.T) {
	_, err := run(t, `var x = 1; x();`)
	require.Error(t, err)
	rerr := err.(*vm.RuntimeError)
	require.Contains(t, rerr.Msg, "Can only call functions and classes.")
}

func TestSetGlobalNeverInserts(t *testing.T) {
	_, err := run(t, `x = 1;`)
	require.Error(t, err)
	rerr := err.(*vm.RuntimeError)
	require.Contains(t, rerr.Msg, "Undefined variable 'x'.")
}

func TestNegateTypeError(t *testing.T) {
	_, err := run(t, `print -"foo";`)
	require.Error(t, err)
	rerr := err.(*vm.RuntimeError)
	require.Contains(t, rerr.Msg, "Operand must be a number.")
}

func TestClockNative(t *testing.T) {
	out, err := run(t, `print clock() > 0;`)
	require.NoError(t, err)
	require.Equal(t, "true\n", out)
}
