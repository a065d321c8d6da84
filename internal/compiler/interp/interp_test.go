package interp

import (
	"testing"

	"github.com/axill-mp/mpascal/internal/compiler/lexer"
	"github.com/axill-mp/mpascal/internal/compiler/parser"
	"github.com/axill-mp/mpascal/internal/compiler/polir"
	"github.com/axill-mp/mpascal/internal/compiler/symbols"
	"github.com/axill-mp/mpascal/internal/compiler/vocab"
	"github.com/axill-mp/mpascal/internal/console"
	"github.com/stretchr/testify/require"
)

// run compiles src end to end and executes it against a console.Fake seeded
// with input, returning the machine for inspecting final state.
func run(t *testing.T, src string, input ...string) (*Machine, *console.Fake, error) {
	t.Helper()
	voc := vocab.Default()
	lex, err := lexer.New(src, voc)
	require.NoError(t, err)
	art, _, err := parser.Parse(lex, voc)
	require.NoError(t, err)
	lex.Rewind()
	instrs, _, err := polir.Generate(lex, art)
	require.NoError(t, err)

	fake := console.NewFake(input...)
	m := New(instrs, art.Symbols, fake)
	return m, fake, m.Run()
}

func TestRunArithmeticScenario(t *testing.T) {
	_, fake, err := run(t, `program var x : int; begin x := 2 + 3 * 4; write(x) end.`)
	require.NoError(t, err)
	require.Equal(t, []string{"14"}, fake.Output)
}

func TestRunBooleanCompareScenario(t *testing.T) {
	_, fake, err := run(t, `program var b : bool; begin b := (2 < 3) and true; write(b) end.`)
	require.NoError(t, err)
	require.Equal(t, []string{"true"}, fake.Output)
}

func TestRunConditionalScenario(t *testing.T) {
	_, fake, err := run(t, `program var x : int; begin x := 5; if x > 0 then write(x) else write(0) end.`)
	require.NoError(t, err)
	require.Equal(t, []string{"5"}, fake.Output)
}

func TestRunConditionalElseBranchScenario(t *testing.T) {
	_, fake, err := run(t, `program var x : int; begin x := un 1; if x > 0 then write(x) else write(0) end.`)
	require.NoError(t, err)
	require.Equal(t, []string{"0"}, fake.Output)
}

func TestRunDoWhileLoopScenario(t *testing.T) {
	_, fake, err := run(t, `program var i : int; begin i := 3; do i := i - 1 while i > 0; write(i) end.`)
	require.NoError(t, err)
	require.Equal(t, []string{"0"}, fake.Output)
}

func TestRunDoWhileLoopRunsBodyExactlyOnceWhenConditionStartsFalse(t *testing.T) {
	_, fake, err := run(t, `program var i : int; begin i := 0; do i := i + 1 while i > 10; write(i) end.`)
	require.NoError(t, err)
	require.Equal(t, []string{"1"}, fake.Output)
}

func TestRunDivisionByZeroIsFatal(t *testing.T) {
	_, _, err := run(t, `program var x,y : int; begin x := 1; y := 0; write(x / y) end.`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "divide by zero")
}

func TestRunLeavesEmptyOperandStackForWellTypedProgram(t *testing.T) {
	m, _, err := run(t, `program var x : int; begin x := 2 + 3 * 4; write(x) end.`)
	require.NoError(t, err)
	require.Empty(t, m.stack)
}

func TestRunReadConsumesQueuedInput(t *testing.T) {
	m, _, err := run(t, `program var x : int; begin read(x); write(x) end.`, "42")
	require.NoError(t, err)
	require.Equal(t, 42, m.Env()["x"].Int)
}

func TestRunReadMalformedIntWarnsAndUsesZero(t *testing.T) {
	m, _, err := run(t, `program var x : int; begin x := 7; read(x); write(x) end.`, "not-a-number")
	require.NoError(t, err)
	require.Equal(t, 0, m.Env()["x"].Int)
	require.Equal(t, 1, m.Warnings().Len())
}

func TestRunReadBoolAcceptsNumericOneAsTrue(t *testing.T) {
	m, _, err := run(t, `program var b : bool; begin read(b); write(b) end.`, "1")
	require.NoError(t, err)
	require.Equal(t, 1, m.Env()["b"].Int)
}

func TestRunReadBoolTreatsAnyOtherInputAsTrue(t *testing.T) {
	m, _, err := run(t, `program var b : bool; begin read(b); write(b) end.`, "banana")
	require.NoError(t, err)
	require.Equal(t, 1, m.Env()["b"].Int)
	require.Equal(t, 1, m.Warnings().Len())
}

func TestRunReadBoolTreatsZeroAsFalse(t *testing.T) {
	m, _, err := run(t, `program var b : bool; begin b := true; read(b); write(b) end.`, "0")
	require.NoError(t, err)
	require.Equal(t, 0, m.Env()["b"].Int)
}

func TestApplyUnaryNegation(t *testing.T) {
	_, fake, err := run(t, `program var x : int; begin x := un (3 + 4); write(x) end.`)
	require.NoError(t, err)
	require.Equal(t, []string{"-7"}, fake.Output)
}

func TestApplyLogicalNot(t *testing.T) {
	_, fake, err := run(t, `program var b : bool; begin b := not false; write(b) end.`)
	require.NoError(t, err)
	require.Equal(t, []string{"true"}, fake.Output)
}

func TestOperandStackUnderflowIsRuntimeError(t *testing.T) {
	m := New([]polir.Instruction{{Kind: polir.Operator, Op: "write"}}, symbols.NewTable(), console.NewFake())
	err := m.Run()
	require.Error(t, err)
	require.Contains(t, err.Error(), "operand stack underflow")
}
