package parser

import (
	"testing"

	"github.com/axill-mp/mpascal/internal/compiler/lexer"
	"github.com/axill-mp/mpascal/internal/compiler/symbols"
	"github.com/axill-mp/mpascal/internal/compiler/vocab"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) (*Artifacts, error) {
	t.Helper()
	voc := vocab.Default()
	lex, err := lexer.New(src, voc)
	require.NoError(t, err)
	art, _, err := Parse(lex, voc)
	return art, err
}

func TestParseArithmeticProgram(t *testing.T) {
	_, err := mustParse(t, `program var x : int; begin x := 2 + 3 * 4; write(x) end.`)
	require.NoError(t, err)
}

func TestParseBooleanAndCompareProgram(t *testing.T) {
	_, err := mustParse(t, `program var b : bool; begin b := (2 < 3) and true; write(b) end.`)
	require.NoError(t, err)
}

func TestParseConditionalProgram(t *testing.T) {
	_, err := mustParse(t, `program var x : int; begin x := 5; if x > 0 then write(x) else write(0) end.`)
	require.NoError(t, err)
}

func TestParseDoWhileProgram(t *testing.T) {
	_, err := mustParse(t, `program var i : int; begin i := 3; do i := i - 1 while i > 0; write(i) end.`)
	require.NoError(t, err)
}

func TestParseAssignmentTypeMismatchIsSemanticError(t *testing.T) {
	_, err := mustParse(t, `program var x : int; begin x := true end.`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Type mismatch in assign operator")
}

func TestParseDivisionExpressionTypeChecksAsInt(t *testing.T) {
	art, err := mustParse(t, `program var x,y : int; begin x := 1; y := 0; write(x / y) end.`)
	require.NoError(t, err)
	typ, ok := art.Symbols.Lookup("x")
	require.True(t, ok)
	require.Equal(t, symbols.Int, typ)
}

func TestParseDuplicateDeclarationIsSemanticError(t *testing.T) {
	_, err := mustParse(t, `program var x : int; x : bool; begin x := 1 end.`)
	require.Error(t, err)
}

func TestParseUndeclaredIdentifierIsSemanticError(t *testing.T) {
	_, err := mustParse(t, `program begin x := 1 end.`)
	require.Error(t, err)
}

func TestParseWhileWithoutDoIsSyntaxError(t *testing.T) {
	_, err := mustParse(t, `program var x : int; begin while x > 0 do x := x - 1 end.`)
	require.Error(t, err)
}

func TestParseUnaryOperatorsInF(t *testing.T) {
	_, err := mustParse(t, `program var x : int; b : bool; begin x := un x; b := not b end.`)
	require.NoError(t, err)
}

func TestParseOrAndAndInterleaveWithArithmetic(t *testing.T) {
	// "or"/"and" are grammar-level peers of "+"/"-" and "*"/"/" respectively
	// (spec.md §4.2's E1/T productions), not a separate looser tier.
	_, err := mustParse(t, `program var a,b : bool; begin a := b and true or false end.`)
	require.NoError(t, err)
}

func TestParseRelationalRejectsMixedTypes(t *testing.T) {
	_, err := mustParse(t, `program var x : int; b : bool; begin b := x < true end.`)
	require.Error(t, err)
}

func TestParseRelationalAcceptsBoolOperands(t *testing.T) {
	_, err := mustParse(t, `program var a,b : bool; begin a := true; b := a = false end.`)
	require.NoError(t, err)
}

func TestParseUnusedVariableIsWarningNotError(t *testing.T) {
	voc := vocab.Default()
	lex, err := lexer.New(`program var x, y : int; begin x := 1 end.`, voc)
	require.NoError(t, err)
	_, warnings, err := Parse(lex, voc)
	require.NoError(t, err)
	require.Equal(t, 1, warnings.Len())
}

func TestParseEmptyBlock(t *testing.T) {
	_, err := mustParse(t, `program begin end.`)
	require.NoError(t, err)
}

func TestParseEmptyBlockNestedInsideNonEmptyOne(t *testing.T) {
	_, err := mustParse(t, `program var x : int; begin begin end; x := 1 end.`)
	require.NoError(t, err)
}

func TestParseMaximallyNestedParens(t *testing.T) {
	_, err := mustParse(t, `program var x : int; begin x := (((1 + 2))); write(x) end.`)
	require.NoError(t, err)
}

func TestParseRepeatedUnaryOperators(t *testing.T) {
	_, err := mustParse(t, `program var x : int; b : bool; begin x := un un x; b := not not b end.`)
	require.NoError(t, err)
}

func TestParseSingleStatementBodyWithoutTrailingSemicolon(t *testing.T) {
	_, err := mustParse(t, `program var x : int; begin x := 1 end.`)
	require.NoError(t, err)
}
