package lexer

import (
	"testing"

	"github.com/axill-mp/mpascal/internal/compiler/token"
	"github.com/axill-mp/mpascal/internal/compiler/vocab"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, lex *Lexer) []token.Token {
	t.Helper()
	lex.Rewind()
	var out []token.Token
	for i := 0; ; i++ {
		tok := lex.At(i)
		if tok.IsEOF() {
			break
		}
		out = append(out, tok)
	}
	return out
}

func TestLexBasicProgram(t *testing.T) {
	voc := vocab.Default()
	src := `program var x : int; begin x := 2 + 3 * 4; write(x) end.`
	lex, err := New(src, voc)
	require.NoError(t, err)

	toks := collect(t, lex)
	require.NotEmpty(t, toks)
	require.Equal(t, token.Keyword, toks[0].Kind)
	require.Equal(t, vocab.KeywordProgram, toks[0].Index)
	require.Equal(t, token.Keyword, toks[1].Kind)
	require.Equal(t, vocab.KeywordVar, toks[1].Index)
}

func TestLexCaseInsensitiveEquivalence(t *testing.T) {
	voc := vocab.Default()
	upper, err := New("PROGRAM VAR X : INT; BEGIN X := 1 END.", voc)
	require.NoError(t, err)
	lower, err := New("program var x : int; begin x := 1 end.", voc)
	require.NoError(t, err)

	require.Equal(t, collect(t, lower), collect(t, upper))
}

func TestLexRewindIdempotence(t *testing.T) {
	voc := vocab.Default()
	lex, err := New("program begin write(1) end.", voc)
	require.NoError(t, err)

	first := collect(t, lex)
	second := collect(t, lex)
	require.Equal(t, first, second)
}

func TestLexAssignIsNotSplitIntoColonAndEqual(t *testing.T) {
	voc := vocab.Default()
	lex, err := New("x := 1", voc)
	require.NoError(t, err)
	toks := collect(t, lex)
	require.Equal(t, token.Delimiter, toks[1].Kind)
	require.Equal(t, vocab.DelimAssign, toks[1].Index)
}

func TestLexSinglelineComment(t *testing.T) {
	voc := vocab.Default()
	lex, err := New("x // this is dropped\n:= 1", voc)
	require.NoError(t, err)
	toks := collect(t, lex)
	require.Len(t, toks, 3)
	require.Equal(t, 2, toks[1].Line)
}

func TestLexBlockComment(t *testing.T) {
	voc := vocab.Default()
	lex, err := New("x { a block\ncomment } := 1", voc)
	require.NoError(t, err)
	toks := collect(t, lex)
	require.Len(t, toks, 3)
}

func TestLexUnterminatedBlockCommentIsFatal(t *testing.T) {
	voc := vocab.Default()
	_, err := New("x { never closes", voc)
	require.Error(t, err)
}

func TestLexUnrecognizedCharacterIsFatal(t *testing.T) {
	voc := vocab.Default()
	_, err := New("x @ y", voc)
	require.Error(t, err)
}

func TestLexNumberLiteral(t *testing.T) {
	voc := vocab.Default()
	lex, err := New("12345", voc)
	require.NoError(t, err)
	toks := collect(t, lex)
	require.Len(t, toks, 1)
	require.Equal(t, token.Number, toks[0].Kind)
	require.Equal(t, 12345, toks[0].Value)
}

func TestLexMarkAndSeek(t *testing.T) {
	voc := vocab.Default()
	lex, err := New("a b c", voc)
	require.NoError(t, err)

	first := lex.Next()
	mark := lex.Mark()
	second := lex.Next()
	require.NotEqual(t, first.Name, second.Name)

	lex.Seek(mark)
	require.Equal(t, second, lex.Next())
}
