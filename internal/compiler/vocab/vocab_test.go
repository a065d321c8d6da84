package vocab

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultVocabularyIndices(t *testing.T) {
	v := Default()

	require.Equal(t, "program", v.Keyword(KeywordProgram))
	require.Equal(t, "begin", v.Keyword(KeywordBegin))
	require.Equal(t, "un", v.Keyword(KeywordUn))
	require.Len(t, v.Keywords, 19)

	require.Equal(t, ";", v.Delimiter(DelimSemicolon))
	require.Equal(t, ":=", v.Delimiter(DelimAssign))
	require.Equal(t, "<=", v.Delimiter(DelimLessEq))
	require.Len(t, v.Delimiters, 17)

	idx, ok := v.KeywordIndex("program")
	require.True(t, ok, "keyword lookup takes the lowercased lexeme (the lexer lowercases first)")
	require.Equal(t, KeywordProgram, idx)

	open, close := v.BlockComment()
	require.Equal(t, "{", open)
	require.Equal(t, "}", close)
}

func TestLoadRejectsWrongKeywordCount(t *testing.T) {
	// A vocabulary file whose keyword list doesn't line up with the named
	// indices must fail fast rather than silently misclassify tokens.
	bad := []byte("[Grammar]\nKeywords = `program var int`\nDelimiters = `; . , : := ( ) + - * / = <> > >= < <=`\n")
	_, err := fromBytes(bad)
	require.Error(t, err)
}
