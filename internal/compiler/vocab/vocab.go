// Package vocab loads the grammar vocabulary (keywords, delimiters, comment
// markers) that the rest of the pipeline treats as an opaque, ordered index
// table. It is the only package that knows the vocabulary file's format.
package vocab

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

//go:embed default.ini
var defaultINI []byte

// Named keyword indices. Order matters: the vocabulary file's Keywords list
// must follow this order. Loading checks only the list's length, so a list
// of the right length in another order loads and misclassifies tokens.
const (
	KeywordProgram = 0
	KeywordVar     = 1
	KeywordInt     = 2
	KeywordBool    = 3
	KeywordBegin   = 4
	KeywordEnd     = 5
	KeywordIf      = 6
	KeywordThen    = 7
	KeywordElse    = 8
	KeywordWhile   = 9
	KeywordDo      = 10
	KeywordRead    = 11
	KeywordWrite   = 12
	KeywordTrue    = 13
	KeywordFalse   = 14
	KeywordAnd     = 15
	KeywordOr      = 16
	KeywordNot     = 17
	KeywordUn      = 18
)

// Named delimiter indices, in the order spec.md §6 requires.
const (
	DelimSemicolon  = 0
	DelimDot        = 1
	DelimComma      = 2
	DelimColon      = 3
	DelimAssign     = 4
	DelimLParen     = 5
	DelimRParen     = 6
	DelimPlus       = 7
	DelimMinus      = 8
	DelimMul        = 9
	DelimDiv        = 10
	DelimEqual      = 11
	DelimNotEqual   = 12
	DelimGreater    = 13
	DelimGreaterEq  = 14
	DelimLess       = 15
	DelimLessEq     = 16
)

// requiredKeywordCount and requiredDelimiterCount sanity-check that a loaded
// vocabulary file carries exactly the lists the named indices above assume;
// the lexemes themselves still come entirely from the file.
var requiredKeywordCount = 19
var requiredDelimiterCount = 17

// Vocabulary is the immutable grammar table loaded once at startup (spec.md
// §3, §5). All lookups are by lowercased lexeme.
type Vocabulary struct {
	Keywords          []string
	Delimiters        []string
	SinglelineComment []string
	MultilineComment  []string // [open, close]

	keywordIndex   map[string]int
	delimiterIndex map[string]int
}

// Default returns the built-in MiniPascal vocabulary embedded at build time,
// so the interpreter works without an explicit --vocab flag.
func Default() *Vocabulary {
	v, err := fromBytes(defaultINI)
	if err != nil {
		// The embedded default is part of the binary; a load failure here
		// is a packaging bug, not a runtime condition callers can recover
		// from.
		panic("vocab: embedded default.ini failed to load: " + err.Error())
	}
	return v
}

// Load reads an INI-formatted vocabulary file with a [Grammar] section
// carrying whitespace-separated Keywords, Delimiters, Singleline_comment,
// and Multiline_comment lists.
func Load(path string) (*Vocabulary, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("vocab: cannot open %q: %w", path, err)
	}
	return fromConfig(cfg)
}

func fromBytes(data []byte) (*Vocabulary, error) {
	cfg, err := ini.Load(data)
	if err != nil {
		return nil, fmt.Errorf("vocab: cannot parse embedded default: %w", err)
	}
	return fromConfig(cfg)
}

func fromConfig(cfg *ini.File) (*Vocabulary, error) {
	sec := cfg.Section("Grammar")
	v := &Vocabulary{
		Keywords:          splitFields(sec.Key("Keywords").String()),
		Delimiters:        splitFields(sec.Key("Delimiters").String()),
		SinglelineComment: splitFields(sec.Key("Singleline_comment").String()),
		MultilineComment:  splitFields(sec.Key("Multiline_comment").String()),
	}

	if len(v.Keywords) != requiredKeywordCount {
		return nil, fmt.Errorf("vocab: expected %d keywords, found %d", requiredKeywordCount, len(v.Keywords))
	}
	if len(v.Delimiters) != requiredDelimiterCount {
		return nil, fmt.Errorf("vocab: expected %d delimiters, found %d", requiredDelimiterCount, len(v.Delimiters))
	}
	if len(v.MultilineComment) != 0 && len(v.MultilineComment)%2 != 0 {
		return nil, fmt.Errorf("vocab: Multiline_comment must have an even number of entries")
	}

	v.keywordIndex = indexOf(v.Keywords)
	v.delimiterIndex = indexOf(v.Delimiters)

	return v, nil
}

func splitFields(s string) []string {
	fields := strings.Fields(s)
	for i, f := range fields {
		fields[i] = strings.ToLower(f)
	}
	return fields
}

func indexOf(words []string) map[string]int {
	m := make(map[string]int, len(words))
	for i, w := range words {
		m[w] = i
	}
	return m
}

// KeywordIndex returns the vocabulary index of a lowercased word, if it is a
// keyword.
func (v *Vocabulary) KeywordIndex(word string) (int, bool) {
	i, ok := v.keywordIndex[word]
	return i, ok
}

// DelimiterIndex returns the vocabulary index of a lowercased symbol, if it
// is a delimiter.
func (v *Vocabulary) DelimiterIndex(word string) (int, bool) {
	i, ok := v.delimiterIndex[word]
	return i, ok
}

// Keyword returns the lexeme stored at a named keyword index.
func (v *Vocabulary) Keyword(index int) string {
	return v.Keywords[index]
}

// Delimiter returns the lexeme stored at a named delimiter index.
func (v *Vocabulary) Delimiter(index int) string {
	return v.Delimiters[index]
}

// BlockComment returns the open/close marker pair, or ("", "") if the
// vocabulary defines none.
func (v *Vocabulary) BlockComment() (open, close string) {
	if len(v.MultilineComment) < 2 {
		return "", ""
	}
	return v.MultilineComment[0], v.MultilineComment[1]
}
