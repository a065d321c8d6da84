// Package lexer turns MiniPascal source text into a token stream, classified
// against a loaded vocab.Vocabulary (spec.md §3). Lexing happens once, up
// front: New scans the entire input and the caller then walks the
// resulting slice with Next/Rewind/At.
package lexer

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/axill-mp/mpascal/internal/compiler/diag"
	"github.com/axill-mp/mpascal/internal/compiler/token"
	"github.com/axill-mp/mpascal/internal/compiler/vocab"
)

// Lexer holds the fully scanned token stream and a cursor into it.
type Lexer struct {
	tokens []token.Token
	cursor int
}

// New scans src against voc and returns a ready Lexer, or the first fatal
// lexical error encountered (an unterminated block comment, or a character
// that cannot start any valid token).
func New(src string, voc *vocab.Vocabulary) (*Lexer, error) {
	s := &scanner{src: src, voc: voc, line: 1}
	toks, err := s.scanAll()
	if err != nil {
		return nil, err
	}
	return &Lexer{tokens: toks}, nil
}

// Next returns the token under the cursor and advances it. At end of
// stream it repeatedly returns the EOF sentinel.
func (l *Lexer) Next() token.Token {
	t := l.At(l.cursor)
	if l.cursor < len(l.tokens) {
		l.cursor++
	}
	return t
}

// Peek returns the token under the cursor without advancing it.
func (l *Lexer) Peek() token.Token {
	return l.At(l.cursor)
}

// At returns the i-th scanned token, or the EOF sentinel if i is out of
// range. It does not move the cursor.
func (l *Lexer) At(i int) token.Token {
	if i < 0 || i >= len(l.tokens) {
		line := 0
		if len(l.tokens) > 0 {
			line = l.tokens[len(l.tokens)-1].Line
		}
		return token.Token{Kind: token.EOF, Line: line}
	}
	return l.tokens[i]
}

// Rewind resets the cursor to the beginning of the stream. The POLIR
// generator uses this to re-scan the same token slice the parser validated,
// instead of sharing any parser-built AST (Design Note, "no AST coupling").
func (l *Lexer) Rewind() {
	l.cursor = 0
}

// Mark returns the current cursor position, for restoring with Seek.
func (l *Lexer) Mark() int {
	return l.cursor
}

// Seek moves the cursor to a position previously returned by Mark.
func (l *Lexer) Seek(pos int) {
	l.cursor = pos
}

// Len reports how many tokens were scanned (excluding the EOF sentinel).
func (l *Lexer) Len() int {
	return len(l.tokens)
}

// scanner performs the one-shot scan of the whole source text.
type scanner struct {
	src  string
	voc  *vocab.Vocabulary
	pos  int
	line int
}

func (s *scanner) scanAll() ([]token.Token, error) {
	var out []token.Token
	for {
		if err := s.skipTrivia(); err != nil {
			return nil, err
		}
		if s.atEnd() {
			break
		}
		tok, err := s.scanOne()
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
	}
	return out, nil
}

func (s *scanner) atEnd() bool {
	return s.pos >= len(s.src)
}

func (s *scanner) cur() byte {
	if s.atEnd() {
		return 0
	}
	return s.src[s.pos]
}

func (s *scanner) at(offset int) byte {
	if s.pos+offset >= len(s.src) {
		return 0
	}
	return s.src[s.pos+offset]
}

func (s *scanner) advance() byte {
	ch := s.cur()
	s.pos++
	if ch == '\n' {
		s.line++
	}
	return ch
}

// skipTrivia consumes whitespace, line comments, and block comments,
// leaving the cursor at the start of the next real token (or at EOF). An
// unterminated block comment is a fatal lexical error, reported at the
// line the comment opened on.
func (s *scanner) skipTrivia() error {
	lineCmt := s.voc.SinglelineComment
	open, closeMark := s.voc.BlockComment()

	for {
		for !s.atEnd() && isSpace(s.cur()) {
			s.advance()
		}

		if len(lineCmt) > 0 && s.hasPrefix(lineCmt[0]) {
			for !s.atEnd() && s.cur() != '\n' {
				s.advance()
			}
			continue
		}

		if open != "" && s.hasPrefix(open) {
			startLine := s.line
			for i := 0; i < len(open); i++ {
				s.advance()
			}
			closed := false
			for !s.atEnd() {
				if s.hasPrefix(closeMark) {
					for i := 0; i < len(closeMark); i++ {
						s.advance()
					}
					closed = true
					break
				}
				s.advance()
			}
			if !closed {
				return diag.Errf(diag.Lexer, startLine, "unterminated block comment")
			}
			continue
		}

		break
	}
	return nil
}

func (s *scanner) hasPrefix(p string) bool {
	return strings.HasPrefix(s.src[s.pos:], p)
}

func (s *scanner) scanOne() (token.Token, error) {
	startLine := s.line
	ch := s.cur()

	switch {
	case isAlpha(ch):
		return s.scanWord(startLine)
	case isDigit(ch):
		return s.scanNumber(startLine)
	default:
		return s.scanDelimiter(startLine)
	}
}

func (s *scanner) scanWord(startLine int) (token.Token, error) {
	start := s.pos
	for !s.atEnd() && isAlnum(s.cur()) {
		s.advance()
	}
	raw := s.src[start:s.pos]
	lower := strings.ToLower(raw)

	if idx, ok := s.voc.KeywordIndex(lower); ok {
		return token.Token{Kind: token.Keyword, Index: idx, Text: lower, Line: startLine}, nil
	}
	return token.Token{Kind: token.Identifier, Name: lower, Text: lower, Line: startLine}, nil
}

func (s *scanner) scanNumber(startLine int) (token.Token, error) {
	start := s.pos
	for !s.atEnd() && isDigit(s.cur()) {
		s.advance()
	}
	raw := s.src[start:s.pos]
	val, err := strconv.Atoi(raw)
	if err != nil {
		return token.Token{}, diag.Errf(diag.Lexer, startLine, "malformed integer literal %q", raw)
	}
	return token.Token{Kind: token.Number, Value: val, Text: raw, Line: startLine}, nil
}

// scanDelimiter does longest-match-first against the vocabulary's delimiter
// list: it tries the two-character lexeme under the cursor before falling
// back to a one-character lexeme, so ":=" is not split into ":" and "=".
func (s *scanner) scanDelimiter(startLine int) (token.Token, error) {
	if two := s.peekRun(2); two != "" {
		if idx, ok := s.voc.DelimiterIndex(strings.ToLower(two)); ok {
			s.advance()
			s.advance()
			return token.Token{Kind: token.Delimiter, Index: idx, Text: strings.ToLower(two), Line: startLine}, nil
		}
	}
	one := s.peekRun(1)
	if idx, ok := s.voc.DelimiterIndex(strings.ToLower(one)); ok {
		s.advance()
		return token.Token{Kind: token.Delimiter, Index: idx, Text: strings.ToLower(one), Line: startLine}, nil
	}

	return token.Token{}, diag.Errf(diag.Lexer, startLine, "unrecognized character %q", s.cur())
}

func (s *scanner) peekRun(n int) string {
	end := s.pos + n
	if end > len(s.src) {
		return ""
	}
	return s.src[s.pos:end]
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n'
}

func isAlpha(ch byte) bool {
	return unicode.IsLetter(rune(ch)) || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isAlnum(ch byte) bool {
	return isAlpha(ch) || isDigit(ch)
}
