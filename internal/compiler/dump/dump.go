// Package dump writes the optional diagnostic dumps the CLI's -l/-p flags
// request: the classified lexeme stream and the generated POLIR stream
// (spec.md §6/§7).
package dump

import (
	"fmt"
	"io"
	"strings"

	"github.com/axill-mp/mpascal/internal/compiler/lexer"
	"github.com/axill-mp/mpascal/internal/compiler/polir"
	"github.com/axill-mp/mpascal/internal/compiler/token"
)

// Lexemes writes the tuple stream spec.md §6 describes — one
// "(kind, vocabulary-index, line)" line per token — to tokens, plus two
// companion lists: every distinct identifier name used in the source, and
// every distinct number literal, each in first-use order.
func Lexemes(tokens, idents, numbers io.Writer, lex *lexer.Lexer) error {
	lex.Rewind()

	seenIdent := make(map[string]bool)
	seenNum := make(map[string]bool)
	var identList, numberList []string

	for i := 0; ; i++ {
		tok := lex.At(i)
		if tok.IsEOF() {
			break
		}

		idx := tok.Index
		switch tok.Kind {
		case token.Number:
			idx = tok.Value
			if !seenNum[tok.Text] {
				seenNum[tok.Text] = true
				numberList = append(numberList, tok.Text)
			}
		case token.Identifier:
			idx = 0
			if !seenIdent[tok.Name] {
				seenIdent[tok.Name] = true
				identList = append(identList, tok.Name)
			}
		}

		if _, err := fmt.Fprintf(tokens, "(%s, %d, %d)\n", tok.Kind, idx, tok.Line); err != nil {
			return err
		}
	}

	for _, name := range identList {
		if _, err := fmt.Fprintln(idents, name); err != nil {
			return err
		}
	}
	for _, n := range numberList {
		if _, err := fmt.Fprintln(numbers, n); err != nil {
			return err
		}
	}
	return nil
}

// Polir writes the generated instruction stream as a single line of
// whitespace-separated instruction tokens (spec.md §6: "each instruction
// token separated by whitespace"), mirroring the original's flat
// stringly-rendered POLIR vector.
func Polir(w io.Writer, instrs []polir.Instruction) error {
	parts := make([]string, len(instrs))
	for i, instr := range instrs {
		parts[i] = instr.String()
	}
	_, err := fmt.Fprintln(w, strings.Join(parts, " "))
	return err
}
