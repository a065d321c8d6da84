// Package runner wires the four pipeline stages — lexer, parser, POLIR
// generator, stack interpreter — into the single driver the CLI calls,
// the same small-functions-returning-error shape the original compiler
// driver used for its lex/parse/emit/write stages.
package runner

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/axill-mp/mpascal/internal/compiler/diag"
	"github.com/axill-mp/mpascal/internal/compiler/dump"
	"github.com/axill-mp/mpascal/internal/compiler/interp"
	"github.com/axill-mp/mpascal/internal/compiler/lexer"
	"github.com/axill-mp/mpascal/internal/compiler/parser"
	"github.com/axill-mp/mpascal/internal/compiler/polir"
	"github.com/axill-mp/mpascal/internal/compiler/vocab"
	"github.com/axill-mp/mpascal/internal/console"
)

// Config carries everything a run needs: the CLI flags spec.md §6 defines,
// plus the I/O streams a test can swap out.
type Config struct {
	SourcePath string
	VocabPath  string // "" uses the embedded default vocabulary
	Verbose    bool
	LexemeFile string // "" means the -l/--lexeme-file dump is skipped
	PolirFile  string // "" means the -p/--polir-file dump is skipped

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes the full pipeline against cfg and returns the process exit
// code spec.md §6/§7 specify: 0 on success, 1 for a lexer or parser
// (syntax) error, 2 for a semantic error, 3 for a runtime error, and a
// non-zero but otherwise unspecified code for I/O failures.
func Run(cfg Config) int {
	useColor := cfg.Stderr == os.Stderr

	src, err := readSource(cfg.SourcePath)
	if err != nil {
		fmt.Fprintln(cfg.Stderr, err)
		return 1
	}

	voc, err := loadVocab(cfg.VocabPath)
	if err != nil {
		fmt.Fprintln(cfg.Stderr, err)
		return 1
	}

	lex, err := lexer.New(src, voc)
	if err != nil {
		return reportFatal(cfg.Stderr, err, useColor)
	}

	art, parseWarnings, err := parser.Parse(lex, voc)
	if err != nil {
		parseWarnings.Render(cfg.Stderr, useColor)
		return reportFatal(cfg.Stderr, err, useColor)
	}

	if cfg.LexemeFile != "" {
		if err := dumpLexemes(cfg.LexemeFile, lex); err != nil {
			fmt.Fprintln(cfg.Stderr, err)
			return 1
		}
	}

	lex.Rewind()
	instrs, genWarnings, err := polir.Generate(lex, art)
	if err != nil {
		parseWarnings.Render(cfg.Stderr, useColor)
		return reportFatal(cfg.Stderr, err, useColor)
	}

	if cfg.PolirFile != "" {
		if err := dumpPolir(cfg.PolirFile, instrs); err != nil {
			fmt.Fprintln(cfg.Stderr, err)
			return 1
		}
	}

	if cfg.Verbose {
		parseWarnings.Render(cfg.Stderr, useColor)
		genWarnings.Render(cfg.Stderr, useColor)
	}

	stdin := cfg.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	machine := interp.New(instrs, art.Symbols, console.NewStd(stdin, cfg.Stdout))
	if err := machine.Run(); err != nil {
		return reportFatal(cfg.Stderr, err, useColor)
	}
	machine.Warnings().Render(cfg.Stderr, useColor)

	return 0
}

func readSource(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("cannot read %q: %w", path, err)
	}
	return string(b), nil
}

func loadVocab(path string) (*vocab.Vocabulary, error) {
	if path == "" {
		return vocab.Default(), nil
	}
	return vocab.Load(path)
}

func dumpLexemes(base string, lex *lexer.Lexer) error {
	tokensFile, err := os.Create(base)
	if err != nil {
		return fmt.Errorf("cannot write lexeme dump %q: %w", base, err)
	}
	defer tokensFile.Close()

	identsFile, err := os.Create(companionPath(base, "idents"))
	if err != nil {
		return fmt.Errorf("cannot write identifier dump: %w", err)
	}
	defer identsFile.Close()

	numbersFile, err := os.Create(companionPath(base, "numbers"))
	if err != nil {
		return fmt.Errorf("cannot write number dump: %w", err)
	}
	defer numbersFile.Close()

	return dump.Lexemes(tokensFile, identsFile, numbersFile, lex)
}

// companionPath derives the used-identifiers/used-numbers sibling file
// names spec.md §6 requires alongside the main lexeme dump: "tokens.lex"
// becomes "tokens.idents.lex" and "tokens.numbers.lex".
func companionPath(base, suffix string) string {
	if dot := strings.LastIndexByte(base, '.'); dot >= 0 {
		return base[:dot] + "." + suffix + base[dot:]
	}
	return base + "." + suffix
}

func dumpPolir(path string, instrs []polir.Instruction) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot write POLIR dump %q: %w", path, err)
	}
	defer f.Close()
	return dump.Polir(f, instrs)
}

func reportFatal(w io.Writer, err error, useColor bool) int {
	fatal, ok := err.(*diag.Fatal)
	if !ok {
		fmt.Fprintln(w, err)
		return 1
	}
	diag.RenderFatal(w, fatal, useColor)
	return fatal.Stage.ExitCode()
}
