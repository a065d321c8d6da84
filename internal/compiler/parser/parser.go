// Package parser implements the MiniPascal recursive-descent parser
// (spec.md §4): it validates the token stream against the grammar, builds
// the declared-variable symbol table, and checks expression types. It does
// not build an AST — the POLIR generator re-scans the same token stream
// from the beginning once parsing succeeds (Design Note, "no AST
// coupling"), mirroring the original implementation's two-pass design.
package parser

import (
	"github.com/axill-mp/mpascal/internal/compiler/diag"
	"github.com/axill-mp/mpascal/internal/compiler/lexer"
	"github.com/axill-mp/mpascal/internal/compiler/symbols"
	"github.com/axill-mp/mpascal/internal/compiler/token"
	"github.com/axill-mp/mpascal/internal/compiler/vocab"
)

// Artifacts is everything the POLIR generator and interpreter need from a
// successful parse. It carries no reference back into the parser itself —
// the only coupling between stages is this value and the rewound lexer.
type Artifacts struct {
	Vocab   *vocab.Vocabulary
	Symbols *symbols.Table
	OpTypes symbols.OpTypes
}

// Parse validates lex's token stream as a MiniPascal program and returns the
// resulting Artifacts. On success the caller should call lex.Rewind before
// handing the same lexer to the POLIR generator. Non-fatal diagnostics
// (currently: unused variables) are returned in the warning bag regardless
// of whether parsing succeeded.
func Parse(lex *lexer.Lexer, voc *vocab.Vocabulary) (*Artifacts, *diag.Bag, error) {
	p := &Parser{
		lex:      lex,
		voc:      voc,
		opTypes:  symbols.Default(),
		symtab:   symbols.NewTable(),
		used:     make(map[string]bool),
		declLine: make(map[string]int),
		warnings: &diag.Bag{},
	}
	p.advance()

	if err := p.parseProgram(); err != nil {
		return nil, p.warnings, err
	}

	for _, name := range p.symtab.Names() {
		if !p.used[name] {
			p.warnings.Add(diag.Semler, p.declLine[name], "variable %q is declared but never used", name)
		}
	}

	return &Artifacts{Vocab: voc, Symbols: p.symtab, OpTypes: p.opTypes}, p.warnings, nil
}

// Parser holds the state of a single parse. Nothing here is exported:
// callers only ever see the Artifacts a successful Parse returns.
type Parser struct {
	lex *lexer.Lexer
	voc *vocab.Vocabulary
	cur token.Token

	opTypes symbols.OpTypes
	symtab  *symbols.Table

	used     map[string]bool
	declLine map[string]int

	warnings *diag.Bag
}

func (p *Parser) advance() {
	p.cur = p.lex.Next()
}

func (p *Parser) line() int {
	return p.cur.Line
}

func (p *Parser) syntaxErr(format string, args ...any) error {
	return diag.Errf(diag.Parser, p.line(), format, args...)
}

func (p *Parser) semanticErr(format string, args ...any) error {
	return diag.Errf(diag.Semler, p.line(), format, args...)
}

// isKeyword reports whether the current token is the keyword at idx.
func (p *Parser) isKeyword(idx int) bool {
	return p.cur.Is(token.Keyword, idx)
}

// isDelim reports whether the current token is the delimiter at idx.
func (p *Parser) isDelim(idx int) bool {
	return p.cur.Is(token.Delimiter, idx)
}

func (p *Parser) expectKeyword(idx int, name string) error {
	if !p.isKeyword(idx) {
		return p.syntaxErr("expected %q, found %s", name, p.cur)
	}
	p.advance()
	return nil
}

func (p *Parser) expectDelim(idx int, name string) error {
	if !p.isDelim(idx) {
		return p.syntaxErr("expected %q, found %s", name, p.cur)
	}
	p.advance()
	return nil
}

// parseProgram implements P: "program" D1 B "."
func (p *Parser) parseProgram() error {
	if err := p.expectKeyword(vocab.KeywordProgram, "program"); err != nil {
		return err
	}
	if err := p.parseDeclarations(); err != nil {
		return err
	}
	if err := p.parseBlock(); err != nil {
		return err
	}
	if err := p.expectDelim(vocab.DelimDot, "."); err != nil {
		return err
	}
	if p.cur.Kind != token.EOF {
		return p.syntaxErr("unexpected input after final '.': %s", p.cur)
	}
	return nil
}

// parseDeclarations implements D1: an optional single "var" section of one
// or more groups, each a comma-separated identifier list followed by ":",
// a type and ";".
func (p *Parser) parseDeclarations() error {
	if !p.isKeyword(vocab.KeywordVar) {
		return nil
	}
	p.advance()

	for p.cur.Kind == token.Identifier {
		names := []token.Token{p.cur}
		p.advance()
		for p.isDelim(vocab.DelimComma) {
			p.advance()
			if p.cur.Kind != token.Identifier {
				return p.syntaxErr("expected identifier after ',', found %s", p.cur)
			}
			names = append(names, p.cur)
			p.advance()
		}

		if err := p.expectDelim(vocab.DelimColon, ":"); err != nil {
			return err
		}

		typ, err := p.parseTypeName()
		if err != nil {
			return err
		}

		if err := p.expectDelim(vocab.DelimSemicolon, ";"); err != nil {
			return err
		}

		for _, nameTok := range names {
			if !p.symtab.Declare(nameTok.Name, typ) {
				return diag.Errf(diag.Semler, nameTok.Line, "variable %q already declared", nameTok.Name)
			}
			p.declLine[nameTok.Name] = nameTok.Line
		}
	}
	return nil
}

func (p *Parser) parseTypeName() (string, error) {
	switch {
	case p.isKeyword(vocab.KeywordInt):
		p.advance()
		return symbols.Int, nil
	case p.isKeyword(vocab.KeywordBool):
		p.advance()
		return symbols.Bool, nil
	default:
		return "", p.syntaxErr("expected type (int or bool), found %s", p.cur)
	}
}

// parseBlock implements B: "begin" statement (";" statement)* "end". An
// empty "begin end" is legal — check for "end" before ever calling
// parseStatement, the same check-then-call order the original's
// MpParser::B() uses in its loop condition.
func (p *Parser) parseBlock() error {
	if err := p.expectKeyword(vocab.KeywordBegin, "begin"); err != nil {
		return err
	}
	if p.isKeyword(vocab.KeywordEnd) {
		return p.expectKeyword(vocab.KeywordEnd, "end")
	}
	if err := p.parseStatement(); err != nil {
		return err
	}
	for p.isDelim(vocab.DelimSemicolon) {
		p.advance()
		if p.isKeyword(vocab.KeywordEnd) {
			break // trailing ";" before "end" is tolerated
		}
		if err := p.parseStatement(); err != nil {
			return err
		}
	}
	return p.expectKeyword(vocab.KeywordEnd, "end")
}

// parseStatement implements S, dispatching on the leading keyword/identifier.
func (p *Parser) parseStatement() error {
	switch {
	case p.cur.Kind == token.Identifier:
		return p.parseAssignment()
	case p.isKeyword(vocab.KeywordIf):
		return p.parseIf()
	case p.isKeyword(vocab.KeywordWhile):
		return p.syntaxErr("'while' without matching 'do'")
	case p.isKeyword(vocab.KeywordDo):
		return p.parseDoWhile()
	case p.isKeyword(vocab.KeywordBegin):
		return p.parseBlock()
	case p.isKeyword(vocab.KeywordRead):
		return p.parseRead()
	case p.isKeyword(vocab.KeywordWrite):
		return p.parseWrite()
	default:
		return p.syntaxErr("expected statement, found %s", p.cur)
	}
}

func (p *Parser) parseAssignment() error {
	nameTok := p.cur
	typ, ok := p.symtab.Lookup(nameTok.Name)
	if !ok {
		return diag.Errf(diag.Semler, nameTok.Line, "assignment to undeclared variable %q", nameTok.Name)
	}
	p.used[nameTok.Name] = true
	p.advance()

	if err := p.expectDelim(vocab.DelimAssign, ":="); err != nil {
		return err
	}

	exprType, err := p.parseExpr()
	if err != nil {
		return err
	}
	if exprType != typ {
		return diag.Errf(diag.Semler, nameTok.Line, "Type mismatch in assign operator: cannot assign %s expression to %s variable %q", exprType, typ, nameTok.Name)
	}
	return nil
}

// parseIf implements the "if" branch of S: "if" E "then" S ["else" S]. The
// optional "else" is recognized only when the "else" keyword immediately
// follows the then-branch, so a bare ";" always terminates the statement
// rather than being swallowed looking for an else (Open Question: dangling
// else resolved to match the original's greedy-but-";"-bounded behavior).
func (p *Parser) parseIf() error {
	p.advance()
	condType, err := p.parseExpr()
	if err != nil {
		return err
	}
	if condType != symbols.Bool {
		return p.semanticErr("'if' condition must be bool, found %s", condType)
	}
	if err := p.expectKeyword(vocab.KeywordThen, "then"); err != nil {
		return err
	}
	if err := p.parseStatement(); err != nil {
		return err
	}
	if p.isKeyword(vocab.KeywordElse) {
		p.advance()
		if err := p.parseStatement(); err != nil {
			return err
		}
	}
	return nil
}

// parseDoWhile implements the "do" branch of S: "do" S "while" E.
func (p *Parser) parseDoWhile() error {
	p.advance()
	if err := p.parseStatement(); err != nil {
		return err
	}
	if err := p.expectKeyword(vocab.KeywordWhile, "while"); err != nil {
		return err
	}
	condType, err := p.parseExpr()
	if err != nil {
		return err
	}
	if condType != symbols.Bool {
		return p.semanticErr("'do...while' condition must be bool, found %s", condType)
	}
	return nil
}

func (p *Parser) parseRead() error {
	p.advance()
	if err := p.expectDelim(vocab.DelimLParen, "("); err != nil {
		return err
	}
	if p.cur.Kind != token.Identifier {
		return p.syntaxErr("expected variable name inside read(...), found %s", p.cur)
	}
	nameTok := p.cur
	if _, ok := p.symtab.Lookup(nameTok.Name); !ok {
		return diag.Errf(diag.Semler, nameTok.Line, "read of undeclared variable %q", nameTok.Name)
	}
	p.used[nameTok.Name] = true
	p.advance()
	return p.expectDelim(vocab.DelimRParen, ")")
}

func (p *Parser) parseWrite() error {
	p.advance()
	if err := p.expectDelim(vocab.DelimLParen, "("); err != nil {
		return err
	}
	if _, err := p.parseExpr(); err != nil {
		return err
	}
	return p.expectDelim(vocab.DelimRParen, ")")
}

// Expression grammar (spec.md §4.2), kept exactly as given rather than
// re-leveled by operator priority:
//
//	E  (parseExpr)       -> E1 [relop E1]
//	E1 (parseSimpleExpr) -> T {("+"|"-"|"or") E1}   -- right-recursive
//	T  (parseTerm)       -> F {("*"|"/"|"and") T}   -- right-recursive
//	F  (parseFactor)     -> I | N | L | "not" F | "un" F | "(" E ")"
//
// E1 and T each merge an arithmetic/boolean pair of operators into one
// right-recursive production; which type a given operator demands is
// resolved per operator, not per production, since a well-typed operand
// chain is never a mix of the two.

func (p *Parser) parseExpr() (string, error) {
	lhs, err := p.parseSimpleExpr()
	if err != nil {
		return "", err
	}
	if _, isRelop := p.relopIndex(); !isRelop {
		return lhs, nil
	}
	opTok := p.cur
	p.advance()

	rhs, err := p.parseSimpleExpr()
	if err != nil {
		return "", err
	}
	if lhs != rhs {
		return "", diag.Errf(diag.Semler, opTok.Line, "relational operator %q needs operands of the same type, found %s and %s", opTok.Text, lhs, rhs)
	}
	return symbols.Bool, nil
}

func (p *Parser) relopIndex() (int, bool) {
	if p.cur.Kind != token.Delimiter {
		return 0, false
	}
	switch p.cur.Index {
	case vocab.DelimEqual, vocab.DelimNotEqual, vocab.DelimLess, vocab.DelimLessEq, vocab.DelimGreater, vocab.DelimGreaterEq:
		return p.cur.Index, true
	default:
		return 0, false
	}
}

// parseSimpleExpr implements E1: a term followed by zero or more
// "+"/"-"/"or" terms, recursing (rather than iterating) on the remainder so
// the grouping is right-associative — "a - b - c" type-checks (and, in the
// POLIR generator, evaluates) as "a - (b - c)" (spec.md §9 Open Question,
// resolved to match the original rather than the conventional
// left-associative reading).
func (p *Parser) parseSimpleExpr() (string, error) {
	typ, err := p.parseTerm()
	if err != nil {
		return "", err
	}
	if !p.isDelim(vocab.DelimPlus) && !p.isDelim(vocab.DelimMinus) && !p.isKeyword(vocab.KeywordOr) {
		return typ, nil
	}
	opTok := p.cur
	isOr := p.isKeyword(vocab.KeywordOr)
	p.advance()
	rhs, err := p.parseSimpleExpr()
	if err != nil {
		return "", err
	}
	want := symbols.Int
	if isOr {
		want = symbols.Bool
	}
	if typ != want || rhs != want {
		return "", diag.Errf(diag.Semler, opTok.Line, "operator %q needs %s operands, found %s and %s", opTok.Text, want, typ, rhs)
	}
	return want, nil
}

// parseTerm implements T: a factor followed by zero or more
// "*"/"/"/"and" factors, right-recursive for the same bug-compatibility
// reason as parseSimpleExpr.
func (p *Parser) parseTerm() (string, error) {
	typ, err := p.parseFactor()
	if err != nil {
		return "", err
	}
	if !p.isDelim(vocab.DelimMul) && !p.isDelim(vocab.DelimDiv) && !p.isKeyword(vocab.KeywordAnd) {
		return typ, nil
	}
	opTok := p.cur
	isAnd := p.isKeyword(vocab.KeywordAnd)
	p.advance()
	rhs, err := p.parseTerm()
	if err != nil {
		return "", err
	}
	want := symbols.Int
	if isAnd {
		want = symbols.Bool
	}
	if typ != want || rhs != want {
		return "", diag.Errf(diag.Semler, opTok.Line, "operator %q needs %s operands, found %s and %s", opTok.Text, want, typ, rhs)
	}
	return want, nil
}

// parseFactor implements F: an identifier, a number, true/false, a
// "not"/"un" prefixed factor, or a parenthesized expression.
func (p *Parser) parseFactor() (string, error) {
	switch {
	case p.cur.Kind == token.Identifier:
		nameTok := p.cur
		typ, ok := p.symtab.Lookup(nameTok.Name)
		if !ok {
			return "", diag.Errf(diag.Semler, nameTok.Line, "use of undeclared variable %q", nameTok.Name)
		}
		p.used[nameTok.Name] = true
		p.advance()
		return typ, nil

	case p.cur.Kind == token.Number:
		p.advance()
		return symbols.Int, nil

	case p.isKeyword(vocab.KeywordTrue), p.isKeyword(vocab.KeywordFalse):
		p.advance()
		return symbols.Bool, nil

	case p.isKeyword(vocab.KeywordNot):
		opTok := p.cur
		p.advance()
		typ, err := p.parseFactor()
		if err != nil {
			return "", err
		}
		if typ != symbols.Bool {
			return "", diag.Errf(diag.Semler, opTok.Line, "'not' needs a bool operand, found %s", typ)
		}
		return symbols.Bool, nil

	case p.isKeyword(vocab.KeywordUn):
		opTok := p.cur
		p.advance()
		typ, err := p.parseFactor()
		if err != nil {
			return "", err
		}
		if typ != symbols.Int {
			return "", diag.Errf(diag.Semler, opTok.Line, "'un' needs an int operand, found %s", typ)
		}
		return symbols.Int, nil

	case p.isDelim(vocab.DelimLParen):
		p.advance()
		typ, err := p.parseExpr()
		if err != nil {
			return "", err
		}
		if err := p.expectDelim(vocab.DelimRParen, ")"); err != nil {
			return "", err
		}
		return typ, nil

	default:
		return "", p.syntaxErr("expected an expression, found %s", p.cur)
	}
}
