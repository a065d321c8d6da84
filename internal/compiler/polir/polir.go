// Package polir converts a validated token stream into POLIR: a flat,
// postfix ("reverse Polish") instruction stream the stack interpreter runs
// directly (spec.md §5). Generate re-scans the same tokens the parser
// already validated — it performs no type checking of its own and trusts
// the parser.Artifacts it is given, using a token-level shunting-yard pass
// over expressions that has no knowledge of the parser's own grammar
// shape (spec.md §4.3).
package polir

import (
	"strconv"

	"github.com/axill-mp/mpascal/internal/compiler/diag"
	"github.com/axill-mp/mpascal/internal/compiler/lexer"
	"github.com/axill-mp/mpascal/internal/compiler/parser"
	"github.com/axill-mp/mpascal/internal/compiler/token"
	"github.com/axill-mp/mpascal/internal/compiler/vocab"
)

// Kind tags which variant of Instruction is populated. POLIR is a tagged
// variant stream rather than a stringly-typed one (Design Note, "forward-
// patched jumps"): an operand, an operator, a jump-target cell (a
// back-patched decimal address, itself pushed like any other operand), or
// a jump opcode that pops that address off the stack.
type Kind uint8

const (
	// Operand pushes a variable's name or a literal's text onto the stack.
	Operand Kind = iota
	// Operator pops its operands (or, for ":="/"read"/"write", a name and
	// maybe a value) and applies Op.
	Operator
	// JumpTargetCell pushes its resolved Target (a stream index) onto the
	// stack as a decimal operand. Back-patched in place once its target is
	// known.
	JumpTargetCell
	// JumpOp pops the index pushed by the JumpTargetCell immediately
	// before it. If Conditional, it also pops a condition and only jumps
	// when that condition is false ("!F"); otherwise it jumps
	// unconditionally ("!").
	JumpOp
)

// Instruction is one POLIR cell.
type Instruction struct {
	Kind        Kind
	Text        string // Operand: variable name or literal text
	Op          string // Operator: operator lexeme
	Target      int    // JumpTargetCell: resolved stream index
	Conditional bool   // JumpOp: true for "!F", false for "!"
}

func (i Instruction) String() string {
	switch i.Kind {
	case Operand:
		return i.Text
	case Operator:
		return i.Op
	case JumpTargetCell:
		return strconv.Itoa(i.Target)
	case JumpOp:
		if i.Conditional {
			return "!F"
		}
		return "!"
	default:
		return "?"
	}
}

// Generate walks lex from the beginning (the caller must have already
// called lex.Rewind after a successful parser.Parse) and produces the
// POLIR stream for the program body.
func Generate(lex *lexer.Lexer, art *parser.Artifacts) ([]Instruction, *diag.Bag, error) {
	g := &Generator{lex: lex, voc: art.Vocab, warnings: &diag.Bag{}}
	g.advance()

	if err := g.genProgram(); err != nil {
		return nil, g.warnings, err
	}
	return g.instrs, g.warnings, nil
}

type Generator struct {
	lex *lexer.Lexer
	voc *vocab.Vocabulary
	cur token.Token

	instrs   []Instruction
	warnings *diag.Bag
}

func (g *Generator) advance() {
	g.cur = g.lex.Next()
}

func (g *Generator) emit(instr Instruction) int {
	g.instrs = append(g.instrs, instr)
	return len(g.instrs) - 1
}

func (g *Generator) patch(addr, target int) {
	g.instrs[addr].Target = target
}

func (g *Generator) isKeyword(idx int) bool { return g.cur.Is(token.Keyword, idx) }
func (g *Generator) isDelim(idx int) bool   { return g.cur.Is(token.Delimiter, idx) }

func (g *Generator) expectKeyword(idx int) error {
	if !g.isKeyword(idx) {
		return diag.Errf(diag.Polir, g.cur.Line, "internal error: expected keyword %d, found %s", idx, g.cur)
	}
	g.advance()
	return nil
}

func (g *Generator) expectDelim(idx int) error {
	if !g.isDelim(idx) {
		return diag.Errf(diag.Polir, g.cur.Line, "internal error: expected delimiter %d, found %s", idx, g.cur)
	}
	g.advance()
	return nil
}

func (g *Generator) genProgram() error {
	if err := g.expectKeyword(vocab.KeywordProgram); err != nil {
		return err
	}
	if err := g.skipDeclarations(); err != nil {
		return err
	}
	return g.genBlock()
}

// skipDeclarations consumes the "var" section without emitting anything —
// declared types were already recorded by the parser.
func (g *Generator) skipDeclarations() error {
	if !g.isKeyword(vocab.KeywordVar) {
		return nil
	}
	g.advance()
	for g.cur.Kind == token.Identifier {
		g.advance()
		for g.isDelim(vocab.DelimComma) {
			g.advance()
			g.advance()
		}
		if err := g.expectDelim(vocab.DelimColon); err != nil {
			return err
		}
		g.advance() // type name
		if err := g.expectDelim(vocab.DelimSemicolon); err != nil {
			return err
		}
	}
	return nil
}

// genBlock implements B, checking for "end" before ever calling
// genStatement so an empty "begin end" generates nothing, matching
// parseBlock's check-then-call order.
func (g *Generator) genBlock() error {
	if err := g.expectKeyword(vocab.KeywordBegin); err != nil {
		return err
	}
	if g.isKeyword(vocab.KeywordEnd) {
		return g.expectKeyword(vocab.KeywordEnd)
	}
	if err := g.genStatement(); err != nil {
		return err
	}
	for g.isDelim(vocab.DelimSemicolon) {
		g.advance()
		if g.isKeyword(vocab.KeywordEnd) {
			break
		}
		if err := g.genStatement(); err != nil {
			return err
		}
	}
	return g.expectKeyword(vocab.KeywordEnd)
}

func (g *Generator) genStatement() error {
	switch {
	case g.cur.Kind == token.Identifier:
		return g.genAssignment()
	case g.isKeyword(vocab.KeywordIf):
		return g.genIf()
	case g.isKeyword(vocab.KeywordDo):
		return g.genDoWhile()
	case g.isKeyword(vocab.KeywordBegin):
		return g.genBlock()
	case g.isKeyword(vocab.KeywordRead):
		return g.genRead()
	case g.isKeyword(vocab.KeywordWrite):
		return g.genWrite()
	default:
		return diag.Errf(diag.Polir, g.cur.Line, "internal error: unexpected token %s at statement start", g.cur)
	}
}

// genAssignment implements "I := E" -> operand(I) · postfix(E) · ":=".
func (g *Generator) genAssignment() error {
	name := g.cur.Name
	g.advance()
	if err := g.expectDelim(vocab.DelimAssign); err != nil {
		return err
	}
	g.emit(Instruction{Kind: Operand, Text: name})
	if _, err := g.genExpr(); err != nil {
		return err
	}
	g.emit(Instruction{Kind: Operator, Op: ":="})
	return nil
}

// genIf implements the statement-translation table's if/else layout
// exactly (spec.md §4.3):
//
//	"if E then S1"        -> postfix(E) · <p1> · !F · translate(S1)
//	                         p1 patched to just after S1.
//	"if E then S1 else S2" -> postfix(E) · <p1> · !F · translate(S1) ·
//	                          <p2> · ! · translate(S2)
//	                         p1 patched to the start of S2, p2 to the end.
func (g *Generator) genIf() error {
	g.advance()
	condLine := g.cur.Line
	usesVar, err := g.genExpr()
	if err != nil {
		return err
	}
	g.warnIfConstantCondition(usesVar, condLine, "if")
	if err := g.expectKeyword(vocab.KeywordThen); err != nil {
		return err
	}
	p1 := g.emit(Instruction{Kind: JumpTargetCell})
	g.emit(Instruction{Kind: JumpOp, Conditional: true})
	if err := g.genStatement(); err != nil {
		return err
	}

	if !g.isKeyword(vocab.KeywordElse) {
		g.patch(p1, len(g.instrs))
		return nil
	}

	p2 := g.emit(Instruction{Kind: JumpTargetCell})
	g.emit(Instruction{Kind: JumpOp, Conditional: false})
	g.patch(p1, len(g.instrs))
	g.advance()
	if err := g.genStatement(); err != nil {
		return err
	}
	g.patch(p2, len(g.instrs))
	return nil
}

// genDoWhile implements "do S while E" -> translate(S) · postfix(E) ·
// "not" · <p0> · !F — the loop body runs once unconditionally, the
// condition is negated, and a single conditional jump returns to the top
// of the loop when the negated condition is false (spec.md §4.3).
func (g *Generator) genDoWhile() error {
	start := len(g.instrs)
	g.advance()
	if err := g.genStatement(); err != nil {
		return err
	}
	if err := g.expectKeyword(vocab.KeywordWhile); err != nil {
		return err
	}
	condLine := g.cur.Line
	usesVar, err := g.genExpr()
	if err != nil {
		return err
	}
	g.warnIfConstantCondition(usesVar, condLine, "do...while")
	g.emit(Instruction{Kind: Operator, Op: "not"})
	g.emit(Instruction{Kind: JumpTargetCell, Target: start})
	g.emit(Instruction{Kind: JumpOp, Conditional: true})
	return nil
}

// warnIfConstantCondition flags a control condition that never reads a
// variable — the branch or loop it guards can never go the other way at
// runtime.
func (g *Generator) warnIfConstantCondition(usesVar bool, line int, construct string) {
	if !usesVar {
		g.warnings.Add(diag.Polir, line, "%s condition does not reference any variable", construct)
	}
}

// genRead implements "read(I)" -> operand(I) · "read".
func (g *Generator) genRead() error {
	g.advance()
	if err := g.expectDelim(vocab.DelimLParen); err != nil {
		return err
	}
	name := g.cur.Name
	g.advance()
	g.emit(Instruction{Kind: Operand, Text: name})
	g.emit(Instruction{Kind: Operator, Op: "read"})
	return g.expectDelim(vocab.DelimRParen)
}

// genWrite implements "write(E)" -> postfix(E) · "write".
func (g *Generator) genWrite() error {
	g.advance()
	if err := g.expectDelim(vocab.DelimLParen); err != nil {
		return err
	}
	if _, err := g.genExpr(); err != nil {
		return err
	}
	g.emit(Instruction{Kind: Operator, Op: "write"})
	return g.expectDelim(vocab.DelimRParen)
}

// stackOp is one entry on the shunting-yard's operator stack.
type stackOp struct {
	text string
	prec int
}

// genExpr implements spec.md §4.3's expression-conversion algorithm
// literally: it re-scans raw tokens (oblivious to the parser's own E/E1/T/F
// grammar) until it reaches a statement terminator, maintaining an
// operator stack ordered by the priority table (un=9, */=8, +-=7,
// relational=6, not=5, and=4, or=3).
//
// The pop condition uses a strict "greater than" rather than the
// "greater-or-equal" spec.md's prose suggests: that is what actually
// produces the right-associative "a - b - c" == "a - (b - c)" grouping
// the associativity note (§4.2) and the Design Notes (§9) both call for.
// A "≥" comparison would instead group same-priority chains
// left-associatively, which contradicts those notes, so "≥" is treated
// here as an imprecision in the prose rather than as the intended rule.
//
// It returns whether the expression referenced any variable, for
// warnIfConstantCondition.
func (g *Generator) genExpr() (bool, error) {
	usesVar := false
	var stack []stackOp
	parenDepth := 0

	popOne := func() {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		g.emit(Instruction{Kind: Operator, Op: top.text})
	}

	for {
		if g.isExprTerminator(parenDepth) {
			break
		}
		switch {
		case g.cur.Kind == token.Identifier:
			g.emit(Instruction{Kind: Operand, Text: g.cur.Name})
			usesVar = true
			g.advance()

		case g.cur.Kind == token.Number:
			g.emit(Instruction{Kind: Operand, Text: g.cur.Text})
			g.advance()

		case g.isKeyword(vocab.KeywordTrue):
			g.emit(Instruction{Kind: Operand, Text: "true"})
			g.advance()

		case g.isKeyword(vocab.KeywordFalse):
			g.emit(Instruction{Kind: Operand, Text: "false"})
			g.advance()

		case g.isDelim(vocab.DelimLParen):
			stack = append(stack, stackOp{text: "(", prec: 0})
			parenDepth++
			g.advance()

		case g.isDelim(vocab.DelimRParen):
			for len(stack) > 0 && stack[len(stack)-1].text != "(" {
				popOne()
			}
			if len(stack) == 0 {
				return usesVar, diag.Errf(diag.Polir, g.cur.Line, "internal error: unmatched ')'")
			}
			stack = stack[:len(stack)-1] // discard "("
			parenDepth--
			g.advance()

		default:
			lex, prec, ok := exprOperator(g.cur)
			if !ok {
				return usesVar, diag.Errf(diag.Polir, g.cur.Line, "internal error: unexpected token %s in expression", g.cur)
			}
			for len(stack) > 0 && stack[len(stack)-1].text != "(" && stack[len(stack)-1].prec > prec {
				popOne()
			}
			stack = append(stack, stackOp{text: lex, prec: prec})
			g.advance()
		}
	}

	for len(stack) > 0 {
		popOne()
	}
	return usesVar, nil
}

// isExprTerminator reports whether cur ends an expression: one of the
// statement-level terminators (";", "then", "else", "end", "while") or, at
// parenDepth 0, a ")" that belongs to an enclosing "read"/"write" call
// rather than to the expression itself.
func (g *Generator) isExprTerminator(parenDepth int) bool {
	if g.isDelim(vocab.DelimSemicolon) {
		return true
	}
	if g.isDelim(vocab.DelimRParen) && parenDepth == 0 {
		return true
	}
	switch {
	case g.isKeyword(vocab.KeywordThen), g.isKeyword(vocab.KeywordElse),
		g.isKeyword(vocab.KeywordEnd), g.isKeyword(vocab.KeywordWhile):
		return true
	}
	return g.cur.IsEOF()
}

// exprOperator maps a token to its shunting-yard lexeme and priority
// (spec.md §4.3's table), covering both binary and prefix-unary operators
// uniformly — the algorithm does not special-case arity.
func exprOperator(tok token.Token) (string, int, bool) {
	if tok.Kind == token.Keyword {
		switch tok.Index {
		case vocab.KeywordUn:
			return "un", 9, true
		case vocab.KeywordNot:
			return "not", 5, true
		case vocab.KeywordAnd:
			return "and", 4, true
		case vocab.KeywordOr:
			return "or", 3, true
		}
		return "", 0, false
	}
	if tok.Kind != token.Delimiter {
		return "", 0, false
	}
	switch tok.Index {
	case vocab.DelimMul:
		return "*", 8, true
	case vocab.DelimDiv:
		return "/", 8, true
	case vocab.DelimPlus:
		return "+", 7, true
	case vocab.DelimMinus:
		return "-", 7, true
	case vocab.DelimEqual:
		return "=", 6, true
	case vocab.DelimNotEqual:
		return "<>", 6, true
	case vocab.DelimLess:
		return "<", 6, true
	case vocab.DelimLessEq:
		return "<=", 6, true
	case vocab.DelimGreater:
		return ">", 6, true
	case vocab.DelimGreaterEq:
		return ">=", 6, true
	}
	return "", 0, false
}
