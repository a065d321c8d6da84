// Package interp executes a POLIR instruction stream against a variable
// environment (spec.md §6). It is a small stack machine: most instructions
// push or pop plain-text operands, resolved to a typed value only when an
// operator actually needs one — the same lazy resolution the original
// implementation used, and a deliberate exception to the "no stringly
// typed" rule that governs the POLIR stream itself (Design Note).
package interp

import (
	"strconv"
	"strings"

	"github.com/axill-mp/mpascal/internal/compiler/diag"
	"github.com/axill-mp/mpascal/internal/compiler/polir"
	"github.com/axill-mp/mpascal/internal/compiler/symbols"
	"github.com/axill-mp/mpascal/internal/console"
)

// Variable is a declared identifier's runtime slot.
type Variable struct {
	Type string
	Int  int // the value; booleans are stored 0/1 and rendered true/false
}

// Machine runs a POLIR program against an environment seeded from a
// symbols.Table.
type Machine struct {
	instrs []polir.Instruction
	env    map[string]*Variable
	stack  []string
	io     console.IO
	warn   *diag.Bag
}

// New builds a Machine ready to Run the given instruction stream.
// Variables declared in symtab start at their type's zero value (0 for
// int, false for bool).
func New(instrs []polir.Instruction, symtab *symbols.Table, io console.IO) *Machine {
	env := make(map[string]*Variable, symtab.Len())
	for _, name := range symtab.Names() {
		typ, _ := symtab.Lookup(name)
		env[name] = &Variable{Type: typ}
	}
	return &Machine{instrs: instrs, env: env, io: io, warn: &diag.Bag{}}
}

// Warnings returns diagnostics accumulated during Run (currently: malformed
// "read" input, tolerated by storing 0 for an int and true for a bool).
func (m *Machine) Warnings() *diag.Bag {
	return m.warn
}

// Env exposes the final variable state, mainly for tests.
func (m *Machine) Env() map[string]*Variable {
	return m.env
}

// Run executes the program from instruction 0 until it falls off the end of
// the stream.
func (m *Machine) Run() error {
	pc := 0
	for pc < len(m.instrs) {
		instr := m.instrs[pc]
		switch instr.Kind {
		case polir.Operand:
			m.push(instr.Text)
			pc++

		case polir.JumpTargetCell:
			m.push(strconv.Itoa(instr.Target))
			pc++

		case polir.JumpOp:
			idxText, err := m.pop()
			if err != nil {
				return err
			}
			idx, convErr := strconv.Atoi(idxText)
			if convErr != nil {
				return diag.Errf(diag.Runtime, 0, "internal error: malformed jump address %q", idxText)
			}
			if !instr.Conditional {
				pc = idx
				continue
			}
			cond, err := m.popResolved(0)
			if err != nil {
				return err
			}
			if cond.n == 0 {
				pc = idx
			} else {
				pc++
			}

		case polir.Operator:
			if err := m.apply(instr, 0); err != nil {
				return err
			}
			pc++

		default:
			return diag.Errf(diag.Runtime, 0, "internal error: unknown instruction kind %d", instr.Kind)
		}
	}
	return nil
}

func (m *Machine) push(text string) {
	m.stack = append(m.stack, text)
}

func (m *Machine) pop() (string, error) {
	if len(m.stack) == 0 {
		return "", diag.Errf(diag.Runtime, 0, "internal error: operand stack underflow")
	}
	top := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return top, nil
}

// value is a resolved runtime operand: n holds the int value, or 0/1 for a
// bool.
type value struct {
	typ string
	n   int
}

func (v value) text() string {
	if v.typ == symbols.Bool {
		if v.n != 0 {
			return "true"
		}
		return "false"
	}
	return strconv.Itoa(v.n)
}

// resolve interprets a raw stack operand: the literals "true"/"false", a
// (possibly "-"-prefixed) digit run, or otherwise a declared variable name
// looked up in the environment.
func (m *Machine) resolve(text string, line int) (value, error) {
	switch text {
	case "true":
		return value{typ: symbols.Bool, n: 1}, nil
	case "false":
		return value{typ: symbols.Bool, n: 0}, nil
	}
	if isIntLiteral(text) {
		n, err := strconv.Atoi(text)
		if err != nil {
			return value{}, diag.Errf(diag.Runtime, line, "malformed integer operand %q", text)
		}
		return value{typ: symbols.Int, n: n}, nil
	}
	v, ok := m.env[text]
	if !ok {
		return value{}, diag.Errf(diag.Runtime, line, "reference to undeclared variable %q", text)
	}
	return value{typ: v.Type, n: v.Int}, nil
}

func isIntLiteral(s string) bool {
	if s == "" {
		return false
	}
	i := 0
	if s[0] == '-' {
		i = 1
	}
	if i >= len(s) {
		return false
	}
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func (m *Machine) popResolved(line int) (value, error) {
	text, err := m.pop()
	if err != nil {
		return value{}, err
	}
	return m.resolve(text, line)
}

func (m *Machine) apply(instr polir.Instruction, line int) error {
	switch instr.Op {
	case ":=":
		// Stack layout, bottom to top: name, value. Pop value first.
		v, err := m.popResolved(line)
		if err != nil {
			return err
		}
		name, err := m.pop()
		if err != nil {
			return err
		}
		target, ok := m.env[name]
		if !ok {
			return diag.Errf(diag.Runtime, line, "internal error: assignment to undeclared variable %q", name)
		}
		target.Int = v.n
		return nil

	case "read":
		name, err := m.pop()
		if err != nil {
			return err
		}
		target, ok := m.env[name]
		if !ok {
			return diag.Errf(diag.Runtime, line, "internal error: read into undeclared variable %q", name)
		}
		return m.doRead(name, target)

	case "write":
		v, err := m.popResolved(line)
		if err != nil {
			return err
		}
		return m.io.WriteLine(v.text())

	case "not":
		v, err := m.popResolved(line)
		if err != nil {
			return err
		}
		m.push(value{typ: symbols.Bool, n: boolToInt(v.n == 0)}.text())
		return nil

	case "un":
		v, err := m.popResolved(line)
		if err != nil {
			return err
		}
		m.push(value{typ: symbols.Int, n: -v.n}.text())
		return nil

	default:
		return m.applyBinary(instr.Op, line)
	}
}

func (m *Machine) doRead(name string, target *Variable) error {
	line, err := m.io.ReadLine(name + "? ")
	if err != nil {
		return diag.Errf(diag.IO, 0, "read(%s): %v", name, err)
	}
	line = strings.TrimSpace(line)

	switch target.Type {
	case symbols.Int:
		n, err := strconv.Atoi(line)
		if err != nil {
			m.warn.Add(diag.Runtime, 0, "read(%s): %q is not a valid int, using 0", name, line)
			n = 0
		}
		target.Int = n
	case symbols.Bool:
		switch strings.ToLower(line) {
		case "false", "0":
			target.Int = 0
		case "true", "1":
			target.Int = 1
		default:
			m.warn.Add(diag.Runtime, 0, "read(%s): %q is not true/false/0/1, using true", name, line)
			target.Int = 1
		}
	}
	return nil
}

func (m *Machine) applyBinary(op string, line int) error {
	rhs, err := m.popResolved(line)
	if err != nil {
		return err
	}
	lhs, err := m.popResolved(line)
	if err != nil {
		return err
	}

	switch op {
	case "+":
		m.push(value{typ: symbols.Int, n: lhs.n + rhs.n}.text())
	case "-":
		m.push(value{typ: symbols.Int, n: lhs.n - rhs.n}.text())
	case "*":
		m.push(value{typ: symbols.Int, n: lhs.n * rhs.n}.text())
	case "/":
		if rhs.n == 0 {
			return diag.Errf(diag.Runtime, line, "divide by zero")
		}
		m.push(value{typ: symbols.Int, n: lhs.n / rhs.n}.text())
	case "and":
		m.push(value{typ: symbols.Bool, n: boolToInt(lhs.n != 0 && rhs.n != 0)}.text())
	case "or":
		m.push(value{typ: symbols.Bool, n: boolToInt(lhs.n != 0 || rhs.n != 0)}.text())
	case "=":
		m.push(value{typ: symbols.Bool, n: boolToInt(lhs.n == rhs.n)}.text())
	case "<>":
		m.push(value{typ: symbols.Bool, n: boolToInt(lhs.n != rhs.n)}.text())
	case "<":
		m.push(value{typ: symbols.Bool, n: boolToInt(lhs.n < rhs.n)}.text())
	case "<=":
		m.push(value{typ: symbols.Bool, n: boolToInt(lhs.n <= rhs.n)}.text())
	case ">":
		m.push(value{typ: symbols.Bool, n: boolToInt(lhs.n > rhs.n)}.text())
	case ">=":
		m.push(value{typ: symbols.Bool, n: boolToInt(lhs.n >= rhs.n)}.text())
	default:
		return diag.Errf(diag.Runtime, line, "internal error: unknown operator %q", op)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
