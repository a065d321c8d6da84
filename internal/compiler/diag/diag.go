// Package diag carries the stage-tagged diagnostics spec.md §7 describes:
// fatal errors that halt the pipeline and non-fatal warnings that
// accumulate and are reported at the end of a run.
package diag

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Stage identifies which pipeline component raised a diagnostic.
type Stage string

const (
	IO      Stage = "IO"
	Lexer   Stage = "LEXER"
	Parser  Stage = "PARSER"
	Semler  Stage = "SEMLER"
	Polir   Stage = "POLIR"
	Runtime Stage = "RUNTIME"
)

// ExitCode maps a fatal diagnostic's stage to the process exit code spec.md
// §6/§7 require. Stages that are never fatal (Polir) fall back to 1.
func (s Stage) ExitCode() int {
	switch s {
	case Lexer, Parser:
		return 1
	case Semler:
		return 2
	case Runtime:
		return 3
	default:
		return 1
	}
}

// Fatal is a stage-tagged, line-tagged error that halts the pipeline. It is
// the only error type pipeline stages return for unrecoverable conditions —
// none of them call os.Exit directly (Design Note, "error handling via
// process exit").
type Fatal struct {
	Stage Stage
	Line  int // 0 when no line is known (e.g. I/O errors)
	Msg   string
}

func (f *Fatal) Error() string {
	if f.Line > 0 {
		return fmt.Sprintf("%s: line %d: %s", f.Stage, f.Line, f.Msg)
	}
	return fmt.Sprintf("%s: %s", f.Stage, f.Msg)
}

// Errf builds a *Fatal with a formatted message.
func Errf(stage Stage, line int, format string, args ...any) *Fatal {
	return &Fatal{Stage: stage, Line: line, Msg: fmt.Sprintf(format, args...)}
}

// Warning is a non-fatal diagnostic: an unused variable, a constant control
// expression, a tolerated malformed read.
type Warning struct {
	Stage Stage
	Line  int
	Msg   string
}

func (w Warning) String() string {
	if w.Line > 0 {
		return fmt.Sprintf("%s WARNING: line %d: %s", w.Stage, w.Line, w.Msg)
	}
	return fmt.Sprintf("%s WARNING: %s", w.Stage, w.Msg)
}

// Bag accumulates warnings across a pipeline run so the driver can report
// them together instead of interleaving them with other output.
type Bag struct {
	warnings []Warning
}

// Add records a warning.
func (b *Bag) Add(stage Stage, line int, format string, args ...any) {
	b.warnings = append(b.warnings, Warning{Stage: stage, Line: line, Msg: fmt.Sprintf(format, args...)})
}

// Warnings returns the accumulated warnings in the order they were added.
func (b *Bag) Warnings() []Warning {
	return b.warnings
}

// Len reports how many warnings have been accumulated.
func (b *Bag) Len() int {
	return len(b.warnings)
}

// Render writes every accumulated warning to w, one per line, colorizing the
// stage tag yellow when useColor is set (grounded on the diagnostic
// rendering in isaacev-Plaid_v1/feedback, replacing the original's
// MP_COLOR_WARNING Windows console API with a portable color library).
func (b *Bag) Render(w io.Writer, useColor bool) {
	yellow := color.New(color.FgYellow, color.Bold).SprintFunc()
	for _, warn := range b.warnings {
		tag := warn.Stage
		if useColor {
			fmt.Fprintf(w, "%s %s\n", yellow(string(tag)+" WARNING:"), warningBody(warn))
			continue
		}
		fmt.Fprintln(w, warn.String())
	}
}

func warningBody(w Warning) string {
	if w.Line > 0 {
		return fmt.Sprintf("line %d: %s", w.Line, w.Msg)
	}
	return w.Msg
}

// RenderFatal writes a fatal error to w, colorized red when useColor is set.
func RenderFatal(w io.Writer, err *Fatal, useColor bool) {
	if !useColor {
		fmt.Fprintln(w, err.Error())
		return
	}
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	if err.Line > 0 {
		fmt.Fprintf(w, "%s line %d: %s\n", red(string(err.Stage)+" ERROR:"), err.Line, err.Msg)
	} else {
		fmt.Fprintf(w, "%s %s\n", red(string(err.Stage)+" ERROR:"), err.Msg)
	}
}
