// Package diag implements span-addressed diagnostics and the source-line
// cache used to render them.
package diag

import (
	"fmt"

	"github.com/pogyomo/mini/pkg/ast"
)

// Level is the severity of a Diagnostic.
type Level int

const (
	Info Level = iota
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Info:
		return "info"
	case Warn:
		return "warning"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// Diagnostic is a single reported message anchored to a source span.
type Diagnostic struct {
	Span    ast.Span
	Level   Level
	What    string
	Details string
}

func (d Diagnostic) String() string {
	if d.Details == "" {
		return fmt.Sprintf("%s: %s: %s", d.Span, d.Level, d.What)
	}
	return fmt.Sprintf("%s: %s: %s (%s)", d.Span, d.Level, d.What, d.Details)
}

// Reporter accumulates diagnostics over the course of a compilation. It
// supports a suppress counter so speculative evaluation can silently
// discard diagnostics it would otherwise emit while probing.
type Reporter struct {
	diags    []Diagnostic
	suppress int
}

// NewReporter returns an empty Reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

// Suppress increments the suppress counter; while positive, Report is a
// no-op.
func (r *Reporter) Suppress() { r.suppress++ }

// Unsuppress decrements the suppress counter. It panics if called more
// times than Suppress — that would indicate a missing checkpoint/restore
// pair in the caller.
func (r *Reporter) Unsuppress() {
	if r.suppress == 0 {
		panic("diag: Unsuppress called without matching Suppress")
	}
	r.suppress--
}

// Report records d unless reporting is currently suppressed.
func (r *Reporter) Report(d Diagnostic) {
	if r.suppress > 0 {
		return
	}
	r.diags = append(r.diags, d)
}

// Errorf is shorthand for Report with Level Error.
func (r *Reporter) Errorf(span ast.Span, format string, args ...any) {
	r.Report(Diagnostic{Span: span, Level: Error, What: fmt.Sprintf(format, args...)})
}

// Warnf is shorthand for Report with Level Warn.
func (r *Reporter) Warnf(span ast.Span, format string, args ...any) {
	r.Report(Diagnostic{Span: span, Level: Warn, What: fmt.Sprintf(format, args...)})
}

// Diagnostics returns every diagnostic reported so far, in report order.
func (r *Reporter) Diagnostics() []Diagnostic {
	return r.diags
}

// HasErrors reports whether any Level-Error diagnostic has been recorded.
// Warn diagnostics never fail compilation.
func (r *Reporter) HasErrors() bool {
	for _, d := range r.diags {
		if d.Level == Error {
			return true
		}
	}
	return false
}
