package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/pogyomo/mini/pkg/ast"
)

const (
	ansiReset  = "\x1b[0m"
	ansiBold   = "\x1b[1m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiCyan   = "\x1b[36m"
	ansiGray   = "\x1b[90m"
)

func levelColor(l Level) string {
	switch l {
	case Error:
		return ansiRed
	case Warn:
		return ansiYellow
	default:
		return ansiCyan
	}
}

// Render writes a human-readable, caret-annotated rendering of d to w,
// using cache to recover the offending source line(s). Color is emitted
// only when color is true; callers gate that on the output being a
// terminal (see pkg/driver).
func Render(w io.Writer, cache *SourceCache, d Diagnostic, color bool) error {
	name, err := cache.Name(FileID(d.Span.FileID))
	if err != nil {
		name = "<unknown>"
	}

	paint := func(code, s string) string {
		if !color {
			return s
		}
		return code + s + ansiReset
	}

	header := fmt.Sprintf("%s: %s: %s", paint(ansiBold, name), paint(levelColor(d.Level), d.Level.String()), paint(ansiBold, d.What))
	if _, err := fmt.Fprintf(w, "%s\n  --> %s\n", header, d.Span); err != nil {
		return err
	}

	if d.Span.Start.Row == d.Span.End.Row {
		if err := renderSingleLine(w, cache, d.Span, paint); err != nil {
			return err
		}
	} else {
		if err := renderMultiLine(w, cache, d.Span, paint); err != nil {
			return err
		}
	}

	if d.Details != "" {
		if _, err := fmt.Fprintf(w, "  %s %s\n", paint(ansiGray, "note:"), d.Details); err != nil {
			return err
		}
	}
	return nil
}

func renderSingleLine(w io.Writer, cache *SourceCache, sp ast.Span, paint func(string, string) string) error {
	line, err := cache.Line(FileID(sp.FileID), sp.Start.Row)
	if err != nil {
		return err
	}
	gutter := fmt.Sprintf("%d", sp.Start.Row)
	if _, err := fmt.Fprintf(w, "%s | %s\n", gutter, line); err != nil {
		return err
	}

	start := sp.Start.Col
	width := sp.End.Col - sp.Start.Col
	if width < 1 {
		width = 1
	}
	pad := strings.Repeat(" ", len(gutter)+3+max0(start-1))
	carets := strings.Repeat("^", width)
	_, err = fmt.Fprintf(w, "%s%s\n", pad, paint(ansiRed, carets))
	return err
}

func renderMultiLine(w io.Writer, cache *SourceCache, sp ast.Span, paint func(string, string) string) error {
	for row := sp.Start.Row; row <= sp.End.Row; row++ {
		line, err := cache.Line(FileID(sp.FileID), row)
		if err != nil {
			return err
		}
		marker := "|"
		if row == sp.Start.Row {
			marker = paint(ansiRed, "/")
		} else if row == sp.End.Row {
			marker = paint(ansiRed, "\\")
		} else {
			marker = paint(ansiRed, "|")
		}
		if _, err := fmt.Fprintf(w, "%4d %s %s\n", row, marker, line); err != nil {
			return err
		}
	}
	return nil
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
