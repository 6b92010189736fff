// Package diag formats CZar diagnostics. A fatal diagnostic is an error
// value; warnings are collected on a Reporter and returned with the result.
package diag

import (
	"fmt"
	"strings"
)

type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "ERROR"
	}
	return "WARNING"
}

type Diagnostic struct {
	Severity Severity
	File     string
	Line     int
	Message  string
	Source   string // offending source line, best effort
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("[CZAR] %s at %s:%d: %s", d.Severity, d.File, d.Line, d.Message)
}

// Format renders the diagnostic followed by the echoed source line.
func (d *Diagnostic) Format() string {
	if strings.TrimSpace(d.Source) == "" {
		return d.Error()
	}
	return d.Error() + "\n    > " + d.Source
}

// Reporter builds diagnostics for one translation unit.
type Reporter struct {
	file     string
	lines    []string
	warnings []*Diagnostic
}

func NewReporter(file string, src []byte) *Reporter {
	return &Reporter{
		file:  file,
		lines: strings.Split(strings.ReplaceAll(string(src), "\r\n", "\n"), "\n"),
	}
}

func (r *Reporter) File() string { return r.file }

func (r *Reporter) sourceLine(line int) string {
	if line < 1 || line > len(r.lines) {
		return ""
	}
	return strings.TrimSpace(r.lines[line-1])
}

// Errorf builds a fatal diagnostic. The caller returns it to stop the pipeline.
func (r *Reporter) Errorf(line int, format string, args ...any) *Diagnostic {
	return &Diagnostic{
		Severity: Error,
		File:     r.file,
		Line:     line,
		Message:  fmt.Sprintf(format, args...),
		Source:   r.sourceLine(line),
	}
}

func (r *Reporter) Warnf(line int, format string, args ...any) {
	r.warnings = append(r.warnings, &Diagnostic{
		Severity: Warning,
		File:     r.file,
		Line:     line,
		Message:  fmt.Sprintf(format, args...),
		Source:   r.sourceLine(line),
	})
}

func (r *Reporter) Warnings() []*Diagnostic {
	out := make([]*Diagnostic, len(r.warnings))
	copy(out, r.warnings)
	return out
}
