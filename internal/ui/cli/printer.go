package cli

import (
	"fmt"
	"io"

	coreapp "czar/internal/core/app"
	"czar/internal/engine/diag"
	"czar/internal/engine/translator"

	"github.com/charmbracelet/lipgloss"
)

// printer writes build outcomes in the diagnostic format: warnings to out,
// errors to errOut. Prefixes are coloured only when the writer is a terminal.
type printer struct {
	out, errOut io.Writer
	warnStyle   lipgloss.Style
	errStyle    lipgloss.Style
}

func newPrinter(out, errOut io.Writer) *printer {
	return &printer{
		out:       out,
		errOut:    errOut,
		warnStyle: lipgloss.NewRenderer(out).NewStyle().Foreground(lipgloss.Color("#FBBF24")).Bold(true),
		errStyle:  lipgloss.NewRenderer(errOut).NewStyle().Foreground(lipgloss.Color("#F87171")).Bold(true),
	}
}

func (p *printer) Summary(sum coreapp.Summary) {
	for _, r := range sum.Results {
		p.Result(r)
	}
}

func (p *printer) Result(r coreapp.BuildResult) {
	for _, w := range r.Warnings {
		fmt.Fprintln(p.out, p.render(w, p.warnStyle))
	}
	if r.Err != nil {
		if d, ok := translator.Diagnostic(r.Err); ok {
			fmt.Fprintln(p.errOut, p.render(d, p.errStyle))
		} else {
			fmt.Fprintf(p.errOut, "%s: %v\n", p.errStyle.Render("[CZAR] ERROR"), r.Err)
		}
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", r.Header, r.Source)
}

func (p *printer) render(d *diag.Diagnostic, style lipgloss.Style) string {
	s := fmt.Sprintf("%s at %s:%d: %s", style.Render("[CZAR] "+d.Severity.String()), d.File, d.Line, d.Message)
	if d.Source != "" {
		s += "\n    > " + d.Source
	}
	return s
}
