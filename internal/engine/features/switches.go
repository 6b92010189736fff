package features

import (
	"fmt"

	"czar/internal/engine/ast"
	"czar/internal/engine/lexer"
	"czar/internal/engine/pipeline"
)

var terminatorKeywords = set("break", "continue", "return", "goto", "UNREACHABLE", "TODO", "FIXME")

func newSwitchValidate() *pipeline.Feature {
	return &pipeline.Feature{
		Name:        FeatureSwitchValidate,
		Description: "require explicit control flow at the end of every case",
		Enabled:     true,
		Validate:    validateSwitches,
	}
}

func newSwitch() *pipeline.Feature {
	return &pipeline.Feature{
		Name:        FeatureSwitch,
		Description: "rewrite continue-as-fallthrough and insert missing defaults",
		Enabled:     true,
		Transform:   transformSwitches,
	}
}

type switchStmt struct {
	Keyword   int
	Open      int // subject parens
	Close     int
	BodyOpen  int
	BodyClose int
	Labels    []caseLabel
}

func (s switchStmt) HasDefault() bool {
	for _, l := range s.Labels {
		if l.Default {
			return true
		}
	}
	return false
}

type caseLabel struct {
	Idx     int // `case` or `default`
	Colon   int
	Default bool
}

// construct is the extent of a loop or switch statement.
type construct struct {
	Keyword string
	Start   int
	End     int
}

// constructs finds every loop and switch statement with its full extent.
func constructs(u *ast.Node) []construct {
	var out []construct
	for i := u.First(0); i < u.Len(); i = u.Next(i) {
		t := u.Text(i)
		if !u.IsIdent(i) || (!loopKeywords[t] && t != "switch") {
			continue
		}
		body := u.Next(i)
		if t != "do" {
			if u.Text(body) != "(" {
				continue
			}
			close := u.Match(body)
			if close < 0 {
				continue
			}
			body = u.Next(close)
			if t == "while" && u.Text(body) == ";" {
				continue // tail of do-while
			}
		}
		end := statementEnd(u, body)
		out = append(out, construct{Keyword: t, Start: i, End: end})
	}
	return out
}

// statementEnd returns the last token of the statement starting at i.
func statementEnd(u *ast.Node, i int) int {
	if u.Text(i) == "{" {
		if m := u.Match(i); m >= 0 {
			return m
		}
		return u.Len() - 1
	}
	for k := i; k < u.Len(); {
		switch u.Text(k) {
		case ";":
			return k
		case "(", "[", "{":
			m := u.Match(k)
			if m < 0 {
				return u.Len() - 1
			}
			if u.Text(k) == "{" {
				return m
			}
			k = u.Next(m)
		default:
			k = u.Next(k)
		}
	}
	return u.Len() - 1
}

func findSwitches(u *ast.Node) []switchStmt {
	var out []switchStmt
	for i := u.First(0); i < u.Len(); i = u.Next(i) {
		if !u.IsIdent(i) || u.Text(i) != "switch" {
			continue
		}
		s := switchStmt{Keyword: i, Open: u.Next(i)}
		if u.Text(s.Open) != "(" {
			continue
		}
		if s.Close = u.Match(s.Open); s.Close < 0 {
			continue
		}
		s.BodyOpen = u.Next(s.Close)
		if u.Text(s.BodyOpen) != "{" {
			continue
		}
		if s.BodyClose = u.Match(s.BodyOpen); s.BodyClose < 0 {
			continue
		}
		s.Labels = caseLabels(u, s.BodyOpen, s.BodyClose)
		out = append(out, s)
	}
	return out
}

// caseLabels lists the labels directly inside a switch body, skipping
// nested blocks and nested switches.
func caseLabels(u *ast.Node, open, close int) []caseLabel {
	var out []caseLabel
	for k := u.Next(open); k < close; {
		t := u.Text(k)
		switch {
		case t == "{":
			k = skipGroup(u, k)
			continue
		case u.IsIdent(k) && (t == "case" || t == "default"):
			colon := k
			for colon < close && u.Text(colon) != ":" {
				colon = u.Next(colon)
			}
			out = append(out, caseLabel{Idx: k, Colon: colon, Default: t == "default"})
			k = u.Next(colon)
			continue
		}
		k = u.Next(k)
	}
	return out
}

// labelBody returns the token range after label n up to the next label or
// the closing brace.
func labelBody(s switchStmt, n int) (int, int) {
	from := s.Labels[n].Colon + 1
	to := s.BodyClose
	if n+1 < len(s.Labels) {
		to = s.Labels[n+1].Idx
	}
	return from, to
}

func validateSwitches(pc *pipeline.Context) error {
	u := pc.Unit
	nested := constructs(u)
	for _, s := range findSwitches(u) {
		for n, l := range s.Labels {
			from, to := labelBody(s, n)
			if u.First(from) >= to {
				continue // empty case falls through
			}
			if !hasTerminator(u, from, to, nested) {
				what := "case"
				if l.Default {
					what = "default"
				}
				return pc.Errorf(l.Idx, "%s body must end with explicit control flow (break, continue, return, goto or UNREACHABLE)", what)
			}
		}
	}
	return nil
}

// hasTerminator scans [from, to) for a control-flow keyword. break and
// continue only count when no loop or switch inside the range owns them.
func hasTerminator(u *ast.Node, from, to int, nested []construct) bool {
	for k := u.First(from); k < to; k = u.Next(k) {
		t := u.Text(k)
		if !u.IsIdent(k) || !terminatorKeywords[t] {
			continue
		}
		if t != "break" && t != "continue" {
			return true
		}
		owned := false
		for _, c := range nested {
			if c.Start >= from && c.Start < to && c.Start < k && k <= c.End {
				owned = true
				break
			}
		}
		if !owned {
			return true
		}
	}
	return false
}

func transformSwitches(pc *pipeline.Context) error {
	u := pc.Unit
	nested := constructs(u)
	heads := findFunctionHeads(pc)

	for i := u.First(0); i < u.Len(); i = u.Next(i) {
		if !u.IsIdent(i) || u.Text(i) != "continue" {
			continue
		}
		inSwitch, inLoop := false, false
		for _, c := range nested {
			if c.Start < i && i <= c.End {
				if c.Keyword == "switch" {
					inSwitch = true
				} else {
					inLoop = true
				}
			}
		}
		if !inSwitch || inLoop {
			continue
		}
		if pc.Options.GNUExtensions {
			u.SetText(i, "__attribute__((fallthrough))")
		} else {
			u.SetText(i, "/* fallthrough */")
			u.Token(i).Kind = lexer.Comment
		}
	}

	switches := findSwitches(u)
	for n := len(switches) - 1; n >= 0; n-- {
		s := switches[n]
		if s.HasDefault() {
			continue
		}
		block := unreachableBlock(pc, u.Line(s.Keyword), functionLabel(pc, heads, s.Keyword), "")
		at := u.Prev(s.BodyClose) + 1
		u.InsertText(at, lexer.Unknown, " default: "+block)
	}
	return nil
}

// unreachableBlock is the inline abort used by UNREACHABLE and by inserted
// switch defaults.
func unreachableBlock(pc *pipeline.Context, line int, fn, msg string) string {
	return fmt.Sprintf(`{ fprintf(stderr, "%s:%d: %s: Unreachable code reached: %s\n"); abort(); }`,
		cString(pc.File), line, cString(fn), msg)
}
