package features

import (
	"strconv"

	"czar/internal/engine/lexer"
	"czar/internal/engine/pipeline"
)

var unreachableMacros = set("UNREACHABLE", "TODO", "FIXME")

func newUnreachable() *pipeline.Feature {
	return &pipeline.Feature{
		Name:        FeatureUnreachable,
		Description: "expand UNREACHABLE, TODO and FIXME into an aborting block",
		Enabled:     true,
		Transform:   transformUnreachable,
	}
}

func transformUnreachable(pc *pipeline.Context) error {
	u := pc.Unit
	heads := findFunctionHeads(pc)
	for i := u.Len() - 1; i >= 0; i-- {
		if !u.Significant(i) || !u.IsIdent(i) || !unreachableMacros[u.Text(i)] {
			continue
		}
		open := u.Next(i)
		if u.Text(open) != "(" {
			continue
		}
		close := u.Match(open)
		if close < 0 {
			continue
		}

		msg := ""
		if arg := u.Next(open); u.TokenKind(arg) == lexer.String && u.Next(arg) == close {
			msg = macroMessage(u.Text(arg))
		}
		block := unreachableBlock(pc, u.Line(i), functionLabel(pc, heads, i), msg)

		end := close
		if semi := u.Next(close); u.Text(semi) == ";" {
			end = semi
		}
		u.EmptyRange(i, end+1)
		u.InsertText(i, lexer.Unknown, block)
	}
	return nil
}

// macroMessage unquotes a string literal argument and re-escapes it for the
// generated fprintf format.
func macroMessage(lit string) string {
	s, err := strconv.Unquote(lit)
	if err != nil {
		// C escapes Go cannot unquote are passed through raw.
		if len(lit) >= 2 {
			return escapePercent(lit[1 : len(lit)-1])
		}
		return ""
	}
	return cString(s)
}

func escapePercent(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' {
			out = append(out, '%')
		}
		out = append(out, s[i])
	}
	return string(out)
}
