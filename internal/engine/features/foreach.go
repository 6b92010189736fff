package features

import (
	"fmt"
	"strings"

	"czar/internal/engine/ast"
	"czar/internal/engine/lexer"
	"czar/internal/engine/pipeline"
)

func newForeach() *pipeline.Feature {
	return &pipeline.Feature{
		Name:        FeatureForeach,
		Description: "lower for (T v : a..b) and for (T i, T v : arr) loops",
		Enabled:     true,
		Transform:   transformForeach,
	}
}

// loopVar is one `[mut] Type name` binding in a foreach header.
type loopVar struct {
	Type string
	Name string
}

func parseLoopVar(u *ast.Node, from, to int) (loopVar, bool) {
	var words []string
	for k := u.First(from); k < to; k = u.Next(k) {
		if t := u.Text(k); t != "mut" {
			words = append(words, t)
		}
	}
	if len(words) == 0 {
		return loopVar{}, false
	}
	name := words[len(words)-1]
	return loopVar{Type: strings.Join(words[:len(words)-1], " "), Name: name}, true
}

func transformForeach(pc *pipeline.Context) error {
	u := pc.Unit
	for i := u.Len() - 1; i >= 0; i-- {
		if !u.Significant(i) || u.Text(i) != "for" || !u.IsIdent(i) {
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
		colon := -1
		for k := u.Next(open); k < close; k = skipGroup(u, k) {
			if t := u.Text(k); t == ";" {
				break
			} else if t == ":" {
				colon = k
				break
			}
		}
		if colon < 0 {
			continue
		}

		comma := -1
		for k := u.Next(open); k < colon; k = skipGroup(u, k) {
			if u.Text(k) == "," {
				comma = k
				break
			}
		}
		if comma < 0 {
			rewriteRangeLoop(u, open, colon, close)
		} else {
			rewriteArrayLoop(u, open, comma, colon, close)
		}
	}
	return nil
}

// rewriteRangeLoop lowers `(T v : start..end)` to an inclusive counting loop.
// The lexer splits `0..10` as `0` `.` `.10`, so both spellings are accepted.
func rewriteRangeLoop(u *ast.Node, open, colon, close int) {
	v, ok := parseLoopVar(u, u.Next(open), colon)
	if !ok || v.Type == "" {
		return
	}
	dot := -1
	for k := u.Next(colon); k < close; k = skipGroup(u, k) {
		if u.Text(k) == "." {
			dot = k
			break
		}
	}
	if dot < 0 {
		return
	}
	start := strings.TrimSpace(u.Slice(colon+1, dot))
	var end string
	switch next := u.Next(dot); {
	case u.Text(next) == ".":
		end = strings.TrimSpace(u.Slice(next+1, close))
	case u.TokenKind(next) == lexer.Number && strings.HasPrefix(u.Text(next), "."):
		end = strings.TrimPrefix(u.Text(next), ".") + u.Slice(next+1, close)
		end = strings.TrimSpace(end)
	default:
		return
	}
	if start == "" || end == "" {
		return
	}
	u.EmptyRange(open+1, close)
	u.InsertSource(open+1, fmt.Sprintf("mut %s %s = %s; %s <= %s; %s++", v.Type, v.Name, start, v.Name, end, v.Name))
}

// rewriteArrayLoop lowers `(T i, T v : arr)` to an index loop and binds v as
// the first statement of the braced body.
func rewriteArrayLoop(u *ast.Node, open, comma, colon, close int) {
	idx, ok := parseLoopVar(u, u.Next(open), comma)
	if !ok {
		return
	}
	val, ok := parseLoopVar(u, u.Next(comma), colon)
	if !ok || val.Type == "" {
		return
	}
	body := u.Next(close)
	if u.Text(body) != "{" {
		return
	}
	arr := strings.TrimSpace(u.Slice(colon+1, close))
	if arr == "" {
		return
	}
	if idx.Name == "_" {
		idx.Name = "_cz_idx"
	}
	if idx.Type == "" {
		idx.Type = "usize"
	}

	u.InsertSource(body+1, fmt.Sprintf(" %s %s = %s[%s];", val.Type, val.Name, arr, idx.Name))
	u.EmptyRange(open+1, close)
	u.InsertSource(open+1, fmt.Sprintf("mut %s %s = 0; %s < sizeof(%s) / sizeof((%s)[0]); %s++",
		idx.Type, idx.Name, idx.Name, arr, arr, idx.Name))
}
