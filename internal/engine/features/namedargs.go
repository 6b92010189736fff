package features

import (
	"strings"

	"czar/internal/engine/pipeline"
)

func newNamedArgs() *pipeline.Feature {
	return &pipeline.Feature{
		Name:        FeatureNamedArgs,
		Description: "check and strip name = value call arguments",
		Enabled:     true,
		Transform:   transformNamedArgs,
	}
}

type callArg struct {
	First, Last int
	Label       int // -1 when unlabelled
	Value       int // first significant token of the value
}

func transformNamedArgs(pc *pipeline.Context) error {
	u := pc.Unit
	heads := findFunctionHeads(pc)
	recordFunctions(pc, heads)
	names := make(map[int]bool, len(heads))
	for _, h := range heads {
		names[h.NameIdx] = true
	}

	var labelled [][2]int
	for i := u.First(0); i < u.Len(); i = u.Next(i) {
		if !u.IsIdent(i) || names[i] || statementKeywords[u.Text(i)] {
			continue
		}
		open := u.Next(i)
		if u.Text(open) != "(" {
			continue
		}
		if p := u.Text(u.Prev(i)); p == "." || p == "->" {
			continue
		}
		close := u.Match(open)
		if close < 0 {
			continue
		}

		var args []callArg
		for _, r := range splitArgs(u, open, close) {
			a := callArg{First: r[0], Last: r[1], Label: -1, Value: r[0]}
			if eq := u.Next(r[0]); u.IsIdent(r[0]) && u.Text(eq) == "=" && eq < r[1] {
				a.Label, a.Value = r[0], u.Next(eq)
			}
			args = append(args, a)
		}

		if fn, ok := pc.Symbols.Function(u.Text(i)); ok {
			for n, a := range args {
				if a.Label < 0 {
					continue
				}
				want := "<none>"
				if n < fn.Arity() {
					want = fn.Params[n].Name
				}
				if u.Text(a.Label) != want {
					return pc.Errorf(a.Label, "named argument '%s' does not match parameter '%s' of '%s'", u.Text(a.Label), want, fn.Name)
				}
			}
			for n := 0; n+1 < len(args) && n+1 < fn.Arity(); n++ {
				p, q := fn.Params[n], fn.Params[n+1]
				if p.Name == "self" || args[n].Label >= 0 || args[n+1].Label >= 0 {
					continue
				}
				if pt := paramTypeKey(p.Type); pt != "" && pt == paramTypeKey(q.Type) {
					return pc.Errorf(i, "ambiguous call to '%s': adjacent parameters '%s' and '%s' share type '%s'; label the arguments", fn.Name, p.Name, q.Name, pt)
				}
			}
		}

		for _, a := range args {
			if a.Label >= 0 {
				labelled = append(labelled, [2]int{a.Label, a.Value})
			}
		}
	}

	for _, l := range labelled {
		u.EmptyRange(l[0], l[1])
	}
	return nil
}

// paramTypeKey normalises a parameter type for the same-type comparison.
func paramTypeKey(t string) string {
	var words []string
	for _, w := range strings.Fields(t) {
		if w != "mut" && w != "const" {
			words = append(words, w)
		}
	}
	return strings.Join(words, " ")
}
