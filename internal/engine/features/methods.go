package features

import (
	"sort"
	"strings"

	"czar/internal/engine/pipeline"
)

// logReceiver is the runtime logging namespace: Log.info(...) calls
// cz_log_info(...).
const logReceiver = "Log"

func newMethods() *pipeline.Feature {
	return &pipeline.Feature{
		Name:         FeatureMethods,
		Description:  "lower Type S.m(...) methods and their call sites to plain functions",
		Enabled:      true,
		Transform:    transformMethods,
		Dependencies: []string{FeatureStructs},
	}
}

type edit struct {
	at    int
	apply func()
}

// applyDescending runs edits from the highest index down so insertions never
// shift a pending site.
func applyDescending(edits []edit) {
	sort.SliceStable(edits, func(a, b int) bool { return edits[a].at > edits[b].at })
	for _, e := range edits {
		e.apply()
	}
}

func transformMethods(pc *pipeline.Context) error {
	u := pc.Unit
	heads := findFunctionHeads(pc)
	receivers := make(map[int]bool)

	var edits []edit
	for _, h := range heads {
		if !h.IsMethod() {
			continue
		}
		s := u.Text(h.StructIdx)
		if !pc.Symbols.IsStruct(s) {
			return pc.Errorf(h.StructIdx, "method '%s.%s' declared on unknown struct '%s'", s, h.Name, s)
		}
		pc.Symbols.AddMethod(s, h.Name)
		receivers[h.StructIdx] = true
		edits = append(edits, edit{at: h.StructIdx, apply: methodHeadEdit(pc, h, s)})
	}

	decls := collectDeclarations(pc, heads)
	for i := u.First(0); i < u.Len(); i = u.Next(i) {
		if !u.IsIdent(i) || receivers[i] {
			continue
		}
		op := u.Next(i)
		if t := u.Text(op); t != "." && t != "->" {
			continue
		}
		m := u.Next(op)
		open := u.Next(m)
		if !u.IsIdent(m) || u.Text(open) != "(" {
			continue
		}
		if p := u.Text(u.Prev(i)); p == "." || p == "->" {
			continue
		}
		x, method := u.Text(i), u.Text(m)

		switch {
		case x == logReceiver && u.Text(op) == ".":
			edits = append(edits, edit{at: i, apply: func() {
				u.SetText(i, "cz_log_"+method)
				u.Empty(op)
				u.Empty(m)
			}})
			continue
		case pc.Symbols.IsStruct(x) && u.Text(op) == ".":
			if !pc.Symbols.HasMethod(x, method) {
				return pc.Errorf(i, "struct '%s' has no method '%s'", x, method)
			}
			edits = append(edits, edit{at: i, apply: func() {
				u.SetText(i, x+"_"+method)
				u.Empty(op)
				u.Empty(m)
			}})
			continue
		}

		target, pointer, err := resolveReceiver(pc, heads, decls, i, method)
		if err != nil {
			return err
		}
		if target == "" {
			continue
		}
		arg := "&" + x
		if pointer || u.Text(op) == "->" {
			arg = x
		}
		if u.Next(open) != u.Match(open) {
			arg += ", "
		}
		edits = append(edits, edit{at: i, apply: func() {
			u.InsertSource(open+1, arg)
			u.SetText(i, target+"_"+method)
			u.Empty(op)
			u.Empty(m)
		}})
	}

	applyDescending(edits)
	return nil
}

// resolveReceiver picks the struct whose method an instance call x.m(...)
// targets. A declared struct type wins; otherwise the single struct
// declaring m is used and several candidates are rejected.
func resolveReceiver(pc *pipeline.Context, heads []funcHead, decls []varDecl, i int, method string) (string, bool, error) {
	x := pc.Unit.Text(i)
	d, found := lookupDecl(decls, x, i, headIndexAt(heads, i))
	if found {
		if base := d.BaseType(pc); pc.Symbols.IsStruct(base) {
			if !pc.Symbols.HasMethod(base, method) {
				return "", false, nil
			}
			return base, d.Pointer, nil
		}
	}
	candidates := pc.Symbols.StructsWithMethod(method)
	switch len(candidates) {
	case 0:
		return "", false, nil
	case 1:
		return candidates[0], found && d.Pointer, nil
	default:
		return "", false, pc.Errorf(i, "ambiguous method call '%s.%s': declared on %s", x, method, strings.Join(candidates, ", "))
	}
}

// methodHeadEdit renames `S.m` to `S_m` and makes sure the first parameter
// is the receiver pointer.
func methodHeadEdit(pc *pipeline.Context, h funcHead, s string) func() {
	u := pc.Unit
	params := parseParams(pc, h.Open, h.Close)
	return func() {
		switch {
		case len(params) == 0 || params[0].Void:
			u.EmptyRange(h.Open+1, h.Close)
			u.InsertSource(h.Open+1, "mut "+s+" * self")
		case !receiverParam(pc, params[0], s):
			u.InsertSource(h.Open+1, "mut "+s+" * self, ")
		}
		u.SetText(h.StructIdx, s+"_"+h.Name)
		u.Empty(h.DotIdx)
		u.Empty(h.NameIdx)
	}
}

// receiverParam reports a first parameter already typed as a pointer to s.
func receiverParam(pc *pipeline.Context, p param, s string) bool {
	if !p.Pointer() || p.TypeIdx < 0 {
		return false
	}
	t := pc.Unit.Text(p.TypeIdx)
	if aggregateKeywords[t] {
		t = pc.Unit.Text(pc.Unit.Next(p.TypeIdx))
	}
	return t == s || t == s+"_t" || t == s+"_s"
}
