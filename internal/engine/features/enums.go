package features

import (
	"strings"

	"czar/internal/engine/ast"
	"czar/internal/engine/pipeline"
	"czar/internal/engine/symbols"
)

func newEnumValidate() *pipeline.Feature {
	return &pipeline.Feature{
		Name:        FeatureEnumValidate,
		Description: "check enum member naming and switch exhaustiveness",
		Enabled:     true,
		Validate:    validateEnums,
	}
}

func newEnums() *pipeline.Feature {
	return &pipeline.Feature{
		Name:         FeatureEnums,
		Description:  "prefix enum members and flatten Enum.MEMBER references",
		Enabled:      true,
		Transform:    transformEnums,
		Dependencies: []string{FeatureEnumValidate},
	}
}

type enumBody struct {
	Keyword int
	Name    string // without any _e tag suffix, "" when anonymous
	Open    int
	Close   int
	Members []int
}

func findEnumBodies(u *ast.Node) []enumBody {
	var out []enumBody
	for i := u.First(0); i < u.Len(); i = u.Next(i) {
		if u.Text(i) != "enum" || !u.IsIdent(i) {
			continue
		}
		e := enumBody{Keyword: i}
		open := u.Next(i)
		if u.IsIdent(open) {
			e.Name = strings.TrimSuffix(u.Text(open), "_e")
			open = u.Next(open)
		}
		if u.Text(open) != "{" {
			continue
		}
		e.Open, e.Close = open, u.Match(open)
		if e.Close < 0 {
			continue
		}
		for k := u.Next(open); k < e.Close; {
			if u.IsIdent(k) {
				e.Members = append(e.Members, k)
			}
			k = skipInitializer(u, k)
			if k >= e.Close {
				break
			}
			k = u.Next(k)
		}
		out = append(out, e)
	}
	return out
}

func validateEnums(pc *pipeline.Context) error {
	u := pc.Unit
	inBody := make(map[int]bool)
	for _, e := range findEnumBodies(u) {
		names := make([]string, 0, len(e.Members))
		for _, m := range e.Members {
			if !isUpperIdent(u.Text(m)) {
				return pc.Errorf(m, "enum member '%s' must be ALL_UPPERCASE", u.Text(m))
			}
			names = append(names, u.Text(m))
			inBody[m] = true
		}
		pc.Symbols.AddEnum(e.Name, names, u.Line(e.Keyword))
	}
	if err := checkAmbiguousMembers(pc, inBody); err != nil {
		return err
	}

	heads := findFunctionHeads(pc)
	decls := collectDeclarations(pc, heads)
	for _, s := range findSwitches(u) {
		if err := checkSwitchSubject(pc, s, heads, decls); err != nil {
			return err
		}
	}
	return nil
}

// checkAmbiguousMembers rejects an unscoped reference to a member name that
// more than one named enum declares.
func checkAmbiguousMembers(pc *pipeline.Context, inBody map[int]bool) error {
	u := pc.Unit
	for i := u.First(0); i < u.Len(); i = u.Next(i) {
		if !u.IsIdent(i) || inBody[i] {
			continue
		}
		if p := u.Text(u.Prev(i)); p == "." || p == "->" {
			continue
		}
		owners := pc.Symbols.EnumsWithMember(u.Text(i))
		if len(owners) < 2 {
			continue
		}
		scoped := make([]string, len(owners))
		for k, e := range owners {
			scoped[k] = e.Name + "." + u.Text(i)
		}
		return pc.Errorf(i, "ambiguous enum member '%s': use %s", u.Text(i), strings.Join(scoped, " or "))
	}
	return nil
}

// switchEnum returns the enum type of a switch subject that is a single
// declared identifier.
func switchEnum(pc *pipeline.Context, s switchStmt, heads []funcHead, decls []varDecl) (*symbols.Enum, bool) {
	u := pc.Unit
	subj := u.Next(s.Open)
	if !u.IsIdent(subj) || u.Next(subj) != s.Close {
		return nil, false
	}
	d, ok := lookupDecl(decls, u.Text(subj), subj, headIndexAt(heads, subj))
	if !ok || d.Pointer {
		return nil, false
	}
	name := strings.TrimPrefix(d.Type, "enum ")
	if e, ok := pc.Symbols.Enum(name); ok {
		return e, true
	}
	for _, suffix := range []string{"_t", "_e"} {
		if base, ok := strings.CutSuffix(name, suffix); ok {
			if e, ok := pc.Symbols.Enum(base); ok {
				return e, true
			}
		}
	}
	return nil, false
}

func checkSwitchSubject(pc *pipeline.Context, s switchStmt, heads []funcHead, decls []varDecl) error {
	u := pc.Unit
	e, isEnum := switchEnum(pc, s, heads, decls)
	if !isEnum {
		if !s.HasDefault() {
			pc.Warnf(s.Keyword, "switch without default case; an aborting default will be inserted")
		}
		return nil
	}

	covered := make(map[string]bool, len(e.Members))
	for _, l := range s.Labels {
		if l.Default {
			continue
		}
		first := u.Next(l.Idx)
		switch {
		case u.Text(u.Next(first)) == "." && u.Text(first) == e.Name:
			covered[u.Text(u.Next(u.Next(first)))] = true
		case u.IsIdent(first):
			m, ok := e.Member(u.Text(first))
			if !ok {
				continue
			}
			if m.Original == u.Text(first) && m.Original != m.Prefixed {
				pc.Warnf(first, "unscoped enum constant '%s' in case label; use '%s.%s'", m.Original, e.Name, m.Original)
			}
			covered[m.Original] = true
		}
	}

	var missing []string
	for _, m := range e.Members {
		if !covered[m.Original] {
			missing = append(missing, m.Original)
		}
	}
	if len(missing) > 0 {
		return pc.Errorf(s.Keyword, "non-exhaustive switch on enum %s: missing %s", e.Name, strings.Join(missing, ", "))
	}
	if !s.HasDefault() {
		return pc.Errorf(s.Keyword, "switch on enum %s has no default case", e.Name)
	}
	return nil
}

func transformEnums(pc *pipeline.Context) error {
	u := pc.Unit
	bodies := findEnumBodies(u)

	inBody := make(map[int]bool)
	for _, b := range bodies {
		e, ok := pc.Symbols.Enum(b.Name)
		if b.Name == "" || !ok {
			continue
		}
		for _, m := range b.Members {
			inBody[m] = true
			if em, ok := e.Member(u.Text(m)); ok {
				u.SetText(m, em.Prefixed)
			}
		}
	}

	for i := u.First(0); i < u.Len(); i = u.Next(i) {
		if !u.IsIdent(i) || inBody[i] {
			continue
		}
		if p := u.Text(u.Prev(i)); p == "." || p == "->" {
			continue
		}
		text := u.Text(i)
		if e, ok := pc.Symbols.Enum(text); ok && u.Text(u.Next(i)) == "." {
			dot := u.Next(i)
			m := u.Next(dot)
			if em, ok := e.Member(u.Text(m)); ok {
				u.Empty(i)
				u.Empty(dot)
				u.SetText(m, em.Prefixed)
			}
			continue
		}
		if owners := pc.Symbols.EnumsWithMember(text); len(owners) == 1 {
			m, _ := owners[0].Member(text)
			u.SetText(i, m.Prefixed)
		}
	}
	return nil
}
