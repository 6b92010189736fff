package features

import (
	"czar/internal/engine/ast"
	"czar/internal/engine/pipeline"
	"czar/internal/engine/symbols"
)

var assignOps = set("=", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "<<=", ">>=")

func newMutability() *pipeline.Feature {
	return &pipeline.Feature{
		Name:         FeatureMutability,
		Description:  "make parameters and locals const unless declared mut",
		Enabled:      true,
		Transform:    transformMutability,
		Dependencies: []string{FeatureNamedArgs},
	}
}

func transformMutability(pc *pipeline.Context) error {
	u := pc.Unit
	for i := u.First(0); i < u.Len(); i = u.Next(i) {
		if u.IsIdent(i) && u.Text(i) == "const" {
			return pc.Errorf(i, "'const' is not allowed: values are immutable unless declared 'mut'")
		}
	}

	heads := findFunctionHeads(pc)
	var edits []edit
	for _, h := range heads {
		for _, p := range parseParams(pc, h.Open, h.Close) {
			if p.Void || p.FuncPtr || p.TypeIdx < 0 {
				continue
			}
			if p.MutIdx >= 0 && !p.Pointer() {
				return pc.Errorf(p.MutIdx, "parameter '%s' is 'mut' but passed by value; take a pointer ('mut %s *%s') to modify the caller's value", p.Name, p.Type, p.Name)
			}
			edits = append(edits, qualifyEdit(u, p.MutIdx, p.TypeIdx, p.Stars))
		}
	}

	for hi, h := range heads {
		if !h.IsDefinition() {
			continue
		}
		fe, err := checkFunctionBody(pc, heads, hi)
		if err != nil {
			return err
		}
		edits = append(edits, fe...)
	}

	applyDescending(edits)
	return nil
}

// qualifyEdit drops a `mut` marker, or adds const to the type and after the
// last `*` so both the pointer and the pointee are read-only.
func qualifyEdit(u *ast.Node, mutIdx, typeIdx int, stars []int) edit {
	if mutIdx >= 0 {
		return edit{at: mutIdx, apply: func() {
			u.Empty(mutIdx)
			u.EmptyTrivia(mutIdx)
		}}
	}
	return edit{at: typeIdx, apply: func() {
		if len(stars) > 0 {
			last := stars[len(stars)-1]
			u.EmptyTrivia(last)
			u.InsertSource(last+1, " const ")
		}
		u.InsertSource(typeIdx, "const ")
	}}
}

// checkFunctionBody tracks declarations through nested scopes, rejects
// assignments to immutable names and returns the qualifier edits for the
// body's declarations.
func checkFunctionBody(pc *pipeline.Context, heads []funcHead, hi int) ([]edit, error) {
	u := pc.Unit
	h := heads[hi]

	decls := make(map[int]declaration)
	declEq := make(map[int]bool)
	var edits []edit
	walkStatements(u, u.Next(h.BodyOpen), h.BodyClose, func(i int) {
		d, ok := parseDeclaration(pc, i)
		if !ok {
			return
		}
		decls[i] = d
		for _, dc := range d.Declarators {
			if dc.EqIdx >= 0 {
				declEq[dc.EqIdx] = true
			}
		}
		if d.MutIdx >= 0 {
			edits = append(edits, qualifyEdit(u, d.MutIdx, d.TypeStart, nil))
			return
		}
		// Each declarator gets its own pointer const; the type const is shared.
		for n := len(d.Declarators) - 1; n >= 0; n-- {
			if stars := d.Declarators[n].Stars; len(stars) > 0 {
				last := stars[len(stars)-1]
				edits = append(edits, edit{at: last, apply: func() {
					u.EmptyTrivia(last)
					u.InsertSource(last+1, " const ")
				}})
			}
		}
		typeStart := d.TypeStart
		edits = append(edits, edit{at: typeStart, apply: func() { u.InsertSource(typeStart, "const ") }})
	})

	scope := symbols.NewScope(nil)
	for _, p := range parseParams(pc, h.Open, h.Close) {
		if p.Name != "" {
			scope.Declare(p.Name, symbols.Var{Mutable: p.MutIdx >= 0, Pointer: p.Pointer(), Line: u.Line(p.NameIdx)})
		}
	}

	for i := u.Next(h.BodyOpen); i < h.BodyClose; {
		t := u.Text(i)
		switch {
		case t == "{" && aggregateBrace(u, i):
			i = skipGroup(u, i)
			continue
		case t == "{":
			scope = symbols.NewScope(scope)
		case t == "}":
			if scope.Parent() != nil {
				scope = scope.Parent()
			}
		}
		if d, ok := decls[i]; ok {
			for _, dc := range d.Declarators {
				scope.Declare(dc.Name, symbols.Var{Mutable: d.MutIdx >= 0, Pointer: dc.Pointer(), Line: u.Line(dc.NameIdx)})
			}
		}
		if target := assignmentTarget(u, i, declEq); target >= 0 {
			if v, ok := scope.Lookup(u.Text(target)); ok && !v.Mutable {
				return nil, pc.Errorf(target, "cannot assign to immutable variable '%s' (declared on line %d); declare it 'mut'", u.Text(target), v.Line)
			}
		}
		i = u.Next(i)
	}
	return edits, nil
}

// assignmentTarget returns the bare identifier modified by the operator at
// i, or -1. Field, element and dereference targets are not tracked.
func assignmentTarget(u *ast.Node, i int, declEq map[int]bool) int {
	t := u.Text(i)
	switch {
	case assignOps[t]:
		if declEq[i] {
			return -1
		}
		return bareIdent(u, u.Prev(i))
	case t == "++" || t == "--":
		if p := u.Prev(i); u.IsIdent(p) {
			return bareIdent(u, p)
		}
		n := u.Next(i)
		if !u.IsIdent(n) {
			return -1
		}
		switch u.Text(u.Next(n)) {
		case ".", "->", "[", "(":
			return -1
		}
		return n
	}
	return -1
}

func bareIdent(u *ast.Node, i int) int {
	if i < 0 || !u.IsIdent(i) || statementKeywords[u.Text(i)] {
		return -1
	}
	switch u.Text(u.Prev(i)) {
	case ".", "->", "*":
		return -1
	}
	return i
}
