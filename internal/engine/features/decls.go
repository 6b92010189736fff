package features

import (
	"sort"
	"strings"

	"czar/internal/engine/ast"
	"czar/internal/engine/pipeline"
)

// varDecl is one declared name: a parameter, a local, or a global.
type varDecl struct {
	Name    string
	Type    string // base type word(s) without `*`, `mut` or qualifiers
	Pointer bool
	Idx     int // index of the name token
	Fn      int // index into the function heads, -1 for globals
}

// BaseType strips the struct/enum keyword and a trailing _t alias suffix
// when the remaining name is tracked.
func (d varDecl) BaseType(pc *pipeline.Context) string {
	t := d.Type
	for _, kw := range []string{"struct ", "union ", "enum "} {
		t = strings.TrimPrefix(t, kw)
	}
	if base, ok := strings.CutSuffix(t, "_t"); ok {
		if _, tracked := pc.Symbols.Type(base); tracked {
			return base
		}
	}
	if base, ok := strings.CutSuffix(t, "_s"); ok {
		if _, tracked := pc.Symbols.Type(base); tracked {
			return base
		}
	}
	return t
}

// walkStatements calls fn with the first token of every statement outside
// aggregate bodies and braced initializers, including `for` init clauses.
func walkStatements(u *ast.Node, from, to int, fn func(i int)) {
	for i := u.First(from); i < to && i < u.Len(); {
		t := u.Text(i)
		if t == "{" && aggregateBrace(u, i) {
			i = skipGroup(u, i)
			continue
		}
		if t == "for" && u.Text(u.Next(i)) == "(" {
			fn(u.Next(u.Next(i)))
		}
		if u.IsIdent(i) && atStatementStart(u, i) {
			fn(i)
		}
		i = u.Next(i)
	}
}

// collectDeclarations records parameters of every function definition and
// every variable declaration, in source order.
func collectDeclarations(pc *pipeline.Context, heads []funcHead) []varDecl {
	u := pc.Unit
	var out []varDecl

	var params []varDecl
	for hi, h := range heads {
		if !h.IsDefinition() {
			continue
		}
		for _, p := range parseParams(pc, h.Open, h.Close) {
			if p.Name == "" || p.FuncPtr {
				continue
			}
			params = append(params, varDecl{
				Name:    p.Name,
				Type:    baseTypeText(u, p),
				Pointer: p.Pointer(),
				Idx:     p.NameIdx,
				Fn:      hi,
			})
		}
	}

	walkStatements(u, 0, u.Len(), func(i int) {
		d, ok := parseDeclaration(pc, i)
		if !ok {
			return
		}
		fn := headIndexAt(heads, i)
		for _, dc := range d.Declarators {
			out = append(out, varDecl{
				Name:    dc.Name,
				Type:    d.TypeName,
				Pointer: dc.Pointer() || dc.Array,
				Idx:     dc.NameIdx,
				Fn:      fn,
			})
		}
	})

	merged := make([]varDecl, 0, len(out)+len(params))
	merged = append(merged, params...)
	merged = append(merged, out...)
	sort.SliceStable(merged, func(a, b int) bool { return merged[a].Idx < merged[b].Idx })
	return merged
}

// lookupDecl returns the latest declaration of name before index at that is
// visible from function fn (its own declarations or globals).
func lookupDecl(decls []varDecl, name string, at, fn int) (varDecl, bool) {
	var found varDecl
	ok := false
	for _, d := range decls {
		if d.Idx >= at {
			break
		}
		if d.Name == name && (d.Fn == fn || d.Fn == -1) {
			found, ok = d, true
		}
	}
	return found, ok
}

func headIndexAt(heads []funcHead, i int) int {
	for hi, h := range heads {
		if h.IsDefinition() && h.BodyOpen < i && i < h.BodyClose {
			return hi
		}
	}
	return -1
}

func baseTypeText(u *ast.Node, p param) string {
	var words []string
	for k := p.Start; k <= p.End && k < u.Len(); k = u.Next(k) {
		t := u.Text(k)
		if k == p.NameIdx || t == "*" || t == "mut" || qualifierKeywords[t] || !u.IsIdent(k) {
			continue
		}
		words = append(words, t)
	}
	return strings.Join(words, " ")
}
