package features

import (
	"strings"

	"czar/internal/engine/ast"
	"czar/internal/engine/pipeline"
	"czar/internal/engine/symbols"
)

func newStructs() *pipeline.Feature {
	return &pipeline.Feature{
		Name:        FeatureStructs,
		Description: "rewrite aggregate definitions to tagged typedefs",
		Enabled:     true,
		Transform:   transformStructs,
	}
}

func newStructNames() *pipeline.Feature {
	return &pipeline.Feature{
		Name:         FeatureStructNames,
		Description:  "replace aggregate names used as types with their typedef alias",
		Enabled:      true,
		Transform:    transformStructNames,
		Dependencies: []string{FeatureMethods},
	}
}

var aggregateKinds = map[string]symbols.TypeKind{
	"struct": symbols.StructType,
	"union":  symbols.UnionType,
	"enum":   symbols.EnumType,
}

// aggregateDef is `struct Name { ... };` at statement level.
type aggregateDef struct {
	Keyword int
	Name    int
	Close   int
	Semi    int
	Kind    symbols.TypeKind
}

func findAggregateDefs(u *ast.Node) []aggregateDef {
	var out []aggregateDef
	for i := u.First(0); i < u.Len(); i = u.Next(i) {
		kind, ok := aggregateKinds[u.Text(i)]
		if !ok || !u.IsIdent(i) || !atStatementStart(u, i) {
			continue
		}
		name := u.Next(i)
		open := u.Next(name)
		if !u.IsIdent(name) || u.Text(open) != "{" {
			continue
		}
		close := u.Match(open)
		if close < 0 {
			continue
		}
		semi := u.Next(close)
		if u.Text(semi) != ";" {
			continue
		}
		out = append(out, aggregateDef{Keyword: i, Name: name, Close: close, Semi: semi, Kind: kind})
	}
	return out
}

func transformStructs(pc *pipeline.Context) error {
	u := pc.Unit
	normaliseInitializers(pc)

	registerTypedefAggregates(pc)

	defs := findAggregateDefs(u)
	for _, d := range defs {
		pc.Symbols.AddType(u.Text(d.Name), d.Kind)
	}
	for n := len(defs) - 1; n >= 0; n-- {
		d := defs[n]
		tn, _ := pc.Symbols.Type(u.Text(d.Name))
		u.InsertSource(d.Semi, " "+tn.Alias)
		u.SetText(d.Name, tn.Tag)
		u.InsertSource(d.Keyword, "typedef ")
	}
	return nil
}

// registerTypedefAggregates tracks `typedef struct X_s { ... } X_t;` written
// by hand or kept from a previous translation.
func registerTypedefAggregates(pc *pipeline.Context) {
	u := pc.Unit
	for i := u.First(0); i < u.Len(); i = u.Next(i) {
		if u.Text(i) != "typedef" {
			continue
		}
		kw := u.Next(i)
		kind, ok := aggregateKinds[u.Text(kw)]
		if !ok {
			continue
		}
		tag := u.Text(u.Next(kw))
		suffix := "_s"
		switch kind {
		case symbols.UnionType:
			suffix = "_u"
		case symbols.EnumType:
			suffix = "_e"
		}
		if base, ok := strings.CutSuffix(tag, suffix); ok && base != "" {
			pc.Symbols.AddType(base, kind)
		}
	}
}

// normaliseInitializers rewrites `= Name { ... }` to `= { ... }` and fills
// empty braced initializers with `{0}`.
func normaliseInitializers(pc *pipeline.Context) {
	u := pc.Unit
	for i := u.Len() - 1; i >= 0; i-- {
		if u.Text(i) != "=" {
			continue
		}
		k := u.Next(i)
		if u.IsIdent(k) && u.Text(u.Next(k)) == "{" && isTypeName(pc, u.Text(k)) {
			u.Empty(k)
			u.EmptyTrivia(k)
			k = u.Next(i)
		}
		if u.Text(k) == "{" && u.Next(k) == u.Match(k) {
			u.InsertSource(k+1, "0")
		}
	}
}

// valueFollowers end an expression use of a name: a token after one of
// these means the name is a variable, not a type.
var valueFollowers = set(
	"=", ".", "->", "[", ";", "++", "--", "==", "!=", "+", "-", "/", "%", "&&", "||",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "<<=", ">>=",
)

func transformStructNames(pc *pipeline.Context) error {
	u := pc.Unit
	for i := u.First(0); i < u.Len(); i = u.Next(i) {
		if !u.IsIdent(i) {
			continue
		}
		tn, ok := pc.Symbols.Type(u.Text(i))
		if !ok {
			continue
		}
		prev := u.Text(u.Prev(i))
		if prev == "." || prev == "->" {
			continue
		}
		if kind, ok := aggregateKinds[prev]; ok {
			if kind == tn.Kind {
				u.SetText(i, tn.Tag)
			}
			continue
		}
		if valueFollowers[u.Text(u.Next(i))] {
			continue
		}
		u.SetText(i, tn.Alias)
	}
	return nil
}
