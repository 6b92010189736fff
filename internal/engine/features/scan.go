package features

import (
	"strings"

	"czar/internal/engine/ast"
	"czar/internal/engine/lexer"
	"czar/internal/engine/pipeline"
)

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

var (
	cTypeKeywords = set(
		"void", "char", "short", "int", "long", "float", "double", "signed", "unsigned",
		"_Bool", "bool", "size_t", "ptrdiff_t", "intptr_t", "uintptr_t",
		"int8_t", "int16_t", "int32_t", "int64_t", "uint8_t", "uint16_t", "uint32_t", "uint64_t",
		"FILE",
	)
	qualifierKeywords = set("static", "extern", "volatile", "register", "inline", "auto", "restrict", "_Thread_local")
	aggregateKeywords = set("struct", "union", "enum")
	// statementKeywords never name a function, variable or type.
	statementKeywords = set(
		"if", "else", "for", "while", "do", "switch", "case", "default", "return", "break",
		"continue", "goto", "sizeof", "typedef", "struct", "union", "enum", "const", "mut",
		"__attribute__", "_Alignof", "_Static_assert", "static_assert", "defined",
	)
	loopKeywords = set("for", "while", "do")
)

// czTypes maps CZar short type names to their C spelling.
var czTypes = map[string]string{
	"u8": "uint8_t", "u16": "uint16_t", "u32": "uint32_t", "u64": "uint64_t",
	"i8": "int8_t", "i16": "int16_t", "i32": "int32_t", "i64": "int64_t",
	"f32": "float", "f64": "double",
	"usize": "size_t", "isize": "ptrdiff_t",
	"bool": "bool",
}

// isTypeName reports whether s names a type at this point of the pipeline:
// a C or CZar keyword type, a tracked aggregate or typedef, or a *_t name.
func isTypeName(pc *pipeline.Context, s string) bool {
	if s == "" {
		return false
	}
	if cTypeKeywords[s] || czTypes[s] != "" || pc.Symbols.KnownType(s) {
		return true
	}
	return len(s) > 2 && strings.HasSuffix(s, "_t")
}

func isUpperIdent(s string) bool {
	if s == "" || s[0] < 'A' || s[0] > 'Z' {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') && c != '_' {
			return false
		}
	}
	return true
}

// boundary reports whether the token at i ends the statement before it.
func boundary(u *ast.Node, i int) bool {
	if i < 0 {
		return true
	}
	if u.TokenKind(i) == lexer.Preprocessor {
		return true
	}
	switch u.Text(i) {
	case ";", "{", "}":
		return true
	}
	return false
}

// atStatementStart reports whether the significant token at i begins a
// statement: it follows a boundary or a label colon.
func atStatementStart(u *ast.Node, i int) bool {
	p := u.Prev(i)
	return boundary(u, p) || u.Text(p) == ":"
}

// statementStart walks back from i to the first significant token of the
// statement containing it, jumping over bracketed groups.
func statementStart(u *ast.Node, i int) int {
	start := i
	for j := u.Prev(i); j >= 0; j = u.Prev(j) {
		if boundary(u, j) {
			break
		}
		if t := u.Text(j); t == ")" || t == "]" {
			m := u.Match(j)
			if m < 0 {
				break
			}
			j = m
		} else if t == "(" || t == "[" {
			break
		}
		start = j
	}
	return start
}

// skipGroup returns the index of the next significant token after the
// bracketed group opening at i, or after i itself when it is not an opener.
func skipGroup(u *ast.Node, i int) int {
	switch u.Text(i) {
	case "(", "[", "{":
		if m := u.Match(i); m >= 0 {
			return u.Next(m)
		}
		return u.Len()
	}
	return u.Next(i)
}

// skipAttributes skips any __attribute__((...)) runs starting at i.
func skipAttributes(u *ast.Node, i int) int {
	for u.Text(i) == "__attribute__" && u.Text(u.Next(i)) == "(" {
		i = skipGroup(u, u.Next(i))
	}
	return i
}

type declarator struct {
	Name    string
	NameIdx int
	Stars   []int
	Array   bool
	EqIdx   int // -1 without initializer
}

func (d declarator) Pointer() bool { return len(d.Stars) > 0 }

// declaration is a parsed `[mut] [qualifiers] Type declarator, ...;` run.
type declaration struct {
	Start       int
	MutIdx      int
	TypeStart   int
	TypeEnd     int
	TypeName    string
	Declarators []declarator
	End         int
}

// parseDeclaration parses a variable declaration beginning at the
// significant token i and ending at the first `;` at its own depth.
func parseDeclaration(pc *pipeline.Context, i int) (declaration, bool) {
	u := pc.Unit
	d := declaration{Start: i, MutIdx: -1}
	j := i
	for {
		t := u.Text(j)
		if t == "mut" && d.MutIdx < 0 {
			d.MutIdx = j
		} else if !qualifierKeywords[t] {
			break
		}
		j = u.Next(j)
	}

	d.TypeStart = j
	switch t := u.Text(j); {
	case aggregateKeywords[t]:
		k := u.Next(j)
		if !u.IsIdent(k) || u.Text(u.Next(k)) == "{" {
			return d, false
		}
		d.TypeName = t + " " + u.Text(k)
		d.TypeEnd = k
	case u.IsIdent(j) && isTypeName(pc, t):
		d.TypeName = t
		d.TypeEnd = j
		for k := u.Next(j); u.IsIdent(k) && cTypeKeywords[u.Text(k)] && u.Text(k) != "void"; k = u.Next(k) {
			d.TypeName += " " + u.Text(k)
			d.TypeEnd = k
		}
	default:
		return d, false
	}

	j = u.Next(d.TypeEnd)
	for {
		var dc declarator
		dc.EqIdx = -1
		for u.Text(j) == "*" || qualifierKeywords[u.Text(j)] {
			if u.Text(j) == "*" {
				dc.Stars = append(dc.Stars, j)
			}
			j = u.Next(j)
		}
		if !u.IsIdent(j) || statementKeywords[u.Text(j)] {
			return d, false
		}
		dc.Name, dc.NameIdx = u.Text(j), j
		k := u.Next(j)
		for u.Text(k) == "[" {
			dc.Array = true
			k = skipGroup(u, k)
		}
		if u.Text(k) == "=" {
			dc.EqIdx = k
			k = skipInitializer(u, u.Next(k))
		}
		d.Declarators = append(d.Declarators, dc)
		switch u.Text(k) {
		case ",":
			j = u.Next(k)
		case ";":
			d.End = k
			return d, true
		default:
			return d, false
		}
	}
}

// skipInitializer returns the index of the `,` or `;` that ends the
// initializer starting at i.
func skipInitializer(u *ast.Node, i int) int {
	for i < u.Len() {
		switch u.Text(i) {
		case ",", ";":
			return i
		case "(", "[", "{":
			i = skipGroup(u, i)
		case ")", "]", "}":
			return i
		default:
			i = u.Next(i)
		}
	}
	return i
}

type param struct {
	Start, End int // significant token range [Start, End]
	Name       string
	NameIdx    int
	MutIdx     int
	TypeIdx    int // first type token
	Stars      []int
	Type       string
	Void       bool
	FuncPtr    bool
}

func (p param) Pointer() bool { return len(p.Stars) > 0 }

// parseParams splits the parameter list between the parens at open and
// close on top-level commas.
func parseParams(pc *pipeline.Context, open, close int) []param {
	u := pc.Unit
	var out []param
	start := u.Next(open)
	if start >= close {
		return nil
	}
	for start < close {
		end := start
		k := start
		for k < close && u.Text(k) != "," {
			end = k
			k = skipGroup(u, k)
			if k > close {
				k = close
			}
		}
		out = append(out, describeParam(pc, start, end))
		if k >= close {
			break
		}
		start = u.Next(k)
	}
	return out
}

func describeParam(pc *pipeline.Context, start, end int) param {
	u := pc.Unit
	p := param{Start: start, End: end, NameIdx: -1, MutIdx: -1, TypeIdx: -1}
	if start == end && u.Text(start) == "void" {
		p.Void = true
		return p
	}

	var idents []int
	var typeParts []string
	for k := start; k <= end && k < u.Len(); {
		t := u.Text(k)
		switch {
		case t == "(" || t == "[":
			if t == "(" {
				p.FuncPtr = true
			}
			k = skipGroup(u, k)
			continue
		case t == "mut":
			p.MutIdx = k
		case t == "*":
			p.Stars = append(p.Stars, k)
			typeParts = append(typeParts, t)
		case u.IsIdent(k):
			if p.TypeIdx < 0 && !qualifierKeywords[t] {
				p.TypeIdx = k
			}
			idents = append(idents, k)
			typeParts = append(typeParts, t)
		}
		k = u.Next(k)
	}

	// The last identifier names the parameter unless it is part of the type.
	words := len(idents)
	if words >= 2 && aggregateKeywords[u.Text(idents[0])] {
		words--
	}
	if words >= 2 {
		last := idents[len(idents)-1]
		if lt := u.Text(last); !cTypeKeywords[lt] && czTypes[lt] == "" {
			p.Name, p.NameIdx = lt, last
			for k := len(typeParts) - 1; k >= 0; k-- {
				if typeParts[k] == lt {
					typeParts = append(typeParts[:k], typeParts[k+1:]...)
					break
				}
			}
		}
	}
	p.Type = strings.Join(typeParts, " ")
	return p
}

// funcHead is a top-level function declaration or definition.
type funcHead struct {
	Start     int // first significant token of the declaration
	Name      string
	NameIdx   int
	StructIdx int // receiver struct for `Type S.m(...)`, else -1
	DotIdx    int
	Open      int
	Close     int
	BodyOpen  int // -1 for prototypes
	BodyClose int
	Return    []int // significant return-type tokens
}

func (h funcHead) IsMethod() bool { return h.StructIdx >= 0 }

func (h funcHead) IsDefinition() bool { return h.BodyOpen >= 0 }

// ReturnsVoid reports a plain `void` return type.
func (h funcHead) ReturnsVoid(u *ast.Node) bool {
	return len(h.Return) == 1 && u.Text(h.Return[0]) == "void"
}

// findFunctionHeads scans the top level of the unit for function
// declarations and definitions, including `Type S.m(...)` methods.
func findFunctionHeads(pc *pipeline.Context) []funcHead {
	u := pc.Unit
	var heads []funcHead
	stmt := -1
	for i := u.First(0); i < u.Len(); {
		if u.TokenKind(i) == lexer.Preprocessor {
			stmt = -1
			i = u.Next(i)
			continue
		}
		if stmt < 0 {
			stmt = i
		}
		t := u.Text(i)
		switch {
		case t == ";":
			stmt = -1
			i = u.Next(i)
			continue
		case t == "{":
			i = skipGroup(u, i)
			continue
		case t == "(" || t == "[":
			i = skipGroup(u, i)
			continue
		case t == "=":
			i = skipInitializer(u, u.Next(i))
			continue
		case t == "__attribute__":
			i = skipAttributes(u, i)
			continue
		}

		if u.IsIdent(i) && !statementKeywords[t] && u.Text(stmt) != "typedef" {
			h, ok := matchHead(pc, stmt, i)
			if ok {
				heads = append(heads, h)
				if h.IsDefinition() {
					i = u.Next(h.BodyClose)
					stmt = -1
				} else {
					i = u.Next(h.Close)
				}
				continue
			}
		}
		i = u.Next(i)
	}
	return heads
}

func matchHead(pc *pipeline.Context, stmt, i int) (funcHead, bool) {
	u := pc.Unit
	h := funcHead{Start: stmt, NameIdx: i, StructIdx: -1, DotIdx: -1, BodyOpen: -1, BodyClose: -1}
	next := u.Next(i)
	if u.Text(next) == "." {
		m := u.Next(next)
		if !u.IsIdent(m) || u.Text(u.Next(m)) != "(" {
			return h, false
		}
		h.StructIdx, h.DotIdx, h.NameIdx = i, next, m
		next = u.Next(m)
	} else if u.Text(next) != "(" {
		return h, false
	}
	if isTypeName(pc, u.Text(h.NameIdx)) && !h.IsMethod() {
		return h, false
	}

	first := h.NameIdx
	if h.IsMethod() {
		first = h.StructIdx
	}
	prev := u.Prev(first)
	if prev < stmt || !(u.IsIdent(prev) || u.Text(prev) == "*" || u.Text(prev) == ")") {
		return h, false
	}

	h.Name = u.Text(h.NameIdx)
	h.Open = next
	h.Close = u.Match(next)
	if h.Close < 0 {
		return h, false
	}
	for k := skipAttributes(u, stmt); k < first; {
		t := u.Text(k)
		switch {
		case t == "__attribute__":
			k = skipAttributes(u, k)
			continue
		case qualifierKeywords[t] || t == "mut":
		default:
			h.Return = append(h.Return, k)
		}
		k = u.Next(k)
	}
	if len(h.Return) == 0 {
		return h, false
	}
	if body := u.Next(h.Close); u.Text(body) == "{" {
		h.BodyOpen = body
		h.BodyClose = u.Match(body)
		if h.BodyClose < 0 {
			return h, false
		}
	}
	return h, true
}

// enclosingFunction returns the definition whose body contains i.
func enclosingFunction(heads []funcHead, i int) (funcHead, bool) {
	for _, h := range heads {
		if h.IsDefinition() && h.BodyOpen < i && i < h.BodyClose {
			return h, true
		}
	}
	return funcHead{}, false
}

// functionLabel names the function enclosing i for runtime messages.
func functionLabel(pc *pipeline.Context, heads []funcHead, i int) string {
	h, ok := enclosingFunction(heads, i)
	if !ok {
		return "<global>"
	}
	if h.IsMethod() {
		return pc.Unit.Text(h.StructIdx) + "." + h.Name
	}
	return h.Name
}

// aggregateBrace reports whether the `{` at i opens a struct, union or enum
// body, or a braced initializer.
func aggregateBrace(u *ast.Node, i int) bool {
	p := u.Prev(i)
	if u.Text(p) == "=" || u.Text(p) == "," || u.Text(p) == "{" && aggregateBrace(u, p) {
		return true
	}
	if u.IsIdent(p) {
		if aggregateKeywords[u.Text(p)] {
			return true
		}
		pp := u.Text(u.Prev(p))
		return aggregateKeywords[pp] || pp == "="
	}
	return false
}

// cString escapes s for use inside a C string literal in a format string.
func cString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "%", "%%", "\n", `\n`)
	return r.Replace(s)
}
