// Package symbols holds the per-translation-unit tables shared by the
// feature passes. A Table lives for exactly one translation unit.
package symbols

import "strings"

type Param struct {
	Name string
	Type string
}

type Function struct {
	Name   string
	Params []Param
	Line   int
}

func (f *Function) Arity() int { return len(f.Params) }

// TypeKind distinguishes the aggregate a tracked type name was declared as.
type TypeKind int

const (
	StructType TypeKind = iota
	UnionType
	EnumType
)

// TypeName is a tracked aggregate: Name rewrites to Alias as a type and to
// Tag after the struct/union/enum keyword.
type TypeName struct {
	Name  string
	Alias string
	Tag   string
	Kind  TypeKind
}

func tagSuffix(kind TypeKind) string {
	switch kind {
	case UnionType:
		return "_u"
	case EnumType:
		return "_e"
	default:
		return "_s"
	}
}

type EnumMember struct {
	Original string
	Prefixed string
}

type Enum struct {
	Name    string // empty for anonymous enums
	Members []EnumMember
	Line    int
}

func (e *Enum) Member(name string) (EnumMember, bool) {
	for _, m := range e.Members {
		if m.Original == name || m.Prefixed == name {
			return m, true
		}
	}
	return EnumMember{}, false
}

type Table struct {
	functions map[string]*Function
	types     map[string]*TypeName
	typeOrder []string
	enums     map[string]*Enum
	enumOrder []*Enum
	methods   map[string]map[string]bool
	pointers  map[string]int
	known     map[string]bool
}

func New() *Table {
	t := &Table{}
	t.Reset()
	return t
}

// Reset clears every table before the pipeline re-enters.
func (t *Table) Reset() {
	t.functions = make(map[string]*Function)
	t.types = make(map[string]*TypeName)
	t.typeOrder = nil
	t.enums = make(map[string]*Enum)
	t.enumOrder = nil
	t.methods = make(map[string]map[string]bool)
	t.pointers = make(map[string]int)
	t.known = make(map[string]bool)
}

// Functions

func (t *Table) AddFunction(fn *Function) { t.functions[fn.Name] = fn }

func (t *Table) Function(name string) (*Function, bool) {
	fn, ok := t.functions[name]
	return fn, ok
}

func (t *Table) ResetFunctions() { t.functions = make(map[string]*Function) }

// Aggregate type names

// AddType records name as a struct, union or enum. Re-adding is a no-op.
func (t *Table) AddType(name string, kind TypeKind) *TypeName {
	if tn, ok := t.types[name]; ok {
		return tn
	}
	tn := &TypeName{Name: name, Alias: name + "_t", Tag: name + tagSuffix(kind), Kind: kind}
	t.types[name] = tn
	t.typeOrder = append(t.typeOrder, name)
	t.known[name] = true
	t.known[tn.Alias] = true
	return tn
}

func (t *Table) Type(name string) (*TypeName, bool) {
	tn, ok := t.types[name]
	return tn, ok
}

// IsStruct reports whether name is a tracked struct (not union or enum).
func (t *Table) IsStruct(name string) bool {
	tn, ok := t.types[name]
	return ok && tn.Kind == StructType
}

// StructNames lists tracked structs in registration order.
func (t *Table) StructNames() []string {
	var out []string
	for _, n := range t.typeOrder {
		if t.types[n].Kind == StructType {
			out = append(out, n)
		}
	}
	return out
}

// Types lists every tracked aggregate in registration order.
func (t *Table) Types() []*TypeName {
	out := make([]*TypeName, 0, len(t.typeOrder))
	for _, n := range t.typeOrder {
		out = append(out, t.types[n])
	}
	return out
}

// MarkKnownType records a typedef name that is not an aggregate we rewrite.
func (t *Table) MarkKnownType(name string) { t.known[name] = true }

func (t *Table) KnownType(name string) bool { return t.known[name] }

// Enums

// AddEnum registers e; members are prefixed with the upper-cased enum name
// when the enum is named.
func (t *Table) AddEnum(name string, members []string, line int) *Enum {
	e := &Enum{Name: name, Line: line}
	prefix := ""
	if name != "" {
		prefix = strings.ToUpper(name) + "_"
	}
	for _, m := range members {
		e.Members = append(e.Members, EnumMember{Original: m, Prefixed: prefix + m})
	}
	if name != "" {
		t.enums[name] = e
	}
	t.enumOrder = append(t.enumOrder, e)
	return e
}

func (t *Table) Enum(name string) (*Enum, bool) {
	e, ok := t.enums[name]
	return e, ok
}

func (t *Table) Enums() []*Enum {
	out := make([]*Enum, len(t.enumOrder))
	copy(out, t.enumOrder)
	return out
}

// EnumsWithMember returns the named enums declaring member, in order.
func (t *Table) EnumsWithMember(member string) []*Enum {
	var out []*Enum
	for _, e := range t.enumOrder {
		if e.Name == "" {
			continue
		}
		for _, m := range e.Members {
			if m.Original == member {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// Methods

func (t *Table) AddMethod(structName, method string) {
	m, ok := t.methods[structName]
	if !ok {
		m = make(map[string]bool)
		t.methods[structName] = m
	}
	m[method] = true
}

func (t *Table) HasMethod(structName, method string) bool {
	return t.methods[structName][method]
}

// StructsWithMethod returns the tracked structs declaring method, in
// registration order.
func (t *Table) StructsWithMethod(method string) []string {
	var out []string
	for _, n := range t.typeOrder {
		if t.methods[n][method] {
			out = append(out, n)
		}
	}
	return out
}

// Pointer locals

func (t *Table) MarkPointer(name string, pos int) { t.pointers[name] = pos }

// ClearPointer forgets name, used when a non-pointer declaration shadows it.
func (t *Table) ClearPointer(name string) { delete(t.pointers, name) }

func (t *Table) IsPointer(name string) bool {
	_, ok := t.pointers[name]
	return ok
}

func (t *Table) ResetPointers() { t.pointers = make(map[string]int) }
