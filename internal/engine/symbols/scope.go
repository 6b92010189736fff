package symbols

// Var is the mutability record of one declared name.
type Var struct {
	Mutable bool
	Pointer bool
	Line    int
}

// Scope is one lexical level of a linked scope list. Lookups walk outwards.
type Scope struct {
	parent *Scope
	vars   map[string]Var
}

func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent, vars: make(map[string]Var)}
}

func (s *Scope) Parent() *Scope { return s.parent }

func (s *Scope) Declare(name string, v Var) { s.vars[name] = v }

func (s *Scope) Lookup(name string) (Var, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return Var{}, false
}
