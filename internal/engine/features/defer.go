package features

import (
	"fmt"
	"io"
	"strings"

	"czar/internal/engine/ast"
	"czar/internal/engine/lexer"
	"czar/internal/engine/pipeline"
)

const deferCleanupsKey = "defer.cleanups"

func newDefer() *pipeline.Feature {
	return &pipeline.Feature{
		Name:         FeatureDefer,
		Description:  "lower #defer blocks to cleanup attributes",
		Enabled:      true,
		Transform:    transformDefer,
		Emit:         emitDeferCleanups,
		Dependencies: []string{FeatureMutability},
	}
}

// deferSite is one `#defer { ... }` with the statement it is attached to.
type deferSite struct {
	Directive, Open, Close int
	Start                  int // statement start; equals Directive when standalone
	Name                   int // declared variable, -1 when standalone
	Cleanup                string
	Seq                    int // standalone counter
}

func (s deferSite) Standalone() bool { return s.Name < 0 }

func transformDefer(pc *pipeline.Context) error {
	u := pc.Unit
	sites, err := findDeferSites(pc)
	if err != nil {
		return err
	}

	used := make(map[string]bool)
	seq := 0
	for n := range sites {
		s := &sites[n]
		if s.Standalone() {
			s.Seq = seq
			seq++
			continue
		}
		name := u.Text(s.Name)
		fn := "_cz_cleanup_" + name
		for k := 1; used[fn]; k++ {
			fn = fmt.Sprintf("_cz_cleanup_%s_%d", name, k)
		}
		used[fn] = true
		s.Cleanup = fn
	}

	var cleanups []string
	for n := len(sites) - 1; n >= 0; n-- {
		s := sites[n]
		if s.Standalone() {
			deferStandalone(pc, s)
			continue
		}
		cleanups = append(cleanups, deferDeclaration(pc, s))
	}

	// Collected bottom-up; emit in source order.
	for l, r := 0, len(cleanups)-1; l < r; l, r = l+1, r-1 {
		cleanups[l], cleanups[r] = cleanups[r], cleanups[l]
	}
	pc.SetValue(deferCleanupsKey, cleanups)
	return nil
}

func findDeferSites(pc *pipeline.Context) ([]deferSite, error) {
	u := pc.Unit
	var sites []deferSite
	for d := 0; d < u.Len(); d++ {
		if u.TokenKind(d) != lexer.Preprocessor || u.Text(d) != "#defer" {
			continue
		}
		s := deferSite{Directive: d, Open: u.Next(d), Name: -1}
		if u.Text(s.Open) != "{" {
			return nil, pc.Errorf(d, "#defer must be followed by a block")
		}
		if s.Close = u.Match(s.Open); s.Close < 0 {
			return nil, pc.Errorf(d, "unterminated #defer block")
		}
		s.Start = statementStart(u, d)
		if s.Start != d {
			eq := -1
			for k := s.Start; k < d; k = skipGroup(u, k) {
				if u.Text(k) == "=" {
					eq = k
					break
				}
			}
			if eq < 0 {
				return nil, pc.Errorf(d, "#defer on a declaration requires an initializer")
			}
			if s.Name = u.Prev(eq); !u.IsIdent(s.Name) {
				return nil, pc.Errorf(d, "#defer must follow a simple declaration 'Type name = value'")
			}
		}
		sites = append(sites, s)
	}
	return sites, nil
}

// deferDeclaration rewrites `Type name = init #defer { ... };` to a
// cleanup-attributed declaration and returns the generated cleanup function.
func deferDeclaration(pc *pipeline.Context, s deferSite) string {
	u := pc.Unit
	name := u.Text(s.Name)
	typ := strings.TrimSpace(u.Slice(skipAttributes(u, s.Start), s.Name))
	body := derefBody(u, s.Open, s.Close, name)
	// Immutable pointers were lowered to `const T * const`; the cleanup can
	// only see a const pointee.
	if strings.HasPrefix(typ, "const ") && strings.Contains(typ, "*") {
		pc.Warnf(s.Name, "#defer on immutable pointer '%s': cleanup receives a const pointee; declare it 'mut'", name)
	}
	cleanup := fmt.Sprintf("static void %s(%s * %s) {%s}", s.Cleanup, typ, name, body)

	u.EmptyRange(u.Prev(s.Directive)+1, s.Close+1)
	u.InsertSource(s.Start, "__attribute__((cleanup("+s.Cleanup+"))) ")
	return cleanup
}

// derefBody returns the block text with every use of name replaced by
// (*name), since the cleanup receives the variable's address.
func derefBody(u *ast.Node, open, close int, name string) string {
	var b strings.Builder
	for k := open + 1; k < close; k++ {
		t := u.Text(k)
		if t == name && u.IsIdent(k) {
			if p := u.Text(u.Prev(k)); p != "." && p != "->" {
				t = "(*" + name + ")"
			}
		}
		b.WriteString(t)
	}
	return b.String()
}

// deferStandalone lowers a bare `#defer { ... };` to a scoped dummy whose
// cleanup is a GNU nested function capturing the frame.
func deferStandalone(pc *pipeline.Context, s deferSite) {
	u := pc.Unit
	semi := u.Next(s.Close)
	if u.Text(semi) != ";" {
		semi = -1
	}
	if !pc.Options.GNUExtensions {
		u.EmptyRange(s.Directive, s.Close+1)
		if semi >= 0 {
			u.Empty(semi)
		}
		u.InsertText(s.Directive, lexer.Unknown, "\n#error \"standalone #defer needs GNU C nested functions; attach #defer to a declaration\"\n")
		return
	}

	n := s.Seq
	body := u.Slice(s.Open+1, s.Close)
	text := fmt.Sprintf("void _cz_defer_fn_%d(int *_cz_defer_arg_%d) { (void)_cz_defer_arg_%d;%s} __attribute__((cleanup(_cz_defer_fn_%d))) int _cz_defer_%d = 0",
		n, n, n, body, n, n)
	if semi < 0 {
		text += ";"
	}
	u.EmptyRange(s.Directive, s.Close+1)
	u.InsertSource(s.Directive, text)
}

// emitDeferCleanups writes the generated cleanup functions ahead of the
// translated definitions.
func emitDeferCleanups(pc *pipeline.Context, w io.Writer) error {
	v, ok := pc.Value(deferCleanupsKey)
	if !ok {
		return nil
	}
	for _, fn := range v.([]string) {
		if _, err := io.WriteString(w, lowerSource(fn)+"\n"); err != nil {
			return err
		}
	}
	return nil
}
