// Package imports resolves `#import "path"` directives against the
// directory of the importing file and scans imported `.cz.h` headers for
// the struct typedefs they export.
package imports

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"czar/internal/engine/ast"
	"czar/internal/engine/lexer"

	"github.com/gobwas/glob"
)

const (
	SourceExt = ".cz"
	HeaderExt = ".cz.h"
)

var (
	headerGlob = glob.MustCompile("*" + HeaderExt)
	sourceGlob = glob.MustCompile("*" + SourceExt)
)

// Kind says what an import path resolved to.
type Kind int

const (
	Unresolved Kind = iota
	File
	Directory
)

// Import is one `#import` directive in a unit.
type Import struct {
	Path  string // as written, without quotes
	Index int    // token index of the directive
	Line  int
}

// Resolution is the outcome of resolving one Import.
type Resolution struct {
	Import
	Kind     Kind
	Includes []string // include paths as they appear in `#include "..."`
	Headers  []string // headers on disk, for struct scanning
}

// Find returns every `#import "path"` directive in u.
func Find(u *ast.Node) []Import {
	var out []Import
	for i := 0; i < u.Len(); i++ {
		if u.TokenKind(i) != lexer.Preprocessor {
			continue
		}
		if p, ok := importPath(u.Text(i)); ok {
			out = append(out, Import{Path: p, Index: i, Line: u.Line(i)})
		}
	}
	return out
}

func importPath(directive string) (string, bool) {
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(directive), "#"))
	rest, ok := strings.CutPrefix(rest, "import")
	if !ok {
		return "", false
	}
	rest = strings.TrimSpace(rest)
	if len(rest) < 2 || rest[0] != '"' {
		return "", false
	}
	end := strings.IndexByte(rest[1:], '"')
	if end < 0 {
		return "", false
	}
	return rest[1 : end+1], true
}

// Resolve interprets imp relative to dir. A directory imports every
// `*.cz.h` inside it; a file imports its generated header.
func Resolve(dir string, imp Import) Resolution {
	res := Resolution{Import: imp}
	full := filepath.Join(dir, filepath.FromSlash(imp.Path))

	if info, err := os.Stat(full); err == nil && info.IsDir() {
		res.Kind = Directory
		for _, name := range matchDir(full, headerGlob) {
			res.Includes = append(res.Includes, path.Join(imp.Path, name))
			res.Headers = append(res.Headers, filepath.Join(full, name))
		}
		slog.Debug("import resolved", "path", imp.Path, "kind", "directory", "headers", len(res.Includes))
		return res
	}

	base := strings.TrimSuffix(strings.TrimSuffix(imp.Path, HeaderExt), SourceExt)
	baseFull := filepath.Join(dir, filepath.FromSlash(base))
	for _, candidate := range []string{full, baseFull + SourceExt, baseFull + HeaderExt} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			res.Kind = File
			res.Includes = []string{base + HeaderExt}
			res.Headers = []string{baseFull + HeaderExt}
			slog.Debug("import resolved", "path", imp.Path, "kind", "file")
			return res
		}
	}

	slog.Debug("import unresolved", "path", imp.Path, "dir", dir)
	return res
}

// ResolveAll resolves every import found in u.
func ResolveAll(dir string, u *ast.Node) []Resolution {
	imps := Find(u)
	out := make([]Resolution, 0, len(imps))
	for _, imp := range imps {
		out = append(out, Resolve(dir, imp))
	}
	return out
}

// Apply replaces each directive with its includes, or with a comment when
// the path could not be resolved.
func Apply(u *ast.Node, resolutions []Resolution) {
	for _, r := range resolutions {
		u.SetText(r.Index, Directive(r))
	}
}

// Directive renders the C text that stands in for r.
func Directive(r Resolution) string {
	if r.Kind == Unresolved {
		return fmt.Sprintf("/* czar: unresolved import %q */\n", r.Path)
	}
	var b strings.Builder
	for _, inc := range r.Includes {
		fmt.Fprintf(&b, "#include %q\n", inc)
	}
	return b.String()
}

// Siblings returns the generated header names of every `.cz` file next to
// current, excluding main.cz and current itself.
func Siblings(dir, current string) []string {
	self := filepath.Base(current)
	var out []string
	for _, name := range matchDir(dir, sourceGlob) {
		if name == "main"+SourceExt || name == self {
			continue
		}
		out = append(out, strings.TrimSuffix(name, SourceExt)+HeaderExt)
	}
	return out
}

func matchDir(dir string, g glob.Glob) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && g.Match(e.Name()) {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out
}
