// Package emitter splits a rewritten translation unit into a header holding
// every declaration and a source file holding every function definition.
package emitter

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"czar/internal/engine/ast"
	"czar/internal/engine/pipeline"
	"czar/internal/shared/observability"
)

// DefaultRuntimeHeader is included by headers that call into the runtime.
const DefaultRuntimeHeader = "cz.h"

var standardIncludes = []string{
	"stdlib.h", "stdio.h", "stdint.h", "stddef.h",
	"stdbool.h", "assert.h", "stdarg.h", "string.h",
}

type Options struct {
	// HeaderName is the generated header the source includes, e.g. "vec.cz.h".
	HeaderName string
	// SiblingHeaders are included by the source when the unit uses imports.
	SiblingHeaders []string
	UsesImports    bool
}

type Output struct {
	Header string
	Source string
}

// Emit renders pc.Unit as a header/source pair. Emit-phase hooks of r write
// auxiliary code between the source's includes and its first definition.
func Emit(ctx context.Context, pc *pipeline.Context, r *pipeline.Registry, opts Options) (*Output, error) {
	ctx, span := observability.Tracer.Start(ctx, "emitter.Emit")
	defer span.End()

	defs := Definitions(pc.Unit)

	var aux bytes.Buffer
	if r != nil {
		if err := r.Emit(ctx, pc, &aux); err != nil {
			return nil, err
		}
	}

	return &Output{
		Header: Header(pc, defs),
		Source: Source(pc.Unit, defs, aux.String(), opts),
	}, nil
}

// Header writes the preamble and every token outside function bodies. Each
// definition keeps its head and ends with `;`.
func Header(pc *pipeline.Context, defs []Span) string {
	u := pc.Unit
	var b strings.Builder
	b.WriteString("#pragma once\n\n")
	for _, inc := range standardIncludes {
		fmt.Fprintf(&b, "#include <%s>\n", inc)
	}
	if pc.Pragma.DebugSet || pc.Options.Debug {
		fmt.Fprintf(&b, "\n#define CZ_DEBUG %d\n", boolInt(pc.Pragma.DebugMode))
	}
	if usesRuntime(u) {
		name := pc.Options.RuntimeHeader
		if name == "" {
			name = DefaultRuntimeHeader
		}
		fmt.Fprintf(&b, "#include %q\n", name)
	}
	b.WriteString("\n")

	i := 0
	for _, d := range defs {
		b.WriteString(u.Slice(i, u.Prev(d.Open)+1))
		b.WriteString(";")
		i = d.Close + 1
	}
	b.WriteString(u.Slice(i, u.Len()))
	return b.String()
}

// Source writes the header include, sibling includes, auxiliary code and
// then only the function definitions.
func Source(u *ast.Node, defs []Span, aux string, opts Options) string {
	var b strings.Builder
	if opts.HeaderName != "" {
		fmt.Fprintf(&b, "#include %q\n", opts.HeaderName)
	}
	if opts.UsesImports {
		for _, h := range opts.SiblingHeaders {
			fmt.Fprintf(&b, "#include %q\n", h)
		}
	}
	b.WriteString("\n")
	b.WriteString(aux)
	for k, d := range defs {
		if k > 0 || aux != "" {
			b.WriteString("\n")
		}
		b.WriteString(u.Slice(d.Start, d.Close+1))
		b.WriteString("\n")
	}
	return b.String()
}

func usesRuntime(u *ast.Node) bool {
	for i := u.First(0); i < u.Len(); i = u.Next(i) {
		if u.IsIdent(i) && strings.HasPrefix(u.Text(i), "cz_") {
			return true
		}
	}
	return false
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
