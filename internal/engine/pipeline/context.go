package pipeline

import (
	"czar/internal/engine/ast"
	"czar/internal/engine/diag"
	"czar/internal/engine/symbols"
)

// Pragma is the compilation record overwritten by `#pragma czar` lines.
type Pragma struct {
	DebugMode bool
	DebugSet  bool // a pragma set DebugMode explicitly
}

type Options struct {
	// GNUExtensions enables the fallthrough attribute and nested-function
	// standalone defer blocks.
	GNUExtensions bool
	Debug         bool
	RuntimeHeader string
}

// Context is the per-translation-unit state handed to every hook.
type Context struct {
	File    string
	Unit    *ast.Node
	Symbols *symbols.Table
	Diag    *diag.Reporter
	Pragma  Pragma
	Options Options

	scratch map[string]any
}

func NewContext(file string, src []byte, unit *ast.Node, opts Options) *Context {
	return &Context{
		File:    file,
		Unit:    unit,
		Symbols: symbols.New(),
		Diag:    diag.NewReporter(file, src),
		Pragma:  Pragma{DebugMode: opts.Debug},
		Options: opts,
		scratch: make(map[string]any),
	}
}

// Value returns feature-private state stored under key.
func (c *Context) Value(key string) (any, bool) {
	v, ok := c.scratch[key]
	return v, ok
}

func (c *Context) SetValue(key string, v any) { c.scratch[key] = v }

// Errorf builds a fatal diagnostic anchored at token i.
func (c *Context) Errorf(i int, format string, args ...any) error {
	return c.Diag.Errorf(c.Unit.Line(i), format, args...)
}

func (c *Context) Warnf(i int, format string, args ...any) {
	c.Diag.Warnf(c.Unit.Line(i), format, args...)
}
