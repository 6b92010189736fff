package parser

import (
	"czar/internal/engine/ast"
	"czar/internal/engine/lexer"
)

// Parse lexes src to completion and wraps every token in a leaf of a single
// translation unit. No other structure is built.
func Parse(src []byte) *ast.Node {
	l := lexer.New(src)
	unit := &ast.Node{Kind: ast.TranslationUnit}
	for {
		tok := l.Next()
		if tok.Kind == lexer.EOF {
			return unit
		}
		unit.Children = append(unit.Children, &ast.Node{Kind: ast.TokenNode, Tok: tok})
	}
}
