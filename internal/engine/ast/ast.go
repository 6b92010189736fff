// Package ast holds the flat translation unit: a root node whose children are
// the source tokens in order. Every rewrite pass mutates that single vector.
package ast

import (
	"strings"

	"czar/internal/engine/lexer"
)

type NodeKind int

const (
	TokenNode NodeKind = iota
	TranslationUnit
)

// Node is either a token leaf or the translation-unit root. Only the root
// carries children.
type Node struct {
	Kind     NodeKind
	Tok      lexer.Token
	Children []*Node
}

func NewUnit(toks []lexer.Token) *Node {
	unit := &Node{Kind: TranslationUnit, Children: make([]*Node, 0, len(toks))}
	for _, t := range toks {
		unit.Children = append(unit.Children, &Node{Kind: TokenNode, Tok: t})
	}
	return unit
}

func (n *Node) Len() int { return len(n.Children) }

func (n *Node) valid(i int) bool { return i >= 0 && i < len(n.Children) }

// Token returns a pointer to the token at i, or nil when out of range.
func (n *Node) Token(i int) *lexer.Token {
	if !n.valid(i) {
		return nil
	}
	return &n.Children[i].Tok
}

// Text returns the current text at i; out of range reads as deleted.
func (n *Node) Text(i int) string {
	if !n.valid(i) {
		return ""
	}
	return n.Children[i].Tok.Text
}

func (n *Node) TokenKind(i int) lexer.Kind {
	if !n.valid(i) {
		return lexer.EOF
	}
	return n.Children[i].Tok.Kind
}

func (n *Node) Line(i int) int {
	if !n.valid(i) {
		if len(n.Children) == 0 {
			return 1
		}
		i = len(n.Children) - 1
	}
	return n.Children[i].Tok.Line
}

// Live reports whether the token at i still contributes text.
func (n *Node) Live(i int) bool { return n.Text(i) != "" }

// Significant reports a live token that is neither whitespace nor comment.
func (n *Node) Significant(i int) bool {
	if !n.Live(i) {
		return false
	}
	return !n.Children[i].Tok.Trivia()
}

// IsIdent reports whether the token at i is a live identifier.
func (n *Node) IsIdent(i int) bool {
	return n.Live(i) && n.Children[i].Tok.Kind == lexer.Identifier
}

// Next returns the index of the first significant token after i, or Len()
// when there is none.
func (n *Node) Next(i int) int {
	for j := i + 1; j < len(n.Children); j++ {
		if n.Significant(j) {
			return j
		}
	}
	return len(n.Children)
}

// Prev returns the index of the last significant token before i, or -1.
func (n *Node) Prev(i int) int {
	if i > len(n.Children) {
		i = len(n.Children)
	}
	for j := i - 1; j >= 0; j-- {
		if n.Significant(j) {
			return j
		}
	}
	return -1
}

// First returns the index of the first significant token at or after i.
func (n *Node) First(i int) int {
	if n.Significant(i) {
		return i
	}
	return n.Next(i)
}

var pairs = map[string]string{"(": ")", "[": "]", "{": "}"}
var rpairs = map[string]string{")": "(", "]": "[", "}": "{"}

// Match returns the index of the bracket paired with the one at i, searching
// forward from an opener or backward from a closer. It returns -1 when the
// token is not a bracket or the pair is unbalanced.
func (n *Node) Match(i int) int {
	open := n.Text(i)
	if closer, ok := pairs[open]; ok {
		depth := 0
		for j := i; j < len(n.Children); j++ {
			if !n.punct(j) {
				continue
			}
			switch n.Text(j) {
			case open:
				depth++
			case closer:
				depth--
				if depth == 0 {
					return j
				}
			}
		}
		return -1
	}
	if opener, ok := rpairs[open]; ok {
		depth := 0
		for j := i; j >= 0; j-- {
			if !n.punct(j) {
				continue
			}
			switch n.Text(j) {
			case open:
				depth++
			case opener:
				depth--
				if depth == 0 {
					return j
				}
			}
		}
	}
	return -1
}

func (n *Node) punct(i int) bool {
	return n.Children[i].Tok.Kind == lexer.Punctuation
}

// SetText replaces the text at i. Setting "" is the canonical delete.
func (n *Node) SetText(i int, text string) {
	if n.valid(i) {
		n.Children[i].Tok.Text = text
	}
}

// Empty deletes the token at i without changing the vector length.
func (n *Node) Empty(i int) { n.SetText(i, "") }

// EmptyRange deletes every token in [from, to).
func (n *Node) EmptyRange(from, to int) {
	for i := from; i < to; i++ {
		n.Empty(i)
	}
}

// EmptyTrivia deletes the whitespace and comments directly after i.
func (n *Node) EmptyTrivia(i int) {
	for j := i + 1; j < len(n.Children) && (n.Children[j].Tok.Trivia() || n.Text(j) == ""); j++ {
		n.Empty(j)
	}
}

// Insert splices toks in front of index i. Inserted tokens inherit the line
// of the token they displace when they carry none.
func (n *Node) Insert(i int, toks ...lexer.Token) {
	if len(toks) == 0 {
		return
	}
	if i < 0 {
		i = 0
	}
	if i > len(n.Children) {
		i = len(n.Children)
	}
	line, col := n.Line(i), 0
	nodes := make([]*Node, len(toks))
	for k, t := range toks {
		if t.Line == 0 {
			t.Line, t.Col = line, col
		}
		nodes[k] = &Node{Kind: TokenNode, Tok: t}
	}
	n.Children = append(n.Children, nodes...)
	copy(n.Children[i+len(nodes):], n.Children[i:len(n.Children)-len(nodes)])
	copy(n.Children[i:], nodes)
}

// InsertText splices a single token holding text verbatim. Later passes see
// it as one opaque token.
func (n *Node) InsertText(i int, kind lexer.Kind, text string) {
	n.Insert(i, lexer.Token{Kind: kind, Text: text})
}

// InsertSource lexes src and splices the resulting tokens in front of i so
// later passes see synthesized code as ordinary tokens. It returns the number
// of tokens inserted.
func (n *Node) InsertSource(i int, src string) int {
	toks := lexer.Tokenize([]byte(src))
	for k := range toks {
		toks[k].Line, toks[k].Col = 0, 0
	}
	n.Insert(i, toks...)
	return len(toks)
}

// Slice concatenates the text of tokens in [from, to).
func (n *Node) Slice(from, to int) string {
	var b strings.Builder
	for i := from; i < to && i < len(n.Children); i++ {
		if i >= 0 {
			b.WriteString(n.Children[i].Tok.Text)
		}
	}
	return b.String()
}

// String concatenates every token's current text in vector order.
func (n *Node) String() string {
	if n.Kind == TokenNode {
		return n.Tok.Text
	}
	return n.Slice(0, len(n.Children))
}
