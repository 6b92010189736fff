package emitter

import (
	"czar/internal/engine/ast"
	"czar/internal/engine/lexer"
)

// definitionLookahead bounds the forward scan for `( ... ) {` from a
// top-level statement start.
const definitionLookahead = 100

var aggregateStarts = map[string]bool{"struct": true, "union": true, "enum": true, "typedef": true}

// Span is one top-level function definition: Start is its first significant
// token, Open and Close the braces of its body.
type Span struct {
	Start, Open, Close int
}

// Definitions returns every top-level function definition in u in order.
func Definitions(u *ast.Node) []Span {
	var out []Span
	i := u.First(0)
	for i < u.Len() {
		if u.TokenKind(i) == lexer.Preprocessor || u.TokenKind(i) == lexer.Unknown {
			i = u.Next(i)
			continue
		}
		if aggregateStarts[u.Text(i)] {
			i = skipStatement(u, i)
			continue
		}
		if open, ok := definitionBody(u, i); ok {
			close := u.Match(open)
			if close < 0 {
				return out
			}
			out = append(out, Span{Start: i, Open: open, Close: close})
			i = u.Next(close)
			continue
		}
		i = skipStatement(u, i)
	}
	return out
}

// definitionBody looks for `( ... ) {` at outer depth before any `;` or `=`.
func definitionBody(u *ast.Node, start int) (int, bool) {
	seen := 0
	for k := start; k < u.Len() && seen < definitionLookahead; seen++ {
		switch u.Text(k) {
		case ";", "=", "{", "}":
			return 0, false
		case "[":
			if end := u.Match(k); end >= 0 {
				k = u.Next(end)
				continue
			}
			return 0, false
		case "(":
			end := u.Match(k)
			if end < 0 {
				return 0, false
			}
			if next := u.Next(end); u.Text(next) == "{" {
				return next, true
			}
			k = u.Next(end)
			continue
		}
		if u.TokenKind(k) == lexer.Preprocessor {
			return 0, false
		}
		k = u.Next(k)
	}
	return 0, false
}

// skipStatement returns the first token after the `;` ending the top-level
// statement at i, stepping over brace groups. A bare `}` group at top level
// ends the statement when no `;` follows.
func skipStatement(u *ast.Node, i int) int {
	for k := i; k < u.Len(); {
		switch u.Text(k) {
		case ";":
			return u.Next(k)
		case "{", "(", "[":
			end := u.Match(k)
			if end < 0 {
				return u.Len()
			}
			k = u.Next(end)
			continue
		}
		if k != i && u.TokenKind(k) == lexer.Preprocessor {
			return k
		}
		k = u.Next(k)
	}
	return u.Len()
}
