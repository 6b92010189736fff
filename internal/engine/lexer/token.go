package lexer

import "fmt"

type Kind int

const (
	Identifier Kind = iota
	Keyword
	Number
	String
	Char
	Operator
	Punctuation
	Preprocessor
	Whitespace
	Comment
	Unknown
	EOF
)

var kindNames = [...]string{
	Identifier:   "identifier",
	Keyword:      "keyword",
	Number:       "number",
	String:       "string",
	Char:         "char",
	Operator:     "operator",
	Punctuation:  "punctuation",
	Preprocessor: "preprocessor",
	Whitespace:   "whitespace",
	Comment:      "comment",
	Unknown:      "unknown",
	EOF:          "eof",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is a single lexeme. Text is owned by the token; an empty Text means
// the token has been deleted by a rewrite and contributes nothing to output.
type Token struct {
	Kind Kind
	Text string
	Line int // 1-based
	Col  int // 1-based
}

// Len returns the byte length of the token's current text.
func (t Token) Len() int { return len(t.Text) }

// Trivia reports whether the token carries only formatting.
func (t Token) Trivia() bool { return t.Kind == Whitespace || t.Kind == Comment }

// Is reports whether the token is live and its text equals s.
func (t Token) Is(s string) bool { return t.Text == s }

func (t Token) String() string {
	return fmt.Sprintf("{%s %q %d:%d}", t.Kind, t.Text, t.Line, t.Col)
}
