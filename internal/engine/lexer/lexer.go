package lexer

import (
	"strconv"
	"strings"
)

const (
	punctuationChars = "(){}[];,"
	operatorChars    = "+-*/%=<>!&|^~?:."
	suffixChars      = "uUlLfF"
	maxSuffixLen     = 9
)

var (
	threeCharOps = []string{"<<=", ">>="}
	twoCharOps   = map[string]bool{
		"++": true, "--": true, "+=": true, "-=": true, "*=": true, "/=": true,
		"%=": true, "&=": true, "|=": true, "^=": true, "==": true, "!=": true,
		"<=": true, ">=": true, "&&": true, "||": true, "<<": true, ">>": true,
		"->": true,
	}
)

// inlineDirectives are CZar directives that introduce a code block or
// annotate the declaration that follows on the same line. They lex as the
// directive word alone instead of swallowing the rest of the line.
var inlineDirectives = map[string]bool{
	"defer":      true,
	"deprecated": true,
}

// Lexer is a byte-driven scanner. It never fails: bytes it cannot classify
// become single-byte Unknown tokens.
type Lexer struct {
	src       []byte
	pos       int
	line      int
	col       int
	lineStart bool // only whitespace seen since the last newline
}

func New(src []byte) *Lexer {
	return &Lexer{src: src, line: 1, col: 1, lineStart: true}
}

// Tokenize scans src to completion. The trailing EOF token is not included.
func Tokenize(src []byte) []Token {
	l := New(src)
	var out []Token
	for {
		tok := l.Next()
		if tok.Kind == EOF {
			return out
		}
		out = append(out, tok)
	}
}

func (l *Lexer) cur() byte { return l.at(l.pos) }

func (l *Lexer) peek() byte { return l.at(l.pos + 1) }

func (l *Lexer) at(i int) byte {
	if i >= len(l.src) {
		return 0
	}
	return l.src[i]
}

func (l *Lexer) eof() bool { return l.pos >= len(l.src) }

func (l *Lexer) advance() byte {
	if l.eof() {
		return 0
	}
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

// Next consumes and returns the next token.
func (l *Lexer) Next() Token {
	if l.eof() {
		return Token{Kind: EOF, Line: l.line, Col: l.col}
	}

	start, line, col := l.pos, l.line, l.col
	c := l.cur()
	var kind Kind
	var text string

	switch {
	case isSpace(c):
		sawNewline := false
		for !l.eof() && isSpace(l.cur()) {
			if l.advance() == '\n' {
				sawNewline = true
			}
		}
		if sawNewline {
			l.lineStart = true
		}
		return Token{Kind: Whitespace, Text: string(l.src[start:l.pos]), Line: line, Col: col}
	case c == '/' && l.peek() == '/':
		for !l.eof() && l.cur() != '\n' {
			l.advance()
		}
		kind = Comment
	case c == '/' && l.peek() == '*':
		l.advance()
		l.advance()
		for !l.eof() {
			if l.cur() == '*' && l.peek() == '/' {
				l.advance()
				l.advance()
				break
			}
			l.advance()
		}
		kind = Comment
	case c == '#':
		return l.scanHash(line, col)
	case c == '"' || c == '\'':
		l.scanQuoted(c)
		kind = String
		if c == '\'' {
			kind = Char
		}
	case isDigit(c) || (c == '.' && isDigit(l.peek())):
		text = l.scanNumber()
		kind = Number
	case isIdentStart(c):
		for !l.eof() && isIdentPart(l.cur()) {
			l.advance()
		}
		kind = Identifier
	case strings.IndexByte(punctuationChars, c) >= 0:
		l.advance()
		kind = Punctuation
	case strings.IndexByte(operatorChars, c) >= 0:
		l.scanOperator()
		kind = Operator
	default:
		l.advance()
		kind = Unknown
	}

	if text == "" {
		text = string(l.src[start:l.pos])
	}
	l.lineStart = false
	return Token{Kind: kind, Text: text, Line: line, Col: col}
}

func (l *Lexer) scanHash(line, col int) Token {
	start := l.pos
	word := l.directiveWord()
	if inlineDirectives[word] {
		for i := 0; i < len(word)+1; i++ {
			l.advance()
		}
		l.lineStart = false
		return Token{Kind: Preprocessor, Text: string(l.src[start:l.pos]), Line: line, Col: col}
	}

	if !l.lineStart {
		l.advance()
		if l.cur() == '#' {
			l.advance()
		}
		return Token{Kind: Operator, Text: string(l.src[start:l.pos]), Line: line, Col: col}
	}

	// A directive runs through backslash-newline continuations up to and
	// including the next plain newline.
	for !l.eof() {
		c := l.cur()
		if c == '\\' && l.peek() == '\n' {
			l.advance()
			l.advance()
			continue
		}
		if c == '\\' && l.peek() == '\r' && l.at(l.pos+2) == '\n' {
			l.advance()
			l.advance()
			l.advance()
			continue
		}
		l.advance()
		if c == '\n' {
			break
		}
	}
	l.lineStart = true
	return Token{Kind: Preprocessor, Text: string(l.src[start:l.pos]), Line: line, Col: col}
}

// directiveWord returns the identifier immediately following the '#' at the
// current position, without consuming anything.
func (l *Lexer) directiveWord() string {
	i := l.pos + 1
	j := i
	for j < len(l.src) && isIdentPart(l.src[j]) {
		j++
	}
	return string(l.src[i:j])
}

func (l *Lexer) scanQuoted(quote byte) {
	l.advance()
	for !l.eof() {
		c := l.advance()
		if c == '\\' {
			l.advance()
			continue
		}
		if c == quote {
			return
		}
	}
}

func (l *Lexer) scanOperator() {
	if l.pos+3 <= len(l.src) {
		three := string(l.src[l.pos : l.pos+3])
		for _, op := range threeCharOps {
			if three == op {
				l.advance()
				l.advance()
				l.advance()
				return
			}
		}
	}
	if l.pos+2 <= len(l.src) && twoCharOps[string(l.src[l.pos:l.pos+2])] {
		l.advance()
		l.advance()
		return
	}
	l.advance()
}

// scanNumber consumes a numeric literal and returns its normalised text:
// digit separators are stripped and binary literals become decimal.
func (l *Lexer) scanNumber() string {
	start := l.pos
	var digits strings.Builder

	switch {
	case l.cur() == '0' && (l.peek() == 'x' || l.peek() == 'X'):
		digits.WriteByte(l.advance())
		digits.WriteByte(l.advance())
		for !l.eof() && (isHexDigit(l.cur()) || l.cur() == '_') {
			if c := l.advance(); c != '_' {
				digits.WriteByte(c)
			}
		}
	case l.cur() == '0' && (l.peek() == 'b' || l.peek() == 'B'):
		l.advance()
		l.advance()
		var bits strings.Builder
		for !l.eof() && (l.cur() == '0' || l.cur() == '1' || l.cur() == '_') {
			if c := l.advance(); c != '_' {
				bits.WriteByte(c)
			}
		}
		suffix := l.scanSuffix()
		if converted, ok := binaryToDecimal(bits.String()); ok {
			return converted + suffix
		}
		return strings.ReplaceAll(string(l.src[start:l.pos]), "_", "")
	default:
		l.scanDigits(&digits)
		if l.cur() == '.' && l.peek() != '.' {
			digits.WriteByte(l.advance())
			l.scanDigits(&digits)
		}
		if c := l.cur(); c == 'e' || c == 'E' {
			next := l.peek()
			if isDigit(next) || ((next == '+' || next == '-') && isDigit(l.at(l.pos+2))) {
				digits.WriteByte(l.advance())
				if next == '+' || next == '-' {
					digits.WriteByte(l.advance())
				}
				l.scanDigits(&digits)
			}
		}
	}

	digits.WriteString(l.scanSuffix())
	return digits.String()
}

func (l *Lexer) scanDigits(b *strings.Builder) {
	for !l.eof() && (isDigit(l.cur()) || l.cur() == '_') {
		if c := l.advance(); c != '_' {
			b.WriteByte(c)
		}
	}
}

func (l *Lexer) scanSuffix() string {
	start := l.pos
	for n := 0; n < maxSuffixLen && !l.eof() && strings.IndexByte(suffixChars, l.cur()) >= 0; n++ {
		l.advance()
	}
	return string(l.src[start:l.pos])
}

// binaryToDecimal converts a string of binary digits to decimal. It refuses
// empty input and anything wider than 64 bits.
func binaryToDecimal(bits string) (string, bool) {
	if bits == "" || len(bits) > 64 {
		return "", false
	}
	var v uint64
	for i := 0; i < len(bits); i++ {
		v = v<<1 | uint64(bits[i]-'0')
	}
	return strconv.FormatUint(v, 10), true
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }
