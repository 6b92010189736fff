package features

import (
	"fmt"
	"strings"

	"czar/internal/engine/ast"
	"czar/internal/engine/lexer"
	"czar/internal/engine/pipeline"
)

// typeMax is the literal upper bound used by cast<T>(value, fallback).
var typeMax = map[string]string{
	"uint8_t":   "255",
	"uint16_t":  "65535",
	"uint32_t":  "4294967295U",
	"uint64_t":  "18446744073709551615ULL",
	"int8_t":    "127",
	"int16_t":   "32767",
	"int32_t":   "2147483647",
	"int64_t":   "9223372036854775807LL",
	"size_t":    "SIZE_MAX",
	"ptrdiff_t": "PTRDIFF_MAX",
	"float":     "3.402823466e+38F",
	"double":    "1.7976931348623157e+308",
	"bool":      "1",
	"char":      "127",
	"int":       "2147483647",
}

// castCallKeywords may precede a parenthesised type without it being a call.
var castCallKeywords = set("return", "case", "else", "do")

func newCastValidate() *pipeline.Feature {
	return &pipeline.Feature{
		Name:        FeatureCastValidate,
		Description: "forbid C-style casts and check cast<T>(...) shape",
		Enabled:     true,
		Validate:    validateCasts,
	}
}

func newCastLowering() *pipeline.Feature {
	return &pipeline.Feature{
		Name:         FeatureCastLowering,
		Description:  "lower cast<T>(...) to C casts with an optional range guard",
		Enabled:      true,
		Transform:    transformCasts,
		Dependencies: []string{FeatureLowering},
	}
}

// castCall is a parsed `cast<T>(value[, fallback])`.
type castCall struct {
	Cast      int
	Type      string
	Open      int
	Close     int
	Args      [][2]int // significant [first, last] per argument
	TypeStart int
}

func parseCastCall(u *ast.Node, i int) (castCall, bool) {
	c := castCall{Cast: i}
	lt := u.Next(i)
	if u.Text(lt) != "<" {
		return c, false
	}
	var words []string
	k := u.Next(lt)
	c.TypeStart = k
	for ; k < u.Len() && u.Text(k) != ">"; k = u.Next(k) {
		if u.Text(k) == ";" || u.Text(k) == "(" {
			return c, false
		}
		words = append(words, u.Text(k))
	}
	if k >= u.Len() {
		return c, false
	}
	c.Type = strings.Join(words, " ")
	c.Open = u.Next(k)
	if u.Text(c.Open) != "(" {
		return c, false
	}
	c.Close = u.Match(c.Open)
	if c.Close < 0 {
		return c, false
	}
	c.Args = splitArgs(u, c.Open, c.Close)
	return c, true
}

// splitArgs splits the significant tokens between open and close on
// top-level commas.
func splitArgs(u *ast.Node, open, close int) [][2]int {
	var out [][2]int
	first := u.Next(open)
	if first >= close {
		return nil
	}
	last := first
	for k := first; k < close; {
		if u.Text(k) == "," {
			out = append(out, [2]int{first, last})
			first = u.Next(k)
			last = first
			k = first
			continue
		}
		last = k
		switch u.Text(k) {
		case "(", "[", "{":
			if m := u.Match(k); m >= 0 && m < close {
				last = m
				k = u.Next(m)
				continue
			}
		}
		k = u.Next(k)
	}
	out = append(out, [2]int{first, last})
	return out
}

func validateCasts(pc *pipeline.Context) error {
	u := pc.Unit
	for i := u.First(0); i < u.Len(); i = u.Next(i) {
		switch u.Text(i) {
		case "cast":
			if !u.IsIdent(i) || u.Text(u.Next(i)) != "<" {
				continue
			}
			c, ok := parseCastCall(u, i)
			if !ok || c.Type == "" || len(c.Args) == 0 || len(c.Args) > 2 {
				return pc.Errorf(i, "malformed cast: expected cast<T>(value) or cast<T>(value, fallback)")
			}
			if len(c.Args) == 1 {
				pc.Warnf(i, "cast<%s>(value) without a fallback is unchecked; use cast<%s>(value, fallback)", c.Type, c.Type)
				continue
			}
			if _, ok := typeMax[lowerTypeText(c.Type)]; !ok {
				return pc.Errorf(i, "cast<%s>(value, fallback) needs a numeric target type", c.Type)
			}
		case "(":
			if name, ok := cStyleCast(pc, i); ok {
				return pc.Errorf(i, "C-style cast to '%s' is not allowed; use cast<%s>(value, fallback)", name, name)
			}
		}
	}
	return nil
}

// cStyleCast reports whether the `(` at i opens `(Type [*...])` followed by
// an operand.
func cStyleCast(pc *pipeline.Context, i int) (string, bool) {
	u := pc.Unit
	if p := u.Prev(i); u.IsIdent(p) && !castCallKeywords[u.Text(p)] {
		return "", false
	}
	k := u.Next(i)
	var words []string
	switch {
	case aggregateKeywords[u.Text(k)]:
		words = append(words, u.Text(k))
		k = u.Next(k)
		if !u.IsIdent(k) {
			return "", false
		}
		words = append(words, u.Text(k))
		k = u.Next(k)
	case u.IsIdent(k) && isTypeName(pc, u.Text(k)):
		for u.IsIdent(k) && isTypeName(pc, u.Text(k)) {
			words = append(words, u.Text(k))
			k = u.Next(k)
		}
	default:
		return "", false
	}
	for u.Text(k) == "*" {
		words = append(words, "*")
		k = u.Next(k)
	}
	if u.Text(k) != ")" {
		return "", false
	}
	if len(words) == 1 && words[0] == "void" {
		return "", false
	}
	operand := u.Next(k)
	switch u.TokenKind(operand) {
	case lexer.Identifier, lexer.Number, lexer.String, lexer.Char:
		return strings.Join(words, " "), true
	}
	switch u.Text(operand) {
	case "(", "-", "!", "~", "&", "*", "++", "--":
		return strings.Join(words, " "), true
	}
	return "", false
}

func lowerTypeText(t string) string {
	return strings.TrimSpace(lowerSource(t))
}

func transformCasts(pc *pipeline.Context) error {
	u := pc.Unit
	var sites []int
	for i := u.First(0); i < u.Len(); i = u.Next(i) {
		if u.IsIdent(i) && u.Text(i) == "cast" && u.Text(u.Next(i)) == "<" {
			sites = append(sites, i)
		}
	}
	// Rewrite innermost-last sites first so earlier indices stay valid.
	for s := len(sites) - 1; s >= 0; s-- {
		c, ok := parseCastCall(u, sites[s])
		if !ok || len(c.Args) == 0 || len(c.Args) > 2 {
			continue
		}
		typ := lowerTypeText(c.Type)
		value := strings.TrimSpace(u.Slice(c.Args[0][0], c.Args[0][1]+1))
		var out string
		if len(c.Args) == 2 {
			max, ok := typeMax[typ]
			if !ok {
				continue
			}
			fallback := strings.TrimSpace(u.Slice(c.Args[1][0], c.Args[1][1]+1))
			out = fmt.Sprintf("((%s) > %s ? (%s) : (%s)(%s))", value, max, fallback, typ, value)
		} else {
			out = fmt.Sprintf("(%s)(%s)", typ, value)
		}
		u.EmptyRange(c.Cast, c.Close+1)
		u.InsertSource(c.Cast, out)
	}
	return nil
}
