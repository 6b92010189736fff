package features

import (
	"strings"

	"czar/internal/engine/lexer"
	"czar/internal/engine/pipeline"
)

// czConstants maps CZar limit names to their <stdint.h>/<stddef.h> names.
var czConstants = map[string]string{
	"U8_MIN": "0", "U8_MAX": "UINT8_MAX",
	"U16_MIN": "0", "U16_MAX": "UINT16_MAX",
	"U32_MIN": "0", "U32_MAX": "UINT32_MAX",
	"U64_MIN": "0", "U64_MAX": "UINT64_MAX",
	"I8_MIN": "INT8_MIN", "I8_MAX": "INT8_MAX",
	"I16_MIN": "INT16_MIN", "I16_MAX": "INT16_MAX",
	"I32_MIN": "INT32_MIN", "I32_MAX": "INT32_MAX",
	"I64_MIN": "INT64_MIN", "I64_MAX": "INT64_MAX",
	"USIZE_MIN": "0", "USIZE_MAX": "SIZE_MAX",
	"ISIZE_MIN": "PTRDIFF_MIN", "ISIZE_MAX": "PTRDIFF_MAX",
}

func newLowering() *pipeline.Feature {
	return &pipeline.Feature{
		Name:        FeatureLowering,
		Description: "lower CZar type and constant names to C",
		Enabled:     true,
		Transform:   transformLowering,
	}
}

func lowerIdent(s string) (string, bool) {
	if c, ok := czTypes[s]; ok {
		return c, c != s
	}
	if c, ok := czConstants[s]; ok {
		return c, true
	}
	return "", false
}

func transformLowering(pc *pipeline.Context) error {
	u := pc.Unit
	for i := u.First(0); i < u.Len(); i = u.Next(i) {
		if !u.IsIdent(i) {
			continue
		}
		if p := u.Text(u.Prev(i)); p == "." || p == "->" {
			continue
		}
		if c, ok := lowerIdent(u.Text(i)); ok {
			u.SetText(i, c)
		}
	}
	return nil
}

// lowerSource applies the same lowering to generated C text that never
// enters the token vector.
func lowerSource(src string) string {
	toks := lexer.Tokenize([]byte(src))
	var b strings.Builder
	prev := ""
	for _, t := range toks {
		text := t.Text
		if t.Kind == lexer.Identifier && prev != "." && prev != "->" {
			if c, ok := lowerIdent(text); ok {
				text = c
			}
		}
		if !t.Trivia() {
			prev = t.Text
		}
		b.WriteString(text)
	}
	return b.String()
}
