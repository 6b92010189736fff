package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopedEnumReferencesFlatten(t *testing.T) {
	src := "enum Color { RED, GREEN };\n" +
		"void f(Color c) {\n    switch (c) {\n    case Color.RED: break;\n    case Color.GREEN: break;\n    default: break;\n    }\n}\n"
	r := mustTranslate(t, src)
	out := r.Output()
	assert.Contains(t, out, "void f(const Color_t c)")
	assert.Contains(t, out, "case COLOR_RED: break;")
	assert.Contains(t, out, "case COLOR_GREEN: break;")
	assert.Empty(t, r.Warnings())
}

func TestUnscopedCaseLabelWarns(t *testing.T) {
	src := "enum Color { RED, GREEN };\n" +
		"void f(Color c) {\n    switch (c) {\n    case RED: break;\n    case Color.GREEN: break;\n    default: break;\n    }\n}\n"
	r := mustTranslate(t, src)
	assert.Contains(t, r.Warnings(), "unscoped enum constant 'RED' in case label; use 'Color.RED'")
	assert.Contains(t, r.Output(), "case COLOR_RED: break;")
}

func TestEnumMemberMustBeUppercase(t *testing.T) {
	requireFatal(t, "enum Color { Red, GREEN };\n", "enum member 'Red' must be ALL_UPPERCASE")
}

func TestEnumValuesAndAnonymousEnums(t *testing.T) {
	r := mustTranslate(t, "enum Flag { ON = 1, OFF = 2, };\nenum { LIMIT = 8 };\nFlag f = OFF;\nint n = LIMIT;\n")
	out := r.Output()
	assert.Contains(t, out, "typedef enum Flag_e { FLAG_ON = 1, FLAG_OFF = 2, } Flag_t;")
	assert.Contains(t, out, "enum { LIMIT = 8 };")
	assert.Contains(t, out, "Flag_t f = FLAG_OFF;")
	assert.Contains(t, out, "int n = LIMIT;")

	e, ok := r.pc.Symbols.Enum("Flag")
	require.True(t, ok)
	assert.Equal(t, "FLAG_ON", e.Members[0].Prefixed)
}

func TestSharedMemberNameNeedsScope(t *testing.T) {
	decls := "enum A { NONE, ONE };\nenum B { NONE, TWO };\n"
	out := mustTranslate(t, decls+"A a = A.NONE;\nB b = B.NONE;\n").Output()
	assert.Contains(t, out, "A_t a = A_NONE;")
	assert.Contains(t, out, "B_t b = B_NONE;")

	requireFatal(t, decls+"B b = NONE;\n", "ambiguous enum member 'NONE': use A.NONE or B.NONE")
}

func TestEnumSwitchRequiresDefault(t *testing.T) {
	src := "enum Color { RED, GREEN };\n" +
		"void f(Color c) {\n    switch (c) {\n    case Color.RED: break;\n    case Color.GREEN: break;\n    }\n}\n"
	requireFatal(t, src, "switch on enum Color has no default case")
}
