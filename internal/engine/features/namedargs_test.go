package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const addSource = "i32 add(i32 a, i32 b) { return a + b; }\n"

func TestNamedArgumentsAreStripped(t *testing.T) {
	r := mustTranslate(t, addSource+"void f(void) {\n    i32 r = add(a = 1, b = 2);\n    g(r);\n}\n")
	assert.Contains(t, r.Output(), "const int32_t r = add(1, 2);")

	fn, ok := r.pc.Symbols.Function("add")
	if assert.True(t, ok) {
		assert.Equal(t, 2, fn.Arity())
		assert.Equal(t, "b", fn.Params[1].Name)
	}
}

func TestNamedArgumentErrors(t *testing.T) {
	requireFatal(t, addSource+"void f(void) {\n    i32 r = add(b = 1, a = 2);\n}\n",
		"named argument 'b' does not match parameter 'a' of 'add'")
	requireFatal(t, addSource+"void f(void) {\n    i32 r = add(1, 2);\n}\n",
		"ambiguous call to 'add': adjacent parameters 'a' and 'b' share type 'i32'")
}

func TestMixedTypesNeedNoLabels(t *testing.T) {
	src := "i32 scale(i32 v, f32 k) { return v; }\nvoid f(void) {\n    i32 r = scale(3, k = 2.0);\n    g(r);\n}\n"
	assert.Contains(t, mustTranslate(t, src).Output(), "scale(3, 2.0)")
}

func TestUnknownCalleeLabelsAreStripped(t *testing.T) {
	out := mustTranslate(t, "void f(void) {\n    ext(width = 3);\n}\n").Output()
	assert.Contains(t, out, "ext(3);")
}
