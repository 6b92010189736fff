package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRangeLoop(t *testing.T) {
	out := mustTranslate(t, "void f(void) {\n    for (u8 i : 0..10) {\n        g(i);\n    }\n}\n").Output()
	assert.Contains(t, out, "for (uint8_t i = 0; i <= 10; i++) {")
}

func TestRangeLoopWithIdentifierBounds(t *testing.T) {
	out := mustTranslate(t, "void f(usize n) {\n    for (usize i : 1..n) {\n        g(i);\n    }\n}\n").Output()
	assert.Contains(t, out, "for (size_t i = 1; i <= n; i++) {")
}

func TestArrayLoop(t *testing.T) {
	src := "void f(void) {\n    i32 arr[3] = {1, 2, 3};\n    for (usize i, i32 v : arr) {\n        g(v);\n    }\n}\n"
	out := mustTranslate(t, src).Output()
	assert.Contains(t, out, "for (size_t i = 0; i < sizeof(arr) / sizeof((arr)[0]); i++) { const int32_t v = arr[i];\n        g(v);")
}

func TestArrayLoopDiscardIndex(t *testing.T) {
	src := "void f(void) {\n    i32 arr[2] = {1, 2};\n    for (_, i32 v : arr) {\n        g(v);\n    }\n}\n"
	out := mustTranslate(t, src).Output()
	assert.Contains(t, out, "for (size_t _cz_idx = 0; _cz_idx < sizeof(arr) / sizeof((arr)[0]); _cz_idx++) { const int32_t v = arr[_cz_idx];")
}
