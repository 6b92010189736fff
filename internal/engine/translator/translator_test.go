package translator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"czar/internal/core/errors"
	"czar/internal/engine/features"
	"czar/internal/engine/lexer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var gnu = Options{GNUExtensions: true}

func mustTranslate(t *testing.T, src string) *Result {
	t.Helper()
	res, err := New().Translate(context.Background(), "t.cz", []byte(src), gnu)
	require.NoError(t, err)
	return res
}

func requireFatal(t *testing.T, src, msg string) {
	t.Helper()
	_, err := New().Translate(context.Background(), "t.cz", []byte(src), gnu)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
	d, ok := Diagnostic(err)
	require.True(t, ok)
	assert.Contains(t, d.Message, msg)
	assert.Equal(t, "t.cz", d.File)
}

func TestGlobalGoesToHeader(t *testing.T) {
	res := mustTranslate(t, "u8 x = 42;\n")
	assert.Contains(t, res.Header, "uint8_t x = 42;")
	assert.Equal(t, "#include \"t.cz.h\"\n\n", res.Source)
	assert.Equal(t, "t.cz.h", res.HeaderName)
	assert.Equal(t, "t.cz.c", res.SourceName)
}

func TestUninitializedIsFatal(t *testing.T) {
	requireFatal(t, "u8 x;\n", "must be explicitly initialized")
}

func TestCheckedCast(t *testing.T) {
	res := mustTranslate(t, "u32 f(u64 y) {\n    return cast<u32>(y, 0);\n}\n")
	assert.Contains(t, res.Source, "((y) > 4294967295U ? (0) : (uint32_t)(y))")
	assert.Contains(t, res.Header, "uint32_t f(const uint64_t y);")
}

func TestEnumTranslation(t *testing.T) {
	res := mustTranslate(t, "enum Color { RED, GREEN, BLUE };\nColor c = RED;\n")
	assert.Contains(t, res.Header, "typedef enum Color_e { COLOR_RED, COLOR_GREEN, COLOR_BLUE } Color_t;\nColor_t c = COLOR_RED;\n")

	requireFatal(t, "enum Color { RED, GREEN, BLUE };\nColor c = RED;\n"+
		"void f(void) {\n    switch (c) {\n    case Color.RED: break;\n    case Color.GREEN: break;\n    }\n}\n",
		"missing BLUE")
}

func TestMethodTranslation(t *testing.T) {
	res := mustTranslate(t, "struct Vec2 { f32 x; f32 y; };\nf32 Vec2.length(Vec2 *v) { return v.x; }\n")
	assert.Contains(t, res.Header, "typedef struct Vec2_s { float x; float y; } Vec2_t;")
	assert.Contains(t, res.Header, "float Vec2_length(const Vec2_t * const v);")
	assert.Contains(t, res.Source, "float Vec2_length(const Vec2_t * const v) { return v->x; }\n")
	assert.NotContains(t, res.Source, "typedef")
}

func TestMutability(t *testing.T) {
	res := mustTranslate(t, "void f(void) {\n    mut u32 n = 0;\n    n = n + 1;\n}\n")
	assert.Contains(t, res.Source, "uint32_t n = 0;\n    n = n + 1;")

	requireFatal(t, "void f(void) {\n    u32 n = 0;\n    n = n + 1;\n}\n", "cannot assign to immutable variable 'n'")
}

func TestTranslationIsDeterministic(t *testing.T) {
	src := "struct P { i32 x; };\nvoid P.set(i32 v) { self.x = v; }\n" +
		"void f(void) {\n    mut P p = {};\n    p.set(v = 2);\n    mut i32 fd = a() #defer { c(fd); };\n}\n"
	tr := New()
	first, err := tr.Translate(context.Background(), "t.cz", []byte(src), gnu)
	require.NoError(t, err)
	second, err := tr.Translate(context.Background(), "t.cz", []byte(src), gnu)
	require.NoError(t, err)

	assert.Equal(t, first.Header, second.Header)
	assert.Equal(t, first.Source, second.Source)
	assert.Contains(t, first.Source, "static void _cz_cleanup_fd(int32_t * fd) { c((*fd)); }\n\nvoid P_set(")
}

func TestPlainCKeepsTokens(t *testing.T) {
	src := "#include <math.h>\n/* plain */\nvoid run(void) {\n    puts(\"hi\");\n}\n"
	res := mustTranslate(t, src)

	assert.Equal(t, len(lexer.Tokenize([]byte(src))), res.Tokens)
	assert.Contains(t, res.Header, "#include <math.h>\n/* plain */\nvoid run(void);\n")
	assert.Contains(t, res.Source, "void run(void) {\n    puts(\"hi\");\n}\n")
	assert.Empty(t, res.Warnings)
}

func TestRuntimeAndDebugPragma(t *testing.T) {
	res := mustTranslate(t, "#pragma czar debug true\nvoid f(void) {\n    Log.info(\"hi\");\n}\n")
	assert.Contains(t, res.Header, "#define CZ_DEBUG 1\n#include \"cz.h\"\n")
	assert.Contains(t, res.Source, "cz_log_info(\"hi\");")
	assert.NotContains(t, res.Header, "#pragma czar")
}

func TestWarningsAreReturned(t *testing.T) {
	res := mustTranslate(t, "i32 f() {\n    return 1;\n}\n")
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, 1, res.Warnings[0].Line)
	assert.Equal(t, "[CZAR] WARNING at t.cz:1: empty parameter list in 'f'; use 'f(void)'\n    > i32 f() {", res.Warnings[0].Format())
}

func TestDisabledFeatures(t *testing.T) {
	res, err := New().Translate(context.Background(), "t.cz", []byte("u8 x = 1;\n"), Options{DisabledFeatures: []string{features.FeatureLowering}})
	require.NoError(t, err)
	assert.Contains(t, res.Header, "u8 x = 1;")

	_, err = New().Translate(context.Background(), "t.cz", []byte("u8 x = 1;\n"), Options{DisabledFeatures: []string{"nope"}})
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestImportsSeedStructsAndIncludeHeaders(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "geom"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "geom", "vec.cz.h"),
		[]byte("#pragma once\ntypedef struct Vec2_s { float x; float y; } Vec2_t;\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "util.cz"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.cz"), nil, 0o644))

	file := filepath.Join(dir, "app.cz")
	src := "#import \"geom\"\n#import \"missing\"\nf32 norm(Vec2 *v) {\n    return v.x;\n}\n"
	res, err := New().Translate(context.Background(), file, []byte(src), gnu)
	require.NoError(t, err)

	assert.Equal(t, []string{"Vec2"}, res.Structs)
	assert.Contains(t, res.Header, "#include \"geom/vec.cz.h\"\n/* czar: unresolved import \"missing\" */\n")
	assert.Contains(t, res.Header, "float norm(const Vec2_t * const v);")
	assert.True(t, strings.HasPrefix(res.Source, "#include \"app.cz.h\"\n#include \"util.cz.h\"\n\n"))
	assert.Contains(t, res.Source, "return v->x;")
}
