package features

import (
	"testing"

	"czar/internal/engine/pipeline"

	"github.com/stretchr/testify/assert"
)

func TestSwitchWithoutDefaultGetsAbortingDefault(t *testing.T) {
	r := mustTranslate(t, "void f(i32 x) {\n    switch (x) {\n    case 1:\n        break;\n    }\n}\n")
	assert.Contains(t, r.Output(), `break; default: { fprintf(stderr, "t.cz:2: f: Unreachable code reached: \n"); abort(); }`)
	assert.Contains(t, r.Warnings(), "switch without default case")
}

func TestCaseNeedsControlFlow(t *testing.T) {
	requireFatal(t, "void f(i32 x) {\n    switch (x) {\n    case 1:\n        g(x);\n    default:\n        break;\n    }\n}\n",
		"case body must end with explicit control flow")
}

func TestBreakOwnedByInnerLoopDoesNotTerminateCase(t *testing.T) {
	requireFatal(t, "void f(i32 x) {\n    switch (x) {\n    case 1:\n        for (;;) { break; }\n    default:\n        break;\n    }\n}\n",
		"case body must end with explicit control flow")
}

func TestEmptyCaseFallsThrough(t *testing.T) {
	r := mustTranslate(t, "void f(i32 x) {\n    switch (x) {\n    case 1:\n    case 2:\n        return;\n    default:\n        UNREACHABLE(\"bad\");\n    }\n}\n")
	assert.Contains(t, r.Output(), "case 1:\n    case 2:\n        return;")
	assert.NotContains(t, r.Output(), "default: {")
}

func TestContinueInSwitchBecomesFallthrough(t *testing.T) {
	src := "void f(i32 x) {\n    switch (x) {\n    case 1:\n        continue;\n    default:\n        break;\n    }\n}\n"

	r := mustTranslate(t, src)
	assert.Contains(t, r.Output(), "case 1:\n        __attribute__((fallthrough));")

	plain := translateWith(t, src, pipeline.Options{})
	assert.NoError(t, plain.err)
	assert.Contains(t, plain.Output(), "case 1:\n        /* fallthrough */;")
}

func TestContinueInsideLoopIsKept(t *testing.T) {
	src := "void f(i32 x) {\n    for (;;) {\n        switch (x) {\n        case 1:\n            continue;\n        default:\n            break;\n        }\n    }\n}\n"
	r := mustTranslate(t, src)
	assert.Contains(t, r.Output(), "case 1:\n            continue;")
	assert.NotContains(t, r.Output(), "fallthrough")
}
