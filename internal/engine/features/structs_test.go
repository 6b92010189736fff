package features

import (
	"testing"

	"czar/internal/engine/pipeline"

	"github.com/stretchr/testify/assert"
)

func TestInitializerShorthand(t *testing.T) {
	src := "struct P { i32 x; };\nvoid f(void) {\n    P a = P { 1 };\n    P b = {};\n    g(&a, &b);\n}\n"
	out := mustTranslate(t, src).Output()
	assert.Contains(t, out, "const P_t a = { 1 };")
	assert.Contains(t, out, "const P_t b = {0};")
}

func TestStructTagAfterKeyword(t *testing.T) {
	src := "struct Node { i32 v; struct Node *next; };\nunion Num { i32 i; f32 f; };\nunion Num n = {0};\n"
	out := mustTranslate(t, src).Output()
	assert.Contains(t, out, "typedef struct Node_s { int32_t v; struct Node_s *next; } Node_t;")
	assert.Contains(t, out, "typedef union Num_u { int32_t i; float f; } Num_t;")
	assert.Contains(t, out, "union Num_u n = {0};")
}

func TestHandWrittenTypedefIsTracked(t *testing.T) {
	src := "typedef struct Pt_s { i32 x; } Pt_t;\nvoid f(Pt *p) {\n    g(p.x);\n}\n"
	out := mustTranslate(t, src).Output()
	assert.Contains(t, out, "void f(const Pt_t * const p)")
	assert.Contains(t, out, "g(p->x);")
}

func TestHeaderStructsRewriteUses(t *testing.T) {
	r := translateWith(t, "void f(Vec *v) {\n    g(v.x);\n}\n", pipeline.Options{GNUExtensions: true}, "Vec")
	assert.NoError(t, r.err)
	assert.Contains(t, r.Output(), "void f(const Vec_t * const v)")
	assert.Contains(t, r.Output(), "g(v->x);")
}

func TestInstanceMethodCallPassesReceiver(t *testing.T) {
	src := "struct Counter { i32 n; };\nvoid Counter.bump() { self.n = self.n + 1; }\nvoid run(void) { mut Counter c = {}; c.bump(); }\n"
	out := mustTranslate(t, src).Output()
	assert.Equal(t, "typedef struct Counter_s { int32_t n; } Counter_t;\n"+
		"void Counter_bump(Counter_t * self) { self->n = self->n + 1; }\n"+
		"void run(void) { Counter_t c = {0}; Counter_bump(&c); }\n", out)
}

func TestPointerReceiverAndArguments(t *testing.T) {
	src := "struct Acc { i32 n; };\nvoid Acc.add(i32 k) { self.n = self.n + k; }\n" +
		"void run(mut Acc *a) {\n    a.add(1);\n    a->add(2);\n}\n"
	out := mustTranslate(t, src).Output()
	assert.Contains(t, out, "void Acc_add(Acc_t * self, const int32_t k)")
	assert.Contains(t, out, "Acc_add(a, 1);")
	assert.Contains(t, out, "Acc_add(a, 2);")
}

func TestStaticAndLogCalls(t *testing.T) {
	src := "struct M { i32 a; };\ni32 M.zero() { return 0; }\nvoid f(void) {\n    i32 z = M.zero();\n    Log.info(\"z\");\n}\n"
	out := mustTranslate(t, src).Output()
	assert.Contains(t, out, "const int32_t z = M_zero();")
	assert.Contains(t, out, "cz_log_info(\"z\");")
}

func TestMethodErrors(t *testing.T) {
	requireFatal(t, "void Nope.run() { }\n", "declared on unknown struct 'Nope'")
	requireFatal(t, "struct A { i32 n; };\nstruct B { i32 n; };\n"+
		"void A.reset() { self.n = 0; }\nvoid B.reset() { self.n = 0; }\n"+
		"void f(Thing *p) {\n    p.reset();\n}\n", "ambiguous method call 'p.reset'")
}

func TestAutoDerefLocalPointer(t *testing.T) {
	src := "struct P { i32 x; };\ni32 get(P *p) {\n    P *q = p;\n    return q.x;\n}\n"
	out := mustTranslate(t, src).Output()
	assert.Contains(t, out, "return q->x;")
}

func TestAutoDerefRespectsShadowing(t *testing.T) {
	src := "struct P { i32 x; };\ni32 get(P *p) {\n    {\n        P p = {0};\n        return p.x;\n    }\n}\n"
	out := mustTranslate(t, src).Output()
	assert.Contains(t, out, "return p.x;")
}
