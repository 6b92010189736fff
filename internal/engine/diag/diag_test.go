package diag

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorfFormat(t *testing.T) {
	r := NewReporter("main.cz", []byte("void f(void) {\n    u8 x;\n}\n"))
	d := r.Errorf(2, "variable '%s' must be explicitly initialized", "x")

	assert.Equal(t, "[CZAR] ERROR at main.cz:2: variable 'x' must be explicitly initialized", d.Error())
	assert.Equal(t, d.Error()+"\n    > u8 x;", d.Format())
}

func TestErrorfIsUnwrappable(t *testing.T) {
	r := NewReporter("a.cz", nil)
	err := fmt.Errorf("wrapped: %w", r.Errorf(1, "boom"))

	var d *Diagnostic
	require.True(t, errors.As(err, &d))
	assert.Equal(t, Error, d.Severity)
}

func TestWarnfCollects(t *testing.T) {
	r := NewReporter("a.cz", []byte("u32 f() {}"))
	r.Warnf(1, "empty parameter list in '%s'; use 'void'", "f")
	r.Warnf(40, "out of range line")

	ws := r.Warnings()
	require.Len(t, ws, 2)
	assert.Equal(t, "[CZAR] WARNING at a.cz:1: empty parameter list in 'f'; use 'void'", ws[0].Error())
	assert.Equal(t, "u32 f() {}", ws[0].Source)
	assert.Equal(t, ws[1].Error(), ws[1].Format())
}
