package features

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"czar/internal/engine/parser"
	"czar/internal/engine/pipeline"

	"github.com/stretchr/testify/require"
)

type run struct {
	pc       *pipeline.Context
	registry *pipeline.Registry
	err      error
}

func (r run) Output() string { return r.pc.Unit.String() }

func (r run) Warnings() string {
	var msgs []string
	for _, w := range r.pc.Diag.Warnings() {
		msgs = append(msgs, w.Message)
	}
	return strings.Join(msgs, "\n")
}

func (r run) Emitted(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, r.registry.Emit(context.Background(), r.pc, &buf))
	return buf.String()
}

func translateWith(t *testing.T, src string, opts pipeline.Options, headerStructs ...string) run {
	t.Helper()
	pc := pipeline.NewContext("t.cz", []byte(src), parser.Parse([]byte(src)), opts)
	Prepare(pc)
	SeedHeaderStructs(pc, headerStructs)

	r := pipeline.NewRegistry()
	require.NoError(t, Register(r))
	ctx := context.Background()
	if err := r.Validate(ctx, pc); err != nil {
		return run{pc: pc, registry: r, err: err}
	}
	return run{pc: pc, registry: r, err: r.Transform(ctx, pc)}
}

func translate(t *testing.T, src string) run {
	t.Helper()
	return translateWith(t, src, pipeline.Options{GNUExtensions: true})
}

// mustTranslate fails the test on any fatal diagnostic.
func mustTranslate(t *testing.T, src string) run {
	t.Helper()
	r := translate(t, src)
	require.NoError(t, r.err)
	return r
}

func requireFatal(t *testing.T, src, msg string) {
	t.Helper()
	r := translate(t, src)
	require.Error(t, r.err)
	require.Contains(t, r.err.Error(), msg)
}
