package app

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"czar/internal/core/config"
	"czar/internal/core/errors"
	"czar/internal/data/cache"
	"czar/internal/engine/translator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTranslator struct {
	calls atomic.Int32
	err   error
}

func (f *fakeTranslator) Translate(_ context.Context, file string, src []byte, _ translator.Options) (*translator.Result, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &translator.Result{
		File:   file,
		Header: "/* h */\n" + string(src),
		Source: "/* c */\n",
	}, nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestApp(t *testing.T, opts ...Option) *App {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Cache.Enabled = false
	a, err := New(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func openCache(t *testing.T) *cache.Store {
	t.Helper()
	s, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	return s
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.cz"), "")
	writeFile(t, filepath.Join(root, "a.cz"), "")
	writeFile(t, filepath.Join(root, "a.cz.h"), "")
	writeFile(t, filepath.Join(root, "notes.txt"), "")
	writeFile(t, filepath.Join(root, "sub", "c.cz"), "")
	writeFile(t, filepath.Join(root, "build", "gen.cz"), "")
	writeFile(t, filepath.Join(root, "skip_me.cz"), "")
	single := filepath.Join(t.TempDir(), "one.cz")
	writeFile(t, single, "")

	a := newTestApp(t)
	a.Config.Exclude.Files = []string{"skip_*"}
	var err error
	a.excludeFiles, err = compileGlobs(a.Config.Exclude.Files, "exclude file")
	require.NoError(t, err)

	got, err := a.Discover([]string{root, single, filepath.Join(root, "a.cz")})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a.cz"),
		filepath.Join(root, "b.cz"),
		filepath.Join(root, "sub", "c.cz"),
		single,
	}, got)

	_, err = a.Discover([]string{filepath.Join(root, "missing.cz")})
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestNewRejectsBadGlobs(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Exclude.Dirs = []string{"["}
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestBuildWritesOutputsNextToInput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "app.cz")
	writeFile(t, in, "int x = 1;\n")

	fake := &fakeTranslator{}
	a := newTestApp(t, WithTranslator(fake))
	sum, err := a.Build(context.Background(), []string{in})
	require.NoError(t, err)
	require.Len(t, sum.Results, 1)
	assert.Zero(t, sum.Failed())
	assert.Empty(t, sum.RunID)

	r := sum.Results[0]
	assert.Equal(t, filepath.Join(dir, "app.cz.h"), r.Header)
	assert.Equal(t, filepath.Join(dir, "app.cz.c"), r.Source)
	h, err := os.ReadFile(r.Header)
	require.NoError(t, err)
	assert.Equal(t, "/* h */\nint x = 1;\n", string(h))
	assert.Equal(t, sum.Results, a.CurrentUpdate().Results)
}

func TestBuildHonoursOutputDir(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "app.cz")
	writeFile(t, in, "")
	out := filepath.Join(t.TempDir(), "gen")

	a := newTestApp(t, WithTranslator(&fakeTranslator{}))
	a.Config.Output.Dir = out
	sum, err := a.Build(context.Background(), []string{in})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, "app.cz.h"))
	assert.FileExists(t, filepath.Join(out, "app.cz.c"))
	assert.Zero(t, sum.Failed())
}

func TestBuildUsesCacheUntilInputsChange(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "app.cz")
	writeFile(t, in, "int x = 1;\n")

	fake := &fakeTranslator{}
	store := openCache(t)
	a := newTestApp(t, WithTranslator(fake), WithCache(store))
	ctx := context.Background()

	first, err := a.Build(ctx, []string{in})
	require.NoError(t, err)
	assert.NotEmpty(t, first.RunID)
	assert.False(t, first.Results[0].Cached)

	second, err := a.Build(ctx, []string{in})
	require.NoError(t, err)
	assert.True(t, second.Results[0].Cached)
	assert.Equal(t, 1, second.Cached())
	assert.EqualValues(t, 1, fake.calls.Load())

	// Outputs removed behind the cache's back force a rebuild.
	require.NoError(t, os.Remove(first.Results[0].Source))
	third, err := a.Build(ctx, []string{in})
	require.NoError(t, err)
	assert.False(t, third.Results[0].Cached)
	assert.EqualValues(t, 2, fake.calls.Load())

	writeFile(t, in, "int x = 2;\n")
	_, err = a.Build(ctx, []string{in})
	require.NoError(t, err)
	assert.EqualValues(t, 3, fake.calls.Load())

	a.Config.Translate.Debug = true
	_, err = a.Build(ctx, []string{in})
	require.NoError(t, err)
	assert.EqualValues(t, 4, fake.calls.Load())

	runs, err := store.Runs(10)
	require.NoError(t, err)
	assert.Len(t, runs, 5)
}

func TestImportedHeaderChangeInvalidatesCache(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "main.cz")
	writeFile(t, in, "#import \"lib\"\n")
	writeFile(t, filepath.Join(dir, "lib.cz.h"), "typedef struct A_s { int x; } A_t;\n")

	fake := &fakeTranslator{}
	a := newTestApp(t, WithTranslator(fake), WithCache(openCache(t)))
	ctx := context.Background()

	_, err := a.Build(ctx, []string{in})
	require.NoError(t, err)
	_, err = a.Build(ctx, []string{in})
	require.NoError(t, err)
	assert.EqualValues(t, 1, fake.calls.Load())

	writeFile(t, filepath.Join(dir, "lib.cz.h"), "typedef struct B_s { int y; } B_t;\n")
	_, err = a.Build(ctx, []string{in})
	require.NoError(t, err)
	assert.EqualValues(t, 2, fake.calls.Load())
}

func TestBuildReportsFailures(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "bad.cz")
	writeFile(t, in, "")

	fake := &fakeTranslator{err: errors.New(errors.CodeValidationError, "translation failed")}
	a := newTestApp(t, WithTranslator(fake))
	sum, err := a.Build(context.Background(), []string{in, filepath.Join(dir, "missing.cz")})
	require.NoError(t, err)
	require.Len(t, sum.Results, 2)
	assert.Equal(t, 2, sum.Failed())
	assert.True(t, errors.IsCode(sum.Results[0].Err, errors.CodeValidationError))
	assert.True(t, errors.IsCode(sum.Results[1].Err, errors.CodeIO))
	assert.NoFileExists(t, filepath.Join(dir, "bad.cz.h"))
}

func TestBuildStopsOnCancelledContext(t *testing.T) {
	a := newTestApp(t, WithTranslator(&fakeTranslator{}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sum, err := a.Build(ctx, []string{"a.cz"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sum.Results)
}

func TestBuildWithRealTranslator(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "prog.cz")
	writeFile(t, in, "int x = 1;\n")

	a := newTestApp(t)
	sum, err := a.Build(context.Background(), []string{in})
	require.NoError(t, err)
	require.NoError(t, sum.Results[0].Err)

	h, err := os.ReadFile(filepath.Join(dir, "prog.cz.h"))
	require.NoError(t, err)
	assert.Contains(t, string(h), "#pragma once")
	c, err := os.ReadFile(filepath.Join(dir, "prog.cz.c"))
	require.NoError(t, err)
	assert.Contains(t, string(c), `#include "prog.cz.h"`)
}

func TestHealthCheck(t *testing.T) {
	a := newTestApp(t, WithTranslator(&fakeTranslator{err: errors.New(errors.CodeInternal, "x")}))
	status := NewHealthService(a).Check(context.Background())
	assert.Equal(t, "up", status.Status)
	assert.Equal(t, "ok", status.Components["translator"])
	assert.Equal(t, "disabled", status.Components["cache"])

	dir := t.TempDir()
	in := filepath.Join(dir, "a.cz")
	writeFile(t, in, "")
	_, err := a.Build(context.Background(), []string{in})
	require.NoError(t, err)
	status = NewHealthService(a).Check(context.Background())
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "1 files, 1 failed", status.Components["last_build"])
}

func TestWatchRebuildsChangedInputs(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "app.cz")
	writeFile(t, in, "int x = 1;\n")

	a := newTestApp(t, WithTranslator(&fakeTranslator{}))
	a.Config.Watch.Debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	batches := make(chan Summary, 4)
	done := make(chan error, 1)
	go func() {
		done <- a.Watch(ctx, []string{dir}, func(s Summary) {
			select {
			case batches <- s:
			default:
			}
		})
	}()

	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	deadline := time.After(5 * time.Second)
wait:
	for {
		select {
		case s := <-batches:
			require.NotEmpty(t, s.Results)
			assert.Equal(t, in, s.Results[0].Input)
			break wait
		case <-tick.C:
			writeFile(t, in, "int x = 2;\n")
		case <-deadline:
			t.Fatal("no rebuild observed")
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestDedupeAndExisting(t *testing.T) {
	dir := t.TempDir()
	live := filepath.Join(dir, "a.cz")
	writeFile(t, live, "")
	a := newTestApp(t)

	assert.Equal(t, []string{"x", "y"}, dedupe([]string{"x", "y", "x"}))
	assert.Equal(t, []string{live}, a.existing([]string{live, filepath.Join(dir, "gone.cz")}))
}
