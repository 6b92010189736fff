package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWatcherRejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(100*time.Millisecond, nil, nil, nil)
	assert.ErrorIs(t, err, os.ErrInvalid)
	assert.Nil(t, w)

	_, err = NewWatcher(time.Millisecond, []string{"[a"}, nil, func([]string) {})
	assert.Error(t, err)
}

func TestRelevantAndExcludedDir(t *testing.T) {
	w, err := NewWatcher(time.Millisecond, []string{"build", ".*"}, []string{"*.tmp.cz"}, func([]string) {})
	require.NoError(t, err)
	defer w.Close()

	assert.True(t, w.Relevant("src/app.cz"))
	assert.True(t, w.Relevant("src/APP.CZ"))
	assert.False(t, w.Relevant("src/app.cz.h"))
	assert.False(t, w.Relevant("src/app.cz.c"))
	assert.False(t, w.Relevant("src/scratch.tmp.cz"))

	assert.True(t, w.ExcludedDir("/repo/build"))
	assert.True(t, w.ExcludedDir("/repo/.git"))
	assert.False(t, w.ExcludedDir("/repo/src"))
}

func waitForChange(t *testing.T, ch <-chan []string, want string) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case paths := <-ch:
			for _, p := range paths {
				if p == want {
					return
				}
			}
		case <-deadline:
			t.Fatalf("timed out waiting for change to %s", want)
		}
	}
}

func TestWatcherReportsSourceChanges(t *testing.T) {
	dir := t.TempDir()
	changed := make(chan []string, 8)
	w, err := NewWatcher(50*time.Millisecond, []string{"build"}, nil, func(paths []string) {
		changed <- paths
	})
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Watch([]string{dir}))

	src := filepath.Join(dir, "app.cz")
	require.NoError(t, os.WriteFile(src, []byte("u8 x = 1;\n"), 0o644))
	waitForChange(t, changed, src)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.cz.h"), []byte("#pragma once\n"), 0o644))
	select {
	case paths := <-changed:
		t.Fatalf("generated header triggered a rebuild: %v", paths)
	case <-time.After(300 * time.Millisecond):
	}

	sub := filepath.Join(dir, "lib")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	time.Sleep(100 * time.Millisecond)
	nested := filepath.Join(sub, "vec.cz")
	require.NoError(t, os.WriteFile(nested, []byte("u8 y = 1;\n"), 0o644))
	waitForChange(t, changed, nested)
}
