package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileWithDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "out.cz.h")
	require.NoError(t, WriteFileWithDirs(path, []byte("#pragma once\n"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "#pragma once\n", string(data))
	assert.False(t, FileExists(path+".tmp"))
	assert.True(t, FileExists(path))
	assert.False(t, FileExists(filepath.Dir(path)))
}

func TestContentHash(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", ContentHash(nil))
	assert.NotEqual(t, ContentHash([]byte("a")), ContentHash([]byte("b")))
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("src", "app.cz.h"), OutputPath(filepath.Join("src", "app.cz"), "", "app.cz.h"))
	assert.Equal(t, filepath.Join("gen", "app.cz.c"), OutputPath(filepath.Join("src", "app.cz"), "gen", "app.cz.c"))
}
