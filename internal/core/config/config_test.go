package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cz.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
version = 1

[translate]
gnu_extensions = false
debug = true
runtime_header = " runtime/cz.h "
disabled = ["unused", " "]

[output]
dir = "build/gen"

[watch]
debounce = "1s"
rebuild_rate = 2.5

[exclude]
files = ["*.tmp.cz"]

[cache]
enabled = true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.Translate.GNUExtensions)
	assert.True(t, cfg.Translate.Debug)
	assert.Equal(t, "runtime/cz.h", cfg.Translate.RuntimeHeader)
	assert.Equal(t, []string{"unused"}, cfg.Translate.Disabled)
	assert.Equal(t, "build/gen", cfg.Output.Dir)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
	assert.Equal(t, 2.5, cfg.Watch.RebuildRate)
	assert.Equal(t, 2, cfg.Watch.RebuildBurst)
	assert.Equal(t, []string{".git", "build"}, cfg.Exclude.Dirs)
	assert.Equal(t, []string{"*.tmp.cz"}, cfg.Exclude.Files)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, ".czar/cache.db", cfg.Cache.Path)
	assert.Equal(t, "127.0.0.1:9464", cfg.Observability.Address)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 1, cfg.Version)
	assert.True(t, cfg.Translate.GNUExtensions)
	assert.Equal(t, "cz.h", cfg.Translate.RuntimeHeader)
	assert.Equal(t, 300*time.Millisecond, cfg.Watch.Debounce)
	assert.NoError(t, Validate(cfg))
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"version", "version = 3\n", "unsupported config version 3"},
		{"rate", "[watch]\nrebuild_rate = -1.0\n", "watch.rebuild_rate must be > 0"},
		{"glob", "[exclude]\nfiles = [\"[a\"]\n", "exclude.files[0]"},
		{"tracing", "[observability]\nenable_tracing = true\n", "otlp_endpoint is required"},
		{"syntax", "version = \n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CZAR_TRANSLATE_DEBUG", "TRUE")
	t.Setenv("CZAR_TRANSLATE_DISABLED", "unused, defer")
	t.Setenv("CZAR_WATCH_DEBOUNCE", "2s")
	t.Setenv("CZAR_WATCH_REBUILD_BURST", "not-a-number")
	t.Setenv("CZAR_OBSERVABILITY_ADDRESS", "0.0.0.0:9000")

	cfg, _, err := Discover(writeConfig(t, "version = 1\n"))
	require.NoError(t, err)
	assert.True(t, cfg.Translate.Debug)
	assert.Equal(t, []string{"unused", "defer"}, cfg.Translate.Disabled)
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce)
	assert.Equal(t, 2, cfg.Watch.RebuildBurst)
	assert.Equal(t, "0.0.0.0:9000", cfg.Observability.Address)
}

func TestDiscover(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, path, err := Discover("")
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, DefaultConfig(), cfg)

	require.NoError(t, os.WriteFile(DefaultFile, []byte("[output]\ndir = \"out\"\n"), 0o644))
	cfg, path, err = Discover("")
	require.NoError(t, err)
	assert.Equal(t, DefaultFile, path)
	assert.Equal(t, "out", cfg.Output.Dir)

	_, _, err = Discover("missing.toml")
	assert.Error(t, err)
}
