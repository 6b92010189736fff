package config

import (
	"time"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = "cz.toml"

type Config struct {
	Version       int           `toml:"version"`
	Translate     Translate     `toml:"translate"`
	Output        Output        `toml:"output"`
	Watch         Watch         `toml:"watch"`
	Exclude       Exclude       `toml:"exclude"`
	Cache         Cache         `toml:"cache"`
	Observability Observability `toml:"observability"`
}

type Translate struct {
	GNUExtensions bool   `toml:"gnu_extensions"`
	Debug         bool   `toml:"debug"`
	RuntimeHeader string `toml:"runtime_header"`
	// Disabled lists feature names switched off for every translation.
	Disabled []string `toml:"disabled"`
}

type Output struct {
	// Dir receives generated files; empty writes them next to each input.
	Dir string `toml:"dir"`
}

type Watch struct {
	Debounce     time.Duration `toml:"debounce"`
	RebuildRate  float64       `toml:"rebuild_rate"`
	RebuildBurst int           `toml:"rebuild_burst"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Cache struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Observability struct {
	Enabled       bool   `toml:"enabled"`
	Address       string `toml:"address"`
	EnableTracing bool   `toml:"enable_tracing"`
	OTLPEndpoint  string `toml:"otlp_endpoint"`
}

// DefaultConfig is used when no cz.toml exists.
func DefaultConfig() *Config {
	cfg := &Config{
		Translate: Translate{GNUExtensions: true},
		Exclude: Exclude{
			Dirs: []string{".git", "build"},
		},
	}
	applyDefaults(cfg)
	return cfg
}
