package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	// Keys present in the file replace the defaults; list keys replace whole lists.
	cfg.Exclude = Exclude{}
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, err
	}
	if !md.IsDefined("exclude", "dirs") {
		cfg.Exclude.Dirs = DefaultConfig().Exclude.Dirs
	}

	applyDefaults(cfg)
	normalize(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Discover loads explicit when set, else ./cz.toml when present, else the
// defaults. Environment overrides apply in every case.
func Discover(explicit string) (*Config, string, error) {
	path := strings.TrimSpace(explicit)
	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}

	var cfg *Config
	if path == "" {
		cfg = DefaultConfig()
	} else {
		loaded, err := Load(path)
		if err != nil {
			if explicit == "" && errors.Is(err, fs.ErrNotExist) {
				loaded = DefaultConfig()
			} else {
				return nil, path, err
			}
		}
		cfg = loaded
	}

	ApplyEnvOverrides(cfg)
	normalize(cfg)
	if err := Validate(cfg); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if strings.TrimSpace(cfg.Translate.RuntimeHeader) == "" {
		cfg.Translate.RuntimeHeader = "cz.h"
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 300 * time.Millisecond
	}
	if cfg.Watch.RebuildRate == 0 {
		cfg.Watch.RebuildRate = 4
	}
	if cfg.Watch.RebuildBurst == 0 {
		cfg.Watch.RebuildBurst = 2
	}
	if strings.TrimSpace(cfg.Cache.Path) == "" {
		cfg.Cache.Path = ".czar/cache.db"
	}
	if strings.TrimSpace(cfg.Observability.Address) == "" {
		cfg.Observability.Address = "127.0.0.1:9464"
	}
}

func normalize(cfg *Config) {
	cfg.Translate.RuntimeHeader = strings.TrimSpace(cfg.Translate.RuntimeHeader)
	cfg.Output.Dir = strings.TrimSpace(cfg.Output.Dir)
	cfg.Cache.Path = strings.TrimSpace(cfg.Cache.Path)
	cfg.Observability.Address = strings.TrimSpace(cfg.Observability.Address)
	cfg.Observability.OTLPEndpoint = strings.TrimSpace(cfg.Observability.OTLPEndpoint)
	cfg.Translate.Disabled = trimList(cfg.Translate.Disabled)
	cfg.Exclude.Dirs = trimList(cfg.Exclude.Dirs)
	cfg.Exclude.Files = trimList(cfg.Exclude.Files)
}

func trimList(in []string) []string {
	if len(in) == 0 {
		return in
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
