package config

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Validate checks a loaded or overridden configuration.
func Validate(cfg *Config) error {
	if err := validateVersion(cfg); err != nil {
		return err
	}
	if err := validateWatch(cfg); err != nil {
		return err
	}
	if err := validateExclude(cfg); err != nil {
		return err
	}
	if err := validateCache(cfg); err != nil {
		return err
	}
	return validateObservability(cfg)
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", cfg.Watch.Debounce)
	}
	if cfg.Watch.RebuildRate <= 0 {
		return fmt.Errorf("watch.rebuild_rate must be > 0, got %g", cfg.Watch.RebuildRate)
	}
	if cfg.Watch.RebuildBurst < 1 {
		return fmt.Errorf("watch.rebuild_burst must be >= 1, got %d", cfg.Watch.RebuildBurst)
	}
	return nil
}

func validateExclude(cfg *Config) error {
	for i, pattern := range cfg.Exclude.Files {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("exclude.files[%d] %q is not a valid glob: %w", i, pattern, err)
		}
	}
	for i, dir := range cfg.Exclude.Dirs {
		if _, err := glob.Compile(dir); err != nil {
			return fmt.Errorf("exclude.dirs[%d] %q is not a valid glob: %w", i, dir, err)
		}
	}
	return nil
}

func validateCache(cfg *Config) error {
	if cfg.Cache.Enabled && strings.TrimSpace(cfg.Cache.Path) == "" {
		return fmt.Errorf("cache.path must not be empty when the cache is enabled")
	}
	return nil
}

func validateObservability(cfg *Config) error {
	if cfg.Observability.Enabled && cfg.Observability.Address == "" {
		return fmt.Errorf("observability.address must not be empty when observability is enabled")
	}
	if cfg.Observability.EnableTracing && cfg.Observability.OTLPEndpoint == "" {
		return fmt.Errorf("observability.otlp_endpoint is required when tracing is enabled")
	}
	return nil
}
