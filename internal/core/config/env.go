package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: CZAR_[SECTION]_[KEY] (e.g., CZAR_TRANSLATE_DEBUG).
func ApplyEnvOverrides(cfg *Config) {
	// Translate
	setEnvBool(&cfg.Translate.GNUExtensions, "CZAR_TRANSLATE_GNU_EXTENSIONS")
	setEnvBool(&cfg.Translate.Debug, "CZAR_TRANSLATE_DEBUG")
	setEnvString(&cfg.Translate.RuntimeHeader, "CZAR_TRANSLATE_RUNTIME_HEADER")
	setEnvList(&cfg.Translate.Disabled, "CZAR_TRANSLATE_DISABLED")

	setEnvString(&cfg.Output.Dir, "CZAR_OUTPUT_DIR")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "CZAR_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.RebuildRate, "CZAR_WATCH_REBUILD_RATE")
	setEnvInt(&cfg.Watch.RebuildBurst, "CZAR_WATCH_REBUILD_BURST")

	// Cache
	setEnvBool(&cfg.Cache.Enabled, "CZAR_CACHE_ENABLED")
	setEnvString(&cfg.Cache.Path, "CZAR_CACHE_PATH")

	// Observability
	setEnvBool(&cfg.Observability.Enabled, "CZAR_OBSERVABILITY_ENABLED")
	setEnvString(&cfg.Observability.Address, "CZAR_OBSERVABILITY_ADDRESS")
	setEnvBool(&cfg.Observability.EnableTracing, "CZAR_OBSERVABILITY_ENABLE_TRACING")
	setEnvString(&cfg.Observability.OTLPEndpoint, "CZAR_OBSERVABILITY_OTLP_ENDPOINT")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = strings.Split(val, ",")
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
