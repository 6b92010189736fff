package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	FeatureDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "czar_feature_pass_seconds",
		Help:    "Time spent in one feature hook.",
		Buckets: prometheus.DefBuckets,
	}, []string{"feature", "phase"})

	FeaturesSuppressedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "czar_features_suppressed_total",
		Help: "Features skipped because of a missing or cyclic dependency.",
	}, []string{"feature"})

	TranslationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "czar_translation_seconds",
		Help:    "Time spent translating one .cz file.",
		Buckets: prometheus.DefBuckets,
	})

	TranslationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "czar_translations_total",
		Help: "Total translations by result (ok, error, cached).",
	}, []string{"result"})

	DiagnosticsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "czar_diagnostics_total",
		Help: "Diagnostics reported, by severity.",
	}, []string{"severity"})

	UnitTokens = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "czar_unit_tokens",
		Help:    "Token vector length of a translation unit after rewriting.",
		Buckets: prometheus.ExponentialBuckets(64, 2, 12),
	})

	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "czar_build_cache_hits_total",
		Help: "Inputs skipped because the build cache was fresh.",
	})

	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "czar_build_cache_misses_total",
		Help: "Inputs translated because the build cache was stale or empty.",
	})

	ImportHeaderScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "czar_import_header_scans_total",
		Help: "Imported header scans, by source (disk, cache).",
	}, []string{"source"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "czar_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	RebuildsThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "czar_watch_rebuilds_throttled_total",
		Help: "Rebuild batches delayed by the watch-mode rate limiter.",
	})
)
