package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"czar/internal/core/errors"
	"czar/internal/data/cache"
	"czar/internal/engine/imports"
	"czar/internal/engine/parser"
	"czar/internal/engine/translator"
	"czar/internal/shared/observability"
	"czar/internal/shared/util"
)

// Summary describes one Build call.
type Summary struct {
	RunID    string
	Results  []BuildResult
	Duration time.Duration
}

// Failed counts inputs that did not translate.
func (s Summary) Failed() int {
	return Update{Results: s.Results}.Failed()
}

// Cached counts inputs served from the build cache.
func (s Summary) Cached() int {
	n := 0
	for _, r := range s.Results {
		if r.Cached {
			n++
		}
	}
	return n
}

// TranslatorOptions maps the translate table of the config.
func (a *App) TranslatorOptions() translator.Options {
	t := a.Config.Translate
	return translator.Options{
		GNUExtensions:    t.GNUExtensions,
		Debug:            t.Debug,
		RuntimeHeader:    t.RuntimeHeader,
		DisabledFeatures: append([]string(nil), t.Disabled...),
	}
}

// Build translates every input in order. Per-file failures are reported on
// the results; the returned error covers run bookkeeping and cancellation.
func (a *App) Build(ctx context.Context, inputs []string) (Summary, error) {
	start := time.Now()
	sum := Summary{Results: make([]BuildResult, 0, len(inputs))}

	if a.cache != nil {
		id, err := a.cache.BeginRun(start)
		if err != nil {
			slog.Warn("failed to record build run", "error", err)
		} else {
			sum.RunID = id
		}
	}

	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.Results = append(sum.Results, a.BuildFile(ctx, in))
	}
	sum.Duration = time.Since(start)

	if sum.RunID != "" {
		err := a.cache.FinishRun(cache.Run{
			ID:         sum.RunID,
			StartedAt:  start,
			FinishedAt: start.Add(sum.Duration),
			Files:      len(sum.Results),
			Cached:     sum.Cached(),
			Failed:     sum.Failed(),
			Duration:   sum.Duration,
		})
		if err != nil {
			slog.Warn("failed to close build run", "run", sum.RunID, "error", err)
		}
	}

	slog.Debug("build finished",
		"files", len(sum.Results),
		"cached", sum.Cached(),
		"failed", sum.Failed(),
		"duration", sum.Duration,
	)
	a.publish(Update{RunID: sum.RunID, Results: sum.Results})
	return sum, nil
}

// BuildFile translates one input and writes its header and source.
func (a *App) BuildFile(ctx context.Context, input string) BuildResult {
	res := BuildResult{
		Input:  input,
		Header: util.OutputPath(input, a.Config.Output.Dir, translator.HeaderName(input)),
		Source: util.OutputPath(input, a.Config.Output.Dir, translator.SourceName(input)),
	}

	src, err := os.ReadFile(input)
	if err != nil {
		res.Err = errors.AtPath(err, errors.CodeIO, "read input", input)
		return res
	}

	opts := a.TranslatorOptions()
	fp := fingerprint(input, src, opts)
	if a.cacheHit(input, fp, res) {
		observability.CacheHitsTotal.Inc()
		res.Cached = true
		slog.Debug("translation cached", "file", input)
		return res
	}
	if a.cache != nil {
		observability.CacheMissesTotal.Inc()
	}

	out, err := a.translator.Translate(ctx, input, src, opts)
	if out != nil {
		res.Warnings = out.Warnings
	}
	if err != nil {
		res.Err = err
		slog.Debug("translation failed", "file", input, "code", errors.CodeOf(err))
		if a.cache != nil {
			if ferr := a.cache.Forget(input); ferr != nil {
				slog.Warn("failed to drop cache entry", "file", input, "error", ferr)
			}
		}
		return res
	}

	if err := util.WriteFileWithDirs(res.Header, []byte(out.Header), 0o644); err != nil {
		res.Err = errors.AtPath(err, errors.CodeIO, "write header", res.Header)
		return res
	}
	if err := util.WriteFileWithDirs(res.Source, []byte(out.Source), 0o644); err != nil {
		res.Err = errors.AtPath(err, errors.CodeIO, "write source", res.Source)
		return res
	}

	// Files with warnings are not cached so the warnings repeat on the next build.
	if a.cache != nil && len(res.Warnings) == 0 {
		err := a.cache.Record(cache.Entry{
			Input:       input,
			SourceHash:  fp.source,
			OptionsHash: fp.options,
			DepsHash:    fp.deps,
			HeaderPath:  res.Header,
			SourcePath:  res.Source,
			UpdatedAt:   time.Now().UTC(),
		})
		if err != nil {
			slog.Warn("failed to record cache entry", "file", input, "error", err)
		}
	}
	return res
}

func (a *App) cacheHit(input string, fp fingerprints, res BuildResult) bool {
	if a.cache == nil {
		return false
	}
	entry, ok, err := a.cache.Lookup(input)
	if err != nil {
		slog.Warn("cache lookup failed", "file", input, "error", err)
		return false
	}
	if !ok || !entry.Matches(fp.source, fp.options, fp.deps) {
		return false
	}
	return entry.HeaderPath == res.Header && entry.SourcePath == res.Source &&
		util.FileExists(res.Header) && util.FileExists(res.Source)
}

type fingerprints struct {
	source  string
	options string
	deps    string
}

// fingerprint hashes everything a translation reads besides the source:
// imported header contents and the sibling set, which decides the
// generated include list.
func fingerprint(input string, src []byte, opts translator.Options) fingerprints {
	dir := filepath.Dir(input)

	var b strings.Builder
	resolved := imports.ResolveAll(dir, parser.Parse(src))
	for _, r := range resolved {
		for _, h := range r.Headers {
			data, err := os.ReadFile(h)
			if err != nil {
				fmt.Fprintf(&b, "%s:missing\n", h)
				continue
			}
			fmt.Fprintf(&b, "%s:%s\n", h, util.ContentHash(data))
		}
		fmt.Fprintf(&b, "import:%s:%d\n", r.Path, r.Kind)
	}
	for _, s := range imports.Siblings(dir, input) {
		fmt.Fprintf(&b, "sibling:%s\n", s)
	}

	return fingerprints{
		source:  util.ContentHash(src),
		options: util.ContentHash([]byte(fmt.Sprintf("%+v", opts))),
		deps:    util.ContentHash([]byte(b.String())),
	}
}
