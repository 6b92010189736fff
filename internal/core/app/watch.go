package app

import (
	"context"
	"log/slog"
	"os"

	"czar/internal/core/watcher"
	"czar/internal/shared/observability"
)

// Watch rebuilds changed inputs under paths until ctx is done. Rebuild
// batches are rate limited; onBatch, when set, receives every summary.
func (a *App) Watch(ctx context.Context, paths []string, onBatch func(Summary)) error {
	changes := make(chan []string, 16)
	w, err := watcher.NewWatcher(
		a.Config.Watch.Debounce,
		a.Config.Exclude.Dirs,
		a.Config.Exclude.Files,
		func(files []string) {
			select {
			case changes <- files:
			case <-ctx.Done():
			}
		},
	)
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Watch(paths); err != nil {
		return err
	}
	slog.Info("watching for changes", "paths", paths)

	for {
		select {
		case <-ctx.Done():
			return nil
		case files := <-changes:
			waited, err := a.limiter.Throttle(ctx)
			if err != nil {
				return nil
			}
			if waited {
				observability.RebuildsThrottledTotal.Inc()
			}

			files = append(files, drain(changes)...)
			inputs := a.existing(dedupe(files))
			if len(inputs) == 0 {
				continue
			}
			sum, err := a.Build(ctx, inputs)
			if err != nil {
				return nil
			}
			if onBatch != nil {
				onBatch(sum)
			}
		}
	}
}

func drain(ch <-chan []string) []string {
	var out []string
	for {
		select {
		case files := <-ch:
			out = append(out, files...)
		default:
			return out
		}
	}
}

func dedupe(files []string) []string {
	seen := make(map[string]bool, len(files))
	out := files[:0]
	for _, f := range files {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

// existing drops files removed before the batch ran.
func (a *App) existing(files []string) []string {
	var out []string
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			slog.Debug("skipping removed input", "file", f)
			continue
		}
		out = append(out, f)
	}
	return out
}
