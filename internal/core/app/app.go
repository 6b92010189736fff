// Package app builds .cz inputs into generated header/source pairs and
// keeps them up to date in watch mode.
package app

import (
	"fmt"
	"log/slog"
	"sync"

	"czar/internal/core/config"
	"czar/internal/core/ports"
	"czar/internal/data/cache"
	"czar/internal/engine/diag"
	"czar/internal/engine/translator"
	"czar/internal/shared/util"

	"github.com/gobwas/glob"
)

// BuildResult is the outcome for one input.
type BuildResult struct {
	Input    string
	Header   string // written header path
	Source   string // written source path
	Warnings []*diag.Diagnostic
	Err      error
	Cached   bool
}

// Update is published after every build batch.
type Update struct {
	RunID   string
	Results []BuildResult
}

// Failed counts results carrying an error.
func (u Update) Failed() int {
	n := 0
	for _, r := range u.Results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

type App struct {
	Config     *config.Config
	translator ports.Translator
	cache      ports.BuildCache
	limiter    *util.Limiter

	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob

	updateMu sync.RWMutex
	onUpdate func(Update)
	last     Update
}

type Option func(*App)

func WithTranslator(t ports.Translator) Option {
	return func(a *App) { a.translator = t }
}

func WithCache(c ports.BuildCache) Option {
	return func(a *App) { a.cache = c }
}

// New wires an App from cfg. The SQLite cache opens when enabled in cfg
// and no cache was supplied.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	dirs, err := compileGlobs(cfg.Exclude.Dirs, "exclude dir")
	if err != nil {
		return nil, err
	}
	files, err := compileGlobs(cfg.Exclude.Files, "exclude file")
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:       cfg,
		limiter:      util.NewLimiter(cfg.Watch.RebuildRate, cfg.Watch.RebuildBurst),
		excludeDirs:  dirs,
		excludeFiles: files,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.translator == nil {
		a.translator = translator.New()
	}
	if a.cache == nil && cfg.Cache.Enabled {
		store, err := cache.Open(cfg.Cache.Path)
		if err != nil {
			return nil, err
		}
		slog.Debug("build cache opened", "path", store.Path())
		a.cache = store
	}
	return a, nil
}

func compileGlobs(patterns []string, label string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s pattern %q: %w", label, p, err)
		}
		out = append(out, g)
	}
	return out, nil
}

// SetUpdateHandler registers fn to receive every build batch.
func (a *App) SetUpdateHandler(fn func(Update)) {
	a.updateMu.Lock()
	defer a.updateMu.Unlock()
	a.onUpdate = fn
}

// CurrentUpdate returns the last published batch.
func (a *App) CurrentUpdate() Update {
	a.updateMu.RLock()
	defer a.updateMu.RUnlock()
	return a.last
}

func (a *App) publish(u Update) {
	a.updateMu.Lock()
	a.last = u
	fn := a.onUpdate
	a.updateMu.Unlock()
	if fn != nil {
		fn(u)
	}
}

// CacheEnabled reports whether builds consult a cache.
func (a *App) CacheEnabled() bool { return a.cache != nil }

func (a *App) Close() error {
	if a.cache != nil {
		return a.cache.Close()
	}
	return nil
}
