package ports

import (
	"context"
	"time"

	"czar/internal/data/cache"
	"czar/internal/engine/translator"
)

// Translator turns one .cz source into a header/source pair.
type Translator interface {
	Translate(ctx context.Context, file string, src []byte, opts translator.Options) (*translator.Result, error)
}

// BuildCache abstracts fingerprint persistence and the build run log.
type BuildCache interface {
	Lookup(input string) (cache.Entry, bool, error)
	Record(entry cache.Entry) error
	Forget(input string) error
	BeginRun(started time.Time) (string, error)
	FinishRun(run cache.Run) error
	Close() error
}
