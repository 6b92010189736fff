package util

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket shared by rebuild batches.
type Limiter struct {
	inner *rate.Limiter
}

// NewLimiter allows r events per second with bursts of b.
func NewLimiter(r float64, b int) *Limiter {
	return &Limiter{inner: rate.NewLimiter(rate.Limit(r), b)}
}

func (l *Limiter) Allow() bool {
	return l.inner.AllowN(time.Now(), 1)
}

// Throttle takes one token, blocking until it is available. It reports
// whether the caller had to wait.
func (l *Limiter) Throttle(ctx context.Context) (bool, error) {
	if l.Allow() {
		return false, nil
	}
	return true, l.inner.Wait(ctx)
}
