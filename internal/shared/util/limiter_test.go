package util

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter(t *testing.T) {
	// 10 tokens per second, burst of 2
	l := NewLimiter(10, 2)

	assert.True(t, l.Allow(), "first token")
	assert.True(t, l.Allow(), "second token (burst)")
	assert.False(t, l.Allow(), "burst exhausted")

	time.Sleep(150 * time.Millisecond)
	assert.True(t, l.Allow(), "token refilled after wait")
}

func TestThrottle(t *testing.T) {
	l := NewLimiter(50, 1)

	waited, err := l.Throttle(context.Background())
	require.NoError(t, err)
	assert.False(t, waited)

	waited, err = l.Throttle(context.Background())
	require.NoError(t, err)
	assert.True(t, waited)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewLimiter(0.001, 1).Throttle(ctx)
	assert.NoError(t, err, "a fresh bucket never waits")

	slow := NewLimiter(0.001, 1)
	slow.Allow()
	_, err = slow.Throttle(ctx)
	assert.Error(t, err)
}
