package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestBreakerTransitions(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(0, 0)
	b := NewBreaker("breaker-test", 2, 0.5, time.Minute)
	b.now = func() time.Time { return now }

	require.True(t, b.Allow(ctx))
	b.Report(ctx, false)
	require.True(t, b.Allow(ctx))
	b.Report(ctx, false)

	require.Equal(t, Open, b.State())
	require.False(t, b.Allow(ctx))

	now = now.Add(time.Minute)
	require.True(t, b.Allow(ctx))
	require.Equal(t, HalfOpen, b.State())

	b.Report(ctx, true)
	require.Equal(t, Closed, b.State())

	require.Equal(t, 1.0, testutil.ToFloat64(breakerOpened.WithLabelValues("breaker-test")))
	require.Equal(t, 0.0, testutil.ToFloat64(breakerState.WithLabelValues("breaker-test")))
	require.Equal(t, 1.0, testutil.ToFloat64(breakerTransitions.WithLabelValues("breaker-test", "open", "half_open")))
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(0, 0)
	b := NewBreaker("breaker-reopen", 1, 0.5, time.Second)
	b.now = func() time.Time { return now }

	b.Report(ctx, false)
	require.Equal(t, Open, b.State())

	now = now.Add(time.Second)
	require.True(t, b.Allow(ctx))
	b.Report(ctx, false)
	require.Equal(t, Open, b.State())
	require.False(t, b.Allow(ctx))
}

func TestBreakerStaysClosedBelowRatio(t *testing.T) {
	ctx := context.Background()
	b := NewBreaker("breaker-ratio", 4, 0.5, time.Second)
	for i := 0; i < 20; i++ {
		b.Report(ctx, i%4 != 0)
	}
	require.Equal(t, Closed, b.State())
}

func TestBackoff(t *testing.T) {
	base := 100 * time.Millisecond
	require.Equal(t, base, Backoff(base, 1, 0))
	require.Equal(t, base*4, Backoff(base, 3, 0))

	d := Backoff(base, 2, 0.2)
	require.GreaterOrEqual(t, d, base*2-base*2/5)
	require.LessOrEqual(t, d, base*2+base*2/5)
}
