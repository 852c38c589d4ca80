package ratelimiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, maxReq int, period time.Duration) (*Limiter, *time.Time, *[]time.Duration) {
	t.Helper()
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	var slept []time.Duration
	lim := New("test-model", maxReq, period)
	lim.now = func() time.Time { return now }
	lim.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		now = now.Add(d)
		return nil
	}
	return lim, &now, &slept
}

func TestLimiterUnderBudgetNeverSleeps(t *testing.T) {
	lim, _, slept := newTestLimiter(t, 3, time.Minute)
	for i := 0; i < 3; i++ {
		require.NoError(t, lim.Acquire(context.Background()))
	}
	assert.Empty(t, *slept)
}

func TestLimiterDelaysWhenWindowFull(t *testing.T) {
	lim, now, slept := newTestLimiter(t, 2, time.Minute)
	require.NoError(t, lim.Acquire(context.Background()))
	*now = now.Add(10 * time.Second)
	require.NoError(t, lim.Acquire(context.Background()))
	*now = now.Add(5 * time.Second)

	// Third request arrives 15s into the window; oldest slot frees at 60s.
	require.NoError(t, lim.Acquire(context.Background()))
	require.Len(t, *slept, 1)
	assert.Equal(t, 45*time.Second, (*slept)[0])
}

func TestLimiterWindowSlides(t *testing.T) {
	lim, now, slept := newTestLimiter(t, 2, time.Minute)
	require.NoError(t, lim.Acquire(context.Background()))
	require.NoError(t, lim.Acquire(context.Background()))
	*now = now.Add(time.Minute)

	// A full period later the window is empty again.
	require.NoError(t, lim.Acquire(context.Background()))
	assert.Empty(t, *slept)
}

func TestLimiterAcquireRespectsContext(t *testing.T) {
	lim, _, _ := newTestLimiter(t, 1, time.Minute)
	lim.sleep = func(ctx context.Context, _ time.Duration) error {
		return context.Canceled
	}
	require.NoError(t, lim.Acquire(context.Background()))
	err := lim.Acquire(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRegistrySharesLimiterPerModel(t *testing.T) {
	reg := NewRegistry()
	a := reg.Get("model-a", 5, time.Minute)
	b := reg.Get("model-a", 99, time.Hour)
	c := reg.Get("model-b", 5, time.Minute)

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 5, b.maxRequests)
}
