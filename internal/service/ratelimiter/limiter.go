// Package ratelimiter provides a per-model sliding-window request limiter.
//
// Every agent that references the same model name shares one limiter, so the
// aggregate request rate against a model stays within its configured window
// regardless of how many agents use it. The limiter never rejects a request;
// it only delays the caller until a slot frees up.
package ratelimiter

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fairyhunter13/crhoy-crawler/internal/adapter/observability"
)

// Limiter tracks request timestamps for one model inside a sliding window.
type Limiter struct {
	model       string
	maxRequests int
	period      time.Duration

	mu         sync.Mutex
	timestamps []time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// Registry holds one limiter per model name.
type Registry struct {
	mu       sync.Mutex
	limiters map[string]*Limiter
}

// NewRegistry constructs an empty limiter registry.
func NewRegistry() *Registry {
	return &Registry{limiters: make(map[string]*Limiter)}
}

// Get returns the limiter for model, creating it with the given budget on first
// use. Later calls for the same model keep the original budget.
func (r *Registry) Get(model string, maxRequests int, period time.Duration) *Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if lim, ok := r.limiters[model]; ok {
		return lim
	}
	lim := New(model, maxRequests, period)
	r.limiters[model] = lim
	return lim
}

// New constructs a limiter for one model.
func New(model string, maxRequests int, period time.Duration) *Limiter {
	return &Limiter{
		model:       model,
		maxRequests: maxRequests,
		period:      period,
		now:         time.Now,
		sleep:       sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Acquire blocks until a request slot is available or ctx is done. Over any
// window of the configured period the number of acquired slots never exceeds
// the configured maximum.
func (l *Limiter) Acquire(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)
	if len(l.timestamps) >= l.maxRequests {
		wait := l.period - now.Sub(l.timestamps[0])
		slog.Warn("rate limit reached, delaying request",
			slog.String("model", l.model),
			slog.Duration("delay", wait))
		observability.RateLimiterWaits.WithLabelValues(l.model).Inc()
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
		l.prune(l.now())
	}
	l.timestamps = append(l.timestamps, l.now())
	return nil
}

// prune drops timestamps that have left the window. Callers hold l.mu.
func (l *Limiter) prune(now time.Time) {
	cut := 0
	for cut < len(l.timestamps) && now.Sub(l.timestamps[cut]) >= l.period {
		cut++
	}
	if cut > 0 {
		l.timestamps = append(l.timestamps[:0], l.timestamps[cut:]...)
	}
}
