package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is a process-local fixed-window counter. Suitable for
// single-instance deployments; multi-instance setups should use RedisLimiter
// so the window is shared.
type MemoryLimiter struct {
	cfg Config
	now func() time.Time

	mu      sync.Mutex
	entries map[string]*window
}

// NewMemoryLimiter builds an in-process limiter.
func NewMemoryLimiter(cfg Config) *MemoryLimiter {
	return &MemoryLimiter{
		cfg:     cfg.normalized(),
		now:     time.Now,
		entries: make(map[string]*window),
	}
}

// Check increments the counter for key and reports whether the event is
// within the window's budget.
func (l *MemoryLimiter) Check(_ context.Context, key string) (Result, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[key]
	if !ok || !now.Before(entry.resetAt) {
		entry = &window{resetAt: now.Add(l.cfg.Window)}
		l.entries[key] = entry
	}

	entry.count++
	if entry.count > l.cfg.Max {
		return Result{Allowed: false, RetryAfter: entry.resetAt.Sub(now)}, nil
	}

	// Expired windows for other keys are dropped lazily to keep the map from
	// growing without bound.
	if len(l.entries) > 1024 {
		for k, w := range l.entries {
			if !now.Before(w.resetAt) {
				delete(l.entries, k)
			}
		}
	}

	return Result{Allowed: true}, nil
}
