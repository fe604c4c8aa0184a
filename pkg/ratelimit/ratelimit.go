package ratelimit

import (
	"context"
	"time"
)

// Result reports the outcome of a limiter check. RetryAfter is advisory and
// only meaningful when Allowed is false.
type Result struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter counts events per key over a fixed window. Implementations must be
// safe for concurrent use.
type Limiter interface {
	Check(ctx context.Context, key string) (Result, error)
}

// Config tunes a fixed-window limiter.
type Config struct {
	Window time.Duration
	Max    int
}

func (c Config) normalized() Config {
	if c.Window <= 0 {
		c.Window = time.Minute
	}
	if c.Max <= 0 {
		c.Max = 5
	}
	return c
}
