package ratelimit

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Config defines one limiter's window and budget.
type Config struct {
	Limit  int           // maximum successful checks per window
	Window time.Duration // window length
}

func (c Config) validate() error {
	if c.Limit <= 0 {
		return fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidLimit, c.Limit)
	}
	if c.Window <= 0 {
		return fmt.Errorf("%w: window must be positive, got %v", ErrInvalidWindow, c.Window)
	}
	return nil
}

// Result contains the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns how long to wait before the next request is allowed.
// Returns 0 if the current request was allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed {
		return 0
	}
	return time.Until(r.ResetAt)
}

// DeniedMessage renders a user-facing denial embedding the minutes until the
// window resets.
func (r *Result) DeniedMessage() string {
	minutes := int(math.Ceil(r.RetryAfter().Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("rate limit exceeded, try again in %d minute(s)", minutes)
}

// Store is the shared counter backend. Increment atomically bumps the
// counter for key, starting the window TTL on the first hit, and returns the
// new count together with the time left in the window.
type Store interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int64, ttl time.Duration, err error)
}
