package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/quotakit/pkg/logger"
)

// Limiter applies one named window/limit pair to identifiers.
type Limiter struct {
	name  string
	cfg   Config
	store Store
	log   *slog.Logger
	now   func() time.Time
}

// NewLimiter creates a limiter. A nil store is allowed and makes every check
// succeed (fail-open degradation).
func NewLimiter(name string, cfg Config, store Store, log *slog.Logger) (*Limiter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Noop()
	}

	return &Limiter{
		name:  name,
		cfg:   cfg,
		store: store,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}, nil
}

// Name returns the limiter's configured name.
func (l *Limiter) Name() string { return l.name }

// Check consumes one slot for the identifier within the current window.
//
// When the counter store is missing or errors, Check allows the request and
// reports a full budget: availability beats strict limiting when the shared
// dependency is down. The store failure is logged, not surfaced.
func (l *Limiter) Check(ctx context.Context, identifier string) (*Result, error) {
	if identifier == "" {
		return nil, ErrKeyRequired
	}

	now := l.now()
	if l.store == nil {
		return l.openResult(now), nil
	}

	key := "ratelimit:" + l.name + ":" + identifier
	count, ttl, err := l.store.Increment(ctx, key, l.cfg.Window)
	if err != nil {
		l.log.WarnContext(ctx, "rate limit store unavailable, failing open",
			logger.Limiter(l.name), logger.Error(err))
		return l.openResult(now), nil
	}

	remaining := l.cfg.Limit - int(count)
	return &Result{
		Allowed:   count <= int64(l.cfg.Limit),
		Limit:     l.cfg.Limit,
		Remaining: max(0, remaining),
		ResetAt:   now.Add(ttl),
	}, nil
}

func (l *Limiter) openResult(now time.Time) *Result {
	return &Result{
		Allowed:   true,
		Limit:     l.cfg.Limit,
		Remaining: l.cfg.Limit,
		ResetAt:   now.Add(l.cfg.Window),
	}
}
