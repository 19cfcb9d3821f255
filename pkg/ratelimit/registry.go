package ratelimit

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/quotakit/pkg/subscription"
)

// Well-known limiter names. The purpose x tier table is fixed configuration,
// not a runtime lookup.
const (
	LimiterChat      = "chat"
	LimiterSearch    = "search"
	LimiterSendTrial = "send:trial"
	LimiterSendPaid  = "send:paid"
)

// DefaultConfigs returns the built-in limiter table.
func DefaultConfigs() map[string]Config {
	return map[string]Config{
		LimiterChat:      {Limit: 10, Window: time.Minute},
		LimiterSearch:    {Limit: 5, Window: time.Hour},
		LimiterSendTrial: {Limit: 100, Window: 24 * time.Hour},
		LimiterSendPaid:  {Limit: 500, Window: 24 * time.Hour},
	}
}

// Registry holds the named limiters sharing one counter store.
type Registry struct {
	limiters map[string]*Limiter
}

// NewRegistry builds limiters for each named config. A nil store yields
// fail-open limiters.
func NewRegistry(store Store, configs map[string]Config, log *slog.Logger) (*Registry, error) {
	if configs == nil {
		configs = DefaultConfigs()
	}

	limiters := make(map[string]*Limiter, len(configs))
	for name, cfg := range configs {
		l, err := NewLimiter(name, cfg, store, log)
		if err != nil {
			return nil, err
		}
		limiters[name] = l
	}

	return &Registry{limiters: limiters}, nil
}

// Get returns the limiter registered under name.
func (r *Registry) Get(name string) (*Limiter, error) {
	l, ok := r.limiters[name]
	if !ok {
		return nil, ErrUnknownLimiter
	}
	return l, nil
}

// ForSend selects the send limiter for the caller's resolved tier. Picking
// the limiter from the tier BEFORE the check is a correctness requirement:
// a trialing user checked against the paid budget would get five times their
// allowance. Paid, non-trialing subscriptions get the paid budget; everyone
// else gets the trial budget.
func (r *Registry) ForSend(plan subscription.Plan, inTrial bool) *Limiter {
	if plan.Paid() && !inTrial {
		return r.limiters[LimiterSendPaid]
	}
	return r.limiters[LimiterSendTrial]
}
