package ratelimit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/quotakit/pkg/ratelimit"
	"github.com/dmitrymomot/quotakit/pkg/subscription"
)

func TestRegistry(t *testing.T) {
	registry, err := ratelimit.NewRegistry(ratelimit.NewMemoryStore(), nil, nil)
	require.NoError(t, err)

	t.Run("default limiters registered", func(t *testing.T) {
		for _, name := range []string{
			ratelimit.LimiterChat,
			ratelimit.LimiterSearch,
			ratelimit.LimiterSendTrial,
			ratelimit.LimiterSendPaid,
		} {
			l, err := registry.Get(name)
			require.NoError(t, err)
			assert.Equal(t, name, l.Name())
		}
	})

	t.Run("unknown limiter", func(t *testing.T) {
		_, err := registry.Get("uploads")
		assert.ErrorIs(t, err, ratelimit.ErrUnknownLimiter)
	})

	t.Run("send limiter selection by tier", func(t *testing.T) {
		tests := []struct {
			name    string
			plan    subscription.Plan
			inTrial bool
			want    string
		}{
			{"paid subscriber", subscription.PlanStarter, false, ratelimit.LimiterSendPaid},
			{"paid plan still trialing", subscription.PlanStarter, true, ratelimit.LimiterSendTrial},
			{"free plan", subscription.PlanFree, false, ratelimit.LimiterSendTrial},
			{"free plan in trial", subscription.PlanFree, true, ratelimit.LimiterSendTrial},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				assert.Equal(t, tt.want, registry.ForSend(tt.plan, tt.inTrial).Name())
			})
		}
	})

	t.Run("invalid config propagates", func(t *testing.T) {
		_, err := ratelimit.NewRegistry(nil, map[string]ratelimit.Config{
			"bad": {Limit: -1, Window: time.Minute},
		}, nil)
		assert.ErrorIs(t, err, ratelimit.ErrInvalidLimit)
	})
}
