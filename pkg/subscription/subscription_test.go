package subscription_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/quotakit/pkg/subscription"
)

func TestSubscriptionInTrialAt(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("no trial window", func(t *testing.T) {
		sub := &subscription.Subscription{UserID: uuid.New()}
		assert.False(t, sub.InTrialAt(now))
	})

	t.Run("future expiry means active trial", func(t *testing.T) {
		expires := now.Add(24 * time.Hour)
		sub := &subscription.Subscription{UserID: uuid.New(), TrialExpiresAt: &expires}
		assert.True(t, sub.InTrialAt(now))
	})

	t.Run("past expiry", func(t *testing.T) {
		expires := now.Add(-time.Minute)
		sub := &subscription.Subscription{UserID: uuid.New(), TrialExpiresAt: &expires}
		assert.False(t, sub.InTrialAt(now))
	})
}

func TestSubscriptionEffectiveQuotaAt(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	future := now.Add(48 * time.Hour)

	tests := []struct {
		name  string
		sub   subscription.Subscription
		want  int64
	}{
		{"configured allotment wins", subscription.Subscription{QuotaMonthly: 500, TrialExpiresAt: &future}, 500},
		{"trial fallback", subscription.Subscription{TrialExpiresAt: &future}, 200},
		{"no plan no trial", subscription.Subscription{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sub.EffectiveQuotaAt(now, 200))
		})
	}
}

func TestPlan(t *testing.T) {
	assert.True(t, subscription.PlanFree.Valid())
	assert.True(t, subscription.PlanStarter.Valid())
	assert.False(t, subscription.Plan("enterprise").Valid())

	assert.False(t, subscription.PlanFree.Paid())
	assert.True(t, subscription.PlanStarter.Paid())
	assert.False(t, subscription.Plan("bogus").Paid())
}

func TestCatalog(t *testing.T) {
	catalog := subscription.DefaultCatalog()

	assert.EqualValues(t, 0, catalog.QuotaFor(subscription.PlanFree))
	assert.EqualValues(t, 200, catalog.QuotaFor(subscription.PlanStarter))
	assert.EqualValues(t, 0, catalog.QuotaFor(subscription.Plan("unknown")))

	// Unmapped price ids resolve to the starter tier.
	assert.Equal(t, subscription.PlanStarter, catalog.PlanForPriceID("pri_unmapped"))
}

func TestLoadCatalog(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		path := t.TempDir() + "/tiers.yaml"
		writeFile(t, path, `
tiers:
  - plan: free
    monthly_quota: 0
  - plan: starter
    monthly_quota: 300
    price_ids: ["pri_starter_monthly"]
`)

		catalog, err := subscription.LoadCatalog(path)
		assert.NoError(t, err)
		assert.EqualValues(t, 300, catalog.QuotaFor(subscription.PlanStarter))
		assert.Equal(t, subscription.PlanStarter, catalog.PlanForPriceID("pri_starter_monthly"))
	})

	t.Run("unknown plan rejected", func(t *testing.T) {
		path := t.TempDir() + "/tiers.yaml"
		writeFile(t, path, "tiers:\n  - plan: platinum\n    monthly_quota: 1000\n")

		_, err := subscription.LoadCatalog(path)
		assert.ErrorIs(t, err, subscription.ErrFailedToLoadCatalog)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := subscription.LoadCatalog("/nonexistent/tiers.yaml")
		assert.ErrorIs(t, err, subscription.ErrFailedToLoadCatalog)
	})
}
