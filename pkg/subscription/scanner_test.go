package subscription_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/quotakit/pkg/subscription"
)

func TestTrialScanner(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	seed := func(t *testing.T, store *subscription.MemoryStore, expiry time.Time) uuid.UUID {
		t.Helper()
		userID := uuid.New()
		require.NoError(t, store.Save(ctx, &subscription.Subscription{
			UserID:         userID,
			Plan:           subscription.PlanStarter,
			QuotaMonthly:   200,
			TrialExpiresAt: &expiry,
		}))
		return userID
	}

	t.Run("stamps trials inside the window", func(t *testing.T) {
		store := subscription.NewMemoryStore()
		soon := seed(t, store, now.Add(12*time.Hour))
		seed(t, store, now.Add(96*time.Hour)) // outside lookahead

		scanner := subscription.NewTrialScanner(store, subscription.WithScannerClock(clock))

		n, err := scanner.Scan(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		sub, err := store.Get(ctx, soon)
		require.NoError(t, err)
		assert.Equal(t, now.Format(time.RFC3339), sub.Metadata[subscription.MetaTrialReminderAt])
	})

	t.Run("expired trials are skipped", func(t *testing.T) {
		store := subscription.NewMemoryStore()
		seed(t, store, now.Add(-time.Hour))

		scanner := subscription.NewTrialScanner(store, subscription.WithScannerClock(clock))

		n, err := scanner.Scan(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("repeat runs are non-destructive", func(t *testing.T) {
		store := subscription.NewMemoryStore()
		userID := seed(t, store, now.Add(12*time.Hour))

		scanner := subscription.NewTrialScanner(store, subscription.WithScannerClock(clock))

		first, err := scanner.Scan(ctx)
		require.NoError(t, err)

		second, err := scanner.Scan(ctx)
		require.NoError(t, err)
		assert.Equal(t, first, second)

		sub, err := store.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, now.Format(time.RFC3339), sub.Metadata[subscription.MetaTrialReminderAt])
	})

	t.Run("custom lookahead", func(t *testing.T) {
		store := subscription.NewMemoryStore()
		seed(t, store, now.Add(12*time.Hour))

		scanner := subscription.NewTrialScanner(store,
			subscription.WithScannerClock(clock),
			subscription.WithLookahead(6*time.Hour),
		)

		n, err := scanner.Scan(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
