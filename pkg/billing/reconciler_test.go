package billing_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/quotakit/pkg/billing"
	"github.com/dmitrymomot/quotakit/pkg/subscription"
)

// passVerifier accepts every signature so reconciler tests can focus on
// state transitions; signature coverage lives in paddle_test.go.
type passVerifier struct{ err error }

func (v passVerifier) Verify(ctx context.Context, payload []byte, signature string) error {
	return v.err
}

func newReconcilerFixture(t *testing.T) (*billing.Reconciler, *subscription.MemoryStore, time.Time) {
	t.Helper()

	store := subscription.NewMemoryStore()
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	reconciler := billing.NewReconciler(store, passVerifier{},
		billing.WithReconcilerClock(func() time.Time { return now }),
	)
	return reconciler, store, now
}

func checkoutPayload(userID uuid.UUID, customerID string) []byte {
	return fmt.Appendf(nil, `{
		"event_id": "evt_checkout",
		"event_type": "transaction.completed",
		"data": {
			"customer_id": %q,
			"custom_data": {"user_id": %q},
			"items": [{"price": {"id": "pri_starter_monthly"}}]
		}
	}`, customerID, userID)
}

func TestReconcilerHandleWebhook(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("rejects bad signature without state change", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		reconciler := billing.NewReconciler(store, passVerifier{err: billing.ErrInvalidSignature})

		userID := uuid.New()
		err := reconciler.HandleWebhook(ctx, checkoutPayload(userID, "ctm_1"), "bad")
		require.ErrorIs(t, err, billing.ErrInvalidSignature)

		_, err = store.Get(ctx, userID)
		require.ErrorIs(t, err, subscription.ErrNotFound)
	})

	t.Run("checkout grants default trial", func(t *testing.T) {
		t.Parallel()

		reconciler, store, now := newReconcilerFixture(t)
		userID := uuid.New()

		require.NoError(t, reconciler.HandleWebhook(ctx, checkoutPayload(userID, "ctm_2"), "sig"))

		sub, err := store.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, subscription.PlanStarter, sub.Plan)
		assert.Equal(t, int64(200), sub.QuotaMonthly)
		assert.Equal(t, "ctm_2", sub.CustomerID())
		require.NotNil(t, sub.TrialExpiresAt)
		assert.Equal(t, now.Add(billing.DefaultTrialPeriod), *sub.TrialExpiresAt)
	})

	t.Run("checkout uses provider trial end when reported", func(t *testing.T) {
		t.Parallel()

		reconciler, store, _ := newReconcilerFixture(t)
		userID := uuid.New()

		payload := fmt.Appendf(nil, `{
			"event_type": "transaction.completed",
			"data": {
				"customer_id": "ctm_3",
				"custom_data": {"user_id": %q},
				"items": [{
					"price": {"id": "pri_starter_monthly"},
					"trial_dates": {"ends_at": "2026-09-15T00:00:00Z"}
				}]
			}
		}`, userID)

		require.NoError(t, reconciler.HandleWebhook(ctx, payload, "sig"))

		sub, err := store.Get(ctx, userID)
		require.NoError(t, err)
		require.NotNil(t, sub.TrialExpiresAt)
		assert.Equal(t, time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC), *sub.TrialExpiresAt)
	})

	t.Run("redelivered checkout converges", func(t *testing.T) {
		t.Parallel()

		reconciler, store, _ := newReconcilerFixture(t)
		userID := uuid.New()
		payload := checkoutPayload(userID, "ctm_4")

		require.NoError(t, reconciler.HandleWebhook(ctx, payload, "sig"))
		first, err := store.Get(ctx, userID)
		require.NoError(t, err)

		// Usage recorded between deliveries must survive the replay.
		require.True(t, store.AddUsage(userID, 42))

		require.NoError(t, reconciler.HandleWebhook(ctx, payload, "sig"))
		second, err := store.Get(ctx, userID)
		require.NoError(t, err)

		assert.Equal(t, first.Plan, second.Plan)
		assert.Equal(t, first.QuotaMonthly, second.QuotaMonthly)
		assert.Equal(t, first.TrialExpiresAt, second.TrialExpiresAt)
		assert.Equal(t, first.CustomerID(), second.CustomerID())
		assert.Equal(t, int64(42), second.UsedThisMonth)
	})

	t.Run("checkout rejects invalid user id", func(t *testing.T) {
		t.Parallel()

		reconciler, _, _ := newReconcilerFixture(t)

		payload := []byte(`{
			"event_type": "transaction.completed",
			"data": {"customer_id": "ctm_5", "custom_data": {"user_id": "not-a-uuid"}}
		}`)

		err := reconciler.HandleWebhook(ctx, payload, "sig")
		require.ErrorIs(t, err, billing.ErrMalformedEvent)
	})

	t.Run("cancellation downgrades to free", func(t *testing.T) {
		t.Parallel()

		reconciler, store, _ := newReconcilerFixture(t)
		userID := uuid.New()
		require.NoError(t, reconciler.HandleWebhook(ctx, checkoutPayload(userID, "ctm_6"), "sig"))

		payload := []byte(`{
			"event_type": "subscription.canceled",
			"data": {"customer_id": "ctm_6", "status": "canceled"}
		}`)
		require.NoError(t, reconciler.HandleWebhook(ctx, payload, "sig"))

		sub, err := store.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, subscription.PlanFree, sub.Plan)
		assert.Equal(t, int64(0), sub.QuotaMonthly)
		assert.Nil(t, sub.TrialExpiresAt)
	})

	t.Run("active update keeps paid plan", func(t *testing.T) {
		t.Parallel()

		reconciler, store, _ := newReconcilerFixture(t)
		userID := uuid.New()
		require.NoError(t, reconciler.HandleWebhook(ctx, checkoutPayload(userID, "ctm_7"), "sig"))

		payload := []byte(`{
			"event_type": "subscription.updated",
			"data": {"customer_id": "ctm_7", "status": "active"}
		}`)
		require.NoError(t, reconciler.HandleWebhook(ctx, payload, "sig"))

		sub, err := store.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, subscription.PlanStarter, sub.Plan)
		assert.Equal(t, int64(200), sub.QuotaMonthly)
		// No trial window in the event clears the stored one.
		assert.Nil(t, sub.TrialExpiresAt)
	})

	t.Run("redelivered cancellation converges", func(t *testing.T) {
		t.Parallel()

		reconciler, store, _ := newReconcilerFixture(t)
		userID := uuid.New()
		require.NoError(t, reconciler.HandleWebhook(ctx, checkoutPayload(userID, "ctm_8"), "sig"))

		payload := []byte(`{
			"event_type": "subscription.canceled",
			"data": {"customer_id": "ctm_8", "status": "canceled"}
		}`)
		require.NoError(t, reconciler.HandleWebhook(ctx, payload, "sig"))
		require.NoError(t, reconciler.HandleWebhook(ctx, payload, "sig"))

		sub, err := store.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, subscription.PlanFree, sub.Plan)
		assert.Equal(t, int64(0), sub.QuotaMonthly)
	})

	t.Run("unknown customer is acknowledged", func(t *testing.T) {
		t.Parallel()

		reconciler, _, _ := newReconcilerFixture(t)

		payload := []byte(`{
			"event_type": "subscription.updated",
			"data": {"customer_id": "ctm_ghost", "status": "active"}
		}`)
		require.NoError(t, reconciler.HandleWebhook(ctx, payload, "sig"))
	})

	t.Run("unknown event type is acknowledged", func(t *testing.T) {
		t.Parallel()

		reconciler, _, _ := newReconcilerFixture(t)

		payload := []byte(`{"event_type": "adjustment.created", "data": {}}`)
		require.NoError(t, reconciler.HandleWebhook(ctx, payload, "sig"))
	})
}
