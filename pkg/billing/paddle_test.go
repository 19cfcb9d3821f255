package billing_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/quotakit/pkg/billing"
)

const testWebhookSecret = "pdl_ntfset_test_secret"

// signPayload produces a Paddle-Signature header value for the payload:
// a unix timestamp and an HMAC-SHA256 of "<ts>:<payload>" under the secret.
func signPayload(t *testing.T, secret string, payload []byte) string {
	t.Helper()

	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d:%s", ts, payload)
	return fmt.Sprintf("ts=%d;h1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestPaddleVerifier(t *testing.T) {
	t.Parallel()

	t.Run("requires secret", func(t *testing.T) {
		t.Parallel()

		_, err := billing.NewPaddleVerifier("")
		require.ErrorIs(t, err, billing.ErrMissingWebhookSecret)
	})

	t.Run("accepts valid signature", func(t *testing.T) {
		t.Parallel()

		verifier, err := billing.NewPaddleVerifier(testWebhookSecret)
		require.NoError(t, err)

		payload := []byte(`{"event_type":"transaction.completed","data":{}}`)
		signature := signPayload(t, testWebhookSecret, payload)

		require.NoError(t, verifier.Verify(context.Background(), payload, signature))
	})

	t.Run("rejects tampered body", func(t *testing.T) {
		t.Parallel()

		verifier, err := billing.NewPaddleVerifier(testWebhookSecret)
		require.NoError(t, err)

		payload := []byte(`{"event_type":"transaction.completed","data":{}}`)
		signature := signPayload(t, testWebhookSecret, payload)

		tampered := []byte(`{"event_type":"transaction.completed","data":{"amount":1}}`)
		err = verifier.Verify(context.Background(), tampered, signature)
		require.ErrorIs(t, err, billing.ErrInvalidSignature)
	})

	t.Run("rejects wrong secret", func(t *testing.T) {
		t.Parallel()

		verifier, err := billing.NewPaddleVerifier(testWebhookSecret)
		require.NoError(t, err)

		payload := []byte(`{"event_type":"transaction.completed","data":{}}`)
		signature := signPayload(t, "some-other-secret", payload)

		err = verifier.Verify(context.Background(), payload, signature)
		require.ErrorIs(t, err, billing.ErrInvalidSignature)
	})

	t.Run("rejects garbage header", func(t *testing.T) {
		t.Parallel()

		verifier, err := billing.NewPaddleVerifier(testWebhookSecret)
		require.NoError(t, err)

		err = verifier.Verify(context.Background(), []byte(`{}`), "not-a-signature")
		require.ErrorIs(t, err, billing.ErrInvalidSignature)
	})
}

func TestParseEvent(t *testing.T) {
	t.Parallel()

	t.Run("checkout payload", func(t *testing.T) {
		t.Parallel()

		payload := []byte(`{
			"event_id": "evt_01",
			"event_type": "transaction.completed",
			"data": {
				"customer_id": "ctm_123",
				"status": "completed",
				"custom_data": {"user_id": "9f1a9df0-7b1e-4c5e-9f2a-0d6c3f4b5a6e"},
				"items": [{
					"price": {"id": "pri_starter_monthly"},
					"trial_dates": {"ends_at": "2026-09-07T00:00:00Z"}
				}]
			}
		}`)

		event, err := billing.ParseEvent(payload)
		require.NoError(t, err)

		assert.Equal(t, "evt_01", event.ID)
		assert.Equal(t, billing.EventCheckoutCompleted, event.Type)
		assert.Equal(t, "ctm_123", event.CustomerID)
		assert.Equal(t, "completed", event.Status)
		assert.Equal(t, "9f1a9df0-7b1e-4c5e-9f2a-0d6c3f4b5a6e", event.UserID)
		assert.Equal(t, "pri_starter_monthly", event.PriceID)
		require.NotNil(t, event.TrialEndsAt)
		assert.Equal(t, time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC), *event.TrialEndsAt)
	})

	t.Run("subscription payload with top level trial dates", func(t *testing.T) {
		t.Parallel()

		payload := []byte(`{
			"event_id": "evt_02",
			"event_type": "subscription.updated",
			"data": {
				"customer_id": "ctm_456",
				"status": "active",
				"items": [{"price_id": "pri_starter_monthly"}],
				"trial_dates": {"ends_at": "2026-09-10T12:00:00Z"}
			}
		}`)

		event, err := billing.ParseEvent(payload)
		require.NoError(t, err)

		assert.Equal(t, billing.EventSubscriptionUpdated, event.Type)
		assert.Equal(t, "pri_starter_monthly", event.PriceID)
		require.NotNil(t, event.TrialEndsAt)
		assert.Equal(t, time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC), *event.TrialEndsAt)
	})

	t.Run("no trial dates leaves nil", func(t *testing.T) {
		t.Parallel()

		payload := []byte(`{
			"event_type": "subscription.canceled",
			"data": {"customer_id": "ctm_789", "status": "canceled"}
		}`)

		event, err := billing.ParseEvent(payload)
		require.NoError(t, err)
		assert.Nil(t, event.TrialEndsAt)
	})

	t.Run("missing event type", func(t *testing.T) {
		t.Parallel()

		_, err := billing.ParseEvent([]byte(`{"data":{}}`))
		require.ErrorIs(t, err, billing.ErrMalformedEvent)
	})

	t.Run("invalid json", func(t *testing.T) {
		t.Parallel()

		_, err := billing.ParseEvent([]byte(`{broken`))
		require.ErrorIs(t, err, billing.ErrMalformedEvent)
	})
}
