package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// PaddleVerifier validates webhook signatures with the official Paddle SDK.
type PaddleVerifier struct {
	verifier *paddle.WebhookVerifier
}

// NewPaddleVerifier creates a verifier bound to the shared webhook secret.
func NewPaddleVerifier(secret string) (*PaddleVerifier, error) {
	if secret == "" {
		return nil, ErrMissingWebhookSecret
	}
	return &PaddleVerifier{verifier: paddle.NewWebhookVerifier(secret)}, nil
}

// Verify checks the Paddle-Signature header over the raw body. The SDK
// verifier consumes an *http.Request, so one is synthesized around the
// payload the same way the provider would have sent it.
func (v *PaddleVerifier) Verify(ctx context.Context, payload []byte, signature string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/webhook", bytes.NewReader(payload))
	if err != nil {
		return errors.Join(ErrInvalidSignature, err)
	}
	req.Header.Set("Paddle-Signature", signature)

	valid, err := v.verifier.Verify(req)
	if err != nil {
		return errors.Join(ErrInvalidSignature, err)
	}
	if !valid {
		return ErrInvalidSignature
	}
	return nil
}

var _ Verifier = (*PaddleVerifier)(nil)

// ParseEvent normalizes a Paddle webhook envelope. Fields that a given event
// type does not carry are left zero; the reconciler decides what is required
// for each type.
func ParseEvent(payload []byte) (*Event, error) {
	var envelope struct {
		EventID   string         `json:"event_id"`
		EventType string         `json:"event_type"`
		Data      map[string]any `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}
	if envelope.EventType == "" {
		return nil, fmt.Errorf("%w: missing event_type", ErrMalformedEvent)
	}

	event := &Event{
		ID:   envelope.EventID,
		Type: EventType(envelope.EventType),
		Raw:  envelope.Data,
	}

	data := envelope.Data

	if customerID, ok := data["customer_id"].(string); ok {
		event.CustomerID = customerID
	}
	if status, ok := data["status"].(string); ok {
		event.Status = status
	}

	// The acting user id travels in checkout custom data under "user_id".
	if customData, ok := data["custom_data"].(map[string]any); ok {
		if userID, ok := customData["user_id"].(string); ok {
			event.UserID = userID
		}
	}

	// Purchased price id from the first line item.
	if items, ok := data["items"].([]any); ok && len(items) > 0 {
		if item, ok := items[0].(map[string]any); ok {
			if price, ok := item["price"].(map[string]any); ok {
				if priceID, ok := price["id"].(string); ok {
					event.PriceID = priceID
				}
			}
			if priceID, ok := item["price_id"].(string); ok {
				event.PriceID = priceID
			}
			// Trial window may be reported per line item.
			if event.TrialEndsAt == nil {
				event.TrialEndsAt = parseTrialEnd(item)
			}
		}
	}

	if event.TrialEndsAt == nil {
		event.TrialEndsAt = parseTrialEnd(data)
	}

	return event, nil
}

func parseTrialEnd(container map[string]any) *time.Time {
	trialDates, ok := container["trial_dates"].(map[string]any)
	if !ok {
		return nil
	}
	endsAt, ok := trialDates["ends_at"].(string)
	if !ok {
		return nil
	}
	t, err := time.Parse(time.RFC3339, endsAt)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
