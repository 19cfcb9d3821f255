package billing

import (
	"context"
	"time"
)

// EventType is the provider's event name. Only the types below trigger
// reconciliation; everything else is accepted and ignored.
type EventType string

const (
	EventCheckoutCompleted    EventType = "transaction.completed"
	EventSubscriptionCreated  EventType = "subscription.created"
	EventSubscriptionUpdated  EventType = "subscription.updated"
	EventSubscriptionCanceled EventType = "subscription.canceled"
)

// Event is the normalized view of a provider webhook payload.
type Event struct {
	ID          string
	Type        EventType
	UserID      string     // acting user id from checkout custom data
	CustomerID  string     // provider's customer id
	PriceID     string     // purchased price id
	Status      string     // provider subscription status
	TrialEndsAt *time.Time // provider-reported trial end, when present
	Raw         map[string]any
}

// Verifier validates a raw webhook body against its signature header.
type Verifier interface {
	Verify(ctx context.Context, payload []byte, signature string) error
}
