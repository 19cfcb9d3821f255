package subscription

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store defines the interface for subscription persistence.
// Each user has at most one subscription, so UserID serves as the primary key.
type Store interface {
	// Get retrieves a subscription by user ID.
	// Returns ErrNotFound if no subscription exists.
	Get(ctx context.Context, userID uuid.UUID) (*Subscription, error)

	// Save creates or updates a subscription keyed by UserID. Saves are
	// absolute writes, which is what makes replaying a billing event converge
	// instead of compounding.
	Save(ctx context.Context, sub *Subscription) error

	// FindByCustomerID resolves the subscription whose metadata references
	// the payment provider's customer id. Returns ErrNotFound when no
	// subscription is linked to that customer.
	FindByCustomerID(ctx context.Context, customerID string) (*Subscription, error)

	// ListExpiringTrials returns subscriptions whose trial expiry falls
	// strictly between from and to.
	ListExpiringTrials(ctx context.Context, from, to time.Time) ([]*Subscription, error)

	// ResetUsage zeroes used_this_month on every subscription and returns
	// the number of rows touched. Invoked by the monthly reset job.
	ResetUsage(ctx context.Context) (int64, error)
}
