package subscription

import (
	"time"

	"github.com/google/uuid"
)

// Subscription represents a user's subscription state.
// Each user has at most one subscription, keyed by UserID.
type Subscription struct {
	UserID         uuid.UUID
	Plan           Plan
	QuotaMonthly   int64
	UsedThisMonth  int64
	TrialExpiresAt *time.Time
	Metadata       map[string]string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// InTrialAt reports whether the subscription is in an active trial at the
// given instant. A trial expiry in the future grants access regardless of the
// quota allotment.
func (s *Subscription) InTrialAt(now time.Time) bool {
	return s.TrialExpiresAt != nil && s.TrialExpiresAt.After(now)
}

// EffectiveQuotaAt returns the quota that applies at the given instant.
// A configured monthly allotment wins; otherwise trialing users fall back to
// trialDefault and everyone else gets zero.
func (s *Subscription) EffectiveQuotaAt(now time.Time, trialDefault int64) int64 {
	if s.QuotaMonthly > 0 {
		return s.QuotaMonthly
	}
	if s.InTrialAt(now) {
		return trialDefault
	}
	return 0
}

// CustomerID returns the payment provider's customer id stored in metadata,
// or an empty string when the subscription was never linked to the provider.
func (s *Subscription) CustomerID() string {
	return s.Metadata[MetaCustomerID]
}

// SetMeta sets a metadata key, allocating the map on first use.
func (s *Subscription) SetMeta(key, value string) {
	if s.Metadata == nil {
		s.Metadata = make(map[string]string, 1)
	}
	s.Metadata[key] = value
}
