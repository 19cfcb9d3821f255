package quota

import (
	"time"

	"github.com/google/uuid"
)

// UsageEvent records a single consumption event. Events are append-only:
// created once per reservation, never mutated or deleted.
type UsageEvent struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Amount         int64
	Kind           string
	IdempotencyKey string // globally unique when present
	CreatedAt      time.Time
}

// Request describes a quota reservation attempt.
type Request struct {
	UserID         uuid.UUID
	Cost           int64
	Kind           string
	IdempotencyKey string // optional; enables safe retry
}

// Reason explains a denial in user-facing terms.
type Reason string

const (
	ReasonNoActivePlan      Reason = "no active plan"
	ReasonQuotaExceeded     Reason = "quota exceeded"
	ReasonReservationFailed Reason = "reservation failed"
)

// Decision is the outcome of a quota request.
type Decision struct {
	Allowed   bool
	Reason    Reason // empty when allowed
	Remaining int64  // budget left after this reservation, when allowed
}
