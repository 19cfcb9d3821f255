package quota

import (
	"context"

	"github.com/google/uuid"
)

// Reservation is the unit of work the ledger applies atomically.
// Limit is the effective quota the guard is evaluated against; it may exceed
// the stored quota_monthly for trialing users running on the trial default.
type Reservation struct {
	UserID         uuid.UUID
	Cost           int64
	Kind           string
	IdempotencyKey string
	Limit          int64
}

// Ledger persists usage events and owns the atomic reserve step.
type Ledger interface {
	// Exists reports whether a usage event with the given idempotency key
	// has already been recorded.
	Exists(ctx context.Context, idempotencyKey string) (bool, error)

	// Reserve inserts the usage event and increments the user's counter as
	// a single conditional update guarded by
	// used_this_month + cost <= limit at the storage layer.
	//
	// Returns ErrQuotaExceeded when the guard rejects the update,
	// ErrDuplicateKey when the idempotency key was already recorded, and
	// ErrReservationFailed (wrapping the cause) on transient storage
	// failures. On success exactly one event is durably recorded and the
	// counter strictly increases by Cost.
	Reserve(ctx context.Context, res Reservation) error
}
