package quota

import "errors"

var (
	// ErrQuotaExceeded signals the storage-layer guard rejected the
	// reservation: the user's counter plus cost would exceed the limit.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrDuplicateKey signals the idempotency key already exists in the
	// ledger. Callers treat this as a safe replay, not a failure.
	ErrDuplicateKey = errors.New("duplicate idempotency key")

	// ErrReservationFailed signals a transient storage failure. Distinct
	// from a policy denial: retrying the whole operation may succeed.
	ErrReservationFailed = errors.New("quota reservation failed")

	// ErrInvalidCost is returned for non-positive reservation costs.
	ErrInvalidCost = errors.New("reservation cost must be positive")
)
