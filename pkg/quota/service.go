package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/quotakit/pkg/logger"
	"github.com/dmitrymomot/quotakit/pkg/subscription"
)

// DefaultTrialQuota is the monthly allowance granted to trialing users whose
// subscription carries no explicit allotment.
const DefaultTrialQuota int64 = 200

// Option configures the quota Service.
type Option func(*Service)

// WithTrialQuota overrides the default trial allowance.
func WithTrialQuota(q int64) Option {
	return func(s *Service) {
		if q > 0 {
			s.trialQuota = q
		}
	}
}

// WithClock injects a clock, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// Service makes the atomic allow/deny decision for quota reservations.
type Service struct {
	subs       subscription.Store
	ledger     Ledger
	trialQuota int64
	now        func() time.Time
	log        *slog.Logger
}

// NewService creates the quota enforcer.
// Panics if either dependency is nil to fail fast during initialization.
func NewService(subs subscription.Store, ledger Ledger, opts ...Option) *Service {
	if subs == nil {
		panic("quota: subscription.Store is required")
	}
	if ledger == nil {
		panic("quota: Ledger is required")
	}

	s := &Service{
		subs:       subs,
		ledger:     ledger,
		trialQuota: DefaultTrialQuota,
		now:        func() time.Time { return time.Now().UTC() },
		log:        logger.Noop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request reserves quota for the given operation.
//
// Policy denials (no active plan, quota exceeded) come back as a denied
// Decision with a nil error. Transient storage failures come back as a denied
// Decision with reason "reservation failed" AND a non-nil error wrapping
// ErrReservationFailed, so callers know retrying the whole operation may
// succeed.
func (s *Service) Request(ctx context.Context, req Request) (*Decision, error) {
	if req.Cost <= 0 {
		return nil, ErrInvalidCost
	}

	now := s.now()

	sub, err := s.subs.Get(ctx, req.UserID)
	switch {
	case errors.Is(err, subscription.ErrNotFound):
		// Absent row is treated as plan=free, no quota, no trial.
		sub = &subscription.Subscription{UserID: req.UserID, Plan: subscription.PlanFree}
	case err != nil:
		return &Decision{Reason: ReasonReservationFailed},
			fmt.Errorf("%w: loading subscription: %w", ErrReservationFailed, err)
	}

	inTrial := sub.InTrialAt(now)
	limit := sub.EffectiveQuotaAt(now, s.trialQuota)

	// Safe replay of a retried request: a recorded key means the original
	// request already passed policy and its increment is already applied, so
	// the replay is acknowledged before any deny check. This matters at the
	// quota boundary, where the original reservation may have consumed the
	// last of the budget.
	if req.IdempotencyKey != "" {
		seen, err := s.ledger.Exists(ctx, req.IdempotencyKey)
		if err != nil {
			return &Decision{Reason: ReasonReservationFailed},
				fmt.Errorf("%w: checking idempotency key: %w", ErrReservationFailed, err)
		}
		if seen {
			return &Decision{Allowed: true, Remaining: max(0, limit-sub.UsedThisMonth)}, nil
		}
	}

	if !inTrial && limit <= 0 {
		return &Decision{Reason: ReasonNoActivePlan}, nil
	}

	if sub.UsedThisMonth+req.Cost > limit {
		return &Decision{Reason: ReasonQuotaExceeded}, nil
	}

	err = s.ledger.Reserve(ctx, Reservation{
		UserID:         req.UserID,
		Cost:           req.Cost,
		Kind:           req.Kind,
		IdempotencyKey: req.IdempotencyKey,
		Limit:          limit,
	})
	switch {
	case err == nil:
		s.log.DebugContext(ctx, "quota reserved",
			logger.UserID(req.UserID),
			slog.Int64("cost", req.Cost),
			slog.String("kind", req.Kind),
		)
		return &Decision{Allowed: true, Remaining: limit - sub.UsedThisMonth - req.Cost}, nil

	case errors.Is(err, ErrDuplicateKey):
		// Another retry of the same request committed between our Exists
		// check and the reserve. The increment is already applied.
		return &Decision{Allowed: true, Remaining: limit - sub.UsedThisMonth}, nil

	case errors.Is(err, ErrQuotaExceeded):
		// The storage guard saw a fresher counter than our pre-check did.
		return &Decision{Reason: ReasonQuotaExceeded}, nil

	default:
		// Never fold a storage failure into "quota exceeded": the caller
		// must be able to tell a retryable failure from a policy denial.
		s.log.ErrorContext(ctx, "quota reservation failed",
			logger.UserID(req.UserID), logger.Error(err))
		return &Decision{Reason: ReasonReservationFailed},
			fmt.Errorf("%w: %w", ErrReservationFailed, err)
	}
}
