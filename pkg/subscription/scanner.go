package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/quotakit/pkg/logger"
)

// DefaultTrialLookahead is how far ahead of "now" the scanner looks for
// trials about to expire.
const DefaultTrialLookahead = 48 * time.Hour

// ScannerOption configures a TrialScanner.
type ScannerOption func(*TrialScanner)

// WithLookahead overrides the scan window length.
func WithLookahead(d time.Duration) ScannerOption {
	return func(s *TrialScanner) {
		if d > 0 {
			s.lookahead = d
		}
	}
}

// WithScannerClock injects a clock, used by tests.
func WithScannerClock(now func() time.Time) ScannerOption {
	return func(s *TrialScanner) {
		if now != nil {
			s.now = now
		}
	}
}

// WithScannerLogger attaches a logger.
func WithScannerLogger(log *slog.Logger) ScannerOption {
	return func(s *TrialScanner) {
		if log != nil {
			s.log = log
		}
	}
}

// TrialScanner flags subscriptions whose trial expires within the lookahead
// window by stamping MetaTrialReminderAt into their metadata. Dispatching the
// actual reminder is an external collaborator keyed off that stamp.
//
// The scanner does not schedule itself; an external trigger invokes Scan on a
// cadence. Scanning is idempotent: re-running inside the same window only
// refreshes the stamp, so overlapping invocations are safe.
type TrialScanner struct {
	store     Store
	lookahead time.Duration
	now       func() time.Time
	log       *slog.Logger
}

// NewTrialScanner creates a scanner over the given store.
func NewTrialScanner(store Store, opts ...ScannerOption) *TrialScanner {
	if store == nil {
		panic("subscription: Store is required")
	}

	s := &TrialScanner{
		store:     store,
		lookahead: DefaultTrialLookahead,
		now:       func() time.Time { return time.Now().UTC() },
		log:       logger.Noop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan stamps every subscription whose trial expires strictly between now and
// now+lookahead, returning the number of subscriptions processed. Per-row
// failures are aggregated into a single error for the run; the scan keeps
// going past individual failures because re-running the whole job is always a
// safe recovery path.
func (s *TrialScanner) Scan(ctx context.Context) (int, error) {
	now := s.now()

	subs, err := s.store.ListExpiringTrials(ctx, now, now.Add(s.lookahead))
	if err != nil {
		return 0, fmt.Errorf("trial scan failed: %w", err)
	}

	var errs []error
	processed := 0
	for _, sub := range subs {
		sub.SetMeta(MetaTrialReminderAt, now.Format(time.RFC3339))
		if err := s.store.Save(ctx, sub); err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", sub.UserID, err))
			continue
		}
		processed++
		s.log.DebugContext(ctx, "trial reminder scheduled",
			logger.UserID(sub.UserID),
			slog.Time("trial_expires_at", *sub.TrialExpiresAt),
		)
	}

	if len(errs) > 0 {
		return processed, errors.Join(errs...)
	}
	return processed, nil
}
