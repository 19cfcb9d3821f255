package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/quotakit/pkg/logger"
	"github.com/dmitrymomot/quotakit/pkg/subscription"
)

// DefaultTrialPeriod is granted on checkout when the provider does not
// report its own trial end.
const DefaultTrialPeriod = 7 * 24 * time.Hour

// Option configures the Reconciler.
type Option func(*Reconciler)

// WithCatalog overrides the tier catalog.
func WithCatalog(catalog subscription.Catalog) Option {
	return func(r *Reconciler) {
		if catalog != nil {
			r.catalog = catalog
		}
	}
}

// WithTrialPeriod overrides the fallback trial length.
func WithTrialPeriod(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.trialPeriod = d
		}
	}
}

// WithReconcilerClock injects a clock, used by tests.
func WithReconcilerClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		if now != nil {
			r.now = now
		}
	}
}

// WithReconcilerLogger attaches a logger.
func WithReconcilerLogger(log *slog.Logger) Option {
	return func(r *Reconciler) {
		if log != nil {
			r.log = log
		}
	}
}

// Reconciler applies verified provider events onto the subscription store.
type Reconciler struct {
	store       subscription.Store
	verifier    Verifier
	catalog     subscription.Catalog
	trialPeriod time.Duration
	now         func() time.Time
	log         *slog.Logger
}

// NewReconciler creates a webhook reconciler.
// Panics if store or verifier is nil to fail fast during initialization.
func NewReconciler(store subscription.Store, verifier Verifier, opts ...Option) *Reconciler {
	if store == nil {
		panic("billing: subscription.Store is required")
	}
	if verifier == nil {
		panic("billing: Verifier is required")
	}

	r := &Reconciler{
		store:       store,
		verifier:    verifier,
		catalog:     subscription.DefaultCatalog(),
		trialPeriod: DefaultTrialPeriod,
		now:         func() time.Time { return time.Now().UTC() },
		log:         logger.Noop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HandleWebhook verifies and applies one provider event. Signature failures
// return ErrInvalidSignature with no state change. Unknown event types are
// accepted and ignored.
func (r *Reconciler) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if err := r.verifier.Verify(ctx, payload, signature); err != nil {
		return err
	}

	event, err := ParseEvent(payload)
	if err != nil {
		return err
	}

	switch event.Type {
	case EventCheckoutCompleted:
		return r.applyCheckout(ctx, event)
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionCanceled:
		return r.applySubscriptionChange(ctx, event)
	default:
		r.log.DebugContext(ctx, "ignoring billing event", logger.EventType(string(event.Type)))
		return nil
	}
}

// applyCheckout creates or refreshes the subscription for the purchasing
// user. The provider's customer id is stored in metadata so later
// subscription lifecycle events, which carry only the customer id, can be
// mapped back to the user.
func (r *Reconciler) applyCheckout(ctx context.Context, event *Event) error {
	userID, err := uuid.Parse(event.UserID)
	if err != nil {
		return fmt.Errorf("%w: invalid user id in checkout custom data: %w", ErrMalformedEvent, err)
	}

	now := r.now()
	trialEnd := now.Add(r.trialPeriod)
	if event.TrialEndsAt != nil {
		trialEnd = *event.TrialEndsAt
	}

	plan := r.catalog.PlanForPriceID(event.PriceID)

	// Load the existing row (if any) so unrelated metadata survives the
	// upsert; a redelivered checkout then writes the exact same state.
	sub, err := r.store.Get(ctx, userID)
	if errors.Is(err, subscription.ErrNotFound) {
		sub = &subscription.Subscription{UserID: userID}
	} else if err != nil {
		return fmt.Errorf("failed to load subscription: %w", err)
	}

	sub.Plan = plan
	sub.QuotaMonthly = r.catalog.QuotaFor(plan)
	sub.TrialExpiresAt = &trialEnd
	if event.CustomerID != "" {
		sub.SetMeta(subscription.MetaCustomerID, event.CustomerID)
	}

	if err := r.store.Save(ctx, sub); err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}

	r.log.InfoContext(ctx, "checkout reconciled",
		logger.UserID(userID),
		slog.String("plan", string(plan)),
		slog.Time("trial_expires_at", trialEnd),
	)
	return nil
}

// applySubscriptionChange maps the event's customer id back to the owning
// user and sets the plan from the provider's reported status: active keeps
// the paid tier, anything else downgrades to free.
func (r *Reconciler) applySubscriptionChange(ctx context.Context, event *Event) error {
	if event.CustomerID == "" {
		return fmt.Errorf("%w: subscription event without customer id", ErrMalformedEvent)
	}

	sub, err := r.store.FindByCustomerID(ctx, event.CustomerID)
	if errors.Is(err, subscription.ErrNotFound) {
		// No local subscription references this customer. Nothing to
		// reconcile; acknowledge so the provider stops redelivering.
		r.log.WarnContext(ctx, "billing event for unknown customer",
			slog.String("customer_id", event.CustomerID),
			logger.EventType(string(event.Type)),
		)
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to resolve customer: %w", err)
	}

	if event.Status == "active" {
		plan := sub.Plan
		if !plan.Paid() {
			plan = r.catalog.PlanForPriceID(event.PriceID)
		}
		sub.Plan = plan
		sub.QuotaMonthly = r.catalog.QuotaFor(plan)
	} else {
		sub.Plan = subscription.PlanFree
		sub.QuotaMonthly = r.catalog.QuotaFor(subscription.PlanFree)
	}

	// Trial end follows the event: present updates it, absent clears it.
	sub.TrialExpiresAt = event.TrialEndsAt

	if err := r.store.Save(ctx, sub); err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}

	r.log.InfoContext(ctx, "subscription reconciled",
		logger.UserID(sub.UserID),
		logger.EventType(string(event.Type)),
		slog.String("status", event.Status),
		slog.String("plan", string(sub.Plan)),
	)
	return nil
}
