package quota

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/quotakit/pkg/subscription"
)

// MemoryLedger implements Ledger over a subscription.MemoryStore for tests
// and local development. The conditional increment is delegated to the
// store's TryAddUsage so the guard and the counter live behind one lock,
// matching the atomicity the PostgreSQL ledger gets from its transaction.
type MemoryLedger struct {
	subs *subscription.MemoryStore

	mu     sync.Mutex
	events []UsageEvent
	keys   map[string]struct{}
}

// NewMemoryLedger creates an in-memory ledger bound to the given store.
func NewMemoryLedger(subs *subscription.MemoryStore) *MemoryLedger {
	if subs == nil {
		panic("quota: subscription.MemoryStore is required")
	}
	return &MemoryLedger{
		subs: subs,
		keys: make(map[string]struct{}),
	}
}

func (l *MemoryLedger) Exists(ctx context.Context, idempotencyKey string) (bool, error) {
	if idempotencyKey == "" {
		return false, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.keys[idempotencyKey]
	return ok, nil
}

func (l *MemoryLedger) Reserve(ctx context.Context, res Reservation) error {
	if res.Cost <= 0 {
		return ErrInvalidCost
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if res.IdempotencyKey != "" {
		if _, ok := l.keys[res.IdempotencyKey]; ok {
			return ErrDuplicateKey
		}
	}

	if !l.subs.TryAddUsage(res.UserID, res.Cost, res.Limit) {
		return ErrQuotaExceeded
	}

	l.events = append(l.events, UsageEvent{
		ID:             uuid.New(),
		UserID:         res.UserID,
		Amount:         res.Cost,
		Kind:           res.Kind,
		IdempotencyKey: res.IdempotencyKey,
		CreatedAt:      time.Now().UTC(),
	})
	if res.IdempotencyKey != "" {
		l.keys[res.IdempotencyKey] = struct{}{}
	}
	return nil
}

// Events returns a snapshot of recorded usage events. Test helper.
func (l *MemoryLedger) Events() []UsageEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]UsageEvent, len(l.events))
	copy(out, l.events)
	return out
}

var _ Ledger = (*MemoryLedger)(nil)
