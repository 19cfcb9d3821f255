package subscription

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and local development.
// It mirrors the PgStore contract, including the rule that Save never
// overwrites the usage counter of an existing subscription.
type MemoryStore struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]*Subscription
}

// NewMemoryStore creates an empty in-memory subscription store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{subs: make(map[uuid.UUID]*Subscription)}
}

func (s *MemoryStore) Get(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subs[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneSubscription(sub), nil
}

func (s *MemoryStore) Save(ctx context.Context, sub *Subscription) error {
	if sub.UserID == uuid.Nil {
		return ErrMissingUserID
	}
	if !sub.Plan.Valid() {
		return ErrInvalidPlan
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	stored := cloneSubscription(sub)
	stored.UpdatedAt = now

	if existing, ok := s.subs[sub.UserID]; ok {
		stored.UsedThisMonth = existing.UsedThisMonth
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.CreatedAt = now
	}

	s.subs[sub.UserID] = stored
	return nil
}

func (s *MemoryStore) FindByCustomerID(ctx context.Context, customerID string) (*Subscription, error) {
	if customerID == "" {
		return nil, ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sub := range s.subs {
		if sub.Metadata[MetaCustomerID] == customerID {
			return cloneSubscription(sub), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListExpiringTrials(ctx context.Context, from, to time.Time) ([]*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Subscription
	for _, sub := range s.subs {
		if sub.TrialExpiresAt == nil {
			continue
		}
		if sub.TrialExpiresAt.After(from) && sub.TrialExpiresAt.Before(to) {
			out = append(out, cloneSubscription(sub))
		}
	}
	return out, nil
}

func (s *MemoryStore) ResetUsage(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, sub := range s.subs {
		if sub.UsedThisMonth > 0 {
			sub.UsedThisMonth = 0
			sub.UpdatedAt = time.Now().UTC()
			n++
		}
	}
	return n, nil
}

// AddUsage adjusts the stored usage counter directly. Test helper mirroring
// what the ledger's reserve does in production.
func (s *MemoryStore) AddUsage(userID uuid.UUID, amount int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subs[userID]
	if !ok {
		return false
	}
	sub.UsedThisMonth += amount
	return true
}

// TryAddUsage increments the usage counter only if the result stays within
// limit, all under the store lock. This is the in-memory equivalent of the
// conditional UPDATE the PostgreSQL ledger issues.
func (s *MemoryStore) TryAddUsage(userID uuid.UUID, amount, limit int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subs[userID]
	if !ok || sub.UsedThisMonth+amount > limit {
		return false
	}
	sub.UsedThisMonth += amount
	sub.UpdatedAt = time.Now().UTC()
	return true
}

func cloneSubscription(sub *Subscription) *Subscription {
	out := *sub
	if sub.TrialExpiresAt != nil {
		t := *sub.TrialExpiresAt
		out.TrialExpiresAt = &t
	}
	if sub.Metadata != nil {
		out.Metadata = maps.Clone(sub.Metadata)
	}
	return &out
}

var _ Store = (*MemoryStore)(nil)
