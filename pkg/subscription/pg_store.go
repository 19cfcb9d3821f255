package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/quotakit/pkg/pg"
)

// PgStore implements Store on PostgreSQL.
//
// Save deliberately never writes used_this_month on conflict: the usage
// counter is only mutated through the ledger's atomic reserve and through
// ResetUsage, so replayed billing events cannot clobber concurrent
// reservations.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PostgreSQL-backed subscription store.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	if pool == nil {
		panic("subscription: pgxpool is required")
	}
	return &PgStore{pool: pool}
}

const subscriptionColumns = `user_id, plan, quota_monthly, used_this_month, trial_expires_at, metadata, created_at, updated_at`

func (s *PgStore) Get(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id = $1`,
		userID,
	)
	return scanSubscription(row)
}

func (s *PgStore) Save(ctx context.Context, sub *Subscription) error {
	if sub.UserID == uuid.Nil {
		return ErrMissingUserID
	}
	if !sub.Plan.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPlan, sub.Plan)
	}

	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO subscriptions (user_id, plan, quota_monthly, used_this_month, trial_expires_at, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			plan = EXCLUDED.plan,
			quota_monthly = EXCLUDED.quota_monthly,
			trial_expires_at = EXCLUDED.trial_expires_at,
			metadata = EXCLUDED.metadata,
			updated_at = EXCLUDED.updated_at`,
		sub.UserID, sub.Plan, sub.QuotaMonthly, sub.UsedThisMonth, sub.TrialExpiresAt, sub.Metadata, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	return nil
}

func (s *PgStore) FindByCustomerID(ctx context.Context, customerID string) (*Subscription, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE metadata->>'customer_id' = $1 LIMIT 1`,
		customerID,
	)
	return scanSubscription(row)
}

func (s *PgStore) ListExpiringTrials(ctx context.Context, from, to time.Time) ([]*Subscription, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions
		 WHERE trial_expires_at > $1 AND trial_expires_at < $2`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expiring trials: %w", err)
	}
	defer rows.Close()

	var subs []*Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list expiring trials: %w", err)
	}
	return subs, nil
}

func (s *PgStore) ResetUsage(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE subscriptions SET used_this_month = 0, updated_at = now() WHERE used_this_month > 0`,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to reset usage counters: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanSubscription(row pgx.Row) (*Subscription, error) {
	var sub Subscription
	err := row.Scan(
		&sub.UserID,
		&sub.Plan,
		&sub.QuotaMonthly,
		&sub.UsedThisMonth,
		&sub.TrialExpiresAt,
		&sub.Metadata,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan subscription: %w", err)
	}
	return &sub, nil
}

var _ Store = (*PgStore)(nil)
