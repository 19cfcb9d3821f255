package quota

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/quotakit/pkg/pg"
)

// PgLedger implements Ledger on PostgreSQL.
//
// Reserve runs as a single transaction: insert the usage event, then bump the
// subscription counter with the quota guard in the UPDATE's WHERE clause.
// Zero affected rows means the guard rejected the increment and the whole
// transaction rolls back, so no event is recorded for denied reservations.
type PgLedger struct {
	pool *pgxpool.Pool
}

// NewPgLedger creates a PostgreSQL-backed usage ledger.
func NewPgLedger(pool *pgxpool.Pool) *PgLedger {
	if pool == nil {
		panic("quota: pgxpool is required")
	}
	return &PgLedger{pool: pool}
}

func (l *PgLedger) Exists(ctx context.Context, idempotencyKey string) (bool, error) {
	if idempotencyKey == "" {
		return false, nil
	}

	var exists bool
	err := l.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM usage_events WHERE idempotency_key = $1)`,
		idempotencyKey,
	).Scan(&exists)
	if err != nil {
		return false, errors.Join(ErrReservationFailed, err)
	}
	return exists, nil
}

func (l *PgLedger) Reserve(ctx context.Context, res Reservation) error {
	if res.Cost <= 0 {
		return ErrInvalidCost
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return errors.Join(ErrReservationFailed, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// NULLIF keeps empty keys out of the partial unique index.
	_, err = tx.Exec(ctx,
		`INSERT INTO usage_events (id, user_id, amount, kind, idempotency_key, created_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)`,
		uuid.New(), res.UserID, res.Cost, res.Kind, res.IdempotencyKey, time.Now().UTC(),
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return errors.Join(ErrReservationFailed, err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE subscriptions
		 SET used_this_month = used_this_month + $2, updated_at = now()
		 WHERE user_id = $1 AND used_this_month + $2 <= $3`,
		res.UserID, res.Cost, res.Limit,
	)
	if err != nil {
		return errors.Join(ErrReservationFailed, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrQuotaExceeded
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Join(ErrReservationFailed, err)
	}
	return nil
}

var _ Ledger = (*PgLedger)(nil)
