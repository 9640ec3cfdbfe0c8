package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the subset of *pgxpool.Pool used by PostgresStore.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore keeps records in the quota_records table. Postgres has no
// native expiry, so rows past expires_at are ignored on read and removed by Sweep.
type PostgresStore struct {
	db  querier
	now func() time.Time
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: pool, now: time.Now}
}

func (s *PostgresStore) Get(ctx context.Context, key string) (*Record, error) {
	var rec Record
	err := s.db.QueryRow(ctx, `
		SELECT count, reset_at
		FROM quota_records
		WHERE identity = $1
		  AND expires_at > $2
	`, key, s.now()).Scan(&rec.Count, &rec.ResetAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query quota record: %w", err)
	}
	return &rec, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, rec Record, expiresAt time.Time) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO quota_records (identity, count, reset_at, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (identity) DO UPDATE
		SET count = EXCLUDED.count,
		    reset_at = EXCLUDED.reset_at,
		    expires_at = EXCLUDED.expires_at,
		    updated_at = EXCLUDED.updated_at
	`, key, rec.Count, rec.ResetAt, expiresAt, s.now())
	if err != nil {
		return fmt.Errorf("upsert quota record: %w", err)
	}
	return nil
}

// Sweep deletes expired rows and returns how many were removed.
func (s *PostgresStore) Sweep(ctx context.Context) (int, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM quota_records WHERE expires_at <= $1`, s.now())
	if err != nil {
		return 0, fmt.Errorf("sweep quota records: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
