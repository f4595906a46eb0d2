package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps the collection as one jsonb row in booking_ledgers.
type PostgresStore struct {
	pool rowQuerier
	name string
}

// NewPostgresStore builds a store for the named ledger.
func NewPostgresStore(pool *pgxpool.Pool, name string) *PostgresStore {
	if pool == nil {
		panic("booking: pgx pool required")
	}
	return newPostgresStoreWithExec(pool, name)
}

func newPostgresStoreWithExec(exec rowQuerier, name string) *PostgresStore {
	if exec == nil {
		panic("booking: exec required")
	}
	if name == "" {
		name = "bookings"
	}
	return &PostgresStore{pool: exec, name: name}
}

func (s *PostgresStore) Load(ctx context.Context) (Snapshot, error) {
	query := `SELECT version, records FROM booking_ledgers WHERE name = $1`
	var (
		version string
		data    []byte
	)
	if err := s.pool.QueryRow(ctx, query, s.name).Scan(&version, &data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Snapshot{}, nil
		}
		return Snapshot{}, fmt.Errorf("booking: postgres load: %w", err)
	}
	records, err := decodeRecords(data)
	if err != nil {
		return Snapshot{}, fmt.Errorf("booking: postgres decode: %w", err)
	}
	return Snapshot{Records: records, Version: version}, nil
}

func (s *PostgresStore) Save(ctx context.Context, records []Record, version string) error {
	data, err := encodeRecords(records)
	if err != nil {
		return err
	}
	next := uuid.NewString()

	var ct pgconn.CommandTag
	if version == "" {
		ct, err = s.pool.Exec(ctx, `
			INSERT INTO booking_ledgers (name, version, records, updated_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (name) DO NOTHING
		`, s.name, next, data)
	} else {
		ct, err = s.pool.Exec(ctx, `
			UPDATE booking_ledgers
			SET version = $2, records = $3, updated_at = NOW()
			WHERE name = $1 AND version = $4
		`, s.name, next, data, version)
	}
	if err != nil {
		return fmt.Errorf("booking: postgres save: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}
