package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// Schema creates the table used by PostgresStore.
const Schema = `CREATE TABLE IF NOT EXISTS tkb_state (
	id                  TEXT PRIMARY KEY,
	data                TEXT NOT NULL DEFAULT '',
	by_week             BOOLEAN NOT NULL DEFAULT FALSE,
	week                INTEGER NOT NULL DEFAULT 1,
	show_only_available BOOLEAN NOT NULL DEFAULT FALSE,
	only_today          BOOLEAN NOT NULL DEFAULT FALSE,
	auto_fit            BOOLEAN NOT NULL DEFAULT FALSE,
	hide_panel          BOOLEAN NOT NULL DEFAULT FALSE,
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore is a PostgreSQL-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store on pool. The tkb_state table must exist.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Load(ctx context.Context, id string) (State, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	st, err := scanState(s.pool.QueryRow(ctx,
		`SELECT data, by_week, week, show_only_available, only_today, auto_fit, hide_panel, updated_at
		 FROM tkb_state
		 WHERE id = $1`,
		id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Default(), nil
	}
	if err != nil {
		return State{}, fmt.Errorf("load state: %w", err)
	}
	st.Normalize()
	return st, nil
}

func (s *PostgresStore) Save(ctx context.Context, id string, st State) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if err := upsert(ctx, s.pool, id, st); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// Update runs fn on the row locked with SELECT ... FOR UPDATE so that writers
// on other instances wait instead of overwriting each other.
func (s *PostgresStore) Update(ctx context.Context, id string, fn func(*State) error) (State, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return State{}, fmt.Errorf("begin update: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// The row must exist before it can be locked.
	if _, err := tx.Exec(ctx,
		`INSERT INTO tkb_state (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, id,
	); err != nil {
		return State{}, fmt.Errorf("update state: %w", err)
	}

	st, err := scanState(tx.QueryRow(ctx,
		`SELECT data, by_week, week, show_only_available, only_today, auto_fit, hide_panel, updated_at
		 FROM tkb_state
		 WHERE id = $1
		 FOR UPDATE`,
		id,
	))
	if err != nil {
		return State{}, fmt.Errorf("update state: %w", err)
	}
	st.Normalize()

	if err := fn(&st); err != nil {
		return State{}, err
	}
	if err := upsert(ctx, tx, id, st); err != nil {
		return State{}, fmt.Errorf("update state: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return State{}, fmt.Errorf("commit update: %w", err)
	}
	return st, nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func scanState(row pgx.Row) (State, error) {
	var st State
	err := row.Scan(
		&st.Data,
		&st.ByWeek,
		&st.Week,
		&st.ShowOnlyAvailable,
		&st.OnlyToday,
		&st.AutoFit,
		&st.HidePanel,
		&st.UpdatedAt,
	)
	return st, err
}

func upsert(ctx context.Context, db execer, id string, st State) error {
	updatedAt := st.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err := db.Exec(ctx,
		`INSERT INTO tkb_state (id, data, by_week, week, show_only_available, only_today, auto_fit, hide_panel, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
		   data = EXCLUDED.data,
		   by_week = EXCLUDED.by_week,
		   week = EXCLUDED.week,
		   show_only_available = EXCLUDED.show_only_available,
		   only_today = EXCLUDED.only_today,
		   auto_fit = EXCLUDED.auto_fit,
		   hide_panel = EXCLUDED.hide_panel,
		   updated_at = EXCLUDED.updated_at`,
		id,
		st.Data,
		st.ByWeek,
		st.Week,
		st.ShowOnlyAvailable,
		st.OnlyToday,
		st.AutoFit,
		st.HidePanel,
		updatedAt,
	)
	return err
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if _, err := s.pool.Exec(ctx, `DELETE FROM tkb_state WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete state: %w", err)
	}
	return nil
}

func (s *PostgresStore) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
