// Package postgres implements internal/store's repository interfaces on
// top of pgx, following the internal/infrastructure/postgres
// package: plain SQL, RETURNING-based scans, and pgconn.PgError code
// mapping for conflicts. Generalized here with a shared querier/tx
// abstraction so audit rows can be written in the same transaction as the
// domain mutation they describe (spec testable property 5), which
// ClaimAndFire does ad hoc per-method rather than as a reusable
// abstraction.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/attentive-assistant/core/internal/apperr"
	"github.com/attentive-assistant/core/internal/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, letting every
// repository method run either standalone or inside a caller-supplied
// transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// tx wraps a pgx.Tx to satisfy store.Tx and querier simultaneously.
type tx struct {
	pgx.Tx
}

func (t *tx) Commit(ctx context.Context) error   { return t.Tx.Commit(ctx) }
func (t *tx) Rollback(ctx context.Context) error { return t.Tx.Rollback(ctx) }

// DB wraps a pgxpool.Pool and implements store.Beginner.
type DB struct {
	Pool *pgxpool.Pool
}

func NewDB(pool *pgxpool.Pool) *DB {
	return &DB{Pool: pool}
}

func (d *DB) Begin(ctx context.Context) (store.Tx, error) {
	t, err := d.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &tx{t}, nil
}

// q resolves the querier to use: the supplied transaction if non-nil,
// otherwise the pool directly. Mirrors the repositories, which
// always operate on r.pool except inside ClaimAndFire's own local tx.
func (d *DB) q(storeTx store.Tx) querier {
	if storeTx == nil {
		return d.Pool
	}
	t, ok := storeTx.(*tx)
	if !ok {
		panic("postgres: store.Tx not created by this package")
	}
	return t.Tx
}

// mapConflict maps a unique-violation pgconn.PgError to apperr.KindConflict,
// the same 23505 check used in job_repo.go/schedule_repo.go.
func mapConflict(err error, msg string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return apperr.New(apperr.KindConflict, msg)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil // caller maps no-rows to a specific not-found sentinel
	}
	return err
}
