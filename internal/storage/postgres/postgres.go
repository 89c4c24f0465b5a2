// Package postgres holds the checkout-attempt audit trail. Order and payment
// state of record lives in the upstream services; this store only keeps a
// local, append-only log of what this storefront submitted.
package postgres

import (
	"context"

	"github.com/go-faster/errors"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/techstore-vn/checkout-api/db"
)

// NewPool opens a pgxpool.Pool. Every connection registers shopspring/decimal
// codecs so NUMERIC columns scan without float round-trips.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse database url")
	}
	cfg.AfterConnect = func(_ context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "open pool")
	}
	return pool, nil
}

// RunMigrations applies the embedded schema. The DDL is idempotent
// (IF NOT EXISTS), so this runs unconditionally at startup.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, db.Schema); err != nil {
		return errors.Wrap(err, "apply schema")
	}
	return nil
}
