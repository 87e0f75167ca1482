package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
)

// NewPgxPool connects a pgx pool with a bounded number of connections.
func NewPgxPool(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	return pgxpool.ConnectConfig(ctx, cfg)
}

// Migrate applies the schema. Idempotent; used by cmd/seed and the
// integration test harness.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	const schema = `
CREATE TABLE IF NOT EXISTS students (
  id             TEXT PRIMARY KEY,
  email          TEXT NOT NULL UNIQUE,
  full_name      TEXT NOT NULL DEFAULT '',
  registered_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  last_active_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS items (
  id          TEXT PRIMARY KEY,
  kind        TEXT NOT NULL,
  title       TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price_paise BIGINT NOT NULL DEFAULT 0,
  currency    TEXT NOT NULL DEFAULT 'INR',
  active      BOOLEAN NOT NULL DEFAULT TRUE,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS item_enrollments (
  item_id     TEXT NOT NULL REFERENCES items(id),
  student_id  TEXT NOT NULL REFERENCES students(id),
  enrolled_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  PRIMARY KEY (item_id, student_id)
);

CREATE TABLE IF NOT EXISTS purchases (
  id                 TEXT PRIMARY KEY,
  student_id         TEXT NOT NULL REFERENCES students(id),
  item_id            TEXT NOT NULL REFERENCES items(id),
  item_kind          TEXT NOT NULL,
  state              TEXT NOT NULL,
  amount_paise       BIGINT NOT NULL DEFAULT 0,
  currency           TEXT NOT NULL DEFAULT 'INR',
  gateway_order_id   TEXT,
  gateway_payment_id TEXT,
  signature          TEXT,
  payment_method     TEXT,
  paid_at            TIMESTAMPTZ,
  failure_reason     TEXT,
  failed_at          TIMESTAMPTZ,
  access_granted_at  TIMESTAMPTZ,
  purchased_at       TIMESTAMPTZ,
  is_active          BOOLEAN NOT NULL DEFAULT TRUE,
  created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_purchases_student_item ON purchases (student_id, item_id);
CREATE INDEX IF NOT EXISTS idx_purchases_gateway_order ON purchases (gateway_order_id);

-- One access-granting record per (student, item).
CREATE UNIQUE INDEX IF NOT EXISTS uq_purchases_completed_active
  ON purchases (student_id, item_id)
  WHERE state = 'completed' AND is_active;
`
	_, err := pool.Exec(ctx, schema)
	return err
}
