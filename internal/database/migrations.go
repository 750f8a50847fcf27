package database

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// schema crea las tablas del ledger. products es propiedad del catálogo
// externo; se crea aquí solo para entornos de desarrollo.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS branches (
		id           BIGSERIAL PRIMARY KEY,
		name         TEXT NOT NULL,
		code         TEXT NOT NULL UNIQUE,
		address      TEXT NOT NULL DEFAULT '',
		phone        TEXT NOT NULL DEFAULT '',
		email        TEXT NOT NULL DEFAULT '',
		is_warehouse BOOLEAN NOT NULL DEFAULT FALSE,
		is_active    BOOLEAN NOT NULL DEFAULT TRUE,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id        BIGSERIAL PRIMARY KEY,
		name      TEXT NOT NULL,
		price     NUMERIC(14,2) NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS stock_levels (
		id              BIGSERIAL PRIMARY KEY,
		branch_id       BIGINT NOT NULL REFERENCES branches(id),
		product_id      BIGINT NOT NULL,
		variation_id    BIGINT,
		quantity        INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
		min_stock_level INTEGER NOT NULL DEFAULT 10 CHECK (min_stock_level >= 0),
		max_stock_level INTEGER NOT NULL DEFAULT 1000 CHECK (max_stock_level >= min_stock_level),
		last_restocked  TIMESTAMPTZ,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS stock_levels_row_uidx
		ON stock_levels (branch_id, product_id, COALESCE(variation_id, 0))`,
	`CREATE TABLE IF NOT EXISTS inventory_transactions (
		id                    BIGSERIAL PRIMARY KEY,
		transaction_code      TEXT NOT NULL UNIQUE,
		type                  TEXT NOT NULL CHECK (type IN ('stock_in','stock_out','transfer','adjustment')),
		product_id            BIGINT NOT NULL,
		variation_id          BIGINT,
		quantity              INTEGER NOT NULL CHECK (quantity >= 0),
		source_branch_id      BIGINT REFERENCES branches(id),
		destination_branch_id BIGINT REFERENCES branches(id),
		reference_type        TEXT NOT NULL DEFAULT '',
		reference_number      TEXT NOT NULL DEFAULT '',
		unit_cost             NUMERIC(14,2),
		total_cost            NUMERIC(14,2),
		supplier              TEXT NOT NULL DEFAULT '',
		reason                TEXT NOT NULL DEFAULT '',
		remarks               TEXT NOT NULL DEFAULT '',
		status                TEXT NOT NULL CHECK (status IN ('pending','in_transit','completed','cancelled')),
		transfer_mode         TEXT NOT NULL DEFAULT '',
		previous_quantity     INTEGER,
		new_quantity          INTEGER,
		performed_by          TEXT NOT NULL DEFAULT '',
		resolution_remarks    TEXT NOT NULL DEFAULT '',
		created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		completed_at          TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS inventory_transactions_type_status_idx
		ON inventory_transactions (type, status)`,
	`CREATE INDEX IF NOT EXISTS inventory_transactions_product_idx
		ON inventory_transactions (product_id, variation_id)`,
	`CREATE INDEX IF NOT EXISTS inventory_transactions_created_idx
		ON inventory_transactions (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS transaction_sequences (
		prefix     TEXT NOT NULL,
		day        TEXT NOT NULL,
		last_value INTEGER NOT NULL,
		PRIMARY KEY (prefix, day)
	)`,
}

// Migrate crea el esquema si no existe
func (p *PostgresDB) Migrate(ctx context.Context, logger *zap.Logger) error {
	for i, stmt := range schema {
		if _, err := p.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migration %d: %w", i, err)
		}
	}
	logger.Info("Database schema up to date", zap.Int("statements", len(schema)))
	return nil
}
