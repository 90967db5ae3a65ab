package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Taller-api/internal/domain/entity"
)

// schema DDL idempotente del motor de órdenes. El CHECK de parts respalda a nivel BD
// que la cantidad disponible nunca sea negativa.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS parts (
		id                 TEXT PRIMARY KEY,
		name               TEXT NOT NULL,
		description        TEXT NOT NULL DEFAULT '',
		cost_price         NUMERIC(14,2) NOT NULL DEFAULT 0,
		sell_price         NUMERIC(14,2) NOT NULL DEFAULT 0,
		available_quantity INTEGER NOT NULL DEFAULT 0 CHECK (available_quantity >= 0),
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS repair_orders (
		id          TEXT PRIMARY KEY,
		vehicle_id  TEXT NOT NULL,
		customer_id TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		cost_price  NUMERIC(14,2) NOT NULL DEFAULT 0,
		sell_price  NUMERIC(14,2) NOT NULL DEFAULT 0,
		profit      NUMERIC(14,2) NOT NULL DEFAULT 0,
		priority    TEXT NOT NULL CHECK (priority IN ('LOW','MEDIUM','HIGH')),
		status      TEXT NOT NULL CHECK (status IN ('PENDING','IN_PROGRESS','COMPLETED','CANCELLED')),
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_repair_orders_status ON repair_orders (status, id)`,
	`CREATE TABLE IF NOT EXISTS order_details (
		id         TEXT PRIMARY KEY,
		order_id   TEXT NOT NULL REFERENCES repair_orders(id) ON DELETE CASCADE,
		part_id    TEXT NOT NULL REFERENCES parts(id),
		quantity   INTEGER NOT NULL CHECK (quantity > 0),
		cost_price NUMERIC(14,2) NOT NULL DEFAULT 0,
		sell_price NUMERIC(14,2) NOT NULL DEFAULT 0,
		profit     NUMERIC(14,2) NOT NULL DEFAULT 0,
		position   INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_order_details_order ON order_details (order_id, position)`,
	`CREATE TABLE IF NOT EXISTS stock_movements (
		id            TEXT PRIMARY KEY,
		order_id      TEXT NOT NULL REFERENCES repair_orders(id),
		part_id       TEXT NOT NULL REFERENCES parts(id),
		type          TEXT NOT NULL CHECK (type IN ('RESERVE','RELEASE')),
		quantity      INTEGER NOT NULL,
		balance_after INTEGER NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_movements_part ON stock_movements (part_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_movements_order ON stock_movements (order_id, created_at)`,
}

// Migrate crea las tablas si no existen (DB_AUTO_MIGRATE=true).
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migración %d: %w", i, err)
		}
	}
	return nil
}

// SeedParts inserta los repuestos nuevos y refresca el catálogo de los existentes en una sola transacción.
// Es seguro repetirlo en cada arranque: no toca el stock de repuestos ya cargados.
func SeedParts(ctx context.Context, pool *pgxpool.Pool, parts []entity.Part) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	repo := NewPartRepository(tx)
	for i := range parts {
		if err := repo.Upsert(ctx, &parts[i]); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
