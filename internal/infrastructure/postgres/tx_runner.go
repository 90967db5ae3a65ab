package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Taller-api/internal/application/repairorder"
	"github.com/jhoicas/Taller-api/internal/domain/repository"
)

var _ repairorder.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción (READ COMMITTED + bloqueos de fila), ejecuta fn con repos atados a la tx
// y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	orders repository.RepairOrderRepository,
	parts repository.PartRepository,
	movements repository.StockMovementRepository,
) error) error {
	return r.run(ctx, pgx.TxOptions{}, fn)
}

// RunReadOnly transacción REPEATABLE READ de solo lectura: todas las lecturas ven el mismo snapshot.
func (r *TxRunner) RunReadOnly(ctx context.Context, fn func(
	orders repository.RepairOrderRepository,
	parts repository.PartRepository,
	movements repository.StockMovementRepository,
) error) error {
	return r.run(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, fn)
}

func (r *TxRunner) run(ctx context.Context, opts pgx.TxOptions, fn func(
	orders repository.RepairOrderRepository,
	parts repository.PartRepository,
	movements repository.StockMovementRepository,
) error) error {
	tx, err := r.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewRepairOrderRepository(tx), NewPartRepository(tx), NewStockMovementRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
