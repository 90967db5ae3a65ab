package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/Taller-api/internal/domain"
	"github.com/jhoicas/Taller-api/internal/domain/entity"
	"github.com/jhoicas/Taller-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo auditoría del libro de stock sobre PostgreSQL.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create persiste un movimiento.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_movements (id, order_id, part_id, type, quantity, balance_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.OrderID, m.PartID, m.Type, m.Quantity, m.BalanceAfter, m.CreatedAt)
	if err != nil {
		if isReadOnlyViolation(err) {
			return domain.ErrReadOnlyTx
		}
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// ListByPart movimientos de un repuesto, más reciente primero. limit <= 0 sin límite.
func (r *StockMovementRepo) ListByPart(ctx context.Context, partID string, limit, offset int) ([]*entity.StockMovement, error) {
	query := `
		SELECT id, order_id, part_id, type, quantity, balance_after, created_at
		FROM stock_movements WHERE part_id = $1
		ORDER BY created_at DESC, id DESC`
	args := []any{partID}
	if limit > 0 {
		query += ` LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	} else if offset > 0 {
		query += ` OFFSET $2`
		args = append(args, offset)
	}
	return r.list(ctx, query, args...)
}

// ListByOrder movimientos de una orden en orden de registro.
func (r *StockMovementRepo) ListByOrder(ctx context.Context, orderID string) ([]*entity.StockMovement, error) {
	return r.list(ctx, `
		SELECT id, order_id, part_id, type, quantity, balance_after, created_at
		FROM stock_movements WHERE order_id = $1
		ORDER BY created_at, id`, orderID)
}

func (r *StockMovementRepo) list(ctx context.Context, query string, args ...any) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		var m entity.StockMovement
		if err := rows.Scan(&m.ID, &m.OrderID, &m.PartID, &m.Type, &m.Quantity, &m.BalanceAfter, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}
