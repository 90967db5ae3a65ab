package repository

import (
	"context"

	"github.com/jhoicas/Taller-api/internal/domain/entity"
)

// StockMovementRepository define el puerto de persistencia para movimientos del libro de stock.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	ListByPart(ctx context.Context, partID string, limit, offset int) ([]*entity.StockMovement, error)
	ListByOrder(ctx context.Context, orderID string) ([]*entity.StockMovement, error)
}
