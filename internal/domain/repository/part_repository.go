package repository

import (
	"context"

	"github.com/jhoicas/Taller-api/internal/domain/entity"
)

// PartRepository define el puerto de persistencia para repuestos.
// SetAvailableQuantity y GetAvailableQuantityForUpdate solo los invoca el libro de stock.
type PartRepository interface {
	// GetByID devuelve nil, nil si el repuesto no existe.
	GetByID(ctx context.Context, id string) (*entity.Part, error)
	// GetAvailableQuantity devuelve domain.ErrPartNotFound si el repuesto no existe.
	GetAvailableQuantity(ctx context.Context, id string) (int, error)
	// GetAvailableQuantityForUpdate igual que GetAvailableQuantity pero bloquea la fila
	// hasta el fin de la transacción (SELECT FOR UPDATE).
	GetAvailableQuantityForUpdate(ctx context.Context, id string) (int, error)
	SetAvailableQuantity(ctx context.Context, id string, qty int) error
	// ListAll devuelve todos los repuestos activos ordenados por ID.
	ListAll(ctx context.Context) ([]*entity.Part, error)
}
