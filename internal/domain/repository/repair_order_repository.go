package repository

import (
	"context"

	"github.com/jhoicas/Taller-api/internal/domain/entity"
)

// RepairOrderRepository define el puerto de persistencia para órdenes de reparación (con sus requerimientos).
type RepairOrderRepository interface {
	Create(ctx context.Context, order *entity.RepairOrder) error
	// GetByID devuelve nil, nil si la orden no existe.
	GetByID(ctx context.Context, id string) (*entity.RepairOrder, error)
	// GetForUpdate bloquea la orden hasta el fin de la transacción; serializa transiciones concurrentes.
	GetForUpdate(ctx context.Context, id string) (*entity.RepairOrder, error)
	// ListByStatus devuelve las órdenes del estado indicado ordenadas por ID.
	ListByStatus(ctx context.Context, status entity.OrderStatus) ([]*entity.RepairOrder, error)
	UpdateStatus(ctx context.Context, id string, status entity.OrderStatus) error
}
