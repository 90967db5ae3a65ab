package repairorder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Taller-api/internal/domain"
	"github.com/jhoicas/Taller-api/internal/domain/entity"
	"github.com/jhoicas/Taller-api/internal/domain/repository"
	"github.com/jhoicas/Taller-api/pkg/logger"
)

// OrderUseCase alta y consulta de órdenes de reparación. No toca el stock: la reserva ocurre
// solo al pasar a IN_PROGRESS (TransitionUseCase).
type OrderUseCase struct {
	tx  TxRunner
	log *logger.Logger
	now func() time.Time
}

// NewOrderUseCase construye el caso de uso.
func NewOrderUseCase(tx TxRunner, log *logger.Logger) *OrderUseCase {
	return &OrderUseCase{tx: tx, log: log.Component("orders"), now: time.Now}
}

// RequirementInput línea de repuestos de la orden.
type RequirementInput struct {
	PartID    string
	Quantity  int
	CostPrice decimal.Decimal
	SellPrice decimal.Decimal
	Profit    decimal.Decimal
}

// CreateOrderInput datos de alta de una orden.
type CreateOrderInput struct {
	VehicleID    string
	CustomerID   string
	Description  string
	CostPrice    decimal.Decimal
	SellPrice    decimal.Decimal
	Profit       decimal.Decimal
	Priority     entity.Priority
	Requirements []RequirementInput
}

// Create registra la orden en PENDING. Cada línea debe referir un repuesto existente
// y no pedir más de lo disponible en este momento (verificación informativa, no reserva).
func (uc *OrderUseCase) Create(ctx context.Context, in CreateOrderInput) (*entity.RepairOrder, error) {
	if in.VehicleID == "" || in.CustomerID == "" || !in.Priority.Valid() {
		return nil, domain.ErrInvalidInput
	}
	if in.CostPrice.IsNegative() || in.SellPrice.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	for _, r := range in.Requirements {
		if r.PartID == "" || r.Quantity < 1 || r.CostPrice.IsNegative() || r.SellPrice.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
	}

	now := uc.now()
	order := &entity.RepairOrder{
		ID:          uuid.New().String(),
		VehicleID:   in.VehicleID,
		CustomerID:  in.CustomerID,
		Description: in.Description,
		CostPrice:   in.CostPrice,
		SellPrice:   in.SellPrice,
		Profit:      in.Profit,
		Priority:    in.Priority,
		Status:      entity.OrderStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, r := range in.Requirements {
		order.Requirements = append(order.Requirements, entity.OrderRequirement{
			ID:        uuid.New().String(),
			OrderID:   order.ID,
			PartID:    r.PartID,
			Quantity:  r.Quantity,
			CostPrice: r.CostPrice,
			SellPrice: r.SellPrice,
			Profit:    r.Profit,
			CreatedAt: now,
		})
	}

	err := uc.tx.Run(ctx, func(
		orders repository.RepairOrderRepository,
		parts repository.PartRepository,
		_ repository.StockMovementRepository,
	) error {
		for _, r := range order.Requirements {
			part, err := parts.GetByID(ctx, r.PartID)
			if err != nil {
				return err
			}
			if part == nil {
				return domain.ErrPartNotFound
			}
			if part.AvailableQuantity < r.Quantity {
				return &domain.InsufficientStockError{PartID: r.PartID, Available: part.AvailableQuantity, Required: r.Quantity}
			}
		}
		return orders.Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("order_id", order.ID).Str("priority", string(order.Priority)).
		Int("lines", len(order.Requirements)).Msg("orden creada")
	return order, nil
}

// GetByID devuelve la orden con sus requerimientos o domain.ErrOrderNotFound.
func (uc *OrderUseCase) GetByID(ctx context.Context, id string) (*entity.RepairOrder, error) {
	var order *entity.RepairOrder
	err := uc.tx.RunReadOnly(ctx, func(
		orders repository.RepairOrderRepository,
		_ repository.PartRepository,
		_ repository.StockMovementRepository,
	) error {
		var err error
		order, err = orders.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

// ListByStatus lista las órdenes de un estado ordenadas por ID.
func (uc *OrderUseCase) ListByStatus(ctx context.Context, status entity.OrderStatus) ([]*entity.RepairOrder, error) {
	if !status.Valid() {
		return nil, domain.ErrInvalidInput
	}
	var list []*entity.RepairOrder
	err := uc.tx.RunReadOnly(ctx, func(
		orders repository.RepairOrderRepository,
		_ repository.PartRepository,
		_ repository.StockMovementRepository,
	) error {
		var err error
		list, err = orders.ListByStatus(ctx, status)
		return err
	})
	return list, err
}

// ListMovementsByPart historial del libro de stock para un repuesto (más reciente primero).
func (uc *OrderUseCase) ListMovementsByPart(ctx context.Context, partID string, limit, offset int) ([]*entity.StockMovement, error) {
	var list []*entity.StockMovement
	err := uc.tx.RunReadOnly(ctx, func(
		_ repository.RepairOrderRepository,
		parts repository.PartRepository,
		movements repository.StockMovementRepository,
	) error {
		part, err := parts.GetByID(ctx, partID)
		if err != nil {
			return err
		}
		if part == nil {
			return domain.ErrPartNotFound
		}
		list, err = movements.ListByPart(ctx, partID, limit, offset)
		return err
	})
	return list, err
}
