package workflow

import (
	"github.com/jhoicas/Taller-api/internal/domain"
	"github.com/jhoicas/Taller-api/internal/domain/entity"
)

// StockEffect efecto que una transición tiene sobre el libro de stock.
type StockEffect int

const (
	EffectNone    StockEffect = iota // sin movimiento de stock
	EffectReserve                    // reserveAll sobre los requerimientos de la orden
	EffectRelease                    // releaseAll sobre los requerimientos de la orden
)

func (e StockEffect) String() string {
	switch e {
	case EffectReserve:
		return "reserve"
	case EffectRelease:
		return "release"
	}
	return "none"
}

// Plan resultado de validar una transición: qué hacer con el stock.
type Plan struct {
	From   entity.OrderStatus
	To     entity.OrderStatus
	Effect StockEffect
	// RestockIgnored es true cuando el caller pidió restock pero la transición no tiene reserva que devolver
	// (ej. PENDING -> CANCELLED). Es un no-op explícito, no un error.
	RestockIgnored bool
}

// PlanTransition aplica la tabla de transiciones de la orden de reparación.
// restock nil equivale a false. CANCELLED y COMPLETED son terminales.
func PlanTransition(from, to entity.OrderStatus, restock *bool) (Plan, error) {
	if IsTerminal(from) {
		return Plan{}, &domain.InvalidTransitionError{From: string(from), To: string(to)}
	}
	wantRestock := restock != nil && *restock
	plan := Plan{From: from, To: to, Effect: EffectNone}

	switch {
	case from == entity.OrderStatusPending && to == entity.OrderStatusInProgress:
		plan.Effect = EffectReserve
	case from == entity.OrderStatusPending && to == entity.OrderStatusCompleted:
	case from == entity.OrderStatusPending && to == entity.OrderStatusCancelled:
		// Nunca hubo reserva para una orden PENDING: el restock no aplica.
	case from == entity.OrderStatusInProgress && to == entity.OrderStatusCompleted:
	case from == entity.OrderStatusInProgress && to == entity.OrderStatusCancelled:
		if wantRestock {
			plan.Effect = EffectRelease
		}
	default:
		return Plan{}, &domain.InvalidTransitionError{From: string(from), To: string(to)}
	}

	plan.RestockIgnored = wantRestock && plan.Effect != EffectRelease
	return plan, nil
}

// IsTerminal indica si no se permite ninguna transición desde el estado.
func IsTerminal(s entity.OrderStatus) bool {
	return s == entity.OrderStatusCancelled || s == entity.OrderStatusCompleted
}
