package repairorder

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/Taller-api/internal/application/stock"
	"github.com/jhoicas/Taller-api/internal/domain"
	"github.com/jhoicas/Taller-api/internal/domain/entity"
	"github.com/jhoicas/Taller-api/internal/domain/repository"
	"github.com/jhoicas/Taller-api/internal/domain/workflow"
	"github.com/jhoicas/Taller-api/pkg/logger"
)

// TransitionUseCase máquina de estados de la orden de reparación.
// Cada transición (validación + efecto en stock + cambio de estado) es una sola transacción:
// la fila de la orden se bloquea primero, así dos transiciones sobre la misma orden se serializan.
type TransitionUseCase struct {
	tx     TxRunner
	ledger *stock.Ledger
	rec    Recorder
	log    *logger.Logger
	now    func() time.Time
}

// NewTransitionUseCase construye el caso de uso. rec puede ser nil.
func NewTransitionUseCase(tx TxRunner, ledger *stock.Ledger, rec Recorder, log *logger.Logger) *TransitionUseCase {
	if rec == nil {
		rec = NopRecorder{}
	}
	return &TransitionUseCase{tx: tx, ledger: ledger, rec: rec, log: log.Component("transition"), now: time.Now}
}

// TransitionInput solicitud de cambio de estado.
// RestockParts solo tiene efecto en IN_PROGRESS -> CANCELLED; nil equivale a false.
type TransitionInput struct {
	OrderID      string
	Target       entity.OrderStatus
	RestockParts *bool
}

// TransitionResult orden actualizada y efecto aplicado al stock.
type TransitionResult struct {
	Order          *entity.RepairOrder
	From           entity.OrderStatus
	Effect         workflow.StockEffect
	RestockIgnored bool
}

// Transition aplica la transición. Errores esperados: domain.ErrOrderNotFound,
// *domain.InsufficientStockError, *domain.InvalidTransitionError, domain.ErrInvalidInput.
// Ante cualquier error ni la orden ni el stock cambian.
func (uc *TransitionUseCase) Transition(ctx context.Context, in TransitionInput) (*TransitionResult, error) {
	if in.OrderID == "" || !in.Target.Valid() {
		return nil, domain.ErrInvalidInput
	}

	var result *TransitionResult
	var from entity.OrderStatus
	var units int
	err := uc.tx.Run(ctx, func(
		orders repository.RepairOrderRepository,
		parts repository.PartRepository,
		movements repository.StockMovementRepository,
	) error {
		order, err := orders.GetForUpdate(ctx, in.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrOrderNotFound
		}
		from = order.Status

		plan, err := workflow.PlanTransition(order.Status, in.Target, in.RestockParts)
		if err != nil {
			return err
		}

		reqs := order.PartQuantities()
		switch plan.Effect {
		case workflow.EffectReserve:
			if err := uc.ledger.ReserveAll(ctx, parts, movements, order.ID, reqs); err != nil {
				return err
			}
		case workflow.EffectRelease:
			if err := uc.ledger.ReleaseAll(ctx, parts, movements, order.ID, reqs); err != nil {
				return err
			}
		}
		if plan.Effect != workflow.EffectNone {
			units = stock.Units(reqs)
		}

		if err := orders.UpdateStatus(ctx, order.ID, in.Target); err != nil {
			return err
		}
		updated := order.Clone()
		updated.Status = in.Target
		updated.UpdatedAt = uc.now()
		result = &TransitionResult{
			Order:          updated,
			From:           plan.From,
			Effect:         plan.Effect,
			RestockIgnored: plan.RestockIgnored,
		}
		return nil
	})

	uc.rec.TransitionObserved(string(from), string(in.Target), outcome(err))
	if err != nil {
		ev := uc.log.Warn()
		if errors.Is(err, domain.ErrIntegrityViolation) || outcome(err) == "error" {
			ev = uc.log.Error()
		}
		ev.Err(err).Str("order_id", in.OrderID).Str("from", string(from)).Str("to", string(in.Target)).
			Msg("transición rechazada")
		return nil, err
	}

	if result.Effect != workflow.EffectNone {
		uc.rec.StockMoved(result.Effect.String(), units)
	}
	ev := uc.log.Info().Str("order_id", in.OrderID).Str("from", string(result.From)).
		Str("to", string(in.Target)).Str("stock_effect", result.Effect.String())
	if result.RestockIgnored {
		ev = ev.Bool("restock_ignored", true)
	}
	ev.Msg("transición aplicada")
	return result, nil
}

// outcome etiqueta de resultado para métricas.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, domain.ErrOrderNotFound), errors.Is(err, domain.ErrPartNotFound):
		return "not_found"
	}
	return "error"
}
