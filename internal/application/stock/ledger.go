package stock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Taller-api/internal/domain"
	"github.com/jhoicas/Taller-api/internal/domain/entity"
	"github.com/jhoicas/Taller-api/internal/domain/repository"
	"github.com/jhoicas/Taller-api/pkg/logger"
)

// Ledger libro de stock: única fuente de verdad de la cantidad disponible por repuesto
// y único componente que la modifica.
//
// Sus operaciones reciben repositorios atados a una transacción (TxRunner.Run) y no hacen commit:
// si algo falla, el rollback del caller deshace cualquier escritura parcial.
// Las filas se bloquean en orden ascendente de ID para evitar deadlocks entre órdenes con varios repuestos.
type Ledger struct {
	log *logger.Logger
	now func() time.Time
}

// NewLedger construye el libro de stock.
func NewLedger(log *logger.Logger) *Ledger {
	return &Ledger{log: log.Component("ledger"), now: time.Now}
}

// line cantidad total por repuesto.
type line struct {
	partID string
	qty    int
}

// aggregate agrupa requerimientos por repuesto. Devuelve las líneas en orden de requerimiento.
func aggregate(reqs []entity.PartQuantity) ([]line, error) {
	idx := make(map[string]int, len(reqs))
	var lines []line
	for _, r := range reqs {
		if r.PartID == "" || r.Quantity <= 0 {
			return nil, domain.ErrInvalidInput
		}
		if k, ok := idx[r.PartID]; ok {
			lines[k].qty += r.Quantity
			continue
		}
		idx[r.PartID] = len(lines)
		lines = append(lines, line{partID: r.PartID, qty: r.Quantity})
	}
	return lines, nil
}

// lockAscending bloquea (SELECT FOR UPDATE) cada repuesto en orden ascendente de ID y devuelve su disponible.
func (l *Ledger) lockAscending(ctx context.Context, parts repository.PartRepository, lines []line) (map[string]int, error) {
	ids := make([]string, 0, len(lines))
	for _, ln := range lines {
		ids = append(ids, ln.partID)
	}
	sort.Strings(ids)

	available := make(map[string]int, len(ids))
	for _, id := range ids {
		qty, err := parts.GetAvailableQuantityForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrPartNotFound) {
				return nil, fmt.Errorf("%w: %s", domain.ErrPartNotFound, id)
			}
			return nil, err
		}
		if qty < 0 {
			l.log.Error().Str("part_id", id).Int("available", qty).Msg("stock negativo detectado")
			return nil, fmt.Errorf("%w: stock negativo (%d) en repuesto %s", domain.ErrIntegrityViolation, qty, id)
		}
		available[id] = qty
	}
	return available, nil
}

// ReserveAll descuenta todos los requerimientos o ninguno.
// Si algún repuesto no alcanza, devuelve *domain.InsufficientStockError con el primero (en orden de
// requerimiento) que falta y no escribe nada. Registra un movimiento RESERVE por repuesto.
func (l *Ledger) ReserveAll(
	ctx context.Context,
	parts repository.PartRepository,
	movements repository.StockMovementRepository,
	orderID string,
	reqs []entity.PartQuantity,
) error {
	lines, err := aggregate(reqs)
	if err != nil {
		return err
	}
	available, err := l.lockAscending(ctx, parts, lines)
	if err != nil {
		return err
	}

	// Verificación completa antes de escribir.
	for _, ln := range lines {
		if ln.qty > available[ln.partID] {
			return &domain.InsufficientStockError{PartID: ln.partID, Available: available[ln.partID], Required: ln.qty}
		}
	}

	now := l.now()
	for _, ln := range sortedByID(lines) {
		balance := available[ln.partID] - ln.qty
		if err := parts.SetAvailableQuantity(ctx, ln.partID, balance); err != nil {
			return err
		}
		if err := movements.Create(ctx, &entity.StockMovement{
			ID:           uuid.New().String(),
			OrderID:      orderID,
			PartID:       ln.partID,
			Type:         entity.MovementTypeReserve,
			Quantity:     -ln.qty,
			BalanceAfter: balance,
			CreatedAt:    now,
		}); err != nil {
			return err
		}
	}
	l.log.Debug().Str("order_id", orderID).Int("parts", len(lines)).Msg("stock reservado")
	return nil
}

// ReleaseAll devuelve al inventario las cantidades indicadas. No impone tope: el caller garantiza
// que una misma reserva no se libere dos veces (CANCELLED es terminal).
func (l *Ledger) ReleaseAll(
	ctx context.Context,
	parts repository.PartRepository,
	movements repository.StockMovementRepository,
	orderID string,
	reqs []entity.PartQuantity,
) error {
	lines, err := aggregate(reqs)
	if err != nil {
		return err
	}
	available, err := l.lockAscending(ctx, parts, lines)
	if err != nil {
		return err
	}

	now := l.now()
	for _, ln := range sortedByID(lines) {
		balance := available[ln.partID] + ln.qty
		if err := parts.SetAvailableQuantity(ctx, ln.partID, balance); err != nil {
			return err
		}
		if err := movements.Create(ctx, &entity.StockMovement{
			ID:           uuid.New().String(),
			OrderID:      orderID,
			PartID:       ln.partID,
			Type:         entity.MovementTypeRelease,
			Quantity:     ln.qty,
			BalanceAfter: balance,
			CreatedAt:    now,
		}); err != nil {
			return err
		}
	}
	l.log.Debug().Str("order_id", orderID).Int("parts", len(lines)).Msg("stock liberado")
	return nil
}

func sortedByID(lines []line) []line {
	out := append([]line(nil), lines...)
	sort.Slice(out, func(i, j int) bool { return out[i].partID < out[j].partID })
	return out
}

// Units total de unidades de los requerimientos.
func Units(reqs []entity.PartQuantity) int {
	total := 0
	for _, r := range reqs {
		total += r.Quantity
	}
	return total
}
