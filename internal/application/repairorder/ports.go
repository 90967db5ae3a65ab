package repairorder

import (
	"context"
	"time"

	"github.com/jhoicas/Taller-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Run hace Commit si fn devuelve nil y Rollback en cualquier otro caso.
// RunReadOnly entrega una vista consistente (snapshot) de solo lectura.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		orders repository.RepairOrderRepository,
		parts repository.PartRepository,
		movements repository.StockMovementRepository,
	) error) error
	RunReadOnly(ctx context.Context, fn func(
		orders repository.RepairOrderRepository,
		parts repository.PartRepository,
		movements repository.StockMovementRepository,
	) error) error
}

// Recorder puerto de métricas del motor de órdenes.
type Recorder interface {
	TransitionObserved(from, to, result string)
	StockMoved(kind string, units int)
	OptimizationObserved(objective, strategy string, elapsed time.Duration)
}

// NopRecorder descarta las métricas.
type NopRecorder struct{}

func (NopRecorder) TransitionObserved(string, string, string)          {}
func (NopRecorder) StockMoved(string, int)                             {}
func (NopRecorder) OptimizationObserved(string, string, time.Duration) {}
