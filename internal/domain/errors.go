package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrOrderNotFound = errors.New("orden de reparación no encontrada")
	ErrPartNotFound  = errors.New("repuesto no encontrado")
	ErrInvalidInput  = errors.New("entrada inválida")
	ErrSolverTimeout = errors.New("la optimización no terminó a tiempo")
	ErrReadOnlyTx    = errors.New("escritura en transacción de solo lectura")

	// ErrInsufficientStock y ErrInvalidTransition permiten errors.Is sobre los errores tipados.
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrInvalidTransition = errors.New("transición de estado inválida")

	// ErrIntegrityViolation no debe ocurrir si los invariantes se cumplen (ej. stock negativo).
	// No es un error esperado: se registra como error y se responde 500.
	ErrIntegrityViolation = errors.New("violación de integridad del inventario")
)

// InsufficientStockError indica el primer repuesto (en orden de requerimiento) sin stock suficiente.
type InsufficientStockError struct {
	PartID    string
	Available int
	Required  int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para el repuesto %s: disponible %d, requerido %d",
		e.PartID, e.Available, e.Required)
}

// Is permite errors.Is(err, ErrInsufficientStock).
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// InvalidTransitionError indica un cambio de estado no permitido por la máquina de estados.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transición inválida de %s a %s", e.From, e.To)
}

// Is permite errors.Is(err, ErrInvalidTransition).
func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
