package entity

import "time"

// Tipos de movimiento del libro de stock.
const (
	MovementTypeReserve = "RESERVE" // salida al pasar la orden a IN_PROGRESS
	MovementTypeRelease = "RELEASE" // reingreso al cancelar con restock
)

// StockMovement registro de auditoría de cada cambio de AvailableQuantity hecho por el libro de stock.
type StockMovement struct {
	ID           string
	OrderID      string
	PartID       string
	Type         string
	Quantity     int // negativo en RESERVE, positivo en RELEASE
	BalanceAfter int
	CreatedAt    time.Time
}
