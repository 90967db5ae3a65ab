package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderRequirement línea de detalle: repuestos que la orden consume si se ejecuta.
// Inmutable una vez creada la orden.
type OrderRequirement struct {
	ID        string
	OrderID   string
	PartID    string
	Quantity  int // > 0
	CostPrice decimal.Decimal
	SellPrice decimal.Decimal
	Profit    decimal.Decimal
	CreatedAt time.Time
}
