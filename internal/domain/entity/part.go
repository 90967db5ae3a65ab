package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Part representa un repuesto del taller.
// AvailableQuantity solo lo modifica el libro de stock (stock.Ledger); nunca es negativo.
type Part struct {
	ID                string
	Name              string
	Description       string
	CostPrice         decimal.Decimal
	SellPrice         decimal.Decimal
	AvailableQuantity int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// PartQuantity cantidad de un repuesto a reservar o liberar.
type PartQuantity struct {
	PartID   string
	Quantity int
}
