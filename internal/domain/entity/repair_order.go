package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus estado de una orden de reparación.
type OrderStatus string

// Estados de la orden de reparación.
const (
	OrderStatusPending    OrderStatus = "PENDING"     // estado inicial, sin reserva de stock
	OrderStatusInProgress OrderStatus = "IN_PROGRESS" // repuestos reservados
	OrderStatusCompleted  OrderStatus = "COMPLETED"   // repuestos consumidos (la reserva se conserva)
	OrderStatusCancelled  OrderStatus = "CANCELLED"   // terminal
)

// Valid indica si el estado es uno de los conocidos.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusInProgress, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// Priority prioridad de negocio de la orden.
type Priority string

// Prioridades.
const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// Valid indica si la prioridad es conocida.
func (p Priority) Valid() bool {
	return p.Weight() > 0
}

// Weight peso de la prioridad en el objetivo "priority" del optimizador (LOW=1, MEDIUM=2, HIGH=3).
func (p Priority) Weight() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	}
	return 0
}

// RepairOrder cabecera de una orden de reparación con sus requerimientos de repuestos.
type RepairOrder struct {
	ID           string
	VehicleID    string
	CustomerID   string
	Description  string
	CostPrice    decimal.Decimal
	SellPrice    decimal.Decimal
	Profit       decimal.Decimal // puede ser negativo
	Priority     Priority
	Status       OrderStatus
	Requirements []OrderRequirement
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PartQuantities devuelve los requerimientos en el formato del libro de stock, en el orden de la orden.
func (o *RepairOrder) PartQuantities() []PartQuantity {
	out := make([]PartQuantity, 0, len(o.Requirements))
	for _, r := range o.Requirements {
		out = append(out, PartQuantity{PartID: r.PartID, Quantity: r.Quantity})
	}
	return out
}

// Clone copia profunda (los requerimientos no se comparten).
func (o *RepairOrder) Clone() *RepairOrder {
	c := *o
	c.Requirements = append([]OrderRequirement(nil), o.Requirements...)
	return &c
}
