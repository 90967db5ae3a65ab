package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderDetailRequest línea de repuestos al crear una orden.
type OrderDetailRequest struct {
	PartID    string          `json:"part_id"`
	Quantity  int             `json:"quantity"`
	CostPrice decimal.Decimal `json:"cost_price"`
	SellPrice decimal.Decimal `json:"sell_price"`
	Profit    decimal.Decimal `json:"profit"`
}

// CreateRepairOrderRequest entrada para crear una orden de reparación (queda en PENDING).
type CreateRepairOrderRequest struct {
	VehicleID   string               `json:"vehicle_id"`
	CustomerID  string               `json:"customer_id"`
	Description string               `json:"description"`
	CostPrice   decimal.Decimal      `json:"cost_price"`
	SellPrice   decimal.Decimal      `json:"sell_price"`
	Profit      decimal.Decimal      `json:"profit"`
	Priority    string               `json:"priority"`
	Details     []OrderDetailRequest `json:"details"`
}

// UpdateStatusRequest cambio de estado. restock_parts solo aplica a IN_PROGRESS -> CANCELLED.
type UpdateStatusRequest struct {
	Status       string `json:"status"`
	RestockParts *bool  `json:"restock_parts,omitempty"`
}

// OrderDetailResponse línea de repuestos de una orden.
type OrderDetailResponse struct {
	ID        string          `json:"id"`
	PartID    string          `json:"part_id"`
	Quantity  int             `json:"quantity"`
	CostPrice decimal.Decimal `json:"cost_price"`
	SellPrice decimal.Decimal `json:"sell_price"`
	Profit    decimal.Decimal `json:"profit"`
}

// RepairOrderResponse salida de una orden.
type RepairOrderResponse struct {
	ID          string                `json:"id"`
	VehicleID   string                `json:"vehicle_id"`
	CustomerID  string                `json:"customer_id"`
	Description string                `json:"description"`
	CostPrice   decimal.Decimal       `json:"cost_price"`
	SellPrice   decimal.Decimal       `json:"sell_price"`
	Profit      decimal.Decimal       `json:"profit"`
	Priority    string                `json:"priority"`
	Status      string                `json:"status"`
	Details     []OrderDetailResponse `json:"details"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// RepairOrderListResponse lista de órdenes filtrada por estado.
type RepairOrderListResponse struct {
	Status string                `json:"status"`
	Total  int                   `json:"total"`
	Items  []RepairOrderResponse `json:"items"`
}

// TransitionResponse orden actualizada y efecto aplicado al stock.
type TransitionResponse struct {
	Order          RepairOrderResponse `json:"order"`
	PreviousStatus string              `json:"previous_status"`
	StockEffect    string              `json:"stock_effect"` // none | reserve | release
	RestockIgnored bool                `json:"restock_ignored,omitempty"`
}

// StockMovementResponse movimiento del libro de stock.
type StockMovementResponse struct {
	ID           string    `json:"id"`
	OrderID      string    `json:"order_id"`
	PartID       string    `json:"part_id"`
	Type         string    `json:"type"`
	Quantity     int       `json:"quantity"`
	BalanceAfter int       `json:"balance_after"`
	CreatedAt    time.Time `json:"created_at"`
}

// StockMovementListResponse historial paginado de un repuesto.
type StockMovementListResponse struct {
	Items []StockMovementResponse `json:"items"`
	Page  PageResponse            `json:"page"`
}
