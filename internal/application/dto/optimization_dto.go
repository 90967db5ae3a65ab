package dto

import "github.com/shopspring/decimal"

// OptimizeRequest objetivo (profit | priority) y estado de las órdenes a considerar (vacío = PENDING).
type OptimizeRequest struct {
	Objective string `json:"objective"`
	Status    string `json:"status,omitempty"`
}

// OptimizationResponse recomendación de órdenes a ejecutar; no modifica nada.
type OptimizationResponse struct {
	Objective          string          `json:"objective"`
	Status             string          `json:"status"`
	SelectedOrderIDs   []string        `json:"selected_order_ids"`
	SkippedOrderIDs    []string        `json:"skipped_order_ids"`
	ObjectiveValue     decimal.Decimal `json:"objective_value"`
	ProjectedInventory map[string]int  `json:"projected_inventory"`
	Optimal            bool            `json:"optimal"`
	Strategy           string          `json:"strategy"` // exact | heuristic
	ElapsedMS          int64           `json:"elapsed_ms"`
}
