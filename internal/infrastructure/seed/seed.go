// Package seed lee el archivo de carga inicial de repuestos (SEED_PATH).
package seed

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Taller-api/internal/domain"
	"github.com/jhoicas/Taller-api/internal/domain/entity"
)

// File formato: {"parts":[{"id":"A","name":"Filtro","cost_price":"10.50","available_quantity":5}]}.
type File struct {
	Parts []PartRow `json:"parts"`
}

// PartRow repuesto tal como viene en el JSON.
type PartRow struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	CostPrice         decimal.Decimal `json:"cost_price"`
	SellPrice         decimal.Decimal `json:"sell_price"`
	AvailableQuantity int             `json:"available_quantity"`
}

// LoadParts lee y valida el archivo.
func LoadParts(path string) ([]entity.Part, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("leer seed: %w", err)
	}
	return ParseParts(raw)
}

// ParseParts valida: id obligatorio y único, cantidad no negativa.
func ParseParts(raw []byte) ([]entity.Part, error) {
	var f File
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parsear seed: %w", err)
	}
	seen := make(map[string]bool, len(f.Parts))
	parts := make([]entity.Part, 0, len(f.Parts))
	for i, row := range f.Parts {
		if row.ID == "" || row.AvailableQuantity < 0 || seen[row.ID] {
			return nil, fmt.Errorf("%w: repuesto #%d (%q)", domain.ErrInvalidInput, i, row.ID)
		}
		seen[row.ID] = true
		name := row.Name
		if name == "" {
			name = row.ID
		}
		parts = append(parts, entity.Part{
			ID:                row.ID,
			Name:              name,
			Description:       row.Description,
			CostPrice:         row.CostPrice,
			SellPrice:         row.SellPrice,
			AvailableQuantity: row.AvailableQuantity,
		})
	}
	return parts, nil
}
