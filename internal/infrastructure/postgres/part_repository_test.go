package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// La carga inicial se repite en cada arranque: en conflicto no puede reescribir el stock.
func TestUpsertPartSQL_ConflictoNoTocaCantidad(t *testing.T) {
	idx := strings.Index(upsertPartSQL, "ON CONFLICT")
	require.Positive(t, idx)

	insert, conflict := upsertPartSQL[:idx], upsertPartSQL[idx:]
	assert.Contains(t, insert, "available_quantity")
	assert.NotContains(t, conflict, "available_quantity")
	for _, col := range []string{"name", "description", "cost_price", "sell_price", "updated_at"} {
		assert.Contains(t, conflict, col+" = ")
	}
}
