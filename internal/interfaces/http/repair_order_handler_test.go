package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Taller-api/internal/application/dto"
	"github.com/jhoicas/Taller-api/internal/application/repairorder"
	"github.com/jhoicas/Taller-api/internal/application/stock"
	"github.com/jhoicas/Taller-api/internal/domain/entity"
	"github.com/jhoicas/Taller-api/internal/infrastructure/memory"
	"github.com/jhoicas/Taller-api/internal/infrastructure/metrics"
	apphttp "github.com/jhoicas/Taller-api/internal/interfaces/http"
	"github.com/jhoicas/Taller-api/pkg/logger"
)

// buildTestApp arma la API completa sobre el almacén en memoria con el stock indicado.
func buildTestApp(t *testing.T, stockByPart map[string]int) *fiber.App {
	t.Helper()
	store := memory.NewStore()
	for id, q := range stockByPart {
		require.NoError(t, store.SeedPart(entity.Part{ID: id, Name: id, AvailableQuantity: q}))
	}
	log := logger.Nop()
	m := metrics.New()
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		OrderUC:      repairorder.NewOrderUseCase(store, log),
		TransitionUC: repairorder.NewTransitionUseCase(store, stock.NewLedger(log), m, log),
		OptimizeUC:   repairorder.NewOptimizeUseCase(store, repairorder.OptimizerSettings{}, m, log),
		Metrics:      m.Handler(),
		Log:          log,
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func createOrder(t *testing.T, app *fiber.App, profit string, priority string, partID string, qty int) dto.RepairOrderResponse {
	t.Helper()
	code, body := doJSON(t, app, http.MethodPost, "/api/repair-orders", map[string]any{
		"vehicle_id":  "veh-1",
		"customer_id": "cli-1",
		"profit":      profit,
		"priority":    priority,
		"details":     []map[string]any{{"part_id": partID, "quantity": qty}},
	})
	require.Equal(t, fiber.StatusCreated, code, string(body))
	var o dto.RepairOrderResponse
	require.NoError(t, json.Unmarshal(body, &o))
	return o
}

func TestRepairOrders_CicloCompleto(t *testing.T) {
	app := buildTestApp(t, map[string]int{"A": 10})
	o := createOrder(t, app, "50", "HIGH", "A", 6)
	assert.Equal(t, "PENDING", o.Status)

	code, body := doJSON(t, app, http.MethodPatch, "/api/repair-orders/"+o.ID+"/status", map[string]any{"status": "IN_PROGRESS"})
	require.Equal(t, fiber.StatusOK, code, string(body))
	var tr dto.TransitionResponse
	require.NoError(t, json.Unmarshal(body, &tr))
	assert.Equal(t, "IN_PROGRESS", tr.Order.Status)
	assert.Equal(t, "PENDING", tr.PreviousStatus)
	assert.Equal(t, "reserve", tr.StockEffect)

	code, body = doJSON(t, app, http.MethodPatch, "/api/repair-orders/"+o.ID+"/status", map[string]any{"status": "CANCELLED", "restock_parts": true})
	require.Equal(t, fiber.StatusOK, code, string(body))
	require.NoError(t, json.Unmarshal(body, &tr))
	assert.Equal(t, "release", tr.StockEffect)

	code, body = doJSON(t, app, http.MethodGet, "/api/parts/A/movements", nil)
	require.Equal(t, fiber.StatusOK, code)
	var movs dto.StockMovementListResponse
	require.NoError(t, json.Unmarshal(body, &movs))
	require.Len(t, movs.Items, 2)
	assert.Equal(t, "RELEASE", movs.Items[0].Type)
	assert.Equal(t, 10, movs.Items[0].BalanceAfter)

	code, body = doJSON(t, app, http.MethodPatch, "/api/repair-orders/"+o.ID+"/status", map[string]any{"status": "PENDING"})
	assert.Equal(t, fiber.StatusConflict, code)
	var er dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &er))
	assert.Equal(t, "INVALID_TRANSITION", er.Code)
	assert.Equal(t, "CANCELLED", er.Details["from"])
}

func TestRepairOrders_StockInsuficienteDevuelve409ConDetalle(t *testing.T) {
	app := buildTestApp(t, map[string]int{"A": 10})
	o1 := createOrder(t, app, "50", "LOW", "A", 6)
	o2 := createOrder(t, app, "80", "LOW", "A", 6)

	code, _ := doJSON(t, app, http.MethodPatch, "/api/repair-orders/"+o1.ID+"/status", map[string]any{"status": "IN_PROGRESS"})
	require.Equal(t, fiber.StatusOK, code)

	code, body := doJSON(t, app, http.MethodPatch, "/api/repair-orders/"+o2.ID+"/status", map[string]any{"status": "IN_PROGRESS"})
	assert.Equal(t, fiber.StatusConflict, code)
	var er dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &er))
	assert.Equal(t, "INSUFFICIENT_STOCK", er.Code)
	assert.Equal(t, "A", er.Details["part_id"])
	assert.EqualValues(t, 4, er.Details["available"])
	assert.EqualValues(t, 6, er.Details["required"])

	code, body = doJSON(t, app, http.MethodGet, "/api/repair-orders/"+o2.ID, nil)
	require.Equal(t, fiber.StatusOK, code)
	var got dto.RepairOrderResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "PENDING", got.Status)
}

func TestRepairOrders_Optimizar(t *testing.T) {
	app := buildTestApp(t, map[string]int{"A": 10})
	o1 := createOrder(t, app, "50", "LOW", "A", 6)
	o2 := createOrder(t, app, "80", "LOW", "A", 6)

	code, body := doJSON(t, app, http.MethodPost, "/api/repair-orders/optimize", map[string]any{"objective": "profit"})
	require.Equal(t, fiber.StatusOK, code, string(body))
	var res dto.OptimizationResponse
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, []string{o2.ID}, res.SelectedOrderIDs)
	assert.Equal(t, []string{o1.ID}, res.SkippedOrderIDs)
	assert.Equal(t, "80", res.ObjectiveValue.String())
	assert.Equal(t, 4, res.ProjectedInventory["A"])
	assert.Equal(t, "exact", res.Strategy)
	assert.Equal(t, "PENDING", res.Status)
}

func TestRepairOrders_Errores(t *testing.T) {
	app := buildTestApp(t, map[string]int{"A": 1})
	cases := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"orden inexistente", http.MethodGet, "/api/repair-orders/nope", nil, fiber.StatusNotFound, "ORDER_NOT_FOUND"},
		{"transición de orden inexistente", http.MethodPatch, "/api/repair-orders/nope/status", map[string]any{"status": "IN_PROGRESS"}, fiber.StatusNotFound, "ORDER_NOT_FOUND"},
		{"estado desconocido", http.MethodPatch, "/api/repair-orders/x/status", map[string]any{"status": "DONE"}, fiber.StatusBadRequest, "VALIDATION"},
		{"objetivo desconocido", http.MethodPost, "/api/repair-orders/optimize", map[string]any{"objective": "revenue"}, fiber.StatusBadRequest, "VALIDATION"},
		{"filtro de estado inválido", http.MethodGet, "/api/repair-orders?status=unknown", nil, fiber.StatusBadRequest, "VALIDATION"},
		{"repuesto inexistente", http.MethodGet, "/api/parts/X/movements", nil, fiber.StatusNotFound, "PART_NOT_FOUND"},
		{"alta con repuesto inexistente", http.MethodPost, "/api/repair-orders", map[string]any{
			"vehicle_id": "v", "customer_id": "c", "priority": "LOW",
			"details": []map[string]any{{"part_id": "X", "quantity": 1}},
		}, fiber.StatusNotFound, "PART_NOT_FOUND"},
		{"alta sin stock", http.MethodPost, "/api/repair-orders", map[string]any{
			"vehicle_id": "v", "customer_id": "c", "priority": "LOW",
			"details": []map[string]any{{"part_id": "A", "quantity": 2}},
		}, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, body := doJSON(t, app, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.status, code, string(body))
			var er dto.ErrorResponse
			require.NoError(t, json.Unmarshal(body, &er))
			assert.Equal(t, tc.code, er.Code)
		})
	}
}

func TestRepairOrders_CuerpoInvalido(t *testing.T) {
	app := buildTestApp(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/repair-orders", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestMetrics_ExponeContadores(t *testing.T) {
	app := buildTestApp(t, map[string]int{"A": 10})
	o := createOrder(t, app, "50", "LOW", "A", 3)
	code, _ := doJSON(t, app, http.MethodPatch, "/api/repair-orders/"+o.ID+"/status", map[string]any{"status": "IN_PROGRESS"})
	require.Equal(t, fiber.StatusOK, code)

	code, body := doJSON(t, app, http.MethodGet, "/metrics", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, string(body), "taller_order_transitions_total")
	assert.Contains(t, string(body), "taller_stock_units_total")
}
