package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/Taller-api/internal/application/repairorder"
	"github.com/jhoicas/Taller-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	OrderUC      *repairorder.OrderUseCase
	TransitionUC *repairorder.TransitionUseCase
	OptimizeUC   *repairorder.OptimizeUseCase
	Metrics      nethttp.Handler // nil = sin endpoint de métricas
	MetricsPath  string
	Log          *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log.Component("http")

	if deps.Metrics != nil {
		path := deps.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(deps.Metrics))
	}

	api := app.Group("/api")

	// Repair orders. /optimize se registra antes de /:id.
	orders := api.Group("/repair-orders")
	orderHandler := NewRepairOrderHandler(deps.OrderUC, deps.TransitionUC, deps.OptimizeUC, log)
	orders.Post("/optimize", orderHandler.Optimize)
	orders.Post("/", orderHandler.Create)
	orders.Get("/", orderHandler.List)
	orders.Get("/:id", orderHandler.GetByID)
	orders.Patch("/:id/status", orderHandler.UpdateStatus)

	// Libro de stock
	parts := api.Group("/parts")
	partHandler := NewPartHandler(deps.OrderUC, log)
	parts.Get("/:id/movements", partHandler.ListMovements)
}
