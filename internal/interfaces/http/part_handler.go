package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Taller-api/internal/application/dto"
	"github.com/jhoicas/Taller-api/internal/application/repairorder"
	"github.com/jhoicas/Taller-api/pkg/logger"
)

// PartHandler consultas del libro de stock por repuesto.
type PartHandler struct {
	orders *repairorder.OrderUseCase
	log    *logger.Logger
}

// NewPartHandler construye el handler.
func NewPartHandler(orders *repairorder.OrderUseCase, log *logger.Logger) *PartHandler {
	return &PartHandler{orders: orders, log: log}
}

// ListMovements godoc
// @Summary      Historial de movimientos de stock de un repuesto
// @Tags         parts
// @Produce      json
// @Param        id      path      string  true   "ID del repuesto"
// @Param        limit   query     int     false  "Límite (defecto 20, máx 100)"
// @Param        offset  query     int     false  "Desplazamiento"
// @Success      200     {object}  dto.StockMovementListResponse
// @Failure      404     {object}  dto.ErrorResponse
// @Router       /api/parts/{id}/movements [get]
func (h *PartHandler) ListMovements(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	page.DefaultPage()

	list, err := h.orders.ListMovementsByPart(c.Context(), c.Params("id"), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := dto.StockMovementListResponse{
		Items: make([]dto.StockMovementResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for _, m := range list {
		out.Items = append(out.Items, dto.StockMovementResponse{
			ID:           m.ID,
			OrderID:      m.OrderID,
			PartID:       m.PartID,
			Type:         m.Type,
			Quantity:     m.Quantity,
			BalanceAfter: m.BalanceAfter,
			CreatedAt:    m.CreatedAt,
		})
	}
	return c.JSON(out)
}
