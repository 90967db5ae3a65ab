package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Taller-api/internal/application/dto"
	"github.com/jhoicas/Taller-api/internal/application/repairorder"
	"github.com/jhoicas/Taller-api/internal/domain/entity"
	"github.com/jhoicas/Taller-api/pkg/logger"
)

// RepairOrderHandler maneja las peticiones HTTP de órdenes de reparación.
type RepairOrderHandler struct {
	orders     *repairorder.OrderUseCase
	transition *repairorder.TransitionUseCase
	optimize   *repairorder.OptimizeUseCase
	log        *logger.Logger
}

// NewRepairOrderHandler construye el handler.
func NewRepairOrderHandler(
	orders *repairorder.OrderUseCase,
	transition *repairorder.TransitionUseCase,
	optimize *repairorder.OptimizeUseCase,
	log *logger.Logger,
) *RepairOrderHandler {
	return &RepairOrderHandler{orders: orders, transition: transition, optimize: optimize, log: log}
}

// Create godoc
// @Summary      Crear orden de reparación
// @Tags         repair-orders
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateRepairOrderRequest  true  "vehicle_id, customer_id, priority, details"
// @Success      201   {object}  dto.RepairOrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/repair-orders [post]
func (h *RepairOrderHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateRepairOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	input := repairorder.CreateOrderInput{
		VehicleID:   in.VehicleID,
		CustomerID:  in.CustomerID,
		Description: in.Description,
		CostPrice:   in.CostPrice,
		SellPrice:   in.SellPrice,
		Profit:      in.Profit,
		Priority:    entity.Priority(strings.ToUpper(in.Priority)),
	}
	for _, d := range in.Details {
		input.Requirements = append(input.Requirements, repairorder.RequirementInput{
			PartID:    d.PartID,
			Quantity:  d.Quantity,
			CostPrice: d.CostPrice,
			SellPrice: d.SellPrice,
			Profit:    d.Profit,
		})
	}
	order, err := h.orders.Create(c.Context(), input)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toRepairOrderResponse(order))
}

// GetByID godoc
// @Summary      Obtener orden por ID
// @Tags         repair-orders
// @Produce      json
// @Param        id   path      string  true  "ID de la orden"
// @Success      200  {object}  dto.RepairOrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/repair-orders/{id} [get]
func (h *RepairOrderHandler) GetByID(c *fiber.Ctx) error {
	order, err := h.orders.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toRepairOrderResponse(order))
}

// List godoc
// @Summary      Listar órdenes por estado
// @Tags         repair-orders
// @Produce      json
// @Param        status  query     string  false  "PENDING (defecto), IN_PROGRESS, COMPLETED, CANCELLED"
// @Success      200     {object}  dto.RepairOrderListResponse
// @Failure      400     {object}  dto.ErrorResponse
// @Router       /api/repair-orders [get]
func (h *RepairOrderHandler) List(c *fiber.Ctx) error {
	status := entity.OrderStatus(strings.ToUpper(c.Query("status", string(entity.OrderStatusPending))))
	list, err := h.orders.ListByStatus(c.Context(), status)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := dto.RepairOrderListResponse{Status: string(status), Total: len(list), Items: make([]dto.RepairOrderResponse, 0, len(list))}
	for _, o := range list {
		out.Items = append(out.Items, toRepairOrderResponse(o))
	}
	return c.JSON(out)
}

// UpdateStatus godoc
// @Summary      Cambiar estado de la orden
// @Description  PENDING -> IN_PROGRESS reserva todos los repuestos o ninguno.
//
//	IN_PROGRESS -> CANCELLED con restock_parts=true devuelve lo reservado. CANCELLED y COMPLETED son terminales.
//
// @Tags         repair-orders
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "ID de la orden"
// @Param        body  body  dto.UpdateStatusRequest  true  "status, restock_parts"
// @Success      200   {object}  dto.TransitionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/repair-orders/{id}/status [patch]
func (h *RepairOrderHandler) UpdateStatus(c *fiber.Ctx) error {
	var in dto.UpdateStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.transition.Transition(c.Context(), repairorder.TransitionInput{
		OrderID:      c.Params("id"),
		Target:       entity.OrderStatus(strings.ToUpper(in.Status)),
		RestockParts: in.RestockParts,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.TransitionResponse{
		Order:          toRepairOrderResponse(res.Order),
		PreviousStatus: string(res.From),
		StockEffect:    res.Effect.String(),
		RestockIgnored: res.RestockIgnored,
	})
}

// Optimize godoc
// @Summary      Recomendar qué órdenes ejecutar con el stock actual
// @Description  Mochila 0/1 multidimensional. No reserva ni cambia estados: cada orden recomendada
//
//	se aplica luego con PATCH /status, que vuelve a verificar el stock.
//
// @Tags         repair-orders
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OptimizeRequest  true  "objective: profit | priority"
// @Success      200   {object}  dto.OptimizationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      504   {object}  dto.ErrorResponse
// @Router       /api/repair-orders/optimize [post]
func (h *RepairOrderHandler) Optimize(c *fiber.Ctx) error {
	var in dto.OptimizeRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.optimize.Optimize(c.UserContext(), repairorder.OptimizeInput{
		Objective: repairorder.Objective(strings.ToLower(in.Objective)),
		Status:    entity.OrderStatus(strings.ToUpper(in.Status)),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.OptimizationResponse{
		Objective:          string(res.Objective),
		Status:             string(res.Status),
		SelectedOrderIDs:   res.SelectedOrderIDs,
		SkippedOrderIDs:    res.SkippedOrderIDs,
		ObjectiveValue:     res.ObjectiveValue,
		ProjectedInventory: res.ProjectedInventory,
		Optimal:            res.Optimal,
		Strategy:           res.Strategy,
		ElapsedMS:          res.Elapsed.Milliseconds(),
	})
}

func toRepairOrderResponse(o *entity.RepairOrder) dto.RepairOrderResponse {
	out := dto.RepairOrderResponse{
		ID:          o.ID,
		VehicleID:   o.VehicleID,
		CustomerID:  o.CustomerID,
		Description: o.Description,
		CostPrice:   o.CostPrice,
		SellPrice:   o.SellPrice,
		Profit:      o.Profit,
		Priority:    string(o.Priority),
		Status:      string(o.Status),
		Details:     make([]dto.OrderDetailResponse, 0, len(o.Requirements)),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
	for _, r := range o.Requirements {
		out.Details = append(out.Details, dto.OrderDetailResponse{
			ID:        r.ID,
			PartID:    r.PartID,
			Quantity:  r.Quantity,
			CostPrice: r.CostPrice,
			SellPrice: r.SellPrice,
			Profit:    r.Profit,
		})
	}
	return out
}
