package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/almatek/almacen-api/internal/application/dto"
	"github.com/almatek/almacen-api/internal/application/transition"
	"github.com/almatek/almacen-api/internal/domain/entity"
)

// OrderHandler maneja las peticiones HTTP de órdenes de traspaso y conteo.
type OrderHandler struct {
	uc *transition.OrderUseCase
}

// NewOrderHandler construye el handler.
func NewOrderHandler(uc *transition.OrderUseCase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

// Create godoc
// @Summary      Crear orden de traspaso o conteo (supervisor)
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateOrderRequest  true  "Orden con sus líneas"
// @Success      201   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/orders [post]
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.Type == "" || in.Warehouse == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "tipo y almacen son requeridos"})
	}
	out, err := h.uc.Create(c.Context(), GetCompanyID(c), GetUserID(c), in)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toOrderResponse(out))
}

// Assign godoc
// @Summary      Asignar orden a un operario (supervisor)
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la orden"
// @Param        body  body  dto.AssignOrderRequest  true  "Operario"
// @Success      200   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/asignar [post]
func (h *OrderHandler) Assign(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingParam(c, "id")
	}
	var in dto.AssignOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.UsuarioID == "" {
		return missingParam(c, "usuarioId")
	}
	out, err := h.uc.Assign(c.Context(), GetCompanyID(c), id, GetUserID(c), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toOrderResponse(out))
}

// Start godoc
// @Summary      Empezar a trabajar la orden (operario asignado)
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la orden"
// @Success      200  {object}  dto.OrderResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/empezar [post]
func (h *OrderHandler) Start(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingParam(c, "id")
	}
	out, err := h.uc.Start(c.Context(), GetCompanyID(c), id, GetUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toOrderResponse(out))
}

// Review godoc
// @Summary      Cerrar la revisión de la orden (supervisor)
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la orden"
// @Success      200  {object}  dto.OrderResponse
// @Failure      409  {object}  dto.ErrorResponse  "Alguna línea volvió a abrirse"
// @Router       /api/orders/{id}/revisar [post]
func (h *OrderHandler) Review(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingParam(c, "id")
	}
	out, err := h.uc.Review(c.Context(), GetCompanyID(c), id, GetUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toOrderResponse(out))
}

// Cancel godoc
// @Summary      Cancelar la orden (supervisor)
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la orden"
// @Success      200  {object}  dto.OrderResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/cancelar [post]
func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingParam(c, "id")
	}
	out, err := h.uc.Cancel(c.Context(), GetCompanyID(c), id, GetUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toOrderResponse(out))
}

// CompleteLine godoc
// @Summary      Completar una línea con la cantidad realizada
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id      path  string  true  "ID de la orden"
// @Param        lineId  path  string  true  "ID de la línea"
// @Param        body    body  dto.CompleteLineRequest  true  "Cantidad realizada"
// @Success      200     {object}  dto.OrderResponse
// @Failure      400     {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/lineas/{lineId}/completar [post]
func (h *OrderHandler) CompleteLine(c *fiber.Ctx) error {
	id := c.Params("id")
	lineID := c.Params("lineId")
	if id == "" || lineID == "" {
		return missingParam(c, "id y lineId")
	}
	var in dto.CompleteLineRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.UsuarioID == "" {
		in.UsuarioID = GetUserID(c)
	}
	out, err := h.uc.CompleteLine(c.Context(), GetCompanyID(c), id, lineID, in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toOrderResponse(out))
}

// UnlockLine godoc
// @Summary      Reabrir una línea completada (supervisor)
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id      path  string  true  "ID de la orden"
// @Param        lineId  path  string  true  "ID de la línea"
// @Success      200     {object}  dto.OrderResponse
// @Failure      400     {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/lineas/{lineId}/desbloquear [post]
func (h *OrderHandler) UnlockLine(c *fiber.Ctx) error {
	id := c.Params("id")
	lineID := c.Params("lineId")
	if id == "" || lineID == "" {
		return missingParam(c, "id y lineId")
	}
	out, err := h.uc.UnlockLine(c.Context(), GetCompanyID(c), id, lineID, GetUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toOrderResponse(out))
}

// GetByID godoc
// @Summary      Obtener orden por ID con sus líneas
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la orden"
// @Success      200  {object}  dto.OrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingParam(c, "id")
	}
	out, err := h.uc.GetByID(c.Context(), GetCompanyID(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toOrderResponse(out))
}

// ListMine godoc
// @Summary      Órdenes asignadas al usuario autenticado
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        tipos    query  string  false  "Tipos separados por coma"    example(TRANSFER,COUNT)
// @Param        estados  query  string  false  "Estados separados por coma"  example(ASSIGNED,IN_PROGRESS)
// @Success      200  {array}  dto.OrderResponse
// @Router       /api/orders [get]
func (h *OrderHandler) ListMine(c *fiber.Ctx) error {
	types := []entity.OrderType{entity.OrderTransfer, entity.OrderCount}
	if raw := c.Query("tipos"); raw != "" {
		types = types[:0]
		for _, s := range strings.Split(raw, ",") {
			t := entity.OrderType(strings.TrimSpace(s))
			if !t.Valid() {
				return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "tipo desconocido: " + string(t)})
			}
			types = append(types, t)
		}
	}
	states := []entity.OrderState{entity.OrderAssigned, entity.OrderInProgress, entity.OrderPendingReview}
	if raw := c.Query("estados"); raw != "" {
		states = states[:0]
		for _, s := range strings.Split(raw, ",") {
			st := entity.OrderState(strings.TrimSpace(s))
			if !st.Valid() {
				return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "estado desconocido: " + string(st)})
			}
			states = append(states, st)
		}
	}
	out, err := h.uc.ListByAssignee(c.Context(), GetUserID(c), types, states)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toOrderResponses(out))
}
