package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/almatek/almacen-api/internal/application/dto"
	"github.com/almatek/almacen-api/internal/application/transition"
	"github.com/almatek/almacen-api/internal/domain/entity"
)

// TransferHandler maneja las peticiones HTTP del ciclo de vida de traspasos.
type TransferHandler struct {
	uc *transition.TransferUseCase
}

// NewTransferHandler construye el handler.
func NewTransferHandler(uc *transition.TransferUseCase) *TransferHandler {
	return &TransferHandler{uc: uc}
}

// MovePallet godoc
// @Summary      Iniciar movimiento de palet (primera fase del flujo móvil)
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.MovePalletRequest  true  "Palet y usuario"
// @Success      201   {object}  dto.TransferResponse
// @Failure      409   {object}  dto.ErrorResponse  "Ya existe un traspaso abierto para el palet"
// @Router       /api/transfers/move-pallet [post]
func (h *TransferHandler) MovePallet(c *fiber.Ctx) error {
	var in dto.MovePalletRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.PalletID == "" {
		return missingParam(c, "palletId")
	}
	if in.UsuarioID == "" {
		in.UsuarioID = GetUserID(c)
	}
	out, err := h.uc.MovePallet(c.Context(), GetCompanyID(c), in)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toTransferResponse(out))
}

// StartTransit godoc
// @Summary      Marcar el traspaso como en tránsito
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del traspaso"
// @Success      200  {object}  dto.TransferResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/transito [post]
func (h *TransferHandler) StartTransit(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingParam(c, "id")
	}
	out, err := h.uc.StartTransit(c.Context(), GetCompanyID(c), id, GetUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toTransferResponse(out))
}

// FinalizePallet godoc
// @Summary      Finalizar traspaso de palet con el destino escaneado
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del traspaso"
// @Param        body  body  dto.FinalizeTransferRequest  true  "Destino"
// @Success      200   {object}  dto.TransferResponse
// @Failure      409   {object}  dto.ErrorResponse  "Traspaso ya finalizado"
// @Router       /api/transfers/{id}/finalizar [post]
func (h *TransferHandler) FinalizePallet(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingParam(c, "id")
	}
	var in dto.FinalizeTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.DestWarehouse == "" || in.DestLocation == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "destAlmacen y destUbicacion son requeridos"})
	}
	if in.UsuarioID == "" {
		in.UsuarioID = GetUserID(c)
	}
	out, err := h.uc.FinalizePallet(c.Context(), GetCompanyID(c), id, in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toTransferResponse(out))
}

// CreateArticle godoc
// @Summary      Crear traspaso de artículo
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ArticleTransferRequest  true  "Datos del traspaso"
// @Success      201   {object}  dto.TransferResponse
// @Router       /api/transfers/articulos [post]
func (h *TransferHandler) CreateArticle(c *fiber.Ctx) error {
	var in dto.ArticleTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.ArticleCode == "" || !in.Quantity.IsPositive() {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "articulo y cantidad positiva son requeridos"})
	}
	if in.UsuarioID == "" {
		in.UsuarioID = GetUserID(c)
	}
	out, err := h.uc.CreateArticle(c.Context(), GetCompanyID(c), in)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toTransferResponse(out))
}

// FinalizeArticle godoc
// @Summary      Finalizar traspaso de artículo con el destino escaneado
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del traspaso"
// @Param        body  body  dto.FinalizeTransferRequest  true  "Destino"
// @Success      200   {object}  dto.TransferResponse
// @Router       /api/transfers/articulos/{id}/finalizar [post]
func (h *TransferHandler) FinalizeArticle(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingParam(c, "id")
	}
	var in dto.FinalizeTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.DestWarehouse == "" || in.DestLocation == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "destAlmacen y destUbicacion son requeridos"})
	}
	if in.UsuarioID == "" {
		in.UsuarioID = GetUserID(c)
	}
	out, err := h.uc.FinalizeArticle(c.Context(), GetCompanyID(c), id, in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toTransferResponse(out))
}

// ResolveERP godoc
// @Summary      Registrar el resultado del ERP para un traspaso PENDING_ERP
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del traspaso"
// @Param        body  body  dto.ERPResultRequest  true  "Resultado"
// @Success      200   {object}  dto.TransferResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/resultado-erp [post]
func (h *TransferHandler) ResolveERP(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingParam(c, "id")
	}
	var in dto.ERPResultRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.ResolveERP(c.Context(), id, in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toTransferResponse(out))
}

// GetByID godoc
// @Summary      Obtener traspaso por ID
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del traspaso"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id} [get]
func (h *TransferHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingParam(c, "id")
	}
	out, err := h.uc.GetByID(c.Context(), GetCompanyID(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toTransferResponse(out))
}

// Pending godoc
// @Summary      Traspaso pendiente del usuario (para retomar al abrir la app)
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        usuarioId  query  string  false  "Otro usuario (solo supervisor/admin)"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/pendiente [get]
func (h *TransferHandler) Pending(c *fiber.Ctx) error {
	usuarioID := GetUserID(c)
	if otro := c.Query("usuarioId"); otro != "" && otro != usuarioID {
		if GetRole(c) == entity.RoleOperario {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "un operario solo consulta su propio pendiente"})
		}
		usuarioID = otro
	}
	out, err := h.uc.PendingByUser(c.Context(), usuarioID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toTransferResponse(out))
}

// List godoc
// @Summary      Listar traspasos del usuario filtrados por estados
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        estados  query  string  false  "Estados separados por coma"  example(PENDING,IN_TRANSIT)
// @Success      200  {array}  dto.TransferResponse
// @Router       /api/transfers [get]
func (h *TransferHandler) List(c *fiber.Ctx) error {
	var states []entity.TransferState
	if raw := c.Query("estados"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			st := entity.TransferState(strings.TrimSpace(s))
			if !st.Valid() {
				return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "estado desconocido: " + string(st)})
			}
			states = append(states, st)
		}
	}
	out, err := h.uc.ListByUserAndStates(c.Context(), GetUserID(c), states)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toTransferResponses(out))
}
