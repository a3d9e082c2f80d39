package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/almatek/almacen-api/internal/application/dto"
	"github.com/almatek/almacen-api/internal/application/transition"
)

// PalletHandler maneja las peticiones HTTP del ciclo de vida de palets.
type PalletHandler struct {
	uc *transition.PalletUseCase
}

// NewPalletHandler construye el handler.
func NewPalletHandler(uc *transition.PalletUseCase) *PalletHandler {
	return &PalletHandler{uc: uc}
}

// Create godoc
// @Summary      Abrir un palet nuevo
// @Tags         pallets
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PalletRequest  true  "Datos del palet"
// @Success      201   {object}  dto.PalletResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/pallets [post]
func (h *PalletHandler) Create(c *fiber.Ctx) error {
	var in dto.PalletRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.Code == "" || in.Warehouse == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "codigo y almacen son requeridos"})
	}
	out, err := h.uc.Create(c.Context(), GetCompanyID(c), GetUserID(c), in)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toPalletResponse(out))
}

// Close godoc
// @Summary      Cerrar un palet (OPEN -> CLOSED)
// @Tags         pallets
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del palet"
// @Param        body  body  dto.ClosePalletRequest  false  "Traspaso en curso a excluir"
// @Success      200   {object}  dto.PalletResponse
// @Failure      409   {object}  dto.ErrorResponse  "Palet con traspaso abierto o ya cerrado"
// @Router       /api/pallets/{id}/cerrar [post]
func (h *PalletHandler) Close(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingParam(c, "id")
	}
	var in dto.ClosePalletRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	out, err := h.uc.Close(c.Context(), GetCompanyID(c), id, GetUserID(c), in.TransferID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toPalletResponse(out))
}

// Empty godoc
// @Summary      Vaciar un palet (CLOSED -> EMPTIED)
// @Tags         pallets
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del palet"
// @Success      200  {object}  dto.PalletResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/pallets/{id}/vaciar [post]
func (h *PalletHandler) Empty(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingParam(c, "id")
	}
	out, err := h.uc.Empty(c.Context(), GetCompanyID(c), id, GetUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toPalletResponse(out))
}

// GetByID godoc
// @Summary      Obtener palet por ID
// @Tags         pallets
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del palet"
// @Success      200  {object}  dto.PalletResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/pallets/{id} [get]
func (h *PalletHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingParam(c, "id")
	}
	out, err := h.uc.GetByID(c.Context(), GetCompanyID(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toPalletResponse(out))
}
