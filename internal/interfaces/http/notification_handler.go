package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/almatek/almacen-api/internal/application/dto"
	"github.com/almatek/almacen-api/internal/application/notify"
	"github.com/almatek/almacen-api/internal/domain/entity"
)

// NotificationHandler maneja las peticiones HTTP del feed de notificaciones.
type NotificationHandler struct {
	uc         *notify.NotificationUseCase
	dispatcher *notify.Dispatcher
}

// NewNotificationHandler construye el handler.
func NewNotificationHandler(uc *notify.NotificationUseCase, dispatcher *notify.Dispatcher) *NotificationHandler {
	return &NotificationHandler{uc: uc, dispatcher: dispatcher}
}

// Un operario solo puede consultar su propio feed; supervisor y admin, cualquiera.
func (h *NotificationHandler) authorized(c *fiber.Ctx, usuarioID string) bool {
	return usuarioID == GetUserID(c) || GetRole(c) != entity.RoleOperario
}

func pageFromQuery(c *fiber.Ctx) dto.PageRequest {
	page := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	page.DefaultPage()
	if page.Limit > 100 {
		page.Limit = 100
	}
	return page
}

// Feed godoc
// @Summary      Feed completo de notificaciones del usuario
// @Tags         notifications
// @Security     Bearer
// @Produce      json
// @Param        usuarioId  path   string  true   "ID del usuario"
// @Param        limit      query  int     false  "Límite"  default(20)
// @Param        offset     query  int     false  "Offset"  default(0)
// @Success      200  {array}  dto.NotificationResponse
// @Router       /api/notifications/{usuarioId} [get]
func (h *NotificationHandler) Feed(c *fiber.Ctx) error {
	usuarioID := c.Params("usuarioId")
	if usuarioID == "" {
		return missingParam(c, "usuarioId")
	}
	if !h.authorized(c, usuarioID) {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "solo el propio usuario puede ver su feed"})
	}
	out, err := h.uc.Feed(c.Context(), usuarioID, pageFromQuery(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(out)
}

// Resumen godoc
// @Summary      Feed resumido (pantalla de campana)
// @Tags         notifications
// @Security     Bearer
// @Produce      json
// @Param        usuarioId  path   string  true   "ID del usuario"
// @Param        limit      query  int     false  "Límite"  default(20)
// @Param        offset     query  int     false  "Offset"  default(0)
// @Success      200  {array}  dto.NotificationSummary
// @Router       /api/notifications/{usuarioId}/resumen [get]
func (h *NotificationHandler) Resumen(c *fiber.Ctx) error {
	usuarioID := c.Params("usuarioId")
	if usuarioID == "" {
		return missingParam(c, "usuarioId")
	}
	if !h.authorized(c, usuarioID) {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "solo el propio usuario puede ver su feed"})
	}
	out, err := h.uc.Resumen(c.Context(), usuarioID, pageFromQuery(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(out)
}

// Contador godoc
// @Summary      Número de notificaciones no leídas
// @Tags         notifications
// @Security     Bearer
// @Produce      json
// @Param        usuarioId  path  string  true  "ID del usuario"
// @Success      200  {object}  dto.UnreadCountResponse
// @Router       /api/notifications/{usuarioId}/contador [get]
func (h *NotificationHandler) Contador(c *fiber.Ctx) error {
	usuarioID := c.Params("usuarioId")
	if usuarioID == "" {
		return missingParam(c, "usuarioId")
	}
	if !h.authorized(c, usuarioID) {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "solo el propio usuario puede ver su contador"})
	}
	out, err := h.uc.Contador(c.Context(), usuarioID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(out)
}

// MarcarLeida godoc
// @Summary      Marcar una notificación como leída (idempotente)
// @Tags         notifications
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la notificación"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/notifications/{id}/leida [post]
func (h *NotificationHandler) MarcarLeida(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingParam(c, "id")
	}
	if err := h.uc.MarcarLeida(c.Context(), id, GetUserID(c)); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// MarcarTodasLeidas godoc
// @Summary      Marcar todas las notificaciones del usuario como leídas
// @Tags         notifications
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]int
// @Router       /api/notifications/todas-leidas [post]
func (h *NotificationHandler) MarcarTodasLeidas(c *fiber.Ctx) error {
	n, err := h.uc.MarcarTodasLeidas(c.Context(), GetUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"marcadas": n})
}

// Difusion godoc
// @Summary      Difundir un aviso general a un grupo (solo supervisor/admin)
// @Tags         notifications
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BroadcastRequest  true  "Grupo y contenido del aviso"
// @Success      201
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/notifications/difusion [post]
func (h *NotificationHandler) Difusion(c *fiber.Ctx) error {
	var in dto.BroadcastRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.Group == "" {
		return missingParam(c, "grupo")
	}
	if in.Title == "" {
		return missingParam(c, "titulo")
	}
	if err := h.dispatcher.DispatchBroadcast(c.Context(), GetCompanyID(c), in.Group, in.Title, in.Message); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusCreated)
}

// Eliminar godoc
// @Summary      Eliminar una notificación de la vista del usuario (borrado suave)
// @Tags         notifications
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la notificación"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/notifications/{id} [delete]
func (h *NotificationHandler) Eliminar(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingParam(c, "id")
	}
	if err := h.uc.Eliminar(c.Context(), id, GetUserID(c)); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
