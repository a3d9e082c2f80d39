package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/almatek/almacen-api/internal/application/dto"
	"github.com/almatek/almacen-api/internal/domain"
	"github.com/almatek/almacen-api/internal/domain/entity"
)

// fail traduce un error de dominio al par (status, cuerpo) HTTP. Todo handler
// pasa por aquí para que la misma causa produzca siempre el mismo código.
func fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrOpenTransfer):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "OPEN_TRANSFER", Message: err.Error()})
	case errors.Is(err, domain.ErrAlreadyFinalized):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "ALREADY_FINALIZED", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrSessionExpired):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

func missingParam(c *fiber.Ctx, name string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: name + " es requerido"})
}

func toTransferResponse(t *entity.Transfer) dto.TransferResponse {
	return dto.TransferResponse{
		ID:          t.ID,
		Type:        string(t.Type),
		PalletID:    t.PalletID,
		ArticleCode: t.ArticleCode,
		Quantity:    t.Quantity,
		OriginWH:    t.OriginWH,
		OriginLoc:   t.OriginLoc,
		DestWH:      t.DestWH,
		DestLoc:     t.DestLoc,
		State:       string(t.State),
		CreatedBy:   t.CreatedBy,
		FinalizedBy: t.FinalizedBy,
		ErrorDetail: t.ErrorDetail,
		CreatedAt:   t.CreatedAt,
		FinalizedAt: t.FinalizedAt,
		ResolvedAt:  t.ResolvedAt,
	}
}

func toTransferResponses(ts []*entity.Transfer) []dto.TransferResponse {
	out := make([]dto.TransferResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, toTransferResponse(t))
	}
	return out
}

func toPalletResponse(p *entity.Pallet) dto.PalletResponse {
	return dto.PalletResponse{
		ID:        p.ID,
		Code:      p.Code,
		State:     string(p.State),
		Warehouse: p.Warehouse,
		Location:  p.Location,
		OpenedBy:  p.OpenedBy,
		ClosedBy:  p.ClosedBy,
		Emptied:   p.Emptied,
		EmptiedAt: p.EmptiedAt,
		CreatedAt: p.CreatedAt,
	}
}

func toOrderResponse(o *entity.Order) dto.OrderResponse {
	lines := make([]dto.OrderLineResponse, 0, len(o.Lines))
	for i := range o.Lines {
		l := &o.Lines[i]
		lines = append(lines, dto.OrderLineResponse{
			ID:           l.ID,
			ArticleCode:  l.ArticleCode,
			OriginLoc:    l.OriginLoc,
			DestLoc:      l.DestLoc,
			ExpectedQty:  l.ExpectedQty,
			CompletedQty: l.CompletedQty,
			State:        string(l.State),
		})
	}
	return dto.OrderResponse{
		ID:         o.ID,
		Type:       string(o.Type),
		Scope:      string(o.Scope),
		ScopeValue: o.ScopeValue,
		Warehouse:  o.Warehouse,
		AssignedTo: o.AssignedTo,
		State:      string(o.State),
		Lines:      lines,
		CreatedAt:  o.CreatedAt,
	}
}

func toOrderResponses(os []*entity.Order) []dto.OrderResponse {
	out := make([]dto.OrderResponse, 0, len(os))
	for _, o := range os {
		out = append(out, toOrderResponse(o))
	}
	return out
}
