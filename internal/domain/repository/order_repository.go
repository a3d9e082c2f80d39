package repository

import (
	"context"

	"github.com/almatek/almacen-api/internal/domain/entity"
)

// OrderRepository define el puerto de persistencia para Order y sus líneas.
type OrderRepository interface {
	Create(ctx context.Context, o *entity.Order) error
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	// GetByIDForUpdate bloquea la cabecera para serializar transiciones y el
	// auto-avance a PENDING_REVIEW.
	GetByIDForUpdate(ctx context.Context, id string) (*entity.Order, error)
	// UpdateState aplica el cambio de estado de la cabecera.
	UpdateState(ctx context.Context, o *entity.Order) error
	UpdateLine(ctx context.Context, l *entity.OrderLine) error
	// FindByAssignee lista órdenes por operario asignado y estados
	// (lo consume el Change-Poller de órdenes).
	FindByAssignee(ctx context.Context, userID string, types []entity.OrderType, states []entity.OrderState) ([]*entity.Order, error)
}
