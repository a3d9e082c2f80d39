package repository

import (
	"context"

	"github.com/almatek/almacen-api/internal/domain/entity"
)

// TransferRepository define el puerto de persistencia para Transfer.
// Usado dentro de transacciones para garantizar el guard de unicidad.
type TransferRepository interface {
	// CreateGuarded inserta el traspaso solo si el palet no tiene ya un traspaso
	// abierto (insert condicional + índice único parcial, misma unidad atómica).
	// Devuelve domain.ErrOpenTransfer si pierde la carrera.
	CreateGuarded(ctx context.Context, t *entity.Transfer) error
	Create(ctx context.Context, t *entity.Transfer) error
	GetByID(ctx context.Context, id string) (*entity.Transfer, error)
	// GetByIDForUpdate bloquea la fila (SELECT FOR UPDATE) para linearizar
	// transiciones concurrentes sobre el mismo traspaso.
	GetByIDForUpdate(ctx context.Context, id string) (*entity.Transfer, error)
	Update(ctx context.Context, t *entity.Transfer) error
	// FindOpenByPallet devuelve los traspasos no terminales que referencian al palet.
	FindOpenByPallet(ctx context.Context, palletID string) ([]*entity.Transfer, error)
	// FindPendingByUser devuelve el único traspaso PENDING pendiente del usuario, o nil.
	FindPendingByUser(ctx context.Context, userID string) (*entity.Transfer, error)
	// FindByUserAndStates lista los traspasos del usuario en los estados dados
	// (lo consume el Change-Poller de traspasos).
	FindByUserAndStates(ctx context.Context, userID string, states []entity.TransferState) ([]*entity.Transfer, error)
	// LastCompletedDestination devuelve almacén/ubicación destino del último
	// traspaso COMPLETED del palet ("" si nunca se movió).
	LastCompletedDestination(ctx context.Context, palletID string) (wh, loc string, err error)
}
