package repository

import (
	"context"

	"github.com/almatek/almacen-api/internal/domain/entity"
)

// PalletRepository define el puerto de persistencia para Pallet.
type PalletRepository interface {
	Create(ctx context.Context, p *entity.Pallet) error
	GetByID(ctx context.Context, id string) (*entity.Pallet, error)
	GetByCode(ctx context.Context, companyID, code string) (*entity.Pallet, error)
	// UpdateState aplica el cambio de estado solo si la fila sigue en expected
	// (update condicional); devuelve false si otra transición ganó la carrera.
	UpdateState(ctx context.Context, p *entity.Pallet, expected entity.PalletState) (bool, error)
	// UpdateLocation registra el nuevo almacén/ubicación tras completar un traspaso.
	UpdateLocation(ctx context.Context, id, warehouse, location string) error
}
