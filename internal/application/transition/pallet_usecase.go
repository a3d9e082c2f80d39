package transition

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/almatek/almacen-api/internal/application/dto"
	"github.com/almatek/almacen-api/internal/domain"
	"github.com/almatek/almacen-api/internal/domain/entity"
	"github.com/almatek/almacen-api/internal/domain/repository"
)

// PalletUseCase ciclo de vida del palet: OPEN → CLOSED → EMPTIED.
type PalletUseCase struct {
	txRunner TxRunner
	pallets  repository.PalletRepository
	notifier Notifier
}

// NewPalletUseCase construye el caso de uso.
func NewPalletUseCase(txRunner TxRunner, pallets repository.PalletRepository, notifier Notifier) *PalletUseCase {
	return &PalletUseCase{txRunner: txRunner, pallets: pallets, notifier: notifier}
}

// Create abre un palet nuevo en la ubicación indicada.
func (uc *PalletUseCase) Create(ctx context.Context, companyID, usuarioID string, in dto.PalletRequest) (*entity.Pallet, error) {
	if in.Code == "" || in.Warehouse == "" || in.Location == "" {
		return nil, domain.ErrValidation
	}
	height, weight := decimal.Zero, decimal.Zero
	var err error
	if in.Height != "" {
		if height, err = decimal.NewFromString(in.Height); err != nil {
			return nil, domain.ErrValidation
		}
	}
	if in.Weight != "" {
		if weight, err = decimal.NewFromString(in.Weight); err != nil {
			return nil, domain.ErrValidation
		}
	}
	now := time.Now()
	p := &entity.Pallet{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		Code:      in.Code,
		State:     entity.PalletOpen,
		Warehouse: in.Warehouse,
		Location:  in.Location,
		Height:    height,
		Weight:    weight,
		OpenedAt:  now,
		OpenedBy:  usuarioID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.pallets.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Close cierra un palet (OPEN → CLOSED). No puede haber otro traspaso
// PENDING/IN_TRANSIT referenciándolo distinto del que se está cerrando
// (closingTransferID, opcional).
func (uc *PalletUseCase) Close(ctx context.Context, companyID, palletID, usuarioID, closingTransferID string) (*entity.Pallet, error) {
	var result *entity.Pallet
	err := uc.txRunner.RunTransfer(ctx, func(
		transfers repository.TransferRepository,
		pallets repository.PalletRepository,
	) error {
		p, err := pallets.GetByID(ctx, palletID)
		if err != nil {
			return err
		}
		if p == nil || p.CompanyID != companyID {
			return domain.ErrNotFound
		}
		if !p.State.CanTransitionTo(entity.PalletClosed) {
			return domain.ErrValidation
		}
		open, err := transfers.FindOpenByPallet(ctx, palletID)
		if err != nil {
			return err
		}
		for _, t := range open {
			if t.ID == closingTransferID {
				continue
			}
			if t.State == entity.TransferPending || t.State == entity.TransferInTransit {
				return domain.ErrConflict
			}
		}
		now := time.Now()
		p.State = entity.PalletClosed
		p.ClosedAt = &now
		p.ClosedBy = usuarioID
		p.UpdatedAt = now
		ok, err := pallets.UpdateState(ctx, p, entity.PalletOpen)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrConflict // otra transición ganó la carrera
		}
		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.notifier.Dispatch(ctx, palletEvent(result, string(entity.PalletOpen), string(entity.PalletClosed), usuarioID))
	return result, nil
}

// Empty vacía un palet cerrado (CLOSED → EMPTIED). Estado terminal.
func (uc *PalletUseCase) Empty(ctx context.Context, companyID, palletID, usuarioID string) (*entity.Pallet, error) {
	var result *entity.Pallet
	err := uc.txRunner.RunTransfer(ctx, func(
		_ repository.TransferRepository,
		pallets repository.PalletRepository,
	) error {
		p, err := pallets.GetByID(ctx, palletID)
		if err != nil {
			return err
		}
		if p == nil || p.CompanyID != companyID {
			return domain.ErrNotFound
		}
		if !p.State.CanTransitionTo(entity.PalletEmptied) {
			return domain.ErrValidation
		}
		now := time.Now()
		p.State = entity.PalletEmptied
		p.Emptied = true
		p.EmptiedAt = &now
		p.UpdatedAt = now
		ok, err := pallets.UpdateState(ctx, p, entity.PalletClosed)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrConflict
		}
		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.notifier.Dispatch(ctx, palletEvent(result, string(entity.PalletClosed), string(entity.PalletEmptied), usuarioID))
	return result, nil
}

// GetByID devuelve un palet por id.
func (uc *PalletUseCase) GetByID(ctx context.Context, companyID, id string) (*entity.Pallet, error) {
	p, err := uc.pallets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil || p.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func palletEvent(p *entity.Pallet, prev, curr, actor string) Event {
	ev := Event{
		Type:          entity.NotifInventory,
		CompanyID:     p.CompanyID,
		ProcessID:     p.ID,
		PreviousState: prev,
		CurrentState:  curr,
		Actor:         actor,
		Title:         "Palet " + p.Code,
		Message:       fmt.Sprintf("El palet %s pasó de %s a %s", p.Code, prev, curr),
		OccurredAt:    time.Now(),
	}
	ev.addRecipient(p.OpenedBy)
	ev.addRecipient(actor)
	return ev
}
