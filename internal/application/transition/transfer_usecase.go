package transition

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/almatek/almacen-api/internal/application/dto"
	"github.com/almatek/almacen-api/internal/domain"
	"github.com/almatek/almacen-api/internal/domain/entity"
	"github.com/almatek/almacen-api/internal/domain/repository"
)

// TransferUseCase aplica las transiciones del ciclo de vida de traspasos:
// creación guardada (un solo traspaso abierto por palet), finalización en dos
// fases y resolución asíncrona del ERP. Cada operación es una unidad atómica;
// el evento de transición se despacha solo después del commit.
type TransferUseCase struct {
	txRunner  TxRunner
	transfers repository.TransferRepository // lecturas fuera de transacción
	pallets   repository.PalletRepository
	notifier  Notifier
}

// NewTransferUseCase construye el caso de uso.
func NewTransferUseCase(
	txRunner TxRunner,
	transfers repository.TransferRepository,
	pallets repository.PalletRepository,
	notifier Notifier,
) *TransferUseCase {
	return &TransferUseCase{txRunner: txRunner, transfers: transfers, pallets: pallets, notifier: notifier}
}

// MovePallet crea un traspaso de palet. El origen es el destino del último
// traspaso COMPLETED del palet (o su ubicación registrada si nunca se movió).
// Cliente móvil: nace en PENDING sin destino. Cliente de escritorio: con destino
// informado nace directamente en PENDING_ERP (una sola llamada).
// El guard "como máximo un traspaso no terminal por palet" se aplica con un
// insert condicional dentro de la transacción; el perdedor recibe ErrOpenTransfer.
func (uc *TransferUseCase) MovePallet(ctx context.Context, companyID string, in dto.MovePalletRequest) (*entity.Transfer, error) {
	if in.PalletID == "" || in.UsuarioID == "" {
		return nil, domain.ErrValidation
	}
	// Destino a medias (solo almacén o solo ubicación) no es válido.
	if (in.DestWarehouse == "") != (in.DestLocation == "") {
		return nil, domain.ErrValidation
	}

	pallet, err := uc.pallets.GetByID(ctx, in.PalletID)
	if err != nil {
		return nil, err
	}
	if pallet == nil || pallet.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	if pallet.State == entity.PalletEmptied {
		return nil, domain.ErrValidation // un palet vaciado ya no se mueve
	}

	now := time.Now()
	t := &entity.Transfer{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		Type:      entity.TransferPallet,
		PalletID:  pallet.ID,
		State:     entity.TransferPending,
		CreatedBy: in.UsuarioID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.DestWarehouse != "" {
		// El flujo de escritorio manda el traspaso al ERP en la misma llamada;
		// exige el palet cerrado igual que la finalización en dos fases.
		if pallet.State != entity.PalletClosed {
			return nil, domain.ErrValidation
		}
		t.State = entity.TransferPendingERP
		t.DestWH = in.DestWarehouse
		t.DestLoc = in.DestLocation
		t.FinalizedBy = in.UsuarioID
		t.FinalizedAt = &now
	}

	err = uc.txRunner.RunTransfer(ctx, func(
		transfers repository.TransferRepository,
		pallets repository.PalletRepository,
	) error {
		// El origen se resuelve dentro de la transacción para que sea coherente
		// con el guard de unicidad.
		wh, loc, err := transfers.LastCompletedDestination(ctx, pallet.ID)
		if err != nil {
			return err
		}
		if wh == "" {
			wh, loc = pallet.Warehouse, pallet.Location
		}
		t.OriginWH = wh
		t.OriginLoc = loc
		return transfers.CreateGuarded(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	uc.notifier.Dispatch(ctx, uc.transferEvent(t, "", string(t.State), in.UsuarioID))
	return t, nil
}

// StartTransit marca el traspaso como recogido (PENDING → IN_TRANSIT).
func (uc *TransferUseCase) StartTransit(ctx context.Context, companyID, transferID, usuarioID string) (*entity.Transfer, error) {
	var result *entity.Transfer
	var prev entity.TransferState
	err := uc.txRunner.RunTransfer(ctx, func(
		transfers repository.TransferRepository,
		_ repository.PalletRepository,
	) error {
		t, err := transfers.GetByIDForUpdate(ctx, transferID)
		if err != nil {
			return err
		}
		if t == nil || t.CompanyID != companyID {
			return domain.ErrNotFound
		}
		if t.State.Terminal() {
			return domain.ErrAlreadyFinalized
		}
		if !t.State.CanTransitionTo(entity.TransferInTransit) {
			return domain.ErrValidation
		}
		prev = t.State
		t.State = entity.TransferInTransit
		t.UpdatedAt = time.Now()
		result = t
		return transfers.Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	uc.notifier.Dispatch(ctx, uc.transferEvent(result, string(prev), string(result.State), usuarioID))
	return result, nil
}

// FinalizePallet finaliza un traspaso de palet (PENDING|IN_TRANSIT → PENDING_ERP)
// con el destino y el usuario finalizador. El palet debe estar CLOSED.
// Un traspaso ya terminal se rechaza con ErrAlreadyFinalized.
func (uc *TransferUseCase) FinalizePallet(ctx context.Context, companyID, transferID string, in dto.FinalizeTransferRequest) (*entity.Transfer, error) {
	if in.DestWarehouse == "" || in.DestLocation == "" || in.UsuarioID == "" {
		return nil, domain.ErrValidation
	}
	var result *entity.Transfer
	var prev entity.TransferState
	err := uc.txRunner.RunTransfer(ctx, func(
		transfers repository.TransferRepository,
		pallets repository.PalletRepository,
	) error {
		t, err := transfers.GetByIDForUpdate(ctx, transferID)
		if err != nil {
			return err
		}
		if t == nil || t.CompanyID != companyID {
			return domain.ErrNotFound
		}
		if t.Type != entity.TransferPallet {
			return domain.ErrValidation
		}
		if t.State.Terminal() {
			return domain.ErrAlreadyFinalized
		}
		if !t.State.CanTransitionTo(entity.TransferPendingERP) {
			return domain.ErrValidation
		}
		pallet, err := pallets.GetByID(ctx, t.PalletID)
		if err != nil {
			return err
		}
		if pallet == nil {
			return domain.ErrNotFound
		}
		// El palet tiene que estar cerrado antes de mandar el traspaso al ERP.
		if pallet.State != entity.PalletClosed {
			return domain.ErrValidation
		}
		prev = t.State
		now := time.Now()
		t.State = entity.TransferPendingERP
		t.DestWH = in.DestWarehouse
		t.DestLoc = in.DestLocation
		t.FinalizedBy = in.UsuarioID
		t.FinalizedAt = &now
		t.UpdatedAt = now
		result = t
		return transfers.Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	uc.notifier.Dispatch(ctx, uc.transferEvent(result, string(prev), string(result.State), in.UsuarioID))
	return result, nil
}

// CreateArticle crea un traspaso de artículo. Mismo flujo en dos fases que el
// palet pero sin guard de unicidad: varios artículos pueden moverse a la vez.
func (uc *TransferUseCase) CreateArticle(ctx context.Context, companyID string, in dto.ArticleTransferRequest) (*entity.Transfer, error) {
	if in.ArticleCode == "" || in.UsuarioID == "" || in.OriginWarehouse == "" || in.OriginLocation == "" {
		return nil, domain.ErrValidation
	}
	if !in.Quantity.IsPositive() {
		return nil, domain.ErrValidation
	}
	if (in.DestWarehouse == "") != (in.DestLocation == "") {
		return nil, domain.ErrValidation
	}

	now := time.Now()
	t := &entity.Transfer{
		ID:          uuid.New().String(),
		CompanyID:   companyID,
		Type:        entity.TransferArticle,
		ArticleCode: in.ArticleCode,
		Quantity:    in.Quantity,
		OriginWH:    in.OriginWarehouse,
		OriginLoc:   in.OriginLocation,
		State:       entity.TransferPending,
		CreatedBy:   in.UsuarioID,
		OrderLineID: in.OrderLineID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.DestWarehouse != "" {
		t.State = entity.TransferPendingERP
		t.DestWH = in.DestWarehouse
		t.DestLoc = in.DestLocation
		t.FinalizedBy = in.UsuarioID
		t.FinalizedAt = &now
	}

	err := uc.txRunner.RunTransfer(ctx, func(
		transfers repository.TransferRepository,
		_ repository.PalletRepository,
	) error {
		return transfers.Create(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	uc.notifier.Dispatch(ctx, uc.transferEvent(t, "", string(t.State), in.UsuarioID))
	return t, nil
}

// FinalizeArticle finaliza un traspaso de artículo (PENDING|IN_TRANSIT → PENDING_ERP).
func (uc *TransferUseCase) FinalizeArticle(ctx context.Context, companyID, transferID string, in dto.FinalizeTransferRequest) (*entity.Transfer, error) {
	if in.DestWarehouse == "" || in.DestLocation == "" || in.UsuarioID == "" {
		return nil, domain.ErrValidation
	}
	var result *entity.Transfer
	var prev entity.TransferState
	err := uc.txRunner.RunTransfer(ctx, func(
		transfers repository.TransferRepository,
		_ repository.PalletRepository,
	) error {
		t, err := transfers.GetByIDForUpdate(ctx, transferID)
		if err != nil {
			return err
		}
		if t == nil || t.CompanyID != companyID {
			return domain.ErrNotFound
		}
		if t.Type != entity.TransferArticle {
			return domain.ErrValidation
		}
		if t.State.Terminal() {
			return domain.ErrAlreadyFinalized
		}
		if !t.State.CanTransitionTo(entity.TransferPendingERP) {
			return domain.ErrValidation
		}
		prev = t.State
		now := time.Now()
		t.State = entity.TransferPendingERP
		t.DestWH = in.DestWarehouse
		t.DestLoc = in.DestLocation
		t.FinalizedBy = in.UsuarioID
		t.FinalizedAt = &now
		t.UpdatedAt = now
		result = t
		return transfers.Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	uc.notifier.Dispatch(ctx, uc.transferEvent(result, string(prev), string(result.State), in.UsuarioID))
	return result, nil
}

// ResolveERP aplica el resultado asíncrono del colaborador ERP sobre un traspaso
// PENDING_ERP: COMPLETED o ERROR_ERP. ERROR_ERP es un desenlace de negocio
// durable, no una excepción, y genera su propia notificación.
func (uc *TransferUseCase) ResolveERP(ctx context.Context, transferID string, in dto.ERPResultRequest) (*entity.Transfer, error) {
	outcome := entity.TransferState(in.Outcome)
	if outcome != entity.TransferCompleted && outcome != entity.TransferErrorERP {
		return nil, domain.ErrValidation
	}
	var result *entity.Transfer
	err := uc.txRunner.RunTransfer(ctx, func(
		transfers repository.TransferRepository,
		pallets repository.PalletRepository,
	) error {
		t, err := transfers.GetByIDForUpdate(ctx, transferID)
		if err != nil {
			return err
		}
		if t == nil {
			return domain.ErrNotFound
		}
		if t.State.Terminal() {
			return domain.ErrAlreadyFinalized
		}
		if !t.State.CanTransitionTo(outcome) {
			return domain.ErrValidation
		}
		now := time.Now()
		t.State = outcome
		t.ErrorDetail = ""
		if outcome == entity.TransferErrorERP {
			t.ErrorDetail = in.Detail
		}
		t.ResolvedAt = &now
		t.UpdatedAt = now
		if err := transfers.Update(ctx, t); err != nil {
			return err
		}
		// Traspaso de palet confirmado: el destino pasa a ser la ubicación
		// registrada del palet.
		if outcome == entity.TransferCompleted && t.Type == entity.TransferPallet {
			if err := pallets.UpdateLocation(ctx, t.PalletID, t.DestWH, t.DestLoc); err != nil {
				return err
			}
		}
		result = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.notifier.Dispatch(ctx, uc.transferEvent(result, string(entity.TransferPendingERP), string(result.State), ""))
	return result, nil
}

// GetByID devuelve un traspaso por id.
func (uc *TransferUseCase) GetByID(ctx context.Context, companyID, id string) (*entity.Transfer, error) {
	t, err := uc.transfers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil || t.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

// PendingByUser devuelve el único traspaso PENDING pendiente del usuario.
func (uc *TransferUseCase) PendingByUser(ctx context.Context, usuarioID string) (*entity.Transfer, error) {
	t, err := uc.transfers.FindPendingByUser(ctx, usuarioID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

// ListByUserAndStates lista traspasos del usuario por estados (consumido por el
// Change-Poller de los dispositivos).
func (uc *TransferUseCase) ListByUserAndStates(ctx context.Context, usuarioID string, states []entity.TransferState) ([]*entity.Transfer, error) {
	return uc.transfers.FindByUserAndStates(ctx, usuarioID, states)
}

// transferEvent arma el evento de transición para el dispatcher.
func (uc *TransferUseCase) transferEvent(t *entity.Transfer, prev, curr, actor string) Event {
	ev := Event{
		Type:          entity.NotifTransfer,
		CompanyID:     t.CompanyID,
		ProcessID:     t.ID,
		PreviousState: prev,
		CurrentState:  curr,
		Actor:         actor,
		Title:         "Traspaso " + string(t.Type),
		Message:       fmt.Sprintf("El traspaso %s pasó a %s", t.ID, curr),
		OccurredAt:    time.Now(),
	}
	if prev != "" {
		ev.Message = fmt.Sprintf("El traspaso %s pasó de %s a %s", t.ID, prev, curr)
	}
	ev.addRecipient(t.CreatedBy)
	ev.addRecipient(t.FinalizedBy)
	return ev
}
