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

// OrderUseCase ciclo de vida de órdenes de traspaso y conteo:
// PLANNED → ASSIGNED → IN_PROGRESS → PENDING_REVIEW → CLOSED, con CANCELLED
// desde cualquier estado no terminal. El auto-avance a PENDING_REVIEW al
// completar la última línea ocurre dentro de la misma transacción.
type OrderUseCase struct {
	txRunner TxRunner
	orders   repository.OrderRepository // lecturas fuera de transacción
	notifier Notifier
}

// NewOrderUseCase construye el caso de uso.
func NewOrderUseCase(txRunner TxRunner, orders repository.OrderRepository, notifier Notifier) *OrderUseCase {
	return &OrderUseCase{txRunner: txRunner, orders: orders, notifier: notifier}
}

// Create da de alta una orden en PLANNED con sus líneas en PENDING.
func (uc *OrderUseCase) Create(ctx context.Context, companyID, usuarioID string, in dto.CreateOrderRequest) (*entity.Order, error) {
	typ := entity.OrderType(in.Type)
	if typ != entity.OrderTransfer && typ != entity.OrderCount {
		return nil, domain.ErrValidation
	}
	scope := entity.OrderScope(in.Scope)
	switch scope {
	case entity.ScopeArticle, entity.ScopeLocation, entity.ScopePallet, entity.ScopeAisle, entity.ScopeWarehouse:
	default:
		return nil, domain.ErrValidation
	}
	if in.Warehouse == "" || len(in.Lines) == 0 {
		return nil, domain.ErrValidation
	}

	now := time.Now()
	o := &entity.Order{
		ID:         uuid.New().String(),
		CompanyID:  companyID,
		Type:       typ,
		Scope:      scope,
		ScopeValue: in.ScopeValue,
		Warehouse:  in.Warehouse,
		State:      entity.OrderPlanned,
		CreatedBy:  usuarioID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for _, l := range in.Lines {
		if l.ArticleCode == "" || !l.ExpectedQty.IsPositive() {
			return nil, domain.ErrValidation
		}
		o.Lines = append(o.Lines, entity.OrderLine{
			ID:          uuid.New().String(),
			OrderID:     o.ID,
			ArticleCode: l.ArticleCode,
			OriginLoc:   l.OriginLoc,
			DestLoc:     l.DestLoc,
			ExpectedQty: l.ExpectedQty,
			State:       entity.LinePending,
			UpdatedAt:   now,
		})
	}

	err := uc.txRunner.RunOrder(ctx, func(orders repository.OrderRepository) error {
		return orders.Create(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// Assign asigna la orden a un operario (PLANNED → ASSIGNED).
func (uc *OrderUseCase) Assign(ctx context.Context, companyID, orderID, supervisorID string, in dto.AssignOrderRequest) (*entity.Order, error) {
	if in.UsuarioID == "" {
		return nil, domain.ErrValidation
	}
	return uc.advance(ctx, companyID, orderID, supervisorID, entity.OrderAssigned, func(o *entity.Order, now time.Time) {
		o.AssignedTo = in.UsuarioID
		o.AssignedAt = &now
	})
}

// Start pone la orden en ejecución (ASSIGNED → IN_PROGRESS).
func (uc *OrderUseCase) Start(ctx context.Context, companyID, orderID, usuarioID string) (*entity.Order, error) {
	return uc.advance(ctx, companyID, orderID, usuarioID, entity.OrderInProgress, nil)
}

// Review cierra una orden revisada (PENDING_REVIEW → CLOSED).
// El invariante "sin líneas incompletas" se revalida por si un supervisor
// desbloqueó una línea después del auto-avance.
func (uc *OrderUseCase) Review(ctx context.Context, companyID, orderID, supervisorID string) (*entity.Order, error) {
	var result *entity.Order
	var prev entity.OrderState
	err := uc.txRunner.RunOrder(ctx, func(orders repository.OrderRepository) error {
		o, err := orders.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o == nil || o.CompanyID != companyID {
			return domain.ErrNotFound
		}
		if !o.State.CanTransitionTo(entity.OrderClosed) {
			return domain.ErrValidation
		}
		if !o.AllLinesCompleted() {
			return domain.ErrConflict
		}
		prev = o.State
		now := time.Now()
		o.State = entity.OrderClosed
		o.ClosedAt = &now
		o.UpdatedAt = now
		result = o
		return orders.UpdateState(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	uc.notifier.Dispatch(ctx, uc.orderEvent(result, string(prev), string(result.State), supervisorID))
	return result, nil
}

// Cancel anula la orden desde cualquier estado no terminal.
func (uc *OrderUseCase) Cancel(ctx context.Context, companyID, orderID, usuarioID string) (*entity.Order, error) {
	return uc.advance(ctx, companyID, orderID, usuarioID, entity.OrderCancelled, nil)
}

// advance aplica una transición de cabecera con bloqueo de fila y tabla de transiciones.
func (uc *OrderUseCase) advance(ctx context.Context, companyID, orderID, actor string, next entity.OrderState, mutate func(*entity.Order, time.Time)) (*entity.Order, error) {
	var result *entity.Order
	var prev entity.OrderState
	err := uc.txRunner.RunOrder(ctx, func(orders repository.OrderRepository) error {
		o, err := orders.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o == nil || o.CompanyID != companyID {
			return domain.ErrNotFound
		}
		if o.State.Terminal() {
			return domain.ErrConflict
		}
		if !o.State.CanTransitionTo(next) {
			return domain.ErrValidation
		}
		prev = o.State
		now := time.Now()
		o.State = next
		o.UpdatedAt = now
		if mutate != nil {
			mutate(o, now)
		}
		result = o
		return orders.UpdateState(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	uc.notifier.Dispatch(ctx, uc.orderEvent(result, string(prev), string(result.State), actor))
	return result, nil
}

// CompleteLine completa una línea con la cantidad realizada. Si era la última
// pendiente, la orden auto-avanza a PENDING_REVIEW dentro de la misma transacción.
func (uc *OrderUseCase) CompleteLine(ctx context.Context, companyID, orderID, lineID string, in dto.CompleteLineRequest) (*entity.Order, error) {
	if in.UsuarioID == "" || in.CompletedQty.IsNegative() {
		return nil, domain.ErrValidation
	}
	var result *entity.Order
	var autoAdvanced bool
	err := uc.txRunner.RunOrder(ctx, func(orders repository.OrderRepository) error {
		o, err := orders.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o == nil || o.CompanyID != companyID {
			return domain.ErrNotFound
		}
		if o.State != entity.OrderInProgress {
			return domain.ErrValidation
		}
		line := findLine(o, lineID)
		if line == nil {
			return domain.ErrNotFound
		}
		now := time.Now()
		// Una línea PENDING pasa por IN_PROGRESS al completarse en un solo gesto.
		if line.State == entity.LinePending {
			line.State = entity.LineInProgress
		}
		if !line.State.CanTransitionTo(entity.LineCompleted) {
			return domain.ErrValidation
		}
		line.State = entity.LineCompleted
		line.CompletedQty = in.CompletedQty
		line.CompletedBy = in.UsuarioID
		line.CompletedAt = &now
		line.UpdatedAt = now
		if err := orders.UpdateLine(ctx, line); err != nil {
			return err
		}
		if o.AllLinesCompleted() {
			o.State = entity.OrderPendingReview
			o.UpdatedAt = now
			if err := orders.UpdateState(ctx, o); err != nil {
				return err
			}
			autoAdvanced = true
		}
		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	if autoAdvanced {
		uc.notifier.Dispatch(ctx, uc.orderEvent(result, string(entity.OrderInProgress), string(entity.OrderPendingReview), in.UsuarioID))
	}
	return result, nil
}

// UnlockLine corrección de supervisor: devuelve una línea COMPLETED a IN_PROGRESS.
// Única marcha atrás permitida. Si la orden ya estaba en PENDING_REVIEW vuelve a
// IN_PROGRESS en la misma transacción.
func (uc *OrderUseCase) UnlockLine(ctx context.Context, companyID, orderID, lineID, supervisorID string) (*entity.Order, error) {
	var result *entity.Order
	var reverted bool
	err := uc.txRunner.RunOrder(ctx, func(orders repository.OrderRepository) error {
		o, err := orders.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o == nil || o.CompanyID != companyID {
			return domain.ErrNotFound
		}
		if o.State.Terminal() {
			return domain.ErrConflict
		}
		line := findLine(o, lineID)
		if line == nil {
			return domain.ErrNotFound
		}
		if !line.State.CanTransitionTo(entity.LineInProgress) || line.State != entity.LineCompleted {
			return domain.ErrValidation
		}
		now := time.Now()
		line.State = entity.LineInProgress
		line.CompletedAt = nil
		line.UpdatedAt = now
		if err := orders.UpdateLine(ctx, line); err != nil {
			return err
		}
		if o.State == entity.OrderPendingReview {
			o.State = entity.OrderInProgress
			o.UpdatedAt = now
			if err := orders.UpdateState(ctx, o); err != nil {
				return err
			}
			reverted = true
		}
		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	if reverted {
		uc.notifier.Dispatch(ctx, uc.orderEvent(result, string(entity.OrderPendingReview), string(entity.OrderInProgress), supervisorID))
	}
	return result, nil
}

// GetByID devuelve una orden con sus líneas.
func (uc *OrderUseCase) GetByID(ctx context.Context, companyID, id string) (*entity.Order, error) {
	o, err := uc.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil || o.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

// ListByAssignee lista órdenes asignadas a un operario (consumido por el Change-Poller).
func (uc *OrderUseCase) ListByAssignee(ctx context.Context, usuarioID string, types []entity.OrderType, states []entity.OrderState) ([]*entity.Order, error) {
	return uc.orders.FindByAssignee(ctx, usuarioID, types, states)
}

func findLine(o *entity.Order, lineID string) *entity.OrderLine {
	for i := range o.Lines {
		if o.Lines[i].ID == lineID {
			return &o.Lines[i]
		}
	}
	return nil
}

func (uc *OrderUseCase) orderEvent(o *entity.Order, prev, curr, actor string) Event {
	typ := entity.NotifOrderTransfer
	if o.Type == entity.OrderCount {
		typ = entity.NotifCount
	}
	ev := Event{
		Type:          typ,
		CompanyID:     o.CompanyID,
		ProcessID:     o.ID,
		PreviousState: prev,
		CurrentState:  curr,
		Actor:         actor,
		Title:         "Orden " + string(o.Type),
		Message:       fmt.Sprintf("La orden %s pasó de %s a %s", o.ID, prev, curr),
		OccurredAt:    time.Now(),
	}
	ev.addRecipient(o.AssignedTo)
	ev.addRecipient(o.CreatedBy)
	ev.addRecipient(actor)
	return ev
}
