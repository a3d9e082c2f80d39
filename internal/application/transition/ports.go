package transition

import (
	"context"

	"github.com/almatek/almacen-api/internal/domain/repository"
)

// TxRunner ejecuta callbacks dentro de una transacción con los repositorios
// atados a la tx. Cada caso de uso del motor de transiciones corre como una
// unidad atómica: o se aplican todos los cambios de campo o ninguno.
type TxRunner interface {
	// RunTransfer transacción con repos de traspasos y palets.
	RunTransfer(ctx context.Context, fn func(
		transfers repository.TransferRepository,
		pallets repository.PalletRepository,
	) error) error
	// RunOrder transacción con el repo de órdenes (cabecera + líneas).
	RunOrder(ctx context.Context, fn func(orders repository.OrderRepository) error) error
}

// Notifier recibe el evento de transición después del commit. La entrega nunca
// se mezcla con la transacción de negocio: un fallo aquí no revierte nada.
type Notifier interface {
	Dispatch(ctx context.Context, ev Event)
}

// NopNotifier descarta eventos (tests y seeds).
type NopNotifier struct{}

// Dispatch no hace nada.
func (NopNotifier) Dispatch(context.Context, Event) {}
