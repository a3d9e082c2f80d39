package poller

import (
	"context"

	"github.com/almatek/almacen-api/internal/domain/entity"
	"github.com/almatek/almacen-api/internal/domain/repository"
)

// Composiciones del watcher genérico para las tres clases que vigilan los
// dispositivos: traspasos del usuario, órdenes de traspaso y órdenes de conteo.
// El agente de dispositivo usa las mismas composiciones con un Fetcher HTTP.

// TransferEdges aristas vigiladas de un traspaso: la resolución asíncrona del ERP.
func TransferEdges() []Edge {
	return []Edge{
		{From: string(entity.TransferPendingERP), To: string(entity.TransferCompleted)},
		{From: string(entity.TransferPendingERP), To: string(entity.TransferErrorERP)},
	}
}

// NewTransferWatcher vigila los traspasos del usuario en vuelo o recién
// resueltos: detecta altas y los cruces PENDING_ERP → COMPLETED|ERROR_ERP.
func NewTransferWatcher(transfers repository.TransferRepository, usuarioID string, onChange func(Change)) *Watcher {
	states := []entity.TransferState{
		entity.TransferPending,
		entity.TransferInTransit,
		entity.TransferPendingERP,
		entity.TransferCompleted,
		entity.TransferErrorERP,
	}
	fetch := func(ctx context.Context) ([]Snapshot, error) {
		items, err := transfers.FindByUserAndStates(ctx, usuarioID, states)
		if err != nil {
			return nil, err
		}
		out := make([]Snapshot, 0, len(items))
		for _, t := range items {
			out = append(out, Snapshot{ID: t.ID, State: string(t.State)})
		}
		return out, nil
	}
	return NewWatcher("traspasos:"+usuarioID, fetch, TransferEdges(), onChange)
}

// NewOrderWatcher vigila las órdenes activas asignadas al operario; solo
// detecta miembros nuevos (una orden recién asignada), sin aristas.
func NewOrderWatcher(orders repository.OrderRepository, usuarioID string, typ entity.OrderType, onChange func(Change)) *Watcher {
	states := []entity.OrderState{entity.OrderAssigned, entity.OrderInProgress, entity.OrderPendingReview}
	fetch := func(ctx context.Context) ([]Snapshot, error) {
		items, err := orders.FindByAssignee(ctx, usuarioID, []entity.OrderType{typ}, states)
		if err != nil {
			return nil, err
		}
		out := make([]Snapshot, 0, len(items))
		for _, o := range items {
			out = append(out, Snapshot{ID: o.ID, State: string(o.State)})
		}
		return out, nil
	}
	name := "ordenes:" + usuarioID
	if typ == entity.OrderCount {
		name = "conteos:" + usuarioID
	}
	return NewWatcher(name, fetch, nil, onChange)
}
