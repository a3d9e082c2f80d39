package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/almatek/almacen-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tests de la tabla de transiciones de Transfer
// ──────────────────────────────────────────────────────────────────────────────

func TestTransferState_TransicionesLegales(t *testing.T) {
	casos := []struct {
		desde entity.TransferState
		hasta entity.TransferState
	}{
		{entity.TransferPending, entity.TransferInTransit},
		{entity.TransferPending, entity.TransferPendingERP},
		{entity.TransferInTransit, entity.TransferPendingERP},
		{entity.TransferPendingERP, entity.TransferCompleted},
		{entity.TransferPendingERP, entity.TransferErrorERP},
	}
	for _, c := range casos {
		assert.True(t, c.desde.CanTransitionTo(c.hasta),
			"%s → %s debe ser legal", c.desde, c.hasta)
	}
}

func TestTransferState_TransicionesIlegales(t *testing.T) {
	casos := []struct {
		desde entity.TransferState
		hasta entity.TransferState
	}{
		// No hay marcha atrás.
		{entity.TransferInTransit, entity.TransferPending},
		{entity.TransferPendingERP, entity.TransferPending},
		{entity.TransferPendingERP, entity.TransferInTransit},
		// Los terminales no salen.
		{entity.TransferCompleted, entity.TransferPending},
		{entity.TransferCompleted, entity.TransferErrorERP},
		{entity.TransferErrorERP, entity.TransferCompleted},
		{entity.TransferErrorERP, entity.TransferPendingERP},
		// No se salta la fase ERP.
		{entity.TransferPending, entity.TransferCompleted},
		{entity.TransferInTransit, entity.TransferCompleted},
	}
	for _, c := range casos {
		assert.False(t, c.desde.CanTransitionTo(c.hasta),
			"%s → %s no debe ser legal", c.desde, c.hasta)
	}
}

func TestTransferState_Terminal(t *testing.T) {
	assert.True(t, entity.TransferCompleted.Terminal())
	assert.True(t, entity.TransferErrorERP.Terminal(),
		"ERROR_ERP es un desenlace durable, no un estado transitorio")

	assert.False(t, entity.TransferPending.Terminal())
	assert.False(t, entity.TransferInTransit.Terminal())
	assert.False(t, entity.TransferPendingERP.Terminal())
}

func TestTransferState_Open(t *testing.T) {
	// Abierto = válido y no terminal. Es el predicado que respalda el guard
	// "como máximo un traspaso abierto por palet".
	assert.True(t, entity.TransferPending.Open())
	assert.True(t, entity.TransferInTransit.Open())
	assert.True(t, entity.TransferPendingERP.Open())

	assert.False(t, entity.TransferCompleted.Open())
	assert.False(t, entity.TransferErrorERP.Open())
	assert.False(t, entity.TransferState("INVENTADO").Open())
}

func TestTransferState_Valid(t *testing.T) {
	assert.True(t, entity.TransferPending.Valid())
	assert.False(t, entity.TransferState("").Valid())
	assert.False(t, entity.TransferState("pendiente").Valid(),
		"los estados son sensibles a mayúsculas")
}
