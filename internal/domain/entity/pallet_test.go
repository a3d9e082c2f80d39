package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/almatek/almacen-api/internal/domain/entity"
)

func TestPalletState_Ciclo(t *testing.T) {
	assert.True(t, entity.PalletOpen.CanTransitionTo(entity.PalletClosed))
	assert.True(t, entity.PalletClosed.CanTransitionTo(entity.PalletEmptied))

	assert.False(t, entity.PalletOpen.CanTransitionTo(entity.PalletEmptied),
		"un palet no se vacía sin cerrarse antes")
	assert.False(t, entity.PalletClosed.CanTransitionTo(entity.PalletOpen))
	assert.False(t, entity.PalletEmptied.CanTransitionTo(entity.PalletOpen))
	assert.False(t, entity.PalletEmptied.CanTransitionTo(entity.PalletClosed))
}

func TestPalletState_Terminal(t *testing.T) {
	assert.True(t, entity.PalletEmptied.Terminal())
	assert.False(t, entity.PalletOpen.Terminal())
	assert.False(t, entity.PalletClosed.Terminal())
}
