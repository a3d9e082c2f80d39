package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PalletState estado del ciclo de vida de un palet.
// Grafo: OPEN → CLOSED → EMPTIED. EMPTIED es terminal.
type PalletState string

const (
	PalletOpen    PalletState = "OPEN"
	PalletClosed  PalletState = "CLOSED"
	PalletEmptied PalletState = "EMPTIED"
)

// palletTransitions tabla exhaustiva de transiciones legales.
var palletTransitions = map[PalletState][]PalletState{
	PalletOpen:    {PalletClosed},
	PalletClosed:  {PalletEmptied},
	PalletEmptied: {},
}

// Valid indica si el estado pertenece al enum cerrado.
func (s PalletState) Valid() bool {
	_, ok := palletTransitions[s]
	return ok
}

// CanTransitionTo indica si la transición s → next es legal según la tabla.
func (s PalletState) CanTransitionTo(next PalletState) bool {
	for _, t := range palletTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Terminal indica si el estado no admite más transiciones.
func (s PalletState) Terminal() bool {
	return len(palletTransitions[s]) == 0 && s.Valid()
}

// Pallet representa una unidad física de mercancía con ciclo de vida propio.
// Invariante: como máximo un Transfer no terminal puede referenciarlo; debe estar
// CLOSED antes de finalizar a PENDING_ERP el traspaso que lo mueve.
type Pallet struct {
	ID        string
	CompanyID string
	Code      string // código corto legible (etiqueta)
	State     PalletState
	Warehouse string          // almacén registrado actual
	Location  string          // ubicación registrada actual
	Height    decimal.Decimal // cm
	Weight    decimal.Decimal // kg
	OpenedAt  time.Time
	OpenedBy  string
	ClosedAt  *time.Time
	ClosedBy  string
	Emptied   bool
	EmptiedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
