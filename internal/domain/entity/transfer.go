package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferType tipo de traspaso: de artículo suelto o de palet completo.
type TransferType string

const (
	TransferArticle TransferType = "ARTICLE"
	TransferPallet  TransferType = "PALLET"
)

// TransferState estado del ciclo de vida de un traspaso.
// Grafo: PENDING → IN_TRANSIT → PENDING_ERP → COMPLETED, con PENDING_ERP → ERROR_ERP
// como terminal alterno alcanzable solo por el colaborador ERP externo.
// Se permite el atajo PENDING → PENDING_ERP: los clientes de escritorio crean el
// traspaso con destino conocido en una sola llamada y los móviles finalizan sin
// pasar explícitamente por IN_TRANSIT.
type TransferState string

const (
	TransferPending    TransferState = "PENDING"
	TransferInTransit  TransferState = "IN_TRANSIT"
	TransferPendingERP TransferState = "PENDING_ERP"
	TransferCompleted  TransferState = "COMPLETED"
	TransferErrorERP   TransferState = "ERROR_ERP"
)

// transferTransitions tabla exhaustiva de transiciones legales.
var transferTransitions = map[TransferState][]TransferState{
	TransferPending:    {TransferInTransit, TransferPendingERP},
	TransferInTransit:  {TransferPendingERP},
	TransferPendingERP: {TransferCompleted, TransferErrorERP},
	TransferCompleted:  {},
	TransferErrorERP:   {},
}

// Valid indica si el estado pertenece al enum cerrado.
func (s TransferState) Valid() bool {
	_, ok := transferTransitions[s]
	return ok
}

// CanTransitionTo indica si la transición s → next es legal según la tabla.
func (s TransferState) CanTransitionTo(next TransferState) bool {
	for _, t := range transferTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Terminal indica si el estado no admite más transiciones (COMPLETED, ERROR_ERP).
func (s TransferState) Terminal() bool {
	return len(transferTransitions[s]) == 0 && s.Valid()
}

// Open indica si el traspaso sigue vivo. Se usa para el guard de unicidad:
// un palet con un traspaso Open no admite otro.
func (s TransferState) Open() bool {
	return s.Valid() && !s.Terminal()
}

// Transfer representa el movimiento dirigido de un artículo o un palet entre
// ubicaciones de almacén, con máquina de estados multifase.
type Transfer struct {
	ID          string
	CompanyID   string
	Type        TransferType
	PalletID    string          // solo tipo PALLET
	ArticleCode string          // solo tipo ARTICLE
	Quantity    decimal.Decimal // solo tipo ARTICLE
	OriginWH    string
	OriginLoc   string
	DestWH      string // vacío hasta finalizar (flujo móvil)
	DestLoc     string
	State       TransferState
	CreatedBy   string
	FinalizedBy string
	OrderLineID string // vínculo opcional a la línea de orden que lo originó
	ErrorDetail string // mensaje devuelto por el ERP en ERROR_ERP
	CreatedAt   time.Time
	FinalizedAt *time.Time
	ResolvedAt  *time.Time // momento en que el ERP confirmó o rechazó
	UpdatedAt   time.Time
}
