package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderType tipo de orden: de traspaso o de conteo.
type OrderType string

const (
	OrderTransfer OrderType = "TRANSFER"
	OrderCount    OrderType = "COUNT"
)

// Valid indica si el tipo pertenece al enum cerrado.
func (t OrderType) Valid() bool {
	return t == OrderTransfer || t == OrderCount
}

// OrderScope alcance de una orden (qué se mueve o se cuenta).
type OrderScope string

const (
	ScopeArticle   OrderScope = "ARTICLE"
	ScopeLocation  OrderScope = "LOCATION"
	ScopePallet    OrderScope = "PALLET"
	ScopeAisle     OrderScope = "AISLE"
	ScopeWarehouse OrderScope = "WAREHOUSE"
)

// OrderState estado del ciclo de vida de una orden.
// Grafo: PLANNED → ASSIGNED → IN_PROGRESS → PENDING_REVIEW → CLOSED,
// con CANCELLED alcanzable desde cualquier estado no terminal.
type OrderState string

const (
	OrderPlanned       OrderState = "PLANNED"
	OrderAssigned      OrderState = "ASSIGNED"
	OrderInProgress    OrderState = "IN_PROGRESS"
	OrderPendingReview OrderState = "PENDING_REVIEW"
	OrderClosed        OrderState = "CLOSED"
	OrderCancelled     OrderState = "CANCELLED"
)

// orderTransitions tabla exhaustiva de transiciones legales.
var orderTransitions = map[OrderState][]OrderState{
	OrderPlanned:       {OrderAssigned, OrderCancelled},
	OrderAssigned:      {OrderInProgress, OrderCancelled},
	OrderInProgress:    {OrderPendingReview, OrderCancelled},
	OrderPendingReview: {OrderClosed, OrderCancelled},
	OrderClosed:        {},
	OrderCancelled:     {},
}

// Valid indica si el estado pertenece al enum cerrado.
func (s OrderState) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransitionTo indica si la transición s → next es legal según la tabla.
func (s OrderState) CanTransitionTo(next OrderState) bool {
	for _, t := range orderTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Terminal indica si el estado no admite más transiciones.
func (s OrderState) Terminal() bool {
	return len(orderTransitions[s]) == 0 && s.Valid()
}

// LineState estado de una línea de orden.
// PENDING → IN_PROGRESS → COMPLETED, con el desbloqueo explícito de supervisor
// COMPLETED → IN_PROGRESS como única marcha atrás permitida en el sistema.
type LineState string

const (
	LinePending    LineState = "PENDING"
	LineInProgress LineState = "IN_PROGRESS"
	LineCompleted  LineState = "COMPLETED"
)

var lineTransitions = map[LineState][]LineState{
	LinePending:    {LineInProgress},
	LineInProgress: {LineCompleted},
	LineCompleted:  {LineInProgress}, // desbloqueo de supervisor
}

// Valid indica si el estado pertenece al enum cerrado.
func (s LineState) Valid() bool {
	_, ok := lineTransitions[s]
	return ok
}

// CanTransitionTo indica si la transición s → next es legal según la tabla.
func (s LineState) CanTransitionTo(next LineState) bool {
	for _, t := range lineTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Order representa una unidad de trabajo creada por un supervisor y asignada a un
// operario, compuesta por líneas. Invariante: no puede llegar a CLOSED mientras
// exista una línea incompleta sin resolver.
type Order struct {
	ID         string
	CompanyID  string
	Type       OrderType
	Scope      OrderScope
	ScopeValue string // artículo, ubicación, palet, pasillo o almacén según Scope
	Warehouse  string
	AssignedTo string
	State      OrderState
	CreatedBy  string
	Lines      []OrderLine
	CreatedAt  time.Time
	AssignedAt *time.Time
	ClosedAt   *time.Time
	UpdatedAt  time.Time
}

// OrderLine representa un movimiento o conteo individual dentro de una orden.
type OrderLine struct {
	ID           string
	OrderID      string
	ArticleCode  string
	OriginLoc    string
	DestLoc      string
	ExpectedQty  decimal.Decimal
	CompletedQty decimal.Decimal
	State        LineState
	CompletedBy  string
	CompletedAt  *time.Time
	UpdatedAt    time.Time
}

// AllLinesCompleted indica si todas las líneas están COMPLETED.
// Con ello la orden auto-avanza a PENDING_REVIEW dentro de la misma transacción.
func (o *Order) AllLinesCompleted() bool {
	if len(o.Lines) == 0 {
		return false
	}
	for _, l := range o.Lines {
		if l.State != LineCompleted {
			return false
		}
	}
	return true
}
