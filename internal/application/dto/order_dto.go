package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateOrderRequest alta de una orden de traspaso o conteo con sus líneas.
type CreateOrderRequest struct {
	Type       string             `json:"tipo"`    // TRANSFER | COUNT
	Scope      string             `json:"alcance"` // ARTICLE | LOCATION | PALLET | AISLE | WAREHOUSE
	ScopeValue string             `json:"valorAlcance"`
	Warehouse  string             `json:"almacen"`
	Lines      []OrderLineRequest `json:"lineas"`
}

// OrderLineRequest línea de una orden nueva.
type OrderLineRequest struct {
	ArticleCode string          `json:"articulo"`
	OriginLoc   string          `json:"origenUbicacion"`
	DestLoc     string          `json:"destUbicacion"`
	ExpectedQty decimal.Decimal `json:"cantidadEsperada"`
}

// AssignOrderRequest asignación de una orden a un operario.
type AssignOrderRequest struct {
	UsuarioID string `json:"usuarioId"`
}

// CompleteLineRequest cierre de una línea con la cantidad realizada.
type CompleteLineRequest struct {
	CompletedQty decimal.Decimal `json:"cantidadRealizada"`
	UsuarioID    string          `json:"usuarioId"`
}

// OrderResponse representación HTTP de una orden.
type OrderResponse struct {
	ID         string              `json:"id"`
	Type       string              `json:"tipo"`
	Scope      string              `json:"alcance"`
	ScopeValue string              `json:"valorAlcance"`
	Warehouse  string              `json:"almacen"`
	AssignedTo string              `json:"asignadaA,omitempty"`
	State      string              `json:"estado"`
	Lines      []OrderLineResponse `json:"lineas"`
	CreatedAt  time.Time           `json:"creadaEn"`
}

// OrderLineResponse línea en respuestas HTTP.
type OrderLineResponse struct {
	ID           string          `json:"id"`
	ArticleCode  string          `json:"articulo"`
	OriginLoc    string          `json:"origenUbicacion"`
	DestLoc      string          `json:"destUbicacion,omitempty"`
	ExpectedQty  decimal.Decimal `json:"cantidadEsperada"`
	CompletedQty decimal.Decimal `json:"cantidadRealizada"`
	State        string          `json:"estado"`
}
