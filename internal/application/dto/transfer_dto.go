package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovePalletRequest solicitud de mover un palet (flujo móvil, dos fases).
// El origen se deduce del último destino completado del palet.
type MovePalletRequest struct {
	PalletID  string `json:"palletId"`
	UsuarioID string `json:"usuarioId"`
	// Destino opcional: si viene informado (cliente de escritorio) el traspaso
	// nace directamente en PENDING_ERP.
	DestWarehouse string `json:"destAlmacen"`
	DestLocation  string `json:"destUbicacion"`
}

// FinalizeTransferRequest solicitud de finalizar un traspaso (segunda fase).
type FinalizeTransferRequest struct {
	DestWarehouse string `json:"destAlmacen"`
	DestLocation  string `json:"destUbicacion"`
	UsuarioID     string `json:"usuarioId"`
}

// ArticleTransferRequest solicitud de traspaso de artículo.
// Con destino informado (escritorio) nace en PENDING_ERP; sin destino (móvil), en PENDING.
type ArticleTransferRequest struct {
	ArticleCode     string          `json:"articulo"`
	Quantity        decimal.Decimal `json:"cantidad"`
	OriginWarehouse string          `json:"origenAlmacen"`
	OriginLocation  string          `json:"origenUbicacion"`
	DestWarehouse   string          `json:"destAlmacen"`
	DestLocation    string          `json:"destUbicacion"`
	UsuarioID       string          `json:"usuarioId"`
	OrderLineID     string          `json:"lineaOrdenId"`
}

// ERPResultRequest resultado asíncrono del colaborador ERP para un traspaso PENDING_ERP.
type ERPResultRequest struct {
	Outcome string `json:"resultado"` // "COMPLETED" | "ERROR_ERP"
	Detail  string `json:"detalle"`
}

// TransferResponse representación HTTP de un traspaso.
type TransferResponse struct {
	ID          string          `json:"id"`
	Type        string          `json:"tipo"`
	PalletID    string          `json:"palletId,omitempty"`
	ArticleCode string          `json:"articulo,omitempty"`
	Quantity    decimal.Decimal `json:"cantidad,omitempty"`
	OriginWH    string          `json:"origenAlmacen"`
	OriginLoc   string          `json:"origenUbicacion"`
	DestWH      string          `json:"destAlmacen,omitempty"`
	DestLoc     string          `json:"destUbicacion,omitempty"`
	State       string          `json:"estado"`
	CreatedBy   string          `json:"creadoPor"`
	FinalizedBy string          `json:"finalizadoPor,omitempty"`
	ErrorDetail string          `json:"errorDetalle,omitempty"`
	CreatedAt   time.Time       `json:"creadoEn"`
	FinalizedAt *time.Time      `json:"finalizadoEn,omitempty"`
	ResolvedAt  *time.Time      `json:"resueltoEn,omitempty"`
}
