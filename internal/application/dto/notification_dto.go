package dto

import "time"

// NotificationResponse notificación en el feed completo de un usuario.
type NotificationResponse struct {
	ID            string    `json:"id"`
	Type          string    `json:"tipo"`
	ProcessID     string    `json:"procesoId,omitempty"`
	Title         string    `json:"titulo"`
	Message       string    `json:"mensaje"`
	PreviousState string    `json:"estadoAnterior,omitempty"`
	CurrentState  string    `json:"estadoActual,omitempty"`
	Read          bool      `json:"leida"`
	CreatedAt     time.Time `json:"creadaEn"`
}

// NotificationSummary entrada del feed resumido (pantalla de campana).
type NotificationSummary struct {
	ID        string    `json:"id"`
	Type      string    `json:"tipo"`
	Title     string    `json:"titulo"`
	Read      bool      `json:"leida"`
	CreatedAt time.Time `json:"creadaEn"`
}

// UnreadCountResponse contador de no leídas.
type UnreadCountResponse struct {
	UsuarioID string `json:"usuarioId"`
	Unread    int    `json:"noLeidas"`
}

// BroadcastRequest aviso general difundido manualmente a un grupo.
type BroadcastRequest struct {
	Group   string `json:"grupo"`
	Title   string `json:"titulo"`
	Message string `json:"mensaje"`
}

// NotificationPush mensaje enviado por el hub a las conexiones suscritas.
// El cliente debe deduplicar por (procesoId, estadoActual): la misma señal puede
// llegar también por el Change-Poller.
type NotificationPush struct {
	ID            string    `json:"id"`
	Type          string    `json:"tipo"`
	ProcessID     string    `json:"procesoId,omitempty"`
	Title         string    `json:"titulo"`
	Message       string    `json:"mensaje"`
	PreviousState string    `json:"estadoAnterior,omitempty"`
	CurrentState  string    `json:"estadoActual,omitempty"`
	CreatedAt     time.Time `json:"creadaEn"`
}
