package entity

import "time"

// NotificationType etiqueta de tipo de una notificación.
type NotificationType string

const (
	NotifTransfer      NotificationType = "TRANSFER"
	NotifInventory     NotificationType = "INVENTORY"
	NotifOrderTransfer NotificationType = "ORDER_TRANSFER"
	NotifCount         NotificationType = "COUNT"
	NotifGeneral       NotificationType = "GENERAL"
)

// Notification representa un aviso durable generado por el dispatcher ante cada
// transición aceptada. La fila es inmutable tras crearse: la lectura por usuario
// vive en Lectura y el borrado por usuario en el flag de su Destinatario
// (fan-out y lecturas son append-only).
type Notification struct {
	ID             string
	CompanyID      string
	Type           NotificationType
	ProcessID      string // id del traspaso/orden que la originó; vacío en avisos generales
	Title          string
	Message        string
	PreviousState  string
	CurrentState   string
	Active         bool
	BroadcastGroup string // no vacío = difusión a grupo en vez de filas Destinatario
	CreatedAt      time.Time
}

// Destinatario fila explícita de destinatario de una notificación.
// Deleted marca el borrado lógico solo en la vista de ese usuario.
type Destinatario struct {
	NotificationID string
	UserID         string
	Deleted        bool
	DeletedAt      *time.Time
}

// Lectura registro de lectura de una notificación por un usuario.
// Invariante: una notificación está "leída para U" exactamente cuando existe la
// fila (notificación, U); nunca se muta la fila Notification.
type Lectura struct {
	NotificationID string
	UserID         string
	ReadAt         time.Time
}
