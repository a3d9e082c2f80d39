package repository

import (
	"context"
	"time"

	"github.com/almatek/almacen-api/internal/domain/entity"
)

// FeedItem notificación con el flag de lectura del usuario ya resuelto.
type FeedItem struct {
	Notification *entity.Notification
	Read         bool
}

// NotificationRepository define el puerto de persistencia para Notification,
// Destinatario y Lectura. El fan-out y las lecturas son append-only.
type NotificationRepository interface {
	// Create inserta la notificación y sus filas Destinatario en una sola operación.
	Create(ctx context.Context, n *entity.Notification, recipients []string) error
	GetByID(ctx context.Context, id string) (*entity.Notification, error)
	// ListByUser devuelve las notificaciones visibles para el usuario (explícitas
	// no borradas + difusiones de su empresa), más recientes primero, con el flag
	// de lectura resuelto en la misma consulta.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*FeedItem, error)
	// MarkRead inserta la Lectura de forma idempotente (ON CONFLICT DO NOTHING).
	// Devuelve true si la fila se insertó en esta llamada.
	MarkRead(ctx context.Context, notificationID, userID string, at time.Time) (bool, error)
	// MarkAllRead inserta Lecturas para todas las pendientes del usuario.
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error)
	// CountUnread devuelve el número de notificaciones sin Lectura para el usuario.
	CountUnread(ctx context.Context, userID string) (int, error)
	// SoftDelete marca el Destinatario como borrado solo en la vista del usuario.
	SoftDelete(ctx context.Context, notificationID, userID string) error
}
