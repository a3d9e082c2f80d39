package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/almatek/almacen-api/internal/domain/entity"
	"github.com/almatek/almacen-api/internal/domain/repository"
)

var _ repository.NotificationRepository = (*NotificationRepo)(nil)

// NotificationRepo implementación de NotificationRepository sobre PostgreSQL.
// La notificación es inmutable tras crearse: el fan-out vive en
// notification_recipients y las lecturas en notification_reads (append-only).
type NotificationRepo struct {
	q Querier
}

// NewNotificationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewNotificationRepository(q Querier) *NotificationRepo {
	return &NotificationRepo{q: q}
}

const notificationColumns = `
	id, company_id, type, process_id, title, message,
	previous_state, current_state, active, broadcast_group, created_at`

// Create inserta la notificación y una fila de destinatario por cada usuario.
func (r *NotificationRepo) Create(ctx context.Context, n *entity.Notification, recipients []string) error {
	query := `
		INSERT INTO notifications (` + notificationColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO NOTHING`
	_, err := r.q.Exec(ctx, query,
		n.ID, n.CompanyID, n.Type, nullIfEmpty(n.ProcessID), n.Title, n.Message,
		nullIfEmpty(n.PreviousState), nullIfEmpty(n.CurrentState), n.Active,
		nullIfEmpty(n.BroadcastGroup), n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	// ON CONFLICT en ambas tablas: un reintento del dispatcher no duplica nada.
	recQuery := `
		INSERT INTO notification_recipients (notification_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (notification_id, user_id) DO NOTHING`
	for _, userID := range recipients {
		if _, err := r.q.Exec(ctx, recQuery, n.ID, userID); err != nil {
			return fmt.Errorf("create notification recipient: %w", err)
		}
	}
	return nil
}

// GetByID obtiene una notificación por id. Devuelve nil sin error si no existe.
func (r *NotificationRepo) GetByID(ctx context.Context, id string) (*entity.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`
	var n entity.Notification
	var processID, prevState, currState, broadcast *string
	err := r.q.QueryRow(ctx, query, id).Scan(
		&n.ID, &n.CompanyID, &n.Type, &processID, &n.Title, &n.Message,
		&prevState, &currState, &n.Active, &broadcast, &n.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get notification: %w", err)
	}
	n.ProcessID = deref(processID)
	n.PreviousState = deref(prevState)
	n.CurrentState = deref(currState)
	n.BroadcastGroup = deref(broadcast)
	return &n, nil
}

// ListByUser devuelve las notificaciones visibles para el usuario: las
// explícitas no borradas de su vista más las difusiones de su empresa. El flag
// de lectura sale del LEFT JOIN con notification_reads, una sola consulta por
// página en vez de una por notificación.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*repository.FeedItem, error) {
	query := `
		SELECT n.id, n.company_id, n.type, n.process_id, n.title, n.message,
		       n.previous_state, n.current_state, n.active, n.broadcast_group, n.created_at,
		       l.user_id IS NOT NULL AS read
		FROM notifications n
		LEFT JOIN notification_reads l
		  ON l.notification_id = n.id AND l.user_id = $1
		WHERE n.active
		  AND (
			EXISTS (
				SELECT 1 FROM notification_recipients d
				WHERE d.notification_id = n.id AND d.user_id = $1 AND NOT d.deleted
			)
			OR (n.broadcast_group IS NOT NULL AND n.company_id = (
				SELECT company_id FROM users WHERE id = $1
			))
		  )
		ORDER BY n.created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()
	var out []*repository.FeedItem
	for rows.Next() {
		var n entity.Notification
		var read bool
		var processID, prevState, currState, broadcast *string
		err := rows.Scan(
			&n.ID, &n.CompanyID, &n.Type, &processID, &n.Title, &n.Message,
			&prevState, &currState, &n.Active, &broadcast, &n.CreatedAt,
			&read,
		)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.ProcessID = deref(processID)
		n.PreviousState = deref(prevState)
		n.CurrentState = deref(currState)
		n.BroadcastGroup = deref(broadcast)
		out = append(out, &repository.FeedItem{Notification: &n, Read: read})
	}
	return out, rows.Err()
}

// MarkRead inserta la lectura de forma idempotente. Devuelve true si la fila se
// insertó en esta llamada (false = ya estaba leída).
func (r *NotificationRepo) MarkRead(ctx context.Context, notificationID, userID string, at time.Time) (bool, error) {
	query := `
		INSERT INTO notification_reads (notification_id, user_id, read_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (notification_id, user_id) DO NOTHING`
	tag, err := r.q.Exec(ctx, query, notificationID, userID, at)
	if err != nil {
		return false, fmt.Errorf("mark read: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkAllRead inserta lecturas para todas las pendientes visibles del usuario.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error) {
	query := `
		INSERT INTO notification_reads (notification_id, user_id, read_at)
		SELECT n.id, $1, $2 FROM notifications n
		WHERE n.active
		  AND (
			EXISTS (
				SELECT 1 FROM notification_recipients d
				WHERE d.notification_id = n.id AND d.user_id = $1 AND NOT d.deleted
			)
			OR (n.broadcast_group IS NOT NULL AND n.company_id = (
				SELECT company_id FROM users WHERE id = $1
			))
		  )
		ON CONFLICT (notification_id, user_id) DO NOTHING`
	tag, err := r.q.Exec(ctx, query, userID, at)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// CountUnread número de notificaciones visibles sin lectura para el usuario.
func (r *NotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	query := `
		SELECT count(*) FROM notifications n
		WHERE n.active
		  AND (
			EXISTS (
				SELECT 1 FROM notification_recipients d
				WHERE d.notification_id = n.id AND d.user_id = $1 AND NOT d.deleted
			)
			OR (n.broadcast_group IS NOT NULL AND n.company_id = (
				SELECT company_id FROM users WHERE id = $1
			))
		  )
		  AND NOT EXISTS (
			SELECT 1 FROM notification_reads l
			WHERE l.notification_id = n.id AND l.user_id = $1
		  )`
	var count int
	if err := r.q.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}

// SoftDelete marca el destinatario como borrado solo en la vista del usuario.
// La fila Notification no se toca.
func (r *NotificationRepo) SoftDelete(ctx context.Context, notificationID, userID string) error {
	query := `
		UPDATE notification_recipients
		SET deleted = true, deleted_at = now()
		WHERE notification_id = $1 AND user_id = $2`
	if _, err := r.q.Exec(ctx, query, notificationID, userID); err != nil {
		return fmt.Errorf("soft delete notification: %w", err)
	}
	return nil
}
