package notify

import (
	"context"
	"time"

	"github.com/almatek/almacen-api/internal/application/dto"
	"github.com/almatek/almacen-api/internal/domain"
	"github.com/almatek/almacen-api/internal/domain/repository"
)

// NotificationUseCase lado de lectura del subsistema de notificaciones:
// feeds por usuario, contador de no leídas y marcado de lectura (append-only).
type NotificationUseCase struct {
	repo repository.NotificationRepository
}

// NewNotificationUseCase construye el caso de uso.
func NewNotificationUseCase(repo repository.NotificationRepository) *NotificationUseCase {
	return &NotificationUseCase{repo: repo}
}

// Feed devuelve el feed completo del usuario. El flag de lectura viene resuelto
// del repositorio en la misma consulta que la página.
func (uc *NotificationUseCase) Feed(ctx context.Context, usuarioID string, page dto.PageRequest) ([]dto.NotificationResponse, error) {
	page.DefaultPage()
	items, err := uc.repo.ListByUser(ctx, usuarioID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.NotificationResponse, 0, len(items))
	for _, it := range items {
		n := it.Notification
		out = append(out, dto.NotificationResponse{
			ID:            n.ID,
			Type:          string(n.Type),
			ProcessID:     n.ProcessID,
			Title:         n.Title,
			Message:       n.Message,
			PreviousState: n.PreviousState,
			CurrentState:  n.CurrentState,
			Read:          it.Read,
			CreatedAt:     n.CreatedAt,
		})
	}
	return out, nil
}

// Resumen devuelve el feed compacto (pantalla de campana).
func (uc *NotificationUseCase) Resumen(ctx context.Context, usuarioID string, page dto.PageRequest) ([]dto.NotificationSummary, error) {
	page.DefaultPage()
	items, err := uc.repo.ListByUser(ctx, usuarioID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.NotificationSummary, 0, len(items))
	for _, it := range items {
		out = append(out, dto.NotificationSummary{
			ID:        it.Notification.ID,
			Type:      string(it.Notification.Type),
			Title:     it.Notification.Title,
			Read:      it.Read,
			CreatedAt: it.Notification.CreatedAt,
		})
	}
	return out, nil
}

// Contador devuelve el número de notificaciones no leídas del usuario.
func (uc *NotificationUseCase) Contador(ctx context.Context, usuarioID string) (*dto.UnreadCountResponse, error) {
	n, err := uc.repo.CountUnread(ctx, usuarioID)
	if err != nil {
		return nil, err
	}
	return &dto.UnreadCountResponse{UsuarioID: usuarioID, Unread: n}, nil
}

// MarcarLeida marca una notificación como leída para el usuario. Idempotente:
// la segunda llamada no crea otra Lectura ni altera el contador.
func (uc *NotificationUseCase) MarcarLeida(ctx context.Context, notificationID, usuarioID string) error {
	n, err := uc.repo.GetByID(ctx, notificationID)
	if err != nil {
		return err
	}
	if n == nil {
		return domain.ErrNotFound
	}
	_, err = uc.repo.MarkRead(ctx, notificationID, usuarioID, time.Now())
	return err
}

// MarcarTodasLeidas marca todas las pendientes del usuario. Devuelve cuántas
// Lecturas nuevas se insertaron.
func (uc *NotificationUseCase) MarcarTodasLeidas(ctx context.Context, usuarioID string) (int, error) {
	return uc.repo.MarkAllRead(ctx, usuarioID, time.Now())
}

// Eliminar borra la notificación solo de la vista del usuario (borrado lógico
// del Destinatario; la fila Notification no se toca).
func (uc *NotificationUseCase) Eliminar(ctx context.Context, notificationID, usuarioID string) error {
	n, err := uc.repo.GetByID(ctx, notificationID)
	if err != nil {
		return err
	}
	if n == nil {
		return domain.ErrNotFound
	}
	return uc.repo.SoftDelete(ctx, notificationID, usuarioID)
}
