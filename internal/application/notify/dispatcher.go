package notify

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/almatek/almacen-api/internal/application/dto"
	"github.com/almatek/almacen-api/internal/application/transition"
	"github.com/almatek/almacen-api/internal/domain/entity"
	"github.com/almatek/almacen-api/internal/domain/repository"
	"github.com/almatek/almacen-api/pkg/logger"
)

// Publisher puerto hacia el hub de suscripciones. La publicación es best-effort:
// nunca bloquea ni devuelve error al flujo de negocio; la fila Notification
// persistida es la fuente de verdad y el Change-Poller el respaldo.
type Publisher interface {
	PublishUser(userID string, payload any)
	PublishProcess(processID string, payload any)
}

// NopPublisher descarta publicaciones (tests y arranques sin hub).
type NopPublisher struct{}

// PublishUser no hace nada.
func (NopPublisher) PublishUser(string, any) {}

// PublishProcess no hace nada.
func (NopPublisher) PublishProcess(string, any) {}

// Dispatcher convierte eventos de transición confirmados en notificaciones
// durables y las reparte por push. Si persistir la notificación falla, el cambio
// de negocio ya hizo commit: se registra y se reintenta en segundo plano, nunca
// se propaga al llamador.
type Dispatcher struct {
	repo      repository.NotificationRepository
	publisher Publisher
	log       *logger.Logger

	retryCh       chan retryItem
	retryInterval time.Duration
	maxAttempts   int
}

type retryItem struct {
	n          *entity.Notification
	recipients []string
	attempts   int
}

var _ transition.Notifier = (*Dispatcher)(nil)

// NewDispatcher construye el dispatcher.
func NewDispatcher(repo repository.NotificationRepository, publisher Publisher, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		repo:          repo,
		publisher:     publisher,
		log:           log,
		retryCh:       make(chan retryItem, 256),
		retryInterval: 5 * time.Second,
		maxAttempts:   5,
	}
}

// Dispatch persiste la notificación con sus destinatarios y la publica en los
// topics proceso:{id} y usuario:{id}. Se invoca tras el commit del motor de
// transiciones, fuera de su transacción.
func (d *Dispatcher) Dispatch(ctx context.Context, ev transition.Event) {
	n := &entity.Notification{
		ID:            uuid.New().String(),
		CompanyID:     ev.CompanyID,
		Type:          ev.Type,
		ProcessID:     ev.ProcessID,
		Title:         ev.Title,
		Message:       ev.Message,
		PreviousState: ev.PreviousState,
		CurrentState:  ev.CurrentState,
		Active:        true,
		CreatedAt:     ev.OccurredAt,
	}

	if err := d.repo.Create(ctx, n, ev.Recipients); err != nil {
		d.log.Error().Err(err).
			Str("proceso", ev.ProcessID).
			Str("estado", ev.CurrentState).
			Msg("persistir notificación falló; encolando reintento")
		d.enqueueRetry(retryItem{n: n, recipients: ev.Recipients, attempts: 1})
		return
	}

	d.push(n, ev.Recipients)
}

// DispatchBroadcast crea un aviso general para un grupo con marcador de difusión
// en lugar de filas Destinatario.
func (d *Dispatcher) DispatchBroadcast(ctx context.Context, companyID, group, title, message string) error {
	n := &entity.Notification{
		ID:             uuid.New().String(),
		CompanyID:      companyID,
		Type:           entity.NotifGeneral,
		Title:          title,
		Message:        message,
		Active:         true,
		BroadcastGroup: group,
		CreatedAt:      time.Now(),
	}
	if err := d.repo.Create(ctx, n, nil); err != nil {
		return err
	}
	d.publisher.PublishProcess(group, pushPayload(n))
	return nil
}

// Run atiende la cola de reintentos hasta que el contexto se cancele.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.retryInterval)
	defer ticker.Stop()
	var pending []retryItem
	for {
		select {
		case <-ctx.Done():
			return
		case it := <-d.retryCh:
			pending = append(pending, it)
		case <-ticker.C:
			var still []retryItem
			for _, it := range pending {
				if err := d.repo.Create(ctx, it.n, it.recipients); err != nil {
					it.attempts++
					if it.attempts >= d.maxAttempts {
						d.log.Error().Err(err).
							Str("notificacion", it.n.ID).
							Int("intentos", it.attempts).
							Msg("notificación descartada tras agotar reintentos; el poller la compensará")
						continue
					}
					still = append(still, it)
					continue
				}
				d.push(it.n, it.recipients)
			}
			pending = still
		}
	}
}

func (d *Dispatcher) enqueueRetry(it retryItem) {
	select {
	case d.retryCh <- it:
	default:
		// Cola llena: se pierde el reintento, no la corrección — el poller
		// descubrirá el cambio de estado igualmente.
		d.log.Warn().Str("notificacion", it.n.ID).Msg("cola de reintentos llena")
	}
}

// push entrega best-effort al hub: topic del proceso y topic de cada destinatario.
func (d *Dispatcher) push(n *entity.Notification, recipients []string) {
	payload := pushPayload(n)
	if n.ProcessID != "" {
		d.publisher.PublishProcess(n.ProcessID, payload)
	}
	for _, userID := range recipients {
		d.publisher.PublishUser(userID, payload)
	}
}

func pushPayload(n *entity.Notification) dto.NotificationPush {
	return dto.NotificationPush{
		ID:            n.ID,
		Type:          string(n.Type),
		ProcessID:     n.ProcessID,
		Title:         n.Title,
		Message:       n.Message,
		PreviousState: n.PreviousState,
		CurrentState:  n.CurrentState,
		CreatedAt:     n.CreatedAt,
	}
}
