package transition

import (
	"time"

	"github.com/almatek/almacen-api/internal/domain/entity"
)

// Event describe una transición de estado aceptada y confirmada. Es la entrada
// del dispatcher de notificaciones: una fila Notification durable + push
// best-effort a los topics proceso/usuario.
type Event struct {
	Type          entity.NotificationType
	CompanyID     string
	ProcessID     string // id del traspaso u orden
	PreviousState string
	CurrentState  string
	Actor         string   // usuario que provocó la transición ("" para el ERP)
	Recipients    []string // iniciador + finalizador si es distinto
	Title         string
	Message       string
	OccurredAt    time.Time
}

// addRecipient añade un usuario evitando duplicados y vacíos.
func (e *Event) addRecipient(userID string) {
	if userID == "" {
		return
	}
	for _, r := range e.Recipients {
		if r == userID {
			return
		}
	}
	e.Recipients = append(e.Recipients, userID)
}
