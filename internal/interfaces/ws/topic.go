package ws

import "fmt"

// TopicKind clase de topic del hub. Cerrado: proceso (un traspaso u orden
// concreto) o usuario (todas las notificaciones dirigidas a una persona).
type TopicKind string

const (
	KindProceso TopicKind = "proceso"
	KindUsuario TopicKind = "usuario"
)

// Valid indica si el kind pertenece al enum cerrado.
func (k TopicKind) Valid() bool {
	return k == KindProceso || k == KindUsuario
}

// Topic identifica un grupo de suscripción tipado (kind + id). Sustituye a los
// nombres de grupo construidos a mano ("Traspaso_{id}", "Usuario_{id}").
type Topic struct {
	Kind TopicKind
	ID   string
}

// ProcessTopic topic del proceso (traspaso u orden) con el id dado.
func ProcessTopic(id string) Topic {
	return Topic{Kind: KindProceso, ID: id}
}

// UserTopic topic personal del usuario.
func UserTopic(id string) Topic {
	return Topic{Kind: KindUsuario, ID: id}
}

// Valid indica si el topic es usable.
func (t Topic) Valid() bool {
	return t.Kind.Valid() && t.ID != ""
}

func (t Topic) String() string {
	return fmt.Sprintf("%s:%s", t.Kind, t.ID)
}
