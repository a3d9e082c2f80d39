package ws

import (
	"context"
	"encoding/json"

	"github.com/almatek/almacen-api/internal/application/notify"
	"github.com/almatek/almacen-api/pkg/config"
	"github.com/almatek/almacen-api/pkg/logger"
)

// Hub mantiene las conexiones push vivas y su pertenencia a topics. No tiene
// persistencia propia: la membresía es volátil y se reconstruye al reconectar;
// la entrega es como máximo una vez por conexión y no se encola para
// desconectados (eso lo cubre el Change-Poller del dispositivo).
//
// Una sola goroutine (Run) es dueña de los mapas; el resto de la aplicación
// habla con ella por canales, así no hay locks en el camino de publicación.
type Hub struct {
	cfg config.HubConfig
	log *logger.Logger

	register    chan *Client
	unregister  chan *Client
	subscribe   chan subscription
	unsubscribe chan subscription
	broadcast   chan envelope
	done        chan struct{}

	clients map[*Client]map[Topic]struct{}
	topics  map[Topic]map[*Client]struct{}
}

type subscription struct {
	client *Client
	topic  Topic
}

type envelope struct {
	topic Topic
	data  []byte
}

var _ notify.Publisher = (*Hub)(nil)

// NewHub construye el hub.
func NewHub(cfg config.HubConfig, log *logger.Logger) *Hub {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 64
	}
	return &Hub{
		cfg:         cfg,
		log:         log,
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		subscribe:   make(chan subscription),
		unsubscribe: make(chan subscription),
		broadcast:   make(chan envelope, 256),
		done:        make(chan struct{}),
		clients:     make(map[*Client]map[Topic]struct{}),
		topics:      make(map[Topic]map[*Client]struct{}),
	}
}

// Run atiende registro, membresía y difusión hasta que el contexto se cancele.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			// done desbloquea a las conexiones a medio registro o baja: sin él,
			// un handler quedaría parado para siempre en un canal sin lector.
			close(h.done)
			for c := range h.clients {
				c.closeSend()
			}
			return
		case c := <-h.register:
			h.clients[c] = make(map[Topic]struct{})
			// Toda conexión queda unida a su topic de usuario mientras viva.
			h.join(c, UserTopic(c.userID))
			h.log.Debug().Str("usuario", c.userID).Msg("conexión push registrada")
		case c := <-h.unregister:
			h.drop(c)
		case s := <-h.subscribe:
			if _, ok := h.clients[s.client]; ok && s.topic.Valid() {
				h.join(s.client, s.topic)
			}
		case s := <-h.unsubscribe:
			h.leave(s.client, s.topic)
		case env := <-h.broadcast:
			for c := range h.topics[env.topic] {
				select {
				case c.send <- env.data:
				default:
					// Buffer lleno: se pierde el mensaje para esa conexión, no
					// se bloquea el hub. El poller del dispositivo lo compensa.
					h.log.Warn().
						Str("usuario", c.userID).
						Str("topic", env.topic.String()).
						Msg("buffer de envío lleno; mensaje descartado")
				}
			}
		}
	}
}

// Publish difunde un payload JSON a los miembros del topic. Best-effort: si la
// cola interna está llena el mensaje se descarta con un aviso en el log.
func (h *Hub) Publish(topic Topic, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error().Err(err).Str("topic", topic.String()).Msg("serializar push")
		return
	}
	select {
	case h.broadcast <- envelope{topic: topic, data: data}:
	default:
		h.log.Warn().Str("topic", topic.String()).Msg("cola de difusión llena; push descartado")
	}
}

// PublishUser implementa notify.Publisher sobre el topic personal.
func (h *Hub) PublishUser(userID string, payload any) {
	h.Publish(UserTopic(userID), payload)
}

// PublishProcess implementa notify.Publisher sobre el topic del proceso.
func (h *Hub) PublishProcess(processID string, payload any) {
	h.Publish(ProcessTopic(processID), payload)
}

// add registra la conexión en el hub. Devuelve false si el hub ya paró; en ese
// caso el llamador debe cerrar la conexión sin arrancar las bombas.
func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// remove da de baja la conexión. No bloquea si el hub ya paró.
func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) join(c *Client, t Topic) {
	if h.topics[t] == nil {
		h.topics[t] = make(map[*Client]struct{})
	}
	h.topics[t][c] = struct{}{}
	h.clients[c][t] = struct{}{}
}

func (h *Hub) leave(c *Client, t Topic) {
	if members, ok := h.topics[t]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.topics, t)
		}
	}
	if topics, ok := h.clients[c]; ok {
		delete(topics, t)
	}
}

func (h *Hub) drop(c *Client) {
	topics, ok := h.clients[c]
	if !ok {
		return
	}
	for t := range topics {
		h.leave(c, t)
	}
	delete(h.clients, c)
	c.closeSend()
	h.log.Debug().Str("usuario", c.userID).Msg("conexión push dada de baja")
}
