package ws

import (
	"encoding/json"
	"time"

	"github.com/gofiber/contrib/websocket"
)

const (
	readLimit  = 4 * 1024
	pongWait   = 60 * time.Second
	pingPeriod = 45 * time.Second
)

// Client una conexión websocket autenticada. El hub escribe en send; la propia
// conexión tiene una goroutine de escritura (writePump) y la de lectura corre
// en el handler de Fiber.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	userID    string
	companyID string
	role      string
}

func newClient(hub *Hub, conn *websocket.Conn, userID, companyID, role string) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, hub.cfg.SendBuffer),
		userID:    userID,
		companyID: companyID,
		role:      role,
	}
}

// closeSend lo llama solo la goroutine del hub, que es la única que escribe en
// el canal, así el cierre no compite con un envío.
func (c *Client) closeSend() {
	close(c.send)
}

// controlFrame mensaje entrante del dispositivo para gestionar membresía.
type controlFrame struct {
	Accion string `json:"accion"` // "join" | "leave"
	Tipo   string `json:"tipo"`   // "proceso" | "usuario"
	ID     string `json:"id"`
}

// writePump drena send hacia la conexión con deadline por escritura y manda
// pings periódicos. Termina cuando el hub cierra send o falla una escritura.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump procesa frames de control (join/leave de topics) hasta que la
// conexión se cierre. Corre en la goroutine del handler.
func (c *Client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(readLimit)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var frame controlFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.hub.log.Debug().Str("usuario", c.userID).Msg("frame de control inválido")
			continue
		}
		topic := Topic{Kind: TopicKind(frame.Tipo), ID: frame.ID}
		if !topic.Valid() {
			continue
		}
		// Solo se puede entrar al topic personal propio.
		if topic.Kind == KindUsuario && topic.ID != c.userID {
			continue
		}
		switch frame.Accion {
		case "join":
			select {
			case c.hub.subscribe <- subscription{client: c, topic: topic}:
			case <-c.hub.done:
				return
			}
		case "leave":
			select {
			case c.hub.unsubscribe <- subscription{client: c, topic: topic}:
			case <-c.hub.done:
				return
			}
		}
	}
}
