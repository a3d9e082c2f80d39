package ws

import (
	"strings"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/almatek/almacen-api/internal/application/auth"
	"github.com/almatek/almacen-api/pkg/jwt"
)

// Upgrade valida el bearer ANTES de aceptar el upgrade: tras el handshake ya no
// se puede devolver un 401 limpio. Los dispositivos mandan el token en la query
// (?token=) porque no todos los clientes websocket permiten cabeceras.
func Upgrade(authUC *auth.AuthUseCase) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		token := c.Query("token")
		if token == "" {
			token = strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		}
		claims, err := authUC.ValidateToken(c.Context(), token)
		if err != nil {
			return fiber.ErrUnauthorized
		}
		c.Locals("claims", claims)
		return c.Next()
	}
}

// Handler atiende la conexión ya autenticada: registra el cliente en el hub,
// arranca el writePump y bloquea en el readPump hasta el cierre.
func Handler(hub *Hub) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		claims, ok := conn.Locals("claims").(*jwt.Claims)
		if !ok {
			conn.Close()
			return
		}
		client := newClient(hub, conn, claims.UserID, claims.CompanyID, claims.Role)
		if !hub.add(client) {
			// El hub ya paró: nadie entregaría ni daría de baja la conexión.
			conn.Close()
			return
		}
		go client.writePump()
		client.readPump()
	})
}
