package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/almatek/almacen-api/internal/application/auth"
	"github.com/almatek/almacen-api/internal/application/notify"
	"github.com/almatek/almacen-api/internal/application/transition"
	"github.com/almatek/almacen-api/internal/domain/entity"
	"github.com/almatek/almacen-api/internal/interfaces/ws"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC         *auth.AuthUseCase
	TransferUC     *transition.TransferUseCase
	PalletUC       *transition.PalletUseCase
	OrderUC        *transition.OrderUseCase
	NotificationUC *notify.NotificationUseCase
	Dispatcher     *notify.Dispatcher
	Hub            *ws.Hub
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (login público; logout requiere token)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/logout", AuthMiddleware(deps.AuthUC), authHandler.Logout)

	// Push websocket (token en query o header, validado antes del upgrade)
	app.Get("/ws", ws.Upgrade(deps.AuthUC), ws.Handler(deps.Hub))

	// Rutas protegidas (requieren Bearer Token con sesión viva)
	protected := api.Group("/", AuthMiddleware(deps.AuthUC))
	supervisor := RequireRole(entity.RoleSupervisor, entity.RoleAdmin)

	// Transfers (protegido)
	transfers := protected.Group("/transfers")
	transferHandler := NewTransferHandler(deps.TransferUC)
	transfers.Post("/move-pallet", transferHandler.MovePallet)
	transfers.Post("/articulos", transferHandler.CreateArticle)
	transfers.Get("/pendiente", transferHandler.Pending)
	transfers.Get("/", transferHandler.List)
	transfers.Post("/articulos/:id/finalizar", transferHandler.FinalizeArticle)
	transfers.Post("/:id/transito", transferHandler.StartTransit)
	transfers.Post("/:id/finalizar", transferHandler.FinalizePallet)
	transfers.Post("/:id/resultado-erp", supervisor, transferHandler.ResolveERP)
	transfers.Get("/:id", transferHandler.GetByID)

	// Pallets (protegido)
	pallets := protected.Group("/pallets")
	palletHandler := NewPalletHandler(deps.PalletUC)
	pallets.Post("/", palletHandler.Create)
	pallets.Post("/:id/cerrar", palletHandler.Close)
	pallets.Post("/:id/vaciar", palletHandler.Empty)
	pallets.Get("/:id", palletHandler.GetByID)

	// Orders (protegido; alta y gestión solo supervisor/admin)
	orders := protected.Group("/orders")
	orderHandler := NewOrderHandler(deps.OrderUC)
	orders.Post("/", supervisor, orderHandler.Create)
	orders.Get("/", orderHandler.ListMine)
	orders.Post("/:id/asignar", supervisor, orderHandler.Assign)
	orders.Post("/:id/empezar", orderHandler.Start)
	orders.Post("/:id/revisar", supervisor, orderHandler.Review)
	orders.Post("/:id/cancelar", supervisor, orderHandler.Cancel)
	orders.Post("/:id/lineas/:lineId/completar", orderHandler.CompleteLine)
	orders.Post("/:id/lineas/:lineId/desbloquear", supervisor, orderHandler.UnlockLine)
	orders.Get("/:id", orderHandler.GetByID)

	// Notifications (protegido)
	notifications := protected.Group("/notifications")
	notificationHandler := NewNotificationHandler(deps.NotificationUC, deps.Dispatcher)
	notifications.Post("/todas-leidas", notificationHandler.MarcarTodasLeidas)
	notifications.Post("/difusion", supervisor, notificationHandler.Difusion)
	notifications.Post("/:id/leida", notificationHandler.MarcarLeida)
	notifications.Delete("/:id", notificationHandler.Eliminar)
	notifications.Get("/:usuarioId/resumen", notificationHandler.Resumen)
	notifications.Get("/:usuarioId/contador", notificationHandler.Contador)
	notifications.Get("/:usuarioId", notificationHandler.Feed)
}
