package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/almatek/almacen-api/internal/application/auth"
	"github.com/almatek/almacen-api/internal/application/notify"
	"github.com/almatek/almacen-api/internal/application/transition"
	"github.com/almatek/almacen-api/internal/infrastructure/postgres"
	httpRouter "github.com/almatek/almacen-api/internal/interfaces/http"
	"github.com/almatek/almacen-api/internal/interfaces/ws"
	"github.com/almatek/almacen-api/pkg/config"
	"github.com/almatek/almacen-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	palletRepo := postgres.NewPalletRepository(pool)
	transferRepo := postgres.NewTransferRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	notificationRepo := postgres.NewNotificationRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	sessionRepo := postgres.NewSessionRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Hub de suscripciones push: una goroutine dueña de la membresía.
	hub := ws.NewHub(cfg.Hub, log)
	go hub.Run(ctx)

	// Dispatcher de notificaciones: persiste y publica tras cada commit.
	dispatcher := notify.NewDispatcher(notificationRepo, hub, log)
	go dispatcher.Run(ctx)

	transferUC := transition.NewTransferUseCase(txRunner, transferRepo, palletRepo, dispatcher)
	palletUC := transition.NewPalletUseCase(txRunner, palletRepo, dispatcher)
	orderUC := transition.NewOrderUseCase(txRunner, orderRepo, dispatcher)
	notificationUC := notify.NewNotificationUseCase(notificationRepo)
	authUC := auth.NewAuthUseCase(userRepo, sessionRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Almacén API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:         authUC,
		TransferUC:     transferUC,
		PalletUC:       palletUC,
		OrderUC:        orderUC,
		NotificationUC: notificationUC,
		Dispatcher:     dispatcher,
		Hub:            hub,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	// Corta hub, dispatcher y ciclos de sondeo en curso.
	stop()

	log.Info().Msg("aplicación detenida")
}
