package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/almatek/almacen-api/internal/application/poller"
	"github.com/almatek/almacen-api/internal/domain/entity"
	"github.com/almatek/almacen-api/internal/infrastructure/apiclient"
	"github.com/almatek/almacen-api/pkg/config"
	"github.com/almatek/almacen-api/pkg/logger"
)

// Agente de dispositivo: sondea el backend por HTTP y registra los cambios que
// afectan al usuario autenticado. Es el respaldo del push: aunque el websocket
// se caiga, los cruces PENDING_ERP → COMPLETED|ERROR_ERP y las órdenes recién
// asignadas acaban detectándose por diferencia entre ciclos.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})

	if cfg.Agent.Email == "" || cfg.Agent.Password == "" {
		log.Fatal().Msg("AGENT_EMAIL y AGENT_PASSWORD son requeridos")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	client := apiclient.New(cfg.Agent.APIURL)
	if err := client.Login(ctx, cfg.Agent.Email, cfg.Agent.Password, cfg.Agent.DeviceID); err != nil {
		log.Fatal().Err(err).Msg("login del agente")
	}
	log.Info().Str("usuario", client.UserID()).Str("api", cfg.Agent.APIURL).Msg("agente autenticado")

	onChange := func(watcher string) func(poller.Change) {
		return func(c poller.Change) {
			ev := log.Info().
				Str("watcher", watcher).
				Str("id", c.ID).
				Str("estado", c.Current)
			if c.Kind == poller.ChangeEdge {
				ev.Str("estadoAnterior", c.Previous)
			}
			ev.Msg("cambio detectado")
		}
	}

	transferStates := []string{
		string(entity.TransferPending),
		string(entity.TransferInTransit),
		string(entity.TransferPendingERP),
		string(entity.TransferCompleted),
		string(entity.TransferErrorERP),
	}
	transferWatcher := poller.NewWatcher(
		"traspasos:"+client.UserID(),
		func(ctx context.Context) ([]poller.Snapshot, error) {
			items, err := client.Transfers(ctx, transferStates)
			if err != nil {
				return nil, err
			}
			out := make([]poller.Snapshot, 0, len(items))
			for _, t := range items {
				out = append(out, poller.Snapshot{ID: t.ID, State: t.State})
			}
			return out, nil
		},
		poller.TransferEdges(),
		onChange("traspasos"),
	)

	orderFetcher := func(typ string) poller.Fetcher {
		states := []string{
			string(entity.OrderAssigned),
			string(entity.OrderInProgress),
			string(entity.OrderPendingReview),
		}
		return func(ctx context.Context) ([]poller.Snapshot, error) {
			items, err := client.Orders(ctx, []string{typ}, states)
			if err != nil {
				return nil, err
			}
			out := make([]poller.Snapshot, 0, len(items))
			for _, o := range items {
				out = append(out, poller.Snapshot{ID: o.ID, State: o.State})
			}
			return out, nil
		}
	}
	orderWatcher := poller.NewWatcher(
		"ordenes:"+client.UserID(),
		orderFetcher(string(entity.OrderTransfer)),
		nil,
		onChange("ordenes"),
	)
	countWatcher := poller.NewWatcher(
		"conteos:"+client.UserID(),
		orderFetcher(string(entity.OrderCount)),
		nil,
		onChange("conteos"),
	)

	p := poller.New(log)
	if err := p.Add(cfg.Poller.TransferInterval, transferWatcher); err != nil {
		log.Fatal().Err(err).Msg("registrar watcher de traspasos")
	}
	if err := p.Add(cfg.Poller.OrderInterval, orderWatcher); err != nil {
		log.Fatal().Err(err).Msg("registrar watcher de órdenes")
	}
	if err := p.Add(cfg.Poller.CountInterval, countWatcher); err != nil {
		log.Fatal().Err(err).Msg("registrar watcher de conteos")
	}

	p.Start(ctx)
	log.Info().
		Dur("traspasos", cfg.Poller.TransferInterval).
		Dur("ordenes", cfg.Poller.OrderInterval).
		Dur("conteos", cfg.Poller.CountInterval).
		Msg("sondeo arrancado")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, deteniendo sondeo...")
	p.Stop()
	log.Info().Msg("agente detenido")
}
