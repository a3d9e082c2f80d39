package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/almatek/almacen-api/pkg/logger"
)

// Poller planifica los ciclos de los watchers registrados con specs @every de
// cron. Sustituye a los servicios "checker" singleton del cliente móvil: cada
// instancia es inyectable, cancelable y dueña de su propio estado.
type Poller struct {
	log *logger.Logger

	mu      sync.Mutex
	c       *cron.Cron
	runCtx  context.Context
	cancel  context.CancelFunc
	started bool
}

// New construye el poller.
func New(log *logger.Logger) *Poller {
	return &Poller{
		log: log,
		c:   cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor))),
	}
}

// Add registra un watcher con su intervalo. Los ciclos no se solapan por
// watcher: si uno sigue en curso cuando vence el siguiente, se salta el turno.
func (p *Poller) Add(interval time.Duration, w *Watcher) error {
	var running sync.Mutex
	_, err := p.c.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		if !running.TryLock() {
			p.log.Debug().Str("watcher", w.Name()).Msg("ciclo anterior aún en curso; se salta")
			return
		}
		defer running.Unlock()

		p.mu.Lock()
		ctx := p.runCtx
		p.mu.Unlock()
		if ctx == nil || ctx.Err() != nil {
			return
		}
		if err := w.Cycle(ctx); err != nil && ctx.Err() == nil {
			p.log.Warn().Err(err).Str("watcher", w.Name()).Msg("ciclo de sondeo falló; el conjunto conocido queda intacto")
		}
	})
	return err
}

// Start arranca la planificación. Cancelar ctx detiene los ciclos en curso.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.runCtx, p.cancel = context.WithCancel(ctx)
	p.started = true
	p.c.Start()
}

// Stop detiene la planificación y cancela los ciclos en curso. Los watchers
// quedan con su conjunto conocido consistente para un arranque futuro.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}
	p.cancel()
	p.c.Stop()
	p.started = false
}
