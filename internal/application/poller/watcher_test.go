package poller_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/almatek/almacen-api/internal/application/poller"
)

// fetcher programable: cada llamada consume la siguiente respuesta.
type scriptedFetch struct {
	mu        sync.Mutex
	responses [][]poller.Snapshot
	err       error
}

func (s *scriptedFetch) fetch(context.Context) ([]poller.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		err := s.err
		s.err = nil
		return nil, err
	}
	if len(s.responses) == 0 {
		return nil, nil
	}
	out := s.responses[0]
	if len(s.responses) > 1 {
		s.responses = s.responses[1:]
	}
	return out, nil
}

func collector() (*[]poller.Change, func(poller.Change)) {
	var mu sync.Mutex
	var changes []poller.Change
	return &changes, func(c poller.Change) {
		mu.Lock()
		defer mu.Unlock()
		changes = append(changes, c)
	}
}

// El primer ciclo siembra el conjunto conocido sin emitir nada: lo que ya
// existía al arrancar no es un cambio.
func TestWatcher_PrimerCicloSiembraSinEmitir(t *testing.T) {
	s := &scriptedFetch{responses: [][]poller.Snapshot{
		{{ID: "t1", State: "PENDING_ERP"}, {ID: "t2", State: "PENDING"}},
	}}
	changes, onChange := collector()
	w := poller.NewWatcher("traspasos:u1", s.fetch, poller.TransferEdges(), onChange)

	require.NoError(t, w.Cycle(context.Background()))
	assert.Empty(t, *changes)
	assert.Equal(t, 2, w.KnownLen())
}

func TestWatcher_DetectaMiembroNuevo(t *testing.T) {
	s := &scriptedFetch{responses: [][]poller.Snapshot{
		{{ID: "o1", State: "ASSIGNED"}},
		{{ID: "o1", State: "ASSIGNED"}, {ID: "o2", State: "ASSIGNED"}},
	}}
	changes, onChange := collector()
	w := poller.NewWatcher("ordenes:u1", s.fetch, nil, onChange)

	require.NoError(t, w.Cycle(context.Background()))
	require.NoError(t, w.Cycle(context.Background()))

	require.Len(t, *changes, 1)
	assert.Equal(t, "o2", (*changes)[0].ID)
	assert.Equal(t, poller.ChangeNew, (*changes)[0].Kind)
}

func TestWatcher_DetectaCruceDeArista(t *testing.T) {
	s := &scriptedFetch{responses: [][]poller.Snapshot{
		{{ID: "t1", State: "PENDING_ERP"}},
		{{ID: "t1", State: "ERROR_ERP"}},
	}}
	changes, onChange := collector()
	w := poller.NewWatcher("traspasos:u1", s.fetch, poller.TransferEdges(), onChange)

	require.NoError(t, w.Cycle(context.Background()))
	require.NoError(t, w.Cycle(context.Background()))

	require.Len(t, *changes, 1)
	c := (*changes)[0]
	assert.Equal(t, poller.ChangeEdge, c.Kind)
	assert.Equal(t, "PENDING_ERP", c.Previous)
	assert.Equal(t, "ERROR_ERP", c.Current)
}

// Un cambio de estado que no cruza ninguna arista vigilada no emite.
func TestWatcher_AristaNoVigiladaSeIgnora(t *testing.T) {
	s := &scriptedFetch{responses: [][]poller.Snapshot{
		{{ID: "t1", State: "PENDING"}},
		{{ID: "t1", State: "IN_TRANSIT"}},
	}}
	changes, onChange := collector()
	w := poller.NewWatcher("traspasos:u1", s.fetch, poller.TransferEdges(), onChange)

	require.NoError(t, w.Cycle(context.Background()))
	require.NoError(t, w.Cycle(context.Background()))
	assert.Empty(t, *changes,
		"PENDING → IN_TRANSIT no está entre las aristas vigiladas")
}

// Si el fetch falla, el conjunto conocido queda intacto y el siguiente ciclo
// bueno no re-emite lo ya conocido.
func TestWatcher_FalloDeFetchNoCorrompeElConjunto(t *testing.T) {
	s := &scriptedFetch{responses: [][]poller.Snapshot{
		{{ID: "t1", State: "PENDING_ERP"}},
	}}
	changes, onChange := collector()
	w := poller.NewWatcher("traspasos:u1", s.fetch, poller.TransferEdges(), onChange)

	require.NoError(t, w.Cycle(context.Background()))
	require.Equal(t, 1, w.KnownLen())

	s.mu.Lock()
	s.err = errors.New("backend no disponible")
	s.mu.Unlock()
	assert.Error(t, w.Cycle(context.Background()))
	assert.Equal(t, 1, w.KnownLen(), "el fallo no debe vaciar el conjunto conocido")

	require.NoError(t, w.Cycle(context.Background()))
	assert.Empty(t, *changes, "sin cambio real no hay emisión tras recuperarse")
}

// Contexto cancelado entre fetch y diff: no se aplica un diff parcial.
func TestWatcher_ContextoCanceladoNoAplicaDiff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &scriptedFetch{responses: [][]poller.Snapshot{
		{{ID: "t1", State: "PENDING_ERP"}},
	}}
	changes, onChange := collector()
	w := poller.NewWatcher("traspasos:u1", s.fetch, poller.TransferEdges(), onChange)

	cancel()
	assert.Error(t, w.Cycle(ctx))
	assert.Equal(t, 0, w.KnownLen())
	assert.Empty(t, *changes)
}

// Lo que sale del conjunto deja de vigilarse; si vuelve, cuenta como nuevo.
func TestWatcher_MiembroQueSaleYVuelve(t *testing.T) {
	s := &scriptedFetch{responses: [][]poller.Snapshot{
		{{ID: "t1", State: "PENDING_ERP"}},
		{},
		{{ID: "t1", State: "COMPLETED"}},
	}}
	changes, onChange := collector()
	w := poller.NewWatcher("traspasos:u1", s.fetch, poller.TransferEdges(), onChange)

	require.NoError(t, w.Cycle(context.Background()))
	require.NoError(t, w.Cycle(context.Background()))
	assert.Equal(t, 0, w.KnownLen())

	require.NoError(t, w.Cycle(context.Background()))
	require.Len(t, *changes, 1)
	assert.Equal(t, poller.ChangeNew, (*changes)[0].Kind,
		"al reaparecer no hay estado previo contra el que cruzar arista")
}
