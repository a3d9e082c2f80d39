package poller

import (
	"context"
	"sync"
)

// Snapshot instantánea mínima de una entidad vigilada en un ciclo.
type Snapshot struct {
	ID    string
	State string
}

// ChangeKind clase de cambio detectado por el diff.
type ChangeKind int

const (
	// ChangeNew la entidad no estaba en el conjunto conocido del ciclo anterior.
	ChangeNew ChangeKind = iota
	// ChangeEdge la entidad cruzó una de las aristas de estado vigiladas.
	ChangeEdge
)

// Change un cambio detectado. Exactamente uno por miembro nuevo o arista cruzada.
type Change struct {
	ID       string
	Kind     ChangeKind
	Previous string
	Current  string
}

// Edge arista de estado vigilada (ej. PENDING_ERP → COMPLETED).
type Edge struct {
	From string
	To   string
}

// Fetcher obtiene el conjunto autoritativo actual filtrado por el predicado del
// watcher (órdenes asignadas al operario, traspasos abiertos del usuario, ...).
type Fetcher func(ctx context.Context) ([]Snapshot, error)

// Watcher mantiene el conjunto conocido de un predicado y sintetiza cambios por
// diferencia entre ciclos. Una sola implementación compartida por composición:
// cada instancia se parametriza con su Fetcher, sus aristas y su callback.
//
// El primer ciclo siembra el conjunto conocido sin emitir: al arrancar, lo ya
// existente no es un cambio. Los cruces de arista sí se detectan desde el
// segundo ciclo en adelante.
type Watcher struct {
	name     string
	fetch    Fetcher
	edges    []Edge
	onChange func(Change)

	mu     sync.Mutex
	known  map[string]string // id -> último estado observado
	primed bool
}

// NewWatcher construye un watcher. onChange se invoca una vez por cambio detectado.
func NewWatcher(name string, fetch Fetcher, edges []Edge, onChange func(Change)) *Watcher {
	return &Watcher{
		name:     name,
		fetch:    fetch,
		edges:    edges,
		onChange: onChange,
		known:    make(map[string]string),
	}
}

// Name nombre del watcher (logs y registro en el poller).
func (w *Watcher) Name() string { return w.name }

// Cycle ejecuta un ciclo: fetch, diff contra el conjunto conocido, emisión de
// cambios y reemplazo atómico de la instantánea. Si el fetch falla o el contexto
// se cancela, el conjunto conocido queda intacto para un ciclo futuro (nunca se
// aplica un diff parcial).
func (w *Watcher) Cycle(ctx context.Context) error {
	current, err := w.fetch(ctx)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	next := make(map[string]string, len(current))
	var changes []Change
	for _, s := range current {
		next[s.ID] = s.State
		prev, seen := w.known[s.ID]
		switch {
		case !seen:
			if w.primed {
				changes = append(changes, Change{ID: s.ID, Kind: ChangeNew, Current: s.State})
			}
		case prev != s.State:
			if w.watchedEdge(prev, s.State) {
				changes = append(changes, Change{ID: s.ID, Kind: ChangeEdge, Previous: prev, Current: s.State})
			}
		}
	}

	// Reemplazo completo: lo que salió del conjunto deja de vigilarse.
	w.known = next
	w.primed = true

	for _, c := range changes {
		w.onChange(c)
	}
	return nil
}

// KnownLen tamaño del conjunto conocido (tests y diagnóstico).
func (w *Watcher) KnownLen() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.known)
}

func (w *Watcher) watchedEdge(from, to string) bool {
	if len(w.edges) == 0 {
		return false
	}
	for _, e := range w.edges {
		if e.From == from && e.To == to {
			return true
		}
	}
	return false
}
