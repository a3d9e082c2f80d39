package transition_test

import (
	"context"
	"sort"
	"sync"

	"github.com/almatek/almacen-api/internal/application/transition"
	"github.com/almatek/almacen-api/internal/domain"
	"github.com/almatek/almacen-api/internal/domain/entity"
	"github.com/almatek/almacen-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dobles en memoria. Reproducen la semántica relevante de los adaptadores de
// PostgreSQL: el guard atómico de unicidad, el update condicional de palets y
// las lecturas por copia (lo leído no alias al almacén).
// ──────────────────────────────────────────────────────────────────────────────

type memTransfers struct {
	mu    sync.Mutex
	rows  map[string]*entity.Transfer
	order []string // ids en orden de inserción
}

func newMemTransfers() *memTransfers {
	return &memTransfers{rows: make(map[string]*entity.Transfer)}
}

func (m *memTransfers) CreateGuarded(_ context.Context, t *entity.Transfer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Misma regla que el índice único parcial: un solo traspaso abierto por palet.
	for _, existing := range m.rows {
		if existing.PalletID == t.PalletID && existing.State.Open() {
			return domain.ErrOpenTransfer
		}
	}
	m.insert(t)
	return nil
}

func (m *memTransfers) Create(_ context.Context, t *entity.Transfer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insert(t)
	return nil
}

func (m *memTransfers) insert(t *entity.Transfer) {
	cp := *t
	m.rows[t.ID] = &cp
	m.order = append(m.order, t.ID)
}

func (m *memTransfers) GetByID(_ context.Context, id string) (*entity.Transfer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (m *memTransfers) GetByIDForUpdate(ctx context.Context, id string) (*entity.Transfer, error) {
	return m.GetByID(ctx, id)
}

func (m *memTransfers) Update(_ context.Context, t *entity.Transfer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.rows[t.ID] = &cp
	return nil
}

func (m *memTransfers) FindOpenByPallet(_ context.Context, palletID string) ([]*entity.Transfer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Transfer
	for _, t := range m.rows {
		if t.PalletID == palletID && t.State.Open() {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memTransfers) FindPendingByUser(_ context.Context, userID string) (*entity.Transfer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Más reciente primero, como el ORDER BY created_at DESC del adaptador real.
	for i := len(m.order) - 1; i >= 0; i-- {
		t := m.rows[m.order[i]]
		if t.CreatedBy == userID && t.State == entity.TransferPending {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memTransfers) FindByUserAndStates(_ context.Context, userID string, states []entity.TransferState) ([]*entity.Transfer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wanted := make(map[entity.TransferState]bool, len(states))
	for _, s := range states {
		wanted[s] = true
	}
	var out []*entity.Transfer
	for _, id := range m.order {
		t := m.rows[id]
		if (t.CreatedBy == userID || t.FinalizedBy == userID) && (len(states) == 0 || wanted[t.State]) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memTransfers) LastCompletedDestination(_ context.Context, palletID string) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.order) - 1; i >= 0; i-- {
		t := m.rows[m.order[i]]
		if t.PalletID == palletID && t.State == entity.TransferCompleted {
			return t.DestWH, t.DestLoc, nil
		}
	}
	return "", "", nil
}

type memPallets struct {
	mu   sync.Mutex
	rows map[string]*entity.Pallet
}

func newMemPallets() *memPallets {
	return &memPallets{rows: make(map[string]*entity.Pallet)}
}

func (m *memPallets) Create(_ context.Context, p *entity.Pallet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.rows[p.ID] = &cp
	return nil
}

func (m *memPallets) GetByID(_ context.Context, id string) (*entity.Pallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *memPallets) GetByCode(_ context.Context, companyID, code string) (*entity.Pallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.rows {
		if p.CompanyID == companyID && p.Code == code {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memPallets) UpdateState(_ context.Context, p *entity.Pallet, expected entity.PalletState) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.rows[p.ID]
	if !ok || stored.State != expected {
		return false, nil
	}
	cp := *p
	m.rows[p.ID] = &cp
	return true, nil
}

func (m *memPallets) UpdateLocation(_ context.Context, id, warehouse, location string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.rows[id]; ok {
		p.Warehouse = warehouse
		p.Location = location
	}
	return nil
}

type memOrders struct {
	mu   sync.Mutex
	rows map[string]*entity.Order
}

func newMemOrders() *memOrders {
	return &memOrders{rows: make(map[string]*entity.Order)}
}

func copyOrder(o *entity.Order) *entity.Order {
	cp := *o
	cp.Lines = append([]entity.OrderLine(nil), o.Lines...)
	return &cp
}

func (m *memOrders) Create(_ context.Context, o *entity.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[o.ID] = copyOrder(o)
	return nil
}

func (m *memOrders) GetByID(_ context.Context, id string) (*entity.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	return copyOrder(o), nil
}

func (m *memOrders) GetByIDForUpdate(ctx context.Context, id string) (*entity.Order, error) {
	return m.GetByID(ctx, id)
}

func (m *memOrders) UpdateState(_ context.Context, o *entity.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.rows[o.ID]
	if !ok {
		return nil
	}
	lines := stored.Lines
	m.rows[o.ID] = copyOrder(o)
	m.rows[o.ID].Lines = lines
	return nil
}

func (m *memOrders) UpdateLine(_ context.Context, l *entity.OrderLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.rows[l.OrderID]
	if !ok {
		return nil
	}
	for i := range o.Lines {
		if o.Lines[i].ID == l.ID {
			o.Lines[i] = *l
		}
	}
	return nil
}

func (m *memOrders) FindByAssignee(_ context.Context, userID string, types []entity.OrderType, states []entity.OrderState) ([]*entity.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wantType := make(map[entity.OrderType]bool, len(types))
	for _, t := range types {
		wantType[t] = true
	}
	wantState := make(map[entity.OrderState]bool, len(states))
	for _, s := range states {
		wantState[s] = true
	}
	var out []*entity.Order
	for _, o := range m.rows {
		if o.AssignedTo == userID && wantType[o.Type] && wantState[o.State] {
			out = append(out, copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// fakeTx ejecuta los callbacks directamente sobre los dobles, sin transacción.
type fakeTx struct {
	transfers repository.TransferRepository
	pallets   repository.PalletRepository
	orders    repository.OrderRepository
}

func (f *fakeTx) RunTransfer(ctx context.Context, fn func(repository.TransferRepository, repository.PalletRepository) error) error {
	return fn(f.transfers, f.pallets)
}

func (f *fakeTx) RunOrder(ctx context.Context, fn func(repository.OrderRepository) error) error {
	return fn(f.orders)
}

// recNotifier acumula los eventos despachados.
type recNotifier struct {
	mu     sync.Mutex
	events []transition.Event
}

func (r *recNotifier) Dispatch(_ context.Context, ev transition.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recNotifier) all() []transition.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]transition.Event(nil), r.events...)
}
