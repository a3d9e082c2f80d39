package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/almatek/almacen-api/internal/domain/entity"
	"github.com/almatek/almacen-api/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo implementación de OrderRepository sobre PostgreSQL (usable con pool o tx).
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

const orderColumns = `
	id, company_id, type, scope, scope_value, warehouse, assigned_to, state,
	created_by, created_at, assigned_at, closed_at, updated_at`

const lineColumns = `
	id, order_id, article_code, origin_loc, dest_loc,
	expected_qty, completed_qty, state, completed_by, completed_at, updated_at`

// Create inserta la cabecera y todas las líneas.
func (r *OrderRepo) Create(ctx context.Context, o *entity.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`
	_, err := r.q.Exec(ctx, query,
		o.ID, o.CompanyID, o.Type, o.Scope, o.ScopeValue, o.Warehouse,
		nullIfEmpty(o.AssignedTo), o.State, o.CreatedBy,
		o.CreatedAt, o.AssignedAt, o.ClosedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	lineQuery := `
		INSERT INTO order_lines (` + lineColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	for i := range o.Lines {
		l := &o.Lines[i]
		_, err := r.q.Exec(ctx, lineQuery,
			l.ID, l.OrderID, l.ArticleCode, nullIfEmpty(l.OriginLoc), nullIfEmpty(l.DestLoc),
			l.ExpectedQty, l.CompletedQty, l.State, nullIfEmpty(l.CompletedBy), l.CompletedAt, l.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("create order line: %w", err)
		}
	}
	return nil
}

// GetByID obtiene la orden con sus líneas. Devuelve nil sin error si no existe.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	return r.get(ctx, id, false)
}

// GetByIDForUpdate bloquea la cabecera (SELECT FOR UPDATE) para serializar
// transiciones y el auto-avance a PENDING_REVIEW.
func (r *OrderRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Order, error) {
	return r.get(ctx, id, true)
}

func (r *OrderRepo) get(ctx context.Context, id string, forUpdate bool) (*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	o, err := scanOrder(r.q.QueryRow(ctx, query, id))
	if err != nil || o == nil {
		return o, err
	}
	if err := r.loadLines(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *OrderRepo) loadLines(ctx context.Context, o *entity.Order) error {
	query := `SELECT ` + lineColumns + ` FROM order_lines WHERE order_id = $1 ORDER BY article_code, id`
	rows, err := r.q.Query(ctx, query, o.ID)
	if err != nil {
		return fmt.Errorf("load order lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.OrderLine
		var originLoc, destLoc, completedBy *string
		err := rows.Scan(
			&l.ID, &l.OrderID, &l.ArticleCode, &originLoc, &destLoc,
			&l.ExpectedQty, &l.CompletedQty, &l.State, &completedBy, &l.CompletedAt, &l.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("scan order line: %w", err)
		}
		l.OriginLoc = deref(originLoc)
		l.DestLoc = deref(destLoc)
		l.CompletedBy = deref(completedBy)
		o.Lines = append(o.Lines, l)
	}
	return rows.Err()
}

// UpdateState persiste el estado y los campos mutables de la cabecera.
func (r *OrderRepo) UpdateState(ctx context.Context, o *entity.Order) error {
	query := `
		UPDATE orders
		SET state = $1, assigned_to = $2, assigned_at = $3, closed_at = $4, updated_at = $5
		WHERE id = $6`
	_, err := r.q.Exec(ctx, query,
		o.State, nullIfEmpty(o.AssignedTo), o.AssignedAt, o.ClosedAt, o.UpdatedAt, o.ID,
	)
	if err != nil {
		return fmt.Errorf("update order state: %w", err)
	}
	return nil
}

// UpdateLine persiste una línea.
func (r *OrderRepo) UpdateLine(ctx context.Context, l *entity.OrderLine) error {
	query := `
		UPDATE order_lines
		SET state = $1, completed_qty = $2, completed_by = $3, completed_at = $4, updated_at = $5
		WHERE id = $6`
	_, err := r.q.Exec(ctx, query,
		l.State, l.CompletedQty, nullIfEmpty(l.CompletedBy), l.CompletedAt, l.UpdatedAt, l.ID,
	)
	if err != nil {
		return fmt.Errorf("update order line: %w", err)
	}
	return nil
}

// FindByAssignee lista órdenes (con líneas) por operario, tipos y estados.
func (r *OrderRepo) FindByAssignee(ctx context.Context, userID string, types []entity.OrderType, states []entity.OrderState) ([]*entity.Order, error) {
	ts := make([]string, 0, len(types))
	for _, t := range types {
		ts = append(ts, string(t))
	}
	ss := make([]string, 0, len(states))
	for _, s := range states {
		ss = append(ss, string(s))
	}
	query := `
		SELECT ` + orderColumns + ` FROM orders
		WHERE assigned_to = $1 AND type = ANY($2) AND state = ANY($3)
		ORDER BY created_at DESC`
	rows, err := r.q.Query(ctx, query, userID, ts, ss)
	if err != nil {
		return nil, fmt.Errorf("find by assignee: %w", err)
	}
	defer rows.Close()
	var out []*entity.Order
	for rows.Next() {
		o, err := scanOrderRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, o := range out {
		if err := r.loadLines(ctx, o); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func scanOrder(row pgx.Row) (*entity.Order, error) {
	o, err := scanOrderRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

func scanOrderRow(row pgx.Row) (*entity.Order, error) {
	var o entity.Order
	var assignedTo *string
	err := row.Scan(
		&o.ID, &o.CompanyID, &o.Type, &o.Scope, &o.ScopeValue, &o.Warehouse, &assignedTo, &o.State,
		&o.CreatedBy, &o.CreatedAt, &o.AssignedAt, &o.ClosedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.AssignedTo = deref(assignedTo)
	return &o, nil
}
