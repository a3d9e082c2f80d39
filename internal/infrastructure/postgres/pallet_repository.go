package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/almatek/almacen-api/internal/domain/entity"
	"github.com/almatek/almacen-api/internal/domain/repository"
)

var _ repository.PalletRepository = (*PalletRepo)(nil)

// PalletRepo implementación de PalletRepository sobre PostgreSQL (usable con pool o tx).
type PalletRepo struct {
	q Querier
}

// NewPalletRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPalletRepository(q Querier) *PalletRepo {
	return &PalletRepo{q: q}
}

const palletColumns = `
	id, company_id, code, state, warehouse, location, height, weight,
	opened_at, opened_by, closed_at, closed_by, emptied, emptied_at,
	created_at, updated_at`

// Create inserta un palet nuevo.
func (r *PalletRepo) Create(ctx context.Context, p *entity.Pallet) error {
	query := `
		INSERT INTO pallets (` + palletColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.CompanyID, p.Code, p.State, p.Warehouse, p.Location, p.Height, p.Weight,
		p.OpenedAt, p.OpenedBy, p.ClosedAt, nullIfEmpty(p.ClosedBy), p.Emptied, p.EmptiedAt,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create pallet: %w", err)
	}
	return nil
}

// GetByID obtiene un palet por id. Devuelve nil sin error si no existe.
func (r *PalletRepo) GetByID(ctx context.Context, id string) (*entity.Pallet, error) {
	query := `SELECT ` + palletColumns + ` FROM pallets WHERE id = $1`
	return r.scanOne(r.q.QueryRow(ctx, query, id))
}

// GetByCode obtiene un palet por código corto dentro de la empresa.
func (r *PalletRepo) GetByCode(ctx context.Context, companyID, code string) (*entity.Pallet, error) {
	query := `SELECT ` + palletColumns + ` FROM pallets WHERE company_id = $1 AND code = $2`
	return r.scanOne(r.q.QueryRow(ctx, query, companyID, code))
}

// UpdateState aplica el cambio de estado solo si la fila sigue en expected.
// Devuelve false si otra transición concurrente ganó la carrera.
func (r *PalletRepo) UpdateState(ctx context.Context, p *entity.Pallet, expected entity.PalletState) (bool, error) {
	query := `
		UPDATE pallets
		SET state = $1, closed_at = $2, closed_by = $3, emptied = $4, emptied_at = $5, updated_at = $6
		WHERE id = $7 AND state = $8`
	tag, err := r.q.Exec(ctx, query,
		p.State, p.ClosedAt, nullIfEmpty(p.ClosedBy), p.Emptied, p.EmptiedAt, p.UpdatedAt,
		p.ID, expected,
	)
	if err != nil {
		return false, fmt.Errorf("update pallet state: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateLocation registra el nuevo almacén/ubicación tras completarse un traspaso.
func (r *PalletRepo) UpdateLocation(ctx context.Context, id, warehouse, location string) error {
	query := `UPDATE pallets SET warehouse = $1, location = $2, updated_at = now() WHERE id = $3`
	_, err := r.q.Exec(ctx, query, warehouse, location, id)
	if err != nil {
		return fmt.Errorf("update pallet location: %w", err)
	}
	return nil
}

func (r *PalletRepo) scanOne(row pgx.Row) (*entity.Pallet, error) {
	var p entity.Pallet
	var closedBy *string
	err := row.Scan(
		&p.ID, &p.CompanyID, &p.Code, &p.State, &p.Warehouse, &p.Location, &p.Height, &p.Weight,
		&p.OpenedAt, &p.OpenedBy, &p.ClosedAt, &closedBy, &p.Emptied, &p.EmptiedAt,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get pallet: %w", err)
	}
	if closedBy != nil {
		p.ClosedBy = *closedBy
	}
	return &p, nil
}

// nullIfEmpty convierte "" en NULL para columnas opcionales.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
