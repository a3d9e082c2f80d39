package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/almatek/almacen-api/internal/domain"
	"github.com/almatek/almacen-api/internal/domain/entity"
	"github.com/almatek/almacen-api/internal/domain/repository"
)

var _ repository.TransferRepository = (*TransferRepo)(nil)

// TransferRepo implementación de TransferRepository sobre PostgreSQL (usable con pool o tx).
type TransferRepo struct {
	q Querier
}

// NewTransferRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

const transferColumns = `
	id, company_id, type, pallet_id, article_code, quantity,
	origin_wh, origin_loc, dest_wh, dest_loc, state,
	created_by, finalized_by, order_line_id, error_detail,
	created_at, finalized_at, resolved_at, updated_at`

// estados terminales para filtros de "traspaso abierto".
const terminalStates = `('COMPLETED','ERROR_ERP')`

// CreateGuarded inserta el traspaso solo si el palet no tiene ya uno abierto.
// El insert condicional corre en la misma unidad atómica que la comprobación y
// el índice único parcial uq_transfers_open_pallet respalda la carrera entre dos
// transacciones simultáneas: el perdedor recibe domain.ErrOpenTransfer.
func (r *TransferRepo) CreateGuarded(ctx context.Context, t *entity.Transfer) error {
	query := `
		INSERT INTO transfers (` + transferColumns + `)
		SELECT $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19
		WHERE NOT EXISTS (
			SELECT 1 FROM transfers
			WHERE pallet_id = $4 AND state NOT IN ` + terminalStates + `
		)`
	tag, err := r.q.Exec(ctx, query, r.insertArgs(t)...)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrOpenTransfer
		}
		return fmt.Errorf("create transfer guarded: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOpenTransfer
	}
	return nil
}

// Create inserta un traspaso sin guard (traspasos de artículo).
func (r *TransferRepo) Create(ctx context.Context, t *entity.Transfer) error {
	query := `
		INSERT INTO transfers (` + transferColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`
	if _, err := r.q.Exec(ctx, query, r.insertArgs(t)...); err != nil {
		return fmt.Errorf("create transfer: %w", err)
	}
	return nil
}

func (r *TransferRepo) insertArgs(t *entity.Transfer) []any {
	return []any{
		t.ID, t.CompanyID, t.Type, nullIfEmpty(t.PalletID), nullIfEmpty(t.ArticleCode), t.Quantity,
		t.OriginWH, t.OriginLoc, nullIfEmpty(t.DestWH), nullIfEmpty(t.DestLoc), t.State,
		t.CreatedBy, nullIfEmpty(t.FinalizedBy), nullIfEmpty(t.OrderLineID), nullIfEmpty(t.ErrorDetail),
		t.CreatedAt, t.FinalizedAt, t.ResolvedAt, t.UpdatedAt,
	}
}

// GetByID obtiene un traspaso por id. Devuelve nil sin error si no existe.
func (r *TransferRepo) GetByID(ctx context.Context, id string) (*entity.Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE id = $1`
	return scanTransfer(r.q.QueryRow(ctx, query, id))
}

// GetByIDForUpdate bloquea la fila (SELECT FOR UPDATE) para linearizar
// transiciones concurrentes sobre el mismo traspaso.
func (r *TransferRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE id = $1 FOR UPDATE`
	return scanTransfer(r.q.QueryRow(ctx, query, id))
}

// Update persiste el estado y los campos mutables del traspaso.
func (r *TransferRepo) Update(ctx context.Context, t *entity.Transfer) error {
	query := `
		UPDATE transfers
		SET state = $1, dest_wh = $2, dest_loc = $3, finalized_by = $4,
		    error_detail = $5, finalized_at = $6, resolved_at = $7, updated_at = $8
		WHERE id = $9`
	_, err := r.q.Exec(ctx, query,
		t.State, nullIfEmpty(t.DestWH), nullIfEmpty(t.DestLoc), nullIfEmpty(t.FinalizedBy),
		nullIfEmpty(t.ErrorDetail), t.FinalizedAt, t.ResolvedAt, t.UpdatedAt, t.ID,
	)
	if err != nil {
		return fmt.Errorf("update transfer: %w", err)
	}
	return nil
}

// FindOpenByPallet devuelve los traspasos no terminales que referencian al palet.
func (r *TransferRepo) FindOpenByPallet(ctx context.Context, palletID string) ([]*entity.Transfer, error) {
	query := `
		SELECT ` + transferColumns + ` FROM transfers
		WHERE pallet_id = $1 AND state NOT IN ` + terminalStates
	rows, err := r.q.Query(ctx, query, palletID)
	if err != nil {
		return nil, fmt.Errorf("find open by pallet: %w", err)
	}
	defer rows.Close()
	return scanTransfers(rows)
}

// FindPendingByUser devuelve el único traspaso PENDING pendiente del usuario, o nil.
func (r *TransferRepo) FindPendingByUser(ctx context.Context, userID string) (*entity.Transfer, error) {
	query := `
		SELECT ` + transferColumns + ` FROM transfers
		WHERE created_by = $1 AND state = 'PENDING'
		ORDER BY created_at DESC
		LIMIT 1`
	return scanTransfer(r.q.QueryRow(ctx, query, userID))
}

// FindByUserAndStates lista los traspasos del usuario en los estados dados.
func (r *TransferRepo) FindByUserAndStates(ctx context.Context, userID string, states []entity.TransferState) ([]*entity.Transfer, error) {
	ss := make([]string, 0, len(states))
	for _, s := range states {
		ss = append(ss, string(s))
	}
	query := `
		SELECT ` + transferColumns + ` FROM transfers
		WHERE (created_by = $1 OR finalized_by = $1) AND state = ANY($2)
		ORDER BY created_at DESC`
	rows, err := r.q.Query(ctx, query, userID, ss)
	if err != nil {
		return nil, fmt.Errorf("find by user and states: %w", err)
	}
	defer rows.Close()
	return scanTransfers(rows)
}

// LastCompletedDestination devuelve destino del último traspaso COMPLETED del palet.
func (r *TransferRepo) LastCompletedDestination(ctx context.Context, palletID string) (string, string, error) {
	query := `
		SELECT dest_wh, dest_loc FROM transfers
		WHERE pallet_id = $1 AND state = 'COMPLETED'
		ORDER BY resolved_at DESC
		LIMIT 1`
	var wh, loc *string
	err := r.q.QueryRow(ctx, query, palletID).Scan(&wh, &loc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", nil
		}
		return "", "", fmt.Errorf("last completed destination: %w", err)
	}
	return deref(wh), deref(loc), nil
}

func scanTransfer(row pgx.Row) (*entity.Transfer, error) {
	t, err := scanTransferRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transfer: %w", err)
	}
	return t, nil
}

func scanTransfers(rows pgx.Rows) ([]*entity.Transfer, error) {
	var out []*entity.Transfer
	for rows.Next() {
		t, err := scanTransferRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTransferRow(row pgx.Row) (*entity.Transfer, error) {
	var t entity.Transfer
	var palletID, articleCode, destWH, destLoc, finalizedBy, orderLineID, errorDetail *string
	err := row.Scan(
		&t.ID, &t.CompanyID, &t.Type, &palletID, &articleCode, &t.Quantity,
		&t.OriginWH, &t.OriginLoc, &destWH, &destLoc, &t.State,
		&t.CreatedBy, &finalizedBy, &orderLineID, &errorDetail,
		&t.CreatedAt, &t.FinalizedAt, &t.ResolvedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.PalletID = deref(palletID)
	t.ArticleCode = deref(articleCode)
	t.DestWH = deref(destWH)
	t.DestLoc = deref(destLoc)
	t.FinalizedBy = deref(finalizedBy)
	t.OrderLineID = deref(orderLineID)
	t.ErrorDetail = deref(errorDetail)
	return &t, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
