package transition_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/almatek/almacen-api/internal/application/dto"
	"github.com/almatek/almacen-api/internal/application/transition"
	"github.com/almatek/almacen-api/internal/domain"
	"github.com/almatek/almacen-api/internal/domain/entity"
)

const (
	testCompany  = "00000000-0000-0000-0000-0000000000c1"
	testOperario = "00000000-0000-0000-0000-0000000000u1"
)

type transferFixture struct {
	uc        *transition.TransferUseCase
	transfers *memTransfers
	pallets   *memPallets
	notifier  *recNotifier
}

func newTransferFixture() *transferFixture {
	transfers := newMemTransfers()
	pallets := newMemPallets()
	notifier := &recNotifier{}
	tx := &fakeTx{transfers: transfers, pallets: pallets}
	return &transferFixture{
		uc:        transition.NewTransferUseCase(tx, transfers, pallets, notifier),
		transfers: transfers,
		pallets:   pallets,
		notifier:  notifier,
	}
}

func (f *transferFixture) seedPallet(t *testing.T, state entity.PalletState) *entity.Pallet {
	t.Helper()
	p := &entity.Pallet{
		ID:        uuid.New().String(),
		CompanyID: testCompany,
		Code:      "PAL-001",
		State:     state,
		Warehouse: "ALM1",
		Location:  "A-01-01",
		OpenedBy:  testOperario,
		CreatedAt: time.Now(),
	}
	require.NoError(t, f.pallets.Create(context.Background(), p))
	return p
}

// ──────────────────────────────────────────────────────────────────────────────
// MovePallet
// ──────────────────────────────────────────────────────────────────────────────

// Flujo móvil: sin destino, el traspaso nace en PENDING con el origen tomado de
// la ubicación registrada del palet (nunca se movió antes).
func TestMovePallet_FlujoMovil_NaceEnPending(t *testing.T) {
	f := newTransferFixture()
	p := f.seedPallet(t, entity.PalletOpen)

	out, err := f.uc.MovePallet(context.Background(), testCompany, dto.MovePalletRequest{
		PalletID:  p.ID,
		UsuarioID: testOperario,
	})
	require.NoError(t, err)

	assert.Equal(t, entity.TransferPending, out.State)
	assert.Equal(t, "ALM1", out.OriginWH)
	assert.Equal(t, "A-01-01", out.OriginLoc)
	assert.Empty(t, out.DestWH, "el destino queda vacío hasta finalizar")

	eventos := f.notifier.all()
	require.Len(t, eventos, 1)
	assert.Equal(t, string(entity.TransferPending), eventos[0].CurrentState)
	assert.Contains(t, eventos[0].Recipients, testOperario)
}

// Flujo escritorio: con destino informado nace directamente en PENDING_ERP.
func TestMovePallet_FlujoEscritorio_NaceEnPendingERP(t *testing.T) {
	f := newTransferFixture()
	p := f.seedPallet(t, entity.PalletClosed)

	out, err := f.uc.MovePallet(context.Background(), testCompany, dto.MovePalletRequest{
		PalletID:      p.ID,
		UsuarioID:     testOperario,
		DestWarehouse: "ALM2",
		DestLocation:  "B-02-02",
	})
	require.NoError(t, err)

	assert.Equal(t, entity.TransferPendingERP, out.State)
	assert.Equal(t, "ALM2", out.DestWH)
	assert.NotNil(t, out.FinalizedAt)
}

// El flujo de escritorio exige el palet cerrado igual que la finalización en dos
// fases: con el palet OPEN no puede nacer un traspaso ya en PENDING_ERP, porque
// el ERP podría resolverlo COMPLETED con el palet aún abierto.
func TestMovePallet_FlujoEscritorio_PaletAbiertoRechazado(t *testing.T) {
	f := newTransferFixture()
	p := f.seedPallet(t, entity.PalletOpen)

	_, err := f.uc.MovePallet(context.Background(), testCompany, dto.MovePalletRequest{
		PalletID:      p.ID,
		UsuarioID:     testOperario,
		DestWarehouse: "ALM2",
		DestLocation:  "B-02-02",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	restantes, err := f.uc.ListByUserAndStates(context.Background(), testOperario, nil)
	require.NoError(t, err)
	assert.Empty(t, restantes, "el rechazo no debe dejar ningún traspaso creado")
}

// El origen es el destino del último traspaso COMPLETED del palet.
func TestMovePallet_OrigenDesdeUltimoCompletado(t *testing.T) {
	f := newTransferFixture()
	p := f.seedPallet(t, entity.PalletOpen)

	previo := &entity.Transfer{
		ID:        uuid.New().String(),
		CompanyID: testCompany,
		Type:      entity.TransferPallet,
		PalletID:  p.ID,
		State:     entity.TransferCompleted,
		DestWH:    "ALM9",
		DestLoc:   "Z-09-09",
		CreatedBy: testOperario,
	}
	require.NoError(t, f.transfers.Create(context.Background(), previo))

	out, err := f.uc.MovePallet(context.Background(), testCompany, dto.MovePalletRequest{
		PalletID:  p.ID,
		UsuarioID: testOperario,
	})
	require.NoError(t, err)
	assert.Equal(t, "ALM9", out.OriginWH)
	assert.Equal(t, "Z-09-09", out.OriginLoc)
}

// Guard de unicidad: con un traspaso abierto sobre el palet, el segundo intento
// recibe ErrOpenTransfer.
func TestMovePallet_SegundoIntentoRechazado(t *testing.T) {
	f := newTransferFixture()
	p := f.seedPallet(t, entity.PalletOpen)

	_, err := f.uc.MovePallet(context.Background(), testCompany, dto.MovePalletRequest{
		PalletID: p.ID, UsuarioID: testOperario,
	})
	require.NoError(t, err)

	_, err = f.uc.MovePallet(context.Background(), testCompany, dto.MovePalletRequest{
		PalletID: p.ID, UsuarioID: "otro-usuario",
	})
	assert.ErrorIs(t, err, domain.ErrOpenTransfer)
}

// Dos peticiones simultáneas sobre el mismo palet: exactamente una gana.
func TestMovePallet_CarreraConcurrente_UnSoloGanador(t *testing.T) {
	f := newTransferFixture()
	p := f.seedPallet(t, entity.PalletOpen)

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.uc.MovePallet(context.Background(), testCompany, dto.MovePalletRequest{
				PalletID: p.ID, UsuarioID: testOperario,
			})
		}(i)
	}
	wg.Wait()

	ganadores, perdedores := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ganadores++
		case assert.ErrorIs(t, err, domain.ErrOpenTransfer):
			perdedores++
		}
	}
	assert.Equal(t, 1, ganadores, "exactamente una petición debe crear el traspaso")
	assert.Equal(t, n-1, perdedores)
}

func TestMovePallet_PaletVaciadoRechazado(t *testing.T) {
	f := newTransferFixture()
	p := f.seedPallet(t, entity.PalletEmptied)

	_, err := f.uc.MovePallet(context.Background(), testCompany, dto.MovePalletRequest{
		PalletID: p.ID, UsuarioID: testOperario,
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestMovePallet_DestinoAMediasRechazado(t *testing.T) {
	f := newTransferFixture()
	p := f.seedPallet(t, entity.PalletOpen)

	_, err := f.uc.MovePallet(context.Background(), testCompany, dto.MovePalletRequest{
		PalletID: p.ID, UsuarioID: testOperario, DestWarehouse: "ALM2",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestMovePallet_PaletDeOtraEmpresaEsNotFound(t *testing.T) {
	f := newTransferFixture()
	p := f.seedPallet(t, entity.PalletOpen)

	_, err := f.uc.MovePallet(context.Background(), "otra-empresa", dto.MovePalletRequest{
		PalletID: p.ID, UsuarioID: testOperario,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Finalización en dos fases
// ──────────────────────────────────────────────────────────────────────────────

func TestFinalizePallet_RequierePaletCerrado(t *testing.T) {
	f := newTransferFixture()
	p := f.seedPallet(t, entity.PalletOpen)

	out, err := f.uc.MovePallet(context.Background(), testCompany, dto.MovePalletRequest{
		PalletID: p.ID, UsuarioID: testOperario,
	})
	require.NoError(t, err)

	_, err = f.uc.FinalizePallet(context.Background(), testCompany, out.ID, dto.FinalizeTransferRequest{
		DestWarehouse: "ALM2", DestLocation: "B-01-01", UsuarioID: testOperario,
	})
	assert.ErrorIs(t, err, domain.ErrValidation,
		"con el palet aún OPEN no se puede mandar al ERP")
}

func TestFinalizePallet_CaminoCompleto(t *testing.T) {
	f := newTransferFixture()
	p := f.seedPallet(t, entity.PalletOpen)

	out, err := f.uc.MovePallet(context.Background(), testCompany, dto.MovePalletRequest{
		PalletID: p.ID, UsuarioID: testOperario,
	})
	require.NoError(t, err)

	// Recogida y cierre del palet antes de finalizar.
	_, err = f.uc.StartTransit(context.Background(), testCompany, out.ID, testOperario)
	require.NoError(t, err)

	cerrado, err := f.pallets.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	cerrado.State = entity.PalletClosed
	_, err = f.pallets.UpdateState(context.Background(), cerrado, entity.PalletOpen)
	require.NoError(t, err)

	fin, err := f.uc.FinalizePallet(context.Background(), testCompany, out.ID, dto.FinalizeTransferRequest{
		DestWarehouse: "ALM2", DestLocation: "B-01-01", UsuarioID: testOperario,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.TransferPendingERP, fin.State)
	assert.Equal(t, testOperario, fin.FinalizedBy)
	assert.NotNil(t, fin.FinalizedAt)
}

func TestFinalizePallet_YaTerminalDevuelveAlreadyFinalized(t *testing.T) {
	f := newTransferFixture()
	previo := &entity.Transfer{
		ID:        uuid.New().String(),
		CompanyID: testCompany,
		Type:      entity.TransferPallet,
		PalletID:  uuid.New().String(),
		State:     entity.TransferCompleted,
		CreatedBy: testOperario,
	}
	require.NoError(t, f.transfers.Create(context.Background(), previo))

	_, err := f.uc.FinalizePallet(context.Background(), testCompany, previo.ID, dto.FinalizeTransferRequest{
		DestWarehouse: "ALM2", DestLocation: "B-01-01", UsuarioID: testOperario,
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyFinalized)
}

// ──────────────────────────────────────────────────────────────────────────────
// Resolución asíncrona del ERP
// ──────────────────────────────────────────────────────────────────────────────

func TestResolveERP_Completado_ActualizaUbicacionDelPalet(t *testing.T) {
	f := newTransferFixture()
	p := f.seedPallet(t, entity.PalletClosed)

	out, err := f.uc.MovePallet(context.Background(), testCompany, dto.MovePalletRequest{
		PalletID:      p.ID,
		UsuarioID:     testOperario,
		DestWarehouse: "ALM2",
		DestLocation:  "B-02-02",
	})
	require.NoError(t, err)

	res, err := f.uc.ResolveERP(context.Background(), out.ID, dto.ERPResultRequest{Outcome: "COMPLETED"})
	require.NoError(t, err)
	assert.Equal(t, entity.TransferCompleted, res.State)
	assert.NotNil(t, res.ResolvedAt)

	actualizado, err := f.pallets.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "ALM2", actualizado.Warehouse)
	assert.Equal(t, "B-02-02", actualizado.Location)
}

func TestResolveERP_Error_GuardaDetalleYEsDurable(t *testing.T) {
	f := newTransferFixture()
	p := f.seedPallet(t, entity.PalletClosed)

	out, err := f.uc.MovePallet(context.Background(), testCompany, dto.MovePalletRequest{
		PalletID:      p.ID,
		UsuarioID:     testOperario,
		DestWarehouse: "ALM2",
		DestLocation:  "B-02-02",
	})
	require.NoError(t, err)

	res, err := f.uc.ResolveERP(context.Background(), out.ID, dto.ERPResultRequest{
		Outcome: "ERROR_ERP", Detail: "ubicación destino bloqueada",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.TransferErrorERP, res.State)
	assert.Equal(t, "ubicación destino bloqueada", res.ErrorDetail)

	// Un segundo resultado sobre un traspaso ya resuelto se rechaza.
	_, err = f.uc.ResolveERP(context.Background(), out.ID, dto.ERPResultRequest{Outcome: "COMPLETED"})
	assert.ErrorIs(t, err, domain.ErrAlreadyFinalized)
}

func TestResolveERP_ResultadoDesconocidoRechazado(t *testing.T) {
	f := newTransferFixture()
	_, err := f.uc.ResolveERP(context.Background(), uuid.New().String(), dto.ERPResultRequest{Outcome: "OK"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas
// ──────────────────────────────────────────────────────────────────────────────

func TestPendingByUser_SinPendienteEsNotFound(t *testing.T) {
	f := newTransferFixture()
	_, err := f.uc.PendingByUser(context.Background(), testOperario)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPendingByUser_RecuperaElPendiente(t *testing.T) {
	f := newTransferFixture()
	p := f.seedPallet(t, entity.PalletOpen)

	out, err := f.uc.MovePallet(context.Background(), testCompany, dto.MovePalletRequest{
		PalletID: p.ID, UsuarioID: testOperario,
	})
	require.NoError(t, err)

	got, err := f.uc.PendingByUser(context.Background(), testOperario)
	require.NoError(t, err)
	assert.Equal(t, out.ID, got.ID)
}
