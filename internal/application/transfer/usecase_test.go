package transfer_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Activos-api/internal/application/transfer"
	"github.com/jhoicas/Activos-api/internal/domain"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
	"github.com/jhoicas/Activos-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria
// ──────────────────────────────────────────────────────────────────────────────

type fakeDeviceRepo struct {
	mu      sync.Mutex
	devices map[string]*entity.Device
}

func newFakeDeviceRepo() *fakeDeviceRepo {
	return &fakeDeviceRepo{devices: make(map[string]*entity.Device)}
}

func (r *fakeDeviceRepo) put(d *entity.Device) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *d
	r.devices[d.ID] = &cp
}

func (r *fakeDeviceRepo) Create(d *entity.Device) error {
	r.put(d)
	return nil
}

func (r *fakeDeviceRepo) CreateBatch(devices []*entity.Device) error {
	for _, d := range devices {
		r.put(d)
	}
	return nil
}

func (r *fakeDeviceRepo) GetByID(id string) (*entity.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDeviceRepo) GetByIdentifier(identifier string) (*entity.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.devices {
		if d.Serial == identifier || d.MAC == identifier {
			cp := *d
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeDeviceRepo) ListByIdentifiers(identifiers []string) ([]*entity.Device, error) {
	var out []*entity.Device
	for _, id := range identifiers {
		if d, _ := r.GetByIdentifier(id); d != nil {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *fakeDeviceRepo) ExistingSerials(serials []string) ([]string, error) {
	var out []string
	for _, s := range serials {
		if d, _ := r.GetByIdentifier(s); d != nil {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeDeviceRepo) UpdateVersioned(d *entity.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.devices[d.ID]
	if !ok || current.Version != d.Version {
		return domain.ErrConflict
	}
	cp := *d
	cp.Version++
	r.devices[d.ID] = &cp
	return nil
}

func (r *fakeDeviceRepo) MoveToWarehouse(ids []string, warehouseID, actorID string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, id := range ids {
		d, ok := r.devices[id]
		if !ok {
			continue
		}
		d.WarehouseID = warehouseID
		d.WarehouseUpdatedAt = &at
		d.WarehouseUpdatedBy = actorID
		if d.QCStatus == "SOLD" {
			d.QCStatus = entity.QCStatusPass
		}
		n++
	}
	return n, nil
}

type fakeWarehouseRepo struct {
	warehouses map[string]*entity.Warehouse
}

func newFakeWarehouseRepo(ws ...*entity.Warehouse) *fakeWarehouseRepo {
	r := &fakeWarehouseRepo{warehouses: make(map[string]*entity.Warehouse)}
	for _, w := range ws {
		r.warehouses[w.ID] = w
	}
	return r
}

func (r *fakeWarehouseRepo) Create(w *entity.Warehouse) error {
	r.warehouses[w.ID] = w
	return nil
}

func (r *fakeWarehouseRepo) GetByID(id string) (*entity.Warehouse, error) {
	return r.warehouses[id], nil
}

func (r *fakeWarehouseRepo) GetByCode(code string) (*entity.Warehouse, error) {
	for _, w := range r.warehouses {
		if w.Code == code && w.Active {
			return w, nil
		}
	}
	return nil, nil
}

func (r *fakeWarehouseRepo) List(limit, offset int) ([]*entity.Warehouse, error) {
	var out []*entity.Warehouse
	for _, w := range r.warehouses {
		out = append(out, w)
	}
	return out, nil
}

type fakeRuleRepo struct {
	rules []*entity.TransitionRule
}

func (r *fakeRuleRepo) Create(rule *entity.TransitionRule) error {
	r.rules = append(r.rules, rule)
	return nil
}

func (r *fakeRuleRepo) FindActive(fromWarehouseID *string, toWarehouseID string) (*entity.TransitionRule, error) {
	for _, rule := range r.rules {
		if !rule.Active || rule.ToWarehouseID != toWarehouseID {
			continue
		}
		if rule.FromWarehouseID == nil && fromWarehouseID == nil {
			return rule, nil
		}
		if rule.FromWarehouseID != nil && fromWarehouseID != nil && *rule.FromWarehouseID == *fromWarehouseID {
			return rule, nil
		}
	}
	return nil, nil
}

func (r *fakeRuleRepo) ListActive() ([]*entity.TransitionRule, error) {
	return r.rules, nil
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	entries []*entity.DeviceHistory
}

func (r *fakeHistoryRepo) Create(h *entity.DeviceHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, h)
	return nil
}

func (r *fakeHistoryRepo) CreateBatch(hs []*entity.DeviceHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, hs...)
	return nil
}

func (r *fakeHistoryRepo) ListByDevice(deviceID string, limit, offset int) ([]*entity.DeviceHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.DeviceHistory
	for _, h := range r.entries {
		if h.DeviceID == deviceID {
			out = append(out, h)
		}
	}
	return out, nil
}

// fakeTxRunner pasa los mismos fakes a la función; no hay transacción real.
type fakeTxRunner struct {
	deviceRepo  *fakeDeviceRepo
	historyRepo *fakeHistoryRepo
}

func (t *fakeTxRunner) Run(ctx context.Context, fn func(
	deviceRepo repository.DeviceRepository,
	historyRepo repository.DeviceHistoryRepository,
) error) error {
	return fn(t.deviceRepo, t.historyRepo)
}

// ──────────────────────────────────────────────────────────────────────────────
// Armado de escenario
// ──────────────────────────────────────────────────────────────────────────────

type transferFixture struct {
	uc        *transfer.TransferUseCase
	devices   *fakeDeviceRepo
	histories *fakeHistoryRepo
	rules     *fakeRuleRepo

	pendingQC *entity.Warehouse
	ready     *entity.Warehouse
	defect    *entity.Warehouse
	removed   *entity.Warehouse
	sold      *entity.Warehouse
}

func newTransferFixture(t *testing.T, withSold bool) *transferFixture {
	t.Helper()
	f := &transferFixture{
		devices:   newFakeDeviceRepo(),
		histories: &fakeHistoryRepo{},
		rules:     &fakeRuleRepo{},
		pendingQC: &entity.Warehouse{ID: "wh-pending", Code: entity.WarehouseCodePendingQC, Active: true},
		ready:     &entity.Warehouse{ID: "wh-ready", Code: entity.WarehouseCodeReadyToExport, Active: true},
		defect:    &entity.Warehouse{ID: "wh-defect", Code: entity.WarehouseCodeDefect, Active: true},
		removed:   &entity.Warehouse{ID: "wh-removed", Code: entity.WarehouseCodeRemoved, Active: true},
		sold:      &entity.Warehouse{ID: "wh-sold", Code: entity.WarehouseCodeSold, Active: true},
	}
	ws := []*entity.Warehouse{f.pendingQC, f.ready, f.defect, f.removed}
	if withSold {
		ws = append(ws, f.sold)
	}
	warehouses := newFakeWarehouseRepo(ws...)

	// Grafo sembrado: PENDING_QC→READY (QC_PASS), PENDING_QC→DEFECT (QC_FAIL),
	// DEFECT→REMOVED (SCRAP), READY→SOLD (EXPORT)
	f.rules.rules = []*entity.TransitionRule{
		{ID: "r1", FromWarehouseID: &f.pendingQC.ID, ToWarehouseID: f.ready.ID, Kind: entity.TransitionKindQCPass, Active: true},
		{ID: "r2", FromWarehouseID: &f.pendingQC.ID, ToWarehouseID: f.defect.ID, Kind: entity.TransitionKindQCFail, Active: true},
		{ID: "r3", FromWarehouseID: &f.defect.ID, ToWarehouseID: f.removed.ID, Kind: entity.TransitionKindScrap, Active: true},
		{ID: "r4", FromWarehouseID: &f.ready.ID, ToWarehouseID: f.sold.ID, Kind: entity.TransitionKindExport, Active: true},
	}

	txRunner := &fakeTxRunner{deviceRepo: f.devices, historyRepo: f.histories}
	f.uc = transfer.NewTransferUseCase(txRunner, f.devices, warehouses, f.rules, f.histories)
	return f
}

func (f *transferFixture) seedDevice(id, warehouseID string) {
	f.devices.put(&entity.Device{
		ID:          id,
		Serial:      "SN-" + id,
		MAC:         "MAC-" + id,
		Model:       "CAM-100",
		WarehouseID: warehouseID,
		QCStatus:    entity.QCStatusPending,
		Version:     1,
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Transfer
// ──────────────────────────────────────────────────────────────────────────────

// Mismo destino que el origen: no-op idempotente, sin historial.
func TestTransfer_MismaBodega_NoOpSinHistorial(t *testing.T) {
	f := newTransferFixture(t, true)
	f.seedDevice("d1", f.pendingQC.ID)

	dev, err := f.uc.Transfer(context.Background(), transfer.TransferInput{
		DeviceID: "d1", ToWarehouseID: f.pendingQC.ID, ActorID: "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, f.pendingQC.ID, dev.WarehouseID)
	assert.Equal(t, 1, dev.Version, "un no-op no debe incrementar la versión")
	assert.Empty(t, f.histories.entries, "un no-op no debe escribir historial")
}

func TestTransfer_DispositivoInexistente_NotFound(t *testing.T) {
	f := newTransferFixture(t, true)

	_, err := f.uc.Transfer(context.Background(), transfer.TransferInput{
		DeviceID: "no-existe", ToWarehouseID: f.ready.ID,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// Sin regla activa para la arista: se rechaza sin mutar el dispositivo.
func TestTransfer_SinRegla_RechazaSinMutar(t *testing.T) {
	f := newTransferFixture(t, true)
	f.seedDevice("d1", f.pendingQC.ID)

	// PENDING_QC → REMOVED no está en el grafo
	_, err := f.uc.Transfer(context.Background(), transfer.TransferInput{
		DeviceID: "d1", ToWarehouseID: f.removed.ID, ActorID: "user-1",
	})
	require.ErrorIs(t, err, domain.ErrTransferRuleNotFound)
	assert.Contains(t, err.Error(), entity.WarehouseCodePendingQC)
	assert.Contains(t, err.Error(), entity.WarehouseCodeRemoved)

	stored, _ := f.devices.GetByID("d1")
	assert.Equal(t, f.pendingQC.ID, stored.WarehouseID, "el dispositivo no debe moverse")
	assert.Empty(t, f.histories.entries)
}

// QC_PASS: marca el dispositivo como PASS y escribe una entrada de historial.
func TestTransfer_QCPass_MarcaPassYEscribeHistorial(t *testing.T) {
	f := newTransferFixture(t, true)
	f.seedDevice("d1", f.pendingQC.ID)

	dev, err := f.uc.Transfer(context.Background(), transfer.TransferInput{
		DeviceID: "d1", ToWarehouseID: f.ready.ID, ActorID: "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.QCStatusPass, dev.QCStatus)
	assert.Equal(t, f.ready.ID, dev.WarehouseID)
	assert.Equal(t, "user-1", dev.WarehouseUpdatedBy)
	assert.NotNil(t, dev.WarehouseUpdatedAt)
	assert.Equal(t, 2, dev.Version, "el traslado incrementa la versión")

	require.Len(t, f.histories.entries, 1)
	h := f.histories.entries[0]
	assert.Equal(t, entity.TransitionKindQCPass, h.Kind)
	assert.Equal(t, "Traslado manual", h.Note, "sin nota ni razón aplica la nota por defecto")
	require.NotNil(t, h.FromWarehouseID)
	assert.Equal(t, f.pendingQC.ID, *h.FromWarehouseID)
}

// QC_FAIL con razón: marca FAIL, guarda la nota de QC y sintetiza la nota de error.
func TestTransfer_QCFail_GuardaNotaDeError(t *testing.T) {
	f := newTransferFixture(t, true)
	f.seedDevice("d1", f.pendingQC.ID)

	dev, err := f.uc.Transfer(context.Background(), transfer.TransferInput{
		DeviceID: "d1", ToWarehouseID: f.defect.ID, ActorID: "user-1",
		ErrorReason: "lente rayado",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.QCStatusFail, dev.QCStatus)
	assert.Equal(t, "lente rayado", dev.QCNote)

	require.Len(t, f.histories.entries, 1)
	assert.Equal(t, "Error: lente rayado", f.histories.entries[0].Note)
}

// Una regla con allowed_roles solo admite actores que tengan alguno de ellos;
// sin roles configurados admite a cualquiera.
func TestTransfer_RolesDeLaRegla(t *testing.T) {
	f := newTransferFixture(t, true)
	f.seedDevice("d1", f.pendingQC.ID)
	f.rules.rules[0].AllowedRoles = []string{"bodeguero"}

	_, err := f.uc.Transfer(context.Background(), transfer.TransferInput{
		DeviceID: "d1", ToWarehouseID: f.ready.ID, ActorID: "user-1",
		Roles: []string{"vendedor"},
	})
	require.ErrorIs(t, err, domain.ErrForbidden)
	assert.Empty(t, f.histories.entries)

	_, err = f.uc.Transfer(context.Background(), transfer.TransferInput{
		DeviceID: "d1", ToWarehouseID: f.ready.ID, ActorID: "user-1",
		Roles: []string{"bodeguero", "vendedor"},
	})
	assert.NoError(t, err)
}

// Destino REMOVED: registra razón y fecha de baja.
func TestTransfer_DestinoRemoved_RegistraBaja(t *testing.T) {
	f := newTransferFixture(t, true)
	f.seedDevice("d1", f.defect.ID)

	dev, err := f.uc.Transfer(context.Background(), transfer.TransferInput{
		DeviceID: "d1", ToWarehouseID: f.removed.ID, ActorID: "user-1",
		ErrorReason: "irreparable",
	})
	require.NoError(t, err)
	assert.Equal(t, "irreparable", dev.RemoveReason)
	assert.NotNil(t, dev.RemoveDate)
}

// ──────────────────────────────────────────────────────────────────────────────
// BulkTransfer
// ──────────────────────────────────────────────────────────────────────────────

// El fallo de unos dispositivos no impide el éxito de los demás.
func TestBulkTransfer_FalloParcial(t *testing.T) {
	f := newTransferFixture(t, true)
	// Tres válidos en PENDING_QC, uno en DEFECT (sin regla hacia READY), uno inexistente
	f.seedDevice("d1", f.pendingQC.ID)
	f.seedDevice("d2", f.pendingQC.ID)
	f.seedDevice("d3", f.pendingQC.ID)
	f.seedDevice("d4", f.defect.ID)

	res := f.uc.BulkTransfer(context.Background(),
		[]string{"d1", "d2", "d3", "d4", "d5"}, f.ready.ID, "user-1", nil, "", "")

	assert.ElementsMatch(t, []string{"d1", "d2", "d3"}, res.Success)
	require.Len(t, res.Errors, 2)
	ids := []string{res.Errors[0].ID, res.Errors[1].ID}
	assert.ElementsMatch(t, []string{"d4", "d5"}, ids)
	assert.Len(t, f.histories.entries, 3, "una entrada de historial por traslado exitoso")
}

// ──────────────────────────────────────────────────────────────────────────────
// MoveToSold
// ──────────────────────────────────────────────────────────────────────────────

// Bodega SOLD ausente: error fatal de configuración, no por dispositivo.
func TestMoveToSold_SinBodegaSold_ErrorDeConfiguracion(t *testing.T) {
	f := newTransferFixture(t, false)
	f.seedDevice("d1", f.ready.ID)

	_, err := f.uc.MoveToSold(context.Background(), []string{"MAC-d1"}, "EXP-001", "user-1")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

// Mueve por MAC, omite los ya vendidos y normaliza qc_status SOLD a PASS.
func TestMoveToSold_MueveYNormaliza(t *testing.T) {
	f := newTransferFixture(t, true)
	f.seedDevice("d1", f.ready.ID)
	f.seedDevice("d2", f.ready.ID)
	f.seedDevice("d3", f.sold.ID) // ya vendido: debe omitirse

	// qc_status extraviado con valor de bodega
	d2, _ := f.devices.GetByID("d2")
	d2.QCStatus = "SOLD"
	f.devices.put(d2)

	moved, err := f.uc.MoveToSold(context.Background(),
		[]string{"MAC-d1", "MAC-d2", "MAC-d3"}, "EXP-001", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, moved)

	d1, _ := f.devices.GetByID("d1")
	assert.Equal(t, f.sold.ID, d1.WarehouseID)

	d2, _ = f.devices.GetByID("d2")
	assert.Equal(t, entity.QCStatusPass, d2.QCStatus, "qc_status SOLD se normaliza a PASS")

	require.Len(t, f.histories.entries, 2)
	for _, h := range f.histories.entries {
		assert.Equal(t, entity.TransitionKindExport, h.Kind)
		assert.Equal(t, "Exportación EXP-001", h.Note)
	}
}

func TestMoveToSold_SinCandidatos_CeroSinError(t *testing.T) {
	f := newTransferFixture(t, true)
	f.seedDevice("d1", f.sold.ID)

	moved, err := f.uc.MoveToSold(context.Background(), []string{"MAC-d1"}, "EXP-001", "user-1")
	require.NoError(t, err)
	assert.Zero(t, moved)
	assert.Empty(t, f.histories.entries)
}

// ──────────────────────────────────────────────────────────────────────────────
// HistoryByDevice
// ──────────────────────────────────────────────────────────────────────────────

func TestHistoryByDevice_DispositivoInexistente_NotFound(t *testing.T) {
	f := newTransferFixture(t, true)

	_, err := f.uc.HistoryByDevice(context.Background(), "no-existe", 20, 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHistoryByDevice_DevuelveSoloElDispositivo(t *testing.T) {
	f := newTransferFixture(t, true)
	f.seedDevice("d1", f.pendingQC.ID)
	f.seedDevice("d2", f.pendingQC.ID)

	_, err := f.uc.Transfer(context.Background(), transfer.TransferInput{DeviceID: "d1", ToWarehouseID: f.ready.ID})
	require.NoError(t, err)
	_, err = f.uc.Transfer(context.Background(), transfer.TransferInput{DeviceID: "d2", ToWarehouseID: f.ready.ID})
	require.NoError(t, err)

	hs, err := f.uc.HistoryByDevice(context.Background(), "d1", 20, 0)
	require.NoError(t, err)
	require.Len(t, hs, 1)
	assert.Equal(t, "d1", hs[0].DeviceID)
}
