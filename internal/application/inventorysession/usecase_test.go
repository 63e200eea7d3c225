package inventorysession_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Activos-api/internal/application/inventorysession"
	"github.com/jhoicas/Activos-api/internal/domain"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
	"github.com/jhoicas/Activos-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria
// ──────────────────────────────────────────────────────────────────────────────

type fakeDeviceRepo struct {
	devices map[string]*entity.Device // por serial
}

func newFakeDeviceRepo() *fakeDeviceRepo {
	return &fakeDeviceRepo{devices: make(map[string]*entity.Device)}
}

func (r *fakeDeviceRepo) snapshot() map[string]*entity.Device {
	cp := make(map[string]*entity.Device, len(r.devices))
	for k, v := range r.devices {
		d := *v
		cp[k] = &d
	}
	return cp
}

func (r *fakeDeviceRepo) Create(d *entity.Device) error {
	if _, ok := r.devices[d.Serial]; ok {
		return fmt.Errorf("%w: serial %s", domain.ErrDuplicateScan, d.Serial)
	}
	r.devices[d.Serial] = d
	return nil
}

func (r *fakeDeviceRepo) CreateBatch(devices []*entity.Device) error {
	for _, d := range devices {
		if err := r.Create(d); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeDeviceRepo) GetByID(id string) (*entity.Device, error) {
	for _, d := range r.devices {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, nil
}

func (r *fakeDeviceRepo) GetByIdentifier(identifier string) (*entity.Device, error) {
	for _, d := range r.devices {
		if d.Serial == identifier || d.MAC == identifier {
			return d, nil
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
		if _, ok := r.devices[s]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeDeviceRepo) UpdateVersioned(d *entity.Device) error { return nil }

func (r *fakeDeviceRepo) MoveToWarehouse(ids []string, warehouseID, actorID string, at time.Time) (int64, error) {
	return 0, nil
}

type fakeImportRepo struct {
	imports            map[string]*entity.DeviceImport
	failUpdateProgress error
}

func newFakeImportRepo() *fakeImportRepo {
	return &fakeImportRepo{imports: make(map[string]*entity.DeviceImport)}
}

func (r *fakeImportRepo) snapshot() map[string]*entity.DeviceImport {
	cp := make(map[string]*entity.DeviceImport, len(r.imports))
	for k, v := range r.imports {
		imp := *v
		imp.Products = append([]entity.ImportProduct(nil), v.Products...)
		cp[k] = &imp
	}
	return cp
}

func (r *fakeImportRepo) Create(imp *entity.DeviceImport) error {
	r.imports[imp.ID] = imp
	return nil
}

func (r *fakeImportRepo) GetByID(id string) (*entity.DeviceImport, error) {
	imp, ok := r.imports[id]
	if !ok {
		return nil, nil
	}
	cp := *imp
	cp.Products = append([]entity.ImportProduct(nil), imp.Products...)
	return &cp, nil
}

func (r *fakeImportRepo) UpdateProgress(id string, serialImported int, inventoryStatus string, productCounts map[string]int) error {
	if r.failUpdateProgress != nil {
		return r.failUpdateProgress
	}
	imp, ok := r.imports[id]
	if !ok {
		return fmt.Errorf("%w: importación %s", domain.ErrNotFound, id)
	}
	imp.SerialImported = serialImported
	imp.InventoryStatus = inventoryStatus
	for i := range imp.Products {
		imp.Products[i].SerialImported += productCounts[imp.Products[i].ProductCode]
	}
	return nil
}

func (r *fakeImportRepo) Complete(id, actorID string) error {
	imp, ok := r.imports[id]
	if !ok {
		return fmt.Errorf("%w: importación %s", domain.ErrNotFound, id)
	}
	imp.InventoryStatus = entity.InventoryStatusCompleted
	imp.CompletedBy = actorID
	return nil
}

type fakeSessionRepo struct {
	sessions map[string]*entity.InventorySession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*entity.InventorySession)}
}

func (r *fakeSessionRepo) snapshot() map[string]*entity.InventorySession {
	cp := make(map[string]*entity.InventorySession, len(r.sessions))
	for k, v := range r.sessions {
		s := *v
		s.Details = append([]entity.InventorySessionDetail(nil), v.Details...)
		cp[k] = &s
	}
	return cp
}

func (r *fakeSessionRepo) Create(s *entity.InventorySession) error {
	cp := *s
	cp.Details = append([]entity.InventorySessionDetail(nil), s.Details...)
	r.sessions[s.ID] = &cp
	return nil
}

func (r *fakeSessionRepo) GetByID(id string) (*entity.InventorySession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	cp.Details = append([]entity.InventorySessionDetail(nil), s.Details...)
	return &cp, nil
}

func (r *fakeSessionRepo) ListByImport(importID string) ([]*entity.InventorySession, error) {
	var out []*entity.InventorySession
	for _, s := range r.sessions {
		if s.ImportID == importID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) AppendDetails(sessionID string, details []entity.InventorySessionDetail) error {
	s, ok := r.sessions[sessionID]
	if !ok {
		return fmt.Errorf("%w: sesión %s", domain.ErrNotFound, sessionID)
	}
	for _, d := range details {
		if s.HasSerial(d.Serial) {
			return fmt.Errorf("%w: serial %s", domain.ErrDuplicateScan, d.Serial)
		}
		s.Details = append(s.Details, d)
	}
	s.TotalScanned = len(s.Details)
	return nil
}

func (r *fakeSessionRepo) UpdateInfo(sessionID, name, note string) error {
	s, ok := r.sessions[sessionID]
	if !ok {
		return fmt.Errorf("%w: sesión %s", domain.ErrNotFound, sessionID)
	}
	s.Name = name
	s.Note = note
	return nil
}

func (r *fakeSessionRepo) Complete(sessionID, actorID string, at time.Time) error {
	s, ok := r.sessions[sessionID]
	if !ok || s.Status != entity.InventorySessionProcessing {
		return fmt.Errorf("%w: sesión %s no está en curso", domain.ErrConflict, sessionID)
	}
	s.Status = entity.InventorySessionCompleted
	s.CompletedBy = actorID
	s.CompletedAt = &at
	return nil
}

type fakeWarehouseRepo struct {
	warehouses map[string]*entity.Warehouse
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

func (r *fakeWarehouseRepo) List(limit, offset int) ([]*entity.Warehouse, error) { return nil, nil }

type fakeCategoryRepo struct {
	categories []*entity.Category
}

func (r *fakeCategoryRepo) Create(c *entity.Category) error {
	r.categories = append(r.categories, c)
	return nil
}

func (r *fakeCategoryRepo) GetByID(id string) (*entity.Category, error) {
	for _, c := range r.categories {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

func (r *fakeCategoryRepo) GetByProductType(productType string) (*entity.Category, error) {
	for _, c := range r.categories {
		if c.ProductType == productType {
			return c, nil
		}
	}
	return nil, nil
}

// fakeTxRunner emula la semántica transaccional tomando un snapshot de los
// tres almacenes antes de ejecutar y restaurándolo si la función falla.
type fakeTxRunner struct {
	deviceRepo  *fakeDeviceRepo
	importRepo  *fakeImportRepo
	sessionRepo *fakeSessionRepo
}

func (t *fakeTxRunner) RunInventory(ctx context.Context, fn func(
	deviceRepo repository.DeviceRepository,
	importRepo repository.DeviceImportRepository,
	sessionRepo repository.InventorySessionRepository,
) error) error {
	devices := t.deviceRepo.snapshot()
	imports := t.importRepo.snapshot()
	sessions := t.sessionRepo.snapshot()
	if err := fn(t.deviceRepo, t.importRepo, t.sessionRepo); err != nil {
		t.deviceRepo.devices = devices
		t.importRepo.imports = imports
		t.sessionRepo.sessions = sessions
		return err
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Armado de escenario
// ──────────────────────────────────────────────────────────────────────────────

type inventoryFixture struct {
	uc       *inventorysession.SessionUseCase
	devices  *fakeDeviceRepo
	imports  *fakeImportRepo
	sessions *fakeSessionRepo
}

// newInventoryFixture arma una importación de 10 unidades (6x CAM-100,
// 4x NVR-200), la bodega PENDING_QC y una categoría para el tipo de producto.
func newInventoryFixture(t *testing.T, withPendingQC bool) *inventoryFixture {
	t.Helper()
	f := &inventoryFixture{
		devices:  newFakeDeviceRepo(),
		imports:  newFakeImportRepo(),
		sessions: newFakeSessionRepo(),
	}
	importDate := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.imports.Create(&entity.DeviceImport{
		ID:          "imp-1",
		Code:        "IMP-001",
		Status:      entity.ImportStatusPublic,
		ProductType: "cctv",
		Supplier:    "ACME",
		ImportDate:  &importDate,
		Products: []entity.ImportProduct{
			{ProductCode: "CAM-100", Quantity: 6},
			{ProductCode: "NVR-200", Quantity: 4},
		},
		TotalQuantity:   10,
		InventoryStatus: entity.InventoryStatusPending,
	}))

	warehouses := &fakeWarehouseRepo{warehouses: map[string]*entity.Warehouse{}}
	if withPendingQC {
		warehouses.warehouses["wh-pending"] = &entity.Warehouse{
			ID: "wh-pending", Code: entity.WarehouseCodePendingQC, Active: true,
		}
	}
	categories := &fakeCategoryRepo{categories: []*entity.Category{
		{ID: "cat-1", Code: "CCTV", Name: "Videovigilancia", ProductType: "cctv"},
	}}

	txRunner := &fakeTxRunner{deviceRepo: f.devices, importRepo: f.imports, sessionRepo: f.sessions}
	f.uc = inventorysession.NewSessionUseCase(txRunner, f.sessions, f.imports, f.devices, warehouses, categories)
	return f
}

func (f *inventoryFixture) openSession(t *testing.T, name string) *entity.InventorySession {
	t.Helper()
	session, err := f.uc.Create(context.Background(), "imp-1", name, "", "user-1")
	require.NoError(t, err)
	return session
}

func scans(serialModel ...string) []inventorysession.ScannedItem {
	items := make([]inventorysession.ScannedItem, 0, len(serialModel)/2)
	for i := 0; i+1 < len(serialModel); i += 2 {
		items = append(items, inventorysession.ScannedItem{Serial: serialModel[i], Model: serialModel[i+1]})
	}
	return items
}

// ──────────────────────────────────────────────────────────────────────────────
// Create
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_AbreSesionEnProceso(t *testing.T) {
	f := newInventoryFixture(t, true)

	session := f.openSession(t, "Turno mañana")
	assert.Equal(t, entity.InventorySessionProcessing, session.Status)
	assert.Regexp(t, `^PKK-\d{8}-\d{3}$`, session.Code)
	assert.Zero(t, session.TotalScanned)
}

func TestCreate_ImportacionInexistente_NotFound(t *testing.T) {
	f := newInventoryFixture(t, true)

	_, err := f.uc.Create(context.Background(), "no-existe", "x", "", "user-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreate_ImportacionCompletada_Rechaza(t *testing.T) {
	f := newInventoryFixture(t, true)
	f.imports.imports["imp-1"].InventoryStatus = entity.InventoryStatusCompleted

	_, err := f.uc.Create(context.Background(), "imp-1", "x", "", "user-1")
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed)
}

// ──────────────────────────────────────────────────────────────────────────────
// Update: despacho por forma del parche
// ──────────────────────────────────────────────────────────────────────────────

func TestUpdate_SesionCompletada_RechazaTodo(t *testing.T) {
	f := newInventoryFixture(t, true)
	session := f.openSession(t, "s")
	_, err := f.uc.Update(context.Background(), session.ID,
		inventorysession.UpdateInput{Status: entity.InventorySessionCompleted,
			ScannedItems: scans("SN-1", "CAM-100")}, "user-1")
	// El cierre delega aunque traiga escaneos; la sesión aún no tiene detalles,
	// pero el parche trae Status=completed con prioridad sobre ScannedItems
	require.NoError(t, err)

	_, err = f.uc.Update(context.Background(), session.ID,
		inventorysession.UpdateInput{Note: ptr("tarde")}, "user-1")
	assert.ErrorIs(t, err, domain.ErrPreconditionFailed, "una sesión completada es inmutable")
}

func TestUpdate_ParchePlano_ActualizaNombreYNota(t *testing.T) {
	f := newInventoryFixture(t, true)
	session := f.openSession(t, "original")

	updated, err := f.uc.Update(context.Background(), session.ID,
		inventorysession.UpdateInput{Name: ptr("renombrada"), Note: ptr("nota")}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "renombrada", updated.Name)
	assert.Equal(t, "nota", updated.Note)

	stored, _ := f.sessions.GetByID(session.ID)
	assert.Equal(t, "renombrada", stored.Name)
}

func TestUpdate_Escaneos_AgregaDetalles(t *testing.T) {
	f := newInventoryFixture(t, true)
	session := f.openSession(t, "s")

	updated, err := f.uc.Update(context.Background(), session.ID,
		inventorysession.UpdateInput{ScannedItems: scans("SN-1", "CAM-100", "SN-2", "CAM-100")}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, updated.TotalScanned)
	assert.True(t, updated.HasSerial("SN-1"))
}

// Duplicados dentro del parche, contra la sesión o contra dispositivos
// existentes: rechazo nombrando los seriales ofensores, sin mutación.
func TestUpdate_EscaneosDuplicados_RechazaNombrandoOfensores(t *testing.T) {
	f := newInventoryFixture(t, true)
	session := f.openSession(t, "s")

	// Ya escaneado en la sesión
	_, err := f.uc.Update(context.Background(), session.ID,
		inventorysession.UpdateInput{ScannedItems: scans("SN-1", "CAM-100")}, "user-1")
	require.NoError(t, err)

	// Ya materializado como dispositivo
	require.NoError(t, f.devices.Create(&entity.Device{ID: "d9", Serial: "SN-9"}))

	_, err = f.uc.Update(context.Background(), session.ID,
		inventorysession.UpdateInput{ScannedItems: scans(
			"SN-1", "CAM-100", // duplicado contra la sesión
			"SN-2", "CAM-100",
			"SN-2", "CAM-100", // duplicado dentro del parche
			"SN-9", "CAM-100", // duplicado contra dispositivos
		)}, "user-1")
	require.ErrorIs(t, err, domain.ErrDuplicateScan)
	assert.Contains(t, err.Error(), "SN-1")
	assert.Contains(t, err.Error(), "SN-2")
	assert.Contains(t, err.Error(), "SN-9")

	stored, _ := f.sessions.GetByID(session.ID)
	assert.Equal(t, 1, stored.TotalScanned, "un rechazo no debe agregar ningún detalle")
}

// ──────────────────────────────────────────────────────────────────────────────
// Cierre de sesión: materialización y atomicidad
// ──────────────────────────────────────────────────────────────────────────────

func TestCompletar_MaterializaDispositivosEnPendingQC(t *testing.T) {
	f := newInventoryFixture(t, true)
	session := f.openSession(t, "s")

	_, err := f.uc.Update(context.Background(), session.ID,
		inventorysession.UpdateInput{ScannedItems: scans("SN-1", "CAM-100", "SN-2", "")}, "user-1")
	require.NoError(t, err)

	completed, err := f.uc.Update(context.Background(), session.ID,
		inventorysession.UpdateInput{Status: entity.InventorySessionCompleted}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, entity.InventorySessionCompleted, completed.Status)
	assert.Equal(t, "user-1", completed.CompletedBy)

	d1, _ := f.devices.GetByIdentifier("SN-1")
	require.NotNil(t, d1)
	assert.Equal(t, "wh-pending", d1.WarehouseID)
	assert.Equal(t, entity.QCStatusPending, d1.QCStatus)
	assert.Equal(t, "CAM-100", d1.Name)
	assert.Equal(t, "ACME", d1.Supplier)
	require.NotNil(t, d1.CategoryID)
	assert.Equal(t, "cat-1", *d1.CategoryID)
	assert.Equal(t, 1, d1.Version)

	d2, _ := f.devices.GetByIdentifier("SN-2")
	require.NotNil(t, d2)
	assert.Equal(t, "Dispositivo genérico", d2.Name, "sin modelo aplica el nombre por defecto")

	imp, _ := f.imports.GetByID("imp-1")
	assert.Equal(t, 2, imp.SerialImported)
	assert.Equal(t, entity.InventoryStatusInProgress, imp.InventoryStatus)
}

func TestCompletar_SinBodegaPendingQC_ErrorDeConfiguracion(t *testing.T) {
	f := newInventoryFixture(t, false)
	session := f.openSession(t, "s")

	_, err := f.uc.Update(context.Background(), session.ID,
		inventorysession.UpdateInput{Status: entity.InventorySessionCompleted}, "user-1")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

// Si el avance del tiquete falla, los dispositivos ya insertados se revierten:
// las tres escrituras confirman o se revierten juntas.
func TestCompletar_FalloEnElAvance_RevierteTodo(t *testing.T) {
	f := newInventoryFixture(t, true)
	session := f.openSession(t, "s")

	_, err := f.uc.Update(context.Background(), session.ID,
		inventorysession.UpdateInput{ScannedItems: scans("SN-1", "CAM-100")}, "user-1")
	require.NoError(t, err)

	f.imports.failUpdateProgress = fmt.Errorf("deadlock detectado")
	_, err = f.uc.Update(context.Background(), session.ID,
		inventorysession.UpdateInput{Status: entity.InventorySessionCompleted}, "user-1")
	require.ErrorIs(t, err, domain.ErrTransaction)
	assert.Contains(t, err.Error(), "deadlock detectado", "el error envuelto conserva la causa")

	d1, _ := f.devices.GetByIdentifier("SN-1")
	assert.Nil(t, d1, "el dispositivo insertado debe revertirse")
	imp, _ := f.imports.GetByID("imp-1")
	assert.Zero(t, imp.SerialImported)
	stored, _ := f.sessions.GetByID(session.ID)
	assert.Equal(t, entity.InventorySessionProcessing, stored.Status, "la sesión sigue en curso tras el rollback")
}

// ──────────────────────────────────────────────────────────────────────────────
// CompleteImport
// ──────────────────────────────────────────────────────────────────────────────

func TestCompleteImport_FaltanSeriales_Rechaza(t *testing.T) {
	f := newInventoryFixture(t, true)
	session := f.openSession(t, "s")
	_, err := f.uc.Update(context.Background(), session.ID,
		inventorysession.UpdateInput{ScannedItems: scans("SN-1", "CAM-100")}, "user-1")
	require.NoError(t, err)
	_, err = f.uc.Update(context.Background(), session.ID,
		inventorysession.UpdateInput{Status: entity.InventorySessionCompleted}, "user-1")
	require.NoError(t, err)

	_, err = f.uc.CompleteImport(context.Background(), "imp-1", "user-1")
	require.ErrorIs(t, err, domain.ErrPreconditionFailed)
	assert.Contains(t, err.Error(), "9 de 10", "el rechazo nombra el faltante")
}

func TestCompleteImport_SesionesAbiertas_RechazaListandoCodigos(t *testing.T) {
	f := newInventoryFixture(t, true)
	f.imports.imports["imp-1"].SerialImported = 10
	open := f.openSession(t, "abierta")

	_, err := f.uc.CompleteImport(context.Background(), "imp-1", "user-1")
	require.ErrorIs(t, err, domain.ErrPreconditionFailed)
	assert.Contains(t, err.Error(), open.Code)
}

// El flujo completo: dos sesiones cubren la importación y el cierre procede.
func TestCompleteImport_FlujoCompleto(t *testing.T) {
	f := newInventoryFixture(t, true)

	a := f.openSession(t, "turno A")
	_, err := f.uc.Update(context.Background(), a.ID,
		inventorysession.UpdateInput{ScannedItems: scans(
			"SN-1", "CAM-100", "SN-2", "CAM-100", "SN-3", "CAM-100",
			"SN-4", "CAM-100", "SN-5", "CAM-100", "SN-6", "CAM-100",
		)}, "user-1")
	require.NoError(t, err)
	_, err = f.uc.Update(context.Background(), a.ID,
		inventorysession.UpdateInput{Status: entity.InventorySessionCompleted}, "user-1")
	require.NoError(t, err)

	imp, _ := f.imports.GetByID("imp-1")
	assert.Equal(t, 6, imp.SerialImported)
	assert.Equal(t, entity.InventoryStatusInProgress, imp.InventoryStatus)

	b := f.openSession(t, "turno B")
	_, err = f.uc.Update(context.Background(), b.ID,
		inventorysession.UpdateInput{ScannedItems: scans(
			"SN-7", "NVR-200", "SN-8", "NVR-200", "SN-9", "NVR-200", "SN-10", "NVR-200",
		)}, "user-1")
	require.NoError(t, err)
	_, err = f.uc.Update(context.Background(), b.ID,
		inventorysession.UpdateInput{Status: entity.InventorySessionCompleted}, "user-1")
	require.NoError(t, err)

	imp, _ = f.imports.GetByID("imp-1")
	assert.Equal(t, 10, imp.SerialImported)
	assert.Equal(t, entity.InventoryStatusCompleted, imp.InventoryStatus)

	closed, err := f.uc.CompleteImport(context.Background(), "imp-1", "jefe-1")
	require.NoError(t, err)
	assert.Equal(t, entity.InventoryStatusCompleted, closed.InventoryStatus)
	assert.Equal(t, "jefe-1", closed.CompletedBy)

	// Los contadores por producto quedan repartidos por modelo
	imp, _ = f.imports.GetByID("imp-1")
	for _, p := range imp.Products {
		switch p.ProductCode {
		case "CAM-100":
			assert.Equal(t, 6, p.SerialImported)
		case "NVR-200":
			assert.Equal(t, 4, p.SerialImported)
		}
	}
}

// Las sesiones canceladas no bloquean el cierre del tiquete.
func TestCompleteImport_SesionCanceladaNoBloquea(t *testing.T) {
	f := newInventoryFixture(t, true)
	f.imports.imports["imp-1"].SerialImported = 10
	cancelled := f.openSession(t, "cancelada")
	f.sessions.sessions[cancelled.ID].Status = entity.InventorySessionCancelled

	_, err := f.uc.CompleteImport(context.Background(), "imp-1", "user-1")
	assert.NoError(t, err)
}

func ptr(s string) *string { return &s }
