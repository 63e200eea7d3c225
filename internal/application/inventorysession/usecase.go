package inventorysession

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Activos-api/internal/domain"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
	"github.com/jhoicas/Activos-api/internal/domain/repository"
)

// SessionUseCase acumula escaneos contra un tiquete de importación y, al
// completar, materializa los seriales como dispositivos nuevos en PENDING_QC y
// actualiza el avance del tiquete, todo en una transacción.
type SessionUseCase struct {
	txRunner      TxRunner
	sessionRepo   repository.InventorySessionRepository
	importRepo    repository.DeviceImportRepository
	deviceRepo    repository.DeviceRepository
	warehouseRepo repository.WarehouseRepository
	categoryRepo  repository.CategoryRepository
}

// NewSessionUseCase construye el caso de uso.
func NewSessionUseCase(
	txRunner TxRunner,
	sessionRepo repository.InventorySessionRepository,
	importRepo repository.DeviceImportRepository,
	deviceRepo repository.DeviceRepository,
	warehouseRepo repository.WarehouseRepository,
	categoryRepo repository.CategoryRepository,
) *SessionUseCase {
	return &SessionUseCase{
		txRunner:      txRunner,
		sessionRepo:   sessionRepo,
		importRepo:    importRepo,
		deviceRepo:    deviceRepo,
		warehouseRepo: warehouseRepo,
		categoryRepo:  categoryRepo,
	}
}

// ScannedItem serial leído por la pistola junto con el modelo de la etiqueta.
type ScannedItem struct {
	Serial string `json:"serial"`
	Model  string `json:"model"`
}

// UpdateInput parche para una sesión de inventariado. El despacho es por forma,
// en orden de prioridad: Status=completed delega en el cierre (ignora el resto
// del parche); ScannedItems no vacío agrega detalles; si no, parche plano.
type UpdateInput struct {
	Status       string        `json:"status"`
	ScannedItems []ScannedItem `json:"scannedItems"`
	Name         *string       `json:"name"`
	Note         *string       `json:"note"`
}

// Create abre una sesión de inventariado para un tiquete no completado.
func (uc *SessionUseCase) Create(ctx context.Context, importID, name, note, actorID string) (*entity.InventorySession, error) {
	imp, err := uc.importRepo.GetByID(importID)
	if err != nil {
		return nil, err
	}
	if imp == nil {
		return nil, fmt.Errorf("%w: importación %s", domain.ErrNotFound, importID)
	}
	if imp.InventoryStatus == entity.InventoryStatusCompleted {
		return nil, fmt.Errorf("%w: la importación %s ya fue inventariada por completo", domain.ErrPreconditionFailed, imp.Code)
	}

	now := time.Now()
	session := &entity.InventorySession{
		ID:        uuid.New().String(),
		ImportID:  imp.ID,
		Code:      fmt.Sprintf("PKK-%s-%03d", now.Format("20060102"), rand.Intn(1000)),
		Name:      name,
		Note:      note,
		Status:    entity.InventorySessionProcessing,
		Details:   []entity.InventorySessionDetail{},
		CreatedBy: actorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.sessionRepo.Create(session); err != nil {
		return nil, err
	}
	return session, nil
}

// Update aplica el parche según su forma. Precondición común: la sesión existe
// y no está completada (los reintentos de cierre se rechazan).
func (uc *SessionUseCase) Update(ctx context.Context, sessionID string, patch UpdateInput, actorID string) (*entity.InventorySession, error) {
	session, err := uc.sessionRepo.GetByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("%w: sesión de inventariado %s", domain.ErrNotFound, sessionID)
	}
	if session.Status == entity.InventorySessionCompleted {
		return nil, fmt.Errorf("%w: la sesión %s ya fue completada", domain.ErrPreconditionFailed, session.Code)
	}

	if patch.Status == entity.InventorySessionCompleted {
		return uc.completeSession(ctx, session, actorID)
	}

	if len(patch.ScannedItems) > 0 {
		return uc.appendScans(session, patch.ScannedItems)
	}

	name := session.Name
	if patch.Name != nil {
		name = *patch.Name
	}
	note := session.Note
	if patch.Note != nil {
		note = *patch.Note
	}
	if err := uc.sessionRepo.UpdateInfo(session.ID, name, note); err != nil {
		return nil, err
	}
	session.Name = name
	session.Note = note
	return session, nil
}

// appendScans valida que los seriales entrantes no choquen entre sí, con la
// sesión ni con dispositivos ya materializados, y los agrega en un solo
// append atómico.
func (uc *SessionUseCase) appendScans(session *entity.InventorySession, items []ScannedItem) (*entity.InventorySession, error) {
	var offenders []string
	seen := make(map[string]bool, len(items))
	serials := make([]string, 0, len(items))
	for _, it := range items {
		if seen[it.Serial] || session.HasSerial(it.Serial) {
			offenders = append(offenders, it.Serial)
			continue
		}
		seen[it.Serial] = true
		serials = append(serials, it.Serial)
	}
	// Seriales ya contados hacia el padre: existen como dispositivos
	if len(serials) > 0 {
		existing, err := uc.deviceRepo.ExistingSerials(serials)
		if err != nil {
			return nil, err
		}
		offenders = append(offenders, existing...)
	}
	if len(offenders) > 0 {
		return nil, fmt.Errorf("%w: seriales en conflicto: %s", domain.ErrDuplicateScan, strings.Join(offenders, ", "))
	}

	now := time.Now()
	details := make([]entity.InventorySessionDetail, 0, len(items))
	for _, it := range items {
		details = append(details, entity.InventorySessionDetail{Serial: it.Serial, Model: it.Model, ScannedAt: now})
	}
	if err := uc.sessionRepo.AppendDetails(session.ID, details); err != nil {
		return nil, err
	}
	session.Details = append(session.Details, details...)
	session.TotalScanned = len(session.Details)
	return session, nil
}

// completeSession materializa los seriales escaneados como dispositivos,
// actualiza el avance del tiquete padre y marca la sesión completada; las tres
// escrituras confirman o se revierten como una sola unidad.
func (uc *SessionUseCase) completeSession(ctx context.Context, session *entity.InventorySession, actorID string) (*entity.InventorySession, error) {
	warehouse, err := uc.warehouseRepo.GetByCode(entity.WarehouseCodePendingQC)
	if err != nil {
		return nil, err
	}
	if warehouse == nil {
		return nil, fmt.Errorf("%w: bodega %s no existe", domain.ErrConfiguration, entity.WarehouseCodePendingQC)
	}

	imp, err := uc.importRepo.GetByID(session.ImportID)
	if err != nil {
		return nil, err
	}
	if imp == nil {
		return nil, fmt.Errorf("%w: importación %s", domain.ErrNotFound, session.ImportID)
	}

	var categoryID *string
	if imp.ProductType != "" {
		category, err := uc.categoryRepo.GetByProductType(imp.ProductType)
		if err != nil {
			return nil, err
		}
		if category != nil {
			categoryID = &category.ID
		}
	}

	now := time.Now()
	importID := imp.ID
	devices := make([]*entity.Device, 0, len(session.Details))
	productCounts := make(map[string]int, len(session.Details))
	for _, detail := range session.Details {
		model := detail.Model
		name := detail.Model
		if name == "" {
			name = "Dispositivo genérico"
		}
		devices = append(devices, &entity.Device{
			ID:          uuid.New().String(),
			Serial:      detail.Serial,
			Model:       model,
			Name:        name,
			WarehouseID: warehouse.ID,
			QCStatus:    entity.QCStatusPending,
			CategoryID:  categoryID,
			ImportID:    &importID,
			Supplier:    imp.Supplier,
			ImportDate:  imp.ImportDate,
			Version:     1,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		productCounts[model]++
	}

	newImported := imp.SerialImported + session.TotalScanned
	inventoryStatus := entity.DeriveInventoryStatus(newImported, imp.TotalQuantity)

	err = uc.txRunner.RunInventory(ctx, func(
		deviceRepo repository.DeviceRepository,
		importRepo repository.DeviceImportRepository,
		sessionRepo repository.InventorySessionRepository,
	) error {
		if err := deviceRepo.CreateBatch(devices); err != nil {
			return err
		}
		if err := importRepo.UpdateProgress(imp.ID, newImported, inventoryStatus, productCounts); err != nil {
			return err
		}
		return sessionRepo.Complete(session.ID, actorID, now)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: completar sesión %s: %v", domain.ErrTransaction, session.Code, err)
	}

	session.Status = entity.InventorySessionCompleted
	session.CompletedBy = actorID
	session.CompletedAt = &now
	return session, nil
}

// CompleteImport cierra el tiquete de importación. Exige que todos los
// seriales esperados estén inventariados y que ninguna sesión siga en curso;
// si no, rechaza nombrando el faltante o las sesiones abiertas.
func (uc *SessionUseCase) CompleteImport(ctx context.Context, importID, actorID string) (*entity.DeviceImport, error) {
	imp, err := uc.importRepo.GetByID(importID)
	if err != nil {
		return nil, err
	}
	if imp == nil {
		return nil, fmt.Errorf("%w: importación %s", domain.ErrNotFound, importID)
	}
	if imp.SerialImported < imp.TotalQuantity {
		return nil, fmt.Errorf("%w: faltan %d de %d seriales por inventariar",
			domain.ErrPreconditionFailed, imp.TotalQuantity-imp.SerialImported, imp.TotalQuantity)
	}

	sessions, err := uc.sessionRepo.ListByImport(imp.ID)
	if err != nil {
		return nil, err
	}
	var open []string
	for _, s := range sessions {
		if s.Status == entity.InventorySessionProcessing {
			open = append(open, s.Code)
		}
	}
	if len(open) > 0 {
		return nil, fmt.Errorf("%w: sesiones de inventariado en curso: %s", domain.ErrPreconditionFailed, strings.Join(open, ", "))
	}

	if err := uc.importRepo.Complete(imp.ID, actorID); err != nil {
		return nil, err
	}
	imp.InventoryStatus = entity.InventoryStatusCompleted
	imp.CompletedBy = actorID
	return imp, nil
}

// Get devuelve una sesión de inventariado con sus detalles, en cualquier estado.
func (uc *SessionUseCase) Get(ctx context.Context, sessionID string) (*entity.InventorySession, error) {
	session, err := uc.sessionRepo.GetByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("%w: sesión de inventariado %s", domain.ErrNotFound, sessionID)
	}
	return session, nil
}

// ListByImport devuelve las sesiones de un tiquete de importación.
func (uc *SessionUseCase) ListByImport(ctx context.Context, importID string) ([]*entity.InventorySession, error) {
	imp, err := uc.importRepo.GetByID(importID)
	if err != nil {
		return nil, err
	}
	if imp == nil {
		return nil, fmt.Errorf("%w: importación %s", domain.ErrNotFound, importID)
	}
	return uc.sessionRepo.ListByImport(imp.ID)
}
