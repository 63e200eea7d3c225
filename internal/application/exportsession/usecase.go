package exportsession

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

// Motivos de rechazo/advertencia por serial en el escaneo masivo.
const (
	ReasonDoubleScan     = "DOUBLE_SCAN_IN_SESSION"
	ReasonNotFound       = "NOT_FOUND"
	ReasonWrongModel     = "WRONG_MODEL"
	ReasonExcessQuantity = "EXCESS_QUANTITY"
)

// SessionUseCase acumula escaneos de seriales contra los requerimientos de una
// exportación y, al completar, pliega los items en la cabecera padre.
type SessionUseCase struct {
	txRunner    TxRunner
	exportRepo  repository.ExportRepository
	sessionRepo repository.ExportSessionRepository
	deviceRepo  repository.DeviceRepository
}

// NewSessionUseCase construye el caso de uso.
func NewSessionUseCase(
	txRunner TxRunner,
	exportRepo repository.ExportRepository,
	sessionRepo repository.ExportSessionRepository,
	deviceRepo repository.DeviceRepository,
) *SessionUseCase {
	return &SessionUseCase{
		txRunner:    txRunner,
		exportRepo:  exportRepo,
		sessionRepo: sessionRepo,
		deviceRepo:  deviceRepo,
	}
}

// ScanItemError rechazo por serial en un escaneo masivo.
type ScanItemError struct {
	Serial string `json:"serial"`
	Reason string `json:"reason"`
}

// ScanReport resultado de un escaneo masivo. Warnings no bloquea: el
// sobre-escaneo se acepta pero queda auditado como EXCESS_QUANTITY.
type ScanReport struct {
	Success  []string        `json:"success"`
	Errors   []ScanItemError `json:"errors"`
	Warnings []ScanItemError `json:"warnings"`
}

// CreateSession abre una sesión de escaneo para una exportación APPROVED o
// IN_PROGRESS. La primera sesión de una exportación APPROVED la avanza a
// IN_PROGRESS (abre el envío).
func (uc *SessionUseCase) CreateSession(ctx context.Context, exportID, note, actorID string) (*entity.ExportSession, error) {
	parent, err := uc.exportRepo.GetByID(exportID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, fmt.Errorf("%w: exportación %s", domain.ErrNotFound, exportID)
	}
	if parent.Status != entity.ExportStatusApproved && parent.Status != entity.ExportStatusInProgress {
		return nil, fmt.Errorf("%w: la exportación está en estado %s", domain.ErrPreconditionFailed, parent.Status)
	}

	now := time.Now()
	session := &entity.ExportSession{
		ID:          uuid.New().String(),
		ExportID:    parent.ID,
		Code:        fmt.Sprintf("EXS-%s-%04d", now.Format("20060102"), rand.Intn(10000)),
		Status:      entity.ExportSessionInProgress,
		Note:        note,
		Items:       []entity.ExportSessionItem{},
		SerialTotal: parent.TotalQuantity,
		CreatedBy:   actorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = uc.txRunner.RunExport(ctx, func(
		exportRepo repository.ExportRepository,
		sessionRepo repository.ExportSessionRepository,
	) error {
		if parent.Status == entity.ExportStatusApproved {
			if !entity.CanExportStatusChange(parent.Status, entity.ExportStatusInProgress) {
				return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, parent.Status, entity.ExportStatusInProgress)
			}
			if err := exportRepo.UpdateStatus(parent.ID, entity.ExportStatusInProgress, actorID); err != nil {
				return err
			}
		}
		return sessionRepo.Create(session)
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// ScanSerial agrega un serial a la sesión. Rechaza duplicados dentro de la
// sesión, seriales sin dispositivo y modelos fuera de los requerimientos del
// envío; nada de eso muta la sesión.
func (uc *SessionUseCase) ScanSerial(ctx context.Context, sessionID, serial string) (*entity.ExportSession, error) {
	session, parent, err := uc.openSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session.HasSerial(serial) {
		return nil, fmt.Errorf("%w: serial %s ya escaneado en la sesión", domain.ErrDuplicateScan, serial)
	}
	device, err := uc.deviceRepo.GetByIdentifier(serial)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, fmt.Errorf("%w: dispositivo con serial %s", domain.ErrNotFound, serial)
	}
	if parent.RequirementFor(device.Model) == nil {
		return nil, fmt.Errorf("%w: el serial %s tiene modelo %s, que no está en los requerimientos del envío",
			domain.ErrPreconditionFailed, serial, device.Model)
	}

	item := entity.ExportSessionItem{Serial: serial, ProductCode: device.Model, ScannedAt: time.Now()}
	err = uc.txRunner.RunExport(ctx, func(
		_ repository.ExportRepository,
		sessionRepo repository.ExportSessionRepository,
	) error {
		return sessionRepo.AppendItems(session.ID, []entity.ExportSessionItem{item})
	})
	if err != nil {
		return nil, err
	}
	session.Items = append(session.Items, item)
	session.SerialChecked = len(session.Items)
	return session, nil
}

// ScanBulk clasifica cada serial del lote (duplicado, inexistente, modelo
// equivocado) y aplica los aceptados en una sola escritura por lotes. Superar
// la cantidad requerida de un modelo genera la advertencia EXCESS_QUANTITY
// pero no bloquea la aceptación.
func (uc *SessionUseCase) ScanBulk(ctx context.Context, sessionID string, serials []string) (*ScanReport, error) {
	session, parent, err := uc.openSession(sessionID)
	if err != nil {
		return nil, err
	}

	// Dedup del lote preservando el orden de entrada
	seen := make(map[string]bool, len(serials))
	unique := make([]string, 0, len(serials))
	for _, s := range serials {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		unique = append(unique, s)
	}

	devices, err := uc.deviceRepo.ListByIdentifiers(unique)
	if err != nil {
		return nil, err
	}
	byIdentifier := make(map[string]*entity.Device, len(devices)*2)
	for _, d := range devices {
		byIdentifier[d.Serial] = d
		if d.MAC != "" {
			byIdentifier[d.MAC] = d
		}
	}

	// Conteo corrido por modelo, sembrado con los items ya escaneados
	counts := make(map[string]int)
	for i := range session.Items {
		counts[session.Items[i].ProductCode]++
	}

	report := &ScanReport{Success: []string{}, Errors: []ScanItemError{}, Warnings: []ScanItemError{}}
	now := time.Now()
	var accepted []entity.ExportSessionItem
	for _, serial := range unique {
		if session.HasSerial(serial) {
			report.Errors = append(report.Errors, ScanItemError{Serial: serial, Reason: ReasonDoubleScan})
			continue
		}
		device, ok := byIdentifier[serial]
		if !ok {
			report.Errors = append(report.Errors, ScanItemError{Serial: serial, Reason: ReasonNotFound})
			continue
		}
		req := parent.RequirementFor(device.Model)
		if req == nil {
			report.Errors = append(report.Errors, ScanItemError{Serial: serial, Reason: ReasonWrongModel})
			continue
		}
		counts[device.Model]++
		if counts[device.Model] > req.Quantity {
			report.Warnings = append(report.Warnings, ScanItemError{Serial: serial, Reason: ReasonExcessQuantity})
		}
		accepted = append(accepted, entity.ExportSessionItem{Serial: serial, ProductCode: device.Model, ScannedAt: now})
		report.Success = append(report.Success, serial)
	}

	if len(accepted) > 0 {
		err = uc.txRunner.RunExport(ctx, func(
			_ repository.ExportRepository,
			sessionRepo repository.ExportSessionRepository,
		) error {
			return sessionRepo.AppendItems(session.ID, accepted)
		})
		if err != nil {
			return nil, err
		}
	}
	return report, nil
}

// RemoveSerial retira un serial escaneado de la sesión en curso.
func (uc *SessionUseCase) RemoveSerial(ctx context.Context, sessionID, serial string) (*entity.ExportSession, error) {
	session, _, err := uc.openSession(sessionID)
	if err != nil {
		return nil, err
	}
	if !session.HasSerial(serial) {
		return nil, fmt.Errorf("%w: serial %s no está en la sesión", domain.ErrNotFound, serial)
	}
	err = uc.txRunner.RunExport(ctx, func(
		_ repository.ExportRepository,
		sessionRepo repository.ExportSessionRepository,
	) error {
		return sessionRepo.RemoveItem(session.ID, serial)
	})
	if err != nil {
		return nil, err
	}
	items := session.Items[:0]
	for _, it := range session.Items {
		if it.Serial != serial {
			items = append(items, it)
		}
	}
	session.Items = items
	session.SerialChecked = len(items)
	return session, nil
}

// CompleteSession pliega los items escaneados en la cabecera padre y marca la
// sesión COMPLETED, ambas escrituras en una sola transacción. Una sesión vacía
// no se puede completar; una completada es inmutable.
func (uc *SessionUseCase) CompleteSession(ctx context.Context, sessionID, actorID string) (*entity.ExportSession, error) {
	session, parent, err := uc.openSession(sessionID)
	if err != nil {
		return nil, err
	}
	if len(session.Items) == 0 {
		return nil, fmt.Errorf("%w: la sesión no tiene seriales escaneados", domain.ErrPreconditionFailed)
	}

	items := make([]entity.ExportItem, 0, len(session.Items))
	for _, it := range session.Items {
		item := entity.ExportItem{Serial: it.Serial, ProductCode: it.ProductCode}
		if req := parent.RequirementFor(it.ProductCode); req != nil {
			item.ExportPrice = req.UnitPrice
		}
		items = append(items, item)
	}

	now := time.Now()
	err = uc.txRunner.RunExport(ctx, func(
		exportRepo repository.ExportRepository,
		sessionRepo repository.ExportSessionRepository,
	) error {
		if err := exportRepo.AppendItems(session.ExportID, items); err != nil {
			return err
		}
		return sessionRepo.Complete(session.ID, actorID, now)
	})
	if err != nil {
		return nil, err
	}
	session.Status = entity.ExportSessionCompleted
	session.CompletedBy = actorID
	session.CompletedAt = &now
	return session, nil
}

// GetSession devuelve una sesión con sus ítems, en cualquier estado.
func (uc *SessionUseCase) GetSession(ctx context.Context, sessionID string) (*entity.ExportSession, error) {
	session, err := uc.sessionRepo.GetByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("%w: sesión de exportación %s", domain.ErrNotFound, sessionID)
	}
	return session, nil
}

// openSession carga la sesión y su exportación padre, exigiendo que la sesión
// esté IN_PROGRESS.
func (uc *SessionUseCase) openSession(sessionID string) (*entity.ExportSession, *entity.Export, error) {
	session, err := uc.sessionRepo.GetByID(sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session == nil {
		return nil, nil, fmt.Errorf("%w: sesión de exportación %s", domain.ErrNotFound, sessionID)
	}
	if session.Status != entity.ExportSessionInProgress {
		return nil, nil, fmt.Errorf("%w: la sesión %s está %s", domain.ErrPreconditionFailed,
			session.Code, strings.ToLower(session.Status))
	}
	parent, err := uc.exportRepo.GetByID(session.ExportID)
	if err != nil {
		return nil, nil, err
	}
	if parent == nil {
		return nil, nil, fmt.Errorf("%w: exportación %s", domain.ErrNotFound, session.ExportID)
	}
	return session, parent, nil
}
