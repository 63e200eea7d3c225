package transfer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Activos-api/internal/domain"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
	"github.com/jhoicas/Activos-api/internal/domain/repository"
)

// TransferUseCase ejecuta traslados de dispositivos entre bodegas validando
// contra la tabla de reglas de transición y escribiendo el historial. La tabla
// es dato sembrado: el motor la consulta en tiempo de ejecución, nunca la
// codifica.
type TransferUseCase struct {
	txRunner      TxRunner
	deviceRepo    repository.DeviceRepository
	warehouseRepo repository.WarehouseRepository
	ruleRepo      repository.TransitionRuleRepository
	historyRepo   repository.DeviceHistoryRepository
}

// NewTransferUseCase construye el caso de uso.
func NewTransferUseCase(
	txRunner TxRunner,
	deviceRepo repository.DeviceRepository,
	warehouseRepo repository.WarehouseRepository,
	ruleRepo repository.TransitionRuleRepository,
	historyRepo repository.DeviceHistoryRepository,
) *TransferUseCase {
	return &TransferUseCase{
		txRunner:      txRunner,
		deviceRepo:    deviceRepo,
		warehouseRepo: warehouseRepo,
		ruleRepo:      ruleRepo,
		historyRepo:   historyRepo,
	}
}

// TransferInput entrada para un traslado individual. Roles son los roles del
// actor autenticado; se contrastan con allowed_roles de la regla.
type TransferInput struct {
	DeviceID      string
	ToWarehouseID string
	ActorID       string
	Roles         []string
	Note          string
	ErrorReason   string
}

// BulkItemError error por dispositivo dentro de un traslado masivo.
type BulkItemError struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// BulkResult resultado de un traslado masivo: éxito parcial de primera clase.
type BulkResult struct {
	Success []string        `json:"success"`
	Errors  []BulkItemError `json:"errors"`
}

// Transfer valida el traslado contra la regla activa (from, to), aplica los
// efectos secundarios según tipo de regla y bodega destino, y persiste el
// dispositivo junto con su entrada de historial en una transacción.
// Si el dispositivo ya está en la bodega destino es un no-op idempotente:
// devuelve el dispositivo sin mutarlo y sin escribir historial.
func (uc *TransferUseCase) Transfer(ctx context.Context, in TransferInput) (*entity.Device, error) {
	device, err := uc.deviceRepo.GetByID(in.DeviceID)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, fmt.Errorf("%w: dispositivo %s", domain.ErrNotFound, in.DeviceID)
	}
	if device.WarehouseID == in.ToWarehouseID {
		return device, nil
	}

	dest, err := uc.warehouseRepo.GetByID(in.ToWarehouseID)
	if err != nil {
		return nil, err
	}
	if dest == nil {
		return nil, fmt.Errorf("%w: bodega destino %s", domain.ErrNotFound, in.ToWarehouseID)
	}

	fromID := device.WarehouseID
	rule, err := uc.ruleRepo.FindActive(&fromID, in.ToWarehouseID)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		fromCode := fromID
		if from, err := uc.warehouseRepo.GetByID(fromID); err == nil && from != nil {
			fromCode = from.Code
		}
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrTransferRuleNotFound, fromCode, dest.Code)
	}
	if !roleAllowed(rule.AllowedRoles, in.Roles) {
		return nil, fmt.Errorf("%w: traslado %s", domain.ErrForbidden, rule.Kind)
	}

	now := time.Now()

	// Efectos secundarios por tipo de regla
	switch rule.Kind {
	case entity.TransitionKindQCPass:
		device.QCStatus = entity.QCStatusPass
	case entity.TransitionKindQCFail:
		device.QCStatus = entity.QCStatusFail
		if in.ErrorReason != "" {
			device.QCNote = in.ErrorReason
		}
	}

	// Efectos secundarios por código de bodega destino
	switch dest.Code {
	case entity.WarehouseCodeRemoved:
		device.RemoveReason = in.ErrorReason
		device.RemoveDate = &now
	case entity.WarehouseCodeDefect:
		if in.ErrorReason != "" {
			device.QCNote = in.ErrorReason
		}
	case entity.WarehouseCodeUnderRepair:
		device.RepairNote = in.ErrorReason
	}

	device.WarehouseID = in.ToWarehouseID
	device.WarehouseUpdatedAt = &now
	device.WarehouseUpdatedBy = in.ActorID

	kind := rule.Kind
	if kind == "" {
		kind = entity.TransitionKindTransfer
	}
	note := in.Note
	if note == "" {
		if in.ErrorReason != "" {
			note = "Error: " + in.ErrorReason
		} else {
			note = "Traslado manual"
		}
	}

	err = uc.txRunner.Run(ctx, func(
		deviceRepo repository.DeviceRepository,
		historyRepo repository.DeviceHistoryRepository,
	) error {
		if err := deviceRepo.UpdateVersioned(device); err != nil {
			return err
		}
		return historyRepo.Create(&entity.DeviceHistory{
			ID:              uuid.New().String(),
			DeviceID:        device.ID,
			FromWarehouseID: &fromID,
			ToWarehouseID:   in.ToWarehouseID,
			ActorID:         in.ActorID,
			Kind:            kind,
			Note:            note,
			CreatedAt:       now,
		})
	})
	if err != nil {
		return nil, err
	}
	device.Version++
	return device, nil
}

// roleAllowed indica si alguno de los roles del actor está en la lista de la
// regla. Una regla sin roles configurados admite a cualquier actor.
func roleAllowed(allowed, roles []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, r := range roles {
		for _, a := range allowed {
			if r == a {
				return true
			}
		}
	}
	return false
}

// BulkTransfer ejecuta Transfer por dispositivo en paralelo con resultados
// independientes: el fallo de un dispositivo no aborta a los demás. No hay
// atomicidad entre dispositivos, solo dentro de cada traslado.
func (uc *TransferUseCase) BulkTransfer(ctx context.Context, deviceIDs []string, toWarehouseID, actorID string, roles []string, note, errorReason string) *BulkResult {
	res := &BulkResult{Success: []string{}, Errors: []BulkItemError{}}
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, id := range deviceIDs {
		wg.Add(1)
		go func(deviceID string) {
			defer wg.Done()
			_, err := uc.Transfer(ctx, TransferInput{
				DeviceID:      deviceID,
				ToWarehouseID: toWarehouseID,
				ActorID:       actorID,
				Roles:         roles,
				Note:          note,
				ErrorReason:   errorReason,
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Errors = append(res.Errors, BulkItemError{ID: deviceID, Message: err.Error()})
				return
			}
			res.Success = append(res.Success, deviceID)
		}(id)
	}
	wg.Wait()
	return res
}

// MoveToSold pasa a la bodega SOLD todos los dispositivos con alguna de las
// MACs dadas que no estén ya allí, como efecto terminal de una exportación de
// venta. Normaliza un qc_status 'SOLD' extraviado de vuelta a PASS. Si la
// bodega SOLD no está configurada el error es fatal, no por dispositivo.
func (uc *TransferUseCase) MoveToSold(ctx context.Context, macs []string, exportCode, actorID string) (int, error) {
	sold, err := uc.warehouseRepo.GetByCode(entity.WarehouseCodeSold)
	if err != nil {
		return 0, err
	}
	if sold == nil {
		return 0, fmt.Errorf("%w: bodega %s no existe", domain.ErrConfiguration, entity.WarehouseCodeSold)
	}

	devices, err := uc.deviceRepo.ListByIdentifiers(macs)
	if err != nil {
		return 0, err
	}
	now := time.Now()
	var ids []string
	var histories []*entity.DeviceHistory
	for _, d := range devices {
		if d.WarehouseID == sold.ID {
			continue
		}
		fromID := d.WarehouseID
		ids = append(ids, d.ID)
		histories = append(histories, &entity.DeviceHistory{
			ID:              uuid.New().String(),
			DeviceID:        d.ID,
			FromWarehouseID: &fromID,
			ToWarehouseID:   sold.ID,
			ActorID:         actorID,
			Kind:            entity.TransitionKindExport,
			Note:            "Exportación " + exportCode,
			CreatedAt:       now,
		})
	}
	if len(ids) == 0 {
		return 0, nil
	}

	err = uc.txRunner.Run(ctx, func(
		deviceRepo repository.DeviceRepository,
		historyRepo repository.DeviceHistoryRepository,
	) error {
		if _, err := deviceRepo.MoveToWarehouse(ids, sold.ID, actorID, now); err != nil {
			return err
		}
		return historyRepo.CreateBatch(histories)
	})
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// HistoryByDevice devuelve el historial de traslados de un dispositivo,
// más reciente primero.
func (uc *TransferUseCase) HistoryByDevice(ctx context.Context, deviceID string, limit, offset int) ([]*entity.DeviceHistory, error) {
	device, err := uc.deviceRepo.GetByID(deviceID)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, fmt.Errorf("%w: dispositivo %s", domain.ErrNotFound, deviceID)
	}
	return uc.historyRepo.ListByDevice(deviceID, limit, offset)
}
