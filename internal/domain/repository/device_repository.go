package repository

import (
	"time"

	"github.com/jhoicas/Activos-api/internal/domain/entity"
)

// DeviceRepository define el puerto de persistencia para Device (DIP).
type DeviceRepository interface {
	Create(device *entity.Device) error
	// CreateBatch inserta todos los dispositivos de una vez (materialización de
	// sesiones de inventariado). Debe usarse dentro de una transacción.
	CreateBatch(devices []*entity.Device) error
	GetByID(id string) (*entity.Device, error)
	// GetByIdentifier busca por serial o por MAC indistintamente.
	GetByIdentifier(identifier string) (*entity.Device, error)
	// ListByIdentifiers devuelve los dispositivos cuyo serial o MAC está en la lista.
	ListByIdentifiers(identifiers []string) ([]*entity.Device, error)
	// ExistingSerials devuelve el subconjunto de seriales que ya existen.
	ExistingSerials(serials []string) ([]string, error)
	// UpdateVersioned aplica el UPDATE solo si device.Version sigue vigente
	// (compare-and-swap); si otro traslado ganó la carrera devuelve ErrConflict.
	UpdateVersioned(device *entity.Device) error
	// MoveToWarehouse reasigna en bloque la bodega de los dispositivos dados,
	// normalizando un qc_status 'SOLD' extraviado de vuelta a PASS.
	MoveToWarehouse(ids []string, warehouseID, actorID string, at time.Time) (int64, error)
}
