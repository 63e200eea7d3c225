package entity

import "time"

// Estados de control de calidad de un dispositivo.
const (
	QCStatusPending = "PENDING"
	QCStatusPass    = "PASS"
	QCStatusFail    = "FAIL"
)

// Device representa un dispositivo físico de inventario (cámara, control de
// acceso) identificado por su serial único. Se crea al completar una sesión de
// inventario y lo mutan el motor de traslados y el cierre de sesiones de
// exportación; nunca se borra en el flujo normal.
//
// Version respalda el compare-and-swap de las actualizaciones concurrentes:
// el repositorio solo aplica el UPDATE si la versión leída sigue vigente.
type Device struct {
	ID           string
	Serial       string
	MAC          string
	Model        string
	Name         string
	Unit         string
	WarehouseID  string
	QCStatus     string // PENDING | PASS | FAIL
	QCNote       string
	RepairNote   string
	WarrantyNote string
	RemoveReason string
	RemoveDate   *time.Time
	ExportID     *string
	CategoryID   *string
	ImportID     *string
	Supplier     string
	ImportDate   *time.Time

	WarehouseUpdatedAt *time.Time
	WarehouseUpdatedBy string

	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}
