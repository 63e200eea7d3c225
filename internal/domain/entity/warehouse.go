package entity

import "time"

// Códigos de bodega con semántica especial para el motor de traslados.
// Las bodegas se siembran como datos; estos códigos son los únicos que el
// código consulta por nombre (efectos secundarios y flujos de cierre).
const (
	WarehouseCodePendingQC     = "PENDING_QC"
	WarehouseCodeReadyToExport = "READY_TO_EXPORT"
	WarehouseCodeDefect        = "DEFECT"
	WarehouseCodeInWarranty    = "IN_WARRANTY"
	WarehouseCodeUnderRepair   = "UNDER_REPAIR"
	WarehouseCodeRemoved       = "REMOVED"
	WarehouseCodeSold          = "SOLD"
)

// Warehouse representa una bodega por la que transitan los dispositivos.
// La identidad (Code) es inmutable; el resto es configuración de administración.
type Warehouse struct {
	ID        string
	Code      string
	Name      string
	Group     string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
