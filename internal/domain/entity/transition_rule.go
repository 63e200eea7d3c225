package entity

import "time"

// Tipos de transición entre bodegas (value object conceptual). El grafo de
// transiciones vive en la tabla transition_rules, no en el código.
const (
	TransitionKindImport          = "IMPORT"
	TransitionKindQCPass          = "QC_PASS"
	TransitionKindQCFail          = "QC_FAIL"
	TransitionKindSendWarranty    = "SEND_WARRANTY"
	TransitionKindReceiveWarranty = "RECEIVE_WARRANTY"
	TransitionKindWarrantyReplace = "WARRANTY_REPLACE"
	TransitionKindWarrantyRepair  = "WARRANTY_REPAIR"
	TransitionKindScrap           = "SCRAP"
	TransitionKindCustomerReturn  = "CUSTOMER_RETURN"
	TransitionKindExport          = "EXPORT"
	TransitionKindTransfer        = "TRANSFER" // fallback cuando la regla no trae tipo
)

// TransitionRule es un permiso direccional configurado para mover un dispositivo
// de una bodega a otra. FromWarehouseID nil representa la arista externa de
// importación. Invariante: a lo sumo una regla activa por (from, to, kind).
type TransitionRule struct {
	ID              string
	FromWarehouseID *string
	ToWarehouseID   string
	Kind            string
	AllowedRoles    []string
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
