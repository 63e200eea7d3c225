package entity

import "time"

// Estados del documento de importación y de su avance de inventariado.
const (
	ImportStatusDraft  = "DRAFT"
	ImportStatusPublic = "PUBLIC"

	InventoryStatusPending    = "pending"
	InventoryStatusInProgress = "in-progress"
	InventoryStatusCompleted  = "completed"
)

// ImportProduct es una línea de producto esperada en la importación, con su
// propio contador de seriales ya inventariados.
type ImportProduct struct {
	ProductCode    string
	Quantity       int
	SerialImported int
}

// DeviceImport es el tiquete cabecera de una importación de dispositivos.
// Invariantes: SerialImported <= TotalQuantity; InventoryStatus se deriva del
// cociente SerialImported/TotalQuantity y nunca se fija de forma independiente;
// editable solo mientras Status == DRAFT.
type DeviceImport struct {
	ID              string
	Code            string
	Status          string
	ProductType     string
	Supplier        string
	ImportDate      *time.Time
	Products        []ImportProduct
	TotalQuantity   int
	SerialImported  int
	InventoryStatus string
	CompletedBy     string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DeriveInventoryStatus calcula el estado de avance a partir de los contadores.
// Se computa en cada escritura; no se confía en un campo fijado aparte.
func DeriveInventoryStatus(serialImported, totalQuantity int) string {
	switch {
	case serialImported <= 0:
		return InventoryStatusPending
	case serialImported < totalQuantity:
		return InventoryStatusInProgress
	default:
		return InventoryStatusCompleted
	}
}
