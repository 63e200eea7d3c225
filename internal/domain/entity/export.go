package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un documento de exportación.
const (
	ExportStatusDraft           = "DRAFT"
	ExportStatusPendingApproval = "PENDING_APPROVAL"
	ExportStatusApproved        = "APPROVED"
	ExportStatusInProgress      = "IN_PROGRESS"
	ExportStatusCompleted       = "COMPLETED"
	ExportStatusRejected        = "REJECTED"
	ExportStatusCancelled       = "CANCELLED"
)

// exportStatusGraph define las transiciones de estado permitidas para Export.
// COMPLETED y CANCELLED son terminales (sin aristas de salida).
var exportStatusGraph = map[string][]string{
	ExportStatusDraft:           {ExportStatusPendingApproval, ExportStatusCancelled},
	ExportStatusPendingApproval: {ExportStatusApproved, ExportStatusRejected, ExportStatusDraft},
	ExportStatusApproved:        {ExportStatusInProgress, ExportStatusCancelled},
	ExportStatusInProgress:      {ExportStatusCompleted, ExportStatusCancelled},
	ExportStatusRejected:        {ExportStatusDraft},
}

// CanExportStatusChange es el único predicado que decide si un cambio de estado
// de Export es válido. Toda escritura de Status debe pasar por aquí.
func CanExportStatusChange(from, to string) bool {
	for _, next := range exportStatusGraph[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ExportRequirement es una línea de requerimiento del envío: cuántas unidades
// de un modelo deben salir y a qué precio unitario.
type ExportRequirement struct {
	ProductCode string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// ExportItem es un dispositivo ya comprometido en el envío. Solo crece vía el
// cierre de sesiones de escaneo (fold-in).
type ExportItem struct {
	Serial      string
	ProductCode string
	ExportPrice decimal.Decimal
}

// Export es el documento cabecera de un envío de venta.
// Invariantes: Status solo cambia por el grafo de arriba; TotalItems == len(Items).
type Export struct {
	ID            string
	Code          string
	Status        string
	Requirements  []ExportRequirement
	Items         []ExportItem
	TotalItems    int
	TotalQuantity int
	ApprovedBy    string
	ConfirmedBy   string
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RequirementFor devuelve la línea de requerimiento para un modelo, o nil si el
// modelo no forma parte del envío.
func (e *Export) RequirementFor(productCode string) *ExportRequirement {
	for i := range e.Requirements {
		if e.Requirements[i].ProductCode == productCode {
			return &e.Requirements[i]
		}
	}
	return nil
}
