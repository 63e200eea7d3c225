package dto

// CreateExportSessionRequest apertura de una sesión de escaneo de exportación.
type CreateExportSessionRequest struct {
	Note string `json:"note"`
}

// ScanSerialRequest escaneo individual.
type ScanSerialRequest struct {
	Serial string `json:"serial" validate:"required"`
}

// ScanBulkRequest escaneo por lotes.
type ScanBulkRequest struct {
	Serials []string `json:"serials" validate:"required,min=1"`
}

// ChangeExportStatusRequest cambio de estado de la exportación.
type ChangeExportStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// CreateInventorySessionRequest apertura de una sesión de inventariado.
type CreateInventorySessionRequest struct {
	Name string `json:"name" validate:"required"`
	Note string `json:"note"`
}

// ScannedItemDTO serial leído junto con el modelo de la etiqueta.
type ScannedItemDTO struct {
	Serial string `json:"serial" validate:"required"`
	Model  string `json:"model"`
}

// UpdateInventorySessionRequest parche de sesión: cierre, escaneos o campos planos.
type UpdateInventorySessionRequest struct {
	Status       string           `json:"status"`
	ScannedItems []ScannedItemDTO `json:"scanned_items"`
	Name         *string          `json:"name"`
	Note         *string          `json:"note"`
}
