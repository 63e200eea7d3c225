package dto

// TransferRequest traslado de un dispositivo a otra bodega.
type TransferRequest struct {
	ToWarehouseID string `json:"to_warehouse_id" validate:"required"`
	Note          string `json:"note"`
	ErrorReason   string `json:"error_reason"`
}

// BulkTransferRequest traslado masivo con resultados por dispositivo.
type BulkTransferRequest struct {
	DeviceIDs     []string `json:"device_ids" validate:"required,min=1"`
	ToWarehouseID string   `json:"to_warehouse_id" validate:"required"`
	Note          string   `json:"note"`
	ErrorReason   string   `json:"error_reason"`
}

// MoveToSoldRequest cierre de venta: pasa los dispositivos por MAC a SOLD.
type MoveToSoldRequest struct {
	MACs       []string `json:"macs" validate:"required,min=1"`
	ExportCode string   `json:"export_code" validate:"required"`
}
