package repository

import "github.com/jhoicas/Activos-api/internal/domain/entity"

// DeviceImportRepository define el puerto de persistencia para DeviceImport.
type DeviceImportRepository interface {
	Create(imp *entity.DeviceImport) error
	// GetByID carga el tiquete con sus líneas de producto.
	GetByID(id string) (*entity.DeviceImport, error)
	// UpdateProgress escribe el acumulado de seriales, el estado derivado y los
	// contadores por producto de la sesión recién cerrada.
	UpdateProgress(id string, serialImported int, inventoryStatus string, productCounts map[string]int) error
	// Complete cierra el tiquete. Las precondiciones las valida el caso de uso.
	Complete(id, actorID string) error
}
