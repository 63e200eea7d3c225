package repository

import "github.com/jhoicas/Activos-api/internal/domain/entity"

// ExportRepository define el puerto de persistencia para Export (DIP).
type ExportRepository interface {
	Create(export *entity.Export) error
	// GetByID carga la cabecera con sus requerimientos e items.
	GetByID(id string) (*entity.Export, error)
	// UpdateStatus escribe el nuevo estado. La validación contra el grafo de
	// estados es responsabilidad del caso de uso, no del repositorio.
	UpdateStatus(id, status, actorID string) error
	// AppendItems agrega items a la cabecera y suma el contador total_items.
	// Debe usarse dentro de una transacción junto con el cierre de la sesión.
	AppendItems(id string, items []entity.ExportItem) error
}
