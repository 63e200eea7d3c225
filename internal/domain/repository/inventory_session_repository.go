package repository

import (
	"time"

	"github.com/jhoicas/Activos-api/internal/domain/entity"
)

// InventorySessionRepository define el puerto de persistencia para InventorySession.
type InventorySessionRepository interface {
	Create(session *entity.InventorySession) error
	// GetByID carga la sesión con sus detalles escaneados.
	GetByID(id string) (*entity.InventorySession, error)
	ListByImport(importID string) ([]*entity.InventorySession, error)
	// AppendDetails inserta los detalles en bloque y suma total_scanned en la
	// misma unidad, evitando updates perdidos con escaneos concurrentes.
	AppendDetails(sessionID string, details []entity.InventorySessionDetail) error
	// UpdateInfo aplica un parche plano de nombre/nota sin efectos secundarios.
	UpdateInfo(sessionID, name, note string) error
	Complete(sessionID, actorID string, at time.Time) error
}
