package repository

import (
	"time"

	"github.com/jhoicas/Activos-api/internal/domain/entity"
)

// ExportSessionRepository define el puerto de persistencia para ExportSession.
type ExportSessionRepository interface {
	Create(session *entity.ExportSession) error
	// GetByID carga la sesión con sus items escaneados.
	GetByID(id string) (*entity.ExportSession, error)
	// AppendItems inserta los items y recalcula serial_checked en la misma
	// unidad. La restricción única (session_id, serial) respalda el chequeo de
	// duplicados bajo concurrencia; la violación se reporta como ErrDuplicateScan.
	AppendItems(sessionID string, items []entity.ExportSessionItem) error
	// RemoveItem borra el serial y recalcula serial_checked.
	RemoveItem(sessionID, serial string) error
	Complete(sessionID, actorID string, at time.Time) error
}
