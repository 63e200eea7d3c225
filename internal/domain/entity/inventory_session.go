package entity

import "time"

// Estados de una sesión de inventariado.
const (
	InventorySessionProcessing = "processing"
	InventorySessionCompleted  = "completed"
	InventorySessionCancelled  = "cancelled"
)

// InventorySessionDetail es un serial escaneado durante la sesión, con el
// modelo leído de la etiqueta.
type InventorySessionDetail struct {
	Serial    string
	Model     string
	ScannedAt time.Time
}

// InventorySession acumula escaneos contra una importación antes de
// materializarlos como dispositivos. Completarla es terminal y dispara la
// creación de dispositivos más la actualización de avance del tiquete padre,
// todo en una sola transacción.
type InventorySession struct {
	ID           string
	ImportID     string
	Code         string
	Name         string
	Note         string
	Status       string
	Details      []InventorySessionDetail
	TotalScanned int
	CreatedBy    string
	CompletedBy  string
	CompletedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasSerial indica si el serial ya fue escaneado en esta sesión.
func (s *InventorySession) HasSerial(serial string) bool {
	for i := range s.Details {
		if s.Details[i].Serial == serial {
			return true
		}
	}
	return false
}
