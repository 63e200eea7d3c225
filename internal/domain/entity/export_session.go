package entity

import "time"

// Estados de una sesión de escaneo de exportación.
const (
	ExportSessionInProgress = "IN_PROGRESS"
	ExportSessionCompleted  = "COMPLETED"
	ExportSessionCancelled  = "CANCELLED"
)

// ExportSessionItem es un serial verificado físicamente dentro de la sesión.
type ExportSessionItem struct {
	Serial      string
	ProductCode string
	ScannedAt   time.Time
}

// ExportSession acumula escaneos de seriales contra los requerimientos de un
// envío antes de comprometerlos en la cabecera (fold-in al completar).
// Invariantes: SerialChecked == len(Items); un serial aparece a lo sumo una vez.
type ExportSession struct {
	ID            string
	ExportID      string
	Code          string
	Status        string
	Note          string
	Items         []ExportSessionItem
	SerialTotal   int
	SerialChecked int
	CreatedBy     string
	CompletedBy   string
	CompletedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasSerial indica si el serial ya fue escaneado en esta sesión.
func (s *ExportSession) HasSerial(serial string) bool {
	for i := range s.Items {
		if s.Items[i].Serial == serial {
			return true
		}
	}
	return false
}
