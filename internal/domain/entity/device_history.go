package entity

import "time"

// DeviceHistory es una entrada del libro mayor de traslados: inmutable una vez
// escrita, una entrada por traslado ejecutado (individual o dentro de un bulk).
type DeviceHistory struct {
	ID              string
	DeviceID        string
	FromWarehouseID *string
	ToWarehouseID   string
	ActorID         string
	Kind            string
	Note            string
	CreatedAt       time.Time
}
