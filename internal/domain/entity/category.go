package entity

import "time"

// Category clasifica dispositivos por tipo de producto. Se usa al materializar
// dispositivos desde una sesión de inventariado para asignarles categoría.
type Category struct {
	ID          string
	Code        string
	Name        string
	ProductType string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
