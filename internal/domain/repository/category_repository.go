package repository

import "github.com/jhoicas/Activos-api/internal/domain/entity"

// CategoryRepository define el puerto de persistencia para Category (DIP).
type CategoryRepository interface {
	Create(category *entity.Category) error
	GetByID(id string) (*entity.Category, error)
	// GetByProductType devuelve la categoría asociada a un tipo de producto,
	// o nil si no hay ninguna configurada.
	GetByProductType(productType string) (*entity.Category, error)
}
