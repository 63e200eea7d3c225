package repository

import "github.com/jhoicas/Activos-api/internal/domain/entity"

// TransitionRuleRepository es el puerto de lectura del grafo de traslados.
// El grafo es dato sembrado, de solo lectura durante la ejecución de traslados.
type TransitionRuleRepository interface {
	Create(rule *entity.TransitionRule) error
	// FindActive busca la regla activa para la arista (from, to).
	// from nil representa la arista externa de importación. Devuelve nil si no existe.
	FindActive(fromWarehouseID *string, toWarehouseID string) (*entity.TransitionRule, error)
	ListActive() ([]*entity.TransitionRule, error)
}
