package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
	"github.com/jhoicas/Activos-api/internal/domain/repository"
)

var _ repository.TransitionRuleRepository = (*TransitionRuleRepo)(nil)

// TransitionRuleRepo implementación del puerto TransitionRuleRepository sobre PostgreSQL.
type TransitionRuleRepo struct {
	q Querier
}

// NewTransitionRuleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransitionRuleRepository(q Querier) *TransitionRuleRepo {
	return &TransitionRuleRepo{q: q}
}

// Create persiste una regla de transición.
func (r *TransitionRuleRepo) Create(rule *entity.TransitionRule) error {
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	query := `
		INSERT INTO transition_rules (id, from_warehouse_id, to_warehouse_id, kind, allowed_roles, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(context.Background(), query,
		rule.ID, rule.FromWarehouseID, rule.ToWarehouseID, rule.Kind,
		rule.AllowedRoles, rule.Active, rule.CreatedAt, rule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transition rule: %w", err)
	}
	return nil
}

// FindActive busca la regla activa para la arista (from, to). from nil
// representa la arista de importación. Devuelve nil si no hay regla.
func (r *TransitionRuleRepo) FindActive(fromWarehouseID *string, toWarehouseID string) (*entity.TransitionRule, error) {
	query := `
		SELECT id, from_warehouse_id, to_warehouse_id, kind, allowed_roles, active, created_at, updated_at
		FROM transition_rules
		WHERE to_warehouse_id = $2 AND active
		  AND from_warehouse_id IS NOT DISTINCT FROM $1`
	var rule entity.TransitionRule
	err := r.q.QueryRow(context.Background(), query, fromWarehouseID, toWarehouseID).Scan(
		&rule.ID, &rule.FromWarehouseID, &rule.ToWarehouseID, &rule.Kind,
		&rule.AllowedRoles, &rule.Active, &rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find transition rule: %w", err)
	}
	return &rule, nil
}

// ListActive devuelve el grafo de transiciones vigente.
func (r *TransitionRuleRepo) ListActive() ([]*entity.TransitionRule, error) {
	query := `
		SELECT id, from_warehouse_id, to_warehouse_id, kind, allowed_roles, active, created_at, updated_at
		FROM transition_rules WHERE active ORDER BY kind`
	rows, err := r.q.Query(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("list transition rules: %w", err)
	}
	defer rows.Close()
	var list []*entity.TransitionRule
	for rows.Next() {
		var rule entity.TransitionRule
		if err := rows.Scan(&rule.ID, &rule.FromWarehouseID, &rule.ToWarehouseID, &rule.Kind,
			&rule.AllowedRoles, &rule.Active, &rule.CreatedAt, &rule.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan transition rule: %w", err)
		}
		list = append(list, &rule)
	}
	return list, rows.Err()
}
