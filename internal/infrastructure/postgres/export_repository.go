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

var _ repository.ExportRepository = (*ExportRepo)(nil)

// ExportRepo implementación del puerto ExportRepository sobre PostgreSQL (usable con pool o tx).
type ExportRepo struct {
	q Querier
}

// NewExportRepository construye el adaptador. Pasar pool o tx (Querier).
func NewExportRepository(q Querier) *ExportRepo {
	return &ExportRepo{q: q}
}

// Create persiste la cabecera con sus requerimientos.
func (r *ExportRepo) Create(export *entity.Export) error {
	if export.ID == "" {
		export.ID = uuid.New().String()
	}
	ctx := context.Background()
	query := `
		INSERT INTO exports (id, code, status, total_items, total_quantity, approved_by, confirmed_by, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		export.ID, export.Code, export.Status, export.TotalItems, export.TotalQuantity,
		export.ApprovedBy, export.ConfirmedBy, export.CreatedBy, export.CreatedAt, export.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert export: %w", err)
	}
	for _, req := range export.Requirements {
		_, err := r.q.Exec(ctx, `
			INSERT INTO export_requirements (id, export_id, product_code, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5)`,
			uuid.New().String(), export.ID, req.ProductCode, req.Quantity, req.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("insert export requirement: %w", err)
		}
	}
	return nil
}

// GetByID carga la cabecera con requerimientos e items.
func (r *ExportRepo) GetByID(id string) (*entity.Export, error) {
	ctx := context.Background()
	query := `
		SELECT id, code, status, total_items, total_quantity, approved_by, confirmed_by, created_by, created_at, updated_at
		FROM exports WHERE id = $1`
	var e entity.Export
	err := r.q.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.Code, &e.Status, &e.TotalItems, &e.TotalQuantity,
		&e.ApprovedBy, &e.ConfirmedBy, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get export: %w", err)
	}

	reqRows, err := r.q.Query(ctx, `
		SELECT product_code, quantity, unit_price FROM export_requirements WHERE export_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("list export requirements: %w", err)
	}
	defer reqRows.Close()
	for reqRows.Next() {
		var req entity.ExportRequirement
		if err := reqRows.Scan(&req.ProductCode, &req.Quantity, &req.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan export requirement: %w", err)
		}
		e.Requirements = append(e.Requirements, req)
	}
	if err := reqRows.Err(); err != nil {
		return nil, err
	}

	itemRows, err := r.q.Query(ctx, `
		SELECT serial, product_code, export_price FROM export_items WHERE export_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("list export items: %w", err)
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var item entity.ExportItem
		if err := itemRows.Scan(&item.Serial, &item.ProductCode, &item.ExportPrice); err != nil {
			return nil, fmt.Errorf("scan export item: %w", err)
		}
		e.Items = append(e.Items, item)
	}
	return &e, itemRows.Err()
}

// UpdateStatus escribe el nuevo estado, registrando quién aprobó/confirmó
// cuando aplica. La validación del grafo ocurre en el caso de uso.
func (r *ExportRepo) UpdateStatus(id, status, actorID string) error {
	query := `
		UPDATE exports SET
			status = $2,
			approved_by = CASE WHEN $2 = 'APPROVED' THEN $3 ELSE approved_by END,
			confirmed_by = CASE WHEN $2 = 'COMPLETED' THEN $3 ELSE confirmed_by END,
			updated_at = now()
		WHERE id = $1`
	cmd, err := r.q.Exec(context.Background(), query, id, status, actorID)
	if err != nil {
		return fmt.Errorf("update export status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("update export status: exportación %s no existe", id)
	}
	return nil
}

// AppendItems agrega items plegados desde una sesión y suma total_items.
// Debe llamarse dentro de una transacción junto con el cierre de la sesión.
func (r *ExportRepo) AppendItems(id string, items []entity.ExportItem) error {
	ctx := context.Background()
	for _, item := range items {
		_, err := r.q.Exec(ctx, `
			INSERT INTO export_items (id, export_id, serial, product_code, export_price)
			VALUES ($1, $2, $3, $4, $5)`,
			uuid.New().String(), id, item.Serial, item.ProductCode, item.ExportPrice,
		)
		if err != nil {
			return fmt.Errorf("insert export item: %w", err)
		}
	}
	_, err := r.q.Exec(ctx, `
		UPDATE exports SET total_items = total_items + $2, updated_at = now() WHERE id = $1`,
		id, len(items),
	)
	if err != nil {
		return fmt.Errorf("update export totals: %w", err)
	}
	return nil
}
