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

var _ repository.DeviceImportRepository = (*DeviceImportRepo)(nil)

// DeviceImportRepo implementación del puerto DeviceImportRepository sobre
// PostgreSQL (usable con pool o tx).
type DeviceImportRepo struct {
	q Querier
}

// NewDeviceImportRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDeviceImportRepository(q Querier) *DeviceImportRepo {
	return &DeviceImportRepo{q: q}
}

// Create persiste el tiquete con sus líneas de producto.
func (r *DeviceImportRepo) Create(imp *entity.DeviceImport) error {
	if imp.ID == "" {
		imp.ID = uuid.New().String()
	}
	ctx := context.Background()
	query := `
		INSERT INTO device_imports (id, code, status, product_type, supplier, import_date,
			total_quantity, serial_imported, inventory_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		imp.ID, imp.Code, imp.Status, imp.ProductType, imp.Supplier, imp.ImportDate,
		imp.TotalQuantity, imp.SerialImported, imp.InventoryStatus, imp.CreatedAt, imp.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert device import: %w", err)
	}
	for _, p := range imp.Products {
		_, err := r.q.Exec(ctx, `
			INSERT INTO import_products (id, import_id, product_code, quantity, serial_imported)
			VALUES ($1, $2, $3, $4, $5)`,
			uuid.New().String(), imp.ID, p.ProductCode, p.Quantity, p.SerialImported,
		)
		if err != nil {
			return fmt.Errorf("insert import product: %w", err)
		}
	}
	return nil
}

// GetByID carga el tiquete con sus líneas de producto.
func (r *DeviceImportRepo) GetByID(id string) (*entity.DeviceImport, error) {
	ctx := context.Background()
	query := `
		SELECT id, code, status, product_type, supplier, import_date, total_quantity,
		       serial_imported, inventory_status, completed_by, created_at, updated_at
		FROM device_imports WHERE id = $1`
	var imp entity.DeviceImport
	var completedBy *string
	err := r.q.QueryRow(ctx, query, id).Scan(
		&imp.ID, &imp.Code, &imp.Status, &imp.ProductType, &imp.Supplier, &imp.ImportDate,
		&imp.TotalQuantity, &imp.SerialImported, &imp.InventoryStatus, &completedBy,
		&imp.CreatedAt, &imp.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get device import: %w", err)
	}
	if completedBy != nil {
		imp.CompletedBy = *completedBy
	}

	rows, err := r.q.Query(ctx, `
		SELECT product_code, quantity, serial_imported FROM import_products WHERE import_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("list import products: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p entity.ImportProduct
		if err := rows.Scan(&p.ProductCode, &p.Quantity, &p.SerialImported); err != nil {
			return nil, fmt.Errorf("scan import product: %w", err)
		}
		imp.Products = append(imp.Products, p)
	}
	return &imp, rows.Err()
}

// UpdateProgress escribe el acumulado de seriales, el estado derivado y suma
// los contadores por producto de la sesión recién cerrada.
func (r *DeviceImportRepo) UpdateProgress(id string, serialImported int, inventoryStatus string, productCounts map[string]int) error {
	ctx := context.Background()
	_, err := r.q.Exec(ctx, `
		UPDATE device_imports SET serial_imported = $2, inventory_status = $3, updated_at = now()
		WHERE id = $1`,
		id, serialImported, inventoryStatus,
	)
	if err != nil {
		return fmt.Errorf("update import progress: %w", err)
	}
	for code, n := range productCounts {
		_, err := r.q.Exec(ctx, `
			UPDATE import_products SET serial_imported = serial_imported + $3
			WHERE import_id = $1 AND product_code = $2`,
			id, code, n,
		)
		if err != nil {
			return fmt.Errorf("update import product progress: %w", err)
		}
	}
	return nil
}

// Complete cierra el tiquete registrando quién lo cerró.
func (r *DeviceImportRepo) Complete(id, actorID string) error {
	cmd, err := r.q.Exec(context.Background(), `
		UPDATE device_imports SET inventory_status = $2, completed_by = $3, updated_at = now()
		WHERE id = $1`,
		id, entity.InventoryStatusCompleted, actorID,
	)
	if err != nil {
		return fmt.Errorf("complete device import: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("complete device import: importación %s no existe", id)
	}
	return nil
}
