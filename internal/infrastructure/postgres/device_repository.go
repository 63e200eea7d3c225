package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Activos-api/internal/domain"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
	"github.com/jhoicas/Activos-api/internal/domain/repository"
)

var _ repository.DeviceRepository = (*DeviceRepo)(nil)

// DeviceRepo implementación del puerto DeviceRepository sobre PostgreSQL (usable con pool o tx).
type DeviceRepo struct {
	q Querier
}

// NewDeviceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDeviceRepository(q Querier) *DeviceRepo {
	return &DeviceRepo{q: q}
}

const deviceColumns = `id, serial, mac, model, name, unit, warehouse_id, qc_status, qc_note,
	repair_note, warranty_note, remove_reason, remove_date, export_id, category_id, import_id,
	supplier, import_date, warehouse_updated_at, warehouse_updated_by, version, created_at, updated_at`

// Create persiste un dispositivo nuevo.
func (r *DeviceRepo) Create(device *entity.Device) error {
	if device.ID == "" {
		device.ID = uuid.New().String()
	}
	query := `
		INSERT INTO devices (` + deviceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`
	_, err := r.q.Exec(context.Background(), query, r.args(device)...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: serial %s", domain.ErrDuplicateScan, device.Serial)
		}
		return fmt.Errorf("insert device: %w", err)
	}
	return nil
}

// CreateBatch inserta todos los dispositivos de una vez (materialización de
// sesión de inventariado). Debe llamarse dentro de una transacción.
func (r *DeviceRepo) CreateBatch(devices []*entity.Device) error {
	for _, d := range devices {
		if err := r.Create(d); err != nil {
			return err
		}
	}
	return nil
}

// GetByID obtiene un dispositivo por ID.
func (r *DeviceRepo) GetByID(id string) (*entity.Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE id = $1`
	return r.scanOne(query, id)
}

// GetByIdentifier busca por serial o por MAC indistintamente.
func (r *DeviceRepo) GetByIdentifier(identifier string) (*entity.Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE serial = $1 OR mac = $1`
	return r.scanOne(query, identifier)
}

// ListByIdentifiers devuelve los dispositivos cuyo serial o MAC está en la lista.
func (r *DeviceRepo) ListByIdentifiers(identifiers []string) ([]*entity.Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE serial = ANY($1) OR mac = ANY($1)`
	rows, err := r.q.Query(context.Background(), query, identifiers)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()
	var list []*entity.Device
	for rows.Next() {
		d, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

// ExistingSerials devuelve el subconjunto de seriales que ya existen.
func (r *DeviceRepo) ExistingSerials(serials []string) ([]string, error) {
	rows, err := r.q.Query(context.Background(),
		`SELECT serial FROM devices WHERE serial = ANY($1)`, serials)
	if err != nil {
		return nil, fmt.Errorf("existing serials: %w", err)
	}
	defer rows.Close()
	var existing []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan serial: %w", err)
		}
		existing = append(existing, s)
	}
	return existing, rows.Err()
}

// UpdateVersioned aplica el UPDATE con compare-and-swap sobre version. Si la
// versión leída ya no está vigente (otro traslado ganó la carrera) devuelve
// ErrConflict sin tocar la fila.
func (r *DeviceRepo) UpdateVersioned(device *entity.Device) error {
	query := `
		UPDATE devices SET
			warehouse_id = $2, qc_status = $3, qc_note = $4, repair_note = $5,
			warranty_note = $6, remove_reason = $7, remove_date = $8, export_id = $9,
			warehouse_updated_at = $10, warehouse_updated_by = $11,
			version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $12`
	cmd, err := r.q.Exec(context.Background(), query,
		device.ID, device.WarehouseID, device.QCStatus, device.QCNote, device.RepairNote,
		device.WarrantyNote, device.RemoveReason, device.RemoveDate, device.ExportID,
		device.WarehouseUpdatedAt, device.WarehouseUpdatedBy, device.Version,
	)
	if err != nil {
		return fmt.Errorf("update device: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: el dispositivo %s fue modificado concurrentemente", domain.ErrConflict, device.ID)
	}
	return nil
}

// MoveToWarehouse reasigna en bloque la bodega de los dispositivos dados y
// normaliza un qc_status 'SOLD' extraviado de vuelta a PASS.
func (r *DeviceRepo) MoveToWarehouse(ids []string, warehouseID, actorID string, at time.Time) (int64, error) {
	query := `
		UPDATE devices SET
			warehouse_id = $1,
			warehouse_updated_at = $2,
			warehouse_updated_by = $3,
			qc_status = CASE WHEN qc_status = 'SOLD' THEN 'PASS' ELSE qc_status END,
			version = version + 1,
			updated_at = $2
		WHERE id = ANY($4)`
	cmd, err := r.q.Exec(context.Background(), query, warehouseID, at, actorID, ids)
	if err != nil {
		return 0, fmt.Errorf("move devices: %w", err)
	}
	return cmd.RowsAffected(), nil
}

func (r *DeviceRepo) args(d *entity.Device) []any {
	return []any{
		d.ID, d.Serial, d.MAC, d.Model, d.Name, d.Unit, d.WarehouseID, d.QCStatus, d.QCNote,
		d.RepairNote, d.WarrantyNote, d.RemoveReason, d.RemoveDate, d.ExportID, d.CategoryID,
		d.ImportID, d.Supplier, d.ImportDate, d.WarehouseUpdatedAt, d.WarehouseUpdatedBy,
		d.Version, d.CreatedAt, d.UpdatedAt,
	}
}

func (r *DeviceRepo) scanOne(query string, arg any) (*entity.Device, error) {
	row := r.q.QueryRow(context.Background(), query, arg)
	d, err := scanDevice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get device: %w", err)
	}
	return d, nil
}

func (r *DeviceRepo) scanRow(rows pgx.Rows) (*entity.Device, error) {
	d, err := scanDevice(rows)
	if err != nil {
		return nil, fmt.Errorf("scan device: %w", err)
	}
	return d, nil
}

func scanDevice(row pgx.Row) (*entity.Device, error) {
	var d entity.Device
	err := row.Scan(
		&d.ID, &d.Serial, &d.MAC, &d.Model, &d.Name, &d.Unit, &d.WarehouseID, &d.QCStatus, &d.QCNote,
		&d.RepairNote, &d.WarrantyNote, &d.RemoveReason, &d.RemoveDate, &d.ExportID, &d.CategoryID,
		&d.ImportID, &d.Supplier, &d.ImportDate, &d.WarehouseUpdatedAt, &d.WarehouseUpdatedBy,
		&d.Version, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
