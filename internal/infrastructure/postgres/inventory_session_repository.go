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

var _ repository.InventorySessionRepository = (*InventorySessionRepo)(nil)

// InventorySessionRepo implementación del puerto InventorySessionRepository
// sobre PostgreSQL (usable con pool o tx). La restricción única
// (session_id, serial) protege contra el doble escaneo concurrente.
type InventorySessionRepo struct {
	q Querier
}

// NewInventorySessionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventorySessionRepository(q Querier) *InventorySessionRepo {
	return &InventorySessionRepo{q: q}
}

const inventorySessionColumns = `id, import_id, code, name, note, status, total_scanned,
	created_by, completed_by, completed_at, created_at, updated_at`

// Create persiste una sesión nueva.
func (r *InventorySessionRepo) Create(session *entity.InventorySession) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	query := `
		INSERT INTO inventory_sessions (id, import_id, code, name, note, status, total_scanned, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(context.Background(), query,
		session.ID, session.ImportID, session.Code, session.Name, session.Note,
		session.Status, session.TotalScanned, session.CreatedBy, session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert inventory session: %w", err)
	}
	return nil
}

// GetByID carga la sesión con sus detalles escaneados.
func (r *InventorySessionRepo) GetByID(id string) (*entity.InventorySession, error) {
	ctx := context.Background()
	query := `SELECT ` + inventorySessionColumns + ` FROM inventory_sessions WHERE id = $1`
	s, err := r.scanSession(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inventory session: %w", err)
	}

	rows, err := r.q.Query(ctx, `
		SELECT serial, model, scanned_at FROM inventory_session_details
		WHERE session_id = $1 ORDER BY scanned_at`, id)
	if err != nil {
		return nil, fmt.Errorf("list session details: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var d entity.InventorySessionDetail
		if err := rows.Scan(&d.Serial, &d.Model, &d.ScannedAt); err != nil {
			return nil, fmt.Errorf("scan session detail: %w", err)
		}
		s.Details = append(s.Details, d)
	}
	return s, rows.Err()
}

// ListByImport lista las sesiones de un tiquete (sin detalles).
func (r *InventorySessionRepo) ListByImport(importID string) ([]*entity.InventorySession, error) {
	query := `SELECT ` + inventorySessionColumns + ` FROM inventory_sessions
		WHERE import_id = $1 ORDER BY created_at`
	rows, err := r.q.Query(context.Background(), query, importID)
	if err != nil {
		return nil, fmt.Errorf("list inventory sessions: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventorySession
	for rows.Next() {
		s, err := r.scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory session: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// AppendDetails inserta los detalles y recalcula total_scanned desde la propia
// tabla en la misma unidad, evitando updates perdidos con escaneos concurrentes.
func (r *InventorySessionRepo) AppendDetails(sessionID string, details []entity.InventorySessionDetail) error {
	ctx := context.Background()
	for _, d := range details {
		_, err := r.q.Exec(ctx, `
			INSERT INTO inventory_session_details (id, session_id, serial, model, scanned_at)
			VALUES ($1, $2, $3, $4, $5)`,
			uuid.New().String(), sessionID, d.Serial, d.Model, d.ScannedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: serial %s ya escaneado en la sesión", domain.ErrDuplicateScan, d.Serial)
			}
			return fmt.Errorf("insert session detail: %w", err)
		}
	}
	_, err := r.q.Exec(ctx, `
		UPDATE inventory_sessions SET
			total_scanned = (SELECT count(*) FROM inventory_session_details WHERE session_id = $1),
			updated_at = now()
		WHERE id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("recount session details: %w", err)
	}
	return nil
}

// UpdateInfo aplica un parche plano de nombre/nota.
func (r *InventorySessionRepo) UpdateInfo(sessionID, name, note string) error {
	_, err := r.q.Exec(context.Background(), `
		UPDATE inventory_sessions SET name = $2, note = $3, updated_at = now() WHERE id = $1`,
		sessionID, name, note,
	)
	if err != nil {
		return fmt.Errorf("update inventory session: %w", err)
	}
	return nil
}

// Complete marca la sesión completada. Solo transiciona desde processing:
// el cierre es terminal y no reentrante.
func (r *InventorySessionRepo) Complete(sessionID, actorID string, at time.Time) error {
	cmd, err := r.q.Exec(context.Background(), `
		UPDATE inventory_sessions SET status = $2, completed_by = $3, completed_at = $4, updated_at = $4
		WHERE id = $1 AND status = $5`,
		sessionID, entity.InventorySessionCompleted, actorID, at, entity.InventorySessionProcessing,
	)
	if err != nil {
		return fmt.Errorf("complete inventory session: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: la sesión ya no está en curso", domain.ErrConflict)
	}
	return nil
}

func (r *InventorySessionRepo) scanSession(row pgx.Row) (*entity.InventorySession, error) {
	var s entity.InventorySession
	var completedBy *string
	err := row.Scan(
		&s.ID, &s.ImportID, &s.Code, &s.Name, &s.Note, &s.Status, &s.TotalScanned,
		&s.CreatedBy, &completedBy, &s.CompletedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if completedBy != nil {
		s.CompletedBy = *completedBy
	}
	return &s, nil
}
