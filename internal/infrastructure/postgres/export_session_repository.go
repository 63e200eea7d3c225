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

var _ repository.ExportSessionRepository = (*ExportSessionRepo)(nil)

// ExportSessionRepo implementación del puerto ExportSessionRepository sobre
// PostgreSQL (usable con pool o tx). La restricción única (session_id, serial)
// de export_session_items cierra la carrera de doble escaneo concurrente.
type ExportSessionRepo struct {
	q Querier
}

// NewExportSessionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewExportSessionRepository(q Querier) *ExportSessionRepo {
	return &ExportSessionRepo{q: q}
}

// Create persiste una sesión nueva.
func (r *ExportSessionRepo) Create(session *entity.ExportSession) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	query := `
		INSERT INTO export_sessions (id, export_id, code, status, note, serial_total, serial_checked, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(context.Background(), query,
		session.ID, session.ExportID, session.Code, session.Status, session.Note,
		session.SerialTotal, session.SerialChecked, session.CreatedBy, session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert export session: %w", err)
	}
	return nil
}

// GetByID carga la sesión con sus items escaneados.
func (r *ExportSessionRepo) GetByID(id string) (*entity.ExportSession, error) {
	ctx := context.Background()
	query := `
		SELECT id, export_id, code, status, note, serial_total, serial_checked,
		       created_by, completed_by, completed_at, created_at, updated_at
		FROM export_sessions WHERE id = $1`
	var s entity.ExportSession
	var completedBy *string
	err := r.q.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.ExportID, &s.Code, &s.Status, &s.Note, &s.SerialTotal, &s.SerialChecked,
		&s.CreatedBy, &completedBy, &s.CompletedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get export session: %w", err)
	}
	if completedBy != nil {
		s.CompletedBy = *completedBy
	}

	rows, err := r.q.Query(ctx, `
		SELECT serial, product_code, scanned_at FROM export_session_items
		WHERE session_id = $1 ORDER BY scanned_at`, id)
	if err != nil {
		return nil, fmt.Errorf("list session items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var item entity.ExportSessionItem
		if err := rows.Scan(&item.Serial, &item.ProductCode, &item.ScannedAt); err != nil {
			return nil, fmt.Errorf("scan session item: %w", err)
		}
		s.Items = append(s.Items, item)
	}
	return &s, rows.Err()
}

// AppendItems inserta los items y recalcula serial_checked desde la propia
// tabla, de modo que serial_checked == len(items) por construcción.
func (r *ExportSessionRepo) AppendItems(sessionID string, items []entity.ExportSessionItem) error {
	ctx := context.Background()
	for _, item := range items {
		_, err := r.q.Exec(ctx, `
			INSERT INTO export_session_items (id, session_id, serial, product_code, scanned_at)
			VALUES ($1, $2, $3, $4, $5)`,
			uuid.New().String(), sessionID, item.Serial, item.ProductCode, item.ScannedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: serial %s ya escaneado en la sesión", domain.ErrDuplicateScan, item.Serial)
			}
			return fmt.Errorf("insert session item: %w", err)
		}
	}
	return r.recount(sessionID)
}

// RemoveItem borra el serial y recalcula serial_checked.
func (r *ExportSessionRepo) RemoveItem(sessionID, serial string) error {
	cmd, err := r.q.Exec(context.Background(), `
		DELETE FROM export_session_items WHERE session_id = $1 AND serial = $2`,
		sessionID, serial,
	)
	if err != nil {
		return fmt.Errorf("delete session item: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: serial %s no está en la sesión", domain.ErrNotFound, serial)
	}
	return r.recount(sessionID)
}

// Complete marca la sesión COMPLETED. Solo transiciona desde IN_PROGRESS:
// la sesión completada es inmutable y el cierre no es reentrante.
func (r *ExportSessionRepo) Complete(sessionID, actorID string, at time.Time) error {
	cmd, err := r.q.Exec(context.Background(), `
		UPDATE export_sessions SET status = $2, completed_by = $3, completed_at = $4, updated_at = $4
		WHERE id = $1 AND status = $5`,
		sessionID, entity.ExportSessionCompleted, actorID, at, entity.ExportSessionInProgress,
	)
	if err != nil {
		return fmt.Errorf("complete export session: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: la sesión ya no está en curso", domain.ErrConflict)
	}
	return nil
}

func (r *ExportSessionRepo) recount(sessionID string) error {
	_, err := r.q.Exec(context.Background(), `
		UPDATE export_sessions SET
			serial_checked = (SELECT count(*) FROM export_session_items WHERE session_id = $1),
			updated_at = now()
		WHERE id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("recount session items: %w", err)
	}
	return nil
}
