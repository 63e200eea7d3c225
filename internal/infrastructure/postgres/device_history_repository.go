package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
	"github.com/jhoicas/Activos-api/internal/domain/repository"
)

var _ repository.DeviceHistoryRepository = (*DeviceHistoryRepo)(nil)

// DeviceHistoryRepo libro mayor de traslados sobre PostgreSQL: solo INSERT y
// SELECT, nunca UPDATE ni DELETE.
type DeviceHistoryRepo struct {
	q Querier
}

// NewDeviceHistoryRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDeviceHistoryRepository(q Querier) *DeviceHistoryRepo {
	return &DeviceHistoryRepo{q: q}
}

// Create persiste una entrada de historial.
func (r *DeviceHistoryRepo) Create(history *entity.DeviceHistory) error {
	if history.ID == "" {
		history.ID = uuid.New().String()
	}
	query := `
		INSERT INTO device_histories (id, device_id, from_warehouse_id, to_warehouse_id, actor_id, kind, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(context.Background(), query,
		history.ID, history.DeviceID, history.FromWarehouseID, history.ToWarehouseID,
		history.ActorID, history.Kind, history.Note, history.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert device history: %w", err)
	}
	return nil
}

// CreateBatch persiste varias entradas (traslado masivo a SOLD).
func (r *DeviceHistoryRepo) CreateBatch(histories []*entity.DeviceHistory) error {
	for _, h := range histories {
		if err := r.Create(h); err != nil {
			return err
		}
	}
	return nil
}

// ListByDevice lista el historial de un dispositivo, más reciente primero.
func (r *DeviceHistoryRepo) ListByDevice(deviceID string, limit, offset int) ([]*entity.DeviceHistory, error) {
	query := `
		SELECT id, device_id, from_warehouse_id, to_warehouse_id, actor_id, kind, note, created_at
		FROM device_histories WHERE device_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, deviceID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list device histories: %w", err)
	}
	defer rows.Close()
	var list []*entity.DeviceHistory
	for rows.Next() {
		var h entity.DeviceHistory
		if err := rows.Scan(&h.ID, &h.DeviceID, &h.FromWarehouseID, &h.ToWarehouseID,
			&h.ActorID, &h.Kind, &h.Note, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan device history: %w", err)
		}
		list = append(list, &h)
	}
	return list, rows.Err()
}
