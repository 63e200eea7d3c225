package repository

import "github.com/jhoicas/Activos-api/internal/domain/entity"

// DeviceHistoryRepository es el puerto del libro mayor de traslados.
// Solo altas y lecturas: las entradas son inmutables.
type DeviceHistoryRepository interface {
	Create(history *entity.DeviceHistory) error
	CreateBatch(histories []*entity.DeviceHistory) error
	ListByDevice(deviceID string, limit, offset int) ([]*entity.DeviceHistory, error)
}
