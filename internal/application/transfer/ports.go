package transfer

import (
	"context"

	"github.com/jhoicas/Activos-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Cada traslado escribe el dispositivo y su
// entrada de historial como una sola unidad.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		deviceRepo repository.DeviceRepository,
		historyRepo repository.DeviceHistoryRepository,
	) error) error
}
