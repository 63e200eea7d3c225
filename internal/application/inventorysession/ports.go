package inventorysession

import (
	"context"

	"github.com/jhoicas/Activos-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD con los
// repositorios atados a esa tx. El cierre de una sesión de inventariado es el
// único punto del núcleo que exige atomicidad multi-documento real: alta de
// dispositivos, avance del tiquete y cierre de la sesión confirman juntos o se
// revierten juntos.
type TxRunner interface {
	RunInventory(ctx context.Context, fn func(
		deviceRepo repository.DeviceRepository,
		importRepo repository.DeviceImportRepository,
		sessionRepo repository.InventorySessionRepository,
	) error) error
}
