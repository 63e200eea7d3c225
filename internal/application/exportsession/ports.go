package exportsession

import (
	"context"

	"github.com/jhoicas/Activos-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD con los
// repositorios de exportación atados a esa tx. El fold-in de items y el cierre
// de la sesión deben confirmarse juntos o no confirmarse.
type TxRunner interface {
	RunExport(ctx context.Context, fn func(
		exportRepo repository.ExportRepository,
		sessionRepo repository.ExportSessionRepository,
	) error) error
}
