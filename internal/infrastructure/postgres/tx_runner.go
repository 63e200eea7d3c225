package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/Activos-api/internal/application/exportsession"
	"github.com/jhoicas/Activos-api/internal/application/inventorysession"
	"github.com/jhoicas/Activos-api/internal/application/transfer"
	"github.com/jhoicas/Activos-api/internal/domain/repository"
)

// Ensure TxRunner implementa los puertos transaccionales de los tres motores.
var _ transfer.TxRunner = (*TxRunner)(nil)
var _ exportsession.TxRunner = (*TxRunner)(nil)
var _ inventorysession.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción para un traslado: dispositivo + historial.
func (r *TxRunner) Run(ctx context.Context, fn func(
	deviceRepo repository.DeviceRepository,
	historyRepo repository.DeviceHistoryRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewDeviceRepository(tx), NewDeviceHistoryRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunExport inicia una transacción para sesiones de exportación: cabecera + sesión.
func (r *TxRunner) RunExport(ctx context.Context, fn func(
	exportRepo repository.ExportRepository,
	sessionRepo repository.ExportSessionRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewExportRepository(tx), NewExportSessionRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunInventory inicia la transacción del cierre de inventariado: alta de
// dispositivos + avance del tiquete + cierre de la sesión.
func (r *TxRunner) RunInventory(ctx context.Context, fn func(
	deviceRepo repository.DeviceRepository,
	importRepo repository.DeviceImportRepository,
	sessionRepo repository.InventorySessionRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewDeviceRepository(tx), NewDeviceImportRepository(tx), NewInventorySessionRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
