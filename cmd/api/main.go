package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jhoicas/Activos-api/internal/application/exportsession"
	"github.com/jhoicas/Activos-api/internal/application/inventorysession"
	"github.com/jhoicas/Activos-api/internal/application/transfer"
	"github.com/jhoicas/Activos-api/internal/infrastructure/metrics"
	"github.com/jhoicas/Activos-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Activos-api/internal/interfaces/http"
	"github.com/jhoicas/Activos-api/pkg/config"
	"github.com/jhoicas/Activos-api/pkg/logger"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   "info",
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	if err := runMigrations(cfg.DB.ConnectionString()); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	warehouseRepo := postgres.NewWarehouseRepository(pool)
	ruleRepo := postgres.NewTransitionRuleRepository(pool)
	deviceRepo := postgres.NewDeviceRepository(pool)
	historyRepo := postgres.NewDeviceHistoryRepository(pool)
	exportRepo := postgres.NewExportRepository(pool)
	exportSessionRepo := postgres.NewExportSessionRepository(pool)
	importRepo := postgres.NewDeviceImportRepository(pool)
	inventorySessionRepo := postgres.NewInventorySessionRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	transferUC := transfer.NewTransferUseCase(txRunner, deviceRepo, warehouseRepo, ruleRepo, historyRepo)
	exportSessionUC := exportsession.NewSessionUseCase(txRunner, exportRepo, exportSessionRepo, deviceRepo)
	inventorySessionUC := inventorysession.NewSessionUseCase(
		txRunner, inventorySessionRepo, importRepo, deviceRepo, warehouseRepo, categoryRepo,
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		TransferUC:         transferUC,
		ExportSessionUC:    exportSessionUC,
		InventorySessionUC: inventorySessionUC,
		Log:                log,
		JWTSecret:          cfg.JWT.Secret,
	})

	// Servidor auxiliar: /health y /metrics en un puerto aparte
	metricsSrv := metrics.NewServer(cfg.Metrics.Addr(), cfg.Metrics.Exposed)
	go func() {
		if err := metricsSrv.Start(); err != nil {
			log.Warn().Err(err).Msg("servidor de métricas finalizado")
		}
	}()

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor de métricas")
	}

	log.Info().Msg("aplicación detenida")
}

// runMigrations aplica las migraciones pendientes con goose antes de abrir el pool.
func runMigrations(dsn string) error {
	db, err := goose.OpenDBWithDriver("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return goose.Up(db, "migrations")
}
