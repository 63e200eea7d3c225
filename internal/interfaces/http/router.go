package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Activos-api/internal/application/exportsession"
	"github.com/jhoicas/Activos-api/internal/application/inventorysession"
	"github.com/jhoicas/Activos-api/internal/application/transfer"
	"github.com/jhoicas/Activos-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	TransferUC         *transfer.TransferUseCase
	ExportSessionUC    *exportsession.SessionUseCase
	InventorySessionUC *inventorysession.SessionUseCase
	Log                *logger.Logger
	JWTSecret          string
}

// Router registra las rutas de la API. Todas las operaciones mutan inventario,
// así que todo el árbol va detrás del Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Dispositivos: traslados e historial
	devices := api.Group("/devices")
	transferHandler := NewTransferHandler(deps.TransferUC, deps.Log)
	devices.Post("/bulk-transfer", transferHandler.BulkTransfer)
	devices.Post("/move-to-sold", transferHandler.MoveToSold)
	devices.Post("/:id/transfer", transferHandler.Transfer)
	devices.Get("/:id/history", transferHandler.History)

	// Exportaciones: estado y sesiones de escaneo
	exports := api.Group("/exports")
	exportHandler := NewExportSessionHandler(deps.ExportSessionUC, deps.Log)
	exports.Post("/:exportId/sessions", exportHandler.Create)
	exports.Post("/:exportId/status", exportHandler.ChangeStatus)

	exportSessions := api.Group("/export-sessions")
	exportSessions.Get("/:id", exportHandler.GetByID)
	exportSessions.Post("/:id/scan", exportHandler.Scan)
	exportSessions.Post("/:id/scan-bulk", exportHandler.ScanBulk)
	exportSessions.Delete("/:id/items/:serial", exportHandler.RemoveSerial)
	exportSessions.Post("/:id/complete", exportHandler.Complete)

	// Importaciones: sesiones de inventariado y cierre
	imports := api.Group("/imports")
	inventoryHandler := NewInventorySessionHandler(deps.InventorySessionUC, deps.Log)
	imports.Post("/:importId/sessions", inventoryHandler.Create)
	imports.Get("/:importId/sessions", inventoryHandler.ListByImport)
	imports.Post("/:importId/complete", inventoryHandler.CompleteImport)

	inventorySessions := api.Group("/inventory-sessions")
	inventorySessions.Get("/:id", inventoryHandler.GetByID)
	inventorySessions.Put("/:id", inventoryHandler.Update)
}
