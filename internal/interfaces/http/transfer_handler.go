package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Activos-api/internal/application/dto"
	"github.com/jhoicas/Activos-api/internal/application/transfer"
	"github.com/jhoicas/Activos-api/internal/infrastructure/metrics"
	"github.com/jhoicas/Activos-api/pkg/logger"
)

// TransferHandler maneja las peticiones HTTP de traslados de dispositivos (protegido).
type TransferHandler struct {
	uc  *transfer.TransferUseCase
	log *logger.Logger
}

// NewTransferHandler construye el handler.
func NewTransferHandler(uc *transfer.TransferUseCase, log *logger.Logger) *TransferHandler {
	return &TransferHandler{uc: uc, log: log}
}

// Transfer godoc
// @Summary      Trasladar un dispositivo a otra bodega
// @Tags         devices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID del dispositivo"
// @Param        body  body  dto.TransferRequest  true  "Destino del traslado"
// @Success      200   {object}  entity.Device
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/devices/{id}/transfer [post]
func (h *TransferHandler) Transfer(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "id es requerido"})
	}
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.ToWarehouseID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to_warehouse_id es requerido"})
	}
	out, err := h.uc.Transfer(c.UserContext(), transfer.TransferInput{
		DeviceID:      id,
		ToWarehouseID: in.ToWarehouseID,
		ActorID:       GetActorID(c),
		Roles:         GetRoles(c),
		Note:          in.Note,
		ErrorReason:   in.ErrorReason,
	})
	if err != nil {
		metrics.TransfersTotal.WithLabelValues("error").Inc()
		h.log.Warn().Err(err).Str("device_id", id).Str("to_warehouse_id", in.ToWarehouseID).Msg("traslado rechazado")
		return mapDomainError(c, err)
	}
	metrics.TransfersTotal.WithLabelValues("ok").Inc()
	return c.JSON(out)
}

// BulkTransfer godoc
// @Summary      Trasladar varios dispositivos con resultado por unidad
// @Tags         devices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BulkTransferRequest  true  "Dispositivos y destino"
// @Success      200   {object}  transfer.BulkResult
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/devices/bulk-transfer [post]
func (h *TransferHandler) BulkTransfer(c *fiber.Ctx) error {
	var in dto.BulkTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if len(in.DeviceIDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "device_ids es requerido"})
	}
	if in.ToWarehouseID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to_warehouse_id es requerido"})
	}
	out := h.uc.BulkTransfer(c.UserContext(), in.DeviceIDs, in.ToWarehouseID, GetActorID(c), GetRoles(c), in.Note, in.ErrorReason)
	metrics.TransfersTotal.WithLabelValues("ok").Add(float64(len(out.Success)))
	metrics.TransfersTotal.WithLabelValues("error").Add(float64(len(out.Errors)))
	if len(out.Errors) > 0 {
		h.log.Warn().Int("succeeded", len(out.Success)).Int("failed", len(out.Errors)).Msg("traslado masivo con fallos parciales")
	}
	return c.JSON(out)
}

// MoveToSold godoc
// @Summary      Cerrar venta: mover dispositivos por MAC a SOLD
// @Tags         devices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.MoveToSoldRequest  true  "MACs y código de exportación"
// @Success      200   {object}  map[string]int
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/devices/move-to-sold [post]
func (h *TransferHandler) MoveToSold(c *fiber.Ctx) error {
	var in dto.MoveToSoldRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if len(in.MACs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "macs es requerido"})
	}
	if in.ExportCode == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "export_code es requerido"})
	}
	moved, err := h.uc.MoveToSold(c.UserContext(), in.MACs, in.ExportCode, GetActorID(c))
	if err != nil {
		metrics.TransfersTotal.WithLabelValues("error").Inc()
		h.log.Error().Err(err).Str("export_code", in.ExportCode).Msg("cierre de venta fallido")
		return mapDomainError(c, err)
	}
	metrics.TransfersTotal.WithLabelValues("ok").Add(float64(moved))
	return c.JSON(fiber.Map{"moved": moved})
}

// History godoc
// @Summary      Historial de traslados de un dispositivo
// @Tags         devices
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "ID del dispositivo"
// @Param        limit   query  int     false  "Límite"   default(20)
// @Param        offset  query  int     false  "Offset"   default(0)
// @Success      200     {array}  entity.DeviceHistory
// @Router       /api/devices/{id}/history [get]
func (h *TransferHandler) History(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "id es requerido"})
	}
	page := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	page.DefaultPage()
	out, err := h.uc.HistoryByDevice(c.UserContext(), id, page.Limit, page.Offset)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(out)
}
