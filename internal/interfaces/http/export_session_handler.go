package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Activos-api/internal/application/dto"
	"github.com/jhoicas/Activos-api/internal/application/exportsession"
	"github.com/jhoicas/Activos-api/internal/infrastructure/metrics"
	"github.com/jhoicas/Activos-api/pkg/logger"
)

// ExportSessionHandler maneja las sesiones de escaneo de exportación (protegido).
type ExportSessionHandler struct {
	uc  *exportsession.SessionUseCase
	log *logger.Logger
}

// NewExportSessionHandler construye el handler.
func NewExportSessionHandler(uc *exportsession.SessionUseCase, log *logger.Logger) *ExportSessionHandler {
	return &ExportSessionHandler{uc: uc, log: log}
}

// Create godoc
// @Summary      Abrir sesión de escaneo para una exportación
// @Tags         export-sessions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        exportId  path  string                          true  "ID de la exportación"
// @Param        body      body  dto.CreateExportSessionRequest  true  "Datos de la sesión"
// @Success      201       {object}  entity.ExportSession
// @Failure      412       {object}  dto.ErrorResponse
// @Router       /api/exports/{exportId}/sessions [post]
func (h *ExportSessionHandler) Create(c *fiber.Ctx) error {
	exportID := c.Params("exportId")
	if exportID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "exportId es requerido"})
	}
	var in dto.CreateExportSessionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.CreateSession(c.UserContext(), exportID, in.Note, GetActorID(c))
	if err != nil {
		h.log.Warn().Err(err).Str("export_id", exportID).Msg("apertura de sesión rechazada")
		return mapDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID devuelve una sesión con sus ítems.
func (h *ExportSessionHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "id es requerido"})
	}
	out, err := h.uc.GetSession(c.UserContext(), id)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(out)
}

// Scan godoc
// @Summary      Escanear un serial dentro de la sesión
// @Tags         export-sessions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID de la sesión"
// @Param        body  body  dto.ScanSerialRequest  true  "Serial leído"
// @Success      200   {object}  entity.ExportSession
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      412   {object}  dto.ErrorResponse
// @Router       /api/export-sessions/{id}/scan [post]
func (h *ExportSessionHandler) Scan(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "id es requerido"})
	}
	var in dto.ScanSerialRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Serial == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "serial es requerido"})
	}
	out, err := h.uc.ScanSerial(c.UserContext(), id, in.Serial)
	if err != nil {
		metrics.ScansTotal.WithLabelValues("export", "error").Inc()
		return mapDomainError(c, err)
	}
	metrics.ScansTotal.WithLabelValues("export", "ok").Inc()
	return c.JSON(out)
}

// ScanBulk godoc
// @Summary      Escanear un lote de seriales con resultado por unidad
// @Tags         export-sessions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID de la sesión"
// @Param        body  body  dto.ScanBulkRequest  true  "Seriales leídos"
// @Success      200   {object}  exportsession.ScanReport
// @Router       /api/export-sessions/{id}/scan-bulk [post]
func (h *ExportSessionHandler) ScanBulk(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "id es requerido"})
	}
	var in dto.ScanBulkRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if len(in.Serials) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "serials es requerido"})
	}
	out, err := h.uc.ScanBulk(c.UserContext(), id, in.Serials)
	if err != nil {
		return mapDomainError(c, err)
	}
	metrics.ScansTotal.WithLabelValues("export", "ok").Add(float64(len(out.Success)))
	metrics.ScansTotal.WithLabelValues("export", "error").Add(float64(len(out.Errors)))
	return c.JSON(out)
}

// RemoveSerial quita un serial escaneado por error de la sesión.
func (h *ExportSessionHandler) RemoveSerial(c *fiber.Ctx) error {
	id := c.Params("id")
	serial := c.Params("serial")
	if id == "" || serial == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "id y serial son requeridos"})
	}
	out, err := h.uc.RemoveSerial(c.UserContext(), id, serial)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(out)
}

// Complete godoc
// @Summary      Cerrar la sesión y volcar sus ítems a la exportación
// @Tags         export-sessions
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la sesión"
// @Success      200  {object}  entity.ExportSession
// @Failure      412  {object}  dto.ErrorResponse
// @Router       /api/export-sessions/{id}/complete [post]
func (h *ExportSessionHandler) Complete(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "id es requerido"})
	}
	out, err := h.uc.CompleteSession(c.UserContext(), id, GetActorID(c))
	if err != nil {
		metrics.SessionCompletionsTotal.WithLabelValues("export", "error").Inc()
		h.log.Error().Err(err).Str("session_id", id).Msg("cierre de sesión de exportación fallido")
		return mapDomainError(c, err)
	}
	metrics.SessionCompletionsTotal.WithLabelValues("export", "ok").Inc()
	return c.JSON(out)
}

// ChangeStatus cambia el estado de la exportación validando el grafo de transiciones.
func (h *ExportSessionHandler) ChangeStatus(c *fiber.Ctx) error {
	exportID := c.Params("exportId")
	if exportID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "exportId es requerido"})
	}
	var in dto.ChangeExportStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "status es requerido"})
	}
	out, err := h.uc.ChangeStatus(c.UserContext(), exportID, in.Status, GetActorID(c))
	if err != nil {
		h.log.Warn().Err(err).Str("export_id", exportID).Str("status", in.Status).Msg("cambio de estado rechazado")
		return mapDomainError(c, err)
	}
	return c.JSON(out)
}
