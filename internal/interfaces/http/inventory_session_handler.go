package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Activos-api/internal/application/dto"
	"github.com/jhoicas/Activos-api/internal/application/inventorysession"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
	"github.com/jhoicas/Activos-api/internal/infrastructure/metrics"
	"github.com/jhoicas/Activos-api/pkg/logger"
)

// InventorySessionHandler maneja las sesiones de inventariado (protegido).
type InventorySessionHandler struct {
	uc  *inventorysession.SessionUseCase
	log *logger.Logger
}

// NewInventorySessionHandler construye el handler.
func NewInventorySessionHandler(uc *inventorysession.SessionUseCase, log *logger.Logger) *InventorySessionHandler {
	return &InventorySessionHandler{uc: uc, log: log}
}

// Create godoc
// @Summary      Abrir sesión de inventariado para una importación
// @Tags         inventory-sessions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        importId  path  string                             true  "ID de la importación"
// @Param        body      body  dto.CreateInventorySessionRequest  true  "Datos de la sesión"
// @Success      201       {object}  entity.InventorySession
// @Failure      412       {object}  dto.ErrorResponse
// @Router       /api/imports/{importId}/sessions [post]
func (h *InventorySessionHandler) Create(c *fiber.Ctx) error {
	importID := c.Params("importId")
	if importID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "importId es requerido"})
	}
	var in dto.CreateInventorySessionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "name es requerido"})
	}
	out, err := h.uc.Create(c.UserContext(), importID, in.Name, in.Note, GetActorID(c))
	if err != nil {
		h.log.Warn().Err(err).Str("import_id", importID).Msg("apertura de sesión de inventariado rechazada")
		return mapDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID devuelve una sesión con sus detalles.
func (h *InventorySessionHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "id es requerido"})
	}
	out, err := h.uc.Get(c.UserContext(), id)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(out)
}

// ListByImport devuelve las sesiones de una importación.
func (h *InventorySessionHandler) ListByImport(c *fiber.Ctx) error {
	importID := c.Params("importId")
	if importID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "importId es requerido"})
	}
	out, err := h.uc.ListByImport(c.UserContext(), importID)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Parchar una sesión: cierre, escaneos o campos planos
// @Tags         inventory-sessions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                             true  "ID de la sesión"
// @Param        body  body  dto.UpdateInventorySessionRequest  true  "Parche"
// @Success      200   {object}  entity.InventorySession
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      412   {object}  dto.ErrorResponse
// @Router       /api/inventory-sessions/{id} [put]
func (h *InventorySessionHandler) Update(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "id es requerido"})
	}
	var in dto.UpdateInventorySessionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	patch := inventorysession.UpdateInput{
		Status: in.Status,
		Name:   in.Name,
		Note:   in.Note,
	}
	for _, it := range in.ScannedItems {
		patch.ScannedItems = append(patch.ScannedItems, inventorysession.ScannedItem{Serial: it.Serial, Model: it.Model})
	}
	closing := in.Status == entity.InventorySessionCompleted
	out, err := h.uc.Update(c.UserContext(), id, patch, GetActorID(c))
	if err != nil {
		if closing {
			metrics.SessionCompletionsTotal.WithLabelValues("inventory", "error").Inc()
			h.log.Error().Err(err).Str("session_id", id).Msg("cierre de sesión de inventariado fallido")
		} else if len(patch.ScannedItems) > 0 {
			metrics.ScansTotal.WithLabelValues("inventory", "error").Add(float64(len(patch.ScannedItems)))
		}
		return mapDomainError(c, err)
	}
	if closing {
		metrics.SessionCompletionsTotal.WithLabelValues("inventory", "ok").Inc()
	} else if len(patch.ScannedItems) > 0 {
		metrics.ScansTotal.WithLabelValues("inventory", "ok").Add(float64(len(patch.ScannedItems)))
	}
	return c.JSON(out)
}

// CompleteImport godoc
// @Summary      Cerrar la importación cuando todo su inventariado terminó
// @Tags         inventory-sessions
// @Security     Bearer
// @Produce      json
// @Param        importId  path  string  true  "ID de la importación"
// @Success      200       {object}  entity.DeviceImport
// @Failure      412       {object}  dto.ErrorResponse
// @Router       /api/imports/{importId}/complete [post]
func (h *InventorySessionHandler) CompleteImport(c *fiber.Ctx) error {
	importID := c.Params("importId")
	if importID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "importId es requerido"})
	}
	out, err := h.uc.CompleteImport(c.UserContext(), importID, GetActorID(c))
	if err != nil {
		h.log.Warn().Err(err).Str("import_id", importID).Msg("cierre de importación rechazado")
		return mapDomainError(c, err)
	}
	return c.JSON(out)
}
