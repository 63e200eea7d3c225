package exportsession

import (
	"context"
	"fmt"

	"github.com/jhoicas/Activos-api/internal/domain"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
	"github.com/jhoicas/Activos-api/internal/domain/repository"
)

// ChangeStatus mueve la exportación al nuevo estado si el grafo lo permite.
// Toda mutación de estado pasa por aquí y por el predicado central, nunca por
// comparaciones sueltas en cada método.
func (uc *SessionUseCase) ChangeStatus(ctx context.Context, exportID, newStatus, actorID string) (*entity.Export, error) {
	parent, err := uc.exportRepo.GetByID(exportID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, fmt.Errorf("%w: exportación %s", domain.ErrNotFound, exportID)
	}
	if !entity.CanExportStatusChange(parent.Status, newStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, parent.Status, newStatus)
	}
	err = uc.txRunner.RunExport(ctx, func(
		exportRepo repository.ExportRepository,
		_ repository.ExportSessionRepository,
	) error {
		return exportRepo.UpdateStatus(exportID, newStatus, actorID)
	})
	if err != nil {
		return nil, err
	}
	parent.Status = newStatus
	return parent, nil
}

// Submit envía un borrador a aprobación.
func (uc *SessionUseCase) Submit(ctx context.Context, exportID, actorID string) (*entity.Export, error) {
	return uc.ChangeStatus(ctx, exportID, entity.ExportStatusPendingApproval, actorID)
}

// Approve aprueba una exportación pendiente.
func (uc *SessionUseCase) Approve(ctx context.Context, exportID, actorID string) (*entity.Export, error) {
	return uc.ChangeStatus(ctx, exportID, entity.ExportStatusApproved, actorID)
}

// Reject devuelve una exportación pendiente a rechazada.
func (uc *SessionUseCase) Reject(ctx context.Context, exportID, actorID string) (*entity.Export, error) {
	return uc.ChangeStatus(ctx, exportID, entity.ExportStatusRejected, actorID)
}

// Cancel cancela la exportación (terminal).
func (uc *SessionUseCase) Cancel(ctx context.Context, exportID, actorID string) (*entity.Export, error) {
	return uc.ChangeStatus(ctx, exportID, entity.ExportStatusCancelled, actorID)
}

// Reopen regresa una exportación rechazada a borrador para corregirla.
func (uc *SessionUseCase) Reopen(ctx context.Context, exportID, actorID string) (*entity.Export, error) {
	return uc.ChangeStatus(ctx, exportID, entity.ExportStatusDraft, actorID)
}
