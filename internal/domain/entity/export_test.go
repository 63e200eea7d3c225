package entity_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Activos-api/internal/domain/entity"
)

// El grafo de estados de Export: cada arista permitida y el rechazo del resto.
func TestCanExportStatusChange_Grafo(t *testing.T) {
	allowed := []struct{ from, to string }{
		{entity.ExportStatusDraft, entity.ExportStatusPendingApproval},
		{entity.ExportStatusDraft, entity.ExportStatusCancelled},
		{entity.ExportStatusPendingApproval, entity.ExportStatusApproved},
		{entity.ExportStatusPendingApproval, entity.ExportStatusRejected},
		{entity.ExportStatusPendingApproval, entity.ExportStatusDraft},
		{entity.ExportStatusApproved, entity.ExportStatusInProgress},
		{entity.ExportStatusApproved, entity.ExportStatusCancelled},
		{entity.ExportStatusInProgress, entity.ExportStatusCompleted},
		{entity.ExportStatusInProgress, entity.ExportStatusCancelled},
		{entity.ExportStatusRejected, entity.ExportStatusDraft},
	}
	for _, e := range allowed {
		assert.True(t, entity.CanExportStatusChange(e.from, e.to), "%s -> %s debe permitirse", e.from, e.to)
	}

	denied := []struct{ from, to string }{
		{entity.ExportStatusDraft, entity.ExportStatusApproved},
		{entity.ExportStatusDraft, entity.ExportStatusCompleted},
		{entity.ExportStatusApproved, entity.ExportStatusDraft},
		{entity.ExportStatusInProgress, entity.ExportStatusApproved},
		{entity.ExportStatusRejected, entity.ExportStatusApproved},
	}
	for _, e := range denied {
		assert.False(t, entity.CanExportStatusChange(e.from, e.to), "%s -> %s debe rechazarse", e.from, e.to)
	}
}

// COMPLETED y CANCELLED son terminales: ninguna arista de salida.
func TestCanExportStatusChange_EstadosTerminales(t *testing.T) {
	all := []string{
		entity.ExportStatusDraft, entity.ExportStatusPendingApproval,
		entity.ExportStatusApproved, entity.ExportStatusInProgress,
		entity.ExportStatusCompleted, entity.ExportStatusRejected,
		entity.ExportStatusCancelled,
	}
	for _, to := range all {
		assert.False(t, entity.CanExportStatusChange(entity.ExportStatusCompleted, to))
		assert.False(t, entity.CanExportStatusChange(entity.ExportStatusCancelled, to))
	}
}

func TestRequirementFor(t *testing.T) {
	e := &entity.Export{Requirements: []entity.ExportRequirement{
		{ProductCode: "CAM-100", Quantity: 2, UnitPrice: decimal.NewFromFloat(150)},
	}}

	req := e.RequirementFor("CAM-100")
	assert.NotNil(t, req)
	assert.Equal(t, 2, req.Quantity)
	assert.Nil(t, e.RequirementFor("NVR-200"))
}
