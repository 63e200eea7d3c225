// seed puebla las bodegas del sistema y la tabla de reglas de transición.
// Las reglas son datos, no código: los flujos nuevos se agregan aquí o vía
// admin, nunca tocando el motor de traslados.
//
// Uso: go run ./cmd/seed
// Idempotente: los inserts usan ON CONFLICT DO NOTHING.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jhoicas/Activos-api/internal/domain/entity"
	"github.com/jhoicas/Activos-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Activos-api/pkg/config"
)

type warehouseSeed struct {
	code, name, group string
}

type ruleSeed struct {
	fromCode string // vacío = arista de importación (from NULL)
	toCode   string
	kind     string
}

var warehouses = []warehouseSeed{
	{entity.WarehouseCodePendingQC, "Pendiente de QC", "operations"},
	{entity.WarehouseCodeReadyToExport, "Listo para exportar", "operations"},
	{entity.WarehouseCodeDefect, "Defectuosos", "operations"},
	{entity.WarehouseCodeInWarranty, "En garantía", "warranty"},
	{entity.WarehouseCodeUnderRepair, "En reparación", "warranty"},
	{entity.WarehouseCodeRemoved, "Dados de baja", "terminal"},
	{entity.WarehouseCodeSold, "Vendidos", "terminal"},
}

var rules = []ruleSeed{
	{"", entity.WarehouseCodePendingQC, entity.TransitionKindImport},
	{entity.WarehouseCodePendingQC, entity.WarehouseCodeReadyToExport, entity.TransitionKindQCPass},
	{entity.WarehouseCodePendingQC, entity.WarehouseCodeDefect, entity.TransitionKindQCFail},
	{entity.WarehouseCodeDefect, entity.WarehouseCodeInWarranty, entity.TransitionKindSendWarranty},
	{entity.WarehouseCodeInWarranty, entity.WarehouseCodeReadyToExport, entity.TransitionKindReceiveWarranty},
	{entity.WarehouseCodeInWarranty, entity.WarehouseCodeRemoved, entity.TransitionKindWarrantyReplace},
	{entity.WarehouseCodeInWarranty, entity.WarehouseCodePendingQC, entity.TransitionKindWarrantyRepair},
	{entity.WarehouseCodeDefect, entity.WarehouseCodeRemoved, entity.TransitionKindScrap},
	{entity.WarehouseCodeSold, entity.WarehouseCodePendingQC, entity.TransitionKindCustomerReturn},
	{entity.WarehouseCodeReadyToExport, entity.WarehouseCodeSold, entity.TransitionKindExport},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Conexión a PostgreSQL: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	for _, w := range warehouses {
		_, err := pool.Exec(ctx, `
			INSERT INTO warehouses (id, code, name, grp, active, created_at, updated_at)
			VALUES (gen_random_uuid(), $1, $2, $3, TRUE, NOW(), NOW())
			ON CONFLICT (code) DO NOTHING`,
			w.code, w.name, w.group)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Bodega %s: %v\n", w.code, err)
			os.Exit(1)
		}
	}

	for _, r := range rules {
		// from_warehouse_id NULL marca la arista de importación
		_, err := pool.Exec(ctx, `
			INSERT INTO transition_rules (id, from_warehouse_id, to_warehouse_id, kind, allowed_roles, active, created_at, updated_at)
			SELECT gen_random_uuid(),
			       (SELECT id FROM warehouses WHERE code = NULLIF($1, '')),
			       (SELECT id FROM warehouses WHERE code = $2),
			       $3, '{}', TRUE, NOW(), NOW()
			ON CONFLICT DO NOTHING`,
			r.fromCode, r.toCode, r.kind)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Regla %s -> %s: %v\n", r.fromCode, r.toCode, err)
			os.Exit(1)
		}
	}

	fmt.Printf("Seed aplicado: %d bodegas, %d reglas\n", len(warehouses), len(rules))
}
