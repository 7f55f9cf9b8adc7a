package postgres

import (
	"context"
	"fmt"
)

// Sentencias idempotentes; se ejecutan en orden en cada arranque si DB_AUTO_MIGRATE=true.
var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS companies (
		id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		tax_id VARCHAR(32) NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		phone VARCHAR(64) NOT NULL DEFAULT '',
		email VARCHAR(255) NOT NULL DEFAULT '',
		labor_vat_pct NUMERIC(5,2),
		material_vat_pct NUMERIC(5,2),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS billing_reports (
		id UUID PRIMARY KEY,
		company_id UUID NOT NULL REFERENCES companies(id),
		work_order_ref VARCHAR(64) NOT NULL DEFAULT '',
		customer_name VARCHAR(255) NOT NULL DEFAULT '',
		status VARCHAR(16) NOT NULL DEFAULT 'OPEN' CHECK (status IN ('OPEN', 'BILLED')),
		adjustment_pct NUMERIC(9,4) NOT NULL DEFAULT 0,
		net_total NUMERIC NOT NULL DEFAULT 0,
		tax_total NUMERIC NOT NULL DEFAULT 0,
		grand_total NUMERIC NOT NULL DEFAULT 0,
		billed_at TIMESTAMPTZ,
		billed_by TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_billing_reports_company_status ON billing_reports(company_id, status);`,
	`CREATE TABLE IF NOT EXISTS billing_report_lines (
		id UUID PRIMARY KEY,
		report_id UUID NOT NULL REFERENCES billing_reports(id) ON DELETE CASCADE,
		kind VARCHAR(16) NOT NULL CHECK (kind IN ('labor', 'material')),
		position INT NOT NULL CHECK (position >= 0),
		description TEXT NOT NULL DEFAULT '',
		quantity NUMERIC NOT NULL CHECK (quantity >= 0),
		unit_price NUMERIC NOT NULL,
		total NUMERIC NOT NULL
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_billing_report_lines_position ON billing_report_lines(report_id, kind, position);`,
}

// Migrate crea el esquema si no existe.
func Migrate(ctx context.Context, q Querier) error {
	for i, stmt := range migrationStatements {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
