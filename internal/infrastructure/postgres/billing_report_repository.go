package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/fieldbill/internal/domain"
	"github.com/jhoicas/fieldbill/internal/domain/entity"
	"github.com/jhoicas/fieldbill/internal/domain/repository"
)

var _ repository.BillingReportRepository = (*BillingReportRepo)(nil)

// BillingReportRepo implementación de BillingReportRepository (usable con pool o tx).
type BillingReportRepo struct {
	q Querier
}

// NewBillingReportRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBillingReportRepository(q Querier) *BillingReportRepo {
	return &BillingReportRepo{q: q}
}

// GetByID obtiene la cabecera y sus líneas (mano de obra primero, luego materiales, por posición).
func (r *BillingReportRepo) GetByID(ctx context.Context, id string) (*entity.BillingReport, error) {
	query := `
		SELECT id, company_id, work_order_ref, customer_name, status, adjustment_pct,
		       net_total, tax_total, grand_total, billed_at, COALESCE(billed_by, ''),
		       created_at, updated_at
		FROM billing_reports WHERE id = $1`
	var rep entity.BillingReport
	err := r.q.QueryRow(ctx, query, id).Scan(
		&rep.ID, &rep.CompanyID, &rep.WorkOrderRef, &rep.CustomerName, &rep.Status, &rep.AdjustmentPct,
		&rep.NetTotal, &rep.TaxTotal, &rep.GrandTotal, &rep.BilledAt, &rep.BilledBy,
		&rep.CreatedAt, &rep.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		if isInvalidText(err) {
			return nil, fmt.Errorf("%w: id de reporte inválido", domain.ErrInvalidInput)
		}
		return nil, fmt.Errorf("get billing report: %w", err)
	}

	lines, err := r.lines(ctx, id)
	if err != nil {
		return nil, err
	}
	rep.Lines = lines
	return &rep, nil
}

func (r *BillingReportRepo) lines(ctx context.Context, reportID string) ([]*entity.ReportLine, error) {
	query := `
		SELECT id, report_id, kind, position, description, quantity, unit_price, total
		FROM billing_report_lines
		WHERE report_id = $1
		ORDER BY CASE kind WHEN 'labor' THEN 0 ELSE 1 END, position`
	rows, err := r.q.Query(ctx, query, reportID)
	if err != nil {
		return nil, fmt.Errorf("list report lines: %w", err)
	}
	lines, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.ReportLine, error) {
		var l entity.ReportLine
		err := row.Scan(&l.ID, &l.ReportID, &l.Kind, &l.Position, &l.Description, &l.Quantity, &l.UnitPrice, &l.Total)
		return &l, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan report lines: %w", err)
	}
	return lines, nil
}

// ReplaceLines borra las líneas actuales del reporte e inserta las nuevas en un solo batch.
// Debe llamarse dentro de una transacción para que el reemplazo sea atómico.
func (r *BillingReportRepo) ReplaceLines(ctx context.Context, reportID string, lines []*entity.ReportLine) error {
	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM billing_report_lines WHERE report_id = $1`, reportID)
	for _, l := range lines {
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		batch.Queue(`
			INSERT INTO billing_report_lines (id, report_id, kind, position, description, quantity, unit_price, total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			l.ID, reportID, l.Kind, l.Position, l.Description, l.Quantity, l.UnitPrice, l.Total,
		)
	}

	results := r.q.SendBatch(ctx, batch)
	for range batch.Len() {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			if isCheckViolation(err) {
				return fmt.Errorf("%w: línea inválida: %v", domain.ErrInvalidInput, err)
			}
			return fmt.Errorf("replace report lines: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("replace report lines: %w", err)
	}
	return nil
}

// MarkBilled guarda ajuste y totales y pasa el reporte a BILLED solo si sigue en OPEN.
func (r *BillingReportRepo) MarkBilled(ctx context.Context, report *entity.BillingReport) error {
	query := `
		UPDATE billing_reports
		SET status = $2, adjustment_pct = $3, net_total = $4, tax_total = $5, grand_total = $6,
		    billed_at = $7, billed_by = $8, updated_at = $9
		WHERE id = $1 AND status = $10`
	tag, err := r.q.Exec(ctx, query,
		report.ID, entity.ReportStatusBilled, report.AdjustmentPct,
		report.NetTotal, report.TaxTotal, report.GrandTotal,
		report.BilledAt, nullIfEmpty(report.BilledBy), report.UpdatedAt,
		entity.ReportStatusOpen,
	)
	if err != nil {
		return fmt.Errorf("mark report billed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyBilled
	}
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

