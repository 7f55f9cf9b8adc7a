package repository

import (
	"context"

	"github.com/jhoicas/fieldbill/internal/domain/entity"
)

// BillingReportRepository define el puerto de persistencia para reportes de facturación.
type BillingReportRepository interface {
	// GetByID devuelve la cabecera con sus líneas ordenadas por tipo y posición.
	// Retorna (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.BillingReport, error)
	// ReplaceLines sustituye todas las líneas del reporte.
	ReplaceLines(ctx context.Context, reportID string, lines []*entity.ReportLine) error
	// MarkBilled guarda totales y estado BILLED. Debe fallar con domain.ErrAlreadyBilled
	// si el reporte ya no está en OPEN.
	MarkBilled(ctx context.Context, report *entity.BillingReport) error
}
