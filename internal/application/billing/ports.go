package billing

import (
	"context"

	"github.com/jhoicas/fieldbill/internal/domain/entity"
	"github.com/jhoicas/fieldbill/internal/domain/repository"
)

// BillingTxRunner ejecuta una función dentro de una transacción con el repositorio de reportes atado a ella.
type BillingTxRunner interface {
	RunBilling(ctx context.Context, fn func(reports repository.BillingReportRepository) error) error
}

// ReportPrinter genera la versión imprimible (PDF) del estado actual de una sesión.
type ReportPrinter interface {
	PrintSession(ctx context.Context, view SessionView, company *entity.Company) ([]byte, error)
}

// SpreadsheetExporter exporta el estado actual de una sesión a una hoja de cálculo.
type SpreadsheetExporter interface {
	ExportSession(ctx context.Context, view SessionView) ([]byte, error)
}
