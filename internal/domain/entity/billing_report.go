package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un reporte de facturación.
const (
	ReportStatusOpen   = "OPEN"   // Pendiente de facturar; editable
	ReportStatusBilled = "BILLED" // Marcado como facturado; solo lectura
)

// BillingReport cabecera del reporte de facturación de una orden de servicio.
// Los totales solo se guardan al marcar el reporte como facturado.
type BillingReport struct {
	ID            string
	CompanyID     string
	WorkOrderRef  string // Referencia de la orden de trabajo en campo
	CustomerName  string
	Status        string
	AdjustmentPct decimal.Decimal // Descuento (<0) o recargo (>0) global aplicado al facturar
	NetTotal      decimal.Decimal
	TaxTotal      decimal.Decimal
	GrandTotal    decimal.Decimal
	BilledAt      *time.Time
	BilledBy      string
	Lines         []*ReportLine
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsBilled indica si el reporte ya fue marcado como facturado.
func (r *BillingReport) IsBilled() bool {
	return r.Status == ReportStatusBilled
}
