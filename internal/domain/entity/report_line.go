package entity

import "github.com/shopspring/decimal"

// Tipos de línea (coinciden con el CHECK de billing_report_lines.kind).
const (
	LineKindLabor    = "labor"
	LineKindMaterial = "material"
)

// ReportLine línea de mano de obra (Quantity = horas, UnitPrice = tarifa/hora)
// o de material (Quantity = unidades, UnitPrice = precio unitario).
type ReportLine struct {
	ID          string
	ReportID    string
	Kind        string
	Position    int // orden dentro de su tipo, base 0
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
}
