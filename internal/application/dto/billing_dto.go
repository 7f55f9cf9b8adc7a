package dto

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// OpenSessionRequest body para POST /api/billing-sessions.
type OpenSessionRequest struct {
	ReportID string `json:"report_id"`
}

// Amount texto de un importe tal como llega del cliente. Acepta tanto una
// cadena JSON ("600", "12,5", "abc") como un número sin comillas (600, -10).
// La validación numérica la hace pricing.ParseAmount, no el decoder.
type Amount string

// UnmarshalJSON guarda el texto crudo; null deja el importe vacío.
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*a = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = Amount(s)
	default:
		// número, booleano u objeto: se pasa el texto tal cual y el parser decide.
		*a = Amount(b)
	}
	return nil
}

// EditLineRequest body para PATCH /api/billing-sessions/:id/lines/:kind/:index.
// Field: "rate" (tarifa o precio unitario) o "total". Value es el texto que
// escribió el usuario; si no es un número la edición se ignora.
type EditLineRequest struct {
	Field string `json:"field"`
	Value Amount `json:"value"`
}

// AdjustmentRequest body para PUT /api/billing-sessions/:id/adjustment.
// ModifierPct negativo = descuento, positivo = recargo.
type AdjustmentRequest struct {
	ModifierPct Amount `json:"modifier_pct"`
}

// LaborLineResponse línea de mano de obra.
type LaborLineResponse struct {
	Index       int             `json:"index"`
	Description string          `json:"description"`
	Hours       decimal.Decimal `json:"hours"`
	Rate        decimal.Decimal `json:"rate"`
	Total       decimal.Decimal `json:"total"`
}

// MaterialLineResponse línea de material.
type MaterialLineResponse struct {
	Index       int             `json:"index"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// TotalsResponse cifras derivadas. HasAdjustment=false indica que las filas de ajuste no se muestran.
type TotalsResponse struct {
	LaborSubtotal    decimal.Decimal `json:"labor_subtotal"`
	MaterialSubtotal decimal.Decimal `json:"material_subtotal"`
	RawTotal         decimal.Decimal `json:"raw_total"`
	ModifierPct      decimal.Decimal `json:"modifier_pct"`
	HasAdjustment    bool            `json:"has_adjustment"`
	AdjustmentAmount decimal.Decimal `json:"adjustment_amount"`
	LaborAdjusted    decimal.Decimal `json:"labor_adjusted"`
	MaterialAdjusted decimal.Decimal `json:"material_adjusted"`
	LaborVAT         decimal.Decimal `json:"labor_vat"`
	MaterialVAT      decimal.Decimal `json:"material_vat"`
	GrandTotal       decimal.Decimal `json:"grand_total"`
}

// SessionResponse estado completo de una sesión de edición.
type SessionResponse struct {
	ID             string                 `json:"id"`
	ReportID       string                 `json:"report_id"`
	WorkOrderRef   string                 `json:"work_order_ref,omitempty"`
	CustomerName   string                 `json:"customer_name,omitempty"`
	LaborVATPct    decimal.Decimal        `json:"labor_vat_pct"`
	MaterialVATPct decimal.Decimal        `json:"material_vat_pct"`
	Labor          []LaborLineResponse    `json:"labor"`
	Materials      []MaterialLineResponse `json:"materials"`
	Totals         TotalsResponse         `json:"totals"`
	OpenedAt       time.Time              `json:"opened_at"`
}

// EditResultResponse resultado de una edición. Applied=false: el valor no era numérico
// y el estado anterior se conserva.
type EditResultResponse struct {
	Applied bool            `json:"applied"`
	Session SessionResponse `json:"session"`
}

// SubmitResponse resultado de marcar el reporte como facturado.
type SubmitResponse struct {
	ReportID   string          `json:"report_id"`
	Status     string          `json:"status"`
	NetTotal   decimal.Decimal `json:"net_total"`
	TaxTotal   decimal.Decimal `json:"tax_total"`
	GrandTotal decimal.Decimal `json:"grand_total"`
	BilledAt   time.Time       `json:"billed_at"`
}
