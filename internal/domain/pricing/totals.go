package pricing

import (
	"fmt"

	"github.com/jhoicas/fieldbill/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// VATRates porcentajes de IVA independientes para mano de obra y material (ej: 21 = 21%).
type VATRates struct {
	LaborPct    decimal.Decimal
	MaterialPct decimal.Decimal
}

// Totals cifras derivadas de una factura. Nunca se persiste desde el motor.
type Totals struct {
	LaborSubtotal    decimal.Decimal
	MaterialSubtotal decimal.Decimal
	RawTotal         decimal.Decimal
	ModifierPct      decimal.Decimal
	AdjustmentAmount decimal.Decimal
	LaborAdjusted    decimal.Decimal
	MaterialAdjusted decimal.Decimal
	LaborVAT         decimal.Decimal
	MaterialVAT      decimal.Decimal
	GrandTotal       decimal.Decimal
}

// HasAdjustment es false en el caso por defecto (sin descuento ni recargo);
// en ese caso las filas de ajuste no se muestran.
func (t Totals) HasAdjustment() bool {
	return !t.ModifierPct.IsZero()
}

// NetTotal base imponible ajustada (mano de obra + material).
func (t Totals) NetTotal() decimal.Decimal {
	return t.LaborAdjusted.Add(t.MaterialAdjusted)
}

// TaxTotal IVA total.
func (t Totals) TaxTotal() decimal.Decimal {
	return t.LaborVAT.Add(t.MaterialVAT)
}

// ComputeTotals recalcula todas las cifras desde cero.
//
//	factor        = 1 + modifierPct/100
//	laborAdjusted = laborSubtotal * factor          (el ajuste va ANTES del IVA)
//	laborVAT      = laborAdjusted * laborPct/100
//	grandTotal    = laborAdjusted + materialAdjusted + laborVAT + materialVAT
func ComputeTotals(labor, material []Line, vat VATRates, modifierPct decimal.Decimal) Totals {
	laborSubtotal := sumTotals(labor)
	materialSubtotal := sumTotals(material)
	rawTotal := laborSubtotal.Add(materialSubtotal)

	factor := decimal.NewFromInt(1).Add(modifierPct.Div(hundred))
	laborAdjusted := laborSubtotal.Mul(factor)
	materialAdjusted := materialSubtotal.Mul(factor)

	laborVAT := laborAdjusted.Mul(vat.LaborPct).Div(hundred)
	materialVAT := materialAdjusted.Mul(vat.MaterialPct).Div(hundred)

	return Totals{
		LaborSubtotal:    laborSubtotal,
		MaterialSubtotal: materialSubtotal,
		RawTotal:         rawTotal,
		ModifierPct:      modifierPct,
		AdjustmentAmount: rawTotal.Mul(modifierPct).Div(hundred),
		LaborAdjusted:    laborAdjusted,
		MaterialAdjusted: materialAdjusted,
		LaborVAT:         laborVAT,
		MaterialVAT:      materialVAT,
		GrandTotal:       laborAdjusted.Add(materialAdjusted).Add(laborVAT).Add(materialVAT),
	}
}

func sumTotals(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Total)
	}
	return sum
}

// AdjustmentLimits rango permitido para el ajuste global (en puntos porcentuales).
type AdjustmentLimits struct {
	MinPct decimal.Decimal
	MaxPct decimal.Decimal
}

// DefaultAdjustmentLimits descuento hasta el 100% y recargo hasta el 100%.
func DefaultAdjustmentLimits() AdjustmentLimits {
	return AdjustmentLimits{MinPct: hundred.Neg(), MaxPct: hundred}
}

// ValidateAdjustment rechaza ajustes que dejarían bases negativas (< -100%)
// o que superan el recargo máximo configurado.
func ValidateAdjustment(pct decimal.Decimal, limits AdjustmentLimits) error {
	minPct := limits.MinPct
	if minPct.LessThan(hundred.Neg()) {
		minPct = hundred.Neg()
	}
	if pct.LessThan(minPct) || pct.GreaterThan(limits.MaxPct) {
		return fmt.Errorf("%w: %s%% (permitido %s%% a %s%%)",
			domain.ErrInvalidAdjustment, pct.String(), minPct.String(), limits.MaxPct.String())
	}
	return nil
}
