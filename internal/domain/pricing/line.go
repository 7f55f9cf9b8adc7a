// Package pricing implementa el motor de recálculo de facturación (servicio de dominio puro).
//
// Todas las funciones operan sobre copias: reciben valores y devuelven valores nuevos,
// nunca modifican el slice o la línea del llamador.
package pricing

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// LineKind distingue líneas de mano de obra y de material.
type LineKind string

const (
	KindLabor    LineKind = "labor"
	KindMaterial LineKind = "material"
)

// Valid indica si el tipo de línea es conocido.
func (k LineKind) Valid() bool {
	return k == KindLabor || k == KindMaterial
}

// Line es una línea facturable.
// Para mano de obra Quantity son horas y UnitPrice la tarifa por hora;
// para material Quantity son unidades y UnitPrice el precio unitario.
// En reposo Total == Quantity * UnitPrice.
type Line struct {
	Kind        LineKind
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
}

// NewLine construye una línea consistente (Total calculado).
func NewLine(kind LineKind, description string, quantity, unitPrice decimal.Decimal) Line {
	return Line{
		Kind:        kind,
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Total:       quantity.Mul(unitPrice),
	}
}

// RecomputeFromRate fija la tarifa y recalcula el total: Total = newRate * Quantity.
// Una tarifa negativa se ignora y se devuelve la línea sin cambios.
func RecomputeFromRate(line Line, newRate decimal.Decimal) Line {
	if newRate.IsNegative() {
		return line
	}
	line.UnitPrice = newRate
	line.Total = newRate.Mul(line.Quantity)
	return line
}

// RecomputeFromTotal fija el total y, solo si Quantity > 0, recalcula la tarifa
// UnitPrice = newTotal / Quantity. Con cantidad cero la tarifa queda igual.
func RecomputeFromTotal(line Line, newTotal decimal.Decimal) Line {
	line.Total = newTotal
	if line.Quantity.IsPositive() {
		line.UnitPrice = newTotal.Div(line.Quantity)
	}
	return line
}

// ReplaceLine devuelve un slice nuevo con la posición i reemplazada.
// Si i está fuera de rango devuelve una copia idéntica y false.
func ReplaceLine(lines []Line, i int, line Line) ([]Line, bool) {
	out := make([]Line, len(lines))
	copy(out, lines)
	if i < 0 || i >= len(out) {
		return out, false
	}
	out[i] = line
	return out, true
}

// ParseAmount interpreta un valor numérico escrito por el usuario.
// Acepta "." o "," como separador decimal. Devuelve ok=false para texto vacío,
// NaN, infinitos o cualquier cosa que no sea un número.
func ParseAmount(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, false
	}
	if strings.Contains(s, ",") {
		if strings.Contains(s, ".") {
			return decimal.Zero, false
		}
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// AmountFromFloat convierte un float64 rechazando NaN e infinitos.
func AmountFromFloat(f float64) (decimal.Decimal, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}
