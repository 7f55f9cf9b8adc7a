package pdf

import (
	"bytes"
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/fieldbill/internal/application/billing"
	"github.com/jhoicas/fieldbill/internal/domain/entity"
	"github.com/jhoicas/fieldbill/internal/domain/pricing"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleView(modifier string) billing.SessionView {
	labor := []pricing.Line{pricing.NewLine(pricing.KindLabor, "Instalación", d("2"), d("500"))}
	materials := []pricing.Line{pricing.NewLine(pricing.KindMaterial, "Cable", d("3"), d("100"))}
	vat := pricing.VATRates{LaborPct: d("21"), MaterialPct: d("21")}
	return billing.SessionView{
		ID:           "s1",
		ReportID:     "r1",
		WorkOrderRef: "OT-1001",
		CustomerName: "Ferretería El Tornillo",
		Labor:        labor,
		Materials:    materials,
		VAT:          vat,
		ModifierPct:  d(modifier),
		Totals:       pricing.ComputeTotals(labor, materials, vat, d(modifier)),
	}
}

func TestPrintSession_GeneraPDF(t *testing.T) {
	p := NewSessionPrinter()
	company := &entity.Company{ID: "c1", Name: "Servicios Técnicos SAS", TaxID: "B12345678"}

	for _, modifier := range []string{"0", "-10"} {
		out, err := p.PrintSession(context.Background(), sampleView(modifier), company)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(out, []byte("%PDF")), "ajuste %s", modifier)
	}
}

func TestPrintSession_SinLineas(t *testing.T) {
	view := billing.SessionView{ReportID: "r1"}

	out, err := NewSessionPrinter().PrintSession(context.Background(), view, &entity.Company{ID: "c1"})

	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestTotalsRows_AjusteSoloSiHay(t *testing.T) {
	assert.Len(t, totalsRows(sampleView("0")), 5)
	assert.Len(t, totalsRows(sampleView("-10")), 9)
}

func TestFormatMoney(t *testing.T) {
	cases := map[string]string{
		"0":        "0,00",
		"999.5":    "999,50",
		"1415.7":   "1.415,70",
		"-130":     "-130,00",
		"1234567":  "1.234.567,00",
		"12.345":   "12,35",
		"-1000000": "-1.000.000,00",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatMoney(d(in)), in)
	}
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "21", formatNumber(d("21")))
	assert.Equal(t, "1,25", formatNumber(d("1.25")))
	assert.Equal(t, "2.500", formatNumber(d("2500")))
}
