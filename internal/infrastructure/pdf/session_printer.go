// Package pdf genera la versión imprimible de un reporte de facturación en edición.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Empresa + NIF       │  Orden de trabajo + Fecha     │
//	│  CLIENTE                                                     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  MANO DE OBRA: Descripción | Horas | Tarifa | Total          │
//	│  MATERIALES:   Descripción | Cant. | P.Unit | Total          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: subtotales / ajuste (si hay) / IVA / TOTAL         │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/fieldbill/internal/application/billing"
	"github.com/jhoicas/fieldbill/internal/domain/entity"
	"github.com/jhoicas/fieldbill/internal/domain/pricing"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

var _ billing.ReportPrinter = (*SessionPrinter)(nil)

// SessionPrinter implementa billing.ReportPrinter usando Maroto v2.
type SessionPrinter struct {
	now func() time.Time
}

// NewSessionPrinter construye el generador.
func NewSessionPrinter() *SessionPrinter { return &SessionPrinter{now: time.Now} }

// PrintSession genera el PDF con las líneas y totales de la vista y devuelve sus bytes.
func (p *SessionPrinter) PrintSession(_ context.Context, view billing.SessionView, company *entity.Company) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Reporte de facturación "+view.WorkOrderRef, true).
		WithAuthor(company.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(view, company, p.now()))
	m.AddRows(customerRow(view))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(sectionTitle("MANO DE OBRA"))
	m.AddRows(tableHeaderRow("Horas", "Tarifa/h"))
	m.AddRows(lineRows(view.Labor)...)
	m.AddRows(line.NewRow(3))

	m.AddRows(sectionTitle("MATERIALES"))
	m.AddRows(tableHeaderRow("Cant.", "P. Unit."))
	m.AddRows(lineRows(view.Materials)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRows(view)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(view billing.SessionView, company *entity.Company, now time.Time) core.Row {
	taxID := ""
	if company.TaxID != "" {
		taxID = "NIF: " + company.TaxID
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New(nonEmpty(company.Name, "—"), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(taxID, props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("REPORTE DE FACTURACIÓN", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(nonEmpty(view.WorkOrderRef, view.ReportID), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+now.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func customerRow(view billing.SessionView) core.Row {
	return row.New(12).Add(
		col.New(12).Add(
			text.New("CLIENTE", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(nonEmpty(view.CustomerName, "—"), props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
		),
	)
}

func sectionTitle(label string) core.Row {
	return row.New(7).Add(col.New(12).Add(
		text.New(label, props.Text{Style: fontstyle.Bold, Size: 9, Color: colorPrimary, Top: 1}),
	))
}

func tableHeaderRow(qtyLabel, priceLabel string) core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Descripción", 6, align.Left),
		h(qtyLabel, 2, align.Center),
		h(priceLabel, 2, align.Right),
		h("Total", 2, align.Right),
	).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

func lineRows(lines []pricing.Line) []core.Row {
	if len(lines) == 0 {
		return []core.Row{row.New(6).Add(col.New(12).Add(
			text.New("Sin líneas", props.Text{Size: 8, Color: colorGray, Top: 1, Left: 1}),
		))}
	}
	result := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		result = append(result, row.New(7).Add(
			col.New(6).Add(text.New(l.Description, props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1})),
			col.New(2).Add(text.New(formatNumber(l.Quantity), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(formatMoney(l.UnitPrice), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(formatMoney(l.Total), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

// totalsRows: las filas de ajuste solo aparecen si el porcentaje es distinto de cero.
func totalsRows(view billing.SessionView) []core.Row {
	t := view.Totals
	rows := []core.Row{
		totalRow("Subtotal mano de obra:", formatMoney(t.LaborSubtotal), false),
		totalRow("Subtotal materiales:", formatMoney(t.MaterialSubtotal), false),
	}
	if t.HasAdjustment() {
		label := "Recargo"
		if t.ModifierPct.IsNegative() {
			label = "Descuento"
		}
		rows = append(rows,
			totalRow("Total sin ajuste:", formatMoney(t.RawTotal), false),
			totalRow(fmt.Sprintf("%s (%s%%):", label, formatNumber(t.ModifierPct.Abs())), formatMoney(t.AdjustmentAmount), false),
			totalRow("Mano de obra ajustada:", formatMoney(t.LaborAdjusted), false),
			totalRow("Materiales ajustados:", formatMoney(t.MaterialAdjusted), false),
		)
	}
	rows = append(rows,
		totalRow(fmt.Sprintf("IVA mano de obra (%s%%):", formatNumber(view.VAT.LaborPct)), formatMoney(t.LaborVAT), false),
		totalRow(fmt.Sprintf("IVA materiales (%s%%):", formatNumber(view.VAT.MaterialPct)), formatMoney(t.MaterialVAT), false),
		totalRow("TOTAL:", formatMoney(t.GrandTotal), true),
	)
	return rows
}

func totalRow(label, value string, grand bool) core.Row {
	lp := props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: 1}
	vp := props.Text{Size: 9, Align: align.Right, Right: 1, Top: 1}
	height := 6.0
	if grand {
		lp.Size, vp.Size = 10, 10
		vp.Style = fontstyle.Bold
		lp.Color, vp.Color = colorPrimary, colorPrimary
		height = 8
	}
	return row.New(height).Add(
		col.New(4),
		col.New(5).Add(text.New(label, lp)),
		col.New(3).Add(text.New(value, vp)),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney importe con dos decimales, puntos de miles y coma decimal.
// Ej: 1415.7 → "1.415,70", -130 → "-130,00"
func formatMoney(d decimal.Decimal) string {
	return groupThousands(d.StringFixed(2))
}

// formatNumber cantidades y porcentajes: sin ceros finales. Ej: 1.25 → "1,25", 21 → "21".
func formatNumber(d decimal.Decimal) string {
	return groupThousands(d.String())
}

func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")
	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	out := sign + string(buf)
	if hasFrac {
		out += "," + frac
	}
	return out
}
