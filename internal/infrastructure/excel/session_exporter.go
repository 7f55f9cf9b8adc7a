// Package excel exporta una sesión de facturación a una hoja de cálculo .xlsx.
package excel

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/fieldbill/internal/application/billing"
	"github.com/jhoicas/fieldbill/internal/domain/pricing"
)

// SheetName hoja única del libro exportado.
const SheetName = "Facturación"

var _ billing.SpreadsheetExporter = (*SessionExporter)(nil)

// SessionExporter implementa billing.SpreadsheetExporter con excelize.
type SessionExporter struct{}

// NewSessionExporter construye el exportador.
func NewSessionExporter() *SessionExporter { return &SessionExporter{} }

// ExportSession escribe cabecera, líneas de mano de obra y materiales y el bloque de totales.
// Los importes van como números (no texto) para que se puedan sumar en la hoja.
func (e *SessionExporter) ExportSession(_ context.Context, view billing.SessionView) ([]byte, error) {
	file := excelize.NewFile()
	defer func() { _ = file.Close() }()

	if err := file.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("excel: renombrar hoja: %w", err)
	}

	w := &sheetWriter{file: file, sheet: SheetName}
	w.set(1, 1, "Orden de trabajo")
	w.set(2, 1, view.WorkOrderRef)
	w.set(1, 2, "Cliente")
	w.set(2, 2, view.CustomerName)

	bold, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("excel: estilo: %w", err)
	}

	r := 4
	r = w.lines(bold, r, "Mano de obra", "Horas", "Tarifa/h", view.Labor)
	r = w.lines(bold, r+1, "Materiales", "Cantidad", "Precio unit.", view.Materials)
	w.totals(r+1, view)

	w.width("A", "A", 40)
	w.width("B", "D", 16)
	if w.err != nil {
		return nil, fmt.Errorf("excel: escribir celdas: %w", w.err)
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("excel: escribir libro: %w", err)
	}
	return buf.Bytes(), nil
}

// sheetWriter escribe en una hoja y guarda el primer error; después de un
// error las llamadas siguientes no hacen nada.
type sheetWriter struct {
	file  *excelize.File
	sheet string
	err   error
}

func (w *sheetWriter) cell(col, row int) string {
	if w.err != nil {
		return ""
	}
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		w.err = err
	}
	return ref
}

func (w *sheetWriter) set(col, row int, value interface{}) {
	ref := w.cell(col, row)
	if w.err != nil {
		return
	}
	w.err = w.file.SetCellValue(w.sheet, ref, value)
}

func (w *sheetWriter) style(fromCol, fromRow, toCol, toRow, styleID int) {
	first := w.cell(fromCol, fromRow)
	last := w.cell(toCol, toRow)
	if w.err != nil {
		return
	}
	w.err = w.file.SetCellStyle(w.sheet, first, last, styleID)
}

func (w *sheetWriter) width(from, to string, width float64) {
	if w.err != nil {
		return
	}
	w.err = w.file.SetColWidth(w.sheet, from, to, width)
}

// lines escribe título, cabecera y una fila por línea a partir de row. Devuelve la siguiente fila libre.
func (w *sheetWriter) lines(bold, row int, title, qtyLabel, priceLabel string, lines []pricing.Line) int {
	w.set(1, row, title)
	for i, h := range []string{"Descripción", qtyLabel, priceLabel, "Total"} {
		w.set(i+1, row+1, h)
	}
	w.style(1, row, 4, row+1, bold)

	row += 2
	for _, l := range lines {
		w.set(1, row, l.Description)
		w.set(2, row, number(l.Quantity))
		w.set(3, row, number(l.UnitPrice))
		w.set(4, row, number(l.Total))
		row++
	}
	return row
}

// totals bloque de totales; las filas de ajuste solo si el porcentaje es distinto de cero.
func (w *sheetWriter) totals(row int, view billing.SessionView) {
	t := view.Totals
	type kv struct {
		label string
		value decimal.Decimal
	}
	rows := []kv{
		{"Subtotal mano de obra", t.LaborSubtotal},
		{"Subtotal materiales", t.MaterialSubtotal},
	}
	if t.HasAdjustment() {
		rows = append(rows,
			kv{"Total sin ajuste", t.RawTotal},
			kv{"Ajuste %", t.ModifierPct},
			kv{"Importe ajuste", t.AdjustmentAmount},
			kv{"Mano de obra ajustada", t.LaborAdjusted},
			kv{"Materiales ajustados", t.MaterialAdjusted},
		)
	}
	rows = append(rows,
		kv{fmt.Sprintf("IVA mano de obra (%s%%)", view.VAT.LaborPct.String()), t.LaborVAT},
		kv{fmt.Sprintf("IVA materiales (%s%%)", view.VAT.MaterialPct.String()), t.MaterialVAT},
		kv{"TOTAL", t.GrandTotal},
	)
	for i, item := range rows {
		w.set(3, row+i, item.label)
		w.set(4, row+i, number(item.value))
	}
}

// number redondea a 4 decimales para la celda; la precisión completa vive en la sesión.
func number(d decimal.Decimal) float64 {
	return d.Round(4).InexactFloat64()
}
