package billing

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/fieldbill/internal/domain"
	"github.com/jhoicas/fieldbill/internal/domain/entity"
	"github.com/jhoicas/fieldbill/internal/domain/pricing"
)

// EditField campo editado en una línea.
type EditField string

const (
	FieldRate  EditField = "rate"  // tarifa/hora o precio unitario → recalcula total
	FieldTotal EditField = "total" // total de la línea → recalcula tarifa
)

// SessionView copia inmutable del estado de una sesión con sus totales recalculados.
type SessionView struct {
	ID           string
	ReportID     string
	CompanyID    string
	WorkOrderRef string
	CustomerName string
	Labor        []pricing.Line
	Materials    []pricing.Line
	VAT          pricing.VATRates
	ModifierPct  decimal.Decimal
	Totals       pricing.Totals
	OpenedAt     time.Time
}

// EditingSession buffer editable de un reporte de facturación.
// Es el único dueño de las líneas mientras dura la edición; cada edición
// reemplaza el slice completo en lugar de modificarlo en sitio.
type EditingSession struct {
	mu sync.Mutex

	id           string
	reportID     string
	companyID    string
	workOrderRef string
	customerName string
	labor        []pricing.Line
	materials    []pricing.Line
	vat          pricing.VATRates
	modifierPct  decimal.Decimal
	limits       pricing.AdjustmentLimits
	openedAt     time.Time
	touchedAt    time.Time
	submitting   bool
}

// NewEditingSession carga las líneas del reporte en una sesión nueva.
// El ajuste inicial es el guardado en el reporte (0 si nunca se facturó).
func NewEditingSession(id string, report *entity.BillingReport, vat pricing.VATRates, limits pricing.AdjustmentLimits, now time.Time) *EditingSession {
	s := &EditingSession{
		id:           id,
		reportID:     report.ID,
		companyID:    report.CompanyID,
		workOrderRef: report.WorkOrderRef,
		customerName: report.CustomerName,
		vat:          vat,
		modifierPct:  report.AdjustmentPct,
		limits:       limits,
		openedAt:     now,
		touchedAt:    now,
	}
	for _, l := range report.Lines {
		line := pricing.Line{
			Kind:        pricing.LineKind(l.Kind),
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Total:       l.Total,
		}
		switch line.Kind {
		case pricing.KindLabor:
			s.labor = append(s.labor, line)
		case pricing.KindMaterial:
			s.materials = append(s.materials, line)
		}
	}
	return s
}

// ID identificador de la sesión.
func (s *EditingSession) ID() string { return s.id }

// ReportID reporte que se está editando.
func (s *EditingSession) ReportID() string { return s.reportID }

// CompanyID empresa dueña del reporte.
func (s *EditingSession) CompanyID() string { return s.companyID }

// TouchedAt última actividad.
func (s *EditingSession) TouchedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touchedAt
}

// Edit aplica una edición sobre la línea index del tipo kind.
//
// Retorna applied=false sin error si raw no es un número válido (se conserva el estado anterior).
// Retorna domain.ErrInvalidInput si el tipo, el campo o el índice no existen y
// domain.ErrConflict si la sesión se está enviando.
func (s *EditingSession) Edit(kind pricing.LineKind, index int, field EditField, raw string, now time.Time) (bool, error) {
	if field != FieldRate && field != FieldTotal {
		return false, fmt.Errorf("%w: campo %q", domain.ErrInvalidInput, field)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitting {
		return false, fmt.Errorf("%w: la sesión se está enviando", domain.ErrConflict)
	}

	var lines *[]pricing.Line
	switch kind {
	case pricing.KindLabor:
		lines = &s.labor
	case pricing.KindMaterial:
		lines = &s.materials
	default:
		return false, fmt.Errorf("%w: tipo de línea %q", domain.ErrInvalidInput, kind)
	}
	if index < 0 || index >= len(*lines) {
		return false, fmt.Errorf("%w: línea %d fuera de rango", domain.ErrInvalidInput, index)
	}
	s.touchedAt = now

	value, ok := pricing.ParseAmount(raw)
	if !ok {
		return false, nil
	}

	current := (*lines)[index]
	var edited pricing.Line
	if field == FieldRate {
		if value.IsNegative() {
			return false, nil
		}
		edited = pricing.RecomputeFromRate(current, value)
	} else {
		edited = pricing.RecomputeFromTotal(current, value)
	}
	*lines, _ = pricing.ReplaceLine(*lines, index, edited)
	return true, nil
}

// SetAdjustment fija el ajuste global. Texto no numérico se ignora (applied=false);
// un porcentaje fuera de rango se rechaza con domain.ErrInvalidAdjustment.
func (s *EditingSession) SetAdjustment(raw string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitting {
		return false, fmt.Errorf("%w: la sesión se está enviando", domain.ErrConflict)
	}
	s.touchedAt = now

	pct, ok := pricing.ParseAmount(raw)
	if !ok {
		return false, nil
	}
	if err := pricing.ValidateAdjustment(pct, s.limits); err != nil {
		return false, err
	}
	s.modifierPct = pct
	return true, nil
}

// Snapshot devuelve una copia del estado con los totales recalculados desde cero.
func (s *EditingSession) Snapshot() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// beginSubmit bloquea ediciones y devuelve el estado a enviar.
// Cuenta como actividad: la sesión no expira mientras el envío está en curso.
func (s *EditingSession) beginSubmit(now time.Time) (SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return SessionView{}, fmt.Errorf("%w: envío en curso", domain.ErrConflict)
	}
	s.submitting = true
	s.touchedAt = now
	return s.viewLocked(), nil
}

// endSubmit vuelve a habilitar ediciones (se usa cuando el envío falla).
func (s *EditingSession) endSubmit(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	s.touchedAt = now
}

// idle última actividad y si hay un envío en curso.
func (s *EditingSession) idle() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touchedAt, s.submitting
}

func (s *EditingSession) viewLocked() SessionView {
	labor := make([]pricing.Line, len(s.labor))
	copy(labor, s.labor)
	materials := make([]pricing.Line, len(s.materials))
	copy(materials, s.materials)
	return SessionView{
		ID:           s.id,
		ReportID:     s.reportID,
		CompanyID:    s.companyID,
		WorkOrderRef: s.workOrderRef,
		CustomerName: s.customerName,
		Labor:        labor,
		Materials:    materials,
		VAT:          s.vat,
		ModifierPct:  s.modifierPct,
		Totals:       pricing.ComputeTotals(labor, materials, s.vat, s.modifierPct),
		OpenedAt:     s.openedAt,
	}
}
