package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/fieldbill/internal/application/dto"
	"github.com/jhoicas/fieldbill/internal/domain"
	"github.com/jhoicas/fieldbill/internal/domain/entity"
	"github.com/jhoicas/fieldbill/internal/domain/pricing"
	"github.com/jhoicas/fieldbill/internal/domain/repository"
	"github.com/jhoicas/fieldbill/pkg/logger"
)

// SessionConfig valores por defecto del motor para las sesiones.
type SessionConfig struct {
	DefaultVAT pricing.VATRates         // si la empresa no tiene IVA configurado
	Limits     pricing.AdjustmentLimits // rango permitido del ajuste global
}

// SessionUseCase ciclo de vida de las sesiones de edición: abrir → editar → enviar/cerrar.
type SessionUseCase struct {
	reports   repository.BillingReportRepository
	companies repository.CompanyRepository
	txRunner  BillingTxRunner
	printer   ReportPrinter
	exporter  SpreadsheetExporter
	store     *SessionStore
	cfg       SessionConfig
	log       *logger.Logger
	now       func() time.Time
}

// NewSessionUseCase construye el caso de uso inyectando todas sus dependencias.
func NewSessionUseCase(
	reports repository.BillingReportRepository,
	companies repository.CompanyRepository,
	txRunner BillingTxRunner,
	printer ReportPrinter,
	exporter SpreadsheetExporter,
	store *SessionStore,
	cfg SessionConfig,
	log *logger.Logger,
) *SessionUseCase {
	return &SessionUseCase{
		reports:   reports,
		companies: companies,
		txRunner:  txRunner,
		printer:   printer,
		exporter:  exporter,
		store:     store,
		cfg:       cfg,
		log:       log.Component("billing-session"),
		now:       time.Now,
	}
}

// Open carga el reporte y abre una sesión de edición. Si ya hay una sesión vigente
// para el mismo reporte se devuelve esa.
//
// Retorna:
//   - domain.ErrInvalidInput  si reportID está vacío.
//   - domain.ErrNotFound      si el reporte no existe.
//   - domain.ErrForbidden     si el reporte es de otra empresa.
//   - domain.ErrAlreadyBilled si el reporte ya fue facturado.
func (uc *SessionUseCase) Open(ctx context.Context, companyID, reportID string) (*dto.SessionResponse, error) {
	if err := validReportID(reportID); err != nil {
		return nil, err
	}
	if existing, ok := uc.store.GetByReport(reportID); ok && existing.CompanyID() == companyID {
		resp := toSessionResponse(existing.Snapshot())
		return &resp, nil
	}

	report, err := uc.reports.GetByID(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("obtener reporte: %w", err)
	}
	if report == nil {
		return nil, domain.ErrNotFound
	}
	if report.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	if report.IsBilled() {
		return nil, domain.ErrAlreadyBilled
	}

	vat, err := uc.vatFor(ctx, companyID)
	if err != nil {
		return nil, err
	}

	session := NewEditingSession(uuid.New().String(), report, vat, uc.cfg.Limits, uc.now())
	uc.store.Put(session)
	uc.log.Info().
		Str("session_id", session.ID()).
		Str("report_id", reportID).
		Str("company_id", companyID).
		Msg("sesión de edición abierta")

	resp := toSessionResponse(session.Snapshot())
	return &resp, nil
}

// Get devuelve el estado actual de la sesión.
func (uc *SessionUseCase) Get(_ context.Context, companyID, sessionID string) (*dto.SessionResponse, error) {
	session, err := uc.session(companyID, sessionID)
	if err != nil {
		return nil, err
	}
	resp := toSessionResponse(session.Snapshot())
	return &resp, nil
}

// EditLine edita la tarifa o el total de una línea. Un valor no numérico no es un error:
// se responde Applied=false con el estado sin cambios.
func (uc *SessionUseCase) EditLine(_ context.Context, companyID, sessionID, kind string, index int, in dto.EditLineRequest) (*dto.EditResultResponse, error) {
	session, err := uc.session(companyID, sessionID)
	if err != nil {
		return nil, err
	}
	applied, err := session.Edit(pricing.LineKind(kind), index, EditField(in.Field), string(in.Value), uc.now())
	if err != nil {
		return nil, err
	}
	return &dto.EditResultResponse{Applied: applied, Session: toSessionResponse(session.Snapshot())}, nil
}

// SetAdjustment fija el ajuste global (descuento/recargo antes de IVA).
func (uc *SessionUseCase) SetAdjustment(_ context.Context, companyID, sessionID string, in dto.AdjustmentRequest) (*dto.EditResultResponse, error) {
	session, err := uc.session(companyID, sessionID)
	if err != nil {
		return nil, err
	}
	applied, err := session.SetAdjustment(string(in.ModifierPct), uc.now())
	if err != nil {
		return nil, err
	}
	return &dto.EditResultResponse{Applied: applied, Session: toSessionResponse(session.Snapshot())}, nil
}

// Submit recalcula los totales desde cero y marca el reporte como facturado en una transacción:
// reemplaza las líneas, guarda totales y ajuste, y cambia el estado a BILLED.
//
// Si falla, la sesión sigue abierta y editable con los datos que ya tenía; no se reintenta.
func (uc *SessionUseCase) Submit(ctx context.Context, companyID, userID, sessionID string) (*dto.SubmitResponse, error) {
	session, err := uc.session(companyID, sessionID)
	if err != nil {
		return nil, err
	}
	view, err := session.beginSubmit(uc.now())
	if err != nil {
		return nil, err
	}

	billedAt := uc.now()
	report := &entity.BillingReport{
		ID:            view.ReportID,
		CompanyID:     view.CompanyID,
		Status:        entity.ReportStatusBilled,
		AdjustmentPct: view.ModifierPct,
		NetTotal:      view.Totals.NetTotal(),
		TaxTotal:      view.Totals.TaxTotal(),
		GrandTotal:    view.Totals.GrandTotal,
		BilledAt:      &billedAt,
		BilledBy:      userID,
		UpdatedAt:     billedAt,
	}

	err = uc.txRunner.RunBilling(ctx, func(reports repository.BillingReportRepository) error {
		current, err := reports.GetByID(ctx, view.ReportID)
		if err != nil {
			return fmt.Errorf("obtener reporte: %w", err)
		}
		if current == nil {
			return domain.ErrNotFound
		}
		if current.IsBilled() {
			return domain.ErrAlreadyBilled
		}
		if err := reports.ReplaceLines(ctx, view.ReportID, toReportLines(view)); err != nil {
			return err
		}
		return reports.MarkBilled(ctx, report)
	})
	if err != nil {
		session.endSubmit(uc.now())
		uc.log.Error().Err(err).
			Str("session_id", sessionID).
			Str("report_id", view.ReportID).
			Msg("no se pudo marcar el reporte como facturado")
		if errors.Is(err, domain.ErrAlreadyBilled) {
			uc.store.Delete(sessionID)
		}
		return nil, err
	}

	uc.store.Delete(sessionID)
	uc.log.Info().
		Str("session_id", sessionID).
		Str("report_id", view.ReportID).
		Str("grand_total", view.Totals.GrandTotal.StringFixed(2)).
		Msg("reporte marcado como facturado")

	return &dto.SubmitResponse{
		ReportID:   view.ReportID,
		Status:     entity.ReportStatusBilled,
		NetTotal:   report.NetTotal,
		TaxTotal:   report.TaxTotal,
		GrandTotal: report.GrandTotal,
		BilledAt:   billedAt,
	}, nil
}

// Print genera el PDF con el estado actual de la sesión. Devuelve bytes y nombre de archivo.
func (uc *SessionUseCase) Print(ctx context.Context, companyID, sessionID string) ([]byte, string, error) {
	session, err := uc.session(companyID, sessionID)
	if err != nil {
		return nil, "", err
	}
	company, err := uc.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, "", fmt.Errorf("obtener empresa: %w", err)
	}
	if company == nil {
		company = &entity.Company{ID: companyID}
	}
	view := session.Snapshot()
	pdfBytes, err := uc.printer.PrintSession(ctx, view, company)
	if err != nil {
		return nil, "", fmt.Errorf("generar PDF: %w", err)
	}
	return pdfBytes, fileName(view, "pdf"), nil
}

// Export genera la hoja de cálculo con el estado actual de la sesión.
func (uc *SessionUseCase) Export(ctx context.Context, companyID, sessionID string) ([]byte, string, error) {
	session, err := uc.session(companyID, sessionID)
	if err != nil {
		return nil, "", err
	}
	view := session.Snapshot()
	content, err := uc.exporter.ExportSession(ctx, view)
	if err != nil {
		return nil, "", fmt.Errorf("generar hoja de cálculo: %w", err)
	}
	return content, fileName(view, "xlsx"), nil
}

// Close descarta la sesión sin guardar.
func (uc *SessionUseCase) Close(_ context.Context, companyID, sessionID string) error {
	if _, err := uc.session(companyID, sessionID); err != nil {
		return err
	}
	uc.store.Delete(sessionID)
	return nil
}

// ReportTotals calcula los totales de un reporte guardado sin abrir sesión.
func (uc *SessionUseCase) ReportTotals(ctx context.Context, companyID, reportID string) (*dto.TotalsResponse, error) {
	if err := validReportID(reportID); err != nil {
		return nil, err
	}
	report, err := uc.reports.GetByID(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("obtener reporte: %w", err)
	}
	if report == nil {
		return nil, domain.ErrNotFound
	}
	if report.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	vat, err := uc.vatFor(ctx, companyID)
	if err != nil {
		return nil, err
	}
	view := NewEditingSession("", report, vat, uc.cfg.Limits, uc.now()).Snapshot()
	totals := toTotalsResponse(view.Totals)
	return &totals, nil
}

func (uc *SessionUseCase) session(companyID, sessionID string) (*EditingSession, error) {
	session, ok := uc.store.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if session.CompanyID() != companyID {
		return nil, domain.ErrForbidden
	}
	return session, nil
}

// vatFor IVA de la empresa con los valores por defecto para lo no configurado.
func (uc *SessionUseCase) vatFor(ctx context.Context, companyID string) (pricing.VATRates, error) {
	vat := uc.cfg.DefaultVAT
	settings, err := uc.companies.GetVATSettings(ctx, companyID)
	if err != nil {
		return vat, fmt.Errorf("obtener IVA de la empresa: %w", err)
	}
	if settings == nil {
		return vat, nil
	}
	if settings.LaborVATPct != nil {
		vat.LaborPct = *settings.LaborVATPct
	}
	if settings.MaterialVATPct != nil {
		vat.MaterialPct = *settings.MaterialVATPct
	}
	return vat, nil
}

// validReportID los reportes se identifican por UUID; cualquier otro texto
// es un error del cliente y no debe llegar a la base de datos.
func validReportID(reportID string) error {
	if reportID == "" {
		return fmt.Errorf("%w: report_id requerido", domain.ErrInvalidInput)
	}
	if _, err := uuid.Parse(reportID); err != nil {
		return fmt.Errorf("%w: id de reporte inválido", domain.ErrInvalidInput)
	}
	return nil
}

func fileName(view SessionView, ext string) string {
	ref := view.WorkOrderRef
	if ref == "" {
		ref = view.ReportID
	}
	return fmt.Sprintf("facturacion-%s.%s", ref, ext)
}

func toReportLines(view SessionView) []*entity.ReportLine {
	out := make([]*entity.ReportLine, 0, len(view.Labor)+len(view.Materials))
	add := func(lines []pricing.Line) {
		for i, l := range lines {
			out = append(out, &entity.ReportLine{
				ID:          uuid.New().String(),
				ReportID:    view.ReportID,
				Kind:        string(l.Kind),
				Position:    i,
				Description: l.Description,
				Quantity:    l.Quantity,
				UnitPrice:   l.UnitPrice,
				Total:       l.Total,
			})
		}
	}
	add(view.Labor)
	add(view.Materials)
	return out
}

func toSessionResponse(view SessionView) dto.SessionResponse {
	resp := dto.SessionResponse{
		ID:             view.ID,
		ReportID:       view.ReportID,
		WorkOrderRef:   view.WorkOrderRef,
		CustomerName:   view.CustomerName,
		LaborVATPct:    view.VAT.LaborPct,
		MaterialVATPct: view.VAT.MaterialPct,
		Labor:          make([]dto.LaborLineResponse, 0, len(view.Labor)),
		Materials:      make([]dto.MaterialLineResponse, 0, len(view.Materials)),
		Totals:         toTotalsResponse(view.Totals),
		OpenedAt:       view.OpenedAt,
	}
	for i, l := range view.Labor {
		resp.Labor = append(resp.Labor, dto.LaborLineResponse{
			Index: i, Description: l.Description, Hours: l.Quantity, Rate: l.UnitPrice, Total: l.Total,
		})
	}
	for i, l := range view.Materials {
		resp.Materials = append(resp.Materials, dto.MaterialLineResponse{
			Index: i, Description: l.Description, Quantity: l.Quantity, UnitPrice: l.UnitPrice, Total: l.Total,
		})
	}
	return resp
}

func toTotalsResponse(t pricing.Totals) dto.TotalsResponse {
	return dto.TotalsResponse{
		LaborSubtotal:    t.LaborSubtotal,
		MaterialSubtotal: t.MaterialSubtotal,
		RawTotal:         t.RawTotal,
		ModifierPct:      t.ModifierPct,
		HasAdjustment:    t.HasAdjustment(),
		AdjustmentAmount: t.AdjustmentAmount,
		LaborAdjusted:    t.LaborAdjusted,
		MaterialAdjusted: t.MaterialAdjusted,
		LaborVAT:         t.LaborVAT,
		MaterialVAT:      t.MaterialVAT,
		GrandTotal:       t.GrandTotal,
	}
}

