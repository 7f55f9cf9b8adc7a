package billing

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/fieldbill/internal/domain"
	"github.com/jhoicas/fieldbill/internal/domain/entity"
	"github.com/jhoicas/fieldbill/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dobles de prueba en memoria para los puertos del caso de uso
// ──────────────────────────────────────────────────────────────────────────────

const (
	testCompanyID = "00000000-0000-0000-0000-000000000002"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testReportID  = "11111111-1111-1111-1111-111111111111"
)

var errDBDown = errors.New("conexión rechazada")

type fakeReportRepo struct {
	mu         sync.Mutex
	reports    map[string]*entity.BillingReport
	getErr     error
	markErr    error
	savedLines []*entity.ReportLine
}

var _ repository.BillingReportRepository = (*fakeReportRepo)(nil)

func newFakeReportRepo(reports ...*entity.BillingReport) *fakeReportRepo {
	r := &fakeReportRepo{reports: make(map[string]*entity.BillingReport)}
	for _, rep := range reports {
		r.reports[rep.ID] = rep
	}
	return r
}

func (r *fakeReportRepo) GetByID(_ context.Context, id string) (*entity.BillingReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	rep, ok := r.reports[id]
	if !ok {
		return nil, nil
	}
	cp := *rep
	return &cp, nil
}

func (r *fakeReportRepo) ReplaceLines(_ context.Context, reportID string, lines []*entity.ReportLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.savedLines = lines
	r.reports[reportID].Lines = lines
	return nil
}

func (r *fakeReportRepo) MarkBilled(_ context.Context, report *entity.BillingReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.markErr != nil {
		return r.markErr
	}
	current := r.reports[report.ID]
	if current.IsBilled() {
		return domain.ErrAlreadyBilled
	}
	current.Status = entity.ReportStatusBilled
	current.AdjustmentPct = report.AdjustmentPct
	current.NetTotal = report.NetTotal
	current.TaxTotal = report.TaxTotal
	current.GrandTotal = report.GrandTotal
	current.BilledAt = report.BilledAt
	current.BilledBy = report.BilledBy
	return nil
}

type fakeCompanyRepo struct {
	company *entity.Company
	vat     *entity.VATSettings
}

var _ repository.CompanyRepository = (*fakeCompanyRepo)(nil)

func (r *fakeCompanyRepo) GetByID(_ context.Context, id string) (*entity.Company, error) {
	if r.company == nil || r.company.ID != id {
		return nil, nil
	}
	return r.company, nil
}

func (r *fakeCompanyRepo) GetVATSettings(_ context.Context, companyID string) (*entity.VATSettings, error) {
	if r.vat == nil || r.vat.CompanyID != companyID {
		return nil, nil
	}
	return r.vat, nil
}

// fakeTxRunner ejecuta fn directamente sobre el repositorio en memoria.
type fakeTxRunner struct {
	repo  *fakeReportRepo
	err   error
	calls int
}

func (f *fakeTxRunner) RunBilling(_ context.Context, fn func(reports repository.BillingReportRepository) error) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return fn(f.repo)
}

type fakePrinter struct {
	last SessionView
}

func (p *fakePrinter) PrintSession(_ context.Context, view SessionView, _ *entity.Company) ([]byte, error) {
	p.last = view
	return []byte("%PDF-fake"), nil
}

type fakeExporter struct {
	last SessionView
}

func (e *fakeExporter) ExportSession(_ context.Context, view SessionView) ([]byte, error) {
	e.last = view
	return []byte("xlsx"), nil
}

// ── fixtures ──────────────────────────────────────────────────────────────────

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// sampleReport reporte abierto: 2h de mano de obra a 500 y 3 unidades de material a 100.
func sampleReport() *entity.BillingReport {
	return &entity.BillingReport{
		ID:           testReportID,
		CompanyID:    testCompanyID,
		WorkOrderRef: "OT-1001",
		CustomerName: "Ferretería El Tornillo",
		Status:       entity.ReportStatusOpen,
		Lines: []*entity.ReportLine{
			{ID: "l1", ReportID: testReportID, Kind: entity.LineKindLabor, Position: 0,
				Description: "Instalación", Quantity: d("2"), UnitPrice: d("500"), Total: d("1000")},
			{ID: "m1", ReportID: testReportID, Kind: entity.LineKindMaterial, Position: 0,
				Description: "Cable", Quantity: d("3"), UnitPrice: d("100"), Total: d("300")},
		},
	}
}
