package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/fieldbill/internal/application/billing"
	"github.com/jhoicas/fieldbill/internal/application/dto"
	"github.com/jhoicas/fieldbill/internal/domain"
	"github.com/jhoicas/fieldbill/internal/domain/entity"
	"github.com/jhoicas/fieldbill/internal/domain/pricing"
	"github.com/jhoicas/fieldbill/internal/domain/repository"
	apphttp "github.com/jhoicas/fieldbill/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/fieldbill/pkg/jwt"
	"github.com/jhoicas/fieldbill/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dobles de prueba
// ──────────────────────────────────────────────────────────────────────────────

const testReportID = "11111111-1111-1111-1111-111111111111"

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type memReports struct {
	reports map[string]*entity.BillingReport
}

func (m *memReports) GetByID(_ context.Context, id string) (*entity.BillingReport, error) {
	r, ok := m.reports[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *memReports) ReplaceLines(_ context.Context, reportID string, lines []*entity.ReportLine) error {
	m.reports[reportID].Lines = lines
	return nil
}

func (m *memReports) MarkBilled(_ context.Context, report *entity.BillingReport) error {
	current := m.reports[report.ID]
	if current.IsBilled() {
		return domain.ErrAlreadyBilled
	}
	current.Status = entity.ReportStatusBilled
	current.GrandTotal = report.GrandTotal
	return nil
}

type memCompanies struct{}

func (memCompanies) GetByID(_ context.Context, id string) (*entity.Company, error) {
	return &entity.Company{ID: id, Name: "Servicios Técnicos SAS"}, nil
}

func (memCompanies) GetVATSettings(context.Context, string) (*entity.VATSettings, error) {
	return nil, nil
}

type directTx struct{ repo *memReports }

func (tx directTx) RunBilling(_ context.Context, fn func(repository.BillingReportRepository) error) error {
	return fn(tx.repo)
}

type stubPrinter struct{}

func (stubPrinter) PrintSession(context.Context, billing.SessionView, *entity.Company) ([]byte, error) {
	return []byte("%PDF-1.3 stub"), nil
}

type stubExporter struct{}

func (stubExporter) ExportSession(context.Context, billing.SessionView) ([]byte, error) {
	return []byte("PK stub"), nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

func newBillingApp(t *testing.T) (*fiber.App, *memReports) {
	t.Helper()
	repo := &memReports{reports: map[string]*entity.BillingReport{
		testReportID: {
			ID:           testReportID,
			CompanyID:    testCompanyID,
			WorkOrderRef: "OT-1001",
			Status:       entity.ReportStatusOpen,
			Lines: []*entity.ReportLine{
				{Kind: entity.LineKindLabor, Description: "Instalación", Quantity: d("2"), UnitPrice: d("500"), Total: d("1000")},
				{Kind: entity.LineKindMaterial, Description: "Cable", Quantity: d("3"), UnitPrice: d("100"), Total: d("300")},
			},
		},
	}}
	uc := billing.NewSessionUseCase(repo, memCompanies{}, directTx{repo: repo}, stubPrinter{}, stubExporter{},
		billing.NewSessionStore(time.Hour),
		billing.SessionConfig{
			DefaultVAT: pricing.VATRates{LaborPct: d("21"), MaterialPct: d("21")},
			Limits:     pricing.DefaultAdjustmentLimits(),
		},
		logger.Nop(),
	)
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{Sessions: uc, JWTSecret: testJWTSecret, JWTIssuer: testIssuer})
	return app, repo
}

func call(t *testing.T, app *fiber.App, method, path, auth, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func foreignIssuerToken(t *testing.T) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, "otro-sistema", pkgjwt.Identity{
		UserID: testUserID, CompanyID: testCompanyID, Role: pkgjwt.RoleAdmin,
	}, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func openSession(t *testing.T, app *fiber.App, auth string) dto.SessionResponse {
	t.Helper()
	resp := call(t, app, http.MethodPost, "/api/billing-sessions", auth, `{"report_id":"`+testReportID+`"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[dto.SessionResponse](t, resp)
}

// ──────────────────────────────────────────────────────────────────────────────
// Flujo completo
// ──────────────────────────────────────────────────────────────────────────────

func TestBillingSession_FlujoCompleto(t *testing.T) {
	app, repo := newBillingApp(t)
	auth := tokenForRole(t, pkgjwt.RoleBilling)

	sess := openSession(t, app, auth)
	assert.True(t, sess.Totals.GrandTotal.Equal(d("1573")))

	resp := call(t, app, http.MethodPatch, "/api/billing-sessions/"+sess.ID+"/lines/material/0", auth, `{"field":"total","value":"450"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	edit := decode[dto.EditResultResponse](t, resp)
	assert.True(t, edit.Applied)
	assert.True(t, edit.Session.Materials[0].UnitPrice.Equal(d("150")))

	resp = call(t, app, http.MethodPut, "/api/billing-sessions/"+sess.ID+"/adjustment", auth, `{"modifier_pct":"-10"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	adj := decode[dto.EditResultResponse](t, resp)
	// (1000+450)*0.9 = 1305; IVA 21% = 274.05
	assert.True(t, adj.Session.Totals.GrandTotal.Equal(d("1579.05")), "got %s", adj.Session.Totals.GrandTotal)

	resp = call(t, app, http.MethodGet, "/api/billing-sessions/"+sess.ID+"/print", auth, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "facturacion-OT-1001.pdf")
	resp.Body.Close()

	resp = call(t, app, http.MethodGet, "/api/billing-sessions/"+sess.ID+"/export", auth, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".xlsx")
	resp.Body.Close()

	resp = call(t, app, http.MethodPost, "/api/billing-sessions/"+sess.ID+"/submit", auth, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sub := decode[dto.SubmitResponse](t, resp)
	assert.Equal(t, entity.ReportStatusBilled, sub.Status)
	assert.True(t, repo.reports[testReportID].IsBilled())

	resp = call(t, app, http.MethodGet, "/api/billing-sessions/"+sess.ID, auth, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = call(t, app, http.MethodPost, "/api/billing-sessions", auth, `{"report_id":"`+testReportID+`"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestBillingSession_ValorNoNumericoRespondeAppliedFalse(t *testing.T) {
	app, _ := newBillingApp(t)
	auth := tokenForRole(t, pkgjwt.RoleTechnician)
	sess := openSession(t, app, auth)

	resp := call(t, app, http.MethodPatch, "/api/billing-sessions/"+sess.ID+"/lines/labor/0", auth, `{"field":"rate","value":"abc"}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[dto.EditResultResponse](t, resp)
	assert.False(t, out.Applied)
	assert.True(t, out.Session.Totals.GrandTotal.Equal(d("1573")))
}

func TestBillingSession_ImportesComoNumeroJSON(t *testing.T) {
	app, _ := newBillingApp(t)
	auth := tokenForRole(t, pkgjwt.RoleTechnician)
	sess := openSession(t, app, auth)
	base := "/api/billing-sessions/" + sess.ID

	resp := call(t, app, http.MethodPatch, base+"/lines/labor/0", auth, `{"field":"rate","value":600}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	edit := decode[dto.EditResultResponse](t, resp)
	assert.True(t, edit.Applied)
	assert.True(t, edit.Session.Labor[0].Total.Equal(d("1200")), "got %s", edit.Session.Labor[0].Total)

	// vuelve a 500 para comprobar el ajuste sobre los importes originales
	resp = call(t, app, http.MethodPatch, base+"/lines/labor/0", auth, `{"field":"rate","value":500.00}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = call(t, app, http.MethodPut, base+"/adjustment", auth, `{"modifier_pct":-10}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	adj := decode[dto.EditResultResponse](t, resp)
	assert.True(t, adj.Applied)
	// (1000+300)*0.9 = 1170; IVA 21% = 245.7
	assert.True(t, adj.Session.Totals.GrandTotal.Equal(d("1415.7")), "got %s", adj.Session.Totals.GrandTotal)
}

func TestBillingSession_AjusteNoNumericoRespondeAppliedFalse(t *testing.T) {
	app, _ := newBillingApp(t)
	auth := tokenForRole(t, pkgjwt.RoleTechnician)
	sess := openSession(t, app, auth)

	for _, body := range []string{`{"modifier_pct":"abc"}`, `{"modifier_pct":true}`} {
		resp := call(t, app, http.MethodPut, "/api/billing-sessions/"+sess.ID+"/adjustment", auth, body)
		require.Equal(t, http.StatusOK, resp.StatusCode, body)
		out := decode[dto.EditResultResponse](t, resp)
		assert.False(t, out.Applied, body)
		assert.True(t, out.Session.Totals.GrandTotal.Equal(d("1573")), body)
	}
}

func TestBillingSession_CodigosDeError(t *testing.T) {
	app, _ := newBillingApp(t)
	auth := tokenForRole(t, pkgjwt.RoleTechnician)
	sess := openSession(t, app, auth)
	base := "/api/billing-sessions/" + sess.ID

	cases := []struct {
		name   string
		method string
		path   string
		auth   string
		body   string
		status int
		code   string
	}{
		{"índice fuera de rango", http.MethodPatch, base + "/lines/labor/5", auth, `{"field":"rate","value":"1"}`, http.StatusBadRequest, "VALIDATION"},
		{"índice no numérico", http.MethodPatch, base + "/lines/labor/x", auth, `{"field":"rate","value":"1"}`, http.StatusBadRequest, "VALIDATION"},
		{"ajuste fuera de rango", http.MethodPut, base + "/adjustment", auth, `{"modifier_pct":"-150"}`, http.StatusBadRequest, "INVALID_ADJUSTMENT"},
		{"sesión inexistente", http.MethodGet, "/api/billing-sessions/nope", auth, "", http.StatusNotFound, "SESSION_NOT_FOUND"},
		{"reporte inexistente", http.MethodPost, "/api/billing-sessions", auth, `{"report_id":"44444444-4444-4444-4444-444444444444"}`, http.StatusNotFound, "NOT_FOUND"},
		{"report_id no UUID", http.MethodPost, "/api/billing-sessions", auth, `{"report_id":"nope"}`, http.StatusBadRequest, "VALIDATION"},
		{"totales con id no UUID", http.MethodGet, "/api/reports/nope/totals", auth, "", http.StatusBadRequest, "VALIDATION"},
		{"token de otro emisor", http.MethodGet, base, foreignIssuerToken(t), "", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"otra empresa", http.MethodGet, base, tokenFor(t, "otra-empresa", pkgjwt.RoleAdmin), "", http.StatusForbidden, "FORBIDDEN"},
		{"técnico no puede facturar", http.MethodPost, base + "/submit", auth, "", http.StatusForbidden, "FORBIDDEN"},
		{"sin token", http.MethodGet, base, "", "", http.StatusUnauthorized, "MISSING_TOKEN"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := call(t, app, tc.method, tc.path, tc.auth, tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)
			out := decode[dto.ErrorResponse](t, resp)
			assert.Equal(t, tc.code, out.Code)
		})
	}
}

func TestBillingSession_CloseYTotalesDelReporte(t *testing.T) {
	app, _ := newBillingApp(t)
	auth := tokenForRole(t, pkgjwt.RoleTechnician)
	sess := openSession(t, app, auth)

	resp := call(t, app, http.MethodDelete, "/api/billing-sessions/"+sess.ID, auth, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = call(t, app, http.MethodGet, "/api/reports/"+testReportID+"/totals", auth, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tot := decode[dto.TotalsResponse](t, resp)
	assert.True(t, tot.GrandTotal.Equal(d("1573")))
	assert.False(t, tot.HasAdjustment)
}
