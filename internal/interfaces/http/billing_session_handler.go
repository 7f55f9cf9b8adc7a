package http

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/fieldbill/internal/application/billing"
	"github.com/jhoicas/fieldbill/internal/application/dto"
	"github.com/jhoicas/fieldbill/internal/domain"
)

// BillingSessionHandler maneja las sesiones de edición de reportes de facturación (protegido).
type BillingSessionHandler struct {
	uc *billing.SessionUseCase
}

// NewBillingSessionHandler construye el handler.
func NewBillingSessionHandler(uc *billing.SessionUseCase) *BillingSessionHandler {
	return &BillingSessionHandler{uc: uc}
}

// Open abre (o reutiliza) la sesión de edición de un reporte.
// POST /api/billing-sessions
func (h *BillingSessionHandler) Open(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.OpenSessionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Open(c.Context(), companyID, in.ReportID)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Get estado actual de la sesión con totales recalculados.
// GET /api/billing-sessions/:id
func (h *BillingSessionHandler) Get(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.Get(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// EditLine edita tarifa o total de una línea.
// PATCH /api/billing-sessions/:id/lines/:kind/:index
func (h *BillingSessionHandler) EditLine(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "índice de línea inválido"})
	}
	var in dto.EditLineRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.EditLine(c.Context(), companyID, c.Params("id"), c.Params("kind"), index, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// SetAdjustment fija el descuento/recargo global.
// PUT /api/billing-sessions/:id/adjustment
func (h *BillingSessionHandler) SetAdjustment(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.AdjustmentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.SetAdjustment(c.Context(), companyID, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Submit marca el reporte como facturado y cierra la sesión.
// POST /api/billing-sessions/:id/submit
func (h *BillingSessionHandler) Submit(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	userID := GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.Submit(c.Context(), companyID, userID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Print PDF con el estado actual (sin guardar).
// GET /api/billing-sessions/:id/print
func (h *BillingSessionHandler) Print(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	content, name, err := h.uc.Print(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return sendFile(c, "application/pdf", name, content)
}

// Export hoja de cálculo con el estado actual (sin guardar).
// GET /api/billing-sessions/:id/export
func (h *BillingSessionHandler) Export(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	content, name, err := h.uc.Export(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return sendFile(c, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", name, content)
}

// Close descarta la sesión sin guardar.
// DELETE /api/billing-sessions/:id
func (h *BillingSessionHandler) Close(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	if err := h.uc.Close(c.Context(), companyID, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ReportTotals totales de un reporte guardado, sin abrir sesión.
// GET /api/reports/:id/totals
func (h *BillingSessionHandler) ReportTotals(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.ReportTotals(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}

func sendFile(c *fiber.Ctx, contentType, name string, content []byte) error {
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Send(content)
}

// writeError traduce errores de dominio a respuestas HTTP.
func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidAdjustment):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_ADJUSTMENT", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrSessionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "SESSION_NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "reporte no encontrado"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado"})
	case errors.Is(err, domain.ErrAlreadyBilled):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "ALREADY_BILLED", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	default:
		// el detalle (driver, SQL) no sale del servidor
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
	}
}
