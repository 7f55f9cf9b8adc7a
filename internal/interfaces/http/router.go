package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/fieldbill/internal/application/billing"
	"github.com/jhoicas/fieldbill/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Sessions  *billing.SessionUseCase
	JWTSecret string
	JWTIssuer string
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))

	h := NewBillingSessionHandler(deps.Sessions)

	sessions := api.Group("/billing-sessions")
	sessions.Post("/", h.Open)
	sessions.Get("/:id", h.Get)
	sessions.Patch("/:id/lines/:kind/:index", h.EditLine)
	sessions.Put("/:id/adjustment", h.SetAdjustment)
	sessions.Get("/:id/print", h.Print)
	sessions.Get("/:id/export", h.Export)
	sessions.Delete("/:id", h.Close)
	// Solo administración y facturación pueden marcar como facturado.
	sessions.Post("/:id/submit", RequireRole(jwt.RoleAdmin, jwt.RoleBilling), h.Submit)

	api.Get("/reports/:id/totals", h.ReportTotals)
}
