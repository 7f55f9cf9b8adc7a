package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/fieldbill/internal/application/billing"
	"github.com/jhoicas/fieldbill/internal/domain/pricing"
	infraexcel "github.com/jhoicas/fieldbill/internal/infrastructure/excel"
	infrapdf "github.com/jhoicas/fieldbill/internal/infrastructure/pdf"
	"github.com/jhoicas/fieldbill/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/fieldbill/internal/interfaces/http"
	"github.com/jhoicas/fieldbill/pkg/config"
	"github.com/jhoicas/fieldbill/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
		log.Info().Msg("esquema actualizado")
	}

	reportRepo := postgres.NewBillingReportRepository(pool)
	companyRepo := postgres.NewCompanyRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Sesiones de edición en memoria; el janitor descarta las inactivas.
	store := billing.NewSessionStore(cfg.Billing.SessionTTL)
	go store.RunJanitor(ctx, time.Minute, log.Component("session-janitor"))

	sessionUC := billing.NewSessionUseCase(
		reportRepo, companyRepo, txRunner,
		infrapdf.NewSessionPrinter(), infraexcel.NewSessionExporter(),
		store,
		billing.SessionConfig{
			DefaultVAT: pricing.VATRates{
				LaborPct:    cfg.Billing.DefaultLaborVATPct,
				MaterialPct: cfg.Billing.DefaultMaterialVATPct,
			},
			Limits: pricing.AdjustmentLimits{
				MinPct: pricing.DefaultAdjustmentLimits().MinPct,
				MaxPct: cfg.Billing.MaxSurchargePct,
			},
		},
		log,
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(cfg.HTTP.SwaggerFile); cfg.HTTP.SwaggerFile != "" && err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.HTTP.SwaggerFile,
			Path:     "docs",
			Title:    "Fieldbill API",
		}))
	} else {
		log.Warn().Str("file", cfg.HTTP.SwaggerFile).Msg("swagger deshabilitado: archivo no encontrado")
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "sessions": store.Len()})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Sessions:  sessionUC,
		JWTSecret: cfg.JWT.Secret,
		JWTIssuer: cfg.JWT.Issuer,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
