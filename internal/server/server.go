// Package server assembles the fiber app: middleware, public auth routes and
// the session-protected workflow API.
package server

import (
	"strings"

	"logistics-backend/internal/apperr"
	"logistics-backend/internal/audit"
	"logistics-backend/internal/auth"
	"logistics-backend/internal/config"
	"logistics-backend/internal/docket"
	"logistics-backend/internal/loading"
	"logistics-backend/internal/manifest"
	"logistics-backend/internal/models"
	"logistics-backend/internal/pod"
	"logistics-backend/internal/report"
	"logistics-backend/internal/storage"
	"logistics-backend/internal/thc"
	"logistics-backend/internal/workflow"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

type Deps struct {
	Config   *config.Config
	Engine   *workflow.Engine
	Audit    *audit.Recorder
	Objects  storage.Store
	Renderer report.PDFRenderer
	// Quiet turns the access log off, for tests.
	Quiet bool
}

func New(d Deps) *fiber.App {
	cfg := d.Config
	st := d.Engine.Store()

	renderer := d.Renderer
	if renderer == nil {
		renderer = report.DisabledRenderer{}
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: apperr.ErrorHandler,
		BodyLimit:    12 << 20,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	if !d.Quiet {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
		}))
	}

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	origins := strings.Join(corsOrigins, ",")
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PATCH,OPTIONS",
		// the session cookie needs credentials; fiber refuses them with a wildcard origin
		AllowCredentials: origins != "" && origins != "*",
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	if local, ok := d.Objects.(*storage.LocalStore); ok {
		app.Static("/uploads", local.Dir())
	}

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register", auth.RegisterHandler(st, d.Audit))
	api.Post("/auth/login", auth.LoginHandler(cfg, st))
	api.Post("/auth/logout", auth.LogoutHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	// viewers read, dispatchers and admins write
	write := auth.RequireRole(models.RoleAdmin, models.RoleDispatcher)

	protected.Get("/auth/me", auth.MeHandler(st))

	// Dockets
	protected.Get("/dockets", docket.ListHandler(st))
	protected.Post("/dockets", write, docket.CreateHandler(d.Engine))
	protected.Get("/dockets/:id", docket.GetHandler(st))
	protected.Get("/dockets/:id/tracker", docket.TrackerHandler(st, d.Audit))
	protected.Patch("/dockets/:id/status", write, docket.ForceStatusHandler(d.Engine))

	// Loading sheets
	protected.Get("/loading-sheets", loading.ListHandler(st))
	protected.Post("/loading-sheets", write, loading.CreateHandler(d.Engine))
	protected.Get("/loading-sheets/:id", loading.GetHandler(st))

	// Manifests
	protected.Get("/manifests", manifest.ListHandler(st))
	protected.Post("/manifests", write, manifest.CreateHandler(d.Engine))
	protected.Get("/manifests/:id", manifest.GetHandler(st))
	protected.Get("/manifests/:id/export.xlsx", manifest.ExportXLSXHandler(st))
	protected.Get("/manifests/:id/pdf", manifest.PDFHandler(st, renderer))

	// THC
	protected.Get("/thcs", thc.ListHandler(st))
	protected.Post("/thcs", write, thc.CreateHandler(d.Engine))
	protected.Patch("/thcs/:id", write, thc.UpdateHandler(d.Engine))

	// POD
	protected.Get("/pods", pod.ListHandler(st))
	protected.Post("/pods", write, pod.CreateHandler(d.Engine))
	protected.Post("/pods/upload", write, pod.UploadHandler(d.Engine, d.Objects))
	protected.Post("/pods/:id/review", write, pod.ReviewHandler(d.Engine))
	protected.Post("/pods/:id/analyze", write, pod.AnalyzeHandler(d.Engine))

	// Audit
	protected.Get("/audit-logs", audit.ListAuditLogsHandler(d.Audit))

	return app
}
