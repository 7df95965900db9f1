package server

import (
	"log"

	"course-notes-admin/internal/bootstrap"
	"course-notes-admin/internal/config"
	"course-notes-admin/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const maxUploadBytes = 32 * 1024 * 1024

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	// Route parameters arrive decoded, so "%20" or "%2F" cannot smuggle a
	// blank or nested segment into a route key.
	app := fiber.New(fiber.Config{
		BodyLimit:    maxUploadBytes,
		UnescapePath: true,
	})

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.App.CorsAllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware(container.Logger))
	app.Use(recover.New())

	if cfg.Storage.Provider == config.StorageProviderLocal {
		app.Static("/uploads", cfg.Storage.LocalDir)
	}

	app.Get("/healthz", func(ctx *fiber.Ctx) error {
		return ctx.JSON(serverutils.SuccessResponse[any]("ok", nil))
	})

	registerRoutes(app, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("Server is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	api := app.Group("/api")
	c.CourseController.RegisterRoutes(api)

	c.ProgressHandler.RegisterRoutes(app)

	// Page routes last: "/:category" would otherwise shadow single-segment paths.
	c.NoteController.RegisterPages(app)
	c.CourseController.RegisterPages(app)
}
