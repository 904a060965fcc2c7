package api

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/katakuxiko/pdfqa/internal/config"
	"github.com/katakuxiko/pdfqa/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewApp builds the fiber app with the JSON error handler and body limit.
func NewApp(cfg config.ServerConfig, log *zap.Logger) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:               "pdfqa",
		BodyLimit:             cfg.BodyLimitMB * 1024 * 1024,
		ErrorHandler:          ErrorHandler(log),
		DisableStartupMessage: true,
	})
}

func RegisterRoutes(app *fiber.App, h *Handler, cfg config.ServerConfig, m *metrics.Metrics, log *zap.Logger) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(corsMiddleware(cfg))
	app.Use(requestLogger(log))

	app.Get("/health", h.Health)
	app.Get("/status", h.Status)
	app.Get("/models", h.ListModels)
	app.Post("/upload_pdf", h.UploadPDF)
	app.Post("/ask_question", h.AskQuestion)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
}

// fiber panics on credentials with a wildcard origin, so they only apply to
// an explicit origin list.
func corsMiddleware(cfg config.ServerConfig) fiber.Handler {
	origins := strings.TrimSpace(cfg.CORSOrigins)
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS,HEAD",
		AllowCredentials: cfg.CORSCredentials && origins != "*",
	})
}

func requestLogger(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			// the app error handler has not run yet
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		log.Info("request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetRespHeader(fiber.HeaderXRequestID)))
		return err
	}
}
