package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/staff-service/internal/observability"
)

// ServerConfig carries what NewApp needs besides routes.
type ServerConfig struct {
	AppName        string
	RequestTimeout time.Duration
	Logger         *zap.Logger
	Metrics        *observability.Metrics
}

// NewApp builds the fiber application with middlewares and routes attached.
func NewApp(cfg ServerConfig, routes RouteConfig) *fiber.App {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return renderError(c, err, logger, cfg.Metrics)
		},
	})

	RegisterMiddlewares(app, logger, cfg.Metrics, cfg.RequestTimeout)
	if routes.Metrics == nil && cfg.Metrics != nil {
		routes.Metrics = cfg.Metrics.Handler()
	}
	RegisterRoutes(app, routes)
	return app
}
