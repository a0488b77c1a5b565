package api

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// RegisterRoutes registers all API routes with the Echo instance.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.GET("/health", h.HandleHealth)

	g := e.Group("/api")
	g.GET("/requests", h.HandleListRequests)
	g.GET("/categories", h.HandleCategories)
	g.POST("/files", h.HandleFiles)
	g.POST("/files/search", h.HandleSearch)
	g.POST("/files/reduction", h.HandleReduction)
	g.GET("/topics", h.HandleTopics)
	g.GET("/people", h.HandlePeople)
	g.POST("/zip", h.HandleZip)
}

// SetupMiddleware installs the error handler, request ids, panic recovery
// and structured request logging.
func SetupMiddleware(e *echo.Echo, log *slog.Logger) {
	e.HTTPErrorHandler = ErrorHandler
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency, "request_id", v.RequestID}
			if v.Error != nil {
				log.Error("request failed", append(attrs, "err", v.Error)...)
				return nil
			}
			log.Info("request", attrs...)
			return nil
		},
	}))
}

// NewServer returns an echo instance with middleware and routes installed.
func NewServer(h *Handler, log *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	SetupMiddleware(e, log)
	RegisterRoutes(e, h)
	return e
}
