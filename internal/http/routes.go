package http

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	middleware "workforce-tracker.com/workforce-tracker/internal/http/middlewares"
	"workforce-tracker.com/workforce-tracker/internal/http/validators"
)

type RouteConfig struct {
	JWTSecret          string
	RateLimitPerMinute int

	// VerificationRateLimitPerMinute applies to /verification instead of
	// RateLimitPerMinute.
	VerificationRateLimitPerMinute int
}

// NewServer builds an echo instance with the shared error handler, validator
// and request middleware installed.
func NewServer(logger *logrus.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validators.New()
	e.HTTPErrorHandler = ErrorHandler(logger)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	return e
}

func Register(e *echo.Echo, h *Handler, cfg RouteConfig) {
	e.GET("/healthz", h.Health)

	authenticate := middleware.Authenticate(cfg.JWTSecret)

	verification := e.Group("/verification",
		authenticate,
		middleware.RateLimiter(cfg.VerificationRateLimitPerMinute, time.Minute, middleware.ByCaller),
	)
	verification.POST("/email", h.RequestEmailVerification)
	verification.POST("/email/confirm", h.ConfirmEmailVerification)

	api := e.Group("",
		authenticate,
		middleware.RateLimiter(cfg.RateLimitPerMinute, time.Minute, middleware.ByCaller),
	)

	api.GET("/tasks", h.ListTasks)
	api.POST("/tasks", h.CreateTask)
	api.GET("/tasks/:id", h.GetTask)
	api.PATCH("/tasks/:id", h.UpdateTask)
	api.DELETE("/tasks/:id", h.DeleteTask)
	api.PUT("/tasks/:id/status", h.SetStatus)
	api.POST("/tasks/:id/comments", h.AddComment)
	api.POST("/tasks/:id/attachments", h.AddAttachment)

	api.GET("/customers", h.ListCustomers)
	api.GET("/dashboard", h.Dashboard)
	api.GET("/calendar", h.Calendar)

	api.GET("/ws", h.Notifications)
}
