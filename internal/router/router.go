// Package router wires handlers and middleware onto an echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/adopter-login-api/internal/config"
	"github.com/iliyamo/adopter-login-api/internal/handler"
	"github.com/iliyamo/adopter-login-api/internal/middleware"
	"github.com/iliyamo/adopter-login-api/internal/service"
)

// Deps carries what route registration needs besides the handlers. Redis
// may be nil, which turns rate limiting and caching into pass-throughs.
type Deps struct {
	JWTSecret string
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	Redis     *redis.Client
	Log       *zap.Logger
}

// New returns an echo instance with the validator, the JSON error handler
// and the request middleware chain installed.
func New(log *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.HTTPErrorHandler(log)
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(log))
	return e
}

// RegisterRoutes registers the health probes.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/v1/health", handler.APIHealth)
}

// RegisterAuth registers captcha, signin, signup and the password flows.
// Endpoints that can be brute forced sit behind the token bucket.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, d Deps) {
	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log)

	g := e.Group("/v1")
	g.POST("/captcha", a.Captcha, limit)
	g.POST("/signin", a.Signin, limit)
	g.POST("/signup", a.Signup)
	g.POST("/password-reset", a.RequestPasswordReset, limit)
	g.POST("/password-reset/confirm", a.ConfirmPasswordReset, limit)

	// Per-route so unknown /v1 paths still answer 404.
	jwt := middleware.JWTAuth(d.JWTSecret)
	g.GET("/me", a.Me, jwt)
	g.POST("/password/change", a.ChangePassword, jwt)
}

// RegisterUsers registers the user lookups. All routes require a token;
// deleting and restoring accounts is admin-only.
func RegisterUsers(e *echo.Echo, h *handler.UserHandler, d Deps) {
	g := e.Group("/v1/users", middleware.JWTAuth(d.JWTSecret))
	g.GET("", h.List)
	g.GET("/email/:email", h.GetByEmail)
	g.GET("/:id", h.Get)
	admin := middleware.RequireRole(service.RoleAdmin)
	g.DELETE("/:id", h.Delete, admin)
	g.POST("/:id/restore", h.Restore, admin)
}
