package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/adopter-login-api/internal/handler"
	"github.com/iliyamo/adopter-login-api/internal/middleware"
	"github.com/iliyamo/adopter-login-api/internal/service"
)

// Cache resources. Organization reads include the org→teams view, so team
// writes purge both.
const (
	resOrganizations = "organizations"
	resTeams         = "teams"
)

// RegisterOrganizations registers organization CRUD under /v1/organizations.
// Reads are cached per caller; successful writes purge the cache.
func RegisterOrganizations(e *echo.Echo, h *handler.OrganizationHandler, d Deps) {
	g := e.Group("/v1/organizations",
		middleware.JWTAuth(d.JWTSecret),
		middleware.InvalidateCache(d.Cache, d.Redis, d.Log, resOrganizations, resTeams),
		middleware.NewRedisCache(d.Cache, d.Redis, resOrganizations, d.Log),
	)
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/search", h.Search)
	g.GET("/count", h.Count)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/restore", h.Restore)
	g.DELETE("/:id/hard", h.HardDelete, middleware.RequireRole(service.RoleAdmin))
	g.GET("/:id/teams", h.Teams)
}

// RegisterTeams registers team CRUD and the mapping endpoints under /v1/teams.
func RegisterTeams(e *echo.Echo, h *handler.TeamHandler, d Deps) {
	g := e.Group("/v1/teams",
		middleware.JWTAuth(d.JWTSecret),
		middleware.InvalidateCache(d.Cache, d.Redis, d.Log, resTeams, resOrganizations),
		middleware.NewRedisCache(d.Cache, d.Redis, resTeams, d.Log),
	)
	g.POST("", h.Create)
	g.GET("", h.List)
	g.POST("/map", h.Map)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/restore", h.Restore)
	g.POST("/:id/unmap", h.Unmap)
	g.GET("/:id/organization", h.Mapping)
}
