// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/serhatk/campus-occupancy/internal/config"
	"github.com/serhatk/campus-occupancy/internal/handler"
	"github.com/serhatk/campus-occupancy/internal/middleware"
	"github.com/serhatk/campus-occupancy/internal/model"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication routes and the protected
// account endpoints.  Unauthenticated operations live under /v1/auth,
// protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)           // rotates the refresh token
	g.POST("/refresh-access", a.RefreshAccess) // new access token only
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleStudent, model.RoleStaff))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated browse surface:
// locations with their live seat counters, desks and the density
// history.  Responses are cached in Redis with a short TTL so repeated
// dashboard polls do not hit MySQL.
func RegisterPublic(e *echo.Echo, l *handler.LocationHandler, d *handler.DensityHandler, rdb *redis.Client) {
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	e.GET("/v1/locations", l.ListLocations, cache)
	e.GET("/v1/locations/:id", l.GetLocation, cache)
	e.GET("/v1/locations/:id/desks", l.ListDesks, cache)
	e.GET("/v1/locations/:id/density-reports", d.GetLocationLogs, cache)
}

// RegisterOccupancy registers the protected occupancy endpoints: the
// desk session lifecycle, the QR scan entry point and density reports.
// All of them require a student session and share a token-bucket rate
// limit keyed on the user.
func RegisterOccupancy(e *echo.Echo, ci *handler.CheckInHandler, d *handler.DensityHandler, jwtSecret string, rdb *redis.Client) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleStudent, model.RoleStaff))
	g.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	g.POST("/check-ins", ci.CheckIn)
	g.GET("/check-ins", ci.ListCheckIns)
	g.GET("/check-ins/current", ci.GetCurrent)
	g.POST("/check-ins/:id/break", ci.StartBreak)
	g.POST("/check-ins/:id/break/end", ci.EndBreak)
	g.POST("/check-ins/:id/checkout", ci.CheckOut)

	g.POST("/scan", ci.Scan)

	g.POST("/locations/:id/density-reports", d.SubmitReport)
}
