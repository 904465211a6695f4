package router

import (
	"github.com/labstack/echo/v4"

	"github.com/idturva/subscription-portal/internal/handler"
	"github.com/idturva/subscription-portal/internal/middleware"
	"github.com/idturva/subscription-portal/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance. Currently it exposes only a health check used by
// load balancers to verify the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and their
// middleware. Unauthenticated operations (register, login, refresh, logout)
// live under /v1/auth behind the rate limiter, so credential stuffing and
// registration floods get throttled per caller; session-bound endpoints
// live under /v1 behind the JWT middleware.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	if limit != nil {
		g.Use(limit)
	}
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the refresh token: the presented token is revoked and
	// a new pair is issued.
	g.POST("/refresh", a.Refresh)
	// Logout takes the refresh token in the body, so it needs no JWT. An
	// expired access token must not trap a client in a session.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleUser, model.RoleAdmin))
	auth.GET("/me", a.Me)
	auth.POST("/logout-all", a.LogoutAll)
}
