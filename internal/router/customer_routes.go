package router

import (
	"github.com/labstack/echo/v4"

	"github.com/idturva/subscription-portal/internal/handler"
	"github.com/idturva/subscription-portal/internal/middleware"
	"github.com/idturva/subscription-portal/internal/model"
)

// RegisterCustomer registers the signed-in customer endpoints under /v1.
// Admins pass the role check too: the dashboard views work for both, and
// the order detail handler widens visibility for the ADMIN claim itself.
func RegisterCustomer(e *echo.Echo, h *handler.OrderHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleUser, model.RoleAdmin),
	)
	g.GET("/my-orders", h.ListMine)
	g.GET("/orders/:id", h.Get)
}
