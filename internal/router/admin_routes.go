package router

import (
	"github.com/labstack/echo/v4"

	"github.com/idturva/subscription-portal/internal/handler"
	"github.com/idturva/subscription-portal/internal/middleware"
	"github.com/idturva/subscription-portal/internal/model"
)

// RegisterAdmin registers the management portal under /v1/admin. The JWT
// role claim gates the group; every handler additionally re-validates the
// role against the database so a demoted admin's outstanding token stops
// working immediately.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.GET("/users", h.ListUsers)
	g.POST("/users", h.CreateUser)
	g.DELETE("/users/:id", h.DeleteUser)

	g.GET("/orders", h.ListOrders)
	g.PATCH("/orders/:id/cancel", h.CancelOrder)
	// Server-sent events; the dashboard re-fetches the order list on each
	// event instead of parsing payloads off the stream.
	g.GET("/orders/stream", h.StreamOrders)
}
