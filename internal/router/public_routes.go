package router

import (
	"github.com/labstack/echo/v4"

	"github.com/idturva/subscription-portal/internal/handler"
	"github.com/idturva/subscription-portal/internal/middleware"
)

// RegisterPublic registers unauthenticated browse endpoints. The catalog
// routes sit behind the Redis response cache when one is configured: package
// listings change rarely and are hit on every landing-page render. The
// breach check is deliberately not cached, its answer is per-email.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	catalog := e.Group("")
	if cache != nil {
		catalog.Use(cache)
	}
	catalog.GET("/v1/packages", p.ListPackages)
	catalog.GET("/v1/packages/:slug", p.GetPackage)

	e.GET("/v1/breach-check", p.BreachCheck)
}

// RegisterCart registers the guest cart endpoints. No authentication: the
// cart belongs to whoever presents the session header.
func RegisterCart(e *echo.Echo, h *handler.CartHandler) {
	e.GET("/v1/cart", h.Get)
	e.POST("/v1/cart/items", h.AddItem)
	e.PATCH("/v1/cart/items/:id", h.UpdateItem)
	e.DELETE("/v1/cart/items/:id", h.RemoveItem)
	e.DELETE("/v1/cart", h.Clear)
}

// RegisterCheckout registers order submission and confirmation. Checkout
// uses OptionalJWT: guests may order, but a valid bearer links the order to
// the account. The confirmation route is plain GET so the emailed link
// works from any mail client. Both sit behind the rate limiter: a burst of
// submissions or token-guessing attempts gets throttled per caller.
func RegisterCheckout(e *echo.Echo, checkout *handler.CheckoutHandler, confirm *handler.ConfirmHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	mws := []echo.MiddlewareFunc{}
	if limit != nil {
		mws = append(mws, limit)
	}
	e.POST("/v1/checkout", checkout.Submit, append(mws, middleware.OptionalJWT(jwtSecret))...)
	e.GET("/confirm-order/:token", confirm.Confirm, mws...)
	e.POST("/v1/orders/confirm/:token", confirm.Confirm, mws...)
}
