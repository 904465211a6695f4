package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/idturva/subscription-portal/internal/cart"
	"github.com/idturva/subscription-portal/internal/repository"
)

// cartSessionHeader carries the opaque cart session id between requests.
// The server issues it on the first mutation; the client echoes it back.
const cartSessionHeader = "X-Cart-Session"

// CartHandler exposes the ephemeral shopping cart over HTTP. All routes
// are public; the cart belongs to whoever holds the session id and is
// discarded on checkout or after the idle TTL.
type CartHandler struct {
	Carts    *cart.Store
	Packages *repository.PackageRepo
}

func NewCartHandler(carts *cart.Store, pkgs *repository.PackageRepo) *CartHandler {
	if carts == nil || pkgs == nil {
		panic("nil dependency passed to NewCartHandler")
	}
	return &CartHandler{Carts: carts, Packages: pkgs}
}

type addItemReq struct {
	Slug string `json:"slug"`
	// Title/Price allow adding campaign items that are not in the
	// catalog; Price accepts display strings like "19,99 €".
	Title string `json:"title"`
	Price string `json:"price"`
}

type cartResp struct {
	SessionID string          `json:"session_id"`
	Items     []cart.Item     `json:"items"`
	Total     decimal.Decimal `json:"total"`
}

func (h *CartHandler) respond(c echo.Context, status int, sid string) error {
	c.Response().Header().Set(cartSessionHeader, sid)
	items := h.Carts.Items(sid)
	if items == nil {
		items = []cart.Item{}
	}
	return c.JSON(status, cartResp{SessionID: sid, Items: items, Total: h.Carts.Total(sid)})
}

// AddItem handles POST /v1/cart/items. Adding a slug resolves title and
// price from the catalog; adding the same title twice merges into one line
// with quantity 2.
func (h *CartHandler) AddItem(c echo.Context) error {
	var req addItemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	sid := c.Request().Header.Get(cartSessionHeader)

	var (
		title string
		price decimal.Decimal
	)
	switch {
	case strings.TrimSpace(req.Slug) != "":
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		p, err := h.Packages.GetBySlug(ctx, strings.TrimSpace(req.Slug))
		if err != nil {
			if err == repository.ErrNotFound {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "package not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		title, price = p.Title, p.Price
	case strings.TrimSpace(req.Title) != "":
		parsed, err := cart.ParsePrice(req.Price)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid price"})
		}
		title, price = strings.TrimSpace(req.Title), parsed
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slug or title required"})
	}

	sid, _ = h.Carts.Add(sid, title, price)
	return h.respond(c, http.StatusCreated, sid)
}

type updateQtyReq struct {
	Quantity int `json:"quantity"`
}

// UpdateItem handles PATCH /v1/cart/items/:id. Quantity zero or below
// removes the line.
func (h *CartHandler) UpdateItem(c echo.Context) error {
	sid := c.Request().Header.Get(cartSessionHeader)
	if sid == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cart session required"})
	}
	var req updateQtyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if !h.Carts.UpdateQuantity(sid, c.Param("id"), req.Quantity) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "cart item not found"})
	}
	return h.respond(c, http.StatusOK, sid)
}

// RemoveItem handles DELETE /v1/cart/items/:id.
func (h *CartHandler) RemoveItem(c echo.Context) error {
	sid := c.Request().Header.Get(cartSessionHeader)
	if sid == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cart session required"})
	}
	if !h.Carts.Remove(sid, c.Param("id")) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "cart item not found"})
	}
	return h.respond(c, http.StatusOK, sid)
}

// Clear handles DELETE /v1/cart.
func (h *CartHandler) Clear(c echo.Context) error {
	sid := c.Request().Header.Get(cartSessionHeader)
	h.Carts.Clear(sid)
	return c.NoContent(http.StatusNoContent)
}

// Get handles GET /v1/cart. Unknown or expired sessions read as empty.
func (h *CartHandler) Get(c echo.Context) error {
	sid := c.Request().Header.Get(cartSessionHeader)
	return h.respond(c, http.StatusOK, sid)
}
