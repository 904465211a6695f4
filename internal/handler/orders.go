package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/idturva/subscription-portal/internal/model"
	"github.com/idturva/subscription-portal/internal/repository"
)

// OrderHandler serves the customer portal's order views. All routes
// require a valid JWT; admins may read any order, customers only their own.
type OrderHandler struct {
	Orders *repository.OrderRepo
}

func NewOrderHandler(orders *repository.OrderRepo) *OrderHandler {
	if orders == nil {
		panic("nil repository passed to NewOrderHandler")
	}
	return &OrderHandler{Orders: orders}
}

type orderItemResp struct {
	PackageTitle string `json:"package_title"`
	PackagePrice string `json:"package_price"`
	Quantity     int    `json:"quantity"`
}

type orderResp struct {
	ID          uint64          `json:"id"`
	OrderNumber string          `json:"order_number"`
	Status      string          `json:"status"`
	TotalAmount string          `json:"total_amount"`
	ConfirmedAt *string         `json:"confirmed_at,omitempty"`
	CreatedAt   string          `json:"created_at"`
	Items       []orderItemResp `json:"items"`
}

func toOrderResp(o model.Order) orderResp {
	r := orderResp{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
		TotalAmount: o.TotalAmount.StringFixed(2),
		CreatedAt:   o.CreatedAt.UTC().Format(time.RFC3339),
		Items:       make([]orderItemResp, 0, len(o.Items)),
	}
	if o.ConfirmedAt != nil {
		s := o.ConfirmedAt.UTC().Format(time.RFC3339)
		r.ConfirmedAt = &s
	}
	for _, it := range o.Items {
		r.Items = append(r.Items, orderItemResp{
			PackageTitle: it.PackageTitle,
			PackagePrice: it.PackagePrice.StringFixed(2),
			Quantity:     it.Quantity,
		})
	}
	return r
}

// ListMine handles GET /v1/my-orders: the dashboard's order history,
// newest first.
func (h *OrderHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	orders, err := h.Orders.ListByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]orderResp, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResp(o))
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": out})
}

// Get handles GET /v1/orders/:id. A customer fetching someone else's
// order gets 404, indistinguishable from a missing one.
func (h *OrderHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}

	requester := &userID
	if role, _ := c.Get("role").(string); role == model.RoleAdmin {
		requester = nil // admins may fetch any order
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	order, err := h.Orders.GetByID(ctx, orderID, requester)
	if err != nil {
		switch err {
		case repository.ErrNotFound, repository.ErrForbidden:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}
	return c.JSON(http.StatusOK, toOrderResp(*order))
}
