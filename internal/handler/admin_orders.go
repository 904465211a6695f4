package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/idturva/subscription-portal/internal/model"
	"github.com/idturva/subscription-portal/internal/repository"
)

type adminConfirmationResp struct {
	ConfirmedAt string `json:"confirmed_at"`
	IPAddress   string `json:"ip_address"`
	UserAgent   string `json:"user_agent"`
}

type adminOrderResp struct {
	orderResp
	CustomerName  string                  `json:"customer_name"`
	CustomerEmail string                  `json:"customer_email"`
	CustomerPhone string                  `json:"customer_phone"`
	BillingCity   string                  `json:"billing_city"`
	UserID        *uint64                 `json:"user_id,omitempty"`
	Confirmations []adminConfirmationResp `json:"confirmations"`
}

// ListOrders handles GET /v1/admin/orders?status=. Every order, with line
// items and the confirmation audit trail for fraud visibility.
func (h *AdminHandler) ListOrders(c echo.Context) error {
	if _, err := h.requireAdmin(c); err != nil {
		return err
	}
	status := c.QueryParam("status")
	switch status {
	case "", model.OrderStatusPending, model.OrderStatusConfirmed, model.OrderStatusCancelled:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status filter"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()
	orders, err := h.Orders.ListAll(ctx, status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	out := make([]adminOrderResp, 0, len(orders))
	for _, o := range orders {
		resp := adminOrderResp{
			orderResp:     toOrderResp(o),
			CustomerName:  o.CustomerFirstName + " " + o.CustomerLastName,
			CustomerEmail: o.CustomerEmail,
			CustomerPhone: o.CustomerPhone,
			BillingCity:   o.BillingCity,
			UserID:        o.UserID,
			Confirmations: []adminConfirmationResp{},
		}
		if o.Status == model.OrderStatusConfirmed {
			confs, err := h.Orders.ListConfirmations(ctx, o.ID)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
			}
			for _, cf := range confs {
				resp.Confirmations = append(resp.Confirmations, adminConfirmationResp{
					ConfirmedAt: cf.ConfirmedAt.UTC().Format(time.RFC3339),
					IPAddress:   cf.IPAddress,
					UserAgent:   cf.UserAgent,
				})
			}
		}
		out = append(out, resp)
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": out})
}

// CancelOrder handles PATCH /v1/admin/orders/:id/cancel. Only pending
// orders can be cancelled; a confirmed subscription is handled through
// the billing system, not here.
func (h *AdminHandler) CancelOrder(c echo.Context) error {
	if _, err := h.requireAdmin(c); err != nil {
		return err
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Orders.Cancel(ctx, orderID); err != nil {
		switch err {
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "only pending orders can be cancelled"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}
	h.Hub.Publish("order.cancelled")
	return c.JSON(http.StatusOK, echo.Map{"status": model.OrderStatusCancelled})
}

// StreamOrders handles GET /v1/admin/orders/stream. A Server-Sent Events
// feed that emits a short note whenever an order is created, confirmed or
// cancelled; the admin UI reacts by re-fetching the order list. Heartbeats
// keep intermediaries from closing the idle connection.
func (h *AdminHandler) StreamOrders(c echo.Context) error {
	if _, err := h.requireAdmin(c); err != nil {
		return err
	}

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	notes, cancel := h.Hub.Subscribe()
	defer cancel()

	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case note := <-notes:
			if _, err := fmt.Fprintf(w, "event: %s\ndata: refresh\n\n", note); err != nil {
				return nil
			}
			w.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}
