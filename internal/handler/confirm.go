package handler

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/idturva/subscription-portal/internal/model"
	"github.com/idturva/subscription-portal/internal/queue"
	"github.com/idturva/subscription-portal/internal/repository"
	"github.com/idturva/subscription-portal/internal/service"
)

// ConfirmHandler finalizes orders via the emailed confirmation link. The
// route is public: possession of the single-use token is the proof of
// control over the email address.
type ConfirmHandler struct {
	Orders *repository.OrderRepo
	Hub    *queue.Hub
}

func NewConfirmHandler(orders *repository.OrderRepo, hub *queue.Hub) *ConfirmHandler {
	if orders == nil || hub == nil {
		panic("nil dependency passed to NewConfirmHandler")
	}
	return &ConfirmHandler{Orders: orders, Hub: hub}
}

type confirmResp struct {
	OrderNumber string `json:"order_number"`
	Status      string `json:"status"`
	ConfirmedAt string `json:"confirmed_at"`
}

// Confirm handles GET /confirm-order/:token and POST
// /v1/orders/confirm/:token. The pending→confirmed transition happens in
// one conditional update inside the repository, so hitting the link twice
// (or two people racing on it) confirms exactly once; the loser sees
// "already confirmed" and nothing changes. Every outcome leaves the order
// in a clean state.
func (h *ConfirmHandler) Confirm(c echo.Context) error {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "confirmation token required"})
	}

	ip := c.RealIP()
	ua := c.Request().UserAgent()

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	order, err := h.Orders.ConfirmByToken(ctx, token, ip, ua)
	if err != nil {
		switch err {
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invalid or unknown confirmation token"})
		case repository.ErrAlreadyConfirmed:
			return c.JSON(http.StatusConflict, echo.Map{"error": "order already confirmed"})
		case repository.ErrOrderCancelled:
			return c.JSON(http.StatusConflict, echo.Map{"error": "order has been cancelled"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "confirmation failed"})
		}
	}

	h.publishConfirmed(order, ip)
	h.Hub.Publish("order.confirmed")

	confirmedAt := ""
	if order.ConfirmedAt != nil {
		confirmedAt = order.ConfirmedAt.UTC().Format(time.RFC3339)
	}
	return c.JSON(http.StatusOK, confirmResp{
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		ConfirmedAt: confirmedAt,
	})
}

func (h *ConfirmHandler) publishConfirmed(order *model.Order, ip string) {
	confirmedAt := time.Now().UTC()
	if order.ConfirmedAt != nil {
		confirmedAt = order.ConfirmedAt.UTC()
	}
	ev := queue.OrderConfirmedEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		TotalAmount: order.TotalAmount.StringFixed(2),
		IPAddress:   ip,
		ConfirmedAt: confirmedAt.Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := service.PublishOrderConfirmed(ctx, ev); err != nil {
			log.Printf("confirm: publish order.confirmed failed for %s: %v", order.OrderNumber, err)
		}
	}()
}
