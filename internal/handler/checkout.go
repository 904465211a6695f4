package handler

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/idturva/subscription-portal/internal/cart"
	"github.com/idturva/subscription-portal/internal/config"
	"github.com/idturva/subscription-portal/internal/model"
	"github.com/idturva/subscription-portal/internal/queue"
	"github.com/idturva/subscription-portal/internal/repository"
	"github.com/idturva/subscription-portal/internal/service"
	"github.com/idturva/subscription-portal/internal/utils"
)

// CheckoutHandler turns a cart session into a pending order and triggers
// the confirmation email. Guests and signed-in customers share the same
// endpoint; a valid bearer just links the order to the account.
type CheckoutHandler struct {
	Cfg    config.Config
	Carts  *cart.Store
	Orders *repository.OrderRepo
	Hub    *queue.Hub
}

func NewCheckoutHandler(cfg config.Config, carts *cart.Store, orders *repository.OrderRepo, hub *queue.Hub) *CheckoutHandler {
	if carts == nil || orders == nil || hub == nil {
		panic("nil dependency passed to NewCheckoutHandler")
	}
	return &CheckoutHandler{Cfg: cfg, Carts: carts, Orders: orders, Hub: hub}
}

type checkoutReq struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Street     string `json:"street"`
	PostalCode string `json:"postal_code"`
	City       string `json:"city"`
	// Both boxes must be ticked before the form may be submitted.
	AcceptPrivacy   bool `json:"accept_privacy"`
	ConfirmAccuracy bool `json:"confirm_accuracy"`
	// Optional client-side total for cross-checking; the authoritative
	// total is always recomputed from the cart on the server.
	ExpectedTotal string `json:"expected_total"`
}

type checkoutResp struct {
	OrderID     uint64 `json:"order_id"`
	OrderNumber string `json:"order_number"`
	Status      string `json:"status"`
	TotalAmount string `json:"total_amount"`
}

// Submit handles POST /v1/checkout. All validation happens before any
// database work: an empty cart or missing consent is rejected without a
// single query. Email dispatch rides on the broker after commit and its
// failure never rolls the order back.
func (h *CheckoutHandler) Submit(c echo.Context) error {
	var req checkoutReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if !req.AcceptPrivacy {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "privacy policy must be accepted"})
	}
	if !req.ConfirmAccuracy {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "data accuracy must be confirmed"})
	}
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.FirstName == "" || req.LastName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "valid email required"})
	}

	sid := c.Request().Header.Get(cartSessionHeader)
	items := h.Carts.Items(sid)
	if len(items) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cart is empty"})
	}

	// The server-side total is authoritative. A client that disagrees has
	// stale prices and must re-render the cart.
	total := h.Carts.Total(sid)
	if strings.TrimSpace(req.ExpectedTotal) != "" {
		expected, err := cart.ParsePrice(req.ExpectedTotal)
		if err != nil || !expected.Equal(total) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "total mismatch, refresh your cart"})
		}
	}

	token, err := utils.NewConfirmationToken()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
	}

	order := &model.Order{
		OrderNumber:       utils.NewOrderNumber(),
		UserID:            optionalUserID(c),
		CustomerFirstName: req.FirstName,
		CustomerLastName:  req.LastName,
		CustomerEmail:     req.Email,
		CustomerPhone:     strings.TrimSpace(req.Phone),
		BillingStreet:     strings.TrimSpace(req.Street),
		BillingPostalCode: strings.TrimSpace(req.PostalCode),
		BillingCity:       strings.TrimSpace(req.City),
		ConfirmationToken: token,
	}
	for _, it := range items {
		order.Items = append(order.Items, model.OrderItem{
			PackageTitle: it.Title,
			PackagePrice: it.Price,
			Quantity:     it.Quantity,
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()
	if err := h.Orders.Create(ctx, order); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "order creation failed"})
	}

	// The cart's job is done.
	h.Carts.Clear(sid)

	h.publishCreated(order)
	h.Hub.Publish("order.created")

	return c.JSON(http.StatusCreated, checkoutResp{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		TotalAmount: order.TotalAmount.StringFixed(2),
	})
}

// publishCreated hands the order to the email worker. Runs on its own
// context: the order is committed, so a broker hiccup is logged and the
// order simply stays pending until operations resend the link.
func (h *CheckoutHandler) publishCreated(order *model.Order) {
	ev := queue.OrderCreatedEvent{
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		CustomerName:    order.CustomerFirstName + " " + order.CustomerLastName,
		CustomerEmail:   order.CustomerEmail,
		TotalAmount:     order.TotalAmount.StringFixed(2),
		ConfirmationURL: strings.TrimRight(h.Cfg.PublicBaseURL, "/") + "/confirm-order/" + order.ConfirmationToken,
		CreatedAt:       order.CreatedAt.UTC().Format(time.RFC3339),
	}
	for _, it := range order.Items {
		ev.Items = append(ev.Items, queue.OrderItemLine{
			Title:    it.PackageTitle,
			Price:    it.PackagePrice.StringFixed(2),
			Quantity: it.Quantity,
		})
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := service.PublishOrderCreated(ctx, ev); err != nil {
			log.Printf("checkout: publish order.created failed for %s: %v", order.OrderNumber, err)
		}
	}()
}
