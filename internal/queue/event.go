// Package queue defines message payloads exchanged over the message broker.
package queue

// OrderItemLine is one snapshotted line carried inside order events.
type OrderItemLine struct {
	Title    string `json:"title"`
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
}

// OrderCreatedEvent is published after a checkout submission commits. It
// contains everything the email worker needs to send the confirmation mail
// without querying the primary database, including the ready-built
// confirmation link.
type OrderCreatedEvent struct {
	OrderID         uint64          `json:"order_id"`
	OrderNumber     string          `json:"order_number"`
	CustomerName    string          `json:"customer_name"`
	CustomerEmail   string          `json:"customer_email"`
	Items           []OrderItemLine `json:"items"`
	TotalAmount     string          `json:"total_amount"`
	ConfirmationURL string          `json:"confirmation_url"`
	CreatedAt       string          `json:"created_at"`
}

// OrderConfirmedEvent is published when a confirmation link is used
// successfully. Consumed by the audit logger; the admin UI also learns of
// order activity through the in-process hub.
type OrderConfirmedEvent struct {
	OrderID     uint64 `json:"order_id"`
	OrderNumber string `json:"order_number"`
	TotalAmount string `json:"total_amount"`
	IPAddress   string `json:"ip_address"`
	ConfirmedAt string `json:"confirmed_at"`
}
