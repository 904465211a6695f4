package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order status values. An order is created PENDING, moves to CONFIRMED
// exactly once via the emailed confirmation link, or to CANCELLED by an
// admin. CONFIRMED and CANCELLED are terminal.
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusCancelled = "cancelled"
)

// Order records a customer's subscription purchase together with the
// billing details captured at checkout. The total is recomputed from the
// line items server-side before insertion; the two must always agree.
//
// Fields:
//
//	ID                – primary key identifier.
//	OrderNumber       – unique human-facing order reference (TIL-...).
//	UserID            – owning user, nil for guest checkout.
//	CustomerFirstName – billing contact first name.
//	CustomerLastName  – billing contact last name.
//	CustomerEmail     – address the confirmation link is sent to.
//	CustomerPhone     – contact phone number.
//	BillingStreet     – street address snapshot.
//	BillingPostalCode – postal code snapshot.
//	BillingCity       – city snapshot.
//	TotalAmount       – sum of item price × quantity.
//	Status            – pending | confirmed | cancelled.
//	ConfirmationToken – single-use random token embedded in the email link.
//	ConfirmedAt       – when the order was confirmed (null while pending).
//	CreatedAt         – creation timestamp.
//	UpdatedAt         – last update timestamp.
type Order struct {
	ID                uint64          // orders.id
	OrderNumber       string          // orders.order_number
	UserID            *uint64         // orders.user_id (nullable)
	CustomerFirstName string          // orders.customer_first_name
	CustomerLastName  string          // orders.customer_last_name
	CustomerEmail     string          // orders.customer_email
	CustomerPhone     string          // orders.customer_phone
	BillingStreet     string          // orders.billing_street
	BillingPostalCode string          // orders.billing_postal_code
	BillingCity       string          // orders.billing_city
	TotalAmount       decimal.Decimal // orders.total_amount
	Status            string          // orders.status
	ConfirmationToken string          // orders.confirmation_token
	ConfirmedAt       *time.Time      // orders.confirmed_at (nullable)
	CreatedAt         time.Time       // orders.created_at
	UpdatedAt         time.Time       // orders.updated_at
	Items             []OrderItem     // loaded on demand
}

// OrderItem is a line item snapshotted at order time. Title and price are
// copied from the package catalog, not referenced, so later catalog changes
// never affect past orders.
type OrderItem struct {
	ID           uint64          // order_items.id
	OrderID      uint64          // order_items.order_id
	PackageTitle string          // order_items.package_title
	PackagePrice decimal.Decimal // order_items.package_price
	Quantity     int             // order_items.quantity
	CreatedAt    time.Time       // order_items.created_at
}

// OrderConfirmation is an append-only audit row written when a confirmation
// link is successfully used. One row per successful confirmation; repeated
// attempts against an already-confirmed order never add rows.
type OrderConfirmation struct {
	ID          uint64    // order_confirmations.id
	OrderID     uint64    // order_confirmations.order_id
	ConfirmedAt time.Time // order_confirmations.confirmed_at
	IPAddress   string    // order_confirmations.ip_address
	UserAgent   string    // order_confirmations.user_agent
	CreatedAt   time.Time // order_confirmations.created_at
}
