package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Billing periods offered by the catalog.
const (
	BillingMonthly = "monthly"
	BillingYearly  = "yearly"
)

// Package is a subscription package in the storefront catalog. Prices shown
// to visitors and snapshotted into order items come from here.
type Package struct {
	ID            uint64          // packages.id
	Slug          string          // packages.slug (unique, used in URLs)
	Title         string          // packages.title
	Description   string          // packages.description
	Price         decimal.Decimal // packages.price
	BillingPeriod string          // packages.billing_period
	IsActive      bool            // packages.is_active
	CreatedAt     time.Time       // packages.created_at
	UpdatedAt     time.Time       // packages.updated_at
}
