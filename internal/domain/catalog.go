package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups fabric variants, such as tulle or blackout.
type Category struct {
	ID          string
	TenantID    string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Variant is a priced fabric within a category. Inactive variants stay on
// existing orders but cannot be picked for new ones.
type Variant struct {
	ID         string
	TenantID   string
	CategoryID string
	Name       string
	SKU        string
	UnitPrice  decimal.Decimal
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Dealer is a reseller placing orders on behalf of its own clients.
type Dealer struct {
	ID              string
	TenantID        string
	Name            string
	Phone           string
	Email           string
	Address         string
	DiscountPercent decimal.Decimal
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
