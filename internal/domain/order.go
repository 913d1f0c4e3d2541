package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus enumerates the production lifecycle of an order.
type OrderStatus string

const (
	OrderStatusDraft        OrderStatus = "draft"
	OrderStatusConfirmed    OrderStatus = "confirmed"
	OrderStatusInProduction OrderStatus = "in_production"
	OrderStatusReady        OrderStatus = "ready"
	OrderStatusDelivered    OrderStatus = "delivered"
	OrderStatusCancelled    OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusDraft:        {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:    {OrderStatusInProduction, OrderStatusCancelled},
	OrderStatusInProduction: {OrderStatusReady, OrderStatusCancelled},
	OrderStatusReady:        {OrderStatusDelivered},
}

// CanTransitionTo reports whether an order may move from s to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Order is a curtain order placed for a customer.
type Order struct {
	ID         string
	TenantID   string
	CustomerID string
	BranchID   *string
	DealerID   *string
	Number     string
	Status     OrderStatus
	Items      []OrderItem
	Discount   decimal.Decimal
	Total      decimal.Decimal
	Note       string
	CreatedBy  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// OrderItem is a single curtain line.
type OrderItem struct {
	ID          string
	OrderID     string
	VariantID   *string
	Description string
	Fabric      string
	WidthCm     int
	HeightCm    int
	Quantity    int
	UnitPrice   decimal.Decimal
}

// LineTotal returns quantity times unit price.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Subtotal sums the line totals.
func (o *Order) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// RecalculateTotal sets Total to the subtotal less Discount.
func (o *Order) RecalculateTotal() {
	o.Total = o.Subtotal().Sub(o.Discount)
}

// ApplyDiscount sets Discount to percent of the subtotal, rounded to cents.
func (o *Order) ApplyDiscount(percent decimal.Decimal) {
	o.Discount = o.Subtotal().Mul(percent).Div(decimal.NewFromInt(100)).Round(2)
	o.RecalculateTotal()
}
