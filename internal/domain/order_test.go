package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrderApplyDiscount(t *testing.T) {
	order := Order{Items: []OrderItem{
		{Quantity: 3, UnitPrice: decimal.RequireFromString("33.33")},
		{Quantity: 1, UnitPrice: decimal.RequireFromString("0.01")},
	}}

	order.RecalculateTotal()
	assert.True(t, decimal.RequireFromString("100.00").Equal(order.Total))

	order.ApplyDiscount(decimal.RequireFromString("7.5"))
	assert.True(t, decimal.RequireFromString("7.50").Equal(order.Discount))
	assert.True(t, decimal.RequireFromString("92.50").Equal(order.Total))

	order.ApplyDiscount(decimal.Zero)
	assert.True(t, order.Discount.IsZero())
	assert.True(t, decimal.RequireFromString("100.00").Equal(order.Total))
}

func TestOrderStatusTransitions(t *testing.T) {
	assert.True(t, OrderStatusDraft.CanTransitionTo(OrderStatusConfirmed))
	assert.False(t, OrderStatusDraft.CanTransitionTo(OrderStatusDelivered))
	assert.False(t, OrderStatusDelivered.CanTransitionTo(OrderStatusCancelled))
}
