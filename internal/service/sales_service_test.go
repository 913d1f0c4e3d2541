package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perdeci/curtain-order-service/internal/domain"
	"github.com/perdeci/curtain-order-service/internal/repository"
	apperrors "github.com/perdeci/curtain-order-service/pkg/util/errorutil"
)

func TestCustomersAndOrders(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	owner := h.register(t, "owner@example.com")
	tenantID := owner.Principal.TenantID

	customer, err := h.customers.Create(ctx, tenantID, CustomerInput{Name: " Ayse Yilmaz ", Phone: "555-0101"})
	require.NoError(t, err)
	assert.Equal(t, "Ayse Yilmaz", customer.Name)
	require.NotNil(t, customer.BranchID, "default branch is assigned")

	term := "ayse"
	found, err := h.customers.List(ctx, tenantID, repository.CustomerFilter{SearchTerm: &term})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	order, err := h.orders.Create(ctx, tenantID, owner.User.ID, OrderCreateInput{
		CustomerID: customer.ID,
		Items: []domain.OrderItem{
			{Description: "Living room sheer", WidthCm: 240, HeightCm: 260, Quantity: 2, UnitPrice: decimal.RequireFromString("150.50")},
			{Description: "Blackout", WidthCm: 180, HeightCm: 250, Quantity: 1, UnitPrice: decimal.RequireFromString("99.00")},
		},
	})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("400.00").Equal(order.Total), "got %s", order.Total)
	assert.Equal(t, domain.OrderStatusDraft, order.Status)
	assert.Equal(t, customer.BranchID, order.BranchID)

	_, err = h.orders.UpdateStatus(ctx, tenantID, order.ID, domain.OrderStatusDelivered)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	confirmed, err := h.orders.UpdateStatus(ctx, tenantID, order.ID, domain.OrderStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, confirmed.Status)

	err = h.customers.Delete(ctx, tenantID, customer.ID)
	assert.Equal(t, 400, apperrors.ToDomainError(err).HTTPStatus, "customers with orders cannot be deleted")
}

func TestCustomersAreTenantScoped(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	first := h.register(t, "first@example.com")
	second := h.register(t, "second@example.com")

	customer, err := h.customers.Create(ctx, first.Principal.TenantID, CustomerInput{Name: "Private"})
	require.NoError(t, err)

	_, err = h.customers.Get(ctx, second.Principal.TenantID, customer.ID)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = h.orders.Create(ctx, second.Principal.TenantID, second.User.ID, OrderCreateInput{
		CustomerID: customer.ID,
		Items:      []domain.OrderItem{{Description: "x", WidthCm: 100, HeightCm: 100, Quantity: 1, UnitPrice: decimal.NewFromInt(1)}},
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestOrderValidation(t *testing.T) {
	h := newHarness(t)
	owner := h.register(t, "owner@example.com")

	_, err := h.orders.Create(context.Background(), owner.Principal.TenantID, owner.User.ID, OrderCreateInput{CustomerID: "c1"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
