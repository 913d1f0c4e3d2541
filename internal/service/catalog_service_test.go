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

func TestCatalogCategoriesAndVariants(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	owner := h.register(t, "owner@example.com")
	tenantID := owner.Principal.TenantID

	category, err := h.catalog.CreateCategory(ctx, tenantID, CategoryInput{Name: " Blackout "})
	require.NoError(t, err)
	assert.Equal(t, "Blackout", category.Name)

	_, err = h.catalog.CreateCategory(ctx, tenantID, CategoryInput{Name: "Blackout"})
	assert.ErrorIs(t, apperrors.MapError(err), apperrors.ErrConflict)
	_, err = h.catalog.CreateCategory(ctx, tenantID, CategoryInput{Name: "  "})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	linen, err := h.catalog.CreateVariant(ctx, tenantID, category.ID, VariantInput{Name: "Linen grey", UnitPrice: decimal.RequireFromString("120.505")})
	require.NoError(t, err)
	assert.True(t, linen.IsActive)
	assert.True(t, decimal.RequireFromString("120.51").Equal(linen.UnitPrice))

	_, err = h.catalog.CreateVariant(ctx, tenantID, category.ID, VariantInput{Name: "Cheap", UnitPrice: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	retired := false
	velvet, err := h.catalog.CreateVariant(ctx, tenantID, category.ID, VariantInput{Name: "Velvet", UnitPrice: decimal.NewFromInt(200), IsActive: &retired})
	require.NoError(t, err)
	assert.False(t, velvet.IsActive)

	active, err := h.catalog.ListVariants(ctx, tenantID, category.ID, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, linen.ID, active[0].ID)

	full, err := h.catalog.GetCategory(ctx, tenantID, category.ID)
	require.NoError(t, err)
	assert.Len(t, full.Variants, 2)

	updated, err := h.catalog.UpdateVariant(ctx, tenantID, velvet.ID, VariantInput{Name: "Velvet", UnitPrice: decimal.NewFromInt(180)})
	require.NoError(t, err)
	assert.False(t, updated.IsActive, "omitted flag keeps the current value")
	assert.Equal(t, category.ID, updated.CategoryID)

	err = h.catalog.DeleteCategory(ctx, tenantID, category.ID)
	assert.Equal(t, 400, apperrors.ToDomainError(err).HTTPStatus, "categories with variants cannot be deleted")

	require.NoError(t, h.catalog.DeleteVariant(ctx, tenantID, linen.ID))
	require.NoError(t, h.catalog.DeleteVariant(ctx, tenantID, velvet.ID))
	require.NoError(t, h.catalog.DeleteCategory(ctx, tenantID, category.ID))
}

func TestCatalogIsTenantScoped(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	first := h.register(t, "first@example.com")
	second := h.register(t, "second@example.com")

	category, err := h.catalog.CreateCategory(ctx, first.Principal.TenantID, CategoryInput{Name: "Tulle"})
	require.NoError(t, err)
	variant, err := h.catalog.CreateVariant(ctx, first.Principal.TenantID, category.ID, VariantInput{Name: "White", UnitPrice: decimal.NewFromInt(50)})
	require.NoError(t, err)

	_, err = h.catalog.GetCategory(ctx, second.Principal.TenantID, category.ID)
	assert.True(t, apperrors.IsNotFound(err))
	_, err = h.catalog.CreateVariant(ctx, second.Principal.TenantID, category.ID, VariantInput{Name: "Stolen", UnitPrice: decimal.NewFromInt(1)})
	assert.True(t, apperrors.IsNotFound(err))

	_, err = h.catalog.CreateCategory(ctx, second.Principal.TenantID, CategoryInput{Name: "Tulle"})
	require.NoError(t, err, "names are unique per tenant only")

	customer, err := h.customers.Create(ctx, second.Principal.TenantID, CustomerInput{Name: "Buyer"})
	require.NoError(t, err)
	_, err = h.orders.Create(ctx, second.Principal.TenantID, second.User.ID, OrderCreateInput{
		CustomerID: customer.ID,
		Items:      []domain.OrderItem{{VariantID: &variant.ID, Description: "x", WidthCm: 100, HeightCm: 100, Quantity: 1}},
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestDealers(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	owner := h.register(t, "owner@example.com")
	tenantID := owner.Principal.TenantID

	_, err := h.dealers.Create(ctx, tenantID, DealerInput{Name: "Over", DiscountPercent: decimal.NewFromInt(101)})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = h.dealers.Create(ctx, tenantID, DealerInput{Name: ""})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	dealer, err := h.dealers.Create(ctx, tenantID, DealerInput{Name: "Perde Evi", Email: "sales@perdeevi.example", DiscountPercent: decimal.NewFromInt(15)})
	require.NoError(t, err)
	assert.True(t, dealer.IsActive)

	inactive := false
	_, err = h.dealers.Create(ctx, tenantID, DealerInput{Name: "Closed Shop", IsActive: &inactive})
	require.NoError(t, err)

	all, err := h.dealers.List(ctx, tenantID, repository.DealerFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	open, err := h.dealers.List(ctx, tenantID, repository.DealerFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, dealer.ID, open[0].ID)

	term := "perdeevi"
	found, err := h.dealers.List(ctx, tenantID, repository.DealerFilter{SearchTerm: &term})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	other := h.register(t, "other@example.com")
	_, err = h.dealers.Get(ctx, other.Principal.TenantID, dealer.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestOrderPricedFromCatalogWithDealerDiscount(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	owner := h.register(t, "owner@example.com")
	tenantID := owner.Principal.TenantID

	category, err := h.catalog.CreateCategory(ctx, tenantID, CategoryInput{Name: "Sheer"})
	require.NoError(t, err)
	variant, err := h.catalog.CreateVariant(ctx, tenantID, category.ID, VariantInput{Name: "Ivory", UnitPrice: decimal.RequireFromString("100.00")})
	require.NoError(t, err)
	dealer, err := h.dealers.Create(ctx, tenantID, DealerInput{Name: "Reseller", DiscountPercent: decimal.RequireFromString("12.5")})
	require.NoError(t, err)
	customer, err := h.customers.Create(ctx, tenantID, CustomerInput{Name: "Client"})
	require.NoError(t, err)

	order, err := h.orders.Create(ctx, tenantID, owner.User.ID, OrderCreateInput{
		CustomerID: customer.ID,
		DealerID:   &dealer.ID,
		Items: []domain.OrderItem{
			{VariantID: &variant.ID, Description: "Bedroom", WidthCm: 200, HeightCm: 250, Quantity: 2},
			{VariantID: &variant.ID, Description: "Hall", Fabric: "custom", WidthCm: 90, HeightCm: 250, Quantity: 1, UnitPrice: decimal.RequireFromString("80.00")},
		},
	})
	require.NoError(t, err)
	require.Len(t, order.Items, 2)
	assert.True(t, decimal.RequireFromString("100.00").Equal(order.Items[0].UnitPrice), "price comes from the variant")
	assert.Equal(t, "Sheer / Ivory", order.Items[0].Fabric)
	assert.True(t, decimal.RequireFromString("80.00").Equal(order.Items[1].UnitPrice), "explicit price wins")
	assert.Equal(t, "custom", order.Items[1].Fabric)
	assert.True(t, decimal.RequireFromString("35.00").Equal(order.Discount), "got %s", order.Discount)
	assert.True(t, decimal.RequireFromString("245.00").Equal(order.Total), "got %s", order.Total)

	byDealer, err := h.orders.List(ctx, tenantID, repository.OrderFilter{DealerID: &dealer.ID})
	require.NoError(t, err)
	assert.Len(t, byDealer, 1)

	err = h.dealers.Delete(ctx, tenantID, dealer.ID)
	assert.Equal(t, 400, apperrors.ToDomainError(err).HTTPStatus, "dealers with orders cannot be deleted")
	err = h.catalog.DeleteVariant(ctx, tenantID, variant.ID)
	assert.Equal(t, 400, apperrors.ToDomainError(err).HTTPStatus, "ordered variants cannot be deleted")

	retired := false
	_, err = h.catalog.UpdateVariant(ctx, tenantID, variant.ID, VariantInput{Name: "Ivory", UnitPrice: decimal.RequireFromString("100.00"), IsActive: &retired})
	require.NoError(t, err)
	_, err = h.orders.Create(ctx, tenantID, owner.User.ID, OrderCreateInput{
		CustomerID: customer.ID,
		Items:      []domain.OrderItem{{VariantID: &variant.ID, Description: "Again", WidthCm: 100, HeightCm: 100, Quantity: 1}},
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	closed := false
	_, err = h.dealers.Update(ctx, tenantID, dealer.ID, DealerInput{Name: "Reseller", IsActive: &closed})
	require.NoError(t, err)
	_, err = h.orders.Create(ctx, tenantID, owner.User.ID, OrderCreateInput{
		CustomerID: customer.ID,
		DealerID:   &dealer.ID,
		Items:      []domain.OrderItem{{Description: "Plain", WidthCm: 100, HeightCm: 100, Quantity: 1, UnitPrice: decimal.NewFromInt(10)}},
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
