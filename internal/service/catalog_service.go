package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/perdeci/curtain-order-service/internal/domain"
	"github.com/perdeci/curtain-order-service/internal/repository"
	apperrors "github.com/perdeci/curtain-order-service/pkg/util/errorutil"
)

// CategoryInput carries editable category fields.
type CategoryInput struct {
	Name        string
	Description string
}

// VariantInput carries editable variant fields. A nil IsActive keeps the
// current value and defaults to active on create.
type VariantInput struct {
	Name      string
	SKU       string
	UnitPrice decimal.Decimal
	IsActive  *bool
}

// CategoryWithVariants is a category and its variants.
type CategoryWithVariants struct {
	domain.Category
	Variants []domain.Variant
}

// CatalogService manages a tenant's fabric categories and variants.
type CatalogService struct {
	store repository.Provider
}

// NewCatalogService constructs the service.
func NewCatalogService(store repository.Provider) *CatalogService {
	return &CatalogService{store: store}
}

// CreateCategory adds a category. Names are unique per tenant.
func (s *CatalogService) CreateCategory(ctx context.Context, tenantID string, input CategoryInput) (*domain.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("category name is required", nil)
	}
	category := &domain.Category{TenantID: tenantID, Name: name, Description: strings.TrimSpace(input.Description)}
	if err := s.store.Repos().Categories.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// UpdateCategory renames or re-describes a category.
func (s *CatalogService) UpdateCategory(ctx context.Context, tenantID, id string, input CategoryInput) (*domain.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("category name is required", nil)
	}
	repos := s.store.Repos()
	category, err := repos.Categories.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	category.Name = name
	category.Description = strings.TrimSpace(input.Description)
	if err := repos.Categories.Update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// ListCategories returns the tenant's categories by name.
func (s *CatalogService) ListCategories(ctx context.Context, tenantID string) ([]domain.Category, error) {
	return s.store.Repos().Categories.List(ctx, tenantID)
}

// GetCategory returns a category with all of its variants.
func (s *CatalogService) GetCategory(ctx context.Context, tenantID, id string) (*CategoryWithVariants, error) {
	repos := s.store.Repos()
	category, err := repos.Categories.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	variants, err := repos.Variants.ListByCategory(ctx, tenantID, id, false)
	if err != nil {
		return nil, err
	}
	return &CategoryWithVariants{Category: *category, Variants: variants}, nil
}

// DeleteCategory removes a category without variants.
func (s *CatalogService) DeleteCategory(ctx context.Context, tenantID, id string) error {
	return s.store.Repos().Categories.Delete(ctx, tenantID, id)
}

// CreateVariant adds a priced variant to a category.
func (s *CatalogService) CreateVariant(ctx context.Context, tenantID, categoryID string, input VariantInput) (*domain.Variant, error) {
	if err := validateVariant(input); err != nil {
		return nil, err
	}
	repos := s.store.Repos()
	if _, err := repos.Categories.GetByID(ctx, tenantID, categoryID); err != nil {
		return nil, err
	}
	variant := &domain.Variant{TenantID: tenantID, CategoryID: categoryID, IsActive: true}
	applyVariant(variant, input)
	if err := repos.Variants.Create(ctx, variant); err != nil {
		return nil, err
	}
	return variant, nil
}

// UpdateVariant replaces a variant's editable fields. Its category never changes.
func (s *CatalogService) UpdateVariant(ctx context.Context, tenantID, id string, input VariantInput) (*domain.Variant, error) {
	if err := validateVariant(input); err != nil {
		return nil, err
	}
	repos := s.store.Repos()
	variant, err := repos.Variants.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	applyVariant(variant, input)
	if err := repos.Variants.Update(ctx, variant); err != nil {
		return nil, err
	}
	return variant, nil
}

// ListVariants returns a category's variants by name.
func (s *CatalogService) ListVariants(ctx context.Context, tenantID, categoryID string, activeOnly bool) ([]domain.Variant, error) {
	repos := s.store.Repos()
	if _, err := repos.Categories.GetByID(ctx, tenantID, categoryID); err != nil {
		return nil, err
	}
	return repos.Variants.ListByCategory(ctx, tenantID, categoryID, activeOnly)
}

// DeleteVariant removes a variant no order item references. Deactivate it instead otherwise.
func (s *CatalogService) DeleteVariant(ctx context.Context, tenantID, id string) error {
	return s.store.Repos().Variants.Delete(ctx, tenantID, id)
}

func validateVariant(input VariantInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return apperrors.NewValidationError("variant name is required", nil)
	}
	if input.UnitPrice.IsNegative() {
		return apperrors.NewValidationError("variant unit price cannot be negative", map[string]any{"unit_price": input.UnitPrice.String()})
	}
	return nil
}

func applyVariant(v *domain.Variant, input VariantInput) {
	v.Name = strings.TrimSpace(input.Name)
	v.SKU = strings.TrimSpace(input.SKU)
	v.UnitPrice = input.UnitPrice.Round(2)
	if input.IsActive != nil {
		v.IsActive = *input.IsActive
	}
}
