package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/perdeci/curtain-order-service/internal/domain"
	"github.com/perdeci/curtain-order-service/internal/repository"
	apperrors "github.com/perdeci/curtain-order-service/pkg/util/errorutil"
)

var hundred = decimal.NewFromInt(100)

// DealerInput carries editable dealer fields. A nil IsActive keeps the
// current value and defaults to active on create.
type DealerInput struct {
	Name            string
	Phone           string
	Email           string
	Address         string
	DiscountPercent decimal.Decimal
	IsActive        *bool
}

// DealerService manages a tenant's resellers.
type DealerService struct {
	store repository.Provider
}

// NewDealerService constructs the service.
func NewDealerService(store repository.Provider) *DealerService {
	return &DealerService{store: store}
}

// Create adds a dealer.
func (s *DealerService) Create(ctx context.Context, tenantID string, input DealerInput) (*domain.Dealer, error) {
	if err := validateDealer(input); err != nil {
		return nil, err
	}
	dealer := &domain.Dealer{TenantID: tenantID, IsActive: true}
	applyDealer(dealer, input)
	if err := s.store.Repos().Dealers.Create(ctx, dealer); err != nil {
		return nil, err
	}
	return dealer, nil
}

// Update replaces a dealer's editable fields. Existing orders keep the
// discount they were priced with.
func (s *DealerService) Update(ctx context.Context, tenantID, id string, input DealerInput) (*domain.Dealer, error) {
	if err := validateDealer(input); err != nil {
		return nil, err
	}
	repos := s.store.Repos()
	dealer, err := repos.Dealers.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	applyDealer(dealer, input)
	if err := repos.Dealers.Update(ctx, dealer); err != nil {
		return nil, err
	}
	return dealer, nil
}

// Get returns one dealer.
func (s *DealerService) Get(ctx context.Context, tenantID, id string) (*domain.Dealer, error) {
	return s.store.Repos().Dealers.GetByID(ctx, tenantID, id)
}

// List returns dealers matching filter.
func (s *DealerService) List(ctx context.Context, tenantID string, filter repository.DealerFilter) ([]domain.Dealer, error) {
	return s.store.Repos().Dealers.List(ctx, tenantID, filter)
}

// Delete removes a dealer without orders.
func (s *DealerService) Delete(ctx context.Context, tenantID, id string) error {
	return s.store.Repos().Dealers.Delete(ctx, tenantID, id)
}

func validateDealer(input DealerInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return apperrors.NewValidationError("dealer name is required", nil)
	}
	if input.DiscountPercent.IsNegative() || input.DiscountPercent.GreaterThan(hundred) {
		return apperrors.NewValidationError("discount must be between 0 and 100 percent", map[string]any{
			"discount_percent": input.DiscountPercent.String(),
		})
	}
	return nil
}

func applyDealer(d *domain.Dealer, input DealerInput) {
	d.Name = strings.TrimSpace(input.Name)
	d.Phone = strings.TrimSpace(input.Phone)
	d.Email = strings.TrimSpace(input.Email)
	d.Address = strings.TrimSpace(input.Address)
	d.DiscountPercent = input.DiscountPercent.Round(2)
	if input.IsActive != nil {
		d.IsActive = *input.IsActive
	}
}
