package service

import (
	"context"
	"strings"

	"github.com/perdeci/curtain-order-service/internal/domain"
	"github.com/perdeci/curtain-order-service/internal/repository"
	apperrors "github.com/perdeci/curtain-order-service/pkg/util/errorutil"
)

// CustomerInput carries editable customer fields.
type CustomerInput struct {
	BranchID *string
	Name     string
	Phone    string
	Email    string
	Address  string
	Notes    string
}

// CustomerService manages a tenant's customers.
type CustomerService struct {
	store repository.Provider
}

// NewCustomerService constructs the service.
func NewCustomerService(store repository.Provider) *CustomerService {
	return &CustomerService{store: store}
}

// Create adds a customer. Without a branch the tenant's default branch is used.
func (s *CustomerService) Create(ctx context.Context, tenantID string, input CustomerInput) (*domain.Customer, error) {
	if err := validateCustomer(input); err != nil {
		return nil, err
	}
	repos := s.store.Repos()
	if input.BranchID == nil {
		branch, err := repos.Tenants.DefaultBranch(ctx, tenantID)
		if err != nil && !apperrors.IsNotFound(err) {
			return nil, err
		}
		if branch != nil {
			input.BranchID = &branch.ID
		}
	}
	customer := &domain.Customer{TenantID: tenantID}
	applyCustomer(customer, input)
	if err := repos.Customers.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// Update replaces a customer's editable fields.
func (s *CustomerService) Update(ctx context.Context, tenantID, id string, input CustomerInput) (*domain.Customer, error) {
	if err := validateCustomer(input); err != nil {
		return nil, err
	}
	repos := s.store.Repos()
	customer, err := repos.Customers.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if input.BranchID == nil {
		input.BranchID = customer.BranchID
	}
	applyCustomer(customer, input)
	if err := repos.Customers.Update(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// Get returns one customer.
func (s *CustomerService) Get(ctx context.Context, tenantID, id string) (*domain.Customer, error) {
	return s.store.Repos().Customers.GetByID(ctx, tenantID, id)
}

// List returns customers matching filter.
func (s *CustomerService) List(ctx context.Context, tenantID string, filter repository.CustomerFilter) ([]domain.Customer, error) {
	return s.store.Repos().Customers.List(ctx, tenantID, filter)
}

// Delete removes a customer without orders.
func (s *CustomerService) Delete(ctx context.Context, tenantID, id string) error {
	return s.store.Repos().Customers.Delete(ctx, tenantID, id)
}

func validateCustomer(input CustomerInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return apperrors.NewValidationError("customer name is required", nil)
	}
	return nil
}

func applyCustomer(c *domain.Customer, input CustomerInput) {
	c.BranchID = input.BranchID
	c.Name = strings.TrimSpace(input.Name)
	c.Phone = strings.TrimSpace(input.Phone)
	c.Email = strings.TrimSpace(input.Email)
	c.Address = strings.TrimSpace(input.Address)
	c.Notes = input.Notes
}
