package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/perdeci/curtain-order-service/internal/domain"
	"github.com/perdeci/curtain-order-service/internal/repository"
	apperrors "github.com/perdeci/curtain-order-service/pkg/util/errorutil"
)

// OrderCreateInput describes a new order. Items referencing a variant take
// its price when UnitPrice is zero and its name when Fabric is empty.
type OrderCreateInput struct {
	CustomerID string
	BranchID   *string
	DealerID   *string
	Note       string
	Items      []domain.OrderItem
}

// OrderService manages curtain orders.
type OrderService struct {
	store  repository.Provider
	logger *zap.Logger
	now    func() time.Time
}

// NewOrderService constructs the service.
func NewOrderService(store repository.Provider, logger *zap.Logger, now func() time.Time) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &OrderService{store: store, logger: logger, now: now}
}

// Create validates the items, prices the order and stores it as a draft.
func (s *OrderService) Create(ctx context.Context, tenantID, actorID string, input OrderCreateInput) (*domain.Order, error) {
	if len(input.Items) == 0 {
		return nil, apperrors.NewValidationError("order needs at least one item", nil)
	}
	for i, item := range input.Items {
		switch {
		case strings.TrimSpace(item.Description) == "":
			return nil, apperrors.NewValidationError("item description is required", map[string]any{"item": i})
		case item.WidthCm <= 0 || item.HeightCm <= 0:
			return nil, apperrors.NewValidationError("item dimensions must be positive", map[string]any{"item": i})
		case item.Quantity <= 0:
			return nil, apperrors.NewValidationError("item quantity must be positive", map[string]any{"item": i})
		case item.UnitPrice.IsNegative():
			return nil, apperrors.NewValidationError("item unit price cannot be negative", map[string]any{"item": i})
		}
	}

	order := &domain.Order{
		TenantID:   tenantID,
		CustomerID: input.CustomerID,
		BranchID:   input.BranchID,
		DealerID:   input.DealerID,
		Number:     s.nextNumber(),
		Status:     domain.OrderStatusDraft,
		Items:      append([]domain.OrderItem(nil), input.Items...),
		Note:       input.Note,
		CreatedBy:  actorID,
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		customer, err := repos.Customers.GetByID(ctx, tenantID, input.CustomerID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return apperrors.NewValidationError("customer does not exist", map[string]any{"customer_id": input.CustomerID})
			}
			return err
		}
		if order.BranchID == nil {
			order.BranchID = customer.BranchID
		}
		if err := priceFromCatalog(ctx, repos, tenantID, order.Items); err != nil {
			return err
		}
		order.RecalculateTotal()
		if order.DealerID != nil {
			dealer, err := repos.Dealers.GetByID(ctx, tenantID, *order.DealerID)
			if err != nil {
				if apperrors.IsNotFound(err) {
					return apperrors.NewValidationError("dealer does not exist", map[string]any{"dealer_id": *order.DealerID})
				}
				return err
			}
			if !dealer.IsActive {
				return apperrors.NewValidationError("dealer is inactive", map[string]any{"dealer_id": dealer.ID})
			}
			order.ApplyDiscount(dealer.DiscountPercent)
		}
		return repos.Orders.Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("order created",
		zap.String("tenant_id", tenantID),
		zap.String("order_id", order.ID),
		zap.String("total", order.Total.StringFixed(2)))
	return order, nil
}

// Get returns an order with its items.
func (s *OrderService) Get(ctx context.Context, tenantID, id string) (*domain.Order, error) {
	return s.store.Repos().Orders.GetByID(ctx, tenantID, id)
}

// List returns orders without items, newest first.
func (s *OrderService) List(ctx context.Context, tenantID string, filter repository.OrderFilter) ([]domain.Order, error) {
	return s.store.Repos().Orders.List(ctx, tenantID, filter)
}

// UpdateStatus moves an order along its lifecycle.
func (s *OrderService) UpdateStatus(ctx context.Context, tenantID, id string, next domain.OrderStatus) (*domain.Order, error) {
	repos := s.store.Repos()
	order, err := repos.Orders.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, apperrors.NewConflict("order status transition not allowed", map[string]any{
			"from": order.Status,
			"to":   next,
		})
	}
	if err := repos.Orders.UpdateStatus(ctx, tenantID, id, next); err != nil {
		return nil, err
	}
	order.Status = next
	return order, nil
}

func priceFromCatalog(ctx context.Context, repos repository.Repositories, tenantID string, items []domain.OrderItem) error {
	for i := range items {
		item := &items[i]
		if item.VariantID == nil {
			continue
		}
		variant, err := repos.Variants.GetByID(ctx, tenantID, *item.VariantID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return apperrors.NewValidationError("variant does not exist", map[string]any{"item": i, "variant_id": *item.VariantID})
			}
			return err
		}
		if !variant.IsActive {
			return apperrors.NewValidationError("variant is no longer offered", map[string]any{"item": i, "variant_id": variant.ID})
		}
		if item.UnitPrice.IsZero() {
			item.UnitPrice = variant.UnitPrice
		}
		if strings.TrimSpace(item.Fabric) == "" {
			category, err := repos.Categories.GetByID(ctx, tenantID, variant.CategoryID)
			if err != nil {
				return err
			}
			item.Fabric = category.Name + " / " + variant.Name
		}
	}
	return nil
}

func (s *OrderService) nextNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", s.now().UTC().Format("20060102"), suffix)
}
