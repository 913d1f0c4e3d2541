package memory

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/perdeci/curtain-order-service/internal/domain"
	"github.com/perdeci/curtain-order-service/internal/repository"
)

type customerRepo struct{ repo }

func (r *customerRepo) Create(_ context.Context, c *domain.Customer) error {
	return r.acc(func(s *state) error {
		if _, ok := s.tenants[c.TenantID]; !ok {
			return foreignKeyViolation("customers_tenant_id_fkey")
		}
		now := r.now()
		c.ID = uuid.NewString()
		c.CreatedAt = now
		c.UpdatedAt = now
		s.customers[c.ID] = *c
		s.track(c.ID)
		return nil
	})
}

func (r *customerRepo) Update(_ context.Context, c *domain.Customer) error {
	return r.acc(func(s *state) error {
		existing, ok := s.customers[c.ID]
		if !ok || existing.TenantID != c.TenantID {
			return errNoRows
		}
		c.CreatedAt = existing.CreatedAt
		c.UpdatedAt = r.now()
		s.customers[c.ID] = *c
		return nil
	})
}

func (r *customerRepo) GetByID(_ context.Context, tenantID, id string) (*domain.Customer, error) {
	var out domain.Customer
	err := r.acc(func(s *state) error {
		c, ok := s.customers[id]
		if !ok || c.TenantID != tenantID {
			return errNoRows
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *customerRepo) List(_ context.Context, tenantID string, filter repository.CustomerFilter) ([]domain.Customer, error) {
	var out []domain.Customer
	err := r.acc(func(s *state) error {
		var all []domain.Customer
		search := ""
		if filter.SearchTerm != nil {
			search = strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
		}
		for _, c := range s.customers {
			if c.TenantID != tenantID {
				continue
			}
			if filter.BranchID != nil && (c.BranchID == nil || *c.BranchID != *filter.BranchID) {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(c.Name), search) &&
				!strings.Contains(c.Phone, search) && !strings.Contains(strings.ToLower(c.Email), search) {
				continue
			}
			all = append(all, c)
		}
		sortedBy(all, func(a, b domain.Customer) bool { return a.Name < b.Name })
		out = append(out, limitOffset(all, filter.Limit, filter.Offset)...)
		return nil
	})
	return out, err
}

func (r *customerRepo) Delete(_ context.Context, tenantID, id string) error {
	return r.acc(func(s *state) error {
		c, ok := s.customers[id]
		if !ok || c.TenantID != tenantID {
			return errNoRows
		}
		for _, o := range s.orders {
			if o.CustomerID == id {
				return foreignKeyViolation("orders_customer_id_fkey")
			}
		}
		delete(s.customers, id)
		return nil
	})
}

type orderRepo struct{ repo }

func (r *orderRepo) Create(_ context.Context, o *domain.Order) error {
	return r.acc(func(s *state) error {
		customer, ok := s.customers[o.CustomerID]
		if !ok || customer.TenantID != o.TenantID {
			return foreignKeyViolation("orders_customer_id_fkey")
		}
		if o.DealerID != nil {
			if _, ok := s.dealers[*o.DealerID]; !ok {
				return foreignKeyViolation("orders_dealer_id_fkey")
			}
		}
		for _, item := range o.Items {
			if item.VariantID == nil {
				continue
			}
			if _, ok := s.variants[*item.VariantID]; !ok {
				return foreignKeyViolation("order_items_variant_id_fkey")
			}
		}
		for _, existing := range s.orders {
			if existing.TenantID == o.TenantID && existing.Number == o.Number {
				return uniqueViolation("orders_tenant_id_number_key")
			}
		}
		now := r.now()
		o.ID = uuid.NewString()
		o.CreatedAt = now
		o.UpdatedAt = now
		for i := range o.Items {
			o.Items[i].ID = uuid.NewString()
			o.Items[i].OrderID = o.ID
		}
		stored := *o
		stored.Items = append([]domain.OrderItem(nil), o.Items...)
		s.orders[o.ID] = stored
		s.track(o.ID)
		return nil
	})
}

func (r *orderRepo) GetByID(_ context.Context, tenantID, id string) (*domain.Order, error) {
	var out domain.Order
	err := r.acc(func(s *state) error {
		o, ok := s.orders[id]
		if !ok || o.TenantID != tenantID {
			return errNoRows
		}
		out = o
		out.Items = append([]domain.OrderItem(nil), o.Items...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *orderRepo) List(_ context.Context, tenantID string, filter repository.OrderFilter) ([]domain.Order, error) {
	var out []domain.Order
	err := r.acc(func(s *state) error {
		var all []domain.Order
		for _, o := range s.orders {
			if o.TenantID != tenantID {
				continue
			}
			if filter.CustomerID != nil && o.CustomerID != *filter.CustomerID {
				continue
			}
			if filter.DealerID != nil && (o.DealerID == nil || *o.DealerID != *filter.DealerID) {
				continue
			}
			if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, o.Status) {
				continue
			}
			o.Items = nil
			all = append(all, o)
		}
		sortedBy(all, func(a, b domain.Order) bool { return s.before(b.ID, b.CreatedAt, a.ID, a.CreatedAt) })
		out = append(out, limitOffset(all, filter.Limit, filter.Offset)...)
		return nil
	})
	return out, err
}

func (r *orderRepo) UpdateStatus(_ context.Context, tenantID, id string, status domain.OrderStatus) error {
	return r.acc(func(s *state) error {
		o, ok := s.orders[id]
		if !ok || o.TenantID != tenantID {
			return errNoRows
		}
		o.Status = status
		o.UpdatedAt = r.now()
		s.orders[id] = o
		return nil
	})
}

func containsStatus(list []domain.OrderStatus, status domain.OrderStatus) bool {
	for _, s := range list {
		if s == status {
			return true
		}
	}
	return false
}
