package memory

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/perdeci/curtain-order-service/internal/domain"
	"github.com/perdeci/curtain-order-service/internal/repository"
)

type categoryRepo struct{ repo }

func (r *categoryRepo) Create(_ context.Context, c *domain.Category) error {
	return r.acc(func(s *state) error {
		if _, ok := s.tenants[c.TenantID]; !ok {
			return foreignKeyViolation("categories_tenant_id_fkey")
		}
		if err := uniqueCategory(s, c); err != nil {
			return err
		}
		now := r.now()
		c.ID = uuid.NewString()
		c.CreatedAt = now
		c.UpdatedAt = now
		s.categories[c.ID] = *c
		s.track(c.ID)
		return nil
	})
}

func (r *categoryRepo) Update(_ context.Context, c *domain.Category) error {
	return r.acc(func(s *state) error {
		existing, ok := s.categories[c.ID]
		if !ok || existing.TenantID != c.TenantID {
			return errNoRows
		}
		if err := uniqueCategory(s, c); err != nil {
			return err
		}
		c.CreatedAt = existing.CreatedAt
		c.UpdatedAt = r.now()
		s.categories[c.ID] = *c
		return nil
	})
}

func (r *categoryRepo) GetByID(_ context.Context, tenantID, id string) (*domain.Category, error) {
	var out domain.Category
	err := r.acc(func(s *state) error {
		c, ok := s.categories[id]
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

func (r *categoryRepo) List(_ context.Context, tenantID string) ([]domain.Category, error) {
	var out []domain.Category
	err := r.acc(func(s *state) error {
		for _, c := range s.categories {
			if c.TenantID == tenantID {
				out = append(out, c)
			}
		}
		sortedBy(out, func(a, b domain.Category) bool { return a.Name < b.Name })
		return nil
	})
	return out, err
}

func (r *categoryRepo) Delete(_ context.Context, tenantID, id string) error {
	return r.acc(func(s *state) error {
		c, ok := s.categories[id]
		if !ok || c.TenantID != tenantID {
			return errNoRows
		}
		for _, v := range s.variants {
			if v.CategoryID == id {
				return foreignKeyViolation("variants_category_id_fkey")
			}
		}
		delete(s.categories, id)
		return nil
	})
}

func uniqueCategory(s *state, c *domain.Category) error {
	for id, existing := range s.categories {
		if id != c.ID && existing.TenantID == c.TenantID && existing.Name == c.Name {
			return uniqueViolation("categories_tenant_id_name_key")
		}
	}
	return nil
}

type variantRepo struct{ repo }

func (r *variantRepo) Create(_ context.Context, v *domain.Variant) error {
	return r.acc(func(s *state) error {
		category, ok := s.categories[v.CategoryID]
		if !ok || category.TenantID != v.TenantID {
			return errNoRows
		}
		if err := uniqueVariant(s, v); err != nil {
			return err
		}
		now := r.now()
		v.ID = uuid.NewString()
		v.CreatedAt = now
		v.UpdatedAt = now
		s.variants[v.ID] = *v
		s.track(v.ID)
		return nil
	})
}

func (r *variantRepo) Update(_ context.Context, v *domain.Variant) error {
	return r.acc(func(s *state) error {
		existing, ok := s.variants[v.ID]
		if !ok || existing.TenantID != v.TenantID {
			return errNoRows
		}
		v.CategoryID = existing.CategoryID
		if err := uniqueVariant(s, v); err != nil {
			return err
		}
		v.CreatedAt = existing.CreatedAt
		v.UpdatedAt = r.now()
		s.variants[v.ID] = *v
		return nil
	})
}

func (r *variantRepo) GetByID(_ context.Context, tenantID, id string) (*domain.Variant, error) {
	var out domain.Variant
	err := r.acc(func(s *state) error {
		v, ok := s.variants[id]
		if !ok || v.TenantID != tenantID {
			return errNoRows
		}
		out = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *variantRepo) ListByCategory(_ context.Context, tenantID, categoryID string, activeOnly bool) ([]domain.Variant, error) {
	var out []domain.Variant
	err := r.acc(func(s *state) error {
		for _, v := range s.variants {
			if v.TenantID != tenantID || v.CategoryID != categoryID {
				continue
			}
			if activeOnly && !v.IsActive {
				continue
			}
			out = append(out, v)
		}
		sortedBy(out, func(a, b domain.Variant) bool { return a.Name < b.Name })
		return nil
	})
	return out, err
}

func (r *variantRepo) Delete(_ context.Context, tenantID, id string) error {
	return r.acc(func(s *state) error {
		v, ok := s.variants[id]
		if !ok || v.TenantID != tenantID {
			return errNoRows
		}
		for _, o := range s.orders {
			for _, item := range o.Items {
				if item.VariantID != nil && *item.VariantID == id {
					return foreignKeyViolation("order_items_variant_id_fkey")
				}
			}
		}
		delete(s.variants, id)
		return nil
	})
}

func uniqueVariant(s *state, v *domain.Variant) error {
	for id, existing := range s.variants {
		if id != v.ID && existing.CategoryID == v.CategoryID && existing.Name == v.Name {
			return uniqueViolation("variants_category_id_name_key")
		}
	}
	return nil
}

type dealerRepo struct{ repo }

func (r *dealerRepo) Create(_ context.Context, d *domain.Dealer) error {
	return r.acc(func(s *state) error {
		if _, ok := s.tenants[d.TenantID]; !ok {
			return foreignKeyViolation("dealers_tenant_id_fkey")
		}
		now := r.now()
		d.ID = uuid.NewString()
		d.CreatedAt = now
		d.UpdatedAt = now
		s.dealers[d.ID] = *d
		s.track(d.ID)
		return nil
	})
}

func (r *dealerRepo) Update(_ context.Context, d *domain.Dealer) error {
	return r.acc(func(s *state) error {
		existing, ok := s.dealers[d.ID]
		if !ok || existing.TenantID != d.TenantID {
			return errNoRows
		}
		d.CreatedAt = existing.CreatedAt
		d.UpdatedAt = r.now()
		s.dealers[d.ID] = *d
		return nil
	})
}

func (r *dealerRepo) GetByID(_ context.Context, tenantID, id string) (*domain.Dealer, error) {
	var out domain.Dealer
	err := r.acc(func(s *state) error {
		d, ok := s.dealers[id]
		if !ok || d.TenantID != tenantID {
			return errNoRows
		}
		out = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *dealerRepo) List(_ context.Context, tenantID string, filter repository.DealerFilter) ([]domain.Dealer, error) {
	var out []domain.Dealer
	err := r.acc(func(s *state) error {
		var all []domain.Dealer
		search := ""
		if filter.SearchTerm != nil {
			search = strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
		}
		for _, d := range s.dealers {
			if d.TenantID != tenantID {
				continue
			}
			if filter.ActiveOnly && !d.IsActive {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(d.Name), search) &&
				!strings.Contains(strings.ToLower(d.Email), search) {
				continue
			}
			all = append(all, d)
		}
		sortedBy(all, func(a, b domain.Dealer) bool { return a.Name < b.Name })
		out = append(out, limitOffset(all, filter.Limit, filter.Offset)...)
		return nil
	})
	return out, err
}

func (r *dealerRepo) Delete(_ context.Context, tenantID, id string) error {
	return r.acc(func(s *state) error {
		d, ok := s.dealers[id]
		if !ok || d.TenantID != tenantID {
			return errNoRows
		}
		for _, o := range s.orders {
			if o.DealerID != nil && *o.DealerID == id {
				return foreignKeyViolation("orders_dealer_id_fkey")
			}
		}
		delete(s.dealers, id)
		return nil
	})
}
