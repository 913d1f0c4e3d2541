package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/perdeci/curtain-order-service/internal/domain"
)

type tenantRepo struct{ repo }

func (r *tenantRepo) Create(_ context.Context, tenant *domain.Tenant) error {
	return r.acc(func(s *state) error {
		now := r.now()
		tenant.ID = uuid.NewString()
		tenant.CreatedAt = now
		tenant.UpdatedAt = now
		s.tenants[tenant.ID] = *tenant
		s.track(tenant.ID)
		return nil
	})
}

func (r *tenantRepo) GetByID(_ context.Context, id string) (*domain.Tenant, error) {
	var out domain.Tenant
	err := r.acc(func(s *state) error {
		tenant, ok := s.tenants[id]
		if !ok {
			return errNoRows
		}
		out = tenant
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *tenantRepo) Oldest(_ context.Context) (*domain.Tenant, error) {
	var out *domain.Tenant
	err := r.acc(func(s *state) error {
		for _, tenant := range s.tenants {
			if out == nil || s.before(tenant.ID, tenant.CreatedAt, out.ID, out.CreatedAt) {
				t := tenant
				out = &t
			}
		}
		if out == nil {
			return errNoRows
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *tenantRepo) ListOverview(_ context.Context, limit, offset int) ([]domain.TenantOverview, error) {
	var out []domain.TenantOverview
	err := r.acc(func(s *state) error {
		all := make([]domain.Tenant, 0, len(s.tenants))
		for _, tenant := range s.tenants {
			all = append(all, tenant)
		}
		sortedBy(all, func(a, b domain.Tenant) bool { return s.before(a.ID, a.CreatedAt, b.ID, b.CreatedAt) })
		for _, tenant := range limitOffset(all, limit, offset) {
			item := domain.TenantOverview{Tenant: tenant}
			if sub, ok := s.subscriptions[tenant.ID]; ok {
				item.Subscription = &sub
			}
			for _, m := range s.memberships {
				if m.TenantID == tenant.ID {
					item.MemberCount++
				}
			}
			out = append(out, item)
		}
		return nil
	})
	return out, err
}

func (r *tenantRepo) CreateBranch(_ context.Context, branch *domain.Branch) error {
	return r.acc(func(s *state) error {
		if _, ok := s.tenants[branch.TenantID]; !ok {
			return foreignKeyViolation("branches_tenant_id_fkey")
		}
		if branch.IsDefault {
			for _, existing := range s.branches {
				if existing.TenantID == branch.TenantID && existing.IsDefault {
					return uniqueViolation("branches_one_default_per_tenant")
				}
			}
		}
		branch.ID = uuid.NewString()
		branch.CreatedAt = r.now()
		s.branches[branch.ID] = *branch
		s.track(branch.ID)
		return nil
	})
}

func (r *tenantRepo) DefaultBranch(_ context.Context, tenantID string) (*domain.Branch, error) {
	var out domain.Branch
	err := r.acc(func(s *state) error {
		for _, branch := range s.branches {
			if branch.TenantID == tenantID && branch.IsDefault {
				out = branch
				return nil
			}
		}
		return errNoRows
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// LockProvisioning is a no-op: transactions already hold the store mutex.
func (r *tenantRepo) LockProvisioning(context.Context) error {
	return nil
}

type membershipRepo struct{ repo }

func (r *membershipRepo) Create(_ context.Context, m *domain.Membership) error {
	return r.acc(func(s *state) error {
		return r.insert(s, m)
	})
}

func (r *membershipRepo) insert(s *state, m *domain.Membership) error {
	if _, ok := s.users[m.UserID]; !ok {
		return foreignKeyViolation("memberships_user_id_fkey")
	}
	if _, ok := s.tenants[m.TenantID]; !ok {
		return foreignKeyViolation("memberships_tenant_id_fkey")
	}
	for _, existing := range s.memberships {
		if existing.UserID == m.UserID && existing.TenantID == m.TenantID {
			return uniqueViolation("memberships_user_id_tenant_id_key")
		}
	}
	m.ID = uuid.NewString()
	m.CreatedAt = r.now()
	s.memberships[m.ID] = *m
	s.track(m.ID)
	return nil
}

func (r *membershipRepo) CreateIfAbsent(_ context.Context, m *domain.Membership) (bool, error) {
	created := false
	err := r.acc(func(s *state) error {
		for _, existing := range s.memberships {
			if existing.UserID == m.UserID && existing.TenantID == m.TenantID {
				*m = existing
				return nil
			}
		}
		created = true
		return r.insert(s, m)
	})
	return created, err
}

func (r *membershipRepo) Get(_ context.Context, userID, tenantID string) (*domain.Membership, error) {
	var out domain.Membership
	err := r.acc(func(s *state) error {
		for _, m := range s.memberships {
			if m.UserID == userID && m.TenantID == tenantID {
				out = m
				return nil
			}
		}
		return errNoRows
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *membershipRepo) OldestForUser(ctx context.Context, userID string) (*domain.Membership, error) {
	list, err := r.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, errNoRows
	}
	return &list[0], nil
}

func (r *membershipRepo) ListForUser(_ context.Context, userID string) ([]domain.Membership, error) {
	var out []domain.Membership
	err := r.acc(func(s *state) error {
		for _, m := range s.memberships {
			if m.UserID == userID {
				out = append(out, m)
			}
		}
		sortedBy(out, func(a, b domain.Membership) bool { return s.before(a.ID, a.CreatedAt, b.ID, b.CreatedAt) })
		return nil
	})
	return out, err
}

func (r *membershipRepo) ListForTenant(_ context.Context, tenantID string) ([]domain.MemberView, error) {
	var out []domain.MemberView
	err := r.acc(func(s *state) error {
		var members []domain.Membership
		for _, m := range s.memberships {
			if m.TenantID == tenantID {
				members = append(members, m)
			}
		}
		sortedBy(members, func(a, b domain.Membership) bool { return s.before(a.ID, a.CreatedAt, b.ID, b.CreatedAt) })
		for _, m := range members {
			user := s.users[m.UserID]
			out = append(out, domain.MemberView{Membership: m, Email: user.Email, Name: user.Name, IsActive: user.IsActive})
		}
		return nil
	})
	return out, err
}

func (r *membershipRepo) UpdateRole(_ context.Context, userID, tenantID string, role domain.TenantRole) error {
	return r.acc(func(s *state) error {
		for id, m := range s.memberships {
			if m.UserID == userID && m.TenantID == tenantID {
				m.Role = role
				s.memberships[id] = m
				return nil
			}
		}
		return errNoRows
	})
}

func (r *membershipRepo) Delete(_ context.Context, userID, tenantID string) error {
	return r.acc(func(s *state) error {
		for id, m := range s.memberships {
			if m.UserID == userID && m.TenantID == tenantID {
				delete(s.memberships, id)
				return nil
			}
		}
		return errNoRows
	})
}

func (r *membershipRepo) CountForUser(_ context.Context, userID string) (int, error) {
	count := 0
	err := r.acc(func(s *state) error {
		for _, m := range s.memberships {
			if m.UserID == userID {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (r *membershipRepo) CountForTenant(_ context.Context, tenantID string) (int, error) {
	count := 0
	err := r.acc(func(s *state) error {
		for _, m := range s.memberships {
			if m.TenantID == tenantID {
				count++
			}
		}
		return nil
	})
	return count, err
}
