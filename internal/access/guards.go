// Package access decides which tenant a request operates on and whether the
// caller may proceed. Every entry point takes the principal explicitly.
package access

import (
	"github.com/perdeci/curtain-order-service/internal/domain"
	apperrors "github.com/perdeci/curtain-order-service/pkg/util/errorutil"
)

// AdminScope is the result of RequireTenantAdmin. It is either ScopedAdmin
// or GlobalAdmin; switch on the concrete type to handle both.
type AdminScope interface {
	adminScope()
}

// ScopedAdmin is a tenant OWNER or ADMIN acting on their own tenant.
type ScopedAdmin struct {
	TenantID string
}

// GlobalAdmin is a super-admin. TenantID is the requested target tenant,
// falling back to the session tenant; it may be empty.
type GlobalAdmin struct {
	TenantID string
}

func (ScopedAdmin) adminScope() {}
func (GlobalAdmin) adminScope() {}

// ScopeTenantID returns the tenant an admin scope applies to.
func ScopeTenantID(scope AdminScope) string {
	switch s := scope.(type) {
	case ScopedAdmin:
		return s.TenantID
	case GlobalAdmin:
		return s.TenantID
	}
	return ""
}

// RequireSuperAdmin admits only principals with the SUPERADMIN global role.
func RequireSuperAdmin(p *domain.Principal) (*domain.Principal, error) {
	if p == nil || p.UserID == "" {
		return nil, apperrors.ErrUnauthenticated
	}
	if !p.IsSuperAdmin() {
		return nil, apperrors.NewForbidden("super admin required")
	}
	return p, nil
}

// RequireTenantAdmin admits tenant OWNERs and ADMINs of the session tenant,
// and super-admins for any tenant. targetTenantID may be empty.
func RequireTenantAdmin(p *domain.Principal, targetTenantID string) (AdminScope, error) {
	if p == nil || p.UserID == "" {
		return nil, apperrors.ErrUnauthenticated
	}
	if p.IsSuperAdmin() {
		if targetTenantID != "" {
			return GlobalAdmin{TenantID: targetTenantID}, nil
		}
		return GlobalAdmin{TenantID: p.TenantID}, nil
	}
	if !p.HasTenant() {
		return nil, apperrors.ErrTenantNotSelected
	}
	if !p.TenantRole.IsAdmin() {
		return nil, apperrors.NewForbidden("tenant admin role required")
	}
	if targetTenantID != "" && targetTenantID != p.TenantID {
		return nil, apperrors.NewForbiddenOtherTenant(p.TenantID, targetTenantID)
	}
	return ScopedAdmin{TenantID: p.TenantID}, nil
}
