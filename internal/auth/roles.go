package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/perdeci/curtain-order-service/internal/access"
	"github.com/perdeci/curtain-order-service/internal/observability"
	apperrors "github.com/perdeci/curtain-order-service/pkg/util/errorutil"
)

const (
	adminScopeKey   = "auth_admin_scope"
	activeTenantKey = "auth_active_tenant"
)

// RequireAuthenticated ensures a principal was loaded.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if PrincipalFromContext(c) == nil {
			return apperrors.ErrUnauthenticated
		}
		return c.Next()
	}
}

// RequireSuperAdmin admits only SUPERADMIN principals.
func RequireSuperAdmin(metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := access.RequireSuperAdmin(PrincipalFromContext(c)); err != nil {
			metrics.RecordDenial("super_admin", apperrors.ToDomainError(err).Code)
			return err
		}
		return c.Next()
	}
}

// RequireTenantAdmin admits tenant admins and super-admins. The target tenant
// is read from the tenantID route parameter or the tenant_id query value. A
// super-admin without any tenant is resolved through resolver.
func RequireTenantAdmin(resolver *access.Resolver, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		target := c.Params("tenantID")
		if target == "" {
			target = c.Query("tenant_id")
		}
		principal := PrincipalFromContext(c)
		scope, err := access.RequireTenantAdmin(principal, target)
		if err != nil {
			metrics.RecordDenial("tenant_admin", apperrors.ToDomainError(err).Code)
			return err
		}
		if global, ok := scope.(access.GlobalAdmin); ok && global.TenantID == "" {
			tenantID, err := resolver.ResolveTenantID(c.UserContext(), principal)
			if err != nil {
				return err
			}
			scope = access.GlobalAdmin{TenantID: tenantID}
		}
		c.Locals(adminScopeKey, scope)
		return c.Next()
	}
}

// AdminScopeFromContext returns the scope stored by RequireTenantAdmin.
func AdminScopeFromContext(c *fiber.Ctx) access.AdminScope {
	scope, _ := c.Locals(adminScopeKey).(access.AdminScope)
	return scope
}

// RequireActiveTenant admits requests whose tenant has a usable subscription.
func RequireActiveTenant(gate *access.Gate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := gate.RequireActiveTenant(c.UserContext(), PrincipalFromContext(c))
		if err != nil {
			return err
		}
		c.Locals(activeTenantKey, tenantID)
		return c.Next()
	}
}

// ActiveTenantFromContext returns the tenant admitted by RequireActiveTenant.
func ActiveTenantFromContext(c *fiber.Ctx) string {
	tenantID, _ := c.Locals(activeTenantKey).(string)
	return tenantID
}
