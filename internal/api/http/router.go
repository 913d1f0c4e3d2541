package http

import (
	"slices"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/perdeci/curtain-order-service/internal/access"
	"github.com/perdeci/curtain-order-service/internal/api/http/handlers"
	"github.com/perdeci/curtain-order-service/internal/auth"
	"github.com/perdeci/curtain-order-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tenants        *handlers.TenantsHandler
	Members        *handlers.MembersHandler
	Billing        *handlers.BillingHandler
	Customers      *handlers.CustomersHandler
	Orders         *handlers.OrdersHandler
	Catalog        *handlers.CatalogHandler
	Dealers        *handlers.DealersHandler
	AuthMiddleware *auth.AuthMiddleware
	Resolver       *access.Resolver
	Gate           *access.Gate
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	authenticated := []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireAuthenticated()}

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)
	authGroup.Post("/impersonation/exchange", cfg.Auth.ExchangeImpersonation)

	session := authGroup.Group("", authenticated...)
	session.Get("/me", cfg.Auth.Me)
	session.Post("/tenant/select", cfg.Auth.SelectTenant)
	session.Post("/password/change", cfg.Auth.ChangePassword)
	session.Post("/impersonate", cfg.Auth.Impersonate)
	session.Post("/impersonation/revert", cfg.Auth.RevertImpersonation)

	app.Get("/tenants", chain(authenticated, cfg.Tenants.Mine)...)

	admin := app.Group("/admin", chain(authenticated, auth.RequireSuperAdmin(cfg.Metrics))...)
	admin.Get("/tenants", cfg.Tenants.Overview)
	admin.Post("/tenants", cfg.Tenants.Create)
	admin.Post("/tenants/:tenantID/billing/pay-month", cfg.Billing.PayMonth)
	admin.Post("/tenants/:tenantID/billing/pay-year", cfg.Billing.PayYear)
	admin.Post("/tenants/:tenantID/billing/extend-grace", cfg.Billing.ExtendGrace)
	admin.Get("/impersonations", cfg.Auth.ImpersonationLogs)

	tenantAdmin := app.Group("/workspace", chain(authenticated, auth.RequireTenantAdmin(cfg.Resolver, cfg.Metrics))...)
	tenantAdmin.Get("/members", cfg.Members.List)
	tenantAdmin.Post("/members", cfg.Members.Invite)
	tenantAdmin.Patch("/members/:userID", cfg.Members.ChangeRole)
	tenantAdmin.Delete("/members/:userID", cfg.Members.Remove)
	tenantAdmin.Get("/billing", cfg.Billing.Status)
	tenantAdmin.Get("/billing/invoices", cfg.Billing.Invoices)
	tenantAdmin.Post("/billing/checkout", cfg.Billing.Checkout)
	tenantAdmin.Post("/billing/cancel", cfg.Billing.Cancel)
	tenantAdmin.Post("/billing/resume", cfg.Billing.Resume)

	active := chain(authenticated, auth.RequireActiveTenant(cfg.Gate))
	customers := app.Group("/customers", active...)
	customers.Get("/", cfg.Customers.List)
	customers.Post("/", cfg.Customers.Create)
	customers.Get("/:id", cfg.Customers.Get)
	customers.Put("/:id", cfg.Customers.Update)
	customers.Delete("/:id", cfg.Customers.Delete)

	orders := app.Group("/orders", active...)
	orders.Get("/", cfg.Orders.List)
	orders.Post("/", cfg.Orders.Create)
	orders.Get("/:id", cfg.Orders.Get)
	orders.Patch("/:id/status", cfg.Orders.UpdateStatus)

	// price lists and dealer terms are edited by tenant admins only
	manage := auth.RequireTenantAdmin(cfg.Resolver, cfg.Metrics)

	categories := app.Group("/categories", active...)
	categories.Get("/", cfg.Catalog.ListCategories)
	categories.Post("/", manage, cfg.Catalog.CreateCategory)
	categories.Get("/:id", cfg.Catalog.GetCategory)
	categories.Put("/:id", manage, cfg.Catalog.UpdateCategory)
	categories.Delete("/:id", manage, cfg.Catalog.DeleteCategory)
	categories.Get("/:id/variants", cfg.Catalog.ListVariants)
	categories.Post("/:id/variants", manage, cfg.Catalog.CreateVariant)

	variants := app.Group("/variants", active...)
	variants.Put("/:id", manage, cfg.Catalog.UpdateVariant)
	variants.Delete("/:id", manage, cfg.Catalog.DeleteVariant)

	dealers := app.Group("/dealers", active...)
	dealers.Get("/", cfg.Dealers.List)
	dealers.Post("/", manage, cfg.Dealers.Create)
	dealers.Get("/:id", cfg.Dealers.Get)
	dealers.Put("/:id", manage, cfg.Dealers.Update)
	dealers.Delete("/:id", manage, cfg.Dealers.Delete)
}

// chain returns a fresh handler list so groups never share a backing array.
func chain(base []fiber.Handler, next ...fiber.Handler) []fiber.Handler {
	return slices.Concat(base, next)
}
