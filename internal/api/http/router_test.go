package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/perdeci/curtain-order-service/internal/access"
	"github.com/perdeci/curtain-order-service/internal/api/http/handlers"
	"github.com/perdeci/curtain-order-service/internal/auth"
	"github.com/perdeci/curtain-order-service/internal/billing"
	"github.com/perdeci/curtain-order-service/internal/config"
	"github.com/perdeci/curtain-order-service/internal/events"
	"github.com/perdeci/curtain-order-service/internal/observability"
	"github.com/perdeci/curtain-order-service/internal/repository/memory"
	"github.com/perdeci/curtain-order-service/internal/service"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestApp(t *testing.T) (*fiber.App, *clock) {
	t.Helper()
	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "router-secret",
			AccessTokenTTLMinutes: 60,
			BcryptCost:            bcrypt.MinCost,
		},
		Billing: config.BillingConfig{
			TrialDays:            14,
			Currency:             "TRY",
			ProMonthlyPrice:      decimal.RequireFromString("29.00"),
			BusinessMonthlyPrice: decimal.RequireFromString("79.00"),
			YearlyMonths:         10,
		},
	}
	clk := &clock{now: time.Now()}
	store := memory.New()
	logger := zap.NewNop()
	metrics := observability.NewMetrics("test")
	dispatcher := events.NewInMemoryDispatcher(logger)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	repos := store.Repos()

	billingService := billing.NewService(billing.Dependencies{Store: store, Config: cfg.Billing, Dispatcher: dispatcher, Clock: clk.Now})
	resolver := access.NewResolver(store, cfg.Billing.TrialPeriod(), logger, clk.Now)
	gate := access.NewGate(access.GateDependencies{
		Resolver:      resolver,
		Subscriptions: repos.Subscriptions,
		Dispatcher:    dispatcher,
		Metrics:       metrics,
		Clock:         clk.Now,
	})
	authService := service.NewAuthService(cfg, service.AuthDependencies{Store: store, Tokens: tokens, Dispatcher: dispatcher})
	impersonation := service.NewImpersonationService(service.ImpersonationDependencies{
		Store:  store,
		Tokens: tokens,
		Grants: auth.NewMemoryGrantStore(),
	})
	members := service.NewMembershipService(service.MembershipDependencies{
		Store:      store,
		Billing:    billingService,
		Dispatcher: dispatcher,
		BcryptCost: bcrypt.MinCost,
	})

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("test", "dev", nil),
		Auth:           handlers.NewAuthHandler(authService, impersonation),
		Tenants:        handlers.NewTenantsHandler(service.NewTenantService(store, cfg.Billing.TrialPeriod(), logger, clk.Now)),
		Members:        handlers.NewMembersHandler(members),
		Billing:        handlers.NewBillingHandler(billingService),
		Customers:      handlers.NewCustomersHandler(service.NewCustomerService(store)),
		Orders:         handlers.NewOrdersHandler(service.NewOrderService(store, logger, clk.Now)),
		Catalog:        handlers.NewCatalogHandler(service.NewCatalogService(store)),
		Dealers:        handlers.NewDealersHandler(service.NewDealerService(store)),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, repos.Users, repos.Memberships),
		Resolver:       resolver,
		Gate:           gate,
		Metrics:        metrics,
	})
	return app, clk
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func call(t *testing.T, app *fiber.App, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func registerOwner(t *testing.T, app *fiber.App) string {
	t.Helper()
	status, env := call(t, app, fiber.MethodPost, "/auth/register", "", map[string]string{
		"name":        "Owner",
		"email":       "owner@example.com",
		"password":    "password123",
		"tenant_name": "Atelier",
	})
	require.Equal(t, fiber.StatusCreated, status)
	var session struct {
		Auth struct {
			Token string `json:"token"`
		} `json:"auth"`
		TenantID string `json:"tenant_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))
	require.NotEmpty(t, session.TenantID)
	return session.Auth.Token
}

func TestUnknownRouteRendersErrorEnvelope(t *testing.T) {
	app, _ := newTestApp(t)
	status, env := call(t, app, fiber.MethodGet, "/nope", "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app, _ := newTestApp(t)
	status, env := call(t, app, fiber.MethodGet, "/customers", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHENTICATED", env.Error.Code)
}

func TestGuardsOverHTTP(t *testing.T) {
	app, _ := newTestApp(t)
	token := registerOwner(t, app)

	status, env := call(t, app, fiber.MethodGet, "/admin/tenants", token, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	status, _ = call(t, app, fiber.MethodGet, "/workspace/members", token, nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, env = call(t, app, fiber.MethodGet, "/workspace/members?tenant_id=someone-else", token, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "FORBIDDEN_OTHER_TENANT", env.Error.Code)
}

func TestActiveTenantGateOverHTTP(t *testing.T) {
	app, clk := newTestApp(t)
	token := registerOwner(t, app)

	status, _ := call(t, app, fiber.MethodPost, "/customers", token, map[string]string{"name": "Ayse"})
	require.Equal(t, fiber.StatusCreated, status)

	status, _ = call(t, app, fiber.MethodGet, "/customers", token, nil)
	assert.Equal(t, fiber.StatusOK, status)

	clk.advance(15 * 24 * time.Hour)

	status, env := call(t, app, fiber.MethodGet, "/customers", token, nil)
	assert.Equal(t, fiber.StatusPaymentRequired, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "TRIAL_EXPIRED", env.Error.Code)

	status, env = call(t, app, fiber.MethodGet, "/customers", token, nil)
	assert.Equal(t, fiber.StatusPaymentRequired, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "SUBSCRIPTION_INACTIVE", env.Error.Code)

	// billing stays reachable so the owner can pay
	status, _ = call(t, app, fiber.MethodGet, "/workspace/billing", token, nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestMalformedBodyIsValidationError(t *testing.T) {
	app, _ := newTestApp(t)
	req := httptest.NewRequest(fiber.MethodPost, "/auth/login", bytes.NewBufferString("{"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestChainDoesNotShareBackingArray(t *testing.T) {
	errBase, errAdmin, errGate := errors.New("base"), errors.New("admin"), errors.New("gate")
	returns := func(err error) fiber.Handler { return func(*fiber.Ctx) error { return err } }

	base := make([]fiber.Handler, 1, 4)
	base[0] = returns(errBase)
	admin := chain(base, returns(errAdmin))
	active := chain(base, returns(errGate))

	require.Len(t, admin, 2)
	require.Len(t, active, 2)
	assert.Len(t, base, 1)
	assert.ErrorIs(t, admin[1](nil), errAdmin)
	assert.ErrorIs(t, active[1](nil), errGate)
}

func TestCatalogAndDealersOverHTTP(t *testing.T) {
	app, _ := newTestApp(t)
	token := registerOwner(t, app)

	var created struct {
		ID string `json:"id"`
	}
	status, env := call(t, app, fiber.MethodPost, "/categories", token, map[string]any{"name": "Blackout"})
	require.Equal(t, fiber.StatusCreated, status)
	require.NoError(t, json.Unmarshal(env.Data, &created))
	categoryID := created.ID

	status, env = call(t, app, fiber.MethodPost, "/categories/"+categoryID+"/variants", token, map[string]any{"name": "Anthracite", "unit_price": "150.00"})
	require.Equal(t, fiber.StatusCreated, status)
	require.NoError(t, json.Unmarshal(env.Data, &created))
	variantID := created.ID

	status, env = call(t, app, fiber.MethodPost, "/dealers", token, map[string]any{"name": "Reseller", "discount_percent": "10"})
	require.Equal(t, fiber.StatusCreated, status)
	require.NoError(t, json.Unmarshal(env.Data, &created))
	dealerID := created.ID

	status, env = call(t, app, fiber.MethodPost, "/customers", token, map[string]string{"name": "Ayse"})
	require.Equal(t, fiber.StatusCreated, status)
	require.NoError(t, json.Unmarshal(env.Data, &created))
	customerID := created.ID

	status, env = call(t, app, fiber.MethodPost, "/orders", token, map[string]any{
		"customer_id": customerID,
		"dealer_id":   dealerID,
		"items": []map[string]any{
			{"variant_id": variantID, "description": "Office", "width_cm": 300, "height_cm": 240, "quantity": 2},
		},
	})
	require.Equal(t, fiber.StatusCreated, status)
	var order struct {
		DealerID string          `json:"dealer_id"`
		Discount decimal.Decimal `json:"discount"`
		Total    decimal.Decimal `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &order))
	assert.Equal(t, dealerID, order.DealerID)
	assert.True(t, decimal.RequireFromString("30").Equal(order.Discount), "got %s", order.Discount)
	assert.True(t, decimal.RequireFromString("270").Equal(order.Total), "got %s", order.Total)

	status, env = call(t, app, fiber.MethodGet, "/categories/"+categoryID, token, nil)
	require.Equal(t, fiber.StatusOK, status)
	var category struct {
		Variants []struct {
			ID string `json:"id"`
		} `json:"variants"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &category))
	require.Len(t, category.Variants, 1)
	assert.Equal(t, variantID, category.Variants[0].ID)

	status, env = call(t, app, fiber.MethodDelete, "/variants/"+variantID, token, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	require.NotNil(t, env.Error)
}
