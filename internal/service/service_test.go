package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/perdeci/curtain-order-service/internal/auth"
	"github.com/perdeci/curtain-order-service/internal/billing"
	"github.com/perdeci/curtain-order-service/internal/config"
	"github.com/perdeci/curtain-order-service/internal/domain"
	"github.com/perdeci/curtain-order-service/internal/events"
	"github.com/perdeci/curtain-order-service/internal/repository/memory"
)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) ofType(t events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type harness struct {
	cfg           config.Config
	store         *memory.Store
	tokens        *auth.TokenManager
	recorder      *recorder
	billing       *billing.Service
	auth          *AuthService
	impersonation *ImpersonationService
	members       *MembershipService
	tenants       *TenantService
	customers     *CustomerService
	orders        *OrderService
	catalog       *CatalogService
	dealers       *DealerService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret",
			AccessTokenTTLMinutes:   60,
			PasswordResetTTLMinutes: 30,
			BcryptCost:              bcrypt.MinCost,
		},
		Billing: config.BillingConfig{
			TrialDays:            14,
			Currency:             "TRY",
			ProMonthlyPrice:      decimal.RequireFromString("29.00"),
			BusinessMonthlyPrice: decimal.RequireFromString("79.00"),
			YearlyMonths:         10,
			CheckoutBaseURL:      "http://localhost:3000/billing",
		},
	}
	store := memory.New()
	rec := &recorder{}
	dispatcher := events.NewInMemoryDispatcher(nil)
	for _, et := range []events.EventType{
		events.EventMemberInvited,
		events.EventPasswordResetRequested,
		events.EventSubscriptionStatusChanged,
		events.EventImpersonationStarted,
	} {
		dispatcher.Subscribe(et, rec.handle)
	}
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	billingService := billing.NewService(billing.Dependencies{Store: store, Config: cfg.Billing, Dispatcher: dispatcher})

	return &harness{
		cfg:      cfg,
		store:    store,
		tokens:   tokens,
		recorder: rec,
		billing:  billingService,
		auth:     NewAuthService(cfg, AuthDependencies{Store: store, Tokens: tokens, Dispatcher: dispatcher}),
		impersonation: NewImpersonationService(ImpersonationDependencies{
			Store:      store,
			Tokens:     tokens,
			Grants:     auth.NewMemoryGrantStore(),
			Dispatcher: dispatcher,
		}),
		members: NewMembershipService(MembershipDependencies{
			Store:      store,
			Billing:    billingService,
			Dispatcher: dispatcher,
			BcryptCost: bcrypt.MinCost,
		}),
		tenants:   NewTenantService(store, cfg.Billing.TrialPeriod(), nil, nil),
		customers: NewCustomerService(store),
		orders:    NewOrderService(store, nil, nil),
		catalog:   NewCatalogService(store),
		dealers:   NewDealerService(store),
	}
}

func (h *harness) register(t *testing.T, email string) *Session {
	t.Helper()
	session, err := h.auth.Register(context.Background(), RegisterInput{
		Name:       "Owner",
		Email:      email,
		Password:   "password123",
		TenantName: "Atelier " + email,
	})
	require.NoError(t, err)
	return session
}

func (h *harness) superAdmin(t *testing.T) *domain.User {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.auth.EnsureSuperAdmin(ctx, "root@example.com", "rootpass123"))
	user, err := h.store.Repos().Users.GetByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	return user
}

func principalOf(s *Session) *domain.Principal {
	p := s.Principal
	return &p
}
