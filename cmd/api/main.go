package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/perdeci/curtain-order-service/internal/access"
	httptransport "github.com/perdeci/curtain-order-service/internal/api/http"
	"github.com/perdeci/curtain-order-service/internal/api/http/handlers"
	"github.com/perdeci/curtain-order-service/internal/auth"
	"github.com/perdeci/curtain-order-service/internal/billing"
	"github.com/perdeci/curtain-order-service/internal/config"
	"github.com/perdeci/curtain-order-service/internal/events"
	"github.com/perdeci/curtain-order-service/internal/mail"
	"github.com/perdeci/curtain-order-service/internal/observability"
	"github.com/perdeci/curtain-order-service/internal/persistence"
	"github.com/perdeci/curtain-order-service/internal/repository"
	"github.com/perdeci/curtain-order-service/internal/repository/memory"
	"github.com/perdeci/curtain-order-service/internal/service"
	"github.com/perdeci/curtain-order-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var store repository.Provider
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool, cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		store = repository.NewStore(pg.Pool)
	} else {
		store = memory.New()
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var (
		grants    auth.GrantStore = auth.NewMemoryGrantStore()
		sweepLock *goredis.Client
	)
	if redis.Reachable(ctx, 2*time.Second) {
		grants = auth.NewRedisGrantStore(redis.Client)
		sweepLock = redis.Client
	}

	metrics := observability.NewMetrics("curtain")
	dispatcher := events.NewInMemoryDispatcher(logger)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes,
		auth.WithImpersonationTTL(time.Duration(cfg.Auth.ImpersonationTTLMinutes)*time.Minute))
	repos := store.Repos()

	billingService := billing.NewService(billing.Dependencies{
		Store:      store,
		Config:     cfg.Billing,
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
	})
	resolver := access.NewResolver(store, cfg.Billing.TrialPeriod(), logger, nil)
	gate := access.NewGate(access.GateDependencies{
		Resolver:      resolver,
		Subscriptions: repos.Subscriptions,
		Dispatcher:    dispatcher,
		Logger:        logger,
		Metrics:       metrics,
	})

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		Store:      store,
		Tokens:     tokens,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	impersonationService := service.NewImpersonationService(service.ImpersonationDependencies{
		Store:      store,
		Tokens:     tokens,
		Grants:     grants,
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
	})
	membershipService := service.NewMembershipService(service.MembershipDependencies{
		Store:      store,
		Billing:    billingService,
		Dispatcher: dispatcher,
		Logger:     logger,
		BcryptCost: cfg.Auth.BcryptCost,
	})
	tenantService := service.NewTenantService(store, cfg.Billing.TrialPeriod(), logger, nil)
	customerService := service.NewCustomerService(store)
	orderService := service.NewOrderService(store, logger, nil)

	notifications := service.NewNotificationService(dispatcher, mail.NewLogSender(cfg.Notification.EmailFrom, logger), store, logger, cfg.Notification)
	notifications.RegisterHandlers()

	if cfg.Auth.SuperAdminEmail != "" {
		if err := authService.EnsureSuperAdmin(ctx, cfg.Auth.SuperAdminEmail, cfg.Auth.SuperAdminInitialPassword); err != nil {
			logger.Fatal("failed to seed super admin", zap.Error(err))
		}
	}

	sweeper := worker.NewSubscriptionSweeper(
		billing.NewSweeper(repos.Subscriptions, dispatcher, logger, metrics),
		sweepLock,
		cfg.Billing.SweepInterval(),
		logger,
	)
	go sweeper.Run(ctx)

	authMiddleware := auth.NewAuthMiddleware(tokens, repos.Users, repos.Memberships)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth:           handlers.NewAuthHandler(authService, impersonationService),
		Tenants:        handlers.NewTenantsHandler(tenantService),
		Members:        handlers.NewMembersHandler(membershipService),
		Billing:        handlers.NewBillingHandler(billingService),
		Customers:      handlers.NewCustomersHandler(customerService),
		Orders:         handlers.NewOrdersHandler(orderService),
		Catalog:        handlers.NewCatalogHandler(service.NewCatalogService(store)),
		Dealers:        handlers.NewDealersHandler(service.NewDealerService(store)),
		AuthMiddleware: authMiddleware,
		Resolver:       resolver,
		Gate:           gate,
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
