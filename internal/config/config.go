package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Billing      BillingConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level    string
	Encoding string
	Service  string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret                 string
	AccessTokenTTLMinutes     int
	ImpersonationTTLMinutes   int
	PasswordResetTTLMinutes   int
	BcryptCost                int
	SuperAdminEmail           string
	SuperAdminInitialPassword string
}

// BillingConfig holds subscription and pricing parameters.
type BillingConfig struct {
	TrialDays            int
	SweepIntervalSeconds int
	Currency             string
	ProMonthlyPrice      decimal.Decimal
	BusinessMonthlyPrice decimal.Decimal
	YearlyMonths         int
	CheckoutBaseURL      string
}

// NotificationConfig holds email settings.
type NotificationConfig struct {
	EmailFrom  string
	AppBaseURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	proPrice, err := decimal.NewFromString(getEnv("BILLING_PRO_MONTHLY_PRICE", "29.00"))
	if err != nil {
		return nil, fmt.Errorf("invalid BILLING_PRO_MONTHLY_PRICE: %w", err)
	}
	businessPrice, err := decimal.NewFromString(getEnv("BILLING_BUSINESS_MONTHLY_PRICE", "79.00"))
	if err != nil {
		return nil, fmt.Errorf("invalid BILLING_BUSINESS_MONTHLY_PRICE: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "curtain-order-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Encoding: getEnv("LOG_ENCODING", "json"),
			Service:  getEnv("APP_NAME", "curtain-order-service"),
		},
		Auth: AuthConfig{
			JWTSecret:                 getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes:     getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			ImpersonationTTLMinutes:   getEnvAsInt("AUTH_IMPERSONATION_TTL_MINUTES", 5),
			PasswordResetTTLMinutes:   getEnvAsInt("AUTH_PASSWORD_RESET_TTL_MINUTES", 30),
			BcryptCost:                getEnvAsInt("AUTH_BCRYPT_COST", 12),
			SuperAdminEmail:           os.Getenv("AUTH_SUPERADMIN_EMAIL"),
			SuperAdminInitialPassword: os.Getenv("AUTH_SUPERADMIN_PASSWORD"),
		},
		Billing: BillingConfig{
			TrialDays:            getEnvAsInt("BILLING_TRIAL_DAYS", 14),
			SweepIntervalSeconds: getEnvAsInt("BILLING_SWEEP_INTERVAL_SECONDS", 3600),
			Currency:             getEnv("BILLING_CURRENCY", "TRY"),
			ProMonthlyPrice:      proPrice,
			BusinessMonthlyPrice: businessPrice,
			YearlyMonths:         getEnvAsInt("BILLING_YEARLY_BILLED_MONTHS", 10),
			CheckoutBaseURL:      getEnv("BILLING_CHECKOUT_BASE_URL", "http://localhost:3000/billing"),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			AppBaseURL: getEnv("APP_BASE_URL", "http://localhost:3000"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	if c.App.Env == "production" && c.Auth.JWTSecret == "dev-secret" {
		return errors.New("AUTH_JWT_SECRET must be set in production")
	}
	if c.Auth.ImpersonationTTLMinutes <= 0 {
		return fmt.Errorf("AUTH_IMPERSONATION_TTL_MINUTES must be positive, got %d", c.Auth.ImpersonationTTLMinutes)
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("AUTH_BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.Billing.TrialDays < 0 {
		return errors.New("BILLING_TRIAL_DAYS must not be negative")
	}
	if c.Billing.ProMonthlyPrice.IsNegative() || c.Billing.BusinessMonthlyPrice.IsNegative() {
		return errors.New("plan prices must not be negative")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// SweepInterval returns how often the subscription sweep runs.
func (b BillingConfig) SweepInterval() time.Duration {
	if b.SweepIntervalSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(b.SweepIntervalSeconds) * time.Second
}

// TrialPeriod returns the free trial length.
func (b BillingConfig) TrialPeriod() time.Duration {
	return time.Duration(b.TrialDays) * 24 * time.Hour
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
