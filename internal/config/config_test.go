package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Auth.ImpersonationTTLMinutes)
	assert.Equal(t, 14*24*time.Hour, cfg.Billing.TrialPeriod())
	assert.Equal(t, time.Hour, cfg.Billing.SweepInterval())
	assert.True(t, decimal.RequireFromString("29").Equal(cfg.Billing.ProMonthlyPrice))
	assert.Equal(t, 10, cfg.Billing.YearlyMonths)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("BILLING_TRIAL_DAYS", "7")
	t.Setenv("BILLING_PRO_MONTHLY_PRICE", "99.90")
	t.Setenv("BILLING_SWEEP_INTERVAL_SECONDS", "60")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, cfg.Billing.TrialPeriod())
	assert.Equal(t, "99.9", cfg.Billing.ProMonthlyPrice.String())
	assert.Equal(t, time.Minute, cfg.Billing.SweepInterval())
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"price":             {"BILLING_PRO_MONTHLY_PRICE": "cheap"},
		"redis db":          {"REDIS_DB": "first"},
		"production secret": {"APP_ENV": "production"},
		"impersonation ttl": {"AUTH_IMPERSONATION_TTL_MINUTES": "-1"},
		"bcrypt cost":       {"AUTH_BCRYPT_COST": "99"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
