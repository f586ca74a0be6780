package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kopikita/backend-kopi/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"JWT_SECRET": "test-secret",
	})
	require.NoError(t, err)

	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, 24*time.Hour, cfg.AccessTokenTTL)
	require.Equal(t, 2*time.Minute, cfg.OTPTTL)
	require.InDelta(t, 0.06, cfg.TaxRate, 1e-9)
	require.InDelta(t, 0.10, cfg.PointValue, 1e-9)
	require.InDelta(t, 0.5, cfg.MaxRedeemFraction, 1e-9)
	require.Equal(t, 20, cfg.PickupBaseMinutes)
	require.Equal(t, 35, cfg.DeliveryBaseMinutes)
	require.Equal(t, 2*time.Hour, cfg.CartIdleTTL)
	require.Empty(t, cfg.RedisURL)
}

func TestLoadRequiresSecret(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{
		"JWT_SECRET": "",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"JWT_SECRET":           "test-secret",
		"PORT":                 "9090",
		"FEE_TAX_RATE":         "0.08",
		"REWARDS_POINT_VALUE":  "0.25",
		"SLOT_LEAD_MINUTES":    "30",
		"CART_IDLE_TTL":        "45m",
		"CORS_ALLOWED_ORIGINS": "https://app.kopikita.id, https://staging.kopikita.id",
	})
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.InDelta(t, 0.08, cfg.TaxRate, 1e-9)
	require.InDelta(t, 0.25, cfg.PointValue, 1e-9)
	require.Equal(t, 30, cfg.SlotLeadMinutes)
	require.Equal(t, 45*time.Minute, cfg.CartIdleTTL)
	require.Equal(t, []string{"https://app.kopikita.id", "https://staging.kopikita.id"}, cfg.CORSAllowedOrigins)
}

func TestLoadRejectsBadTaxRate(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{
		"JWT_SECRET":   "test-secret",
		"FEE_TAX_RATE": "1.5",
	})
	require.Error(t, err)
}
