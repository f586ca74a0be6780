package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	RedisURL           string
	JWTSecret          string
	JWTIssuer          string
	JWTAudience        string
	AccessTokenTTL     time.Duration
	OTPTTL             time.Duration
	OTPDemoCode        string
	CORSAllowedOrigins []string

	// Fee schedule applied to every cart.
	TaxRate       float64
	DeliveryFee   float64
	SmallOrderMin float64
	SmallOrderFee float64

	// Loyalty redemption policy.
	PointValue        float64
	RedeemStep        int
	MaxRedeemFraction float64

	// Order ETA parameters.
	PickupBaseMinutes   int
	DeliveryBaseMinutes int
	EtaPerItemMinutes   int
	EtaIncrementCap     int

	// Pickup slot derivation.
	SlotLeadMinutes     int
	SlotIntervalMinutes int
	SlotMaxSlots        int

	// Cart lifecycle.
	CartIdleTTL       time.Duration
	CartSweepInterval time.Duration

	// Rate limiting for login code requests.
	OTPRateLimit  int
	OTPRateWindow time.Duration

	MaxBodyBytes int64

	MetricsNamespace string
	MetricsBuckets   string

	SecurityHeadersEnable bool
	EnableHSTS            bool

	TracingEnabled  bool
	TracingEndpoint string
	TracingSampling float64

	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		JWTSecret:          k.String("JWT_SECRET"),
		JWTIssuer:          valueOrDefault(k.String("JWT_ISSUER"), "kopikita"),
		JWTAudience:        valueOrDefault(k.String("JWT_AUDIENCE"), "kopikita-app"),
		AccessTokenTTL:     parseDuration(k.String("ACCESS_TOKEN_TTL"), "24h"),
		OTPTTL:             parseDuration(k.String("OTP_TTL"), "2m"),
		OTPDemoCode:        strings.TrimSpace(k.String("OTP_DEMO_CODE")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		TaxRate:       parseFloat(k.String("FEE_TAX_RATE"), 0.06),
		DeliveryFee:   parseFloat(k.String("FEE_DELIVERY"), 5),
		SmallOrderMin: parseFloat(k.String("FEE_SMALL_ORDER_MIN"), 20),
		SmallOrderFee: parseFloat(k.String("FEE_SMALL_ORDER"), 2),

		PointValue:        parseFloat(k.String("REWARDS_POINT_VALUE"), 0.10),
		RedeemStep:        parseInt(k.String("REWARDS_REDEEM_STEP"), 10),
		MaxRedeemFraction: parseFloat(k.String("REWARDS_MAX_REDEEM_FRACTION"), 0.5),

		PickupBaseMinutes:   parseInt(k.String("ETA_PICKUP_BASE_MINUTES"), 20),
		DeliveryBaseMinutes: parseInt(k.String("ETA_DELIVERY_BASE_MINUTES"), 35),
		EtaPerItemMinutes:   parseInt(k.String("ETA_PER_ITEM_MINUTES"), 2),
		EtaIncrementCap:     parseInt(k.String("ETA_INCREMENT_CAP"), 12),

		SlotLeadMinutes:     parseInt(k.String("SLOT_LEAD_MINUTES"), 20),
		SlotIntervalMinutes: parseInt(k.String("SLOT_INTERVAL_MINUTES"), 15),
		SlotMaxSlots:        parseInt(k.String("SLOT_MAX_SLOTS"), 0),

		CartIdleTTL:       parseDuration(k.String("CART_IDLE_TTL"), "2h"),
		CartSweepInterval: parseDuration(k.String("CART_SWEEP_INTERVAL"), "5m"),

		OTPRateLimit:  parseInt(k.String("OTP_RATE_LIMIT"), 5),
		OTPRateWindow: parseDuration(k.String("OTP_RATE_WINDOW"), "1m"),

		MaxBodyBytes: int64(parseInt(k.String("MAX_BODY_BYTES"), 1<<20)),

		MetricsNamespace: valueOrDefault(k.String("METRICS_NAMESPACE"), "kopikita"),
		MetricsBuckets:   k.String("METRICS_BUCKETS_MS"),

		SecurityHeadersEnable: parseBoolDefault(k.String("SECURITY_HEADERS_ENABLE"), true),
		EnableHSTS:            parseBool(k.String("SECURITY_ENABLE_HSTS")),

		TracingEnabled:  parseBool(k.String("TRACING_ENABLED")),
		TracingEndpoint: strings.TrimSpace(k.String("TRACING_ENDPOINT")),
		TracingSampling: parseFloat(k.String("TRACING_SAMPLING_RATIO"), 1),

		ShutdownTimeout: parseDuration(k.String("SHUTDOWN_TIMEOUT"), "10s"),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.TaxRate < 0 || cfg.TaxRate >= 1 {
		return nil, fmt.Errorf("FEE_TAX_RATE out of range: %v", cfg.TaxRate)
	}
	if cfg.MaxRedeemFraction < 0 || cfg.MaxRedeemFraction > 1 {
		return nil, fmt.Errorf("REWARDS_MAX_REDEEM_FRACTION out of range: %v", cfg.MaxRedeemFraction)
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseFloat(value string, fallback float64) float64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return fallback
	}
	return f
}

func parseInt(value string, fallback int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return fallback
	}
	return n
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseBoolDefault(value string, fallback bool) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	return parseBool(trimmed)
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
