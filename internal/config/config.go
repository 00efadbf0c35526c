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
	"github.com/shopspring/decimal"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	CORSAllowedOrigins []string

	LogFormat        string
	LogLevel         string
	ServiceName      string
	MetricsNamespace string
	MetricsEnabled   bool
	OTLPEndpoint     string
	TracingRatio     float64
	PprofEnabled     bool
	PprofUser        string
	PprofPass        string
	DBAutoMigrate    bool
	DBMaxConns       int
	DBMinConns       int

	AccessTokenTTL    time.Duration
	RefreshTokenTTL   time.Duration
	RefreshCookieName string
	CookieSecure      bool
	HSTSEnabled       bool
	ShutdownTimeout   time.Duration

	StoreName string

	CurrencyCode        string
	CurrencySymbol      string
	VATPercent          decimal.Decimal
	DefaultShippingCost decimal.Decimal
	DefaultShippingETA  string

	CartTTL          time.Duration
	CartLockTTL      time.Duration
	LockRetryBackoff time.Duration
	CatalogCacheTTL  time.Duration
	LocationCacheTTL time.Duration
	CatalogPageSize  int
	CatalogMaxLimit  int
	IdempotencyTTL   time.Duration
	BodyLimitBytes   int64

	RateLimitAuth string

	NotifyEmailFrom   string
	WorkerConcurrency int
	WorkerMetricsAddr string
}

// Component names the binary a Config is loaded for; each requires a different set of keys.
type Component int

const (
	// ComponentAPI is the HTTP server; it needs Postgres, Redis and a JWT secret.
	ComponentAPI Component = iota
	// ComponentWorker is the task worker; it only needs Redis.
	ComponentWorker
)

// Load reads the API configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	return LoadFor(ComponentAPI)
}

// LoadFor reads configuration and checks the keys required by component.
func LoadFor(component Component) (*Config, error) {
	cfg, err := parse()
	if err != nil {
		return nil, err
	}
	if err := cfg.require(component); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parse() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		JWTSecret:          k.String("JWT_SECRET"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		LogFormat:        valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
		LogLevel:         valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
		ServiceName:      valueOrDefault(k.String("OTEL_SERVICE_NAME"), "pcnexus-api"),
		MetricsNamespace: valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "pcnexus"),
		MetricsEnabled:   parseBool(valueOrDefault(k.String("OBS_ENABLE_PROMETHEUS"), "true")),
		OTLPEndpoint:     strings.TrimSpace(k.String("OTEL_EXPORTER_OTLP_ENDPOINT")),
		TracingRatio:     parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1.0),
		PprofEnabled:     parseBool(k.String("PPROF_ENABLED")),
		PprofUser:        strings.TrimSpace(k.String("PPROF_BASIC_AUTH_USER")),
		PprofPass:        strings.TrimSpace(k.String("PPROF_BASIC_AUTH_PASS")),
		DBAutoMigrate:    parseBool(valueOrDefault(k.String("DB_AUTO_MIGRATE"), "true")),
		DBMaxConns:       parseInt(k.String("DB_MAX_CONNS"), 10),
		DBMinConns:       parseInt(k.String("DB_MIN_CONNS"), 0),

		AccessTokenTTL:    parseDuration(k.String("ACCESS_TOKEN_TTL"), "15m"),
		RefreshTokenTTL:   parseDuration(k.String("REFRESH_TOKEN_TTL"), "720h"),
		RefreshCookieName: valueOrDefault(k.String("REFRESH_COOKIE_NAME"), "pcnexus_refresh"),
		ShutdownTimeout:   parseDuration(k.String("SHUTDOWN_TIMEOUT"), "15s"),

		StoreName: valueOrDefault(k.String("STORE_NAME"), "PC Nexus"),

		CurrencyCode:       strings.ToUpper(valueOrDefault(k.String("CURRENCY_CODE"), "BDT")),
		CurrencySymbol:     valueOrDefault(k.String("CURRENCY_SYMBOL"), "৳"),
		DefaultShippingETA: valueOrDefault(k.String("SHIPPING_DEFAULT_ETA"), "3-5 business days"),

		CartTTL:          parseDuration(k.String("CART_TTL"), "720h"),
		CartLockTTL:      parseDuration(k.String("CART_LOCK_TTL"), "5s"),
		LockRetryBackoff: parseDuration(k.String("LOCK_RETRY_BACKOFF"), "25ms"),
		CatalogCacheTTL:  parseDuration(k.String("CATALOG_CACHE_TTL"), "60s"),
		LocationCacheTTL: parseDuration(k.String("LOCATION_CACHE_TTL"), "10m"),
		CatalogPageSize:  parseInt(k.String("CATALOG_PAGE_SIZE"), 12),
		CatalogMaxLimit:  parseInt(k.String("CATALOG_MAX_LIMIT"), 100),
		IdempotencyTTL:   parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		BodyLimitBytes:   int64(parseInt(k.String("HTTP_BODY_LIMIT_BYTES"), 1<<20)),

		RateLimitAuth: valueOrDefault(k.String("RATE_LIMIT_AUTH"), "10-M"),

		NotifyEmailFrom:   valueOrDefault(k.String("NOTIFY_EMAIL_FROM"), "orders@pcnexus.com.bd"),
		WorkerConcurrency: parseInt(k.String("WORKER_CONCURRENCY"), 5),
		WorkerMetricsAddr: valueOrDefault(k.String("WORKER_METRICS_ADDR"), ":9091"),
	}

	cfg.CookieSecure = parseBool(valueOrDefault(k.String("COOKIE_SECURE"), strconv.FormatBool(cfg.IsProduction())))
	cfg.HSTSEnabled = parseBool(valueOrDefault(k.String("SECURE_HSTS"), strconv.FormatBool(cfg.IsProduction())))
	if cfg.TracingRatio < 0 || cfg.TracingRatio > 1 {
		return nil, errors.New("OBS_TRACING_SAMPLING_RATIO must be between 0 and 1")
	}

	var err error
	if cfg.VATPercent, err = parseDecimal(k.String("PRICING_VAT_PERCENT"), "15"); err != nil {
		return nil, fmt.Errorf("PRICING_VAT_PERCENT: %w", err)
	}
	if cfg.DefaultShippingCost, err = parseDecimal(k.String("SHIPPING_DEFAULT_COST"), "120"); err != nil {
		return nil, fmt.Errorf("SHIPPING_DEFAULT_COST: %w", err)
	}
	if cfg.VATPercent.IsNegative() {
		return nil, errors.New("PRICING_VAT_PERCENT must not be negative")
	}
	if cfg.DefaultShippingCost.IsNegative() {
		return nil, errors.New("SHIPPING_DEFAULT_COST must not be negative")
	}
	return cfg, nil
}

func (c *Config) require(component Component) error {
	if c.RedisURL == "" {
		return errors.New("REDIS_URL is required")
	}
	if component == ComponentWorker {
		return nil
	}
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	return nil
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

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
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
		return strings.TrimSpace(value)
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

func parseInt(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func parseFloat(value string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

func parseDecimal(value, fallback string) (decimal.Decimal, error) {
	return decimal.NewFromString(valueOrDefault(value, fallback))
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// MustLoad behaves like LoadFor but panics on error.
func MustLoad(component Component) *Config {
	cfg, err := LoadFor(component)
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	return loadForTests(env, ComponentAPI)
}

func loadForTests(env map[string]string, component Component) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := LoadFor(component)
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
