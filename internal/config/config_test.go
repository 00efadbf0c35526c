package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func baseEnv() map[string]string {
	return map[string]string{
		"DATABASE_URL":               "postgres://localhost/pcnexus",
		"REDIS_URL":                  "redis://localhost:6379/0",
		"JWT_SECRET":                 "secret",
		"PRICING_VAT_PERCENT":        "",
		"SHIPPING_DEFAULT_COST":      "",
		"CART_TTL":                   "",
		"PORT":                       "",
		"APP_ENV":                    "",
		"COOKIE_SECURE":              "",
		"OBS_TRACING_SAMPLING_RATIO": "",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(baseEnv())
	require.NoError(t, err)
	require.Equal(t, "15", cfg.VATPercent.String())
	require.Equal(t, "120", cfg.DefaultShippingCost.String())
	require.Equal(t, "BDT", cfg.CurrencyCode)
	require.Equal(t, 720*time.Hour, cfg.CartTTL)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "pcnexus_refresh", cfg.RefreshCookieName)
	require.False(t, cfg.CookieSecure)
	require.Equal(t, 1.0, cfg.TracingRatio)
}

func TestProductionDefaultsToSecureCookies(t *testing.T) {
	env := baseEnv()
	env["APP_ENV"] = "production"
	cfg, err := LoadForTests(env)
	require.NoError(t, err)
	require.True(t, cfg.IsProduction())
	require.True(t, cfg.CookieSecure)

	env["COOKIE_SECURE"] = "false"
	cfg, err = LoadForTests(env)
	require.NoError(t, err)
	require.False(t, cfg.CookieSecure)
}

func TestLoadOverrides(t *testing.T) {
	env := baseEnv()
	env["PRICING_VAT_PERCENT"] = "7.5"
	env["SHIPPING_DEFAULT_COST"] = "80"
	env["CART_TTL"] = "bogus"
	env["PORT"] = ":9090"

	cfg, err := LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, "7.5", cfg.VATPercent.String())
	require.Equal(t, "80", cfg.DefaultShippingCost.String())
	require.Equal(t, 720*time.Hour, cfg.CartTTL)
	require.Equal(t, ":9090", cfg.HTTPAddr())
}

func TestLoadValidation(t *testing.T) {
	env := baseEnv()
	env["SHIPPING_DEFAULT_COST"] = "-1"
	_, err := LoadForTests(env)
	require.ErrorContains(t, err, "SHIPPING_DEFAULT_COST")

	env = baseEnv()
	env["PRICING_VAT_PERCENT"] = "abc"
	_, err = LoadForTests(env)
	require.ErrorContains(t, err, "PRICING_VAT_PERCENT")

	env = baseEnv()
	env["OBS_TRACING_SAMPLING_RATIO"] = "2"
	_, err = LoadForTests(env)
	require.ErrorContains(t, err, "SAMPLING_RATIO")

	env = baseEnv()
	env["JWT_SECRET"] = ""
	_, err = LoadForTests(env)
	require.ErrorContains(t, err, "JWT_SECRET")
}

func TestWorkerOnlyNeedsRedis(t *testing.T) {
	env := baseEnv()
	env["DATABASE_URL"] = ""
	env["JWT_SECRET"] = ""
	cfg, err := loadForTests(env, ComponentWorker)
	require.NoError(t, err)
	require.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)

	_, err = LoadForTests(env)
	require.ErrorContains(t, err, "DATABASE_URL")

	env["REDIS_URL"] = ""
	_, err = loadForTests(env, ComponentWorker)
	require.ErrorContains(t, err, "REDIS_URL")
}

func TestMustLoadPanicsOnMissingKeys(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	require.Panics(t, func() { MustLoad(ComponentWorker) })
}
