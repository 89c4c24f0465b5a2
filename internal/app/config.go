package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Config holds the complete application configuration, loadable from
// environment variables (STORE_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	RedisURL    string `usage:"Redis connection URL for carts and checkout sessions (STORE_REDIS_URL or REDIS_URL)" flag:"redis-url"`
	DatabaseURL string `usage:"PostgreSQL URL for the checkout audit trail; empty disables auditing" flag:"database-url"`

	// TaxRate is the VAT fraction applied to post-discount subtotals,
	// e.g. "0.1" for 10%.
	TaxRate string `default:"0.1" usage:"Tax rate as a decimal fraction" flag:"tax-rate"`

	// CouponFilterPath points at the bloom filter snapshot produced by
	// cmd/coupon-cache. Empty or missing file disables the local pre-check.
	CouponFilterPath string `default:"" usage:"Path to the coupon code bloom filter snapshot" flag:"coupon-filter"`

	Upstream  UpstreamConfig
	Payment   PaymentConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig

	taxRate decimal.Decimal
}

// UpstreamConfig holds the base URLs of the backend services.
type UpstreamConfig struct {
	CatalogURL string        `usage:"Catalog service base URL" flag:"catalog-url"`
	SalesURL   string        `usage:"Sales service base URL" flag:"sales-url"`
	PaymentURL string        `usage:"Payment service base URL" flag:"payment-url"`
	AuthURL    string        `usage:"Auth service base URL" flag:"auth-url"`
	Timeout    time.Duration `default:"10s" usage:"Upstream request timeout"`
}

// PaymentConfig controls payment routing behaviour.
type PaymentConfig struct {
	// FallbackURL is the in-app payment page used when card-gateway
	// initiation fails.
	FallbackURL string `default:"/payment" usage:"In-app fallback payment page URL" flag:"payment-fallback-url"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// TaxRateDecimal returns the parsed tax rate.
func (c *Config) TaxRateDecimal() decimal.Decimal {
	return c.taxRate
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STORE",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.RedisURL == "" {
		return nil, errors.New("redis URL is required: set STORE_REDIS_URL or REDIS_URL")
	}
	for name, u := range map[string]string{
		"catalog": cfg.Upstream.CatalogURL,
		"sales":   cfg.Upstream.SalesURL,
		"payment": cfg.Upstream.PaymentURL,
	} {
		if u == "" {
			return nil, errors.Errorf("%s service URL is required", name)
		}
	}

	rate, err := decimal.NewFromString(cfg.TaxRate)
	if err != nil {
		return nil, errors.Wrap(err, "parse tax rate")
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, errors.Errorf("tax rate %s out of range [0, 1]", rate)
	}
	cfg.taxRate = rate

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like REDIS_URL and PORT to
// the application's STORE_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.RedisURL == "" {
		if v := os.Getenv("REDIS_URL"); v != "" {
			c.RedisURL = v
		}
	}
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
