package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Storage drivers for wizard sessions.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds the complete application configuration, loadable from
// environment variables (PRINT prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	Storage     string `default:"postgres" usage:"Wizard session storage: postgres or memory"`
	DatabaseURL string `usage:"PostgreSQL connection URL (PRINT_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	// CredentialPepper keys the HMAC that derives session owners from bearer tokens.
	CredentialPepper string `usage:"HMAC pepper for session ownership (PRINT_CREDENTIAL_PEPPER)" flag:"credential-pepper"`
	OrdersAPI        OrdersAPIConfig
	Session          SessionConfig
	RateLimit        RateLimitConfig
	CORS             CORSConfig
	Gzip             GzipConfig
	Graceful         GracefulConfig
}

// OrdersAPIConfig locates the orders backend.
type OrdersAPIConfig struct {
	BaseURL string        `usage:"Orders API base URL" flag:"orders-api-url"`
	Timeout time.Duration `default:"10s" usage:"Orders API request timeout" flag:"orders-api-timeout"`
}

// SessionConfig controls wizard session lifetime.
type SessionConfig struct {
	TTL           time.Duration `default:"24h" usage:"Wizard session lifetime"`
	PurgeInterval time.Duration `default:"1h"  usage:"Interval between expired session purges, 0 disables" flag:"purge-interval"`
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

// GzipConfig controls response compression.
type GzipConfig struct {
	Level int `default:"5" usage:"Gzip compression level (1-9)" flag:"gzip-level"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "PRINT",
		Files:     []string{"config.yaml", "/etc/print-order/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage {
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return errors.New("database URL is required: set PRINT_DATABASE_URL or DATABASE_URL")
		}
	case StorageMemory:
	default:
		return errors.Errorf("unknown storage %q", c.Storage)
	}
	if c.OrdersAPI.BaseURL == "" {
		return errors.New("orders API base URL is required: set PRINT_ORDERS_API_BASE_URL")
	}
	if c.CredentialPepper == "" {
		return errors.New("credential pepper is required: set PRINT_CREDENTIAL_PEPPER")
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's PRINT_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
