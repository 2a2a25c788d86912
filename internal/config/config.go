// Package config manages environment variables.
//
// It reads variables from the process environment (and a `.env` file when
// present), loads them into structured Go types and validates that required
// values are present so they can be reused across the application runtime.
//
// Responsibilities:
//   - Load environment variables (optionally from a `.env` file).
//   - Map env vars into a structured Go config (structs).
//   - Validate required values so the app fails fast on bad/missing config.
//   - Provide defaults for optional config blocks (cache, scheduler, observability).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	// Side-effect import: if a `.env` file exists it is loaded into the
	// process environment before any variable is read.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"
)

/*
	Env vars are read using the prefix STOREOPS_.

	Keys are lowercased and the prefix is removed. Nesting uses "." as the
	koanf delimiter; because most shells refuse "." in variable names, a
	double underscore is accepted as well:

	  STOREOPS_SERVER.PORT   -> server.port
	  STOREOPS_SERVER__PORT  -> server.port
*/

// EnvPrefix is the prefix shared by every configuration variable.
const EnvPrefix = "STOREOPS_"

// Config is the root configuration object for the application.
//
// Observability is a pointer because it is optional. If not provided,
// defaults are injected at load time.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Redis         RedisConfig          `koanf:"redis"`
	Auth          AuthConfig           `koanf:"auth" validate:"required"`
	Integration   IntegrationConfig    `koanf:"integration"`
	Cache         CacheConfig          `koanf:"cache"`
	Scheduler     SchedulerConfig      `koanf:"scheduler"`
	Ordering      OrderingConfig       `koanf:"ordering"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are expressed in seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`

	// LoginRateLimit is the number of login attempts per minute allowed per IP.
	LoginRateLimit int `koanf:"login_rate_limit" validate:"min=1"`
}

// Database drivers understood by the database package.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DatabaseConfig selects the SQL backend and carries its connection parameters.
//
// SQLite only needs Path (":memory:" is accepted). The PostgreSQL block is only
// validated when Driver is "postgres".
type DatabaseConfig struct {
	Driver string `koanf:"driver" validate:"required,oneof=sqlite postgres"`
	Path   string `koanf:"path" validate:"required_if=Driver sqlite"`

	Host            string `koanf:"host" validate:"required_if=Driver postgres"`
	Port            int    `koanf:"port" validate:"required_if=Driver postgres"`
	User            string `koanf:"user" validate:"required_if=Driver postgres"`
	Password        string `koanf:"password"`
	Name            string `koanf:"name" validate:"required_if=Driver postgres"`
	SSLMode         string `koanf:"ssl_mode"`
	MaxOpenConns    int    `koanf:"max_open_conns"`
	MaxIdleConns    int    `koanf:"max_idle_conns"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time"`
}

// RedisConfig contains Redis connection details.
// An empty Address disables Redis: jobs run inline and the memory cache is used.
type RedisConfig struct {
	Address  string `koanf:"address"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// Enabled reports whether a Redis address was configured.
func (r RedisConfig) Enabled() bool {
	return r.Address != ""
}

// Authentication providers.
const (
	AuthProviderLocal = "local"
	AuthProviderClerk = "clerk"
)

// AuthConfig stores authentication settings and secrets.
type AuthConfig struct {
	Provider       string        `koanf:"provider" validate:"required,oneof=local clerk"`
	SecretKey      string        `koanf:"secret_key" validate:"required,min=16"`
	TokenTTL       time.Duration `koanf:"token_ttl" validate:"min=1m"`
	ClerkSecretKey string        `koanf:"clerk_secret_key" validate:"required_if=Provider clerk"`
}

// IntegrationConfig holds credentials for third-party services.
// Every integration is optional; an empty key disables it.
type IntegrationConfig struct {
	ResendAPIKey     string `koanf:"resend_api_key"`
	EmailFrom        string `koanf:"email_from"`
	TelegramBotToken string `koanf:"telegram_bot_token"`
	TelegramChatID   string `koanf:"telegram_chat_id"`
	TelegramAPIURL   string `koanf:"telegram_api_url" validate:"omitempty,url"`
}

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// CacheConfig controls the read-through cache for catalog listings.
type CacheConfig struct {
	Backend string        `koanf:"backend" validate:"oneof=memory redis"`
	TTL     time.Duration `koanf:"ttl" validate:"min=1s"`
}

// SchedulerConfig controls periodic jobs such as the daily flight report.
type SchedulerConfig struct {
	Enabled         bool   `koanf:"enabled"`
	DailyReportSpec string `koanf:"daily_report_spec" validate:"required_if=Enabled true"`
	Timezone        string `koanf:"timezone"`
}

// OrderingConfig carries store-independent defaults for the order rules.
type OrderingConfig struct {
	// DefaultDeliveryThreshold is applied to stores created without a threshold.
	DefaultDeliveryThreshold decimal.Decimal `koanf:"default_delivery_threshold"`
	// DefaultGeofenceRadius is applied to stores created without a radius (meters).
	DefaultGeofenceRadius float64 `koanf:"default_geofence_radius" validate:"gt=0"`
}

// Default returns a configuration pre-filled with defaults for every optional value.
// Values read from the environment override these.
func Default() *Config {
	return &Config{
		Primary: Primary{Env: "development"},
		Server: ServerConfig{
			Port:               "8080",
			ReadTimeout:        30,
			WriteTimeout:       30,
			IdleTimeout:        60,
			CORSAllowedOrigins: []string{"*"},
			LoginRateLimit:     10,
		},
		Database: DatabaseConfig{
			Driver:          DriverSQLite,
			Path:            "storeops.db",
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    25,
			ConnMaxLifetime: 300,
			ConnMaxIdleTime: 300,
		},
		Auth: AuthConfig{
			Provider: AuthProviderLocal,
			TokenTTL: 12 * time.Hour,
		},
		Integration: IntegrationConfig{
			EmailFrom:      "StoreOps <onboarding@resend.dev>",
			TelegramAPIURL: "https://api.telegram.org",
		},
		Cache: CacheConfig{
			Backend: CacheMemory,
			TTL:     5 * time.Minute,
		},
		Scheduler: SchedulerConfig{
			Enabled:         false,
			DailyReportSpec: "0 21 * * *",
			Timezone:        "UTC",
		},
		Ordering: OrderingConfig{
			DefaultDeliveryThreshold: decimal.Zero,
			DefaultGeofenceRadius:    150,
		},
	}
}

// listKeys are the keys whose values are comma-separated lists.
var listKeys = map[string]bool{
	"server.cors_allowed_origins":        true,
	"observability.health_checks.checks": true,
}

// envKey converts a raw environment variable name into a koanf key path.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// envValue maps a variable to its koanf key and splits list values.
func envValue(key, value string) (string, interface{}) {
	k := envKey(key)
	if listKeys[k] {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return k, out
	}
	return k, value
}

// LoadConfig loads configuration from environment variables, unmarshals it on
// top of Default(), validates it, applies observability defaults and returns it.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	mainConfig := Default()
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	if err := mainConfig.Validate(); err != nil {
		return nil, err
	}

	return mainConfig, nil
}

// Validate runs struct-tag validation and the observability rules, injecting
// observability defaults when the block is missing.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if c.Cache.Backend == CacheRedis && !c.Redis.Enabled() {
		return fmt.Errorf("config validation failed: cache backend redis requires redis.address")
	}

	if c.Scheduler.Timezone != "" {
		if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
			return fmt.Errorf("config validation failed: scheduler timezone: %w", err)
		}
	}

	if c.Observability == nil {
		c.Observability = DefaultObservabilityConfig()
	}

	// Service name is fixed; environment always follows primary.env.
	c.Observability.ServiceName = "storeops"
	c.Observability.Environment = c.Primary.Env

	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("invalid observability config: %w", err)
	}

	return nil
}

// IsLocal reports whether the application runs on a developer machine.
func (c *Config) IsLocal() bool {
	return c.Primary.Env == "local"
}
