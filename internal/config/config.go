package config

import (
	"fmt"
	"strings"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the gateway.
type Config struct {
	App          AppConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Identity     IdentityConfig
	Chat         ChatConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string `env:"APP_NAME" envDefault:"chemdisk-gateway"`
	Env                   string `env:"APP_ENV" envDefault:"development"`
	Host                  string `env:"APP_HOST" envDefault:"0.0.0.0"`
	Port                  string `env:"APP_PORT" envDefault:"8080"`
	Version               string `env:"APP_VERSION" envDefault:"dev"`
	RequestTimeoutSeconds int    `env:"HTTP_REQUEST_TIMEOUT_SECONDS" envDefault:"30"`
	CORSAllowOrigin       string `env:"CORS_ALLOW_ORIGIN" envDefault:"*"`
}

// RedisConfig holds Redis connection values. An empty Addr disables Redis and
// the in-memory registry and limiter are used instead.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// IdentityConfig describes the GoTrue instance that owns user records.
type IdentityConfig struct {
	// URL is the GoTrue base, e.g. https://site.netlify.app/.netlify/identity.
	URL string `env:"IDENTITY_URL"`
	// JWTSecret verifies tokens locally; when empty tokens are checked by
	// fetching the user from URL.
	JWTSecret         string `env:"IDENTITY_JWT_SECRET"`
	SessionMaxSeconds int    `env:"SESSION_MAX_SECONDS" envDefault:"18000"`
}

// ChatConfig configures the completion proxy.
type ChatConfig struct {
	APIKey             string        `env:"GEMINI_API_KEY"`
	APIBase            string        `env:"CHAT_API_BASE" envDefault:"https://generativelanguage.googleapis.com/v1beta"`
	Model              string        `env:"CHAT_MODEL" envDefault:"gemini-2.5-flash"`
	Temperature        float64       `env:"CHAT_TEMPERATURE" envDefault:"0.2"`
	Timeout            time.Duration `env:"CHAT_TIMEOUT" envDefault:"60s"`
	RateLimitPerMinute int           `env:"CHAT_RATE_LIMIT_PER_MINUTE" envDefault:"20"`
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	WebhookURL string `env:"NOTIFY_WEBHOOK_URL"`
}

// Load reads configuration from a .env file (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.Sanitize()
	return &cfg, nil
}

// Sanitize applies guardrails to values loaded from the environment.
func (c *Config) Sanitize() {
	if c.Identity.SessionMaxSeconds <= 0 {
		c.Identity.SessionMaxSeconds = 5 * 60 * 60
	}
	c.Identity.URL = strings.TrimRight(strings.TrimSpace(c.Identity.URL), "/")
	c.Chat.APIBase = strings.TrimRight(strings.TrimSpace(c.Chat.APIBase), "/")
	if c.Chat.Temperature < 0 || c.Chat.Temperature > 2 {
		c.Chat.Temperature = 0.2
	}
	if c.Chat.Timeout <= 0 {
		c.Chat.Timeout = 60 * time.Second
	}
	if c.Chat.RateLimitPerMinute < 0 {
		c.Chat.RateLimitPerMinute = 0
	}
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

// SessionBudget returns the wall-clock session length granted at login.
func (i IdentityConfig) SessionBudget() time.Duration {
	return time.Duration(i.SessionMaxSeconds) * time.Second
}
