package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Tracing      TracingConfig
	Auth         AuthConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string `env:"APP_NAME" envDefault:"issue-tracker"`
	Env                   string `env:"APP_ENV" envDefault:"development"`
	Host                  string `env:"APP_HOST" envDefault:"0.0.0.0"`
	Port                  string `env:"APP_PORT" envDefault:"8080"`
	Version               string `env:"APP_VERSION" envDefault:"dev"`
	RequestTimeoutSeconds int    `env:"HTTP_REQUEST_TIMEOUT_SECONDS" envDefault:"30"`
	FrontendURL           string `env:"FRONTEND_URL" envDefault:"http://localhost:5173"`
	FrontendURLProd       string `env:"FRONTEND_URL_PROD"`
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string `env:"POSTGRES_DSN"`
	MaxConns       int32  `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
	MinConns       int32  `env:"POSTGRES_MIN_CONNS" envDefault:"2"`
	RunMigrations  bool   `env:"POSTGRES_RUN_MIGRATIONS" envDefault:"true"`
	ConnMaxIdleSec int32  `env:"POSTGRES_CONN_MAX_IDLE_SECONDS" envDefault:"30"`
	ConnMaxLifeSec int32  `env:"POSTGRES_CONN_MAX_LIFE_SECONDS" envDefault:"300"`
}

// RedisConfig holds Redis connection values. An empty Addr disables Redis.
type RedisConfig struct {
	Addr                  string `env:"REDIS_ADDR"`
	Password              string `env:"REDIS_PASSWORD"`
	DB                    int    `env:"REDIS_DB" envDefault:"0"`
	StatusCountsTTLSecond int    `env:"REDIS_STATUS_COUNTS_TTL_SECONDS" envDefault:"30"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// TracingConfig selects the span exporter. With neither option set spans are dropped.
type TracingConfig struct {
	OTLPEndpoint string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Stdout       bool    `env:"OTEL_STDOUT" envDefault:"false"`
	SampleRatio  float64 `env:"OTEL_SAMPLE_RATIO" envDefault:"1"`
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret               string `env:"AUTH_JWT_SECRET" envDefault:"dev-secret"`
	AccessTokenTTLMinutes   int    `env:"AUTH_ACCESS_TOKEN_TTL_MINUTES" envDefault:"1440"`
	PasswordResetTTLMinutes int    `env:"AUTH_PASSWORD_RESET_TTL_MINUTES" envDefault:"60"`
	InvitationTTLHours      int    `env:"AUTH_INVITATION_TTL_HOURS" envDefault:"168"`
	BcryptCost              int    `env:"AUTH_BCRYPT_COST" envDefault:"10"`
	MinPasswordLength       int    `env:"AUTH_MIN_PASSWORD_LENGTH" envDefault:"6"`
	RateLimitPerMinute      int    `env:"AUTH_RATE_LIMIT_PER_MINUTE" envDefault:"20"`
	RateLimitBurst          int    `env:"AUTH_RATE_LIMIT_BURST" envDefault:"20"`
}

// NotificationConfig selects and configures the outbound mail provider.
type NotificationConfig struct {
	Provider             string `env:"NOTIFY_PROVIDER" envDefault:"smtp"`
	EmailFrom            string `env:"SMTP_FROM"`
	SMTPHost             string `env:"SMTP_HOST"`
	SMTPPort             int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser             string `env:"SMTP_USER"`
	SMTPPass             string `env:"SMTP_PASS"`
	SMTPSecure           bool   `env:"SMTP_SECURE" envDefault:"false"`
	APIEndpoint          string `env:"MAIL_API_ENDPOINT"`
	APIKey               string `env:"MAIL_API_KEY"`
	InviteTimeoutSeconds int    `env:"NOTIFY_INVITE_TIMEOUT_SECONDS" envDefault:"10"`
	SendTimeoutSeconds   int    `env:"NOTIFY_SEND_TIMEOUT_SECONDS" envDefault:"15"`
}

// Load reads configuration from the environment (and an optional .env file),
// applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return nil, fmt.Errorf("AUTH_JWT_SECRET must not be empty")
	}
	return cfg, nil
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

// IsProduction reports whether the service runs with APP_ENV=prod.
func (a AppConfig) IsProduction() bool {
	return a.Env == "prod"
}

// Frontend returns the base URL used in emailed links.
func (a AppConfig) Frontend() string {
	url := a.FrontendURL
	if a.IsProduction() && a.FrontendURLProd != "" {
		url = a.FrontendURLProd
	}
	return strings.TrimRight(url, "/")
}

// StatusCountsTTL returns how long cached status counts stay valid.
func (r RedisConfig) StatusCountsTTL() time.Duration {
	if r.StatusCountsTTLSecond <= 0 {
		return 30 * time.Second
	}
	return time.Duration(r.StatusCountsTTLSecond) * time.Second
}

// SessionTTL returns the lifetime of issued session tokens.
func (a AuthConfig) SessionTTL() time.Duration {
	return minutesOr(a.AccessTokenTTLMinutes, 24*time.Hour)
}

// ResetTTL returns the lifetime of password reset tokens.
func (a AuthConfig) ResetTTL() time.Duration {
	return minutesOr(a.PasswordResetTTLMinutes, time.Hour)
}

// InvitationTTL returns the lifetime of invitation tokens.
func (a AuthConfig) InvitationTTL() time.Duration {
	if a.InvitationTTLHours <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(a.InvitationTTLHours) * time.Hour
}

// InviteTimeout bounds the synchronous invitation email attempt.
func (n NotificationConfig) InviteTimeout() time.Duration {
	return secondsOr(n.InviteTimeoutSeconds, 10*time.Second)
}

// SendTimeout bounds a single provider send.
func (n NotificationConfig) SendTimeout() time.Duration {
	return secondsOr(n.SendTimeoutSeconds, 15*time.Second)
}

func minutesOr(v int, fallback time.Duration) time.Duration {
	if v <= 0 {
		return fallback
	}
	return time.Duration(v) * time.Minute
}

func secondsOr(v int, fallback time.Duration) time.Duration {
	if v <= 0 {
		return fallback
	}
	return time.Duration(v) * time.Second
}
