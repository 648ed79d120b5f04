package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const minJWTSecretLength = 32

// Base holds the settings shared by every binary.
type Base struct {
	Port        string   `envconfig:"PORT"`
	LogLevel    string   `envconfig:"LOG_LEVEL" default:"info"`
	LogMode     string   `envconfig:"LOG_MODE" default:"production"`
	LogFile     string   `envconfig:"LOG_FILE"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`
}

type Redis struct {
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

type Tokens struct {
	JWTSecret         string        `envconfig:"JWT_SECRET"`
	AccessTokenTTL    time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"15m"`
	PlatformAccountID string        `envconfig:"PLATFORM_ACCOUNT_ID"`
}

type AuthConfig struct {
	Base
	Redis
	Tokens

	DatabaseURL        string        `envconfig:"DATABASE_URL"`
	RefreshTokenTTL    time.Duration `envconfig:"REFRESH_TOKEN_TTL" default:"168h"`
	MFATokenTTL        time.Duration `envconfig:"MFA_TOKEN_TTL" default:"5m"`
	MFAIssuer          string        `envconfig:"MFA_ISSUER" default:"Admin Console"`
	MaxFailedLogins    int           `envconfig:"MAX_FAILED_LOGINS" default:"5"`
	LoginRatePerSecond float64       `envconfig:"LOGIN_RATE_PER_SECOND" default:"1"`
	LoginRateBurst     int           `envconfig:"LOGIN_RATE_BURST" default:"5"`
	SessionCleanup     time.Duration `envconfig:"SESSION_CLEANUP_INTERVAL" default:"1h"`
}

type AdminConfig struct {
	Base
	Redis
	Tokens

	DatabaseURL       string        `envconfig:"DATABASE_URL"`
	MediaRoot         string        `envconfig:"MEDIA_ROOT" default:"./data/media"`
	MediaMaxBytes     int64         `envconfig:"MEDIA_MAX_BYTES" default:"10485760"`
	WebhookTimeout    time.Duration `envconfig:"WEBHOOK_TIMEOUT" default:"10s"`
	DashboardCacheTTL time.Duration `envconfig:"DASHBOARD_CACHE_TTL" default:"30s"`
	ConsumerName      string        `envconfig:"CONSUMER_NAME"`
	Version           string        `envconfig:"APP_VERSION" default:"dev"`
}

type GatewayConfig struct {
	Base

	AuthServiceURL  string        `envconfig:"AUTH_SERVICE_URL" default:"http://localhost:8081"`
	AdminServiceURL string        `envconfig:"ADMIN_SERVICE_URL" default:"http://localhost:8082"`
	UpstreamTimeout time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"30s"`
	RatePerSecond   float64       `envconfig:"RATE_PER_SECOND" default:"20"`
	RateBurst       int           `envconfig:"RATE_BURST" default:"40"`
}

func LoadAuth() (*AuthConfig, error) {
	cfg := &AuthConfig{}
	if err := load(cfg); err != nil {
		return nil, err
	}
	if cfg.Port == "" {
		cfg.Port = "8081"
	}
	if err := validateTokens(cfg.Tokens); err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.MaxFailedLogins < 1 {
		return nil, fmt.Errorf("MAX_FAILED_LOGINS must be at least 1, got %d", cfg.MaxFailedLogins)
	}
	return cfg, nil
}

func LoadAdmin() (*AdminConfig, error) {
	cfg := &AdminConfig{}
	if err := load(cfg); err != nil {
		return nil, err
	}
	if cfg.Port == "" {
		cfg.Port = "8082"
	}
	if err := validateTokens(cfg.Tokens); err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.MediaMaxBytes <= 0 {
		return nil, fmt.Errorf("MEDIA_MAX_BYTES must be positive, got %d", cfg.MediaMaxBytes)
	}
	if cfg.ConsumerName == "" {
		host, _ := os.Hostname()
		cfg.ConsumerName = "admin-" + host
	}
	return cfg, nil
}

func LoadGateway() (*GatewayConfig, error) {
	cfg := &GatewayConfig{}
	if err := load(cfg); err != nil {
		return nil, err
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	cfg.AuthServiceURL = strings.TrimSuffix(cfg.AuthServiceURL, "/")
	cfg.AdminServiceURL = strings.TrimSuffix(cfg.AdminServiceURL, "/")
	return cfg, nil
}

// load reads an optional .env file and then the process environment.
func load(cfg any) error {
	_ = godotenv.Load()
	if err := envconfig.Process("", cfg); err != nil {
		return fmt.Errorf("failed to read configuration: %w", err)
	}
	return nil
}

func validateTokens(t Tokens) error {
	if t.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if len(t.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes", minJWTSecretLength)
	}
	if t.AccessTokenTTL <= 0 {
		return errors.New("ACCESS_TOKEN_TTL must be positive")
	}
	return nil
}
