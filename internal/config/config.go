package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all configuration for the application
type Config struct {
	AppMode    string
	Port       string
	LogLevel   string
	SiteOrigin string
	Storage    StorageConfig
	JWT        JWTConfig
	Cookie     CookieConfig
	Session    SessionConfig
	Password   PasswordConfig
	Cleanup    CleanupConfig
	Seed       SeedConfig
}

// StorageConfig selects and addresses the durable key-value backend
type StorageConfig struct {
	Backend    string
	SQLitePath string
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SSLMode    string
}

// JWTConfig holds the tab token signing settings
type JWTConfig struct {
	Secret string
	TabTTL time.Duration
}

// CookieConfig holds cookie configuration
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

// SessionConfig controls per-tab authentication
type SessionConfig struct {
	Lifetime            time.Duration `env:"SESSION_LIFETIME" envDefault:"8h"`
	IdleTimeout         time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`
	ExpiryCheckSchedule string        `env:"SESSION_CHECK_SCHEDULE" envDefault:"@every 1m"`
	TabIdleTTL          time.Duration `env:"TAB_IDLE_TTL" envDefault:"12h"`
	TabSweepSchedule    string        `env:"TAB_SWEEP_SCHEDULE" envDefault:"@every 10m"`
	LoginPath           string        `env:"LOGIN_PATH" envDefault:"login.html"`
}

// PasswordConfig selects the digest used for new passwords
type PasswordConfig struct {
	Scheme     string `env:"PASSWORD_SCHEME" envDefault:"bcrypt"`
	BcryptCost int    `env:"BCRYPT_COST" envDefault:"12"`
	Salt       string `env:"PASSWORD_SALT" envDefault:"|femboyskirt_salt_2024"`
}

// CleanupConfig holds the data retention thresholds
type CleanupConfig struct {
	Schedule              string        `env:"CLEANUP_SCHEDULE" envDefault:"@every 6h"`
	StartupDelay          time.Duration `env:"CLEANUP_STARTUP_DELAY" envDefault:"2s"`
	ApplicationExpiryDays int           `env:"APPLICATION_EXPIRY_DAYS" envDefault:"30"`
	NotificationRetention time.Duration `env:"NOTIFICATION_RETENTION" envDefault:"720h"`
	NotificationMaxCount  int           `env:"NOTIFICATION_MAX_COUNT" envDefault:"100"`
}

// SeedConfig controls first-start sample data
type SeedConfig struct {
	DefaultUsers bool `env:"SEED_DEFAULT_USERS" envDefault:"true"`
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		logrus.Warn("Warning: .env file not found, using environment variables")
	}

	// Get APP_MODE (default to "dev") - trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	config := &Config{
		AppMode:    appMode,
		Port:       getEnv("PORT", "3000"),
		LogLevel:   getEnv("LOG_LEVEL", defaultLogLevel(appMode)),
		SiteOrigin: getEnv("SITE_ORIGIN", "http://localhost:3000"),
		Storage:    loadStorageConfig(appMode),
		JWT:        loadJWTConfig(appMode),
		Cookie:     loadCookieConfig(appMode),
	}

	if err := ParseEnv(&config.Session); err != nil {
		return nil, err
	}
	if err := ParseEnv(&config.Password); err != nil {
		return nil, err
	}
	if err := ParseEnv(&config.Cleanup); err != nil {
		return nil, err
	}
	if err := ParseEnv(&config.Seed); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Set global config
	AppConfig = config

	logrus.Infof("✅ Configuration loaded successfully [MODE: %s]", appMode)
	return config, nil
}

// ParseEnv fills target from its env struct tags
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate rejects settings the services cannot run with
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendSQLite, BackendMySQL, BackendPostgres, BackendMemory:
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND: '%s'", c.Storage.Backend)
	}
	if c.Session.Lifetime <= 0 {
		return fmt.Errorf("SESSION_LIFETIME must be positive")
	}
	if c.Session.IdleTimeout <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT must be positive")
	}
	if c.Cleanup.ApplicationExpiryDays <= 0 {
		return fmt.Errorf("APPLICATION_EXPIRY_DAYS must be positive")
	}
	if c.IsProd() && c.JWT.Secret == defaultJWTSecret {
		return fmt.Errorf("PROD_JWT_SECRET must be set in prod mode")
	}
	return nil
}

func defaultLogLevel(mode string) string {
	if mode == "prod" {
		return "info"
	}
	return "debug"
}

// loadStorageConfig loads storage config based on mode
func loadStorageConfig(mode string) StorageConfig {
	prefix := modePrefix(mode)
	backend := strings.ToLower(strings.TrimSpace(getEnv("STORAGE_BACKEND", BackendSQLite)))

	defaultPort := "3306"
	if backend == BackendPostgres {
		defaultPort = "5432"
	}

	return StorageConfig{
		Backend:    backend,
		SQLitePath: getEnv(prefix+"SQLITE_PATH", "invite-portal.db"),
		Host:       getEnv(prefix+"DB_HOST", "localhost"),
		Port:       getEnv(prefix+"DB_PORT", defaultPort),
		User:       getEnv(prefix+"DB_USER", "root"),
		Password:   getEnv(prefix+"DB_PASS", ""),
		DBName:     getEnv(prefix+"DB_NAME", "invite_portal"),
		SSLMode:    getEnv(prefix+"DB_SSLMODE", "disable"),
	}
}

const defaultJWTSecret = "default_secret"

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := modePrefix(mode)

	ttlHours, err := strconv.Atoi(getEnv("TAB_TOKEN_HOURS", "24"))
	if err != nil || ttlHours <= 0 {
		ttlHours = 24
	}

	return JWTConfig{
		Secret: getEnv(prefix+"JWT_SECRET", defaultJWTSecret),
		TabTTL: time.Duration(ttlHours) * time.Hour,
	}
}

// loadCookieConfig loads cookie config based on mode
func loadCookieConfig(mode string) CookieConfig {
	prefix := modePrefix(mode)

	secure, _ := strconv.ParseBool(getEnv(prefix+"COOKIE_SECURE", "false"))

	return CookieConfig{
		Secure:   secure,
		SameSite: getEnv("COOKIE_SAMESITE", "lax"),
		Domain:   getEnv("COOKIE_DOMAIN", ""),
	}
}

func modePrefix(mode string) string {
	if mode == "prod" {
		return "PROD_"
	}
	return "DEV_"
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return c.SiteOrigin
	}
	return origins
}
