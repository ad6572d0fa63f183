package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	Xendit   XenditConfig
	Billing  BillingConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret            string
	RefreshExpiration string
	AccessExpiration  string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
}

type XenditConfig struct {
	APIKey        string
	CallbackToken string
	SuccessURL    string
	FailureURL    string
}

// BillingConfig holds the knobs of the billing engine.
type BillingConfig struct {
	DueDay       int
	Workers      int
	Currency     string
	AutoGenerate bool
}

func Load() (*Config, error) {
	// .env is optional; real deployments inject environment variables directly.
	_ = godotenv.Load()

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "club-billing"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:            getEnv("JWT_SECRET_KEY", ""),
		RefreshExpiration: getEnv("JWT_REFRESH_EXPIRATION_TIME", "168h"),
		AccessExpiration:  getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Xendit payment gateway configuration
	config.Xendit = XenditConfig{
		APIKey:        getEnv("XENDIT_API_KEY", ""),
		CallbackToken: getEnv("XENDIT_CALLBACK_TOKEN", ""),
		SuccessURL:    getEnv("XENDIT_SUCCESS_URL", ""),
		FailureURL:    getEnv("XENDIT_FAILURE_URL", ""),
	}

	// Billing configuration
	dueDay, err := strconv.Atoi(getEnv("BILLING_DUE_DAY", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid BILLING_DUE_DAY: %w", err)
	}

	workers, err := strconv.Atoi(getEnv("BILLING_WORKERS", "8"))
	if err != nil {
		return nil, fmt.Errorf("invalid BILLING_WORKERS: %w", err)
	}

	autoGenerate, err := strconv.ParseBool(getEnv("BILLING_AUTO_GENERATE", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid BILLING_AUTO_GENERATE: %w", err)
	}

	config.Billing = BillingConfig{
		DueDay:       dueDay,
		Workers:      workers,
		Currency:     getEnv("BILLING_CURRENCY", "ZAR"),
		AutoGenerate: autoGenerate,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Billing.DueDay < 1 || c.Billing.DueDay > 31 {
		return fmt.Errorf("BILLING_DUE_DAY must be between 1 and 31")
	}
	if c.Billing.Workers < 1 {
		return fmt.Errorf("BILLING_WORKERS must be at least 1")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
