// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for our application
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Security SecurityConfig
	Payment  PaymentConfig
	Shipping ShippingConfig
	Admin    AdminConfig
	Logging  LoggingConfig
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string
	Version     string
	Environment string
	Debug       bool
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig contains database connection configuration
type DatabaseConfig struct {
	Host         string
	Port         string
	Name         string
	User         string
	Password     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
}

// JWTConfig contains JWT token configuration
type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	BcryptCost         int
	RateLimitPerMinute int
	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	CORSAllowedHeaders []string
}

// PaymentConfig contains mobile-wallet gateway and status polling configuration
type PaymentConfig struct {
	JazzCash        JazzCashConfig
	EasyPaisa       EasyPaisaConfig
	HTTPTimeout     time.Duration
	PollInterval    time.Duration
	PollMaxAttempts int
	PinSuffixLength int
}

// JazzCashConfig contains JazzCash gateway credentials
type JazzCashConfig struct {
	BaseURL       string
	MerchantID    string
	Password      string
	IntegritySalt string
}

// EasyPaisaConfig contains EasyPaisa gateway credentials
type EasyPaisaConfig struct {
	BaseURL string
	StoreID string
	HashKey string
}

// ShippingConfig contains shipping fee rules. Amounts are in paisa.
type ShippingConfig struct {
	FlatFee       int64
	FreeThreshold int64
}

// AdminConfig contains back-office login credentials
type AdminConfig struct {
	Email        string
	PasswordHash string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}

	config := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Jewelry Store Backend"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
			Debug:       getEnvAsBool("APP_DEBUG", true),
		},
		Server: ServerConfig{
			Port:         getEnv("APP_PORT", "8080"),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Name:         getEnv("DB_NAME", "jewelry_db"),
			User:         getEnv("DB_USER", "jewelry_user"),
			Password:     getEnv("DB_PASSWORD", "jewelry_password"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 300*time.Second),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 5),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", "your-super-secret-jwt-key-change-in-production"),
			AccessTokenExpiry:  getEnvAsDuration("JWT_ACCESS_EXPIRE", 24*time.Hour),
			RefreshTokenExpiry: getEnvAsDuration("JWT_REFRESH_EXPIRE", 7*24*time.Hour),
		},
		Security: SecurityConfig{
			BcryptCost:         getEnvAsInt("BCRYPT_COST", 12),
			RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 100),
			CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			CORSAllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			CORSAllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Session-ID"}),
		},
		Payment: PaymentConfig{
			JazzCash: JazzCashConfig{
				BaseURL:       getEnv("JAZZCASH_BASE_URL", "https://sandbox.jazzcash.com.pk/ApplicationAPI/API/Payment"),
				MerchantID:    getEnv("JAZZCASH_MERCHANT_ID", ""),
				Password:      getEnv("JAZZCASH_PASSWORD", ""),
				IntegritySalt: getEnv("JAZZCASH_INTEGRITY_SALT", ""),
			},
			EasyPaisa: EasyPaisaConfig{
				BaseURL: getEnv("EASYPAISA_BASE_URL", "https://easypay.easypaisa.com.pk/easypay"),
				StoreID: getEnv("EASYPAISA_STORE_ID", ""),
				HashKey: getEnv("EASYPAISA_HASH_KEY", ""),
			},
			HTTPTimeout:     getEnvAsDuration("PAYMENT_HTTP_TIMEOUT", 30*time.Second),
			PollInterval:    getEnvAsDuration("PAYMENT_POLL_INTERVAL", 3*time.Second),
			PollMaxAttempts: getEnvAsInt("PAYMENT_POLL_MAX_ATTEMPTS", 20),
			PinSuffixLength: getEnvAsInt("PAYMENT_PIN_SUFFIX_LENGTH", 4),
		},
		Shipping: ShippingConfig{
			FlatFee:       getEnvAsInt64("SHIPPING_FLAT_FEE", 15000),        // PKR 150
			FreeThreshold: getEnvAsInt64("SHIPPING_FREE_THRESHOLD", 299900), // PKR 2,999
		},
		Admin: AdminConfig{
			Email:        getEnv("ADMIN_EMAIL", "admin@example.com"),
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "debug"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters long")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}

	if c.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("APP_PORT is required")
	}

	if c.Payment.PollInterval <= 0 {
		return fmt.Errorf("PAYMENT_POLL_INTERVAL must be positive")
	}
	if c.Payment.PollMaxAttempts < 1 {
		return fmt.Errorf("PAYMENT_POLL_MAX_ATTEMPTS must be at least 1")
	}
	if c.Payment.PinSuffixLength < 1 {
		return fmt.Errorf("PAYMENT_PIN_SUFFIX_LENGTH must be at least 1")
	}

	if c.Shipping.FlatFee < 0 {
		return fmt.Errorf("SHIPPING_FLAT_FEE cannot be negative")
	}

	return nil
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
