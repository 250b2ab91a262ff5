// Package config loads process configuration from the environment and the
// catalog of currencies, corridors and partners from YAML.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config stores all configuration for the service.
// The values are read by viper from the environment (after LoadEnv has
// folded any .env file into it).
type Config struct {
	Env        string `mapstructure:"ENV"`
	ServerPort string `mapstructure:"SERVER_PORT"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`

	// Storage selects the repository backend: "postgres" or "memory".
	Storage    string `mapstructure:"STORAGE"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`

	RedisHost     string `mapstructure:"REDIS_HOST"`
	RedisPort     string `mapstructure:"REDIS_PORT"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	RabbitMQURL string `mapstructure:"RABBITMQ_URL"`

	StripeSecretKey string `mapstructure:"STRIPE_SECRET_KEY"`
	// PaymentVerifier selects "stripe" or "static".
	PaymentVerifier string `mapstructure:"PAYMENT_VERIFIER"`

	JWTSecret   string `mapstructure:"JWT_SECRET"`
	CORSOrigins string `mapstructure:"CORS_ORIGINS"`

	RateStaleness       time.Duration `mapstructure:"RATE_STALENESS"`
	RateRefreshSchedule string        `mapstructure:"RATE_REFRESH_SCHEDULE"`
	RateProviderURL     string        `mapstructure:"RATE_PROVIDER_URL"`
	RateProviderRPS     float64       `mapstructure:"RATE_PROVIDER_RPS"`

	// TaxReportingThreshold is in USD; send amounts are converted first.
	ComplianceCheckTimeout time.Duration `mapstructure:"COMPLIANCE_CHECK_TIMEOUT"`
	TaxReportingThreshold  float64       `mapstructure:"TAX_REPORTING_THRESHOLD"`

	// PartnerGateway selects "http" or "simulated".
	PartnerGateway string        `mapstructure:"PARTNER_GATEWAY"`
	PartnerTimeout time.Duration `mapstructure:"PARTNER_TIMEOUT"`

	ReportCacheTTL time.Duration `mapstructure:"REPORT_CACHE_TTL"`
	CatalogPath    string        `mapstructure:"CATALOG_PATH"`
}

var defaults = map[string]interface{}{
	"ENV":                      "development",
	"SERVER_PORT":              "3000",
	"LOG_LEVEL":                "info",
	"STORAGE":                  "postgres",
	"DB_HOST":                  "localhost",
	"DB_PORT":                  "5432",
	"DB_USER":                  "postgres",
	"DB_PASSWORD":              "postgres",
	"DB_NAME":                  "remit",
	"DB_SSLMODE":               "disable",
	"REDIS_HOST":               "localhost",
	"REDIS_PORT":               "6379",
	"REDIS_PASSWORD":           "",
	"REDIS_DB":                 0,
	"RABBITMQ_URL":             "",
	"STRIPE_SECRET_KEY":        "",
	"PAYMENT_VERIFIER":         "static",
	"JWT_SECRET":               "remit-secret",
	"CORS_ORIGINS":             "http://localhost:5173",
	"RATE_STALENESS":           "5m",
	"RATE_REFRESH_SCHEDULE":    "@every 5m",
	"RATE_PROVIDER_URL":        "",
	"RATE_PROVIDER_RPS":        5.0,
	"COMPLIANCE_CHECK_TIMEOUT": "3s",
	"TAX_REPORTING_THRESHOLD":  10000.0,
	"PARTNER_GATEWAY":          "simulated",
	"PARTNER_TIMEOUT":          "10s",
	"REPORT_CACHE_TTL":         "15m",
	"CATALOG_PATH":             "config/catalog.yaml",
}

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found: %v", err)
	}
}

// Load reads configuration from environment variables, falling back to defaults.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Storage {
	case "postgres", "memory":
	default:
		return fmt.Errorf("STORAGE must be postgres or memory, got %q", c.Storage)
	}
	if c.RateStaleness <= 0 {
		return fmt.Errorf("RATE_STALENESS must be positive")
	}
	if c.ComplianceCheckTimeout <= 0 || c.PartnerTimeout <= 0 {
		return fmt.Errorf("COMPLIANCE_CHECK_TIMEOUT and PARTNER_TIMEOUT must be positive")
	}
	return nil
}

// DSN returns the Postgres connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

// IsProduction checks if the app runs in production mode.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
