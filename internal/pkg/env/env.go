package env

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2/log"
	"github.com/joho/godotenv"
)

var Env map[string]string

func GetEnv(key, def string) string {
	// First check our loaded Env map
	if val, ok := Env[key]; ok {
		return val
	}
	// Fallback to OS environment variables (for Docker/tests)
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// SetupEnvFile loads the first .env file found. Without one the process
// environment is used as is.
func SetupEnvFile() {
	envFiles := []string{
		".env",          // Current directory
		"../../.env",    // From cmd/dealerhub to project root
		"../../../.env", // Fallback for deeper nesting
	}

	for _, envFile := range envFiles {
		vals, err := godotenv.Read(envFile)
		if err == nil {
			Env = vals
			log.Infof("[Env] Loaded %s", envFile)
			return
		}
	}
	log.Info("[Env] No .env file found, using process environment")
}

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Config is the typed runtime configuration of the service.
type Config struct {
	AppHost string `validate:"required"`
	AppPort string `validate:"required,numeric"`

	StripeSecretKey     string `validate:"required"`
	StripeWebhookSecret string `validate:"required"`

	DBDriver   string `validate:"required,oneof=mysql sqlite"`
	DBUser     string `validate:"required_if=DBDriver mysql"`
	DBPassword string
	DBHost     string `validate:"required_if=DBDriver mysql"`
	DBPort     string `validate:"omitempty,numeric"`
	DBName     string `validate:"required_if=DBDriver mysql"`
	DBPath     string `validate:"required_if=DBDriver sqlite"`

	CacheHost     string
	CachePort     string `validate:"omitempty,numeric"`
	CachePassword string

	WebhookTolerance time.Duration `validate:"gt=0"`
	StoreTimeout     time.Duration `validate:"gt=0"`
	WebhookRateLimit int           `validate:"gt=0"`

	MetricsUser     string
	MetricsPassword string `validate:"required_with=MetricsUser"`
}

// CacheEnabled reports whether a Redis compatible cache was configured.
func (c *Config) CacheEnabled() bool {
	return c.CacheHost != ""
}

func (c *Config) CacheAddr() string {
	return fmt.Sprintf("%s:%s", c.CacheHost, c.CachePort)
}

func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%s", c.AppHost, c.AppPort)
}

var configValidator = validator.New()

// Load reads the configuration from the loaded .env values and the process
// environment and validates it.
func Load() (*Config, error) {
	tolerance, err := durationEnv("WEBHOOK_TOLERANCE", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	storeTimeout, err := durationEnv("STORE_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	rateLimit, err := strconv.Atoi(GetEnv("WEBHOOK_RATE_LIMIT", "120"))
	if err != nil {
		return nil, fmt.Errorf("WEBHOOK_RATE_LIMIT: %w", err)
	}

	cfg := &Config{
		AppHost:             GetEnv("APP_HOST", "localhost"),
		AppPort:             GetEnv("APP_PORT", "4000"),
		StripeSecretKey:     GetEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: GetEnv("STRIPE_WEBHOOK_SECRET", ""),
		DBDriver:            GetEnv("DB_DRIVER", DriverMySQL),
		DBUser:              GetEnv("DB_USER", ""),
		DBPassword:          GetEnv("DB_PASSWORD", ""),
		DBHost:              GetEnv("DB_HOST", "127.0.0.1"),
		DBPort:              GetEnv("DB_PORT", "3306"),
		DBName:              GetEnv("DB_NAME", ""),
		DBPath:              GetEnv("DB_PATH", ""),
		CacheHost:           GetEnv("CACHE_HOST", ""),
		CachePort:           GetEnv("CACHE_PORT", "6379"),
		CachePassword:       GetEnv("CACHE_PASSWORD", ""),
		WebhookTolerance:    tolerance,
		StoreTimeout:        storeTimeout,
		WebhookRateLimit:    rateLimit,
		MetricsUser:         GetEnv("METRICS_USER", ""),
		MetricsPassword:     GetEnv("METRICS_PASSWORD", ""),
	}

	if err := configValidator.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// durationEnv accepts Go durations ("90s") and plain seconds ("90").
func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := GetEnv(key, "")
	if raw == "" {
		return def, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
