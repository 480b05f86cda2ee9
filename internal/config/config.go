package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Port     int
	LogLevel string
	LogDir   string
	APIKey   string // API key for authentication

	// Broker credentials. All three are required; the service cannot
	// issue connect tokens without them.
	BrokerAPIHost      string
	BrokerProjectID    string
	BrokerClientID     string
	BrokerClientSecret string
	BrokerEnvironment  string

	// TrustedProxies is a comma-separated list of CIDR ranges whose
	// X-Forwarded-For headers are honored for client IP logging.
	TrustedProxies []string

	// CatalogPageSize is the number of results shown per search page
	CatalogPageSize int

	// Event publishing. Zero values fall back to bootstrap defaults.
	EventMaxRetries     int
	EventRetryDelay     time.Duration
	EventDeadLetterPath string
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:           getEnv("LOG_LEVEL", "INFO"),
		LogDir:             getEnv("LOG_DIR", "logs"),
		APIKey:             getEnv("API_KEY", ""),
		BrokerAPIHost:      getEnv("BROKER_API_HOST", "https://api.pipedream.com"),
		BrokerProjectID:    getEnv("BROKER_PROJECT_ID", ""),
		BrokerClientID:     getEnv("BROKER_CLIENT_ID", ""),
		BrokerClientSecret: getEnv("BROKER_CLIENT_SECRET", ""),
		BrokerEnvironment:  getEnv("BROKER_ENVIRONMENT", "development"),
	}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT value: %w", err)
	}
	cfg.Port = port

	pageSizeStr := getEnv("CATALOG_PAGE_SIZE", "10")
	pageSize, err := strconv.Atoi(pageSizeStr)
	if err != nil || pageSize <= 0 {
		return nil, fmt.Errorf("invalid CATALOG_PAGE_SIZE value: %q", pageSizeStr)
	}
	cfg.CatalogPageSize = pageSize

	if retriesStr := getEnv("EVENT_MAX_RETRIES", ""); retriesStr != "" {
		retries, err := strconv.Atoi(retriesStr)
		if err != nil {
			return nil, fmt.Errorf("invalid EVENT_MAX_RETRIES value: %w", err)
		}
		cfg.EventMaxRetries = retries
	}

	if delayStr := getEnv("EVENT_RETRY_DELAY", ""); delayStr != "" {
		delay, err := time.ParseDuration(delayStr)
		if err != nil {
			return nil, fmt.Errorf("invalid EVENT_RETRY_DELAY value: %w", err)
		}
		cfg.EventRetryDelay = delay
	}

	cfg.EventDeadLetterPath = getEnv("EVENT_DEADLETTER_PATH", "")

	if proxies := getEnv("TRUSTED_PROXIES", ""); proxies != "" {
		for _, p := range strings.Split(proxies, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.TrustedProxies = append(cfg.TrustedProxies, p)
			}
		}
	}

	// Validate API key is set
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API_KEY environment variable must be set for security")
	}

	if err := cfg.validateBroker(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateBroker checks that the broker credential trio is complete.
// A partial set is always a deployment mistake, so report every missing
// variable at once instead of failing one at a time.
func (c *Config) validateBroker() error {
	var missing []string
	if c.BrokerProjectID == "" {
		missing = append(missing, "BROKER_PROJECT_ID")
	}
	if c.BrokerClientID == "" {
		missing = append(missing, "BROKER_CLIENT_ID")
	}
	if c.BrokerClientSecret == "" {
		missing = append(missing, "BROKER_CLIENT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
