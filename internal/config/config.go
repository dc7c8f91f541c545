package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	PriceFeed PriceFeedConfig
	Valuation ValuationConfig
	Lifecycle LifecycleConfig
	Sheets    SheetsConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// PriceFeedConfig contains credentials and options for the market price feed.
type PriceFeedConfig struct {
	BaseURL  string
	APIKey   string
	CacheTTL time.Duration
}

// ValuationConfig holds valuation engine settings.
type ValuationConfig struct {
	// CostPerHeadDay is the daily holding cost accrued per head.
	CostPerHeadDay decimal.Decimal
}

// LifecycleConfig holds the nightly lifecycle/snapshot job settings.
type LifecycleConfig struct {
	CronSchedule string
	Timezone     string
}

// SheetsConfig contains configuration for the optional valuation export.
// Leave both fields empty to disable the export.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// Enabled reports whether the sheets export is configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	cacheTTL, err := time.ParseDuration(getenvWithDefault("PRICE_CACHE_TTL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid PRICE_CACHE_TTL: %w", err)
	}

	costPerHeadDay, err := decimal.NewFromString(getenvWithDefault("COST_PER_HEAD_DAY", "0.45"))
	if err != nil {
		return nil, fmt.Errorf("invalid COST_PER_HEAD_DAY: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "grazier"),
		},
		PriceFeed: PriceFeedConfig{
			BaseURL:  getenvWithDefault("PRICE_FEED_BASE_URL", "https://api.livestockprices.com.au/v1"),
			APIKey:   os.Getenv("PRICE_FEED_API_KEY"),
			CacheTTL: cacheTTL,
		},
		Valuation: ValuationConfig{
			CostPerHeadDay: costPerHeadDay,
		},
		Lifecycle: LifecycleConfig{
			CronSchedule: getenvWithDefault("LIFECYCLE_CRON_SCHEDULE", "0 20 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "Australia/Sydney"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_EXPORT_ID"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.MongoDB.URI == "" {
		return errors.New("MONGODB_URI must be provided")
	}
	if c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must be provided")
	}

	if c.PriceFeed.BaseURL == "" {
		return errors.New("PRICE_FEED_BASE_URL must be provided")
	}

	if c.Valuation.CostPerHeadDay.IsNegative() {
		return errors.New("COST_PER_HEAD_DAY must not be negative")
	}

	if c.Lifecycle.CronSchedule == "" {
		return errors.New("LIFECYCLE_CRON_SCHEDULE must be provided")
	}
	if c.Lifecycle.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_EXPORT_ID must be set together")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
