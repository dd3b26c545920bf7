package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"finboard/internal/estimate"

	"golang.org/x/text/language"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendSheets = "sheets"
)

type Config struct {
	// HTTP Server
	Port     string
	LogLevel string

	// LogFormat is "text" or "json"
	LogFormat string

	// Backend selection
	DataBackend string
	// SeedDir holds CSV seed files for the memory backend.
	SeedDir string

	// Database
	SQLiteDBPath string

	// AMQP; an empty URL disables ledger events
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets synced feed
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	GoogleOAuthClientJSON    string
	GoogleOAuthClientFile    string
	GoogleOAuthTokenFile     string
	GoogleTransactionsSheet  string
	GoogleKPISheet           string
	GoogleProjectionsSheet   string
	GooglePayrollSheet       string
	GoogleChannelsSheet      string

	// Reports
	ReportEntityName  string
	ReportCacheSize   int
	ReportCacheTTL    time.Duration
	CollationLanguage string

	// Estimation model
	AttributionAssumedROAS       float64
	AttributionPaidCapShare      float64
	AttributionOrganicFloorShare float64
	AttributionDirectShare       float64
	ConversionVisitMultiplier    float64
	ConversionMinVisits          float64

	// Rate limiting of mutating requests
	RateLimitPerMinute int
}

func Load() *Config {
	m := estimate.DefaultModel()
	return &Config{
		Port:     getEnv("PORT", "8081"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		LogFormat: getEnv("LOG_FORMAT", "text"),

		DataBackend: getEnv("DATA_BACKEND", BackendMemory),
		SeedDir:     getEnv("SEED_DIR", ""),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/finboard.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finboard"),
		AMQPQueue:    getEnv("AMQP_QUEUE", ""),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", getEnv("GOOGLE_APPLICATION_CREDENTIALS", "")),
		GoogleOAuthClientJSON:    getEnv("GOOGLE_OAUTH_CLIENT_JSON", ""),
		GoogleOAuthClientFile:    getEnv("GOOGLE_OAUTH_CLIENT_FILE", ""),
		GoogleOAuthTokenFile:     getEnv("GOOGLE_OAUTH_TOKEN_FILE", ""),
		GoogleTransactionsSheet:  getEnv("GOOGLE_TRANSACTIONS_SHEET", "Transactions"),
		GoogleKPISheet:           getEnv("GOOGLE_KPI_SHEET", "KPIs"),
		GoogleProjectionsSheet:   getEnv("GOOGLE_PROJECTIONS_SHEET", "Projections"),
		GooglePayrollSheet:       getEnv("GOOGLE_PAYROLL_SHEET", "Payroll"),
		GoogleChannelsSheet:      getEnv("GOOGLE_CHANNELS_SHEET", "Channels"),

		ReportEntityName:  getEnv("REPORT_ENTITY_NAME", "Company"),
		ReportCacheSize:   getEnvInt("REPORT_CACHE_SIZE", 64),
		ReportCacheTTL:    getEnvDuration("REPORT_CACHE_TTL", 2*time.Minute),
		CollationLanguage: getEnv("COLLATION_LANGUAGE", "en"),

		AttributionAssumedROAS:       getEnvFloat("ATTRIBUTION_ASSUMED_ROAS", m.AssumedROAS),
		AttributionPaidCapShare:      getEnvFloat("ATTRIBUTION_PAID_CAP_SHARE", m.PaidCapShare),
		AttributionOrganicFloorShare: getEnvFloat("ATTRIBUTION_ORGANIC_FLOOR_SHARE", m.OrganicFloorShare),
		AttributionDirectShare:       getEnvFloat("ATTRIBUTION_DIRECT_SHARE", m.DirectShare),
		ConversionVisitMultiplier:    getEnvFloat("CONVERSION_VISIT_MULTIPLIER", m.VisitMultiplier),
		ConversionMinVisits:          getEnvFloat("CONVERSION_MIN_VISITS", m.MinVisits),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
	}
}

// Model returns the configured estimation model.
func (c *Config) Model() estimate.Model {
	return estimate.Model{
		AssumedROAS:       c.AttributionAssumedROAS,
		PaidCapShare:      c.AttributionPaidCapShare,
		OrganicFloorShare: c.AttributionOrganicFloorShare,
		DirectShare:       c.AttributionDirectShare,
		VisitMultiplier:   c.ConversionVisitMultiplier,
		MinVisits:         c.ConversionMinVisits,
	}
}

// Language returns the collation language, English when unparseable.
func (c *Config) Language() language.Tag {
	tag, err := language.Parse(c.CollationLanguage)
	if err != nil {
		return language.English
	}
	return tag
}

// Level maps LOG_LEVEL to a slog level, Info when unknown.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Validate validates the configuration and returns every problem found.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{BackendMemory, BackendSheets, BackendSQLite}
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == BackendSQLite && c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
	}

	if c.SeedDir != "" {
		if info, err := os.Stat(c.SeedDir); err != nil || !info.IsDir() {
			errors = append(errors, fmt.Sprintf("seed directory does not exist: %s", c.SeedDir))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if c.DataBackend == BackendSheets {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleKPISheet == "" {
			errors = append(errors, "Google KPI sheet name is required when using sheets backend")
		}
		serviceAccount := c.GoogleServiceAccountJSON != "" || c.GoogleServiceAccountFile != ""
		oauth := (c.GoogleOAuthClientJSON != "" || c.GoogleOAuthClientFile != "") && c.GoogleOAuthTokenFile != ""
		if !serviceAccount && !oauth {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or an OAuth client with GOOGLE_OAUTH_TOKEN_FILE must be provided for sheets backend")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if strings.TrimSpace(c.ReportEntityName) == "" {
		errors = append(errors, "report entity name cannot be empty")
	}
	if c.ReportCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid report cache size %d: must be at least 1", c.ReportCacheSize))
	}
	if c.ReportCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid report cache TTL %v: must be at least 1 second", c.ReportCacheTTL))
	}
	if _, err := language.Parse(c.CollationLanguage); err != nil {
		errors = append(errors, fmt.Sprintf("invalid collation language '%s': %v", c.CollationLanguage, err))
	}
	if err := c.Model().Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid estimation model: %v", err))
	}
	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 per minute", c.RateLimitPerMinute))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
