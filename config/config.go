package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"absbot/database"

	"github.com/robfig/cron/v3"
)

// DefaultConfigFile is read when CONFIG_FILE is not set; it may be absent
const DefaultConfigFile = "./config.toml"

// DefaultCallTimeout bounds each registry and Discord API call
const DefaultCallTimeout = 10 * time.Second

// DefaultSendRatePerSec paces outbound Discord calls
const DefaultSendRatePerSec = 5

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken string

	// Storage configuration
	StorageDriver string // "sqlite", "postgres" or "memory"
	DBPath        string // sqlite file
	DatabaseURL   string // postgres server URL
	DatabaseName  string // postgres database name

	// Per-call deadline for registry and Discord API calls
	CallTimeout time.Duration

	// Outbound Discord calls per second; zero disables client-side limiting
	SendRatePerSec int

	// Cron schedule for the stale binding audit; empty disables it
	AuditSchedule string

	// NATS configuration; empty disables event forwarding
	NATSServers string

	// Debug HTTP API listen address; empty disables it
	DebugAPIAddr string

	// OpenTelemetry metrics
	OTelEnabled  bool
	OTelEndpoint string // OTLP gRPC endpoint; empty writes metrics to stdout

	// Logging
	LogLevel  string
	LogFormat string // "text" or "json"

	// Environment
	Environment string // "development", "production" or "test"

	// ConfigFile is the file the values were overlaid from, if any
	ConfigFile string
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// load builds the configuration from defaults, then the optional config file,
// then environment variables. Environment always wins.
func load() (*Config, error) {
	config := &Config{
		StorageDriver:  database.DriverSQLite,
		DBPath:         database.DefaultSQLitePath,
		CallTimeout:    DefaultCallTimeout,
		SendRatePerSec: DefaultSendRatePerSec,
		LogLevel:       "info",
		LogFormat:      "text",
	}

	path := os.Getenv("CONFIG_FILE")
	required := path != ""
	if !required {
		path = DefaultConfigFile
	}
	if err := applyFile(config, path, required); err != nil {
		return nil, err
	}

	if err := applyEnv(config); err != nil {
		return nil, err
	}

	if config.Environment == "" {
		config.Environment = "development"
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnv overrides config with any environment variables that are set
func applyEnv(config *Config) error {
	setString(&config.DiscordToken, "DISCORD_TOKEN")
	setString(&config.StorageDriver, "STORAGE_DRIVER")
	setString(&config.DBPath, "DB_PATH")
	setString(&config.DatabaseURL, "DATABASE_URL")
	setString(&config.DatabaseName, "DATABASE_NAME")
	setString(&config.AuditSchedule, "AUDIT_SCHEDULE")
	setString(&config.NATSServers, "NATS_SERVERS")
	setString(&config.DebugAPIAddr, "DEBUG_API_ADDR")
	setString(&config.OTelEndpoint, "OTEL_ENDPOINT")
	setString(&config.LogLevel, "LOG_LEVEL")
	setString(&config.LogFormat, "LOG_FORMAT")
	setString(&config.Environment, "ENVIRONMENT")

	if v := os.Getenv("OTEL_ENABLED"); v != "" {
		config.OTelEnabled = v == "true" || v == "1"
	}

	if v := os.Getenv("SEND_RATE_PER_SEC"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SEND_RATE_PER_SEC %q: %w", v, err)
		}
		config.SendRatePerSec = n
	}

	if v := os.Getenv("CALL_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CALL_TIMEOUT %q: %w", v, err)
		}
		config.CallTimeout = d
	}

	config.StorageDriver = strings.ToLower(strings.TrimSpace(config.StorageDriver))
	return nil
}

func (c *Config) validate() error {
	switch c.StorageDriver {
	case database.DriverSQLite:
		if strings.TrimSpace(c.DBPath) == "" {
			return fmt.Errorf("DB_PATH cannot be empty for sqlite storage")
		}
	case database.DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for postgres storage")
		}
	case database.DriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	if c.CallTimeout <= 0 {
		return fmt.Errorf("CALL_TIMEOUT must be positive")
	}

	if c.SendRatePerSec < 0 {
		return fmt.Errorf("SEND_RATE_PER_SEC cannot be negative")
	}

	if c.AuditSchedule != "" {
		if _, err := cron.ParseStandard(c.AuditSchedule); err != nil {
			return fmt.Errorf("invalid AUDIT_SCHEDULE %q: %w", c.AuditSchedule, err)
		}
	}

	if c.Environment != "test" && c.DiscordToken == "" {
		return fmt.Errorf("DISCORD_TOKEN is required")
	}

	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		DiscordToken:  "test-token",
		StorageDriver: database.DriverMemory,
		CallTimeout:   time.Second,
		LogLevel:      "debug",
		LogFormat:     "text",
		Environment:   "test",
	}
}
