package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Supported database drivers
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Shift    ShiftConfig
	Logging  LoggingConfig
	Events   EventsConfig

	// loadErr collects values that were set but could not be parsed
	loadErr error
}

// ServerConfig holds the server configuration
type ServerConfig struct {
	Port int
}

// DatabaseConfig holds the database configuration
type DatabaseConfig struct {
	Driver     string
	SQLitePath string
	Host       string
	Port       int
	Username   string
	Password   string
	DBName     string
	SSLMode    string
}

// AuthConfig holds the authentication configuration
type AuthConfig struct {
	JWTSecret string
}

// ShiftConfig holds cash shift reconciliation settings
type ShiftConfig struct {
	// ExactTolerance is the absolute difference still classified as "exact"
	ExactTolerance decimal.Decimal
	// Timezone names the location used to decide which business day a sale belongs to
	Timezone string
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string
	Format string
}

// EventsConfig holds the optional message broker settings.
// An empty AMQPURL disables event publishing.
type EventsConfig struct {
	AMQPURL  string
	Exchange string
}

// GetDSN returns the database connection string for the configured driver
func (c *DatabaseConfig) GetDSN() string {
	if c.Driver == DriverSQLite {
		return c.SQLitePath
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.Username, c.Password, c.DBName, c.SSLMode,
	)
}

// Location resolves the configured business-day timezone
func (c *ShiftConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// LoadConfig loads the configuration from environment variables
func LoadConfig() *Config {
	env := &envReader{}
	cfg := &Config{
		Server: ServerConfig{
			Port: env.getInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", DriverSQLite),
			SQLitePath: getEnv("DB_SQLITE_PATH", "pos.db"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       env.getInt("DB_PORT", 5432),
			Username:   getEnv("DB_USERNAME", "postgres"),
			Password:   getEnv("DB_PASSWORD", "password"),
			DBName:     getEnv("DB_NAME", "pos"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "your-secret-key-here"),
		},
		Shift: ShiftConfig{
			ExactTolerance: env.getDecimal("SHIFT_EXACT_TOLERANCE", decimal.NewFromFloat(0.01)),
			Timezone:       getEnv("SHIFT_TIMEZONE", "Local"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Events: EventsConfig{
			AMQPURL:  getEnv("AMQP_URL", ""),
			Exchange: getEnv("AMQP_EXCHANGE", "pos.events"),
		},
	}
	cfg.loadErr = errors.Join(env.errs...)

	return cfg
}

// Validate checks the loaded values so the server fails fast on misconfiguration
func (c *Config) Validate() error {
	if c.loadErr != nil {
		return c.loadErr
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			return errors.New("DB_SQLITE_PATH is required for the sqlite3 driver")
		}
	case DriverPostgres:
		if c.Database.Host == "" || c.Database.DBName == "" {
			return errors.New("DB_HOST and DB_NAME are required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	if c.Shift.ExactTolerance.IsNegative() {
		return fmt.Errorf("SHIFT_EXACT_TOLERANCE must not be negative, got %s", c.Shift.ExactTolerance)
	}

	if _, err := c.Shift.Location(); err != nil {
		return fmt.Errorf("invalid SHIFT_TIMEZONE: %w", err)
	}

	return nil
}

// Helper functions to read environment variables
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// envReader parses typed variables, keeping the default and recording an
// error when a variable is set to something unparseable
type envReader struct {
	errs []error
}

func (r *envReader) getInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s must be an integer, got %q", key, valueStr))
		return defaultValue
	}
	return value
}

func (r *envReader) getDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value, err := decimal.NewFromString(valueStr)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s must be a decimal number, got %q", key, valueStr))
		return defaultValue
	}
	return value
}
