// Package config provides centralized configuration management for the
// row service and the gridview client. It loads configuration from
// environment variables with sensible defaults and validates all settings
// on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Import   ImportConfig
	Rows     RowsConfig
	Grid     GridConfig
	Client   ClientConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 0 for streamed exports)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for JSON requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds database connection settings.
// URL is only required by the row service; see RequireDatabase.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 20)
	MaxConns int `env:"DB_MAX_CONNS" default:"20"`

	// MinConns is the minimum number of connections to keep open (default: 4)
	MinConns int `env:"DB_MIN_CONNS" default:"4"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// ImportConfig holds CSV import settings.
type ImportConfig struct {
	// MaxFileSize is the maximum size of one uploaded file in bytes (default: 100MB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"104857600"`

	// MaxFiles is the maximum number of files combined into one import (default: 20)
	MaxFiles int `env:"IMPORT_MAX_FILES" default:"20"`

	// MaxConcurrent is the maximum number of parallel imports (default: 5)
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long to wait for an import slot (default: 30s)
	MaxWaitTime time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"30s"`

	// BatchSize is the number of rows copied per batch (default: 1000)
	BatchSize int `env:"IMPORT_BATCH_SIZE" default:"1000"`

	// Timeout is the maximum duration for a single import (default: 10m)
	Timeout time.Duration `env:"IMPORT_TIMEOUT" default:"10m"`
}

// RowsConfig holds row query settings.
type RowsConfig struct {
	// DefaultPageSize is used when a request omits page_size (default: 100)
	DefaultPageSize int `env:"ROWS_DEFAULT_PAGE_SIZE" default:"100"`

	// MaxPageSize bounds page_size (default: 1000)
	MaxPageSize int `env:"ROWS_MAX_PAGE_SIZE" default:"1000"`

	// QueryTimeout bounds a single page or search query (default: 30s)
	QueryTimeout time.Duration `env:"ROWS_QUERY_TIMEOUT" default:"30s"`
}

// GridConfig holds table presentation settings shared by every front end.
type GridConfig struct {
	// RenderCeiling is the maximum number of rows rendered at once (default: 500)
	RenderCeiling int `env:"GRID_RENDER_CEILING" default:"500"`

	// ColumnCap is the maximum number of columns selected by default (default: 100)
	ColumnCap int `env:"GRID_COLUMN_CAP" default:"100"`

	// GroupKey is the column rows are grouped by
	GroupKey string `env:"GRID_GROUP_KEY" default:"practitionerInformation_practitionerId"`

	// Locale drives sort collation, as a BCP 47 tag (default: und)
	Locale string `env:"GRID_LOCALE" default:"und"`

	// PageSize is the client page size (default: 100)
	PageSize int `env:"GRID_PAGE_SIZE" default:"100"`
}

// ClientConfig holds settings for talking to a remote row service.
type ClientConfig struct {
	// BaseURL is the row service address (default: http://localhost:8080)
	BaseURL string `env:"GRIDVIEW_BASE_URL" default:"http://localhost:8080"`

	// Timeout bounds each JSON request (default: 30s)
	Timeout time.Duration `env:"GRIDVIEW_TIMEOUT" default:"30s"`

	// APIKey is sent as X-API-Key when set
	APIKey string `env:"GRIDVIEW_API_KEY"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey enables X-API-Key checks on /api routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
