// Package config provides centralized configuration management for localesync.
// Settings come from defaults, an optional YAML profile, environment variables
// (including a .env file) and command-line flags, in increasing precedence.
// Everything is validated on startup to fail fast on misconfiguration.
package config

import (
	"encoding/json"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/localesync/internal/core"
)

// Config holds all application configuration.
type Config struct {
	Import   ImportConfig
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
}

// ImportConfig holds the settings of one import run. It is the only section
// a YAML profile may set.
type ImportConfig struct {
	// InputFile is the CSV export to import (required for the import command)
	InputFile string `env:"IMPORT_INPUT_FILE" yaml:"inputFile"`

	// OutputDir holds one subdirectory per locale (default: app/locales/)
	OutputDir string `env:"IMPORT_OUTPUT_DIR" envDefault:"app/locales/" yaml:"outputDir"`

	// OutputFile is the document name inside each locale directory (default: translations.js)
	OutputFile string `env:"IMPORT_OUTPUT_FILE" envDefault:"translations.js" yaml:"outputFile"`

	// TranslationKeyColumn is the CSV header holding the dotted keys (default: SYSTEM_KEY)
	TranslationKeyColumn string `env:"IMPORT_KEY_COLUMN" envDefault:"SYSTEM_KEY" yaml:"translationKeyColumnName"`

	// LocaleColumnNames maps locales to CSV headers, as a JSON object in the environment
	LocaleColumnNames ColumnMap `env:"IMPORT_LOCALE_COLUMN_NAMES" yaml:"localeColumnNames"`

	// ExcludedLocales are never written (comma-separated)
	ExcludedLocales []string `env:"IMPORT_EXCLUDED_LOCALES" envSeparator:"," yaml:"excludedLocales"`

	// Format is the document format: js, json, yaml or toml (default: js)
	Format string `env:"IMPORT_FORMAT" envDefault:"js" yaml:"format"`

	// InputEncoding is utf-8, latin1 or windows-1252 (default: utf-8)
	InputEncoding string `env:"IMPORT_INPUT_ENCODING" envDefault:"utf-8" yaml:"inputEncoding"`

	// SkipEmptyValues keeps existing values when a cell is empty (default: false)
	SkipEmptyValues bool `env:"IMPORT_SKIP_EMPTY_VALUES" yaml:"skipEmptyValues"`

	// DryRun renders without writing (default: false)
	DryRun bool `env:"IMPORT_DRY_RUN" yaml:"dryRun"`

	// WriteWorkers bounds parallel locale writes (default: 1)
	WriteWorkers int `env:"IMPORT_WRITE_WORKERS" envDefault:"1" yaml:"writeWorkers"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" envDefault:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envDefault:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// MaxUploadSize is the largest accepted CSV upload in bytes (default: 32MB)
	MaxUploadSize int64 `env:"SERVER_MAX_UPLOAD_SIZE" envDefault:"33554432"`

	// MaxConcurrentImports caps parallel imports across output directories (default: 2)
	MaxConcurrentImports int `env:"SERVER_MAX_CONCURRENT_IMPORTS" envDefault:"2"`

	// MaxWaitTime is how long an import waits for a slot (default: 30s)
	MaxWaitTime time.Duration `env:"SERVER_MAX_WAIT_TIME" envDefault:"30s"`

	// RequireAPIKey protects the import endpoints with X-API-Key (default: false)
	RequireAPIKey bool `env:"SERVER_REQUIRE_API_KEY"`

	// APIKeys lists the accepted keys, comma-separated
	APIKeys []string `env:"SERVER_API_KEYS" envSeparator:","`

	// TrustedProxies lists CIDRs whose X-Real-IP/X-Forwarded-For headers are honored
	TrustedProxies []string `env:"SERVER_TRUSTED_PROXIES" envSeparator:","`
}

// DatabaseConfig holds the optional history database settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string; history is disabled when empty.
	// DB_URL is accepted as a fallback.
	URL string `env:"DATABASE_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" envDefault:"4"`

	// MinConns is the minimum number of connections to keep open (default: 0)
	MinConns int `env:"DB_MIN_CONNS" envDefault:"0"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`

	// Migrate applies pending schema migrations on startup (default: true)
	Migrate bool `env:"DB_MIGRATE" envDefault:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" envDefault:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// ColumnMap maps a locale to the CSV header holding its values. Its text
// form is a JSON object such as {"en":"ENGLISH"}.
type ColumnMap map[string]string

// UnmarshalText parses a JSON object. Empty text yields an empty map.
func (m *ColumnMap) UnmarshalText(text []byte) error {
	out := ColumnMap{}
	if strings.TrimSpace(string(text)) != "" {
		if err := json.Unmarshal(text, (*map[string]string)(&out)); err != nil {
			return fmt.Errorf("locale column names: %w", err)
		}
	}
	*m = out
	return nil
}

// String renders the map as JSON with sorted keys.
func (m ColumnMap) String() string {
	if len(m) == 0 {
		return "{}"
	}
	data, _ := json.Marshal(map[string]string(m))
	return string(data)
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// HistoryEnabled reports whether a history database is configured.
func (c *DatabaseConfig) HistoryEnabled() bool {
	return c.URL != ""
}

// Options converts the import section into run options.
func (c *ImportConfig) Options() core.Options {
	aliases := make(core.AliasMap, len(c.LocaleColumnNames))
	for locale, column := range c.LocaleColumnNames {
		aliases[locale] = column
	}
	return core.Options{
		InputFile:            c.InputFile,
		OutputDir:            c.OutputDir,
		OutputFile:           c.OutputFile,
		TranslationKeyColumn: c.TranslationKeyColumn,
		LocaleColumnNames:    aliases,
		ExcludedLocales:      cleanLocales(c.ExcludedLocales),
		Format:               c.Format,
		InputEncoding:        c.InputEncoding,
		SkipEmptyValues:      c.SkipEmptyValues,
		DryRun:               c.DryRun,
		WriteWorkers:         c.WriteWorkers,
	}
}

// String returns a safe string representation of the config for logging.
// Sensitive values like database URLs are masked.
func (c *Config) String() string {
	dbURL := "disabled"
	if c.Database.URL != "" {
		dbURL = "[MASKED]"
	}

	excluded := append([]string(nil), c.Import.ExcludedLocales...)
	sort.Strings(excluded)

	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Import: {OutputDir: %q, OutputFile: %q, KeyColumn: %q, Format: %q, Excluded: %v}, ",
		c.Import.OutputDir, c.Import.OutputFile, c.Import.TranslationKeyColumn, c.Import.Format, excluded)
	fmt.Fprintf(&b, "Server: {Host: %q, Port: %d, MaxUploadSize: %d}, ",
		c.Server.Host, c.Server.Port, c.Server.MaxUploadSize)
	fmt.Fprintf(&b, "Database: {URL: %s, MaxConns: %d, MinConns: %d}, ",
		dbURL, c.Database.MaxConns, c.Database.MinConns)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}
