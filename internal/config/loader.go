package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/localesync/internal/core"
	"github.com/JonMunkholm/localesync/internal/document"
)

// Load reads configuration. The .env file in the working directory is
// loaded first if present; variables already set in the environment win
// over it. A non-empty profile names a YAML file whose values replace the
// import defaults; environment variables override the profile.
// Returns an error if parsing or validation fails.
func Load(profile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config load: .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if profile != "" {
		if err := LoadProfile(profile, &cfg.Import); err != nil {
			return nil, fmt.Errorf("config load: %w", err)
		}
		// Reapply the environment over the profile. No field carries the
		// "-" tag, so unset variables leave profile values alone.
		if err := env.ParseWithOptions(&cfg.Import, env.Options{DefaultValueTagName: "-"}); err != nil {
			return nil, fmt.Errorf("config load: %w", err)
		}
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = os.Getenv("DB_URL")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Import validation
	if strings.TrimSpace(c.Import.OutputDir) == "" {
		errs = append(errs, "IMPORT_OUTPUT_DIR must not be empty")
	}
	if c.Import.OutputFile == "" || strings.ContainsAny(c.Import.OutputFile, `/\`) {
		errs = append(errs, fmt.Sprintf("IMPORT_OUTPUT_FILE (%q) must be a plain file name", c.Import.OutputFile))
	}
	if c.Import.TranslationKeyColumn == "" {
		errs = append(errs, "IMPORT_KEY_COLUMN must not be empty")
	}
	if _, err := document.Lookup(c.Import.Format); err != nil {
		errs = append(errs, fmt.Sprintf("IMPORT_FORMAT (%q) must be one of: %s",
			c.Import.Format, strings.Join(document.Names(), ", ")))
	}
	if _, err := core.NormalizeEncoding(c.Import.InputEncoding); err != nil {
		errs = append(errs, fmt.Sprintf("IMPORT_INPUT_ENCODING (%q) must be one of: utf-8, latin1, windows-1252",
			c.Import.InputEncoding))
	}
	if c.Import.WriteWorkers <= 0 {
		errs = append(errs, "IMPORT_WRITE_WORKERS must be positive")
	}
	for locale, column := range c.Import.LocaleColumnNames {
		if locale == "" || column == "" {
			errs = append(errs, "IMPORT_LOCALE_COLUMN_NAMES must not contain empty locales or columns")
			break
		}
	}

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.Server.MaxUploadSize <= 0 {
		errs = append(errs, "SERVER_MAX_UPLOAD_SIZE must be positive")
	}
	if c.Server.MaxConcurrentImports <= 0 {
		errs = append(errs, "SERVER_MAX_CONCURRENT_IMPORTS must be positive")
	}
	if c.Server.MaxWaitTime <= 0 {
		errs = append(errs, "SERVER_MAX_WAIT_TIME must be positive")
	}
	if c.Server.RequireAPIKey && len(c.Server.APIKeys) == 0 {
		errs = append(errs, "SERVER_API_KEYS must be set when SERVER_REQUIRE_API_KEY is true")
	}

	// Database validation
	if c.Database.HistoryEnabled() {
		if c.Database.MaxConns <= 0 {
			errs = append(errs, "DB_MAX_CONNS must be positive")
		}
		if c.Database.MinConns < 0 {
			errs = append(errs, "DB_MIN_CONNS must be non-negative")
		}
		if c.Database.MaxConns < c.Database.MinConns {
			errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
				c.Database.MaxConns, c.Database.MinConns))
		}
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
