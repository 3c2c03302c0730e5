package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// Command-line flag names. They keep the camelCase spelling of the
// long-standing import options.
const (
	FlagConfig            = "config"
	FlagInputFile         = "inputFile"
	FlagOutputDir         = "outputDir"
	FlagOutputFile        = "outputFile"
	FlagKeyColumn         = "translationKeyColumnName"
	FlagLocaleColumnNames = "localeColumnNames"
	FlagExcludedLocales   = "excludedLocales"
	FlagFormat            = "format"
	FlagInputEncoding     = "inputEncoding"
	FlagSkipEmptyValues   = "skipEmptyValues"
	FlagDryRun            = "dryRun"
	FlagWriteWorkers      = "writeWorkers"
)

// RegisterFlags defines the import flags on fs. Flag defaults are only
// shown in help text; a flag overrides other sources only when given.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(FlagConfig, "", "YAML profile with import settings")
	fs.String(FlagInputFile, "", "CSV export to import (required)")
	fs.String(FlagOutputDir, "app/locales/", "directory holding one subdirectory per locale")
	fs.String(FlagOutputFile, "translations.js", "document name inside each locale directory")
	fs.String(FlagKeyColumn, "SYSTEM_KEY", "CSV header holding the translation keys")
	fs.String(FlagLocaleColumnNames, "{}", `JSON object mapping locales to CSV headers, e.g. {"en":"ENGLISH"}`)
	fs.StringSlice(FlagExcludedLocales, nil, "comma-separated locales that are never written")
	fs.String(FlagFormat, "js", "document format: js, json, yaml or toml")
	fs.String(FlagInputEncoding, "utf-8", "input encoding: utf-8, latin1 or windows-1252")
	fs.Bool(FlagSkipEmptyValues, false, "keep existing values when a cell is empty")
	fs.Bool(FlagDryRun, false, "reconcile and render without writing any file")
	fs.Int(FlagWriteWorkers, 1, "number of locales written in parallel")
}

// ApplyFlags copies every flag set on the command line into c.
func (c *ImportConfig) ApplyFlags(fs *pflag.FlagSet) error {
	var errs []error
	fs.Visit(func(f *pflag.Flag) {
		if err := c.applyFlag(fs, f.Name); err != nil {
			errs = append(errs, fmt.Errorf("--%s: %w", f.Name, err))
		}
	})
	return errors.Join(errs...)
}

func (c *ImportConfig) applyFlag(fs *pflag.FlagSet, name string) error {
	var err error
	switch name {
	case FlagInputFile:
		c.InputFile, err = fs.GetString(name)
	case FlagOutputDir:
		c.OutputDir, err = fs.GetString(name)
	case FlagOutputFile:
		c.OutputFile, err = fs.GetString(name)
	case FlagKeyColumn:
		c.TranslationKeyColumn, err = fs.GetString(name)
	case FlagLocaleColumnNames:
		var raw string
		if raw, err = fs.GetString(name); err == nil {
			err = c.LocaleColumnNames.UnmarshalText([]byte(raw))
		}
	case FlagExcludedLocales:
		c.ExcludedLocales, err = fs.GetStringSlice(name)
	case FlagFormat:
		c.Format, err = fs.GetString(name)
	case FlagInputEncoding:
		c.InputEncoding, err = fs.GetString(name)
	case FlagSkipEmptyValues:
		c.SkipEmptyValues, err = fs.GetBool(name)
	case FlagDryRun:
		c.DryRun, err = fs.GetBool(name)
	case FlagWriteWorkers:
		c.WriteWorkers, err = fs.GetInt(name)
	}
	return err
}

// cleanLocales trims entries and drops empty ones.
func cleanLocales(in []string) []string {
	out := make([]string, 0, len(in))
	for _, l := range in {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
