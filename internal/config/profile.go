package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadProfile decodes the YAML file at path into dst. Unknown keys are
// rejected so a misspelled setting does not silently fall back to its
// default.
//
// Example profile:
//
//	outputDir: web/app/locales/
//	translationKeyColumnName: KEY
//	localeColumnNames:
//	  en: ENGLISH
//	excludedLocales: [de]
func LoadProfile(path string, dst *ImportConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("profile %s: %w", path, err)
	}
	return nil
}
