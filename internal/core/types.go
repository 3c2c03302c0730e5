package core

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonMunkholm/localesync/internal/keypath"
)

// Defaults mirror the conventions of the front-end projects this tool feeds.
const (
	DefaultOutputDir            = "app/locales/"
	DefaultOutputFile           = "translations.js"
	DefaultTranslationKeyColumn = "SYSTEM_KEY"
)

// AliasMap maps a locale identifier to the exact CSV header holding its
// values. Headers without an entry feed the locale named by their
// lowercased text.
type AliasMap map[string]string

// LocaleFor returns the locale a CSV header feeds. Headers without an alias
// map to their lowercased text. When several locales alias the same header
// the lexically smallest wins.
func (a AliasMap) LocaleFor(header string) string {
	match := ""
	for locale, col := range a {
		if col == header && (match == "" || locale < match) {
			match = locale
		}
	}
	if match != "" {
		return match
	}
	return strings.ToLower(header)
}

// CheckLocaleName fails unless locale can name a directory directly under
// the output directory: a single local path segment that is not hidden.
func CheckLocaleName(locale string) error {
	if locale == "" ||
		strings.HasPrefix(locale, ".") ||
		strings.ContainsAny(locale, `/\`) ||
		!filepath.IsLocal(locale) {
		return fmt.Errorf("%w: %q", ErrInvalidLocale, locale)
	}
	return nil
}

// HeaderIndex maps column names (exact, case-sensitive) to their position
// in a CSV row.
type HeaderIndex map[string]int

// TranslationSet holds one flat translation map per locale. Locales are
// kept in the order they were first added.
type TranslationSet struct {
	locales []string
	maps    map[string]*keypath.FlatMap
}

// NewTranslationSet returns an empty set.
func NewTranslationSet() *TranslationSet {
	return &TranslationSet{maps: make(map[string]*keypath.FlatMap)}
}

// Seed installs m as the baseline for locale, replacing any previous map.
func (s *TranslationSet) Seed(locale string, m *keypath.FlatMap) {
	if _, ok := s.maps[locale]; !ok {
		s.locales = append(s.locales, locale)
	}
	s.maps[locale] = m
}

// Ensure returns the map for locale, creating an empty one if needed. An
// existing map is never replaced. The second result reports creation.
func (s *TranslationSet) Ensure(locale string) (*keypath.FlatMap, bool) {
	if m, ok := s.maps[locale]; ok {
		return m, false
	}
	m := keypath.NewFlatMap()
	s.Seed(locale, m)
	return m, true
}

// Get returns the map for locale.
func (s *TranslationSet) Get(locale string) (*keypath.FlatMap, bool) {
	m, ok := s.maps[locale]
	return m, ok
}

// Locales returns locale identifiers in insertion order.
func (s *TranslationSet) Locales() []string {
	out := make([]string, len(s.locales))
	copy(out, s.locales)
	return out
}

// Len returns the number of locales.
func (s *TranslationSet) Len() int {
	return len(s.locales)
}

// RunStatus is the outcome of an import run.
type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
	RunDryRun    RunStatus = "dry_run"
)

// Options configures one import run.
type Options struct {
	InputFile            string
	OutputDir            string
	OutputFile           string
	TranslationKeyColumn string
	LocaleColumnNames    AliasMap
	ExcludedLocales      []string

	// Format names the document format; empty selects "js".
	Format string

	// InputEncoding is "utf-8" (default), "latin1" or "windows-1252".
	InputEncoding string

	// SkipEmptyValues leaves existing values untouched when a cell is empty.
	SkipEmptyValues bool

	// DryRun reconciles and renders without writing any file.
	DryRun bool

	// WriteWorkers bounds concurrent locale writes (default 1).
	WriteWorkers int
}

// withDefaults fills unset fields.
func (o Options) withDefaults() Options {
	if o.OutputDir == "" {
		o.OutputDir = DefaultOutputDir
	}
	if o.OutputFile == "" {
		o.OutputFile = DefaultOutputFile
	}
	if o.TranslationKeyColumn == "" {
		o.TranslationKeyColumn = DefaultTranslationKeyColumn
	}
	if o.LocaleColumnNames == nil {
		o.LocaleColumnNames = AliasMap{}
	}
	if o.WriteWorkers <= 0 {
		o.WriteWorkers = 1
	}
	return o
}

// excluded reports whether locale is in the exclusion list, ignoring case.
func (o Options) excluded(locale string) bool {
	for _, l := range o.ExcludedLocales {
		if strings.EqualFold(l, locale) {
			return true
		}
	}
	return false
}

// LocaleStats counts what a run did to one locale.
type LocaleStats struct {
	Locale    string `json:"locale"`
	Added     int    `json:"added"`
	Updated   int    `json:"updated"`
	Unchanged int    `json:"unchanged"`
	Preserved int    `json:"preserved"`
	Total     int    `json:"total"`
	Created   bool   `json:"created"`
	Excluded  bool   `json:"excluded"`
	Path      string `json:"path,omitempty"`
}

// Result summarizes a completed import run.
type Result struct {
	RunID       string        `json:"run_id"`
	Source      string        `json:"source"`
	Status      RunStatus     `json:"status"`
	Locales     []LocaleStats `json:"locales"`
	RowsRead    int           `json:"rows_read"`
	RowsApplied int           `json:"rows_applied"`
	RowsSkipped int           `json:"rows_skipped"`
	BytesRead   int64         `json:"bytes_read"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
}

// RunRecord is the persisted form of a run.
type RunRecord struct {
	RunID       string    `json:"run_id"`
	Source      string    `json:"source"`
	Status      RunStatus `json:"status"`
	Error       string    `json:"error,omitempty"`
	Locales     []string  `json:"locales"`
	Excluded    []string  `json:"excluded"`
	RowsRead    int       `json:"rows_read"`
	RowsApplied int       `json:"rows_applied"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}
