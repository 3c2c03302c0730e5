package core

import (
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"github.com/JonMunkholm/localesync/internal/keypath"
)

type reconcilerState int

const (
	awaitingHeaders reconcilerState = iota
	readingRows
	finished
)

// ReconcilerConfig configures a Reconciler.
type ReconcilerConfig struct {
	KeyColumn       string
	Aliases         AliasMap
	SkipEmptyValues bool
	Logger          *slog.Logger
}

// ReconcileStats summarizes the rows a Reconciler consumed.
type ReconcileStats struct {
	RowsRead    int
	RowsApplied int
	RowsSkipped int
	Locales     []LocaleStats
}

// Reconciler overlays imported rows on a seeded TranslationSet.
//
// Events must arrive in order: OnHeaders once, OnRow for each data row,
// then OnEnd. Rows are applied in arrival order, so a later row for the
// same key wins.
type Reconciler struct {
	set       *TranslationSet
	keyColumn string
	aliases   AliasMap
	skipEmpty bool
	logger    *slog.Logger

	state    reconcilerState
	columns  map[string]string // locale -> header feeding it
	baseline map[string]*keypath.FlatMap
	touched  map[string]map[string]struct{}
	stats    ReconcileStats
}

// NewReconciler creates a reconciler over set, which should already hold
// the locales loaded from disk.
func NewReconciler(set *TranslationSet, cfg ReconcilerConfig) *Reconciler {
	if cfg.KeyColumn == "" {
		cfg.KeyColumn = DefaultTranslationKeyColumn
	}
	if cfg.Aliases == nil {
		cfg.Aliases = AliasMap{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	baseline := make(map[string]*keypath.FlatMap, set.Len())
	for _, locale := range set.locales {
		baseline[locale] = set.maps[locale].Clone()
	}

	return &Reconciler{
		set:       set,
		keyColumn: cfg.KeyColumn,
		aliases:   cfg.Aliases,
		skipEmpty: cfg.SkipEmptyValues,
		logger:    cfg.Logger,
		columns:   make(map[string]string),
		baseline:  baseline,
		touched:   make(map[string]map[string]struct{}),
	}
}

// OnHeaders registers a locale for every non-key column. It fails with a
// configuration error when the key column is missing.
func (r *Reconciler) OnHeaders(headers []string) error {
	if r.state != awaitingHeaders {
		return ErrHeadersRepeated
	}

	hasKey := false
	for _, h := range headers {
		if h == r.keyColumn {
			hasKey = true
			break
		}
	}
	if !hasKey {
		r.state = finished
		return configError("read headers", ErrNoKeyColumn)
	}

	for _, h := range headers {
		if h == r.keyColumn {
			continue
		}
		if strings.TrimSpace(h) == "" {
			r.logger.Warn("ignoring column without a header")
			continue
		}

		locale := r.aliases.LocaleFor(h)
		if err := CheckLocaleName(locale); err != nil {
			r.state = finished
			return configError("read header "+strconv.Quote(h), err)
		}
		if _, seen := r.columns[locale]; !seen {
			r.columns[locale] = r.columnFor(locale, h)
		}
		if _, created := r.set.Ensure(locale); created {
			r.logger.Debug("locale added from import", "locale", locale, "column", h)
		}
		if _, err := language.Parse(locale); err != nil {
			r.logger.Warn("locale is not a valid language tag", "locale", locale, "column", h)
		}
	}

	r.state = readingRows
	return nil
}

// OnRow applies one data row to every locale fed by a column. Rows without
// a key are skipped entirely. A locale whose column is absent from the row keeps its
// current value for the key.
func (r *Reconciler) OnRow(row Row) error {
	switch r.state {
	case awaitingHeaders:
		return ErrHeadersNotRead
	case finished:
		return ErrReconcilerFinished
	}

	r.stats.RowsRead++

	key, _ := row.Get(r.keyColumn)
	key = strings.TrimSpace(key)
	if key == "" {
		r.stats.RowsSkipped++
		r.logger.Debug("skipping row without translation key", "line", row.Line)
		return nil
	}

	for _, locale := range r.set.locales {
		column, ok := r.columns[locale]
		if !ok {
			continue
		}
		value, ok := row.Get(column)
		if !ok || (r.skipEmpty && value == "") {
			continue
		}
		r.set.maps[locale].Set(key, value)
		r.markTouched(locale, key)
	}

	r.stats.RowsApplied++
	return nil
}

// columnFor picks the header read for locale: its configured alias when it
// has one, otherwise the header that introduced it.
func (r *Reconciler) columnFor(locale, header string) string {
	if alias, ok := r.aliases[locale]; ok {
		return alias
	}
	return header
}

func (r *Reconciler) markTouched(locale, key string) {
	keys, ok := r.touched[locale]
	if !ok {
		keys = make(map[string]struct{})
		r.touched[locale] = keys
	}
	keys[key] = struct{}{}
}

// OnEnd closes the reconciler and returns per-locale statistics. The set
// must not be mutated through the reconciler afterwards.
func (r *Reconciler) OnEnd() (ReconcileStats, error) {
	switch r.state {
	case awaitingHeaders:
		return ReconcileStats{}, ErrHeadersNotRead
	case finished:
		return ReconcileStats{}, ErrReconcilerFinished
	}
	r.state = finished

	r.stats.Locales = make([]LocaleStats, 0, r.set.Len())
	for _, locale := range r.set.locales {
		r.stats.Locales = append(r.stats.Locales, r.localeStats(locale))
	}
	return r.stats, nil
}

func (r *Reconciler) localeStats(locale string) LocaleStats {
	current := r.set.maps[locale]
	base, existed := r.baseline[locale]
	touched := r.touched[locale]

	st := LocaleStats{Locale: locale, Total: current.Len(), Created: !existed}
	for key, value := range current.All() {
		var prev string
		var had bool
		if existed {
			prev, had = base.Get(key)
		}
		_, hit := touched[key]

		switch {
		case !had:
			st.Added++
		case !hit:
			st.Preserved++
		case prev != value:
			st.Updated++
		default:
			st.Unchanged++
		}
	}
	return st
}
