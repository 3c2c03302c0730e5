// Package templates renders the HTML pages of the web UI. The components
// live in .templ files; run "templ generate" after editing them.
package templates

import "time"

// LocaleRow is one line of the locale table.
type LocaleRow struct {
	Locale string
	Keys   int
}

// RunRow is one line of the recent runs table.
type RunRow struct {
	RunID      string
	Source     string
	Status     string
	Error      string
	Locales    []string
	Rows       int
	StartedAt  time.Time
	FinishedAt time.Time
}

// DashboardData is everything the dashboard shows.
type DashboardData struct {
	OutputDir      string
	OutputFile     string
	Format         string
	Locales        []LocaleRow
	HistoryEnabled bool
	Runs           []RunRow
	ActiveImports  int

	// RequireAPIKey adds a key field the import form sends as X-API-Key.
	RequireAPIKey bool
}
