package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/localesync/internal/core"
	"github.com/JonMunkholm/localesync/internal/logging"
	"github.com/JonMunkholm/localesync/internal/web/templates"
)

// dashboardRuns is how many recent runs the dashboard lists.
const dashboardRuns = 10

// parseIntParam extracts an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	str := r.URL.Query().Get(name)
	if str == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(str)
	if err != nil || val < 0 {
		return defaultVal
	}
	return val
}

// handleDashboard renders the overview page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	opts := s.cfg.Import.Options()
	locales, err := s.service.Locales(r.Context(), opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	data := templates.DashboardData{
		OutputDir:      s.cfg.Import.OutputDir,
		OutputFile:     s.cfg.Import.OutputFile,
		Format:         s.cfg.Import.Format,
		HistoryEnabled: s.service.HistoryEnabled(),
		ActiveImports:  s.service.Limiter().ActiveCount(),
		RequireAPIKey:  s.cfg.Server.RequireAPIKey,
	}
	for _, l := range locales {
		data.Locales = append(data.Locales, templates.LocaleRow{Locale: l.Locale, Keys: l.Keys})
	}

	if data.HistoryEnabled {
		runs, err := s.service.History(r.Context(), dashboardRuns)
		if err != nil {
			// The page stays useful without history.
			logging.FromContext(r.Context()).Warn("failed to load run history", "error", err)
		}
		for _, run := range runs {
			data.Runs = append(data.Runs, templates.RunRow{
				RunID:      run.RunID,
				Source:     run.Source,
				Status:     string(run.Status),
				Error:      run.Error,
				Locales:    run.Locales,
				Rows:       run.RowsRead,
				StartedAt:  run.StartedAt,
				FinishedAt: run.FinishedAt,
			})
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Dashboard(data).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render dashboard", "error", err)
	}
}

// HealthResponse reports liveness and import slot usage.
type HealthResponse struct {
	Status  string                   `json:"status"`
	Imports core.ImportLimiterStatus `json:"imports"`
	History bool                     `json:"history"`
}

// handleHealth reports that the server is up.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, HealthResponse{
		Status:  "ok",
		Imports: s.service.Limiter().Status(),
		History: s.service.HistoryEnabled(),
	})
}

// handleListLocales returns the locales on disk with their key counts.
func (s *Server) handleListLocales(w http.ResponseWriter, r *http.Request) {
	locales, err := s.service.Locales(r.Context(), s.cfg.Import.Options())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if locales == nil {
		locales = []core.LocaleSummary{}
	}
	writeJSON(w, locales)
}

// handleGetLocale returns one locale's flat translations in document order.
func (s *Server) handleGetLocale(w http.ResponseWriter, r *http.Request) {
	locale := chi.URLParam(r, "locale")
	flat, err := s.service.Locale(r.Context(), s.cfg.Import.Options(), locale)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, flat)
}

// handleImport runs an import from an uploaded CSV export.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	s.runUpload(w, r, false)
}

// handlePreview reconciles an uploaded CSV export without writing anything.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	s.runUpload(w, r, true)
}

// runUpload streams the multipart "file" field into an import. An
// "excludedLocales" form value replaces the configured exclusions.
func (s *Server) runUpload(w http.ResponseWriter, r *http.Request, preview bool) {
	maxSize := s.cfg.Server.MaxUploadSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		s.respondError(w, r, fmt.Errorf("parse upload: %w", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, fmt.Errorf("read upload: %w", err))
		return
	}
	defer file.Close()

	opts := s.cfg.Import.Options()
	if raw, ok := r.MultipartForm.Value["excludedLocales"]; ok {
		opts.ExcludedLocales = splitList(strings.Join(raw, ","))
	}
	if preview {
		opts.DryRun = true
	}

	res, err := s.service.Import(r.Context(), core.Source{
		Name:   header.Filename,
		Reader: file,
		Size:   header.Size,
	}, opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, res)
}

// handleHistory returns the most recent runs.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", 20)
	runs, err := s.service.History(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if runs == nil {
		runs = []core.RunRecord{}
	}
	writeJSON(w, runs)
}

// splitList splits a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
