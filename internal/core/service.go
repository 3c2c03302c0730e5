package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/localesync/internal/document"
	"github.com/JonMunkholm/localesync/internal/keypath"
	"github.com/JonMunkholm/localesync/internal/logging"
)

// ContextCheckInterval is how many rows are read between cancellation checks.
var ContextCheckInterval = 100

// ProgressLogInterval is how many rows are read between progress log lines.
var ProgressLogInterval = 10000

var (
	ErrHistoryDisabled = errors.New("history is not enabled")
	ErrLocaleNotFound  = errors.New("locale not found")
)

// HistoryStore persists run records.
type HistoryStore interface {
	RecordRun(ctx context.Context, rec RunRecord) error
	RecentRuns(ctx context.Context, limit int) ([]RunRecord, error)
}

// Source is an import input stream.
type Source struct {
	Name   string
	Reader io.Reader
	Size   int64 // 0 if unknown
}

// ServiceConfig configures a Service.
type ServiceConfig struct {
	// History records runs when non-nil.
	History HistoryStore

	// MaxConcurrent and MaxWait configure the import limiter.
	MaxConcurrent int
	MaxWait       time.Duration
}

// Service runs translation imports: load the existing locale documents,
// overlay the CSV rows, and write the reconciled documents back.
type Service struct {
	history HistoryStore
	limiter *ImportLimiter
}

// NewService creates a Service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		history: cfg.History,
		limiter: NewImportLimiter(cfg.MaxConcurrent, cfg.MaxWait),
	}
}

// Limiter returns the limiter guarding concurrent runs.
func (s *Service) Limiter() *ImportLimiter {
	return s.limiter
}

// ImportFile runs an import reading opts.InputFile.
func (s *Service) ImportFile(ctx context.Context, opts Options) (*Result, error) {
	if opts.InputFile == "" {
		return nil, configError("open input", ErrInputFileRequired)
	}

	f, err := os.Open(opts.InputFile)
	if err != nil {
		return nil, ioError("open input", opts.InputFile, err)
	}
	defer f.Close()

	var size int64
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}

	return s.Import(ctx, Source{Name: filepath.Base(opts.InputFile), Reader: f, Size: size}, opts)
}

// Import runs one import from src. Either every non-excluded locale is
// written or, on error, none is.
func (s *Service) Import(ctx context.Context, src Source, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.WithFields(ctx, "source", src.Name)

	release, err := s.limiter.Acquire(ctx, opts.OutputDir)
	if err != nil {
		return nil, err
	}
	defer release()

	started := time.Now()
	logger.Info("import started",
		"output_dir", opts.OutputDir,
		"output_file", opts.OutputFile,
		"key_column", opts.TranslationKeyColumn,
		"excluded", opts.ExcludedLocales,
		"dry_run", opts.DryRun,
	)

	res, err := s.run(ctx, logger, src, opts)
	if res == nil {
		res = &Result{}
	}
	res.RunID = runID
	res.Source = src.Name
	res.StartedAt = started
	res.Duration = time.Since(started)

	s.record(ctx, logger, res, opts, err)

	if err != nil {
		logger.Error("import failed", "error", err, "code", MapError(err).Code)
		return nil, err
	}

	logger.Info("import finished",
		"locales", len(res.Locales),
		"rows", res.RowsRead,
		"applied", res.RowsApplied,
		"skipped", res.RowsSkipped,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (s *Service) run(ctx context.Context, logger *slog.Logger, src Source, opts Options) (*Result, error) {
	format, err := document.Lookup(opts.Format)
	if err != nil {
		return nil, configError("select format", err)
	}
	input, err := DecodeInput(src.Reader, opts.InputEncoding, src.Size)
	if err != nil {
		return nil, configError("select encoding", err)
	}

	loader := NewStateLoader(format, logger)
	set, err := loader.LoadAll(opts.OutputDir, opts.OutputFile)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded existing locales", "locales", set.Locales())

	rec := NewReconciler(set, ReconcilerConfig{
		KeyColumn:       opts.TranslationKeyColumn,
		Aliases:         opts.LocaleColumnNames,
		SkipEmptyValues: opts.SkipEmptyValues,
		Logger:          logger,
	})

	stats, err := s.reconcile(ctx, logger, NewRowSource(input), input.Raw, rec, src.Name)
	if err != nil {
		return nil, err
	}

	writer := NewWriter(format, WriterConfig{
		DryRun:  opts.DryRun,
		Workers: opts.WriteWorkers,
		Logger:  logger,
	})
	written, err := writer.WriteAll(ctx, set, opts.OutputDir, opts.OutputFile, opts.ExcludedLocales)
	if err != nil {
		return nil, err
	}

	paths := make(map[string]string, len(written))
	for _, w := range written {
		paths[w.Locale] = w.Path
	}
	for i := range stats.Locales {
		ls := &stats.Locales[i]
		ls.Path = paths[ls.Locale]
		ls.Excluded = opts.excluded(ls.Locale)
	}

	status := RunSucceeded
	if opts.DryRun {
		status = RunDryRun
	}
	return &Result{
		Status:      status,
		Locales:     stats.Locales,
		RowsRead:    stats.RowsRead,
		RowsApplied: stats.RowsApplied,
		RowsSkipped: stats.RowsSkipped,
		BytesRead:   input.Raw.BytesRead,
	}, nil
}

// reconcile drives rec over every row of src.
func (s *Service) reconcile(ctx context.Context, logger *slog.Logger, src *RowSource, raw *CountingReader, rec *Reconciler, name string) (ReconcileStats, error) {
	header, err := src.Header()
	if err != nil && !errors.Is(err, io.EOF) {
		return ReconcileStats{}, parseError("read header", name, err)
	}
	if dups := src.DuplicateHeaders(); len(dups) > 0 {
		logger.Warn("duplicate column headers, using first occurrence", "headers", dups)
	}
	if err := rec.OnHeaders(header); err != nil {
		return ReconcileStats{}, err
	}

	for i := 0; ; i++ {
		if i%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return ReconcileStats{}, fmt.Errorf("import cancelled after %d rows: %w", i, err)
			}
		}

		row, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return ReconcileStats{}, parseError("read row", name, err)
		}
		if err := rec.OnRow(row); err != nil {
			return ReconcileStats{}, err
		}
		if (i+1)%ProgressLogInterval == 0 {
			logger.Info("import progress",
				"rows", i+1,
				"bytes_read", raw.BytesRead,
				"percent", raw.Progress(),
			)
		}
	}

	return rec.OnEnd()
}

func (s *Service) record(ctx context.Context, logger *slog.Logger, res *Result, opts Options, runErr error) {
	if s.history == nil {
		return
	}

	rec := RunRecord{
		RunID:       res.RunID,
		Source:      res.Source,
		Status:      res.Status,
		Excluded:    opts.ExcludedLocales,
		RowsRead:    res.RowsRead,
		RowsApplied: res.RowsApplied,
		StartedAt:   res.StartedAt,
		FinishedAt:  res.StartedAt.Add(res.Duration),
	}
	for _, ls := range res.Locales {
		rec.Locales = append(rec.Locales, ls.Locale)
	}
	if runErr != nil {
		rec.Status = RunFailed
		rec.Error = runErr.Error()
	}

	// A cancelled request still gets its run recorded.
	if err := s.history.RecordRun(context.WithoutCancel(ctx), rec); err != nil {
		logger.Warn("failed to record import history", "error", err)
	}
}

// LocaleSummary describes one locale currently on disk.
type LocaleSummary struct {
	Locale string `json:"locale"`
	Keys   int    `json:"keys"`
}

// Locales lists the locales under outputDir with their key counts.
func (s *Service) Locales(ctx context.Context, opts Options) ([]LocaleSummary, error) {
	opts = opts.withDefaults()
	format, err := document.Lookup(opts.Format)
	if err != nil {
		return nil, configError("select format", err)
	}

	set, err := NewStateLoader(format, logging.FromContext(ctx)).LoadAll(opts.OutputDir, opts.OutputFile)
	if err != nil {
		return nil, err
	}

	out := make([]LocaleSummary, 0, set.Len())
	for _, locale := range set.locales {
		out = append(out, LocaleSummary{Locale: locale, Keys: set.maps[locale].Len()})
	}
	return out, nil
}

// Locale returns the flat translations of one locale on disk.
func (s *Service) Locale(ctx context.Context, opts Options, locale string) (*keypath.FlatMap, error) {
	opts = opts.withDefaults()
	format, err := document.Lookup(opts.Format)
	if err != nil {
		return nil, configError("select format", err)
	}

	loader := NewStateLoader(format, logging.FromContext(ctx))
	locales, err := loader.DiscoverLocales(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	for _, l := range locales {
		if l == locale {
			return loader.LoadLocale(opts.OutputDir, locale, opts.OutputFile)
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrLocaleNotFound, locale)
}

// History returns the most recent runs, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]RunRecord, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	return s.history.RecentRuns(ctx, limit)
}

// HistoryEnabled reports whether runs are being recorded.
func (s *Service) HistoryEnabled() bool {
	return s.history != nil
}
