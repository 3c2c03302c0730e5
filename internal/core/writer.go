package core

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/localesync/internal/document"
	"github.com/JonMunkholm/localesync/internal/keypath"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// WriterConfig configures a Writer.
type WriterConfig struct {
	// DryRun renders every document but writes nothing.
	DryRun bool

	// Workers bounds concurrent locale writes (default 1).
	Workers int

	Logger *slog.Logger
}

// RenderedLocale is one locale document ready to be written.
type RenderedLocale struct {
	Locale string
	Path   string
	Data   []byte
}

// Writer regenerates locale documents from a reconciled set.
type Writer struct {
	format  document.Format
	dryRun  bool
	workers int
	logger  *slog.Logger
}

// NewWriter creates a writer producing documents in format.
func NewWriter(format document.Format, cfg WriterConfig) *Writer {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Writer{
		format:  format,
		dryRun:  cfg.DryRun,
		workers: cfg.Workers,
		logger:  cfg.Logger,
	}
}

// Render nests and encodes every locale not listed in exclusions, which
// match regardless of case. Nothing touches the filesystem, so a failing
// locale leaves all output intact. A locale that is not a plain directory
// name is a configuration error.
func (w *Writer) Render(set *TranslationSet, outputDir, fileName string, exclusions []string) ([]RenderedLocale, error) {
	skip := make(map[string]bool, len(exclusions))
	for _, l := range exclusions {
		skip[strings.ToLower(l)] = true
	}

	out := make([]RenderedLocale, 0, set.Len())
	for _, locale := range set.locales {
		if skip[strings.ToLower(locale)] {
			w.logger.Info("skipping excluded locale", "locale", locale)
			continue
		}
		if err := CheckLocaleName(locale); err != nil {
			return nil, configError("render locale", err)
		}

		doc, err := keypath.Unflatten(set.maps[locale])
		if err != nil {
			return nil, renderError("nest translations", locale, err)
		}
		data, err := w.format.Encode(doc)
		if err != nil {
			return nil, renderError("encode translations", locale, err)
		}

		if v, ok := w.format.(document.Verifier); ok {
			if err := v.Verify(locale, data); err != nil {
				w.logger.Warn("rendered catalog failed verification", "locale", locale, "error", err)
			}
		}

		out = append(out, RenderedLocale{
			Locale: locale,
			Path:   filepath.Join(outputDir, locale, fileName),
			Data:   data,
		})
	}
	return out, nil
}

// WriteAll renders every non-excluded locale and then replaces each
// locale's file. Excluded locales are neither written nor deleted.
func (w *Writer) WriteAll(ctx context.Context, set *TranslationSet, outputDir, fileName string, exclusions []string) ([]RenderedLocale, error) {
	rendered, err := w.Render(set, outputDir, fileName, exclusions)
	if err != nil {
		return nil, err
	}
	if w.dryRun {
		w.logger.Info("dry run, no files written", "locales", len(rendered))
		return rendered, nil
	}

	if err := os.MkdirAll(outputDir, dirPerm); err != nil {
		return nil, ioError("create output directory", outputDir, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.workers)
	for _, rl := range rendered {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return w.writeLocale(rl)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rendered, nil
}

// writeLocale removes any previous file before writing the new one.
func (w *Writer) writeLocale(rl RenderedLocale) error {
	dir := filepath.Dir(rl.Path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return ioError("create locale directory", dir, err)
	}
	if err := os.Remove(rl.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return ioError("remove previous translations", rl.Path, err)
	}
	if err := os.WriteFile(rl.Path, rl.Data, filePerm); err != nil {
		return ioError("write translations", rl.Path, err)
	}

	w.logger.Info("wrote locale", "locale", rl.Locale, "path", rl.Path, "bytes", len(rl.Data))
	return nil
}
