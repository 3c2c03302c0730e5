package core

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/localesync/internal/document"
	"github.com/JonMunkholm/localesync/internal/keypath"
)

// StateLoader reads previously generated locale documents back into flat
// translation maps.
type StateLoader struct {
	format document.Format
	logger *slog.Logger
}

// NewStateLoader creates a loader for documents written in format.
func NewStateLoader(format document.Format, logger *slog.Logger) *StateLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &StateLoader{format: format, logger: logger}
}

// DiscoverLocales lists the locale directories under outputDir, sorted by
// name. A missing outputDir yields no locales. Hidden directories are
// ignored.
func (l *StateLoader) DiscoverLocales(outputDir string) ([]string, error) {
	entries, err := os.ReadDir(outputDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, ioError("read output directory", outputDir, err)
	}

	var locales []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		locales = append(locales, e.Name())
	}
	return locales, nil
}

// LoadLocale reads outputDir/locale/fileName. A missing file yields an
// empty map; a file that cannot be decoded is a parse failure.
func (l *StateLoader) LoadLocale(outputDir, locale, fileName string) (*keypath.FlatMap, error) {
	path := filepath.Join(outputDir, locale, fileName)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		l.logger.Debug("no existing translations", "locale", locale, "path", path)
		return keypath.NewFlatMap(), nil
	}
	if err != nil {
		return nil, ioError("read translations", path, err)
	}

	doc, err := l.format.Decode(data)
	if err != nil {
		return nil, parseError("decode translations", path, err)
	}
	flat, err := keypath.Flatten(doc)
	if err != nil {
		return nil, parseError("flatten translations", path, err)
	}

	l.logger.Debug("loaded existing translations", "locale", locale, "keys", flat.Len())
	return flat, nil
}

// LoadAll discovers every locale under outputDir and loads its document.
func (l *StateLoader) LoadAll(outputDir, fileName string) (*TranslationSet, error) {
	locales, err := l.DiscoverLocales(outputDir)
	if err != nil {
		return nil, err
	}

	set := NewTranslationSet()
	for _, locale := range locales {
		flat, err := l.LoadLocale(outputDir, locale, fileName)
		if err != nil {
			return nil, err
		}
		set.Seed(locale, flat)
	}
	return set, nil
}
