package core

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/localesync/internal/keypath"
	"github.com/JonMunkholm/localesync/internal/logging"
)

type memoryHistory struct {
	mu   sync.Mutex
	runs []RunRecord
}

func (m *memoryHistory) RecordRun(_ context.Context, rec RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, rec)
	return nil
}

func (m *memoryHistory) RecentRuns(_ context.Context, limit int) ([]RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RunRecord, 0, len(m.runs))
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.runs[i])
	}
	return out, nil
}

func csvSource(text string) Source {
	return Source{Name: "export.csv", Reader: strings.NewReader(text), Size: int64(len(text))}
}

func readLocale(t *testing.T, dir, locale string) *keypath.FlatMap {
	t.Helper()
	m, err := NewStateLoader(jsFormat(t), nil).LoadLocale(dir, locale, DefaultOutputFile)
	require.NoError(t, err)
	return m
}

func TestService_ImportEndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "en", DefaultOutputFile), `export default {
    "a": {
        "b": "old",
        "keep": "kept"
    }
};
`)

	svc := NewService(ServiceConfig{})
	res, err := svc.Import(context.Background(), csvSource("SYSTEM_KEY,EN,FR\na.b,hello,bonjour\nlist.0,first,premier\nlist.1,second,deuxième\n"), Options{OutputDir: dir})
	require.NoError(t, err)

	assert.Equal(t, RunSucceeded, res.Status)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 3, res.RowsRead)
	assert.Equal(t, 3, res.RowsApplied)
	require.Len(t, res.Locales, 2)
	assert.Equal(t, filepath.Join(dir, "en", DefaultOutputFile), res.Locales[0].Path)

	en := readLocale(t, dir, "en")
	assert.Equal(t, []string{"a.b", "a.keep", "list.0", "list.1"}, en.Keys())
	v, _ := en.Get("a.b")
	assert.Equal(t, "hello", v)
	v, _ = en.Get("a.keep")
	assert.Equal(t, "kept", v)

	fr := readLocale(t, dir, "fr")
	v, _ = fr.Get("list.1")
	assert.Equal(t, "deuxième", v)

	data, err := os.ReadFile(filepath.Join(dir, "fr", DefaultOutputFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "\"list\": [\n")
}

func TestService_MissingKeyColumnWritesNothing(t *testing.T) {
	dir := t.TempDir()
	hist := &memoryHistory{}
	svc := NewService(ServiceConfig{History: hist})

	_, err := svc.Import(context.Background(), csvSource("KEY,EN\na,b\n"), Options{OutputDir: dir})
	require.Error(t, err)
	assert.Equal(t, KindConfiguration, KindOf(err))
	assert.Equal(t, "CFG002", MapError(err).Code)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.Len(t, hist.runs, 1)
	assert.Equal(t, RunFailed, hist.runs[0].Status)
	assert.Contains(t, hist.runs[0].Error, "no translation key column defined")
}

func TestService_EmptyInputIsConfigurationError(t *testing.T) {
	_, err := NewService(ServiceConfig{}).Import(context.Background(), csvSource(""), Options{OutputDir: t.TempDir()})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoKeyColumn)
}

func TestService_SparseArrayAbortsBeforeWriting(t *testing.T) {
	dir := t.TempDir()
	_, err := NewService(ServiceConfig{}).Import(context.Background(),
		csvSource("SYSTEM_KEY,EN,FR\nok,fine,bien\nlist.0,a,a\nlist.2,c,c\n"),
		Options{OutputDir: dir})
	require.Error(t, err)
	assert.ErrorIs(t, err, keypath.ErrSparseIndex)
	assert.Equal(t, "KEY002", MapError(err).Code)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		_, statErr := os.Stat(filepath.Join(dir, e.Name(), DefaultOutputFile))
		assert.True(t, os.IsNotExist(statErr), "locale %s was written", e.Name())
	}
}

func TestService_ExcludedLocales(t *testing.T) {
	dir := t.TempDir()
	original := "export default { \"k\": \"manual\" };\n"
	writeFile(t, filepath.Join(dir, "de", DefaultOutputFile), original)

	res, err := NewService(ServiceConfig{}).Import(context.Background(),
		csvSource("SYSTEM_KEY,EN,DE\nk,english,deutsch\n"),
		Options{OutputDir: dir, ExcludedLocales: []string{"de"}})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "de", DefaultOutputFile))
	require.NoError(t, err)
	assert.Equal(t, original, string(data))

	var de LocaleStats
	for _, ls := range res.Locales {
		if ls.Locale == "de" {
			de = ls
		}
	}
	assert.True(t, de.Excluded)
	assert.Empty(t, de.Path)
}

func TestService_AliasedColumns(t *testing.T) {
	dir := t.TempDir()
	_, err := NewService(ServiceConfig{}).Import(context.Background(),
		csvSource("ID,ENGLISH\ngreeting,Hello\n"),
		Options{
			OutputDir:            dir,
			TranslationKeyColumn: "ID",
			LocaleColumnNames:    AliasMap{"en-us": "ENGLISH"},
		})
	require.NoError(t, err)

	v, ok := readLocale(t, dir, "en-us").Get("greeting")
	assert.True(t, ok)
	assert.Equal(t, "Hello", v)
}

func TestService_DryRun(t *testing.T) {
	dir := t.TempDir()
	hist := &memoryHistory{}

	res, err := NewService(ServiceConfig{History: hist}).Import(context.Background(),
		csvSource("SYSTEM_KEY,EN\nk,v\n"),
		Options{OutputDir: dir, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, RunDryRun, res.Status)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.Len(t, hist.runs, 1)
	assert.Equal(t, RunDryRun, hist.runs[0].Status)
	assert.Equal(t, []string{"en"}, hist.runs[0].Locales)
}

func TestService_Latin1Input(t *testing.T) {
	dir := t.TempDir()
	// "Café" with é as the single latin1 byte 0xE9.
	input := "SYSTEM_KEY,FR\ndrink,Caf\xe9\n"

	_, err := NewService(ServiceConfig{}).Import(context.Background(), csvSource(input),
		Options{OutputDir: dir, InputEncoding: "latin1"})
	require.NoError(t, err)

	v, _ := readLocale(t, dir, "fr").Get("drink")
	assert.Equal(t, "Café", v)
}

func TestService_ImportFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "export.csv")
	writeFile(t, input, "\ufeffSYSTEM_KEY,EN\nk,v\n")

	res, err := NewService(ServiceConfig{}).ImportFile(context.Background(), Options{
		InputFile: input,
		OutputDir: filepath.Join(dir, "locales"),
	})
	require.NoError(t, err)
	assert.Equal(t, "export.csv", res.Source)
	assert.Equal(t, int64(len("\ufeffSYSTEM_KEY,EN\nk,v\n")), res.BytesRead)

	v, _ := readLocale(t, filepath.Join(dir, "locales"), "en").Get("k")
	assert.Equal(t, "v", v)
}

func TestService_ImportFileRequiresInput(t *testing.T) {
	_, err := NewService(ServiceConfig{}).ImportFile(context.Background(), Options{})
	assert.ErrorIs(t, err, ErrInputFileRequired)
}

func TestService_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewService(ServiceConfig{}).Import(ctx, csvSource("SYSTEM_KEY,EN\nk,v\n"), Options{OutputDir: t.TempDir()})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestService_LocalesAndHistory(t *testing.T) {
	dir := t.TempDir()
	hist := &memoryHistory{}
	svc := NewService(ServiceConfig{History: hist})

	_, err := svc.Import(context.Background(), csvSource("SYSTEM_KEY,EN,FR\na,1,un\nb,2,deux\n"), Options{OutputDir: dir})
	require.NoError(t, err)

	summaries, err := svc.Locales(context.Background(), Options{OutputDir: dir})
	require.NoError(t, err)
	assert.Equal(t, []LocaleSummary{{Locale: "en", Keys: 2}, {Locale: "fr", Keys: 2}}, summaries)

	fr, err := svc.Locale(context.Background(), Options{OutputDir: dir}, "fr")
	require.NoError(t, err)
	v, _ := fr.Get("b")
	assert.Equal(t, "deux", v)

	_, err = svc.Locale(context.Background(), Options{OutputDir: dir}, "xx")
	assert.ErrorIs(t, err, ErrLocaleNotFound)

	runs, err := svc.History(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, RunSucceeded, runs[0].Status)
	assert.True(t, svc.HistoryEnabled())

	_, err = NewService(ServiceConfig{}).History(context.Background(), 10)
	assert.ErrorIs(t, err, ErrHistoryDisabled)
}

func TestService_HeaderCannotEscapeOutputDir(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"parent segment", "../../VICTIM"},
		{"nested path", "a/b"},
		{"current dir", "."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			victim := filepath.Join(root, "victim", DefaultOutputFile)
			writeFile(t, victim, `{"keep":"me"}`)
			out := filepath.Join(root, "app", "locales")

			_, err := NewService(ServiceConfig{}).Import(context.Background(),
				csvSource("SYSTEM_KEY,EN,"+tt.header+"\na.b,hello,pwned\n"),
				Options{OutputDir: out})
			require.Error(t, err)
			assert.Equal(t, "CFG006", MapError(err).Code)

			data, err := os.ReadFile(victim)
			require.NoError(t, err)
			assert.Equal(t, `{"keep":"me"}`, string(data))

			_, statErr := os.Stat(out)
			assert.True(t, os.IsNotExist(statErr), "output directory was created")
		})
	}
}

func TestService_ExcludedLocalesIgnoreCase(t *testing.T) {
	dir := t.TempDir()
	res, err := NewService(ServiceConfig{}).Import(context.Background(),
		csvSource("SYSTEM_KEY,EN,FR\nk,english,francais\n"),
		Options{OutputDir: dir, ExcludedLocales: []string{"FR"}})
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "fr", DefaultOutputFile))
	assert.True(t, os.IsNotExist(statErr), "excluded locale was written")
	for _, ls := range res.Locales {
		assert.Equal(t, ls.Locale == "fr", ls.Excluded, ls.Locale)
	}
}

func TestService_LogsProgress(t *testing.T) {
	prev, prevInterval := slog.Default(), ProgressLogInterval
	defer func() {
		slog.SetDefault(prev)
		ProgressLogInterval = prevInterval
	}()
	ProgressLogInterval = 2

	var buf bytes.Buffer
	logging.SetupWriter(&buf, "info", "json")

	input := "SYSTEM_KEY,EN\na,1\nb,2\nc,3\nd,4\n"
	_, err := NewService(ServiceConfig{}).Import(context.Background(), csvSource(input), Options{OutputDir: t.TempDir()})
	require.NoError(t, err)

	var progress []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry))
		if entry["msg"] == "import progress" {
			progress = append(progress, entry)
		}
	}
	require.Len(t, progress, 2)
	assert.Equal(t, float64(2), progress[0]["rows"])
	assert.Equal(t, float64(4), progress[1]["rows"])
	assert.Equal(t, float64(100), progress[1]["percent"])
}
