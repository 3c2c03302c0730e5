package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/localesync/internal/document"
)

func jsFormat(t *testing.T) document.Format {
	t.Helper()
	f, err := document.Lookup("js")
	require.NoError(t, err)
	return f
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestStateLoader_DiscoverLocales(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "fr"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "en"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))
	writeFile(t, filepath.Join(dir, "README.md"), "not a locale")

	locales, err := NewStateLoader(jsFormat(t), nil).DiscoverLocales(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "fr"}, locales)
}

func TestStateLoader_MissingOutputDir(t *testing.T) {
	set, err := NewStateLoader(jsFormat(t), nil).LoadAll(filepath.Join(t.TempDir(), "absent"), DefaultOutputFile)
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
}

func TestStateLoader_LocaleWithoutFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "de"), 0o755))

	set, err := NewStateLoader(jsFormat(t), nil).LoadAll(dir, DefaultOutputFile)
	require.NoError(t, err)

	m, ok := set.Get("de")
	require.True(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestStateLoader_LoadsNestedDocument(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "en", DefaultOutputFile), `// generated
export default {
    "nav": {
        "home": "Home",
        "items": ["One", "Two"]
    },
    "count": 3
};
`)

	m, err := NewStateLoader(jsFormat(t), nil).LoadLocale(dir, "en", DefaultOutputFile)
	require.NoError(t, err)

	assert.Equal(t, []string{"nav.home", "nav.items.0", "nav.items.1", "count"}, m.Keys())
	v, _ := m.Get("count")
	assert.Equal(t, "3", v)
}

func TestStateLoader_RelaxedLiteral(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "fr", DefaultOutputFile), `export default {
    greeting: 'Bonjour',
    nav: { home: "Accueil", },
};
`)

	m, err := NewStateLoader(jsFormat(t), nil).LoadLocale(dir, "fr", DefaultOutputFile)
	require.NoError(t, err)

	assert.Equal(t, []string{"greeting", "nav.home"}, m.Keys())
	v, _ := m.Get("nav.home")
	assert.Equal(t, "Accueil", v)
}

func TestStateLoader_UnparseableFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "en", DefaultOutputFile), "export default { broken: ; };\n")

	_, err := NewStateLoader(jsFormat(t), nil).LoadAll(dir, DefaultOutputFile)
	require.Error(t, err)
	assert.Equal(t, KindParse, KindOf(err))
	assert.Contains(t, err.Error(), filepath.Join(dir, "en", DefaultOutputFile))
	assert.Equal(t, "PARSE002", MapError(err).Code)
}

func TestStateLoader_NoLiteral(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "en", DefaultOutputFile), "export default null;\n")

	_, err := NewStateLoader(jsFormat(t), nil).LoadLocale(dir, "en", DefaultOutputFile)
	require.Error(t, err)
	assert.ErrorIs(t, err, document.ErrLiteralNotFound)
	assert.Equal(t, "PARSE001", MapError(err).Code)
}
