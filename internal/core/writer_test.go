package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/localesync/internal/keypath"
)

func TestWriter_WriteAll(t *testing.T) {
	dir := t.TempDir()
	set := seeded("en", "nav.home", "Home", "nav.items.0", "One")

	w := NewWriter(jsFormat(t), WriterConfig{Workers: 2})
	written, err := w.WriteAll(context.Background(), set, dir, DefaultOutputFile, nil)
	require.NoError(t, err)
	require.Len(t, written, 1)

	data, err := os.ReadFile(filepath.Join(dir, "en", DefaultOutputFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "export default {\n")
	assert.Contains(t, string(data), "        \"home\": \"Home\",\n")
	assert.Contains(t, string(data), "        \"items\": [\n            \"One\"\n        ]\n")
	assert.True(t, len(data) > 0 && data[len(data)-1] == '\n')
}

func TestWriter_ExcludedLocaleUntouched(t *testing.T) {
	dir := t.TempDir()
	original := "export default { \"k\": \"hand edited\" };\n"
	writeFile(t, filepath.Join(dir, "de", DefaultOutputFile), original)

	set := seeded("de", "k", "generated")
	set.Seed("en", keypath.NewFlatMap())

	written, err := NewWriter(jsFormat(t), WriterConfig{}).WriteAll(context.Background(), set, dir, DefaultOutputFile, []string{"de"})
	require.NoError(t, err)
	require.Len(t, written, 1)
	assert.Equal(t, "en", written[0].Locale)

	data, err := os.ReadFile(filepath.Join(dir, "de", DefaultOutputFile))
	require.NoError(t, err)
	assert.Equal(t, original, string(data))
}

func TestWriter_RenderFailureWritesNothing(t *testing.T) {
	dir := t.TempDir()
	set := seeded("en", "ok", "fine")
	// Keys are written in locale order; "fr" fails after "en" renders.
	bad := keypath.NewFlatMap()
	bad.Set("a", "leaf")
	bad.Set("a.b", "child")
	set.Seed("fr", bad)

	_, err := NewWriter(jsFormat(t), WriterConfig{}).WriteAll(context.Background(), set, dir, DefaultOutputFile, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, keypath.ErrKeyConflict)
	assert.Equal(t, KindRender, KindOf(err))

	_, statErr := os.Stat(filepath.Join(dir, "en", DefaultOutputFile))
	assert.True(t, os.IsNotExist(statErr), "no locale may be written when another fails to render")
}

func TestWriter_DryRun(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "locales")
	set := seeded("en", "k", "v")

	rendered, err := NewWriter(jsFormat(t), WriterConfig{DryRun: true}).WriteAll(context.Background(), set, dir, DefaultOutputFile, nil)
	require.NoError(t, err)
	require.Len(t, rendered, 1)
	assert.Contains(t, string(rendered[0].Data), `"k": "v"`)

	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestWriter_ReplacesPreviousFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "en", DefaultOutputFile)
	writeFile(t, path, "export default { \"stale\": \"x\", \"longer\": \"content than the new file\" };\n")

	_, err := NewWriter(jsFormat(t), WriterConfig{}).WriteAll(context.Background(), seeded("en", "k", "v"), dir, DefaultOutputFile, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "stale")
}

func TestWriter_RejectsUnsafeLocale(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "locales")

	set := seeded("en", "k", "v")
	set.Seed("../escaped", keypath.NewFlatMap())

	_, err := NewWriter(jsFormat(t), WriterConfig{}).WriteAll(context.Background(), set, dir, DefaultOutputFile, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidLocale)

	_, statErr := os.Stat(filepath.Join(root, "escaped"))
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(filepath.Join(dir, "en", DefaultOutputFile))
	assert.True(t, os.IsNotExist(statErr))
}

func TestWriter_ExclusionsIgnoreCase(t *testing.T) {
	set := seeded("fr", "k", "v")
	set.Seed("en", keypath.NewFlatMap())

	rendered, err := NewWriter(jsFormat(t), WriterConfig{}).Render(set, t.TempDir(), DefaultOutputFile, []string{"FR"})
	require.NoError(t, err)
	require.Len(t, rendered, 1)
	assert.Equal(t, "en", rendered[0].Locale)
}
