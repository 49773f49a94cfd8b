package sink

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igfunnel/pkg/record"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteUnionHeader(t *testing.T) {
	dir := t.TempDir()
	w, err := NewCSVWriter(dir, nil)
	require.NoError(t, err)

	records := []record.Record{
		{"url": "https://a", "likes": 1200},
		{"url": "https://b", "likes": 900, "caption": "hello"},
	}
	require.NoError(t, w.Write("posts", records))

	rows := readCSV(t, filepath.Join(dir, "posts.csv"))
	require.Len(t, rows, 3)
	// Sorted union of every field present in the batch.
	assert.Equal(t, []string{"caption", "likes", "url"}, rows[0])
	// Missing fields render as empty cells.
	assert.Equal(t, []string{"", "1200", "https://a"}, rows[1])
	assert.Equal(t, []string{"hello", "900", "https://b"}, rows[2])
}

func TestWriteValueFormatting(t *testing.T) {
	dir := t.TempDir()
	w, err := NewCSVWriter(dir, nil)
	require.NoError(t, err)

	records := []record.Record{
		{"count": float64(42), "ratio": 1.5, "private": true, "name": "x"},
	}
	require.NoError(t, w.Write("mixed", records))

	rows := readCSV(t, filepath.Join(dir, "mixed.csv"))
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"count", "name", "private", "ratio"}, rows[0])
	assert.Equal(t, []string{"42", "x", "true", "1.5"}, rows[1])
}

func TestWriteEmptyBatch(t *testing.T) {
	dir := t.TempDir()
	w, err := NewCSVWriter(dir, nil)
	require.NoError(t, err)

	require.NoError(t, w.Write("comments", nil))

	// The file exists even with nothing to write.
	_, err = os.Stat(filepath.Join(dir, "comments.csv"))
	assert.NoError(t, err)
}

func TestNextRunDirSequence(t *testing.T) {
	base := t.TempDir()

	first, err := NextRunDir(base)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "run1_outputs"), first)

	second, err := NextRunDir(base)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "run2_outputs"), second)
}

func TestNextRunDirIgnoresForeignEntries(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(base, "run7_outputs"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(base, "notarun"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "run9_outputs"), []byte("file not dir"), 0o644))

	next, err := NextRunDir(base)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "run8_outputs"), next)
}
