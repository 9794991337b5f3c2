package classifier

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLabels(t *testing.T) {
	t.Parallel()

	table, err := LoadLabels(strings.NewReader("Rosa_canina\nQuercus_robur\n\nTaxus_baccata\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len(), "blank lines must be skipped")

	label, err := table.Label(0)
	require.NoError(t, err)
	assert.Equal(t, "Rosa canina", label, "underscores must be replaced with spaces")

	label, err = table.Label(2)
	require.NoError(t, err)
	assert.Equal(t, "Taxus baccata", label)
}

func TestLoadLabelsTrimsWhitespace(t *testing.T) {
	t.Parallel()

	table, err := LoadLabels(strings.NewReader("  Rosa_canina  \r\n"))
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())

	label, err := table.Label(0)
	require.NoError(t, err)
	assert.Equal(t, "Rosa canina", label)
}

func TestLoadLabelsEmptySource(t *testing.T) {
	t.Parallel()

	_, err := LoadLabels(strings.NewReader(""))
	assert.Error(t, err, "an empty label source must not produce a usable table")

	_, err = LoadLabels(strings.NewReader("\n\n  \n"))
	assert.Error(t, err, "a whitespace-only label source must not produce a usable table")
}

func TestLabelOutOfRange(t *testing.T) {
	t.Parallel()

	table, err := LoadLabels(strings.NewReader("Rosa_canina\n"))
	require.NoError(t, err)

	_, err = table.Label(-1)
	assert.Error(t, err)

	_, err = table.Label(1)
	assert.Error(t, err)
}

func TestLoadLabelFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "labels.txt")
	require.NoError(t, os.WriteFile(path, []byte("Rosa_canina\nQuercus_robur\n"), 0o644))

	table, err := LoadLabelFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
}

func TestLoadLabelFileMissing(t *testing.T) {
	t.Parallel()

	_, err := LoadLabelFile(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}
