package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestEmbeddedDefaultConfig(t *testing.T) {
	t.Parallel()

	raw := getDefaultConfig()
	require.NotEmpty(t, raw)

	var parsed map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(raw), &parsed), "the embedded default config must be valid YAML")
	assert.Contains(t, parsed, "ensemble")
	assert.Contains(t, parsed, "output")
}

func TestSaveYAMLConfigRoundtrip(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "config.yaml")

	settings := &Settings{}
	settings.Main.Name = "FloraVision"
	settings.Ensemble.MaxResults = 5
	settings.Expert.DefaultID = 1050
	require.NoError(t, SaveYAMLConfig(configPath, settings))

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)

	var loaded Settings
	require.NoError(t, yaml.Unmarshal(data, &loaded))
	assert.Equal(t, "FloraVision", loaded.Main.Name)
	assert.Equal(t, 5, loaded.Ensemble.MaxResults)
	assert.Equal(t, 1050, loaded.Expert.DefaultID)
}

func TestGetBasePathCreatesDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "data")
	got := GetBasePath(dir)
	assert.Equal(t, filepath.Clean(dir), got)
	assert.DirExists(t, got)
}
