package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	w, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultWeights(), w)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weights.toml")
	w := DefaultWeights()
	w.InLibraryBonus = 99

	require.NoError(t, Save(path, w))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 99.0, loaded.InLibraryBonus)
	assert.Equal(t, w.CrossfadeBars, loaded.CrossfadeBars)
}

func TestLoadMalformedFileErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("not = [valid toml"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}
