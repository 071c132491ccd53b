package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ConfigName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaultsWhenMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), ConfigName))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig, cfg)
	assert.Equal(t, "test", cfg.Entry)
	assert.True(t, cfg.AddrofGlobals)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, "entry = \"main\"\naddrof-globals = false\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "main", cfg.Entry)
	assert.False(t, cfg.AddrofGlobals)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "entry = \"main\"\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "main", cfg.Entry)
	assert.True(t, cfg.AddrofGlobals)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "entry = \"main\"\nbogus = 1\n")
	_, err := Load(path)
	assert.Error(t, err)
}
