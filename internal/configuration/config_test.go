package configuration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	config, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultAPI, config.API)
	assert.Equal(t, time.Minute, config.Timeout())
	assert.NotEmpty(t, config.ID)
	assert.False(t, config.Debug)
}

func TestLoad_FileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("api: http://localhost:8080/api/v1\ntoken: abc123\nid: machine-1\ntimeout: 5\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	config, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/api/v1", config.API)
	assert.Equal(t, "abc123", config.Token)
	assert.Equal(t, "machine-1", config.ID)
	assert.Equal(t, 5*time.Second, config.Timeout())
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("token: from-file\n"), 0o600))

	t.Setenv("DEEPGUARD_TOKEN", "from-env")
	t.Setenv("DEEPGUARD_DEBUG", "true")
	t.Setenv("DEEPGUARD_DEV", "true")

	config, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", config.Token)
	assert.True(t, config.Debug)
	assert.True(t, config.Dev)
	assert.Equal(t, path, config.Path)
}

func TestLoad_InvalidYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [unterminated\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestPersistID_GeneratedIDSurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deepguard", "config.yaml")

	first, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, PersistID(first))

	second, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
}

func TestPersistID_KeepsFileKeysAndSkipsEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: http://localhost:8080/api/v1\n"), 0o600))
	t.Setenv("DEEPGUARD_TOKEN", "from-env")

	config, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, PersistID(config))

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Contains(t, string(content), "api: http://localhost:8080/api/v1")
	assert.Contains(t, string(content), "id: "+config.ID)
	assert.NotContains(t, string(content), "from-env")
}

func TestPersistID_ConfiguredIDIsLeftAlone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("id: machine-1\n"), 0o600))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	config, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, PersistID(config))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
