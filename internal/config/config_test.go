package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFailsWithoutAPIKey(t *testing.T) {
	t.Setenv("API_KEY", "")
	_, err := Load(t.TempDir())
	require.Error(t, err)
}

func TestLoadReadsEnvironmentVariables(t *testing.T) {
	t.Setenv("API_KEY", "env-key")
	t.Setenv("MODEL_ID", "env-model")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.APIKey)
	assert.Equal(t, "env-model", cfg.Model)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.APIURL)
}

func TestLoadMergesWorkspaceDotEnv(t *testing.T) {
	t.Setenv("API_KEY", "")
	workspace := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(workspace, ".env"), []byte("API_KEY=dotenv-key\nMODEL_ID=dotenv-model\n"), 0o644))

	cfg, err := Load(workspace)
	require.NoError(t, err)
	assert.Equal(t, "dotenv-key", cfg.APIKey)
	assert.Equal(t, "dotenv-model", cfg.Model)
}

func TestLoadAppliesNeoHomeConfigYamlModelDefaults(t *testing.T) {
	t.Setenv("API_KEY", "override-key")
	neoHome := t.TempDir()
	t.Setenv("NEO_HOME", neoHome)
	require.NoError(t, os.WriteFile(filepath.Join(neoHome, "config.yaml"), []byte("model_id: configured-model\nsm_model_id: configured-sm-model\n"), 0o644))

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "configured-model", cfg.Model)
	assert.Equal(t, "configured-sm-model", cfg.SmModel)
}

func TestLoadEnvTakesPrecedenceOverConfigYaml(t *testing.T) {
	t.Setenv("API_KEY", "k")
	t.Setenv("MODEL_ID", "env-wins")
	neoHome := t.TempDir()
	t.Setenv("NEO_HOME", neoHome)
	require.NoError(t, os.WriteFile(filepath.Join(neoHome, "config.yaml"), []byte("model_id: should-not-be-used\n"), 0o644))

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "env-wins", cfg.Model)
}
