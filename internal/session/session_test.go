package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rgovind/neo/internal/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func textReplyHandler(text string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": []map[string]any{{"type": "text", "text": text}}}},
			},
		})
	}
}

func testConfig(t *testing.T, apiURL string) Config {
	t.Helper()
	return Config{
		ID:        "test-session",
		Workspace: t.TempDir(),
		NeoHome:   t.TempDir(),
		APIKey:    "test-key",
		APIURL:    apiURL,
		Model:     "test-model",
		Ephemeral: true,
		Logger:    zap.NewNop(),
	}
}

func TestNewCreatesSessionDirectoryAndRegistersCommands(t *testing.T) {
	cfg := testConfig(t, "")
	s, err := New(cfg)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(cfg.NeoHome, cfg.ID))
	require.NoError(t, err)

	names := s.Registry.Names()
	assert.Contains(t, names, "read_file")
	assert.Contains(t, names, "wait")
	assert.Contains(t, names, "output")
	assert.Contains(t, names, "shell_run")
}

func TestBuildInstructionsAppendsNeorules(t *testing.T) {
	cfg := testConfig(t, "")
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Workspace, ".neorules"), []byte("always run tests first"), 0o644))

	s, err := New(cfg)
	require.NoError(t, err)
	assert.Contains(t, s.State().System, "Custom rules from .neorules")
	assert.Contains(t, s.State().System, "always run tests first")
}

func TestProcessReturnsAssistantResponseWhenNoCommandCalls(t *testing.T) {
	server := httptest.NewServer(textReplyHandler("hello there"))
	defer server.Close()

	s, err := New(testConfig(t, server.URL))
	require.NoError(t, err)

	var got []message.Message
	err = s.Process(context.Background(), "hi", func(m message.Message) { got = append(got, m) })
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "hello there", got[0].ModelText())
}

func TestProcessPersistsStateWhenNotEphemeral(t *testing.T) {
	server := httptest.NewServer(textReplyHandler("ok"))
	defer server.Close()

	cfg := testConfig(t, server.URL)
	cfg.Ephemeral = false
	s, err := New(cfg)
	require.NoError(t, err)

	err = s.Process(context.Background(), "hi", func(message.Message) {})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(cfg.NeoHome, cfg.ID, "agent_state.json"))
	require.NoError(t, err)
}

func TestRewriteFileWritesModelReply(t *testing.T) {
	server := httptest.NewServer(textReplyHandler("new file contents"))
	defer server.Close()

	s, err := New(testConfig(t, server.URL))
	require.NoError(t, err)

	path := filepath.Join(s.Workspace, "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("old contents"), 0o644))

	err = s.RewriteFile(context.Background(), path, "replace everything", "old contents")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new file contents", string(data))
}

func TestSelectModelFallsBackToDefault(t *testing.T) {
	cfg := testConfig(t, "")
	s, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "test-model", s.SelectModel("lg"))
	assert.Equal(t, "test-model", s.SelectModel("sm"))

	s.smModel = "small-model"
	assert.Equal(t, "small-model", s.SelectModel("sm"))
}
