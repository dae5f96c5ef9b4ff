package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/rgovind/neo/internal/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSideRequestReturnsPlainText(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Empty(t, req.Stop)

		w.WriteHeader(200)
		_ = json.NewEncoder(w).Encode(response{
			Choices: []choice{{Message: wireMessage{Role: "assistant", Content: []wireBlock{{Type: "text", Text: "rewritten file contents"}}}}},
		})
	})

	text, err := c.SideRequest(context.Background(), "m", []message.Message{
		message.NewTextMessage(message.RoleSystem, "rewrite it"),
		message.NewTextMessage(message.RoleUser, "here is the file"),
	})
	require.NoError(t, err)
	assert.Equal(t, "rewritten file contents", text)
}
