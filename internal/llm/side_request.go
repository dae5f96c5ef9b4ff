package llm

import (
	"context"
	"fmt"

	"github.com/rgovind/neo/internal/message"
)

// SideRequest sends a plain, non-framed request outside the main
// command-call pipeline: no stop sequences, no cache-control tagging,
// no retry-on-validation-failure loop. It exists for auxiliary model
// calls that need a single text answer rather than a command-call
// turn — the update_file rewrite fallback is the only caller today,
// grounded on the teacher's SummarizeFrom side-channel call
// (agent/checkpoint.go), which does the same thing for its
// conversation-compaction pass.
func (c *Client) SideRequest(ctx context.Context, model string, messages []message.Message) (string, error) {
	wireMessages, _ := preprocess(messages)
	reply, _, _, err := c.rawRequest(ctx, model, wireMessages, nil)
	if err != nil {
		return "", fmt.Errorf("side request: %w", err)
	}
	return reply.text(), nil
}
