package session

import (
	"context"
	"fmt"
	"os"

	"github.com/rgovind/neo/internal/explore"
	"github.com/rgovind/neo/internal/message"
)

// rewritePrompt is the system prompt for update_file's fallback pass:
// an auxiliary, non-streaming model call outside the main turn loop
// that re-emits the whole file via write_file when the anchor-based
// @UPDATE/@DELETE script fails to match (spec.md §4.2), grounded on the
// teacher's SummarizeFrom side-channel LLM call pattern
// (agent/checkpoint.go).
const rewritePrompt = `You are rewriting a single file based on natural-language instructions.
Reply with the complete, final contents of the file and nothing else —
no explanation, no markdown code fences, no surrounding commentary.`

// RewriteFile implements commands.FileRewriter: it asks the model to
// produce the whole rewritten file from instructions and the file's
// current content, then writes the result to path itself. Unlike the
// main turn loop, this bypasses command framing entirely — the model's
// reply is taken as the literal new file content.
//
// Before issuing the rewrite itself, it delegates a short research pass
// to the explore sub-agent (SPEC_FULL.md §5.6) so the rewrite prompt can
// include context beyond the one file's own contents — e.g. how other
// files in the workspace reference it — the way the original
// implementation's Agent/Memory pairing lets the assistant look around
// before acting on an instruction it can't satisfy mechanically.
func (s *Session) RewriteFile(ctx context.Context, path, instructions, currentContent string) error {
	userContent := fmt.Sprintf("Instructions:\n%s\n\n", instructions)

	exploreTask := fmt.Sprintf(
		"These instructions are about to be applied to %s:\n%s\n\nSearch the workspace for any other files, call sites, or documentation relevant to carrying them out correctly, and summarize what you find.",
		path, instructions,
	)
	if findings, err := explore.Run(ctx, s.Client, s.model, s.Workspace, exploreTask); err == nil && findings != "" {
		userContent += fmt.Sprintf("Relevant workspace context found by exploration:\n%s\n\n", findings)
	} else if err != nil {
		s.logger.Sugar().Warnw("update_file fallback: exploration pass failed, continuing without it", "path", path, "error", err)
	}

	userContent += fmt.Sprintf("Current contents of %s:\n%s", path, currentContent)

	messages := []message.Message{
		message.NewTextMessage(message.RoleSystem, rewritePrompt),
		message.NewTextMessage(message.RoleUser, userContent),
	}

	reply, err := s.Client.SideRequest(ctx, s.model, messages)
	if err != nil {
		return fmt.Errorf("update_file fallback: rewrite request failed: %w", err)
	}

	if err := os.WriteFile(path, []byte(reply), 0o644); err != nil {
		return fmt.Errorf("update_file fallback: write %s: %w", path, err)
	}
	return nil
}
