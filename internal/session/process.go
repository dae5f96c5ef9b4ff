package session

import (
	"context"
	"fmt"

	"github.com/rgovind/neo/internal/message"
	"go.uber.org/zap"
)

// Process runs one user turn to completion: it appends userMessage,
// then repeatedly steps the agent state machine — executing any
// command calls the model makes — checkpointing and pruning between
// steps, until the step output is terminal (spec.md §4.6). Each
// message produced along the way (the assistant's own replies and the
// developer-role command-result messages) is handed to onMessage as
// soon as it exists, mirroring the original implementation's
// generator-based streaming without needing a channel for a loop this
// strictly sequential (spec.md §5 "at most one outstanding model
// request ... at any time").
func (s *Session) Process(ctx context.Context, userMessage string, onMessage func(message.Message)) error {
	s.state = s.state.AddMessages(message.NewTextMessage(message.RoleUser, userMessage))

	for {
		next, output, err := s.Machine.Step(ctx, s.state, s.Registry)
		if err != nil {
			return fmt.Errorf("session: step failed: %w", err)
		}
		s.state = next

		s.state, err = s.Machine.Checkpoint(ctx, s.state, s.Registry)
		if err != nil {
			s.logger.Warn("checkpoint failed", zap.Error(err))
		}
		s.state = s.Machine.Prune(s.state)

		if !s.ephemeral {
			if err := s.state.Dump(s.stateFilePath()); err != nil {
				s.logger.Warn("persisting agent state failed", zap.Error(err))
			}
		}

		for _, msg := range output.ToMessages() {
			onMessage(msg)
		}

		if output.IsTerminal() {
			return nil
		}
	}
}
