// Package explore implements the read-only exploration sub-agent: a
// short-lived child conversation limited to glob/grep/ls/read, used by
// built-in commands that need to research the workspace without
// cluttering the main conversation with intermediate search results
// (SPEC_FULL.md §5.6). It is an internal session capability, not a
// registered wire-protocol command.
package explore

import (
	"context"
	"fmt"

	"github.com/rgovind/neo/internal/agent"
	"github.com/rgovind/neo/internal/command"
	"github.com/rgovind/neo/internal/message"
)

// MaxIterations bounds how many model turns a single explore task may
// take before it's cut off, mirroring the teacher's
// MaxExploreIterations.
const MaxIterations = 30

// NewReadOnlyRegistry returns a command.Registry exposing only the
// glob/grep/ls/read tools, scoped to workDir.
func NewReadOnlyRegistry(workDir string) *command.Registry {
	r := command.NewRegistry()
	r.MustRegister(&GlobCommand{WorkDir: workDir})
	r.MustRegister(&GrepCommand{WorkDir: workDir})
	r.MustRegister(&LSCommand{WorkDir: workDir})
	r.MustRegister(&ReadCommand{WorkDir: workDir})
	return r
}

func systemPrompt(workDir string) string {
	return fmt.Sprintf(`You are an exploration sub-agent. Your job is to thoroughly research the codebase to answer the given question.

Working directory: %s

This is a READ-ONLY exploration task. You only have access to: glob, grep, ls, read.

When you have enough information, stop calling commands and reply with your findings as plain text. That reply ends the exploration.`, workDir)
}

// Run spawns a child conversation scoped to a read-only command
// registry and drives it until the model replies without any command
// calls, returning that reply as the exploration's summary. It is the
// callback built-in commands invoke when they need to delegate
// research rather than read every candidate file themselves.
func Run(ctx context.Context, client agent.ModelClient, model, workDir, task string) (string, error) {
	registry := NewReadOnlyRegistry(workDir)
	m := agent.NewMachine(client, "explore", agent.DefaultConfig(model))

	state := agent.New(systemPrompt(workDir)).AddMessages(message.NewTextMessage(message.RoleUser, task))

	for i := 0; i < MaxIterations; i++ {
		next, output, err := m.Step(ctx, state, registry)
		if err != nil {
			return "", fmt.Errorf("explore sub-agent: %w", err)
		}
		state = next

		if resp, ok := output.(agent.Response); ok {
			return resp.Message.ModelText(), nil
		}
	}

	return "Explore sub-agent reached maximum iterations without completing.", nil
}
