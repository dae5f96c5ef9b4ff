// Package agent implements the turn-taking state machine that drives
// one session's conversation with the model: sending the next request,
// dispatching the command calls it returns, checkpointing long
// conversations, and pruning old history once it grows past a size
// threshold (spec.md §3).
package agent

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rgovind/neo/internal/message"
)

// State is the conversation so far: a fixed system prompt and the
// ordered messages that follow it. State is immutable — every mutator
// returns a new State rather than editing the receiver's slice, the
// same discipline message.Message follows, so a caller holding an older
// State is never surprised by a later mutation.
type State struct {
	System   string
	Messages []message.Message
}

// New returns an empty State with the given system prompt.
func New(system string) State {
	return State{System: system}
}

// AddMessages returns a copy of s with msgs appended.
func (s State) AddMessages(msgs ...message.Message) State {
	out := make([]message.Message, len(s.Messages), len(s.Messages)+len(msgs))
	copy(out, s.Messages)
	out = append(out, msgs...)
	return State{System: s.System, Messages: out}
}

// Drop returns a copy of s with the first n messages removed.
func (s State) Drop(n int) State {
	if n <= 0 || n > len(s.Messages) {
		return s
	}
	out := make([]message.Message, len(s.Messages)-n)
	copy(out, s.Messages[n:])
	return State{System: s.System, Messages: out}
}

// ToMessages returns the full message list the model sees: the system
// prompt as a RoleSystem message, followed by s.Messages.
func (s State) ToMessages() []message.Message {
	out := make([]message.Message, 0, len(s.Messages)+1)
	out = append(out, message.NewTextMessage(message.RoleSystem, s.System))
	out = append(out, s.Messages...)
	return out
}

type stateFile struct {
	System   string            `json:"system"`
	Messages []message.Message `json:"messages"`
}

// Load reads a persisted State from path. If path does not exist, it
// returns an empty State with the given system prompt rather than an
// error, mirroring AgentState.load's "no file yet" case.
func Load(path, system string) (State, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(system), nil
	}
	if err != nil {
		return State{}, fmt.Errorf("reading agent state: %w", err)
	}

	var sf stateFile
	if err := json.Unmarshal(raw, &sf); err != nil {
		return State{}, fmt.Errorf("parsing agent state: %w", err)
	}
	return State{System: system, Messages: sf.Messages}, nil
}

// Dump persists s to path as JSON, creating parent directories as
// needed.
func (s State) Dump(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	raw, err := json.MarshalIndent(stateFile{System: s.System, Messages: s.Messages}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling agent state: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing agent state: %w", err)
	}
	return nil
}
