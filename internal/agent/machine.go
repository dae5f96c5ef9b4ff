package agent

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/rgovind/neo/internal/command"
	"github.com/rgovind/neo/internal/framing"
	"github.com/rgovind/neo/internal/llm"
	"github.com/rgovind/neo/internal/message"
)

//go:embed prompts/checkpoint.md
var checkpointInstructions string

// ModelClient is the subset of *llm.Client the state machine depends
// on, so tests can substitute a fake without standing up an HTTP
// server.
type ModelClient interface {
	Process(ctx context.Context, messages []message.Message, model string, validator llm.Validator) (message.Message, error)
}

// Executor is the subset of *command.Registry the state machine needs
// to run a batch of command calls it has already had validated by the
// LLM client's retry loop.
type Executor interface {
	llm.Validator
	ExecuteAll(ctx context.Context, calls []message.CommandCallBlock) []message.ContentBlock
}

// Output is what one Step produces: either a command call paired with
// its results, or a plain assistant message. Both convert back into
// the messages that get appended to State.
type Output interface {
	ToMessages() []message.Message
	IsTerminal() bool
}

// CommandExecution is a Step's output when the model called one or
// more commands: the call and its results, as two messages.
type CommandExecution struct {
	CommandCall    message.Message
	CommandResults message.Message
}

func (o CommandExecution) ToMessages() []message.Message {
	return []message.Message{o.CommandCall, o.CommandResults}
}

// IsTerminal reports whether this execution produced structured
// output, ending the turn.
func (o CommandExecution) IsTerminal() bool {
	_, ok := o.CommandResults.StructuredOutput()
	return ok
}

// Response is a Step's output when the model replied with plain text
// and no command calls.
type Response struct {
	Message message.Message
}

func (o Response) ToMessages() []message.Message { return []message.Message{o.Message} }
func (o Response) IsTerminal() bool              { return true }

// Config holds the state machine's tunable thresholds (spec.md §3.2),
// defaulted the way AgentStateMachine.__init__ reads them from a
// configuration dict.
type Config struct {
	Model string
	// CheckpointInterval is the number of messages between checkpoints.
	CheckpointInterval int
	// HeadTruncationTriggerThreshold is the message count that triggers
	// pruning.
	HeadTruncationTriggerThreshold int
	// HeadTruncationRetention is how many messages must remain after the
	// checkpoint used for pruning.
	HeadTruncationRetention int
}

// DefaultConfig mirrors the original implementation's hard-coded
// defaults (40/100/70).
func DefaultConfig(model string) Config {
	return Config{
		Model:                          model,
		CheckpointInterval:             40,
		HeadTruncationTriggerThreshold: 100,
		HeadTruncationRetention:        70,
	}
}

// Machine is the stateless turn-taking driver: each Step call takes a
// State and returns the next State plus a description of what
// happened, without holding any conversation state itself.
type Machine struct {
	Client    ModelClient
	SessionID string
	Config    Config
}

// NewMachine returns a Machine bound to client for a single session.
func NewMachine(client ModelClient, sessionID string, cfg Config) *Machine {
	return &Machine{Client: client, SessionID: sessionID, Config: cfg}
}

// Step sends state's conversation to the model, executes any command
// calls it returns via registry, and returns the resulting State plus
// the Output produced.
func (m *Machine) Step(ctx context.Context, state State, registry Executor) (State, Output, error) {
	reply, err := m.Client.Process(ctx, state.ToMessages(), m.Config.Model, registry)
	if err != nil {
		return state, nil, fmt.Errorf("agent step: %w", err)
	}

	var output Output
	if reply.HasCommandCalls() {
		calls := reply.CommandCalls()
		results := registry.ExecuteAll(ctx, calls)
		output = CommandExecution{
			CommandCall:    reply,
			CommandResults: message.Message{Role: message.RoleDeveloper, Content: results},
		}
	} else {
		output = Response{Message: reply}
	}

	return state.AddMessages(output.ToMessages()...), output, nil
}

// Checkpoint asks the model to summarize the conversation into a
// structured checkpoint once state has accumulated CheckpointInterval
// messages since the last one, retrying the request until the model
// actually calls `output -d checkpoint` (checkpoint_state in the
// original implementation). It returns state unchanged if a checkpoint
// isn't due yet.
func (m *Machine) Checkpoint(ctx context.Context, state State, registry Executor) (State, error) {
	lastCheckpoint := -1
	for i, msg := range state.Messages {
		if msg.IsCheckpoint() {
			lastCheckpoint = i
		}
	}
	sinceCheckpoint := len(state.Messages) - lastCheckpoint - 1
	if sinceCheckpoint < m.Config.CheckpointInterval {
		return state, nil
	}

	for {
		prefill := fmt.Sprintf("Generating the latest checkpoint - %coutput -d checkpoint%c", framing.CommandStart, framing.StdinSeparator)
		request := state.AddMessages(
			message.NewTextMessage(message.RoleDeveloper, checkpointInstructions),
			message.NewTextMessage(message.RoleAssistant, prefill),
		)

		_, output, err := m.Step(ctx, request, registry)
		if err != nil {
			return state, err
		}

		exec, ok := output.(CommandExecution)
		if !ok {
			continue
		}
		so, ok := exec.CommandResults.StructuredOutput()
		if !ok || so.Destination != "checkpoint" {
			continue
		}

		return state.AddMessages(
			message.Message{
				Role:     message.RoleDeveloper,
				Content:  []message.ContentBlock{message.TextBlock{Text: "Here is a checkpoint of this conversation so far."}},
				Metadata: map[string]string{"is_checkpoint": "true"},
			},
			message.NewTextMessage(message.RoleAssistant, fmt.Sprintf("%v", so.Value)),
			message.NewTextMessage(message.RoleDeveloper, "continue"),
		), nil
	}
}

// Prune returns state with its oldest messages dropped once it has
// grown past HeadTruncationTriggerThreshold, keeping everything from
// the most recent checkpoint that still leaves at least
// HeadTruncationRetention messages after it (prune_state in the
// original implementation). It returns state unchanged if no such
// checkpoint exists or pruning isn't due.
func (m *Machine) Prune(state State) State {
	if len(state.Messages) <= m.Config.HeadTruncationTriggerThreshold {
		return state
	}

	checkpointIndex := -1
	for i := len(state.Messages) - 1; i >= 0; i-- {
		if !state.Messages[i].IsCheckpoint() {
			continue
		}
		numAfter := len(state.Messages) - 1 - i
		if numAfter-2 < m.Config.HeadTruncationRetention {
			continue
		}
		checkpointIndex = i
		break
	}

	if checkpointIndex == -1 {
		return state
	}
	return state.Drop(checkpointIndex)
}

// Registry-shaped helper so callers can pass *command.Registry directly
// without an adapter; it already satisfies Executor.
var _ Executor = (*command.Registry)(nil)
