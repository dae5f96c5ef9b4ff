package command

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rgovind/neo/internal/framing"
	"github.com/rgovind/neo/internal/message"
)

// Registry holds the set of commands available to a session and
// dispatches framed command calls to them, mirroring the original
// implementation's Shell class (register/validate/execute/describe).
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
}

// NewRegistry returns an empty registry. Built-in commands are
// registered by the session package via RegisterAll so this package
// has no dependency on any concrete command implementation.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register adds a command, returning an error if the name collides
// with one already registered.
func (r *Registry) Register(c Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.commands[c.Name()]; exists {
		return fmt.Errorf("command: %q is already registered", c.Name())
	}
	r.commands[c.Name()] = c
	return nil
}

// MustRegister is Register but panics on collision, for use during
// fixed start-up wiring where a collision is a programming error.
func (r *Registry) MustRegister(c Command) {
	if err := r.Register(c); err != nil {
		panic(err)
	}
}

func (r *Registry) get(name string) (Command, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.commands[name]
	if !ok {
		return nil, fmt.Errorf("command: %q is not registered", name)
	}
	return c, nil
}

// Names returns every registered command name, sorted, for help text
// and diagnostics.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe returns a command's help text.
func (r *Registry) Describe(name string) (string, error) {
	c, err := r.get(name)
	if err != nil {
		return "", err
	}
	return c.Help(), nil
}

// ParseBlock decodes the content of a CommandCallBlock (markers still
// attached) into a ParsedCommand, verifying the COMMAND_END terminator
// is present the way the original implementation's
// validate_command_calls checks cmd_call.content.endswith(COMMAND_END)
// before attempting to parse it.
func ParseBlock(content string) (ParsedCommand, error) {
	runes := []rune(content)
	if len(runes) < 2 || runes[0] != framing.CommandStart || runes[len(runes)-1] != framing.CommandEnd {
		return ParsedCommand{}, fmt.Errorf("command: call missing start/end marker")
	}
	inner := string(runes[1 : len(runes)-1])
	return ParseCall(inner)
}

// ValidationOutcome pairs a CommandCallBlock with the validation error
// it produced, if any. llm.Client.Process turns any non-nil Err into a
// failed message.CommandResultBlock and sends it back to the model with
// a correction request instead of returning the batch for execution.
type ValidationOutcome struct {
	Call message.CommandCallBlock
	Err  error
}

// ValidateCalls validates a batch of command calls the way the
// original implementation's validate_command_calls does: a call
// missing its end marker, naming an unregistered command, or failing
// its own Validate is reported without being executed. It additionally
// enforces the structured-output combination rules (spec.md §4.3): at
// most one `output` call per batch, and an `output` call may not be
// mixed with any other command in the same batch.
func (r *Registry) ValidateCalls(calls []message.CommandCallBlock) []ValidationOutcome {
	outcomes := make([]ValidationOutcome, 0, len(calls))
	numOutput := 0
	numOther := 0

	for _, call := range calls {
		parsed, err := ParseBlock(call.Content)
		if err != nil {
			outcomes = append(outcomes, ValidationOutcome{Call: call, Err: err})
			continue
		}
		cmd, err := r.get(parsed.Name)
		if err != nil {
			outcomes = append(outcomes, ValidationOutcome{Call: call, Err: err})
			continue
		}
		if err := cmd.Validate(parsed.Statement, parsed.HasData, parsed.Data); err != nil {
			outcomes = append(outcomes, ValidationOutcome{Call: call, Err: err})
			continue
		}
		if parsed.Name == "output" {
			numOutput++
		} else {
			numOther++
		}
		outcomes = append(outcomes, ValidationOutcome{Call: call})
	}

	if numOutput > 1 {
		err := fmt.Errorf("only a single structured output call may be provided at a time")
		for i := range outcomes {
			if outcomes[i].Err == nil {
				outcomes[i].Err = err
			}
		}
	} else if numOutput > 0 && numOther > 0 {
		err := fmt.Errorf("cannot mix structured output with other commands")
		for i := range outcomes {
			if outcomes[i].Err == nil {
				outcomes[i].Err = err
			}
		}
	}

	return outcomes
}

// Execute runs a single already-validated command call and wraps its
// outcome as a content block: a message.StructuredOutputBlock for the
// `output` command, a message.CommandResultBlock for everything else.
// Execute never returns a Go error for a command failure — failures
// are represented as a block with Success == false, so the caller can
// always append the result to the transcript.
func (r *Registry) Execute(ctx context.Context, call message.CommandCallBlock) message.ContentBlock {
	parsed, err := ParseBlock(call.Content)
	if err != nil {
		return message.CommandResultBlock{Content: err.Error(), Success: false, Err: err}
	}

	cmd, err := r.get(parsed.Name)
	if err != nil {
		return message.CommandResultBlock{Content: err.Error(), Success: false, Err: err}
	}

	result, err := cmd.Execute(ctx, parsed.Statement, parsed.HasData, parsed.Data)
	if err != nil {
		return message.CommandResultBlock{Content: err.Error(), Success: false, Err: err}
	}

	if parsed.Name == "output" {
		return message.StructuredOutputBlock{
			Content:     result.Content,
			Value:       result.Value,
			Destination: result.Destination,
		}
	}
	return message.CommandResultBlock{Content: result.Content, Success: true, Output: result.Output}
}

// ExecuteAll runs every call in a batch, in order, collecting a result
// block for each. A caller must validate the batch with ValidateCalls
// first; ExecuteAll does not re-check the structured-output
// combination rules.
func (r *Registry) ExecuteAll(ctx context.Context, calls []message.CommandCallBlock) []message.ContentBlock {
	results := make([]message.ContentBlock, len(calls))
	for i, call := range calls {
		results[i] = r.Execute(ctx, call)
	}
	return results
}
