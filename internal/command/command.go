// Package command defines the Command interface, the framed-call parser,
// and the Registry that dispatches parsed commands to their
// implementations (spec.md §4 "Command Registry & Wire Protocol").
package command

import (
	"context"

	"github.com/rgovind/neo/internal/message"
)

// Result is what a Command.Execute call produces before it is wrapped
// into a message.CommandResultBlock or message.StructuredOutputBlock by
// the Registry.
type Result struct {
	Content string
	// Value and Destination are only meaningful for the `output`
	// command; every other command leaves them zero.
	Value       any
	Destination string
	// Output is the typed payload write_file/update_file attach (spec.md
	// §3 CommandResult.commandOutput); every other command leaves it nil.
	Output message.CommandOutput
}

// Command is one entry in the wire protocol: a name the model can
// invoke, argument validation, and execution against a session.
//
// Validate and Execute both receive the already-split statement (the
// portion of the call before any STDIN_SEPARATOR) and the optional data
// payload (the portion after it), mirroring the original
// implementation's parse/validate/execute split so that a malformed
// call can be rejected before anything runs.
type Command interface {
	Name() string
	// Help returns the command's usage documentation, shown to the
	// model when it asks for help or gets a validation error.
	Help() string
	// Validate checks a statement/data pair for well-formedness without
	// side effects. It returns a user-facing error describing what's
	// wrong, or nil.
	Validate(statement string, hasData bool, data string) error
	// Execute runs the command. ctx carries cancellation for commands
	// that perform I/O (shell commands, searches delegated to external
	// binaries).
	Execute(ctx context.Context, statement string, hasData bool, data string) (Result, error)
}

// ParsedCommand is the decoded form of a raw call statement: a command
// name, the full statement it was found in, and an optional data
// payload split off at the first STDIN_SEPARATOR.
type ParsedCommand = message.ParsedCommand
