package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rgovind/neo/internal/command"
)

const defaultOutputDestination = "default"

// destinationShortFlags maps output's short flag spelling (spec.md
// §4.2: `output [-d DEST]`) onto the canonical flag name.
var destinationShortFlags = map[string]string{"d": "destination"}

// OutputCommand implements `output`: the command the model calls to
// emit its final structured result, rather than being invoked as an
// ordinary tool. Registry.ValidateCalls enforces that it never shares
// a batch with other commands (spec.md §4.2).
type OutputCommand struct{ *Deps }

func (c *OutputCommand) Name() string { return "output" }

func (c *OutputCommand) Help() string {
	return strings.TrimSpace(`
Use output [-d DESTINATION]｜VALUE to emit structured output. VALUE
may be a JSON value or raw text. DESTINATION defaults to "default";
"checkpoint" marks the value as a durable checkpoint result. An output call
must be the only command in its batch.
`)
}

func (c *OutputCommand) Validate(statement string, hasData bool, data string) error {
	if !hasData {
		return fmt.Errorf("output requires a value as data")
	}
	_, err := parseArgs(statement, nil, destinationShortFlags)
	return err
}

func (c *OutputCommand) Execute(ctx context.Context, statement string, hasData bool, data string) (command.Result, error) {
	a, err := parseArgs(statement, nil, destinationShortFlags)
	if err != nil {
		return command.Result{}, err
	}
	destination := defaultOutputDestination
	if v, ok := a.flag("destination"); ok {
		destination = v
	}

	var value any
	if err := json.Unmarshal([]byte(data), &value); err != nil {
		value = data
	}

	return command.Result{
		Content:     "Successfully processed output.",
		Value:       value,
		Destination: destination,
	}, nil
}
