package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rgovind/neo/internal/command"
)

const defaultWaitSeconds = 5

// WaitCommand implements `wait`: sleeps for a number of seconds using
// the session clock, so tests can drive it with a FakeClock instead of
// real time (spec.md §4.2).
type WaitCommand struct{ *Deps }

func (c *WaitCommand) Name() string { return "wait" }

func (c *WaitCommand) Help() string {
	return strings.TrimSpace(`
Use wait [--duration SECONDS] to sleep for a number of seconds. Defaults to 5.
`)
}

func (c *WaitCommand) parse(statement string) (int, error) {
	a, err := parseArgs(statement, nil, nil)
	if err != nil {
		return 0, err
	}
	return a.flagInt("duration", defaultWaitSeconds)
}

func (c *WaitCommand) Validate(statement string, hasData bool, data string) error {
	if hasData {
		return fmt.Errorf("wait does not accept data input")
	}
	duration, err := c.parse(statement)
	if err != nil {
		return err
	}
	if duration < 0 {
		return fmt.Errorf("duration must be a non-negative number")
	}
	return nil
}

func (c *WaitCommand) Execute(ctx context.Context, statement string, hasData bool, data string) (command.Result, error) {
	duration, err := c.parse(statement)
	if err != nil {
		return command.Result{}, err
	}
	if err := c.Clock.Sleep(ctx, time.Duration(duration)*time.Second); err != nil {
		return command.Result{}, err
	}
	return command.Result{Content: fmt.Sprintf("Waited for %d seconds", duration)}, nil
}
