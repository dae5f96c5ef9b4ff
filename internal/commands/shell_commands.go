package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rgovind/neo/internal/command"
	"github.com/rgovind/neo/internal/shell"
)

const (
	defaultShellTimeout   = 2 * time.Second
	defaultShellMaxOutput = 100
)

// ShellRunCommand implements `shell_run`: execute a command in a named
// persistent shell, creating it on first use (spec.md §4.2).
type ShellRunCommand struct{ *Deps }

func (c *ShellRunCommand) Name() string { return "shell_run" }

func (c *ShellRunCommand) Help() string {
	return strings.TrimSpace(`
Use shell_run [name] [exec_dir]｜command to run in a persistent bash shell.
name defaults to "default"; exec_dir defaults to the workspace root. If the
command runs longer than a few seconds, the most recent output is returned
while the process keeps running in the background.
`)
}

func (c *ShellRunCommand) parse(statement, data string) (id, execDir, cmd string, err error) {
	a, err := parseArgs(statement, nil, nil)
	if err != nil {
		return "", "", "", err
	}
	id = "default"
	if v, ok := a.positionalAt(0); ok {
		id = v
	}
	if v, ok := a.positionalAt(1); ok {
		execDir = v
	}
	if execDir == "" {
		execDir = c.Workspace
	}
	return id, execDir, data, nil
}

func (c *ShellRunCommand) Validate(statement string, hasData bool, data string) error {
	if !hasData || strings.TrimSpace(data) == "" {
		return fmt.Errorf("shell_run requires a command as data")
	}
	_, execDir, _, err := c.parse(statement, data)
	if err != nil {
		return err
	}
	if info, err := os.Stat(execDir); err != nil || !info.IsDir() {
		return fmt.Errorf("directory %q does not exist", execDir)
	}
	return nil
}

func (c *ShellRunCommand) Execute(ctx context.Context, statement string, hasData bool, data string) (command.Result, error) {
	id, execDir, cmd, err := c.parse(statement, data)
	if err != nil {
		return command.Result{}, err
	}
	status, err := c.Shells.Run(ctx, id, execDir, cmd, defaultShellTimeout, defaultShellMaxOutput)
	if err != nil {
		return command.Result{}, err
	}
	return command.Result{Content: formatShellStatus(status)}, nil
}

// ShellViewCommand implements `shell_view`: returns recent output from
// an existing shell without sending it a new command.
type ShellViewCommand struct{ *Deps }

func (c *ShellViewCommand) Name() string { return "shell_view" }

func (c *ShellViewCommand) Help() string {
	return "Use shell_view [name] to see the most recent output of a shell."
}

func (c *ShellViewCommand) Validate(statement string, hasData bool, data string) error {
	if hasData {
		return fmt.Errorf("shell_view does not accept data input")
	}
	return nil
}

func (c *ShellViewCommand) Execute(ctx context.Context, statement string, hasData bool, data string) (command.Result, error) {
	a, err := parseArgs(statement, nil, nil)
	if err != nil {
		return command.Result{}, err
	}
	id := "default"
	if v, ok := a.positionalAt(0); ok {
		id = v
	}
	status, err := c.Shells.ViewOutput(id, defaultShellMaxOutput)
	if err != nil {
		if errors.Is(err, shell.ErrShellNotFound) {
			return command.Result{}, fmt.Errorf("no shell found with id %q", id)
		}
		return command.Result{}, err
	}
	return command.Result{Content: formatShellStatus(status)}, nil
}

// ShellWriteCommand implements `shell_write`: sends raw input to a
// shell's stdin, for answering an interactive prompt.
type ShellWriteCommand struct{ *Deps }

func (c *ShellWriteCommand) Name() string { return "shell_write" }

func (c *ShellWriteCommand) Help() string {
	return "Use shell_write [name]｜input to send input to a running shell's stdin."
}

func (c *ShellWriteCommand) Validate(statement string, hasData bool, data string) error {
	if !hasData {
		return fmt.Errorf("shell_write requires input as data")
	}
	return nil
}

func (c *ShellWriteCommand) Execute(ctx context.Context, statement string, hasData bool, data string) (command.Result, error) {
	a, err := parseArgs(statement, nil, nil)
	if err != nil {
		return command.Result{}, err
	}
	id := "default"
	if v, ok := a.positionalAt(0); ok {
		id = v
	}
	if err := c.Shells.WriteInput(id, data, true); err != nil {
		if errors.Is(err, shell.ErrShellNotFound) {
			return command.Result{}, fmt.Errorf("no shell found with id %q", id)
		}
		return command.Result{}, err
	}
	return command.Result{Content: "Input sent"}, nil
}

// ShellTerminateCommand implements `shell_terminate`: stops a shell
// process and frees its id for reuse.
type ShellTerminateCommand struct{ *Deps }

func (c *ShellTerminateCommand) Name() string { return "shell_terminate" }

func (c *ShellTerminateCommand) Help() string {
	return "Use shell_terminate [name] to stop a running shell process."
}

func (c *ShellTerminateCommand) Validate(statement string, hasData bool, data string) error {
	if hasData {
		return fmt.Errorf("shell_terminate does not accept data input")
	}
	return nil
}

func (c *ShellTerminateCommand) Execute(ctx context.Context, statement string, hasData bool, data string) (command.Result, error) {
	a, err := parseArgs(statement, nil, nil)
	if err != nil {
		return command.Result{}, err
	}
	id := "default"
	if v, ok := a.positionalAt(0); ok {
		id = v
	}
	if err := c.Shells.Terminate(id); err != nil {
		return command.Result{}, err
	}
	return command.Result{Content: fmt.Sprintf("Shell %q terminated", id)}, nil
}

func formatShellStatus(status shell.CommandStatus) string {
	var sb strings.Builder
	sb.WriteString(status.Output)
	if status.Truncated {
		sb.WriteString("\n[output truncated]")
	}
	if status.Running() {
		sb.WriteString("\n[command still running]")
	} else {
		fmt.Fprintf(&sb, "\n[exit code: %d]", *status.ExitCode)
	}
	return strings.TrimSpace(sb.String())
}
