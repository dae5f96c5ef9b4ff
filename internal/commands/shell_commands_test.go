package commands

import (
	"context"
	"testing"
	"time"

	"github.com/rgovind/neo/internal/clock"
	"github.com/rgovind/neo/internal/shell"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newShellTestDeps(t *testing.T) *Deps {
	t.Helper()
	d := newTestDeps(t)
	d.Clock = clock.RealClock{}
	d.Shells = shell.NewManager(t.TempDir(), d.Clock, zap.NewNop())
	return d
}

func TestShellRunCreatesShellAndCapturesOutput(t *testing.T) {
	d := newShellTestDeps(t)
	cmd := &ShellRunCommand{Deps: d}

	res, err := cmd.Execute(context.Background(), "shell_run", true, "echo hello")
	require.NoError(t, err)
	assert.Contains(t, res.Content, "hello")
	assert.Contains(t, res.Content, "exit code: 0")
}

func TestShellRunValidateRequiresCommand(t *testing.T) {
	d := newShellTestDeps(t)
	cmd := &ShellRunCommand{Deps: d}
	assert.Error(t, cmd.Validate("shell_run", false, ""))
}

func TestShellRunValidateRejectsMissingExecDir(t *testing.T) {
	d := newShellTestDeps(t)
	cmd := &ShellRunCommand{Deps: d}
	assert.Error(t, cmd.Validate("shell_run default /no/such/dir", true, "echo hi"))
}

func TestShellViewReturnsPriorOutput(t *testing.T) {
	d := newShellTestDeps(t)
	run := &ShellRunCommand{Deps: d}
	_, err := run.Execute(context.Background(), "shell_run", true, "echo from-run")
	require.NoError(t, err)

	view := &ShellViewCommand{Deps: d}
	res, err := view.Execute(context.Background(), "shell_view", false, "")
	require.NoError(t, err)
	assert.Contains(t, res.Content, "from-run")
}

func TestShellViewUnknownShellErrors(t *testing.T) {
	d := newShellTestDeps(t)
	view := &ShellViewCommand{Deps: d}
	_, err := view.Execute(context.Background(), "shell_view ghost", false, "")
	assert.Error(t, err)
}

func TestShellTerminateThenRunRecreatesShell(t *testing.T) {
	d := newShellTestDeps(t)
	run := &ShellRunCommand{Deps: d}
	_, err := run.Execute(context.Background(), "shell_run", true, "echo one")
	require.NoError(t, err)

	term := &ShellTerminateCommand{Deps: d}
	_, err = term.Execute(context.Background(), "shell_terminate", false, "")
	require.NoError(t, err)

	res, err := run.Execute(context.Background(), "shell_run", true, "echo two")
	require.NoError(t, err)
	assert.Contains(t, res.Content, "two")
}

func TestShellWriteSendsInputToRunningProcess(t *testing.T) {
	d := newShellTestDeps(t)
	run := &ShellRunCommand{Deps: d}
	_, err := run.Execute(context.Background(), "shell_run", true, "read x && echo got=$x")
	require.NoError(t, err)

	write := &ShellWriteCommand{Deps: d}
	_, err = write.Execute(context.Background(), "shell_write", true, "hello")
	require.NoError(t, err)

	time.Sleep(200 * time.Millisecond)
	view := &ShellViewCommand{Deps: d}
	res, err := view.Execute(context.Background(), "shell_view", false, "")
	require.NoError(t, err)
	assert.Contains(t, res.Content, "got=hello")
}
