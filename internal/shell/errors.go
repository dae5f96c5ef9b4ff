package shell

import "errors"

// Sentinel errors surfaced by shell operations. Commands in
// internal/commands match against these with errors.Is to decide how
// to render a failure back to the model.
var (
	ErrShellNotFound    = errors.New("shell: no shell with that id")
	ErrShellBusy        = errors.New("shell: another command is already running")
	ErrShellTerminated  = errors.New("shell: shell process has terminated")
	ErrShellExecution   = errors.New("shell: command execution failed")
	ErrShellTermination = errors.New("shell: failed to terminate shell")
)
