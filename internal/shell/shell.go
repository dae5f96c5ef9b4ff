// Package shell manages persistent bash processes: one per logical
// shell id, long-lived across many commands, with output captured to a
// per-shell log file and command boundaries detected via markers
// written into that log rather than by reading the process's stdout
// pipe directly (spec.md §5 "Interactive Shell Manager").
package shell

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rgovind/neo/internal/clock"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	renderPollInterval  = 50 * time.Millisecond
	processPollInterval = 100 * time.Millisecond
	terminateGrace      = time.Second
	terminatePollStep   = 100 * time.Millisecond
)

// CommandStatus is the outcome of running or inspecting a command in a
// shell: its captured output, exit code (nil while still running),
// whether the output was truncated to fit the requested line limit,
// and the log file it came from.
type CommandStatus struct {
	Output     string
	ExitCode   *int
	OutputFile string
	Truncated  bool
	TimedOut   bool
}

// Success reports whether the command completed with exit code 0.
func (s CommandStatus) Success() bool {
	return s.ExitCode != nil && *s.ExitCode == 0
}

// Running reports whether the command has not yet produced an exit
// code (still executing, or this status was taken mid-run).
func (s CommandStatus) Running() bool {
	return s.ExitCode == nil
}

// Shell wraps one persistent /bin/bash process together with the
// goroutines that watch its output log for command-boundary markers
// and its liveness.
type Shell struct {
	ID      string
	ExecDir string
	LogFile string

	clock  clock.Clock
	logger *zap.Logger

	mu             sync.Mutex
	cmd            *exec.Cmd
	stdin          *os.File
	active         bool
	runningCommand bool
	lastExitCode   *int

	cancel context.CancelFunc
	group  *errgroup.Group
	done   chan struct{}
}

// New starts a bash process rooted at execDir, writes its combined
// stdout/stderr to a log file under logDir, and launches the render and
// process monitor goroutines. If execDir does not exist, the shell
// falls back to the current working directory, mirroring the original
// implementation's _setup_working_directory.
func New(ctx context.Context, id, execDir, logDir string, clk clock.Clock, logger *zap.Logger) (*Shell, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cwd := execDir
	if info, err := os.Stat(cwd); err != nil || !info.IsDir() {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrShellExecution, err)
		}
		cwd = wd
	}

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating log dir: %v", ErrShellExecution, err)
	}
	logFile := filepath.Join(logDir, "output.log")

	header := fmt.Sprintf("# Shell session started at %s\n# Working directory: %s\n# Shell ID: %s\n",
		time.Now().Format(time.RFC3339), cwd, id)
	if err := os.WriteFile(logFile, []byte(header), 0o644); err != nil {
		return nil, fmt.Errorf("%w: initializing log file: %v", ErrShellExecution, err)
	}

	logFD, err := os.OpenFile(logFile, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: opening log file: %v", ErrShellExecution, err)
	}
	defer logFD.Close()

	cmd := exec.Command("/bin/bash")
	cmd.Dir = cwd
	cmd.Stdout = logFD
	cmd.Stderr = logFD
	cmd.Env = append(os.Environ(), "PS1=", "HISTFILE=/dev/null", "TERM=xterm-256color")

	stdinPipe, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: opening stdin: %v", ErrShellExecution, err)
	}
	stdinFile, ok := stdinPipe.(*os.File)
	if !ok {
		// Fall back: wrap with an os.Pipe-backed writer is unnecessary
		// in practice since exec.Cmd.StdinPipe always returns an
		// *os.File on platforms this runs on.
		return nil, fmt.Errorf("%w: unexpected stdin pipe type", ErrShellExecution)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: starting bash: %v", ErrShellExecution, err)
	}

	s := &Shell{
		ID:      id,
		ExecDir: cwd,
		LogFile: logFile,
		clock:   clk,
		logger:  logger.With(zap.String("shell_id", id)),
		cmd:     cmd,
		stdin:   stdinFile,
		active:  true,
		done:    make(chan struct{}),
	}

	setup := "export PS1=''\nexport HISTFILE=/dev/null\nshopt -s expand_aliases\nset -o pipefail\nPAGER=cat\nstty -echo\n"
	if _, err := s.stdin.WriteString(setup); err != nil {
		_ = s.killProcess()
		return nil, fmt.Errorf("%w: writing shell setup: %v", ErrShellExecution, err)
	}

	groupCtx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(groupCtx)
	s.cancel = cancel
	s.group = group

	group.Go(func() error { return s.renderMonitor(groupCtx) })
	group.Go(func() error { return s.processMonitor(groupCtx) })

	return s, nil
}

// markers are the unique start/end sentinels written into the log file
// around a command's own output, the same scheme as the original
// implementation's _create_command_markers.
type markers struct {
	start string
	end   string
}

func newMarkers(id string, now time.Time) markers {
	ts := now.Unix()
	return markers{
		start: fmt.Sprintf("__CMD_START_%s_%d", id, ts),
		end:   fmt.Sprintf("__CMD_END_%s_%d", id, ts),
	}
}

// Run executes command in the shell, blocking until it completes or
// timeout elapses. On timeout the command is left running in the
// background; a later Run or ViewOutput call will observe whatever
// output has accumulated since.
func (s *Shell) Run(ctx context.Context, command string, timeout time.Duration, maxOutputLines int) (CommandStatus, error) {
	if strings.TrimSpace(command) == "" {
		zero := 0
		return CommandStatus{ExitCode: &zero}, nil
	}

	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return CommandStatus{}, ErrShellTerminated
	}
	if s.runningCommand {
		s.mu.Unlock()
		return CommandStatus{}, ErrShellBusy
	}
	s.runningCommand = true
	s.mu.Unlock()

	m := newMarkers(s.ID, s.clock.Now())
	script := fmt.Sprintf("printf '%s\\n' >> %q\n(%s; printf '%s_%%d\\n' $?) >> %q 2>&1\n",
		m.start, s.LogFile, command, m.end, s.LogFile)

	if _, err := s.stdin.WriteString(script); err != nil {
		s.mu.Lock()
		s.runningCommand = false
		s.mu.Unlock()
		return CommandStatus{}, fmt.Errorf("%w: %v", ErrShellExecution, err)
	}
	s.logger.Info("executing command", zap.String("command", command))

	completed := s.waitForCompletion(ctx, timeout)
	if !completed {
		s.mu.Lock()
		s.runningCommand = false
		s.mu.Unlock()
	}

	return s.readOutput(m.start, m.end, maxOutputLines, !completed)
}

func (s *Shell) waitForCompletion(ctx context.Context, timeout time.Duration) bool {
	deadline := s.clock.Now().Add(timeout)
	for {
		s.mu.Lock()
		running := s.runningCommand
		s.mu.Unlock()
		if !running {
			return true
		}
		if s.clock.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-s.clock.After(20 * time.Millisecond):
		}
	}
}

// ViewOutput returns the most recent output from the shell's log file
// without requiring a command to be in flight, the counterpart of the
// `shell_view` command.
func (s *Shell) ViewOutput(maxOutputLines int) (CommandStatus, error) {
	lines, err := readLines(s.LogFile)
	if err != nil {
		return CommandStatus{}, fmt.Errorf("%w: reading log: %v", ErrShellExecution, err)
	}
	truncated := false
	if len(lines) > maxOutputLines {
		lines = lines[len(lines)-maxOutputLines:]
		truncated = true
	}

	s.mu.Lock()
	exitCode := s.lastExitCode
	s.mu.Unlock()

	return CommandStatus{
		Output:     strings.TrimSpace(strings.Join(lines, "")),
		ExitCode:   exitCode,
		OutputFile: s.LogFile,
		Truncated:  truncated,
	}, nil
}

// WriteInput sends raw input to the shell's stdin, used by
// `shell_write` to answer an interactive prompt.
func (s *Shell) WriteInput(content string, pressEnter bool) error {
	s.mu.Lock()
	active := s.active
	s.mu.Unlock()
	if !active {
		return ErrShellTerminated
	}

	if pressEnter {
		content += "\n"
	}
	if _, err := s.stdin.WriteString(content); err != nil {
		return fmt.Errorf("%w: %v", ErrShellExecution, err)
	}
	return nil
}

// Terminate stops the shell's monitor goroutines and the bash process
// itself: SIGTERM first, then SIGKILL after a grace period if it
// hasn't exited.
func (s *Shell) Terminate() error {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return nil
	}
	if s.runningCommand {
		s.runningCommand = false
		code := -1
		s.lastExitCode = &code
	}
	s.mu.Unlock()

	s.cancel()

	err := s.terminateProcess()

	select {
	case <-s.done:
	case <-time.After(2 * time.Second):
	}
	_ = s.group.Wait()

	s.mu.Lock()
	s.active = false
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("%w: %v", ErrShellTermination, err)
	}
	return nil
}

func (s *Shell) terminateProcess() error {
	if s.cmd.Process == nil {
		return nil
	}
	if s.cmd.ProcessState != nil {
		return nil
	}
	_ = s.cmd.Process.Signal(syscall.SIGTERM)

	deadline := time.Now().Add(terminateGrace)
	for time.Now().Before(deadline) {
		if s.cmd.ProcessState != nil {
			return nil
		}
		time.Sleep(terminatePollStep)
	}
	return s.killProcess()
}

func (s *Shell) killProcess() error {
	if s.cmd.Process == nil {
		return nil
	}
	return s.cmd.Process.Kill()
}

// renderMonitor polls the log file while a command is running, looking
// for its completion marker, mirroring
// Shell._start_render_monitor_thread in the original implementation.
func (s *Shell) renderMonitor(ctx context.Context) error {
	var filePos int64
	ticker := time.NewTicker(renderPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		s.mu.Lock()
		running := s.runningCommand
		s.mu.Unlock()
		if !running {
			continue
		}

		newPos, text, err := readFrom(s.LogFile, filePos)
		if err != nil {
			s.logger.Error("error reading log file", zap.Error(err))
			continue
		}
		filePos = newPos
		if text == "" {
			continue
		}
		s.checkCompletionMarker(text)
	}
}

func (s *Shell) checkCompletionMarker(text string) {
	endPrefix := "__CMD_END_" + s.ID + "_"
	for _, line := range strings.Split(text, "\n") {
		if !strings.Contains(line, endPrefix) {
			continue
		}
		parts := strings.Split(strings.TrimSpace(line), "_")
		if len(parts) < 5 {
			continue
		}
		code, err := strconv.Atoi(parts[len(parts)-1])
		s.mu.Lock()
		if err != nil {
			zero := 0
			s.lastExitCode = &zero
		} else {
			s.lastExitCode = &code
		}
		s.runningCommand = false
		s.mu.Unlock()
		return
	}
}

// processMonitor polls process liveness and marks the shell inactive
// once bash exits, mirroring _start_process_monitor_thread.
func (s *Shell) processMonitor(ctx context.Context) error {
	defer close(s.done)
	ticker := time.NewTicker(processPollInterval)
	defer ticker.Stop()

	exited := make(chan error, 1)
	go func() { exited <- s.cmd.Wait() }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-exited:
			s.mu.Lock()
			s.active = false
			if s.runningCommand {
				s.runningCommand = false
				code := s.cmd.ProcessState.ExitCode()
				s.lastExitCode = &code
			}
			s.mu.Unlock()
			if err != nil {
				s.logger.Info("shell process exited", zap.Error(err))
			}
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Shell) readOutput(startMarker, endMarker string, maxLines int, timedOut bool) (CommandStatus, error) {
	lines, err := readLines(s.LogFile)
	if err != nil {
		return CommandStatus{}, fmt.Errorf("%w: reading log: %v", ErrShellExecution, err)
	}

	startIdx, endIdx := -1, -1
	for i, line := range lines {
		if strings.Contains(line, startMarker) {
			startIdx = i
		}
		if startIdx >= 0 && i > startIdx && strings.Contains(line, endMarker) {
			endIdx = i
			break
		}
	}
	if startIdx == -1 {
		return CommandStatus{}, fmt.Errorf("%w: start marker not found in log", ErrShellExecution)
	}

	var outputLines []string
	if endIdx != -1 {
		outputLines = lines[startIdx+1 : endIdx]
	} else {
		outputLines = lines[startIdx+1:]
	}

	truncated := len(outputLines) > maxLines
	if truncated {
		outputLines = outputLines[:maxLines]
	}

	s.mu.Lock()
	exitCode := s.lastExitCode
	s.mu.Unlock()

	return CommandStatus{
		Output:     strings.TrimSpace(strings.Join(outputLines, "")),
		ExitCode:   exitCode,
		OutputFile: s.LogFile,
		Truncated:  truncated,
		TimedOut:   timedOut,
	}, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text()+"\n")
	}
	return lines, scanner.Err()
}

// readFrom reads a log file starting at byte offset from, returning the
// new offset and the text read.
func readFrom(path string, from int64) (int64, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return from, "", err
	}
	defer f.Close()

	if _, err := f.Seek(from, 0); err != nil {
		return from, "", err
	}
	var sb strings.Builder
	buf := make([]byte, 32*1024)
	total := from
	for {
		n, err := f.Read(buf)
		if n > 0 {
			sb.Write(buf[:n])
			total += int64(n)
		}
		if err != nil {
			break
		}
	}
	return total, sb.String(), nil
}
