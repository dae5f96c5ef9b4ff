package shell

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/rgovind/neo/internal/clock"
	"go.uber.org/zap"
)

// Manager owns every Shell for a session, keyed by the shell id the
// model supplies in shell_run/-view/-write/-terminate calls. It
// corresponds to ShellManager in the original implementation, reworked
// from Python classmethods over a class-level dict into an instance
// with its own mutex, one per Session.
type Manager struct {
	mu      sync.Mutex
	shells  map[string]*Shell
	clock   clock.Clock
	logger  *zap.Logger
	rootDir string // session's internal shell log directory
}

// NewManager returns a Manager that stores shell logs under
// filepath.Join(rootDir, "shell", <id>).
func NewManager(rootDir string, clk clock.Clock, logger *zap.Logger) *Manager {
	return &Manager{
		shells:  make(map[string]*Shell),
		clock:   clk,
		logger:  logger,
		rootDir: rootDir,
	}
}

func (m *Manager) logDir(id string) string {
	return filepath.Join(m.rootDir, "shell", id)
}

// getOrCreate returns the shell for id, creating it in execDir if it
// doesn't exist yet, or recreating it if execDir has changed since it
// was created (mirrors ShellManager._get_or_create_shell).
func (m *Manager) getOrCreate(ctx context.Context, id, execDir string) (*Shell, error) {
	m.mu.Lock()
	existing, ok := m.shells[id]
	m.mu.Unlock()

	if ok {
		if existing.ExecDir == execDir {
			return existing, nil
		}
		if err := m.Terminate(id); err != nil {
			return nil, err
		}
	}

	s, err := New(ctx, id, execDir, m.logDir(id), m.clock, m.logger)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.shells[id] = s
	m.mu.Unlock()
	return s, nil
}

// Run executes command in the shell named id, creating it in execDir
// if necessary.
func (m *Manager) Run(ctx context.Context, id, execDir, command string, timeout time.Duration, maxOutputLines int) (CommandStatus, error) {
	s, err := m.getOrCreate(ctx, id, execDir)
	if err != nil {
		return CommandStatus{}, err
	}
	return s.Run(ctx, command, timeout, maxOutputLines)
}

// ViewOutput returns the most recent output from an existing shell.
func (m *Manager) ViewOutput(id string, maxOutputLines int) (CommandStatus, error) {
	s, ok := m.get(id)
	if !ok {
		return CommandStatus{}, ErrShellNotFound
	}
	return s.ViewOutput(maxOutputLines)
}

// WriteInput sends input to an existing shell's stdin.
func (m *Manager) WriteInput(id, content string, pressEnter bool) error {
	s, ok := m.get(id)
	if !ok {
		return ErrShellNotFound
	}
	return s.WriteInput(content, pressEnter)
}

// Terminate stops and removes a single shell. Terminating an unknown
// id is not an error, mirroring ShellManager.terminate_shell's
// "already terminated" early return.
func (m *Manager) Terminate(id string) error {
	s, ok := m.get(id)
	if !ok {
		return nil
	}
	err := s.Terminate()
	m.mu.Lock()
	delete(m.shells, id)
	m.mu.Unlock()
	return err
}

// TerminateAll stops every shell owned by this manager, for session
// teardown. It collects every error rather than stopping at the first.
func (m *Manager) TerminateAll() error {
	m.mu.Lock()
	ids := make([]string, 0, len(m.shells))
	for id := range m.shells {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	var errs []error
	for _, id := range ids {
		if err := m.Terminate(id); err != nil {
			errs = append(errs, fmt.Errorf("shell %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) get(id string) (*Shell, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shells[id]
	return s, ok
}
