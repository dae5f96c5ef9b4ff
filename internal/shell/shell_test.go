package shell

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rgovind/neo/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShellRunCapturesOutputAndExitCode(t *testing.T) {
	dir := t.TempDir()
	s, err := New(context.Background(), "default", dir, t.TempDir(), clock.RealClock{}, nil)
	require.NoError(t, err)
	defer s.Terminate()

	status, err := s.Run(context.Background(), "echo hello", 2*time.Second, 100)
	require.NoError(t, err)
	assert.Contains(t, status.Output, "hello")
	require.NotNil(t, status.ExitCode)
	assert.Equal(t, 0, *status.ExitCode)
	assert.True(t, status.Success())
}

func TestShellRunReportsNonZeroExit(t *testing.T) {
	dir := t.TempDir()
	s, err := New(context.Background(), "default", dir, t.TempDir(), clock.RealClock{}, nil)
	require.NoError(t, err)
	defer s.Terminate()

	status, err := s.Run(context.Background(), "exit 3", 2*time.Second, 100)
	require.NoError(t, err)
	require.NotNil(t, status.ExitCode)
	assert.Equal(t, 3, *status.ExitCode)
	assert.False(t, status.Success())
}

func TestShellRunRejectsConcurrentCommand(t *testing.T) {
	dir := t.TempDir()
	s, err := New(context.Background(), "default", dir, t.TempDir(), clock.RealClock{}, nil)
	require.NoError(t, err)
	defer s.Terminate()

	s.mu.Lock()
	s.runningCommand = true
	s.mu.Unlock()

	_, err = s.Run(context.Background(), "echo hi", time.Second, 100)
	assert.True(t, errors.Is(err, ErrShellBusy))
}

func TestShellTerminateThenRunErrors(t *testing.T) {
	dir := t.TempDir()
	s, err := New(context.Background(), "default", dir, t.TempDir(), clock.RealClock{}, nil)
	require.NoError(t, err)

	require.NoError(t, s.Terminate())

	_, err = s.Run(context.Background(), "echo hi", time.Second, 100)
	assert.True(t, errors.Is(err, ErrShellTerminated))
}

func TestManagerRunCreatesAndReusesShell(t *testing.T) {
	m := NewManager(t.TempDir(), clock.RealClock{}, nil)
	defer m.TerminateAll()

	dir := t.TempDir()
	status, err := m.Run(context.Background(), "default", dir, "echo one", 2*time.Second, 100)
	require.NoError(t, err)
	assert.Contains(t, status.Output, "one")

	status, err = m.Run(context.Background(), "default", dir, "echo two", 2*time.Second, 100)
	require.NoError(t, err)
	assert.Contains(t, status.Output, "two")
}

func TestManagerViewOutputUnknownShellErrors(t *testing.T) {
	m := NewManager(t.TempDir(), clock.RealClock{}, nil)
	_, err := m.ViewOutput("missing", 10)
	assert.True(t, errors.Is(err, ErrShellNotFound))
}

func TestManagerTerminateUnknownShellIsNotAnError(t *testing.T) {
	m := NewManager(t.TempDir(), clock.RealClock{}, nil)
	assert.NoError(t, m.Terminate("missing"))
}
