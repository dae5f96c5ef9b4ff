package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rgovind/neo/internal/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileCreatesParentDirs(t *testing.T) {
	d := newTestDeps(t)
	cmd := &WriteFileCommand{Deps: d}

	res, err := cmd.Execute(context.Background(), "write_file nested/dir/a.txt", true, "hello")
	require.NoError(t, err)
	assert.Equal(t, "File created successfully", res.Content)

	got, err := os.ReadFile(filepath.Join(d.Workspace, "nested/dir/a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	update, ok := res.Output.(message.FileUpdate)
	require.True(t, ok)
	assert.Equal(t, "write_file", update.Name)
	assert.Equal(t, "Created", update.Message)
	assert.Contains(t, update.Diff, "+hello")
}

func TestWriteFileProducesDiffOnOverwrite(t *testing.T) {
	d := newTestDeps(t)
	require.NoError(t, os.WriteFile(filepath.Join(d.Workspace, "a.txt"), []byte("one\ntwo\n"), 0o644))
	cmd := &WriteFileCommand{Deps: d}

	res, err := cmd.Execute(context.Background(), "write_file a.txt", true, "one\nTWO\n")
	require.NoError(t, err)
	assert.Equal(t, "File updated successfully", res.Content)

	update, ok := res.Output.(message.FileUpdate)
	require.True(t, ok)
	assert.Equal(t, "Updated", update.Message)
	assert.Contains(t, update.Diff, "-two")
	assert.Contains(t, update.Diff, "+TWO")
}

func TestWriteFileValidateRequiresPathAndData(t *testing.T) {
	d := newTestDeps(t)
	cmd := &WriteFileCommand{Deps: d}

	assert.Error(t, cmd.Validate("write_file", true, "x"))
	assert.Error(t, cmd.Validate("write_file a.txt", false, ""))
	assert.NoError(t, cmd.Validate("write_file a.txt", true, "x"))
}
