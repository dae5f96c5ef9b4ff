package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileTextSearchFindsMatches(t *testing.T) {
	d := newTestDeps(t)
	require.NoError(t, os.WriteFile(filepath.Join(d.Workspace, "a.go"), []byte("package main\n\nfunc main() {}\n"), 0o644))

	cmd := &FileTextSearchCommand{Deps: d}
	res, err := cmd.Execute(context.Background(), `file_text_search func .`, false, "")
	require.NoError(t, err)
	assert.Contains(t, res.Content, "a.go")
}

func TestFileTextSearchNoMatches(t *testing.T) {
	d := newTestDeps(t)
	require.NoError(t, os.WriteFile(filepath.Join(d.Workspace, "a.go"), []byte("package main\n"), 0o644))

	cmd := &FileTextSearchCommand{Deps: d}
	res, err := cmd.Execute(context.Background(), `file_text_search nosuchtoken .`, false, "")
	require.NoError(t, err)
	assert.Equal(t, "No matches found", res.Content)
}

func TestFileTextSearchValidateRequiresPatternAndPath(t *testing.T) {
	d := newTestDeps(t)
	cmd := &FileTextSearchCommand{Deps: d}
	assert.Error(t, cmd.Validate("file_text_search", false, ""))
	assert.Error(t, cmd.Validate("file_text_search pattern", false, ""))
	assert.NoError(t, cmd.Validate("file_text_search pattern .", false, ""))
}

func TestFilePathSearchFindsByName(t *testing.T) {
	d := newTestDeps(t)
	require.NoError(t, os.WriteFile(filepath.Join(d.Workspace, "target.txt"), []byte("x"), 0o644))

	cmd := &FilePathSearchCommand{Deps: d}
	res, err := cmd.Execute(context.Background(), `file_path_search . --file-pattern target.txt`, false, "")
	require.NoError(t, err)
	assert.Contains(t, res.Content, "target.txt")
}

func TestFilePathSearchValidateRejectsBadType(t *testing.T) {
	d := newTestDeps(t)
	cmd := &FilePathSearchCommand{Deps: d}
	assert.Error(t, cmd.Validate("file_path_search . --type x", false, ""))
	assert.NoError(t, cmd.Validate("file_path_search . --type f", false, ""))
}
