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

func TestApplyUpdateScriptReplacesAnchoredLines(t *testing.T) {
	content := "one\ntwo\nthree\n"
	blocks := []updateBlock{
		{
			before: []anchorLine{{N: 2, Text: "two"}},
			after:  []anchorLine{{N: 2, Text: "TWO"}, {N: 3, Text: "TWO.5"}},
		},
	}
	got, err := applyUpdateScript(content, blocks)
	require.NoError(t, err)
	assert.Equal(t, "one\nTWO\nTWO.5\nthree\n", got)
}

func TestApplyUpdateScriptShiftsLaterAnchorsByOffset(t *testing.T) {
	content := "one\ntwo\nthree\nfour\n"
	blocks := []updateBlock{
		{
			before: []anchorLine{{N: 1, Text: "one"}},
			after:  []anchorLine{{N: 1, Text: "ONE"}, {N: 2, Text: "ONE.5"}},
		},
		{
			isDelete: true,
			before:   []anchorLine{{N: 3, Text: "three"}},
		},
	}
	got, err := applyUpdateScript(content, blocks)
	require.NoError(t, err)
	assert.Equal(t, "ONE\nONE.5\ntwo\nfour\n", got)
}

func TestApplyUpdateScriptFailsOnAnchorMismatch(t *testing.T) {
	content := "one\ntwo\n"
	blocks := []updateBlock{
		{before: []anchorLine{{N: 1, Text: "nope"}}, after: []anchorLine{{N: 1, Text: "x"}}},
	}
	_, err := applyUpdateScript(content, blocks)
	assert.Error(t, err)
}

func TestParseUpdateScriptRoundTrip(t *testing.T) {
	script := "@UPDATE\n@@BEFORE\n1:one\n@@AFTER\n1:ONE\n@DELETE\n3:three\n"
	blocks, err := parseUpdateScript(script)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.False(t, blocks[0].isDelete)
	assert.True(t, blocks[1].isDelete)
}

func TestParseUpdateScriptRejectsMalformedAnchor(t *testing.T) {
	_, err := parseUpdateScript("@UPDATE\n@@BEFORE\nnotanumber\n@@AFTER\n1:x\n")
	assert.Error(t, err)
}

func TestUpdateFileExecuteAppliesScript(t *testing.T) {
	d := newTestDeps(t)
	path := filepath.Join(d.Workspace, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\nthree\n"), 0o644))

	cmd := &UpdateFileCommand{Deps: d}
	script := "@UPDATE\n@@BEFORE\n2:two\n@@AFTER\n2:TWO\n"
	res, err := cmd.Execute(context.Background(), "update_file a.txt", true, script)
	require.NoError(t, err)
	assert.Equal(t, "File updated successfully", res.Content)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one\nTWO\nthree\n", string(got))

	update, ok := res.Output.(message.FileUpdate)
	require.True(t, ok)
	assert.Equal(t, "Updated", update.Message)
	assert.Contains(t, update.Diff, "-two")
	assert.Contains(t, update.Diff, "+TWO")
}

type fakeRewriter struct {
	called     bool
	gotPath    string
	gotContent string
	gotInstr   string
	returnErr  error
}

func (f *fakeRewriter) RewriteFile(ctx context.Context, path, instructions, currentContent string) error {
	f.called = true
	f.gotPath = path
	f.gotInstr = instructions
	f.gotContent = currentContent
	return f.returnErr
}

func TestUpdateFileFallsBackToRewriterOnAnchorMismatch(t *testing.T) {
	d := newTestDeps(t)
	path := filepath.Join(d.Workspace, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\n"), 0o644))

	rewriter := &fakeRewriter{}
	d.Rewriter = rewriter
	cmd := &UpdateFileCommand{Deps: d}

	script := "@UPDATE\n@@BEFORE\n1:nope\n@@AFTER\n1:ONE\n"
	res, err := cmd.Execute(context.Background(), "update_file a.txt", true, script)
	require.NoError(t, err)
	assert.Equal(t, "File updated successfully", res.Content)
	assert.True(t, rewriter.called)
	assert.Equal(t, "a.txt", rewriter.gotPath)

	_, ok := res.Output.(message.FileUpdate)
	assert.True(t, ok)
}

func TestUpdateFileWithoutRewriterSurfacesError(t *testing.T) {
	d := newTestDeps(t)
	path := filepath.Join(d.Workspace, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\n"), 0o644))

	cmd := &UpdateFileCommand{Deps: d}
	script := "@UPDATE\n@@BEFORE\n1:nope\n@@AFTER\n1:ONE\n"
	_, err := cmd.Execute(context.Background(), "update_file a.txt", true, script)
	assert.Error(t, err)
}
