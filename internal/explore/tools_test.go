package explore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestGlobMatchesRecursivePattern(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package a")
	writeFile(t, dir, "sub/b.go", "package b")
	writeFile(t, dir, "sub/c.txt", "not go")

	c := &GlobCommand{WorkDir: dir}
	res, err := c.Execute(context.Background(), "glob --pattern **/*.go", false, "")
	require.NoError(t, err)
	assert.Contains(t, res.Content, "a.go")
	assert.Contains(t, res.Content, "sub/b.go")
	assert.NotContains(t, res.Content, "c.txt")
}

func TestGlobValidateRequiresPattern(t *testing.T) {
	c := &GlobCommand{WorkDir: t.TempDir()}
	assert.Error(t, c.Validate("glob", false, ""))
}

func TestGrepFindsMatchingLines(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "f.go", "func Foo() {}\nfunc Bar() {}\n")

	c := &GrepCommand{WorkDir: dir}
	res, err := c.Execute(context.Background(), "grep --pattern Foo", false, "")
	require.NoError(t, err)
	assert.Contains(t, res.Content, "f.go:1:")
	assert.NotContains(t, res.Content, "Bar")
}

func TestGrepValidateRejectsBadRegex(t *testing.T) {
	c := &GrepCommand{WorkDir: t.TempDir()}
	assert.Error(t, c.Validate("grep --pattern (", false, ""))
}

func TestLSListsEntries(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "one.txt", "hello")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	c := &LSCommand{WorkDir: dir}
	res, err := c.Execute(context.Background(), "ls", false, "")
	require.NoError(t, err)
	assert.Contains(t, res.Content, "one.txt")
	assert.Contains(t, res.Content, "sub/")
}

func TestReadReturnsNumberedLines(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "f.txt", "first\nsecond\nthird\n")

	c := &ReadCommand{WorkDir: dir}
	res, err := c.Execute(context.Background(), "read --path f.txt", false, "")
	require.NoError(t, err)
	assert.Contains(t, res.Content, "   1 │ first")
	assert.Contains(t, res.Content, "   3 │ third")
}

func TestReadRejectsEscapingWorkDir(t *testing.T) {
	dir := t.TempDir()
	c := &ReadCommand{WorkDir: dir}
	_, err := c.Execute(context.Background(), "read --path ../../../../../../../../etc/passwd", false, "")
	assert.Error(t, err)
}

func TestReadValidateRequiresPath(t *testing.T) {
	c := &ReadCommand{WorkDir: t.TempDir()}
	assert.Error(t, c.Validate("read", false, ""))
}
