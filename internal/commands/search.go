package commands

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rgovind/neo/internal/command"
)

// FileTextSearchCommand implements `file_text_search` by delegating to
// the system `grep` binary, the same approach the original
// implementation takes via run_shell_command rather than walking files
// with an in-Go regex matcher (spec.md §4.2, §5).
type FileTextSearchCommand struct{ *Deps }

func (c *FileTextSearchCommand) Name() string { return "file_text_search" }

func (c *FileTextSearchCommand) Help() string {
	return strings.TrimSpace(`
Use file_text_search PATTERN PATH [--file-pattern GLOB]... [--ignore-case] [--num-context-lines N]
to search file contents. PATTERN is a regular expression; PATH is relative to the workspace.
A --file-pattern beginning with "!" excludes matching files instead of including them.
`)
}

func (c *FileTextSearchCommand) Validate(statement string, hasData bool, data string) error {
	if hasData {
		return fmt.Errorf("file_text_search does not accept data input")
	}
	_, err := c.parse(statement)
	return err
}

type textSearchArgs struct {
	pattern, path   string
	filePatterns    []string
	ignoreCase      bool
	numContextLines int
}

func (c *FileTextSearchCommand) parse(statement string) (textSearchArgs, error) {
	a, err := parseArgs(statement, map[string]bool{"ignore-case": true}, nil)
	if err != nil {
		return textSearchArgs{}, err
	}
	pattern, ok := a.positionalAt(0)
	if !ok {
		return textSearchArgs{}, fmt.Errorf("file_text_search requires a pattern argument")
	}
	path, ok := a.positionalAt(1)
	if !ok {
		return textSearchArgs{}, fmt.Errorf("file_text_search requires a path argument")
	}
	lines, err := a.flagInt("num-context-lines", 0)
	if err != nil {
		return textSearchArgs{}, err
	}
	return textSearchArgs{
		pattern:         pattern,
		path:            path,
		filePatterns:    a.flagAll("file-pattern"),
		ignoreCase:      a.bool("ignore-case"),
		numContextLines: lines,
	}, nil
}

func (c *FileTextSearchCommand) Execute(ctx context.Context, statement string, hasData bool, data string) (command.Result, error) {
	parsed, err := c.parse(statement)
	if err != nil {
		return command.Result{}, err
	}
	full, err := c.resolvePath(parsed.path)
	if err != nil {
		return command.Result{}, err
	}

	grepArgs := []string{"-rn"}
	if parsed.ignoreCase {
		grepArgs = append(grepArgs, "-i")
	}
	if parsed.numContextLines > 0 {
		grepArgs = append(grepArgs, "-C", strconv.Itoa(parsed.numContextLines))
	}
	for _, pat := range parsed.filePatterns {
		if strings.HasPrefix(pat, "!") {
			grepArgs = append(grepArgs, "--exclude="+strings.TrimPrefix(pat, "!"))
		} else {
			grepArgs = append(grepArgs, "--include="+pat)
		}
	}
	grepArgs = append(grepArgs, "-e", parsed.pattern, full)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "grep", grepArgs...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err = cmd.Run()

	if exitErr, ok := asExitError(err); ok {
		if exitErr.ExitCode() == 1 {
			return command.Result{Content: "No matches found"}, nil
		}
		return command.Result{}, fmt.Errorf("grep failed: %s", stderr.String())
	}
	if err != nil {
		return command.Result{}, fmt.Errorf("running grep: %w", err)
	}

	out := strings.TrimSpace(strings.ReplaceAll(stdout.String(), full+"/", ""))
	return command.Result{Content: out}, nil
}

// FilePathSearchCommand implements `file_path_search` by delegating to
// the system `find` binary.
type FilePathSearchCommand struct{ *Deps }

func (c *FilePathSearchCommand) Name() string { return "file_path_search" }

func (c *FilePathSearchCommand) Help() string {
	return strings.TrimSpace(`
Use file_path_search PATH [--file-pattern GLOB]... [--type f|d]
to find files or directories by name under PATH. A --file-pattern beginning
with "!" excludes matching entries instead of including them.
`)
}

func (c *FilePathSearchCommand) Validate(statement string, hasData bool, data string) error {
	if hasData {
		return fmt.Errorf("file_path_search does not accept data input")
	}
	_, err := c.parsePath(statement)
	return err
}

type pathSearchArgs struct {
	path         string
	filePatterns []string
	fileType     string
}

func (c *FilePathSearchCommand) parsePath(statement string) (pathSearchArgs, error) {
	a, err := parseArgs(statement, nil, nil)
	if err != nil {
		return pathSearchArgs{}, err
	}
	path, ok := a.positionalAt(0)
	if !ok {
		return pathSearchArgs{}, fmt.Errorf("file_path_search requires a path argument")
	}
	fileType, _ := a.flag("type")
	if fileType != "" && fileType != "f" && fileType != "d" {
		return pathSearchArgs{}, fmt.Errorf("--type must be 'f' or 'd', got %q", fileType)
	}
	return pathSearchArgs{path: path, filePatterns: a.flagAll("file-pattern"), fileType: fileType}, nil
}

func (c *FilePathSearchCommand) Execute(ctx context.Context, statement string, hasData bool, data string) (command.Result, error) {
	parsed, err := c.parsePath(statement)
	if err != nil {
		return command.Result{}, err
	}
	full, err := c.resolvePath(parsed.path)
	if err != nil {
		return command.Result{}, err
	}

	findArgs := []string{full}
	if parsed.fileType != "" {
		findArgs = append(findArgs, "-type", parsed.fileType)
	}
	for _, pat := range parsed.filePatterns {
		if strings.HasPrefix(pat, "!") {
			findArgs = append(findArgs, "-not", "-name", strings.TrimPrefix(pat, "!"))
		} else {
			findArgs = append(findArgs, "-name", pat)
		}
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "find", findArgs...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return command.Result{}, fmt.Errorf("find failed: %s", stderr.String())
	}

	out := strings.TrimSpace(stdout.String())
	if out == "" {
		out = "No matches found"
	}
	return command.Result{Content: out}, nil
}

func asExitError(err error) (*exec.ExitError, bool) {
	ee, ok := err.(*exec.ExitError)
	return ee, ok
}
