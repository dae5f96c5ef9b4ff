package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rgovind/neo/internal/command"
)

const defaultReadLimit = 200

// ReadFileCommand implements `read_file`: prints a file's contents,
// optionally with a line range and line numbers (spec.md §4.2).
type ReadFileCommand struct{ *Deps }

func (c *ReadFileCommand) Name() string { return "read_file" }

func (c *ReadFileCommand) Help() string {
	return strings.TrimSpace(`
Use the read_file command to display file contents.

Usage: read_file PATH [--no-line-numbers] [--from N] [--until N] [--limit N]

- PATH (required): file to read, relative to the workspace unless absolute.
- --no-line-numbers: omit the leading "N:" on each line.
- --from/--until: 1-indexed line range (negative counts from the end).
- --limit: maximum lines to show (default 200; -1 for unlimited).
`)
}

func (c *ReadFileCommand) Validate(statement string, hasData bool, data string) error {
	_, err := c.parse(statement)
	return err
}

type readFileArgs struct {
	path          string
	noLineNumbers bool
	from, until   *int
	limit         int
}

func (c *ReadFileCommand) parse(statement string) (readFileArgs, error) {
	a, err := parseArgs(statement, map[string]bool{"no-line-numbers": true}, nil)
	if err != nil {
		return readFileArgs{}, err
	}
	path, ok := a.positionalAt(0)
	if !ok {
		return readFileArgs{}, fmt.Errorf("read_file requires a path argument")
	}

	out := readFileArgs{path: path, noLineNumbers: a.bool("no-line-numbers"), limit: defaultReadLimit}
	if v, ok := a.flag("from"); ok {
		n, err := parseIntFlag("from", v)
		if err != nil {
			return readFileArgs{}, err
		}
		out.from = &n
	}
	if v, ok := a.flag("until"); ok {
		n, err := parseIntFlag("until", v)
		if err != nil {
			return readFileArgs{}, err
		}
		out.until = &n
	}
	if limit, err := a.flagInt("limit", defaultReadLimit); err != nil {
		return readFileArgs{}, err
	} else {
		out.limit = limit
	}
	return out, nil
}

func (c *ReadFileCommand) Execute(ctx context.Context, statement string, hasData bool, data string) (command.Result, error) {
	parsed, err := c.parse(statement)
	if err != nil {
		return command.Result{}, err
	}

	full, err := c.resolvePath(parsed.path)
	if err != nil {
		return command.Result{}, err
	}

	raw, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return command.Result{}, fmt.Errorf("file not found: %s", parsed.path)
		}
		return command.Result{}, err
	}

	text := renderLines(strings.Split(string(raw), "\n"), parsed.from, parsed.until, parsed.limit, !parsed.noLineNumbers)
	return command.Result{Content: text}, nil
}

func parseIntFlag(name, v string) (int, error) {
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return 0, fmt.Errorf("--%s must be an integer, got %q", name, v)
	}
	return n, nil
}

// renderLines applies the read_file line-range/limit/numbering rules:
// negative from/until count from the end of the file, limit truncates
// the selected range (unless -1), and an elision marker is printed in
// place of any lines dropped by truncation.
func renderLines(lines []string, from, until *int, limit int, numbered bool) string {
	// A trailing empty element from a final newline shouldn't count as
	// a line of content.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	total := len(lines)

	resolve := func(n int) int {
		if n < 0 {
			return total + n + 1
		}
		return n
	}

	start := 1
	if from != nil {
		start = resolve(*from)
	}
	end := total
	if until != nil {
		end = resolve(*until)
	}
	if start < 1 {
		start = 1
	}
	if end > total {
		end = total
	}
	if start > end {
		return ""
	}

	selected := lines[start-1 : end]
	truncatedCount := 0
	if limit >= 0 && len(selected) > limit {
		truncatedCount = len(selected) - limit
		selected = selected[:limit]
	}

	var sb strings.Builder
	for i, line := range selected {
		if numbered {
			fmt.Fprintf(&sb, "%d:%s\n", start+i, line)
		} else {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	if truncatedCount > 0 {
		fmt.Fprintf(&sb, "... %d additional lines\n", truncatedCount)
	}
	return strings.TrimRight(sb.String(), "\n")
}
