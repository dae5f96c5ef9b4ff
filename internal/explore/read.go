package explore

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rgovind/neo/internal/command"
)

const maxReadLines = 500

// ReadCommand reads a file with line numbers, the explore sub-agent's
// counterpart to the wire-protocol read_file command.
type ReadCommand struct {
	WorkDir string
}

func (c *ReadCommand) Name() string { return "read" }

func (c *ReadCommand) Help() string {
	return "read --path <file> [--start_line N] [--end_line N]: read a file's contents with 1-indexed line numbers."
}

func (c *ReadCommand) Validate(statement string, hasData bool, data string) error {
	flags, err := parseFlags(statement)
	if err != nil {
		return err
	}
	if flags["path"] == "" {
		return fmt.Errorf("read: --path is required")
	}
	return nil
}

func (c *ReadCommand) Execute(ctx context.Context, statement string, hasData bool, data string) (command.Result, error) {
	flags, err := parseFlags(statement)
	if err != nil {
		return command.Result{}, err
	}
	absPath, err := resolveWithin(c.WorkDir, flags["path"])
	if err != nil {
		return command.Result{}, err
	}
	startLine, err := flagInt(flags, "start_line", 1)
	if err != nil {
		return command.Result{}, err
	}
	if startLine <= 0 {
		startLine = 1
	}
	endLine, err := flagInt(flags, "end_line", 0)
	if err != nil {
		return command.Result{}, err
	}

	f, err := os.Open(absPath)
	if err != nil {
		return command.Result{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	var out strings.Builder
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 256*1024), 256*1024)

	lineNum, linesRead, totalLines := 0, 0, 0
	for scanner.Scan() {
		lineNum++
		totalLines = lineNum

		if lineNum < startLine {
			continue
		}
		if endLine > 0 && lineNum > endLine {
			continue
		}

		linesRead++
		if endLine <= 0 && linesRead > maxReadLines {
			for scanner.Scan() {
				lineNum++
				totalLines = lineNum
			}
			fmt.Fprintf(&out, "\n... (file has %d total lines, showing lines %d-%d. Use start_line/end_line to read more.)",
				totalLines, startLine, startLine+maxReadLines-1)
			break
		}

		fmt.Fprintf(&out, "%4d │ %s\n", lineNum, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return command.Result{}, fmt.Errorf("read file: %w", err)
	}

	if out.Len() == 0 {
		return command.Result{Content: "File is empty."}, nil
	}
	return command.Result{Content: out.String()}, nil
}
