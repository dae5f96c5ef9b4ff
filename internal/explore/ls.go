package explore

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rgovind/neo/internal/command"
)

// LSCommand lists a directory's entries with size annotations.
type LSCommand struct {
	WorkDir string
}

func (c *LSCommand) Name() string { return "ls" }

func (c *LSCommand) Help() string {
	return "ls [--path <dir>]: list directory contents with file/directory indicators and sizes (defaults to the working directory)."
}

func (c *LSCommand) Validate(statement string, hasData bool, data string) error {
	_, err := parseFlags(statement)
	return err
}

func (c *LSCommand) Execute(ctx context.Context, statement string, hasData bool, data string) (command.Result, error) {
	flags, err := parseFlags(statement)
	if err != nil {
		return command.Result{}, err
	}

	dir := c.WorkDir
	if p := flags["path"]; p != "" {
		dir, err = resolveWithin(c.WorkDir, p)
		if err != nil {
			return command.Result{}, err
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return command.Result{}, fmt.Errorf("read directory: %w", err)
	}

	var out strings.Builder
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if entry.IsDir() {
			fmt.Fprintf(&out, "  %s/\n", entry.Name())
		} else {
			fmt.Fprintf(&out, "  %-40s %s\n", entry.Name(), formatSize(info.Size()))
		}
	}
	if out.Len() == 0 {
		return command.Result{Content: "Directory is empty."}, nil
	}
	return command.Result{Content: out.String()}, nil
}

func formatSize(bytes int64) string {
	switch {
	case bytes >= 1<<20:
		return fmt.Sprintf("%.1fMB", float64(bytes)/(1<<20))
	case bytes >= 1<<10:
		return fmt.Sprintf("%.1fKB", float64(bytes)/(1<<10))
	default:
		return fmt.Sprintf("%dB", bytes)
	}
}
