package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rgovind/neo/internal/command"
)

// WriteFileCommand implements `write_file`: overwrites (or creates) a
// file with the data payload, creating parent directories as needed.
type WriteFileCommand struct{ *Deps }

func (c *WriteFileCommand) Name() string { return "write_file" }

func (c *WriteFileCommand) Help() string {
	return "Use write_file PATH｜CONTENT to overwrite (or create) a file with CONTENT."
}

func (c *WriteFileCommand) Validate(statement string, hasData bool, data string) error {
	a, err := parseArgs(statement, nil, nil)
	if err != nil {
		return err
	}
	if _, ok := a.positionalAt(0); !ok {
		return fmt.Errorf("write_file requires a path argument")
	}
	if !hasData {
		return fmt.Errorf("write_file requires file content as data")
	}
	return nil
}

func (c *WriteFileCommand) Execute(ctx context.Context, statement string, hasData bool, data string) (command.Result, error) {
	a, err := parseArgs(statement, nil, nil)
	if err != nil {
		return command.Result{}, err
	}
	path, _ := a.positionalAt(0)

	full, err := c.resolvePath(path)
	if err != nil {
		return command.Result{}, err
	}

	prior, readErr := os.ReadFile(full)
	created := os.IsNotExist(readErr)
	if readErr != nil && !created {
		return command.Result{}, fmt.Errorf("reading existing file: %w", readErr)
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return command.Result{}, fmt.Errorf("creating parent directories: %w", err)
	}
	if err := os.WriteFile(full, []byte(data), 0o644); err != nil {
		return command.Result{}, fmt.Errorf("writing file: %w", err)
	}

	update := fileUpdate(c.Name(), path, string(prior), data, created)
	return command.Result{Content: "File " + strings.ToLower(update.Message) + " successfully", Output: update}, nil
}
