package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rgovind/neo/internal/clock"
	"github.com/rgovind/neo/internal/command"
	"github.com/rgovind/neo/internal/shell"
)

// FileRewriter is the fallback path update_file uses when its
// @UPDATE/@DELETE script fails to parse or match: it hands the whole
// file and the natural-language instructions to an LLM pass that is
// expected to call write_file itself (spec.md §4.2). Implemented by
// internal/session, which has access to the LLM client and registry;
// defined here to avoid a dependency cycle.
type FileRewriter interface {
	RewriteFile(ctx context.Context, path, instructions, currentContent string) error
}

// Deps bundles everything a built-in command needs to reach outside
// its own statement/data: the workspace root, the session's shell
// registry, its clock, and (for update_file only) its rewrite
// fallback. A *Deps is shared read-only across every command instance
// registered into a session's command.Registry.
type Deps struct {
	Workspace string
	NeoHome   string
	Shells    *shell.Manager
	Clock     clock.Clock
	Rewriter  FileRewriter
}

// resolvePath applies the same workspace-confinement rule the original
// implementation's read_file/write_file commands use: paths under
// NeoHome are allowed anywhere, relative paths are joined to the
// workspace, and absolute paths must already fall within it.
func (d *Deps) resolvePath(path string) (string, error) {
	if d.NeoHome != "" && (strings.HasPrefix(path, d.NeoHome) || strings.HasPrefix(path, "~/.neo")) {
		if strings.HasPrefix(path, "~") {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
		}
		return path, nil
	}
	if !filepath.IsAbs(path) {
		return filepath.Join(d.Workspace, path), nil
	}
	if !strings.HasPrefix(path, d.Workspace) {
		return "", fmt.Errorf("path must be within the workspace: %s", d.Workspace)
	}
	return path, nil
}

// RegisterAll constructs and registers every built-in command into r.
func RegisterAll(r *command.Registry, d *Deps) error {
	cmds := []command.Command{
		&ReadFileCommand{Deps: d},
		&WriteFileCommand{Deps: d},
		&UpdateFileCommand{Deps: d},
		&FileTextSearchCommand{Deps: d},
		&FilePathSearchCommand{Deps: d},
		&ShellRunCommand{Deps: d},
		&ShellViewCommand{Deps: d},
		&ShellWriteCommand{Deps: d},
		&ShellTerminateCommand{Deps: d},
		&WaitCommand{Deps: d},
		&OutputCommand{Deps: d},
	}
	for _, c := range cmds {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}
