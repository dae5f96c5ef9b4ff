package explore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rgovind/neo/internal/command"
)

const maxGlobResults = 100

var skipDirs = map[string]bool{
	".git": true, "node_modules": true, "vendor": true, ".neo": true,
}

func shouldSkipDir(name string) bool {
	return skipDirs[name] || (strings.HasPrefix(name, ".") && name != "." && name != "..")
}

// GlobCommand matches files under WorkDir against a glob pattern,
// supporting `**` for recursive directory matching.
type GlobCommand struct {
	WorkDir string
}

func (c *GlobCommand) Name() string { return "glob" }

func (c *GlobCommand) Help() string {
	return "glob --pattern <glob>: list files under the working directory matching a glob pattern (supports ** for recursive matches)."
}

func (c *GlobCommand) Validate(statement string, hasData bool, data string) error {
	flags, err := parseFlags(statement)
	if err != nil {
		return err
	}
	if flags["pattern"] == "" {
		return fmt.Errorf("glob: --pattern is required")
	}
	return nil
}

func (c *GlobCommand) Execute(ctx context.Context, statement string, hasData bool, data string) (command.Result, error) {
	flags, err := parseFlags(statement)
	if err != nil {
		return command.Result{}, err
	}
	pattern := flags["pattern"]

	var matches []string
	walkErr := filepath.WalkDir(c.WorkDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if shouldSkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(c.WorkDir, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		matched, err := matchGlob(pattern, rel)
		if err != nil {
			return fmt.Errorf("invalid glob pattern: %w", err)
		}
		if matched {
			matches = append(matches, rel)
		}
		return nil
	})
	if walkErr != nil {
		return command.Result{}, walkErr
	}

	if len(matches) == 0 {
		return command.Result{Content: "No files matched the pattern."}, nil
	}

	var out strings.Builder
	limit := len(matches)
	truncated := false
	if limit > maxGlobResults {
		limit = maxGlobResults
		truncated = true
	}
	for _, m := range matches[:limit] {
		out.WriteString(m)
		out.WriteByte('\n')
	}
	if truncated {
		fmt.Fprintf(&out, "\n... and %d more matches", len(matches)-maxGlobResults)
	}
	return command.Result{Content: out.String()}, nil
}

// matchGlob performs glob matching supporting ** for recursive directory matching.
func matchGlob(pattern, name string) (bool, error) {
	if strings.Contains(pattern, "**") {
		return matchDoublestar(pattern, name)
	}
	return filepath.Match(pattern, name)
}

func matchDoublestar(pattern, name string) (bool, error) {
	parts := strings.Split(pattern, "**")
	if len(parts) != 2 {
		return filepath.Match(pattern, name)
	}

	prefix := strings.TrimSuffix(parts[0], "/")
	suffix := strings.TrimPrefix(parts[1], "/")

	if prefix == "" && suffix == "" {
		return true, nil
	}
	if prefix == "" {
		segments := strings.Split(name, "/")
		for i := range segments {
			subpath := strings.Join(segments[i:], "/")
			if matched, _ := filepath.Match(suffix, subpath); matched {
				return true, nil
			}
			if matched, _ := filepath.Match(suffix, segments[len(segments)-1]); matched {
				return true, nil
			}
		}
		return false, nil
	}
	if suffix == "" {
		return strings.HasPrefix(name, prefix+"/") || name == prefix, nil
	}
	if !strings.HasPrefix(name, prefix+"/") && name != prefix {
		return false, nil
	}
	rest := strings.TrimPrefix(name, prefix+"/")
	return matchDoublestar("**/"+suffix, rest)
}
