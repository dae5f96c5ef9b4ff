package explore

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rgovind/neo/internal/command"
)

const maxGrepResults = 50

// GrepCommand searches file contents under WorkDir with an RE2 regex,
// the explore sub-agent's in-process counterpart to the wire-protocol
// file_text_search command (which shells out to grep instead).
type GrepCommand struct {
	WorkDir string
}

func (c *GrepCommand) Name() string { return "grep" }

func (c *GrepCommand) Help() string {
	return "grep --pattern <regex> [--path <dir>] [--include <glob>]: search file contents with an RE2 regex, returning file:line: text matches."
}

func (c *GrepCommand) Validate(statement string, hasData bool, data string) error {
	flags, err := parseFlags(statement)
	if err != nil {
		return err
	}
	if flags["pattern"] == "" {
		return fmt.Errorf("grep: --pattern is required")
	}
	if _, err := regexp.Compile(flags["pattern"]); err != nil {
		return fmt.Errorf("grep: invalid regex (RE2 syntax): %w", err)
	}
	return nil
}

func (c *GrepCommand) Execute(ctx context.Context, statement string, hasData bool, data string) (command.Result, error) {
	flags, err := parseFlags(statement)
	if err != nil {
		return command.Result{}, err
	}
	re, err := regexp.Compile(flags["pattern"])
	if err != nil {
		return command.Result{}, fmt.Errorf("invalid regex (RE2 syntax): %w", err)
	}

	searchDir := c.WorkDir
	if p := flags["path"]; p != "" {
		searchDir, err = resolveWithin(c.WorkDir, p)
		if err != nil {
			return command.Result{}, err
		}
	}
	include := flags["include"]

	var results []string
	totalMatches := 0
	walkErr := filepath.WalkDir(searchDir, func(path string, d os.DirEntry, err error) error {
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
		if include != "" {
			if matched, _ := filepath.Match(include, d.Name()); !matched {
				return nil
			}
		}
		if isBinaryFile(path) {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return nil
		}
		defer f.Close()

		rel, _ := filepath.Rel(c.WorkDir, path)
		rel = filepath.ToSlash(rel)

		scanner := bufio.NewScanner(f)
		lineNum := 0
		for scanner.Scan() {
			lineNum++
			line := scanner.Text()
			if re.MatchString(line) {
				totalMatches++
				if len(results) < maxGrepResults {
					results = append(results, fmt.Sprintf("%s:%d: %s", rel, lineNum, truncateLine(line, 200)))
				}
			}
		}
		return nil
	})
	if walkErr != nil {
		return command.Result{}, walkErr
	}

	if len(results) == 0 {
		return command.Result{Content: "No matches found."}, nil
	}

	var out strings.Builder
	for _, r := range results {
		out.WriteString(r)
		out.WriteByte('\n')
	}
	if totalMatches > maxGrepResults {
		fmt.Fprintf(&out, "\n... and %d more matches", totalMatches-maxGrepResults)
	}
	return command.Result{Content: out.String()}, nil
}

func truncateLine(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func isBinaryFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return true
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil {
		return true
	}
	for _, b := range buf[:n] {
		if b == 0 {
			return true
		}
	}
	return false
}
