package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rgovind/neo/internal/command"
)

// UpdateFileCommand implements `update_file`: applies a sequence of
// @UPDATE/@DELETE blocks to a file, falling back to an auxiliary model
// pass (via Deps.Rewriter) that re-emits the whole file through
// write_file when the script fails to parse or its anchors don't match
// (spec.md §4.2).
type UpdateFileCommand struct{ *Deps }

func (c *UpdateFileCommand) Name() string { return "update_file" }

func (c *UpdateFileCommand) Help() string {
	return strings.TrimSpace(`
Use update_file PATH｜SCRIPT to apply a sequence of @UPDATE/@DELETE blocks to a file.

@UPDATE blocks have a @@BEFORE section of anchor lines "N:text" identifying the
exact lines to replace, and an @@AFTER section in the same form giving the
replacement. @DELETE blocks list the anchor lines to remove. Blocks apply in
order; if any anchor fails to match the current file, no change is committed
and an auxiliary model pass re-writes the file instead.
`)
}

func (c *UpdateFileCommand) Validate(statement string, hasData bool, data string) error {
	a, err := parseArgs(statement, nil, nil)
	if err != nil {
		return err
	}
	if _, ok := a.positionalAt(0); !ok {
		return fmt.Errorf("update_file requires a path argument")
	}
	if !hasData {
		return fmt.Errorf("update_file requires an update script as data")
	}
	_, err = parseUpdateScript(data)
	return err
}

func (c *UpdateFileCommand) Execute(ctx context.Context, statement string, hasData bool, data string) (command.Result, error) {
	a, err := parseArgs(statement, nil, nil)
	if err != nil {
		return command.Result{}, err
	}
	path, _ := a.positionalAt(0)

	full, err := c.resolvePath(path)
	if err != nil {
		return command.Result{}, err
	}

	raw, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return command.Result{}, fmt.Errorf("file not found: %s", path)
		}
		return command.Result{}, err
	}

	blocks, parseErr := parseUpdateScript(data)
	if parseErr == nil {
		if updated, applyErr := applyUpdateScript(string(raw), blocks); applyErr == nil {
			if err := os.WriteFile(full, []byte(updated), 0o644); err != nil {
				return command.Result{}, fmt.Errorf("writing file: %w", err)
			}
			update := fileUpdate(c.Name(), path, string(raw), updated, false)
			return command.Result{Content: "File updated successfully", Output: update}, nil
		}
	}

	if c.Rewriter == nil {
		if parseErr != nil {
			return command.Result{}, fmt.Errorf("update script could not be parsed: %w", parseErr)
		}
		return command.Result{}, fmt.Errorf("update script anchors did not match the current file contents")
	}

	if err := c.Rewriter.RewriteFile(ctx, path, data, string(raw)); err != nil {
		return command.Result{}, fmt.Errorf("fallback rewrite failed: %w", err)
	}
	rewritten, err := os.ReadFile(full)
	if err != nil {
		return command.Result{}, fmt.Errorf("reading rewritten file: %w", err)
	}
	update := fileUpdate(c.Name(), path, string(raw), string(rewritten), false)
	return command.Result{Content: "File updated successfully", Output: update}, nil
}

// anchorLine is one "N:text" entry from an @@BEFORE/@@AFTER/@DELETE
// section.
type anchorLine struct {
	N    int
	Text string
}

type updateBlock struct {
	isDelete bool
	before   []anchorLine // @UPDATE's @@BEFORE, or @DELETE's line list
	after    []anchorLine // @UPDATE's @@AFTER; empty for @DELETE
}

// parseUpdateScript parses the @UPDATE/@DELETE grammar described in
// spec.md §4.2. Blank lines between sections and blocks are ignored.
func parseUpdateScript(script string) ([]updateBlock, error) {
	lines := strings.Split(script, "\n")
	var blocks []updateBlock

	i := 0
	skipBlank := func() {
		for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
			i++
		}
	}

	for {
		skipBlank()
		if i >= len(lines) {
			break
		}
		header := strings.TrimSpace(lines[i])
		switch header {
		case "@UPDATE":
			i++
			skipBlank()
			if i >= len(lines) || strings.TrimSpace(lines[i]) != "@@BEFORE" {
				return nil, fmt.Errorf("@UPDATE block missing @@BEFORE section")
			}
			i++
			before, next, err := readAnchorLines(lines, i)
			if err != nil {
				return nil, err
			}
			i = next
			skipBlank()
			if i >= len(lines) || strings.TrimSpace(lines[i]) != "@@AFTER" {
				return nil, fmt.Errorf("@UPDATE block missing @@AFTER section")
			}
			i++
			after, next2, err := readAnchorLines(lines, i)
			if err != nil {
				return nil, err
			}
			i = next2
			blocks = append(blocks, updateBlock{before: before, after: after})
		case "@DELETE":
			i++
			del, next, err := readAnchorLines(lines, i)
			if err != nil {
				return nil, err
			}
			i = next
			blocks = append(blocks, updateBlock{isDelete: true, before: del})
		default:
			return nil, fmt.Errorf("expected @UPDATE or @DELETE, got %q", header)
		}
	}

	if len(blocks) == 0 {
		return nil, fmt.Errorf("update script contains no @UPDATE/@DELETE blocks")
	}
	return blocks, nil
}

// readAnchorLines consumes "N:text" lines starting at index i until it
// hits a section header (@UPDATE, @DELETE, @@BEFORE, @@AFTER) or the
// end of input.
func readAnchorLines(lines []string, i int) ([]anchorLine, int, error) {
	var out []anchorLine
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			i++
			continue
		}
		if trimmed == "@UPDATE" || trimmed == "@DELETE" || trimmed == "@@BEFORE" || trimmed == "@@AFTER" {
			break
		}
		idx := strings.Index(lines[i], ":")
		if idx < 0 {
			return nil, 0, fmt.Errorf("malformed anchor line (expected N:text): %q", lines[i])
		}
		n, err := strconv.Atoi(strings.TrimSpace(lines[i][:idx]))
		if err != nil {
			return nil, 0, fmt.Errorf("malformed anchor line number: %q", lines[i])
		}
		out = append(out, anchorLine{N: n, Text: lines[i][idx+1:]})
		i++
	}
	if len(out) == 0 {
		return nil, 0, fmt.Errorf("expected at least one anchor line")
	}
	return out, i, nil
}

// applyUpdateScript applies blocks to content in order. Each block's
// anchor line numbers are shifted by the cumulative line-count delta
// of all prior blocks before being checked against the file, so a
// block can reference line numbers as they appeared in the original
// file even after earlier edits changed the file's length.
func applyUpdateScript(content string, blocks []updateBlock) (string, error) {
	lines := strings.Split(content, "\n")
	offset := 0

	for _, b := range blocks {
		start := b.before[0].N + offset
		end := b.before[len(b.before)-1].N + offset

		if start < 1 || end > len(lines) || start > end {
			return "", fmt.Errorf("anchor range %d-%d is out of bounds", start, end)
		}
		for idx, anchor := range b.before {
			actual := lines[start-1+idx]
			if strings.TrimSpace(anchor.Text) == "" {
				continue
			}
			if actual != anchor.Text {
				return "", fmt.Errorf("anchor line %d did not match: expected %q, got %q", anchor.N, anchor.Text, actual)
			}
		}

		var replacement []string
		for _, a := range b.after {
			replacement = append(replacement, a.Text)
		}

		newLines := make([]string, 0, len(lines)-(end-start+1)+len(replacement))
		newLines = append(newLines, lines[:start-1]...)
		newLines = append(newLines, replacement...)
		newLines = append(newLines, lines[end:]...)
		lines = newLines

		offset += len(replacement) - (end - start + 1)
	}

	return strings.Join(lines, "\n"), nil
}
