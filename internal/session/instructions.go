package session

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/rgovind/neo/internal/framing"
	"go.uber.org/zap"
)

//go:embed prompts/instructions.txt
var instructionsTemplateText string

// commandCallInstructions is the wire-format primer appended after the
// workspace instructions and before each registered command's own help
// text, built with the real framing runes rather than escaped literals
// (agent.py's COMMAND_INSTRUCTIONS in the original implementation).
func commandCallInstructions() string {
	return fmt.Sprintf(`
When executing commands, follow this exact format:

- The command starts with %[1]q
- %[1]q is followed by the command name and then a space.
- Named arguments (--foo) should come before positional arguments.
- If STDIN is required it can be specified with a pipe (%[2]q) after the parameters. STDIN is optional.

Examples:

	%[1]scommand_name --foo v3 v1%[2]sDo something%[3]s
	%[4]sFile updated successfully%[3]s

	%[1]scommand_name --foo v3 v1%[2]sErroneous data%[3]s
	%[5]sError%[3]s

VERY VERY IMPORTANT:
- ALWAYS add %[1]q at the start of the command call.
- ALWAYS add %[3]q at the end of the command call.
- DO NOT make multiple command calls in parallel. Wait for the results to complete first.
- Results MUST start with %[4]q if executed successfully or %[5]q if executed with an error.
`,
		string(framing.CommandStart),
		string(framing.StdinSeparator),
		string(framing.CommandEnd),
		string(framing.SuccessPrefix),
		string(framing.ErrorPrefix),
	)
}

// buildInstructions formats the instructions template with the
// workspace path, appends the contents of <workspace>/.neorules if it
// exists and is non-empty (spec.md §4.7), then appends the command-call
// primer and every registered command's own help text so the model
// always has an up to date list of what it can invoke.
func (s *Session) buildInstructions() (string, error) {
	tmpl, err := template.New("instructions").Parse(instructionsTemplateText)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, struct{ Workspace string }{Workspace: s.Workspace}); err != nil {
		return "", err
	}
	instructions := sb.String()

	neorulesPath := filepath.Join(s.Workspace, ".neorules")
	if info, err := os.Stat(neorulesPath); err == nil && !info.IsDir() {
		content, err := os.ReadFile(neorulesPath)
		if err != nil {
			s.logger.Error("reading .neorules file", zap.Error(err))
		} else if trimmed := strings.TrimSpace(string(content)); trimmed != "" {
			instructions = instructions + "\n\nCustom rules from .neorules:\n" + trimmed
			s.logger.Info("loaded custom rules from .neorules")
		}
	}

	names := s.Registry.Names()
	if len(names) > 0 {
		parts := []string{commandCallInstructions()}
		for _, name := range names {
			help, err := s.Registry.Describe(name)
			if err != nil {
				continue
			}
			parts = append(parts, help)
		}
		instructions = instructions + "\n\n" + strings.Join(parts, "\n\n")
	}

	return instructions, nil
}
