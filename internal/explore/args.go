package explore

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rgovind/neo/internal/command"
)

// parseFlags tokenizes statement with command.Tokenize and pulls out
// `--name value` pairs, dropping the leading command-name token. It is
// a smaller sibling of internal/commands' own args helper: the explore
// tools only ever take single-value flags, never booleans or repeats.
func parseFlags(statement string) (map[string]string, error) {
	tokens, err := command.Tokenize(statement)
	if err != nil {
		return nil, fmt.Errorf("parsing arguments: %w", err)
	}
	if len(tokens) > 0 {
		tokens = tokens[1:]
	}

	flags := make(map[string]string)
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if !strings.HasPrefix(tok, "--") {
			continue
		}
		name := strings.TrimPrefix(tok, "--")
		if i+1 >= len(tokens) {
			return nil, fmt.Errorf("flag --%s requires a value", name)
		}
		i++
		flags[name] = tokens[i]
	}
	return flags, nil
}

func flagInt(flags map[string]string, name string, def int) (int, error) {
	v, ok := flags[name]
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("--%s must be an integer, got %q", name, v)
	}
	return n, nil
}
