// Package commands implements the built-in wire-protocol commands:
// file access, file search, shell control, waiting, and structured
// output (spec.md §5 "Built-in Commands").
package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rgovind/neo/internal/command"
)

// args is a small argparse-alike over an already-tokenized statement,
// enough to cover the flag shapes the built-in commands use: boolean
// flags, single-value flags, repeatable flags, and positional
// arguments. It deliberately does not support every argparse feature
// (subcommands, short-flag clustering); the built-in commands never
// need more than this.
type args struct {
	positional []string
	flags      map[string][]string
	bools      map[string]bool
}

// parseArgs tokenizes statement with command.Tokenize and sorts the
// result into positionals, repeatable value flags (boolFlags excluded),
// and boolean flags. shortFlags maps a single-dash spelling (e.g. "d")
// to the canonical long flag name it's short for (e.g. "destination");
// a "-x" token with no entry in shortFlags falls through to positional,
// so numeric-looking positionals never get misread as flags.
func parseArgs(statement string, boolFlags map[string]bool, shortFlags map[string]string) (*args, error) {
	tokens, err := command.Tokenize(statement)
	if err != nil {
		return nil, fmt.Errorf("parsing arguments: %w", err)
	}
	// First token is the command name; drop it.
	if len(tokens) > 0 {
		tokens = tokens[1:]
	}

	a := &args{flags: make(map[string][]string), bools: make(map[string]bool)}
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		var name string
		switch {
		case strings.HasPrefix(tok, "--"):
			name = strings.TrimPrefix(tok, "--")
		case strings.HasPrefix(tok, "-") && len(tok) > 1 && shortFlags[strings.TrimPrefix(tok, "-")] != "":
			name = shortFlags[strings.TrimPrefix(tok, "-")]
		default:
			a.positional = append(a.positional, tok)
			continue
		}
		if boolFlags[name] {
			a.bools[name] = true
			continue
		}
		if i+1 >= len(tokens) {
			return nil, fmt.Errorf("flag %s requires a value", tok)
		}
		i++
		a.flags[name] = append(a.flags[name], tokens[i])
	}
	return a, nil
}

func (a *args) positionalAt(i int) (string, bool) {
	if i < 0 || i >= len(a.positional) {
		return "", false
	}
	return a.positional[i], true
}

func (a *args) flag(name string) (string, bool) {
	vs, ok := a.flags[name]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[len(vs)-1], true
}

func (a *args) flagAll(name string) []string {
	return a.flags[name]
}

func (a *args) flagInt(name string, def int) (int, error) {
	v, ok := a.flag(name)
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("--%s must be an integer, got %q", name, v)
	}
	return n, nil
}

func (a *args) bool(name string) bool {
	return a.bools[name]
}
