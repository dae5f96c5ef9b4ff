// Package session wires together everything a running agent needs —
// the shell manager, the LLM client, the agent state machine, and the
// command registry — into a single owner (spec.md §4.7). It is the one
// package allowed to depend on all of internal/agent, internal/llm,
// internal/shell, internal/commands, and internal/explore at once; every
// other package only sees the narrow interface it needs.
package session

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rgovind/neo/internal/agent"
	"github.com/rgovind/neo/internal/clock"
	"github.com/rgovind/neo/internal/command"
	"github.com/rgovind/neo/internal/commands"
	"github.com/rgovind/neo/internal/llm"
	"github.com/rgovind/neo/internal/shell"
	"go.uber.org/zap"
)

// Config is everything a caller must supply to start a session; it
// mirrors the environment variables spec.md §6 names, already resolved
// by internal/config before reaching here.
type Config struct {
	ID        string
	Name      string
	Workspace string
	NeoHome   string
	APIKey    string
	APIURL    string
	Model     string
	SmallModel string
	Ephemeral bool
	Logger    *zap.Logger
}

// Session owns one Shell registry, one Client, one Agent, and one
// Clock for the lifetime of a single agent conversation (spec.md §4.7).
// Other components hold only a non-owning handle back to it (its id,
// clock, workspace) — see spec.md §9's cyclic-reference resolution.
type Session struct {
	ID        string
	Workspace string
	NeoHome   string

	Shells   *shell.Manager
	Client   *llm.Client
	Registry *command.Registry
	Machine  *agent.Machine
	Clock    clock.Clock

	logger    *zap.Logger
	model     string
	smModel   string
	ephemeral bool
	state     agent.State
}

// internalSessionDir is <NEO_HOME>/<id>, the agent's private scratch
// directory (spec.md §4.7), holding the shell logs, persisted agent
// state, and structured session log.
func (s *Session) internalSessionDir() string {
	return filepath.Join(s.NeoHome, s.ID)
}

func (s *Session) stateFilePath() string {
	return filepath.Join(s.internalSessionDir(), "agent_state.json")
}

// New builds a Session: creates its scratch directory, wires the shell
// manager, LLM client, and command registry together (with the session
// itself supplying the update_file rewrite fallback), loads the
// instructions template plus any workspace .neorules, and either starts
// fresh or loads persisted agent state depending on cfg.Ephemeral.
func New(cfg Config) (*Session, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("session: id is required")
	}
	if cfg.Workspace == "" {
		return nil, fmt.Errorf("session: workspace is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Session{
		ID:        cfg.ID,
		Workspace: cfg.Workspace,
		NeoHome:   cfg.NeoHome,
		Clock:     clock.RealClock{},
		logger:    logger,
		model:     cfg.Model,
		smModel:   cfg.SmallModel,
		ephemeral: cfg.Ephemeral,
	}

	if err := os.MkdirAll(s.internalSessionDir(), 0o755); err != nil {
		return nil, fmt.Errorf("session: create session directory: %w", err)
	}

	s.Shells = shell.NewManager(s.internalSessionDir(), s.Clock, logger)
	s.Client = llm.NewClient(cfg.APIKey, cfg.APIURL, logger)

	registry := command.NewRegistry()
	deps := &commands.Deps{
		Workspace: s.Workspace,
		NeoHome:   s.NeoHome,
		Shells:    s.Shells,
		Clock:     s.Clock,
		Rewriter:  s,
	}
	if err := commands.RegisterAll(registry, deps); err != nil {
		return nil, fmt.Errorf("session: register commands: %w", err)
	}
	s.Registry = registry

	instructions, err := s.buildInstructions()
	if err != nil {
		return nil, fmt.Errorf("session: build instructions: %w", err)
	}

	cfgAgent := agent.DefaultConfig(s.model)
	s.Machine = agent.NewMachine(s.Client, s.ID, cfgAgent)

	if cfg.Ephemeral {
		s.state = agent.New(instructions)
	} else {
		state, err := agent.Load(s.stateFilePath(), instructions)
		if err != nil {
			return nil, fmt.Errorf("session: load agent state: %w", err)
		}
		s.state = state
	}

	logger.Info("session initialized",
		zap.String("session_id", s.ID),
		zap.String("workspace", s.Workspace),
		zap.Strings("commands", registry.Names()),
	)

	return s, nil
}

// State returns the session's current agent state, primarily for
// diagnostics and tests; Process is the normal way to advance it.
func (s *Session) State() agent.State { return s.state }

// SelectModel returns the model id to use for a side request: "sm" for
// the secondary smaller model (falling back to the default model if
// none is configured), anything else for the default model (ported
// from Session.select_model in the original implementation).
func (s *Session) SelectModel(size string) string {
	if size == "sm" && s.smModel != "" {
		return s.smModel
	}
	return s.model
}

// Shutdown terminates every shell this session created (spec.md §5
// "the host is expected to shut down the Shell Manager on exit, which
// terminates all child processes").
func (s *Session) Shutdown() error {
	return s.Shells.TerminateAll()
}
