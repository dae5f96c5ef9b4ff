package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rgovind/neo/internal/config"
	"github.com/rgovind/neo/internal/logging"
	"github.com/rgovind/neo/internal/message"
	"github.com/rgovind/neo/internal/session"
	"github.com/spf13/cobra"
)

// cliOptions holds the flags newRootCommand binds; runChat resolves
// them into a session.Config in PersistentPreRunE's style (spec.md §6
// CLI surface, generalized onto cobra per SPEC_FULL.md §2).
type cliOptions struct {
	historyFile string
	verbosity   int
	model       string
	smModel     string
}

func newRootCommand() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:   "neo [workspace]",
		Short: "An LLM-driven autonomous coding agent",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := "."
			if len(args) == 1 {
				workspace = args[0]
			}
			return runChat(cmd, workspace, opts)
		},
	}

	root.Flags().StringVar(&opts.historyFile, "history-file", "", "path to a file recording turn-by-turn input history")
	root.Flags().CountVarP(&opts.verbosity, "verbose", "v", "increase operational log verbosity (-v, -vv)")
	root.Flags().StringVar(&opts.model, "model", "", "override the default model")
	root.Flags().StringVar(&opts.smModel, "sm-model", "", "override the secondary smaller model")

	return root
}

func runChat(cmd *cobra.Command, workspace string, opts *cliOptions) error {
	workspace, err := resolveWorkspace(workspace)
	if err != nil {
		return err
	}

	cfg, err := config.Load(workspace)
	if err != nil {
		return err
	}
	if opts.model != "" {
		cfg.Model = opts.model
	}
	if opts.smModel != "" {
		cfg.SmModel = opts.smModel
	}

	logger := logging.NewOperational(opts.verbosity)
	defer logger.Sync()

	sess, err := session.New(session.Config{
		ID:         uuid.NewString(),
		Workspace:  workspace,
		NeoHome:    cfg.NeoHome,
		APIKey:     cfg.APIKey,
		APIURL:     cfg.APIURL,
		Model:      cfg.Model,
		SmallModel: cfg.SmModel,
		Ephemeral:  false,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer sess.Shutdown()

	ctx, stop := signalContext()
	defer stop()

	var historyOut *os.File
	if opts.historyFile != "" {
		historyOut, err = os.OpenFile(opts.historyFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open history file: %w", err)
		}
		defer historyOut.Close()
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "neo — %s\n\n", workspace)

	reader := bufio.NewReader(cmd.InOrStdin())
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(out, "> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Fprintln(out)
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}
		if historyOut != nil {
			fmt.Fprintln(historyOut, line)
		}

		err = sess.Process(ctx, line, func(m message.Message) {
			printMessage(out, m)
		})
		if err != nil {
			if ctx.Err() != nil {
				fmt.Fprintln(out, "\ninterrupted")
				return nil
			}
			fmt.Fprintf(out, "error: %s\n", err)
		}
	}
}

func printMessage(out io.Writer, m message.Message) {
	text := m.DisplayText()
	if text == "" {
		return
	}
	fmt.Fprintf(out, "%s\n\n", text)
}

func resolveWorkspace(path string) (string, error) {
	if path == "" {
		path = "."
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve workspace: %w", err)
	}
	return abs, nil
}

// signalContext returns a context cancelled on a first SIGINT, and
// hard-exits the process on a second SIGINT within one second or on
// any SIGTERM, matching spec.md §6's "SIGINT twice quickly ... or
// SIGTERM exits immediately".
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 2)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		var lastInterrupt time.Time
		for s := range sig {
			if s == syscall.SIGTERM {
				os.Exit(0)
			}
			now := time.Now()
			if !lastInterrupt.IsZero() && now.Sub(lastInterrupt) < time.Second {
				os.Exit(0)
			}
			lastInterrupt = now
			cancel()
		}
	}()

	return ctx, func() {
		signal.Stop(sig)
		close(sig)
		cancel()
	}
}
