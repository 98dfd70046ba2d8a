package main

import (
	"fmt"
	"os"

	"log/slog"

	"github.com/spf13/cobra"

	"github.com/maitre-bot/maitre"
	"github.com/maitre-bot/maitre/internal/logging"
	"github.com/maitre-bot/maitre/pkg/flow"
	"github.com/maitre-bot/maitre/pkg/flows/onboarding"
	"github.com/maitre-bot/maitre/pkg/registry"
)

// buildFlow resolves the state table and callback registry for a command:
// either the built-in onboarding flow or YAML files from --flow.
func buildFlow(cmd *cobra.Command) (*flow.Table, *registry.Registry, error) {
	dir, _ := cmd.Flags().GetString("flow")
	if dir == "" {
		return onboarding.New()
	}

	table, err := flow.LoadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load flow from %s: %w", dir, err)
	}
	// File-based tables reference the stock callbacks by name.
	return table, onboarding.Callbacks(), nil
}

// buildLogger creates the process logger honoring --debug.
func buildLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = slog.LevelDebug
	}
	return logging.New(level)
}

// buildEngine wires a validated engine from the command's flags.
func buildEngine(cmd *cobra.Command, logger *slog.Logger, opts ...maitre.Option) (*maitre.Engine, error) {
	table, callbacks, err := buildFlow(cmd)
	if err != nil {
		return nil, err
	}

	opts = append(opts, maitre.WithLogger(logger))
	return maitre.New(table, callbacks, opts...)
}

// envOr reads an environment variable with a fallback.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
