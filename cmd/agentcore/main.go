// Package main provides the CLI entry point for agentcore.
//
// The CLI is an external collaborator boundary, not part of the core (spec
// §1): it exists only to exercise the Role Registry's read surface described
// in spec.md §6 (`/role`, `/roles`) from a terminal, the way the teacher's
// `cmd/nexus` wraps its own internal packages in a cobra tree.
//
// # Basic Usage
//
//	agentcore role list
//	agentcore role get researcher
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev" // populated by -ldflags at build time, as in cmd/nexus
	commit  = "none"

	configPath string
	envFile    string
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := buildRootCmd().Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with all subcommands attached,
// separated from main so it can be exercised directly in tests.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "agentcore",
		Short:        "agentcore - Role Registry inspection CLI",
		Version:      fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to agentcore config file (yaml or json)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional .env file to load before reading config")
	rootCmd.AddCommand(buildRoleCmd())
	return rootCmd
}
