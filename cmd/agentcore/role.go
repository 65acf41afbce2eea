package main

import (
	"fmt"
	"strings"

	"github.com/corehive/agentcore/internal/config"
	"github.com/corehive/agentcore/internal/roles"
	"github.com/spf13/cobra"
)

// buildRoleCmd wires spec.md §6's `/role` and `/roles` external interface
// onto the CLI as `role get`/`role list`.
func buildRoleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "role",
		Short: "Inspect the Role Registry",
	}
	cmd.AddCommand(buildRoleListCmd(), buildRoleGetCmd())
	return cmd
}

func loadRegistry() (*roles.Registry, error) {
	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	reg, err := roles.Load(cfg.Roles.Dir)
	if err != nil {
		return nil, fmt.Errorf("load roles from %q: %w", cfg.Roles.Dir, err)
	}
	return reg, nil
}

// buildRoleListCmd implements spec.md §6's `/roles`: list every registered
// role spec.
func buildRoleListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every registered role spec",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry()
			if err != nil {
				return err
			}
			specs := reg.AvailableSpecs()
			out := cmd.OutOrStdout()
			if len(specs) == 0 {
				fmt.Fprintln(out, "No roles registered.")
				return nil
			}
			for _, spec := range specs {
				fmt.Fprintln(out, spec)
			}
			return nil
		},
	}
}

// buildRoleGetCmd implements spec.md §6's `/role <spec>`: describe one role.
func buildRoleGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <spec>",
		Short: "Show one role's resolved definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry()
			if err != nil {
				return err
			}
			role, res, err := reg.Get(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "name:     %s\n", role.Name)
			fmt.Fprintf(out, "group:    %s\n", res.Group)
			fmt.Fprintf(out, "level:    %s\n", role.Level)
			fmt.Fprintf(out, "agentic:  %t\n", role.IsAgentic())
			if len(role.IncludedTools) > 0 {
				fmt.Fprintf(out, "included: %s\n", strings.Join(role.IncludedTools, ", "))
			}
			if len(role.ExcludedTools) > 0 {
				fmt.Fprintf(out, "excluded: %s\n", strings.Join(role.ExcludedTools, ", "))
			}
			if len(role.ParsingTools) > 0 {
				names := make([]string, len(role.ParsingTools))
				for i, pt := range role.ParsingTools {
					names[i] = pt.Name
				}
				fmt.Fprintf(out, "parsing:  %s\n", strings.Join(names, ", "))
			}
			if role.IsAgentic() {
				fmt.Fprintf(out, "spawns:   %s\n", strings.Join(role.EnabledAgents, ", "))
			}
			fmt.Fprintln(out, "---")
			fmt.Fprintln(out, role.SystemMessage)
			return nil
		},
	}
}
