package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags.
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for brio.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "brio",
		Short: "Agent orchestration substrate",
		Long: `brio drives tasks through planning, branch-isolated execution, and
merge back to a shared workspace.

It polls a SQLite-backed task queue, decomposes objectives through a
Planner, dispatches leaf tasks to agents, and coordinates branch merges
through the vfs session manager and merge engine.`,
		Version:      Version,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewSubmitCommand())

	return cmd
}
