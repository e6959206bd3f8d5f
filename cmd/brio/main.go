// Command brio runs the task supervisor poll loop described by the brio
// orchestration substrate: a single process that pulls non-terminal tasks
// from its SQLite store, decomposes them through a Planner, dispatches
// leaf tasks to agents, and drives branch merges to completion.
package main

import (
	"fmt"
	"os"

	"github.com/brioctl/brio/internal/cmd"
)

// Version is the current version of the brio application.
const Version = "0.1.0"

func main() {
	rootCmd := cmd.NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
