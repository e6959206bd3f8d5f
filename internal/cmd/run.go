package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/brioctl/brio/internal/agentproc"
	"github.com/brioctl/brio/internal/branchmanager"
	"github.com/brioctl/brio/internal/broadcaster"
	"github.com/brioctl/brio/internal/config"
	"github.com/brioctl/brio/internal/mergeengine"
	"github.com/brioctl/brio/internal/planner"
	"github.com/brioctl/brio/internal/repository"
	"github.com/brioctl/brio/internal/selector"
	"github.com/brioctl/brio/internal/sqlstore"
	"github.com/brioctl/brio/internal/supervisor"
	"github.com/brioctl/brio/internal/vfs"
)

// NewRunCommand creates the run command: it opens the SQLite store, wires
// the Supervisor's boundary collaborators, and polls until interrupted.
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Poll the task queue and drive tasks to completion",
		Long: `Run opens the brio SQLite store, restores any active branches,
and repeatedly polls non-terminal tasks, dispatching each to the handler
matching its current lifecycle status.

Configuration is loaded from .brio/config.yaml under the repository root
unless --config points elsewhere. Press Ctrl-C to stop after the current
poll cycle.`,
		RunE: runCommand,
	}

	cmd.Flags().String("config", "", "Path to config file (default: .brio/config.yaml)")
	cmd.Flags().String("agent-command", "", "Command to invoke per agent dispatch (default: echo)")

	return cmd
}

func runCommand(cmd *cobra.Command, args []string) error {
	explicitConfig, _ := cmd.Flags().GetString("config")
	configPath, err := config.ResolveConfigPath(explicitConfig)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	dsn, err := config.ResolveDSN(cfg)
	if err != nil {
		return fmt.Errorf("resolve store path: %w", err)
	}

	store, err := sqlstore.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("open store at %s: %w", dsn, err)
	}

	tasks := repository.NewTaskRepository(store)
	branches := repository.NewBranchRepository(store)
	mergeRequests := repository.NewMergeRequestRepository(store)

	scratchDir := filepath.Join(filepath.Dir(dsn), "sessions")
	sessions, err := vfs.NewManager(scratchDir)
	if err != nil {
		return fmt.Errorf("init session manager: %w", err)
	}

	agentCommand, _ := cmd.Flags().GetString("agent-command")
	if agentCommand == "" {
		agentCommand = "echo"
	}

	sink := broadcaster.NewConsoleSink(os.Stdout)
	runner := agentproc.NewCommandRunner(agentCommand, nil)

	branchMgr := branchmanager.NewManager(branches, mergeRequests, sessions, mergeengine.NewDefaultRegistry(), runner, sink)
	branchMgr.AutoMerge = cfg.AutoMerge
	if err := branchMgr.LoadActive(); err != nil {
		return fmt.Errorf("restore active branches: %w", err)
	}

	routes := make([]selector.Route, 0, len(cfg.AgentRouting))
	for _, r := range cfg.AgentRouting {
		routes = append(routes, selector.Route{Capability: r.Capability, Agent: r.Agent, Keywords: r.Keywords})
	}
	agentSelector, err := selector.FromRoutes(routes, cfg.DefaultAgent)
	if err != nil {
		return fmt.Errorf("build agent selector: %w", err)
	}

	dispatcher := agentproc.NewCommandDispatcher(agentCommand, nil, filepath.Dir(dsn))

	supCtx := supervisor.NewContext(tasks, planner.New(), dispatcher, agentSelector, branchMgr, sink)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	fmt.Fprintf(os.Stdout, "brio: polling every %s (store: %s)\n", cfg.PollInterval, dsn)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stdout, "brio: shutting down")
			return nil
		case <-ticker.C:
			n, err := supervisor.PollTasks(ctx, supCtx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "brio: poll error: %v\n", err)
				continue
			}
			if n > 0 {
				fmt.Fprintf(os.Stdout, "brio: advanced %d task(s)\n", n)
			}
		}
	}
}
