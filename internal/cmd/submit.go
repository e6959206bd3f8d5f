package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brioctl/brio/internal/config"
	"github.com/brioctl/brio/internal/domain"
	"github.com/brioctl/brio/internal/repository"
	"github.com/brioctl/brio/internal/sqlstore"
)

// NewSubmitCommand creates the submit command: it enqueues a single
// top-level pending task for the run loop to plan and dispatch.
func NewSubmitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit <objective>",
		Short: "Enqueue a new top-level task",
		Long: `Submit inserts a Pending task with the given objective as its
content. The running supervisor picks it up on its next poll cycle,
planning it into subtasks or dispatching it directly if it is a leaf.`,
		Args: cobra.MinimumNArgs(1),
		RunE: submitCommand,
	}

	cmd.Flags().Uint8("priority", uint8(domain.PriorityDefault), "Task priority (0-255, higher runs first)")
	cmd.Flags().String("config", "", "Path to config file (default: .brio/config.yaml)")

	return cmd
}

func submitCommand(cmd *cobra.Command, args []string) error {
	content := strings.Join(args, " ")

	priority, _ := cmd.Flags().GetUint8("priority")

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

	task, err := domain.NewTask(domain.NewTaskId(0), content, domain.Priority(priority), domain.TaskStatus{Tag: domain.TaskPending}, nil, nil, nil)
	if err != nil {
		return fmt.Errorf("build task: %w", err)
	}

	if err := tasks.Insert(task); err != nil {
		return fmt.Errorf("enqueue task: %w", err)
	}

	fmt.Printf("submitted task %d: %s\n", task.ID.Inner(), content)
	return nil
}
