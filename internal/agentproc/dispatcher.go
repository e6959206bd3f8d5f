// Package agentproc implements supervisor.AgentDispatcher by shelling out to
// an external agent command per dispatch: exec.CommandContext with captured
// combined output, the same process-invocation style CommandRunner uses for
// branch agent runs.
package agentproc

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/brioctl/brio/internal/domain"
	"github.com/brioctl/brio/internal/supervisor"
)

// CommandDispatcher dispatches a task by running Command with Args appended
// by the agent id, piping the task's content to stdin and capturing
// combined stdout/stderr as the completed result. Every dispatch runs to
// completion inline: Dispatch never returns DispatchAccepted or
// DispatchBusy, since a subprocess has no notion of "busy" beyond ctx
// cancellation.
type CommandDispatcher struct {
	Command string
	Args    []string
	Dir     string
}

// NewCommandDispatcher wires a CommandDispatcher invoking command with args,
// run from dir (the branch's session path, typically).
func NewCommandDispatcher(command string, args []string, dir string) *CommandDispatcher {
	return &CommandDispatcher{Command: command, Args: args, Dir: dir}
}

// Dispatch implements supervisor.AgentDispatcher.
func (d *CommandDispatcher) Dispatch(ctx context.Context, agent domain.AgentId, task *domain.Task) (supervisor.DispatchResult, error) {
	args := append(append([]string{}, d.Args...), agent.String())
	cmd := exec.CommandContext(ctx, d.Command, args...)
	cmd.Dir = d.Dir
	cmd.Stdin = bytes.NewBufferString(task.Content)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		return supervisor.DispatchResult{}, fmt.Errorf("agentproc: run %s for task %s: %w", d.Command, task.ID, err)
	}

	return supervisor.DispatchResult{Outcome: supervisor.DispatchCompleted, Result: out.String()}, nil
}
