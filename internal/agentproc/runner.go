package agentproc

import (
	"bytes"
	"fmt"
	"os/exec"

	"github.com/brioctl/brio/internal/domain"
)

// CommandRunner implements branchmanager.AgentRunner the same way
// CommandDispatcher implements supervisor.AgentDispatcher: one subprocess
// per call, run from the branch's session path so the agent's filesystem
// writes land in workspace isolation.
type CommandRunner struct {
	Command string
	Args    []string
}

// NewCommandRunner wires a CommandRunner invoking command with args.
func NewCommandRunner(command string, args []string) *CommandRunner {
	return &CommandRunner{Command: command, Args: args}
}

// RunAgent implements branchmanager.AgentRunner.
func (r *CommandRunner) RunAgent(branch *domain.BranchRecord, assignment domain.AgentAssignment, sessionPath string) error {
	args := append(append([]string{}, r.Args...), assignment.Agent.String(), assignment.Role)
	cmd := exec.Command(r.Command, args...)
	cmd.Dir = sessionPath

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("agentproc: run %s for branch %s agent %s: %w", r.Command, branch.ID, assignment.Agent, err)
	}
	return nil
}
