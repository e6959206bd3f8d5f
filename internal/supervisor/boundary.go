// Package supervisor drives every task through its lifecycle: a poll cycle
// fetches non-terminal tasks and dispatches each to the handler matching
// its current status, calling out to a Planner, AgentDispatcher,
// AgentSelector, and BranchManager along the way.
package supervisor

import (
	"context"

	"github.com/brioctl/brio/internal/domain"
)

// Planner decomposes a task's objective into subtask content, or reports
// that the task has no further decomposition (a leaf task).
type Planner interface {
	Plan(ctx context.Context, objective string) ([]string, error)
}

// DispatchOutcome is the tagged result of AgentDispatcher.Dispatch.
type DispatchOutcome int

const (
	// DispatchAccepted means the agent took the task; a result will arrive
	// later via a side channel (a direct repository update), not a return
	// value from a later Dispatch call.
	DispatchAccepted DispatchOutcome = iota
	// DispatchCompleted means the agent ran the task to completion inline.
	DispatchCompleted
	// DispatchBusy means the agent could not accept the task right now;
	// callers should retry on a later poll.
	DispatchBusy
)

// DispatchResult is returned by AgentDispatcher.Dispatch.
type DispatchResult struct {
	Outcome DispatchOutcome
	Result  string // populated when Outcome == DispatchCompleted
}

// AgentDispatcher hands a task to an agent. Dispatch is at-most-once per
// call; callers may retry on DispatchBusy.
type AgentDispatcher interface {
	Dispatch(ctx context.Context, agent domain.AgentId, task *domain.Task) (DispatchResult, error)
}

// AgentSelector deterministically picks which agent should run a task.
type AgentSelector interface {
	Select(task *domain.Task) (domain.AgentId, error)
}

// BranchManager is the subset of branch/merge orchestration the Merging and
// MergePendingApproval handlers need, reached through this boundary so the
// supervisor package never imports branchmanager directly.
type BranchManager interface {
	GetMergeRequest(id domain.MergeRequestId) (*domain.MergeRequest, error)
	ExecuteMerge(id domain.MergeRequestId) error
}
