package supervisor

import (
	"context"
	"strings"

	"github.com/brioctl/brio/internal/domain"
)

// handlePending unconditionally transitions a Pending task to Planning.
func (c *Context) handlePending(ctx context.Context, task *domain.Task) (bool, error) {
	if err := task.Status.Tag.ValidateTransition(domain.TaskPlanning); err != nil {
		return false, err
	}
	if err := c.transition(task, domain.NewStatus(domain.TaskPlanning)); err != nil {
		return false, err
	}
	return true, nil
}

// handlePlanning calls the Planner; a non-empty plan spawns one subtask per
// returned content string (inheriting default priority and this task as
// parent) and moves self to Coordinating, otherwise self moves to Executing.
func (c *Context) handlePlanning(ctx context.Context, task *domain.Task) (bool, error) {
	subtaskContent, err := c.Planner.Plan(ctx, task.Content)
	if err != nil {
		return false, planningErr(task.ID, err)
	}

	if len(subtaskContent) == 0 {
		if err := task.Status.Tag.ValidateTransition(domain.TaskExecuting); err != nil {
			return false, err
		}
		if err := c.transition(task, domain.NewStatus(domain.TaskExecuting)); err != nil {
			return false, err
		}
		return true, nil
	}

	parentID := task.ID
	for _, content := range subtaskContent {
		subtask, err := domain.NewTask(domain.NewTaskId(0), content, domain.PriorityDefault, domain.NewStatus(domain.TaskPending), nil, &parentID, nil)
		if err != nil {
			return false, repositoryErr(task.ID, err)
		}
		if err := c.Tasks.Insert(subtask); err != nil {
			return false, repositoryErr(task.ID, err)
		}
	}

	if err := task.Status.Tag.ValidateTransition(domain.TaskCoordinating); err != nil {
		return false, err
	}
	if err := c.transition(task, domain.NewStatus(domain.TaskCoordinating)); err != nil {
		return false, err
	}
	return true, nil
}

// defaultSelect is the keyword-based AgentSelector default: tasks whose
// content mentions review/audit/check go to agent_reviewer, everything else
// goes to agent_coder.
func defaultSelect(task *domain.Task) (domain.AgentId, error) {
	content := strings.ToLower(task.Content)
	if strings.Contains(content, "review") || strings.Contains(content, "audit") || strings.Contains(content, "check") {
		return domain.MustAgentId("agent_reviewer"), nil
	}
	return domain.MustAgentId("agent_coder"), nil
}

// handleExecuting covers both the Executing tag (no agent assigned yet, may
// dispatch) and the Assigned tag (agent accepted the task; the result
// arrives later via a side channel, so there is nothing to do this poll).
func (c *Context) handleExecuting(ctx context.Context, task *domain.Task) (bool, error) {
	if task.Status.Tag == domain.TaskAssigned {
		return false, nil
	}
	if task.AssignedAgent != nil {
		return false, nil
	}

	selector := c.Selector
	if selector == nil {
		selector = selectorFunc(defaultSelect)
	}
	agent, err := selector.Select(task)
	if err != nil {
		return false, dispatchErr(task.ID, err)
	}

	result, err := c.Dispatcher.Dispatch(ctx, agent, task)
	if err != nil {
		return false, dispatchErr(task.ID, err)
	}

	switch result.Outcome {
	case DispatchAccepted:
		if err := c.Tasks.UpdateAssignedAgent(task.ID, &agent); err != nil {
			return false, repositoryErr(task.ID, err)
		}
		task.AssignedAgent = &agent
		if err := task.Status.Tag.ValidateTransition(domain.TaskAssigned); err != nil {
			return false, err
		}
		if err := c.transition(task, domain.NewStatus(domain.TaskAssigned)); err != nil {
			return false, err
		}
		return true, nil
	case DispatchCompleted:
		if err := task.Status.Tag.ValidateTransition(domain.TaskCompleted); err != nil {
			return false, err
		}
		if err := c.transition(task, domain.NewStatus(domain.TaskCompleted)); err != nil {
			return false, err
		}
		return true, nil
	default: // DispatchBusy
		return false, nil
	}
}

// selectorFunc adapts a plain function to the AgentSelector interface.
type selectorFunc func(task *domain.Task) (domain.AgentId, error)

func (f selectorFunc) Select(task *domain.Task) (domain.AgentId, error) { return f(task) }

// handleCoordinating waits for every subtask to reach a terminal state: any
// Failed subtask fails the parent; all Completed advances to Verifying.
func (c *Context) handleCoordinating(ctx context.Context, task *domain.Task) (bool, error) {
	subtasks, err := c.Tasks.ListByParent(task.ID)
	if err != nil {
		return false, repositoryErr(task.ID, err)
	}

	if len(subtasks) == 0 {
		if err := task.Status.Tag.ValidateTransition(domain.TaskVerifying); err != nil {
			return false, err
		}
		if err := c.transition(task, domain.NewStatus(domain.TaskVerifying)); err != nil {
			return false, err
		}
		return true, nil
	}

	allCompleted := true
	for _, st := range subtasks {
		if st.Status.Tag == domain.TaskFailed {
			return false, &subtaskFailedError{ParentID: task.ID}
		}
		if st.Status.Tag != domain.TaskCompleted {
			allCompleted = false
		}
	}
	if !allCompleted {
		return false, nil
	}

	if err := task.Status.Tag.ValidateTransition(domain.TaskVerifying); err != nil {
		return false, err
	}
	if err := c.transition(task, domain.NewStatus(domain.TaskVerifying)); err != nil {
		return false, err
	}
	return true, nil
}

// subtaskFailedError signals that a parent's subtask failed: the poll loop
// marks the parent task Failed with this reason and moves on.
type subtaskFailedError struct {
	ParentID domain.TaskId
}

func (e *subtaskFailedError) Error() string { return "Subtask failed" }

// handleVerifying marks the task completed. Verification is a deliberate
// one-cycle hook: no external check runs here, the branch's own
// ExecutionMetrics already account for per-agent errors.
func (c *Context) handleVerifying(ctx context.Context, task *domain.Task) (bool, error) {
	if err := task.Status.Tag.ValidateTransition(domain.TaskCompleted); err != nil {
		return false, err
	}
	if err := c.transition(task, domain.NewStatus(domain.TaskCompleted)); err != nil {
		return false, err
	}
	return true, nil
}

// handleMerging reads the merge request's status through the BranchManager
// boundary and advances the task accordingly. A nil BranchMgr means no
// merge orchestration is wired; the task simply waits.
func (c *Context) handleMerging(ctx context.Context, task *domain.Task) (bool, error) {
	if c.BranchMgr == nil {
		return false, nil
	}
	mr, err := c.BranchMgr.GetMergeRequest(task.Status.MergeRequestID)
	if err != nil {
		return false, err
	}

	switch mr.Status {
	case domain.MergeRequestMerged:
		if err := task.Status.Tag.ValidateTransition(domain.TaskCompleted); err != nil {
			return false, err
		}
		if err := c.transition(task, domain.NewStatus(domain.TaskCompleted)); err != nil {
			return false, err
		}
		return true, nil
	case domain.MergeRequestConflict:
		status := domain.NewMergePendingApprovalStatus(task.Status.Branches, mr.ID, mr.Conflicts)
		if err := task.Status.Tag.ValidateTransition(status.Tag); err != nil {
			return false, err
		}
		if err := c.transition(task, status); err != nil {
			return false, err
		}
		return true, nil
	case domain.MergeRequestRejected:
		return false, &mergeRejectedError{}
	default:
		return false, nil
	}
}

type mergeRejectedError struct{}

func (e *mergeRejectedError) Error() string { return "merge rejected" }

// handleMergePendingApproval waits for external approval (arriving by
// direct repository/API mutation of the merge request, not through this
// poll loop) and drives the merge forward once it lands.
func (c *Context) handleMergePendingApproval(ctx context.Context, task *domain.Task) (bool, error) {
	if c.BranchMgr == nil {
		return false, nil
	}
	mr, err := c.BranchMgr.GetMergeRequest(task.Status.MergeRequestID)
	if err != nil {
		return false, err
	}

	switch mr.Status {
	case domain.MergeRequestApproved:
		if err := c.BranchMgr.ExecuteMerge(mr.ID); err != nil {
			return false, err
		}
		if err := task.Status.Tag.ValidateTransition(domain.TaskMerging); err != nil {
			return false, err
		}
		if err := c.transition(task, domain.NewMergingStatus(task.Status.Branches, mr.ID)); err != nil {
			return false, err
		}
		return true, nil
	case domain.MergeRequestRejected:
		return false, &mergeRejectedError{}
	case domain.MergeRequestMerged:
		if err := task.Status.Tag.ValidateTransition(domain.TaskCompleted); err != nil {
			return false, err
		}
		if err := c.transition(task, domain.NewStatus(domain.TaskCompleted)); err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, nil
	}
}
