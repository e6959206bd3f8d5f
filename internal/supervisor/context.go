package supervisor

import (
	"time"

	"github.com/brioctl/brio/internal/broadcaster"
	"github.com/brioctl/brio/internal/domain"
	"github.com/brioctl/brio/internal/repository"
)

// Context is the Supervisor's handle on everything it exclusively owns:
// repositories, planner, dispatcher, selector, and optionally a branch
// manager. Nil Broadcaster and BranchManager are both legal; BranchManager
// is only consulted by the Merging and MergePendingApproval handlers.
type Context struct {
	Tasks       *repository.TaskRepository
	Planner     Planner
	Dispatcher  AgentDispatcher
	Selector    AgentSelector
	BranchMgr   BranchManager
	Broadcaster broadcaster.Broadcaster
}

// NewContext wires a Supervisor Context from its collaborators. Broadcaster
// and BranchMgr may be nil.
func NewContext(tasks *repository.TaskRepository, planner Planner, dispatcher AgentDispatcher, selector AgentSelector, branchMgr BranchManager, b broadcaster.Broadcaster) *Context {
	return &Context{
		Tasks:       tasks,
		Planner:     planner,
		Dispatcher:  dispatcher,
		Selector:    selector,
		BranchMgr:   branchMgr,
		Broadcaster: b,
	}
}

// emit fires a TaskTransition event if a Broadcaster is configured.
func (c *Context) emit(task *domain.Task, from, to domain.TaskStatusTag) {
	if c.Broadcaster == nil {
		return
	}
	c.Broadcaster.Broadcast(broadcaster.Event{
		Kind:      broadcaster.KindTaskTransition,
		Timestamp: time.Now().UnixMilli(),
		Fields: map[string]any{
			"task_id": task.ID.String(),
			"from":    from.String(),
			"to":      to.String(),
		},
	})
}

// transition moves a task to a new status, persists it, and emits the
// TaskTransition event. Callers must have already validated the move is
// legal via TaskStatusTag.ValidateTransition.
func (c *Context) transition(task *domain.Task, status domain.TaskStatus) error {
	from := task.Status.Tag
	if err := c.Tasks.UpdateStatus(task.ID, status); err != nil {
		return statusUpdateErr(task.ID, err)
	}
	task.Status = status
	c.emit(task, from, status.Tag)
	return nil
}

// markFailed records a task as Failed with a human-readable reason and
// never returns an error itself: a failure to persist the failure is
// swallowed by the poll loop, which will retry marking it failed again on
// the next poll since the task remains non-terminal in that case.
func (c *Context) markFailed(task *domain.Task, reason string) {
	status := domain.NewFailedStatus(reason)
	_ = c.transition(task, status)
}
