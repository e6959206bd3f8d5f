package supervisor

import (
	"context"

	"github.com/brioctl/brio/internal/domain"
)

type handlerFunc func(c *Context, ctx context.Context, task *domain.Task) (bool, error)

var handlersByTag = map[domain.TaskStatusTag]handlerFunc{
	domain.TaskPending:              (*Context).handlePending,
	domain.TaskPlanning:             (*Context).handlePlanning,
	domain.TaskExecuting:            (*Context).handleExecuting,
	domain.TaskAssigned:             (*Context).handleExecuting,
	domain.TaskCoordinating:         (*Context).handleCoordinating,
	domain.TaskVerifying:            (*Context).handleVerifying,
	domain.TaskMerging:              (*Context).handleMerging,
	domain.TaskMergePendingApproval: (*Context).handleMergePendingApproval,
}

// PollTasks is the Supervisor's poll cycle: it fetches every non-terminal
// task ordered by priority descending and dispatches each to the handler
// matching its current status, returning the count of tasks that advanced.
//
// A handler error never halts the cycle: the task is marked Failed with the
// error's message and counted as advanced (a transition did occur), and the
// loop moves to the next task.
func PollTasks(ctx context.Context, c *Context) (int, error) {
	tasks, err := c.Tasks.ListNonTerminal()
	if err != nil {
		return 0, repositoryErr(domain.TaskId(0), err)
	}

	advanced := 0
	for _, task := range tasks {
		handler, ok := handlersByTag[task.Status.Tag]
		if !ok {
			continue
		}
		ok, err := handler(c, ctx, task)
		if err != nil {
			c.markFailed(task, err.Error())
			advanced++
			continue
		}
		if ok {
			advanced++
		}
	}
	return advanced, nil
}
