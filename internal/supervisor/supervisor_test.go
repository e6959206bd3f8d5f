package supervisor

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brioctl/brio/internal/domain"
	"github.com/brioctl/brio/internal/repository"
	"github.com/brioctl/brio/internal/sqlstore"
)

func newTestContext(t *testing.T, planner Planner, dispatcher AgentDispatcher) (*Context, *repository.TaskRepository) {
	t.Helper()
	store, err := sqlstore.NewStore(filepath.Join(t.TempDir(), "brio.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	tasks := repository.NewTaskRepository(store)
	return NewContext(tasks, planner, dispatcher, nil, nil, nil), tasks
}

type fakePlanner struct {
	subtasks []string
	err      error
}

func (f *fakePlanner) Plan(ctx context.Context, objective string) ([]string, error) {
	return f.subtasks, f.err
}

type fakeDispatcher struct {
	result DispatchResult
	err    error
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, agent domain.AgentId, task *domain.Task) (DispatchResult, error) {
	return f.result, f.err
}

// TestPollTasks_PlanDecomposition is spec scenario 1: a task whose planner
// returns two subtasks reaches Coordinating after one poll, with both
// subtasks created Pending.
func TestPollTasks_PlanDecomposition(t *testing.T) {
	planner := &fakePlanner{subtasks: []string{"Refactor X", "Refactor Y"}}
	c, tasks := newTestContext(t, planner, &fakeDispatcher{})

	task, err := domain.NewTask(domain.NewTaskId(0), "Refactor X and Y", domain.PriorityDefault, domain.NewStatus(domain.TaskPending), nil, nil, nil)
	require.NoError(t, err)
	require.NoError(t, tasks.Insert(task))

	count, err := PollTasks(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	loaded, err := tasks.Get(task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskPlanning, loaded.Status.Tag)

	count, err = PollTasks(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 1, count) // Planning -> Coordinating

	loaded, err = tasks.Get(task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskCoordinating, loaded.Status.Tag)

	subtasks, err := tasks.ListByParent(task.ID)
	require.NoError(t, err)
	require.Len(t, subtasks, 2)
	for _, st := range subtasks {
		assert.Equal(t, domain.TaskPending, st.Status.Tag)
	}
}

// TestPollTasks_LeafTaskCompletion is spec scenario 2: a task whose planner
// returns no subtasks completes after Planning->Executing->Completed.
func TestPollTasks_LeafTaskCompletion(t *testing.T) {
	planner := &fakePlanner{subtasks: nil}
	dispatcher := &fakeDispatcher{result: DispatchResult{Outcome: DispatchCompleted, Result: "ok"}}
	c, tasks := newTestContext(t, planner, dispatcher)

	task, err := domain.NewTask(domain.NewTaskId(0), "do the thing", domain.PriorityDefault, domain.NewStatus(domain.TaskPending), nil, nil, nil)
	require.NoError(t, err)
	require.NoError(t, tasks.Insert(task))

	_, err = PollTasks(context.Background(), c) // Pending -> Planning
	require.NoError(t, err)
	_, err = PollTasks(context.Background(), c) // Planning -> Executing
	require.NoError(t, err)
	_, err = PollTasks(context.Background(), c) // Executing -> Completed
	require.NoError(t, err)

	loaded, err := tasks.Get(task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskCompleted, loaded.Status.Tag)
}

func TestPollTasks_SubtaskFailureFailsParent(t *testing.T) {
	c, tasks := newTestContext(t, &fakePlanner{}, &fakeDispatcher{})

	parent, err := domain.NewTask(domain.NewTaskId(0), "parent", domain.PriorityDefault, domain.NewStatus(domain.TaskCoordinating), nil, nil, nil)
	require.NoError(t, err)
	require.NoError(t, tasks.Insert(parent))

	child, err := domain.NewTask(domain.NewTaskId(0), "child", domain.PriorityDefault, domain.NewFailedStatus("boom"), nil, &parent.ID, nil)
	require.NoError(t, err)
	require.NoError(t, tasks.Insert(child))

	count, err := PollTasks(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	loaded, err := tasks.Get(parent.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskFailed, loaded.Status.Tag)
	assert.Equal(t, "Subtask failed", loaded.Status.FailureReason)
}
