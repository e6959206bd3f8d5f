package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskStatusTag_Display(t *testing.T) {
	assert.Equal(t, "pending", TaskPending.String())
	assert.Equal(t, "merge_pending_approval", TaskMergePendingApproval.String())
}

func TestParseTaskStatusTag_RoundTrips(t *testing.T) {
	tags := []TaskStatusTag{
		TaskPending, TaskPlanning, TaskCoordinating, TaskExecuting, TaskAssigned,
		TaskVerifying, TaskMerging, TaskMergePendingApproval, TaskCompleted, TaskFailed,
	}
	for _, tag := range tags {
		parsed, err := ParseTaskStatusTag(tag.String())
		require.NoError(t, err)
		assert.Equal(t, tag, parsed)
	}
}

func TestParseTaskStatusTag_Unknown(t *testing.T) {
	_, err := ParseTaskStatusTag("sideways")
	require.Error(t, err)
	var parseErr *ParseStatusError
	assert.ErrorAs(t, err, &parseErr)
}

func TestTaskStatusTag_ValidateTransition_LegalPath(t *testing.T) {
	require.NoError(t, TaskPending.ValidateTransition(TaskPlanning))
	require.NoError(t, TaskPlanning.ValidateTransition(TaskExecuting))
	require.NoError(t, TaskPlanning.ValidateTransition(TaskCoordinating))
	require.NoError(t, TaskExecuting.ValidateTransition(TaskAssigned))
	require.NoError(t, TaskAssigned.ValidateTransition(TaskMerging))
	require.NoError(t, TaskMerging.ValidateTransition(TaskMergePendingApproval))
	require.NoError(t, TaskMergePendingApproval.ValidateTransition(TaskMerging))
	require.NoError(t, TaskCoordinating.ValidateTransition(TaskVerifying))
	require.NoError(t, TaskVerifying.ValidateTransition(TaskCompleted))
}

func TestTaskStatusTag_ValidateTransition_RejectsIllegal(t *testing.T) {
	err := TaskPending.ValidateTransition(TaskCompleted)
	require.Error(t, err)
	var transErr *InvalidTaskTransitionError
	require.ErrorAs(t, err, &transErr)
	assert.Equal(t, TaskPending, transErr.From)
	assert.Equal(t, TaskCompleted, transErr.To)
}

func TestTaskStatusTag_TerminalStatesHaveNoOutgoingTransitions(t *testing.T) {
	for _, target := range []TaskStatusTag{TaskPending, TaskPlanning, TaskExecuting, TaskCompleted, TaskFailed} {
		assert.Error(t, TaskCompleted.ValidateTransition(target))
		assert.Error(t, TaskFailed.ValidateTransition(target))
	}
}

func TestNewTask_RejectsEmptyContent(t *testing.T) {
	_, err := NewTask(NewTaskId(1), "", PriorityDefault, NewStatus(TaskPending), nil, nil, nil)
	require.ErrorIs(t, err, ErrEmptyTaskContent)
}

func TestNewTask_RequiresAssignedAgentForExecutingStatus(t *testing.T) {
	_, err := NewTask(NewTaskId(1), "do work", PriorityDefault, NewStatus(TaskExecuting), nil, nil, nil)
	require.ErrorIs(t, err, ErrMissingAssignedAgent)

	agent := MustAgentId("agent_coder")
	task, err := NewTask(NewTaskId(1), "do work", PriorityDefault, NewStatus(TaskExecuting), &agent, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "agent_coder", task.AssignedAgent.String())
}

func TestNewTask_Accessors(t *testing.T) {
	task, err := NewTask(NewTaskId(7), "Fix bug", PriorityDefault, NewStatus(TaskPending), nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), task.ID.Inner())
	assert.True(t, task.IsPending())
	assert.False(t, task.IsTerminal())
	assert.Nil(t, task.AssignedAgent)
}

func TestShouldUseBranching(t *testing.T) {
	cases := []struct {
		content  string
		expected BranchingStrategy
		found    bool
	}{
		{"Run a code review from different perspectives", BranchingMultipleReviewers, true},
		{"Implement both approaches and A/B test them", BranchingAlternativeImplementations, true},
		{"Refactor the billing module into sub-tasks", BranchingNestedBranches, true},
		{"Fix the off-by-one error in the parser", 0, false},
	}
	for _, tc := range cases {
		task, err := NewTask(NewTaskId(1), tc.content, PriorityDefault, NewStatus(TaskPending), nil, nil, nil)
		require.NoError(t, err)
		strategy, ok := ShouldUseBranching(task)
		assert.Equal(t, tc.found, ok, tc.content)
		if tc.found {
			assert.Equal(t, tc.expected, strategy, tc.content)
		}
	}
}

func TestAgentId_RejectsEmpty(t *testing.T) {
	_, err := NewAgentId("")
	require.ErrorIs(t, err, ErrEmptyAgentId)
}

func TestPriority_Ordering(t *testing.T) {
	assert.Greater(t, uint8(PriorityMax), uint8(PriorityMin))
	assert.Less(t, uint8(Priority(10)), uint8(Priority(200)))
}
