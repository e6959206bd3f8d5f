package repository

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brioctl/brio/internal/domain"
	"github.com/brioctl/brio/internal/sqlstore"
)

func newTestStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	store, err := sqlstore.NewStore(filepath.Join(t.TempDir(), "brio.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestTaskRepository_InsertGetUpdate(t *testing.T) {
	store := newTestStore(t)
	repo := NewTaskRepository(store)

	task, err := domain.NewTask(domain.NewTaskId(1), "do work", domain.PriorityDefault, domain.NewStatus(domain.TaskPending), nil, nil, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Insert(task))

	loaded, err := repo.Get(domain.NewTaskId(1))
	require.NoError(t, err)
	assert.Equal(t, "do work", loaded.Content)
	assert.Equal(t, domain.TaskPending, loaded.Status.Tag)

	require.NoError(t, repo.UpdateStatus(domain.NewTaskId(1), domain.NewStatus(domain.TaskPlanning)))
	loaded, err = repo.Get(domain.NewTaskId(1))
	require.NoError(t, err)
	assert.Equal(t, domain.TaskPlanning, loaded.Status.Tag)

	agent := domain.MustAgentId("agent_coder")
	require.NoError(t, repo.UpdateAssignedAgent(domain.NewTaskId(1), &agent))
	loaded, err = repo.Get(domain.NewTaskId(1))
	require.NoError(t, err)
	require.NotNil(t, loaded.AssignedAgent)
	assert.Equal(t, "agent_coder", loaded.AssignedAgent.String())
}

func TestTaskRepository_RoundTripsConflictsOnMergePendingApproval(t *testing.T) {
	store := newTestStore(t)
	repo := NewTaskRepository(store)

	task, err := domain.NewTask(domain.NewTaskId(2), "merge work", domain.PriorityDefault, domain.NewStatus(domain.TaskPending), nil, nil, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Insert(task))

	branch := domain.NewBranchId()
	mrID := domain.NewMergeRequestId()
	conflicts := []domain.Conflict{{
		Path:        "main.go",
		Type:        domain.ConflictContent,
		BaseRegion:  "base text",
		LeftRegion:  "left text",
		RightRegion: "right text",
		LeftBranch:  branch,
		RightBranch: domain.NewBranchId(),
	}}
	status := domain.NewMergePendingApprovalStatus([]domain.BranchId{branch}, mrID, conflicts)

	require.NoError(t, repo.UpdateStatus(domain.NewTaskId(2), status))
	loaded, err := repo.Get(domain.NewTaskId(2))
	require.NoError(t, err)

	require.Len(t, loaded.Status.Conflicts, 1)
	got := loaded.Status.Conflicts[0]
	assert.Equal(t, "main.go", got.Path)
	assert.Equal(t, domain.ConflictContent, got.Type)
	assert.Equal(t, "base text", got.BaseRegion)
	assert.Equal(t, "left text", got.LeftRegion)
	assert.Equal(t, "right text", got.RightRegion)
	assert.Equal(t, branch, got.LeftBranch)
}

func TestBranchRepository_InsertGetCountActive(t *testing.T) {
	store := newTestStore(t)
	repo := NewBranchRepository(store)

	branch := &domain.BranchRecord{
		ID:        domain.NewBranchId(),
		Name:      "feature-x",
		SessionID: "sess-1",
		Status:    domain.BranchPending,
		CreatedAt: 1000,
	}
	require.NoError(t, repo.Insert(branch))

	loaded, err := repo.Get(branch.ID)
	require.NoError(t, err)
	assert.Equal(t, "feature-x", loaded.Name)
	assert.Equal(t, domain.BranchPending, loaded.Status)

	count, err := repo.CountActive()
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, repo.UpdateStatus(branch.ID, domain.BranchActive))
	count, err = repo.CountActive()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestBranchRepository_RoundTripsConfigAndResult(t *testing.T) {
	store := newTestStore(t)
	repo := NewBranchRepository(store)

	agent := domain.MustAgentId("agent_coder")
	branch := &domain.BranchRecord{
		ID:        domain.NewBranchId(),
		Name:      "feature-y",
		SessionID: "sess-2",
		Config: domain.BranchConfig{
			Agents:              []domain.AgentAssignment{{Agent: agent, Role: "implementer"}},
			Strategy:            domain.ExecutionParallel,
			MaxDurationSecs:     120,
			InheritParentConfig: true,
		},
		Status:    domain.BranchPending,
		CreatedAt: 1000,
	}
	require.NoError(t, repo.Insert(branch))

	loaded, err := repo.Get(branch.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Config.Agents, 1)
	assert.Equal(t, "agent_coder", loaded.Config.Agents[0].Agent.String())
	assert.Equal(t, "implementer", loaded.Config.Agents[0].Role)
	assert.Equal(t, domain.ExecutionParallel, loaded.Config.Strategy)
	assert.Equal(t, 120, loaded.Config.MaxDurationSecs)
	assert.True(t, loaded.Config.InheritParentConfig)
	assert.Nil(t, loaded.Result)

	metrics := &domain.ExecutionMetrics{DurationMillis: 500, AgentsRan: 1, Errors: 0}
	require.NoError(t, repo.UpdateResult(branch.ID, metrics))

	reloaded, err := repo.Get(branch.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.Result)
	assert.Equal(t, int64(500), reloaded.Result.DurationMillis)
	assert.Equal(t, 1, reloaded.Result.AgentsRan)
}

func TestMergeRequestRepository_InsertGetUpdate(t *testing.T) {
	store := newTestStore(t)
	repo := NewMergeRequestRepository(store)

	mr := &domain.MergeRequest{
		ID:               domain.NewMergeRequestId(),
		BranchID:         domain.NewBranchId(),
		ProposedStrategy: domain.StrategyThreeWay,
		RequiresApproval: true,
		Status:           domain.MergeRequestPending,
		CreatedAt:        2000,
	}
	require.NoError(t, repo.Insert(mr))

	loaded, err := repo.Get(mr.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MergeRequestPending, loaded.Status)

	require.NoError(t, repo.UpdateStatus(loaded, domain.MergeRequestMerged))
	reloaded, err := repo.Get(mr.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MergeRequestMerged, reloaded.Status)

	err = repo.UpdateStatus(loaded, domain.MergeRequestApproved)
	require.Error(t, err)
	var terminalErr *domain.MergeRequestTerminalError
	require.ErrorAs(t, err, &terminalErr)
}
