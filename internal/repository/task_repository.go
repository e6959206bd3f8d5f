// Package repository provides typed facades over the scoped SQL store for
// each domain entity, translating between domain.Task/BranchRecord/
// MergeRequest and the flat rows sqlstore.Store returns.
package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/brioctl/brio/internal/domain"
	"github.com/brioctl/brio/internal/sqlstore"
)

// TaskRepository persists domain.Task rows under the system scope.
type TaskRepository struct {
	store *sqlstore.Store
}

// NewTaskRepository wraps a Store for task persistence.
func NewTaskRepository(store *sqlstore.Store) *TaskRepository {
	return &TaskRepository{store: store}
}

// statusPayload is the JSON shape stored in status_payload_json for the
// additional structured fields TaskStatus carries beyond its tag: branch id
// set, merge-request id, conflict list, failure reason.
type statusPayload struct {
	Branches       []string          `json:"branches,omitempty"`
	MergeRequestID string            `json:"merge_request_id,omitempty"`
	Conflicts      []conflictPayload `json:"conflicts,omitempty"`
	FailureReason  string            `json:"failure_reason,omitempty"`
}

type conflictPayload struct {
	Path        string `json:"path"`
	Type        string `json:"type"`
	BaseRegion  string `json:"base_region,omitempty"`
	LeftRegion  string `json:"left_region,omitempty"`
	RightRegion string `json:"right_region,omitempty"`
	LeftBranch  string `json:"left_branch"`
	RightBranch string `json:"right_branch"`
}

func encodeStatusPayload(status domain.TaskStatus) (any, error) {
	if len(status.Branches) == 0 && status.MergeRequestID.IsZero() && len(status.Conflicts) == 0 && status.FailureReason == "" {
		return nil, nil
	}
	payload := statusPayload{FailureReason: status.FailureReason}
	for _, b := range status.Branches {
		payload.Branches = append(payload.Branches, b.String())
	}
	if !status.MergeRequestID.IsZero() {
		payload.MergeRequestID = status.MergeRequestID.String()
	}
	for _, c := range status.Conflicts {
		payload.Conflicts = append(payload.Conflicts, conflictPayload{
			Path:        c.Path,
			Type:        c.Type.String(),
			BaseRegion:  c.BaseRegion,
			LeftRegion:  c.LeftRegion,
			RightRegion: c.RightRegion,
			LeftBranch:  c.LeftBranch.String(),
			RightBranch: c.RightBranch.String(),
		})
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("repository: encode status payload: %w", err)
	}
	return string(raw), nil
}

func decodeStatusPayload(tag domain.TaskStatusTag, raw string) (domain.TaskStatus, error) {
	status := domain.NewStatus(tag)
	if raw == "" {
		return status, nil
	}
	var payload statusPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return status, fmt.Errorf("repository: decode status payload: %w", err)
	}
	status.FailureReason = payload.FailureReason
	for _, raw := range payload.Branches {
		id, err := domain.BranchIdFromString(raw)
		if err != nil {
			return status, err
		}
		status.Branches = append(status.Branches, id)
	}
	if payload.MergeRequestID != "" {
		id, err := domain.MergeRequestIdFromString(payload.MergeRequestID)
		if err != nil {
			return status, err
		}
		status.MergeRequestID = id
	}
	for _, c := range payload.Conflicts {
		conflictType, err := domain.ParseConflictType(c.Type)
		if err != nil {
			return status, err
		}
		left, err := domain.BranchIdFromString(c.LeftBranch)
		if err != nil {
			return status, err
		}
		right, err := domain.BranchIdFromString(c.RightBranch)
		if err != nil {
			return status, err
		}
		status.Conflicts = append(status.Conflicts, domain.Conflict{
			Path:        c.Path,
			Type:        conflictType,
			BaseRegion:  c.BaseRegion,
			LeftRegion:  c.LeftRegion,
			RightRegion: c.RightRegion,
			LeftBranch:  left,
			RightBranch: right,
		})
	}
	return status, nil
}

// Insert writes a new task row. If task.ID is the zero value, the row is
// inserted with a NULL id column so SQLite's INTEGER PRIMARY KEY alias
// auto-assigns a rowid, which is then written back into task.ID; callers
// that already hold a specific id (loaded from elsewhere, or a test
// fixture) may set it explicitly and it is used as-is.
func (r *TaskRepository) Insert(task *domain.Task) error {
	var agent any
	if task.AssignedAgent != nil {
		agent = task.AssignedAgent.String()
	}
	var parent any
	if task.ParentTaskID != nil {
		parent = task.ParentTaskID.Inner()
	}
	payload, err := encodeStatusPayload(task.Status)
	if err != nil {
		return err
	}
	var id any
	if task.ID.Inner() != 0 {
		id = task.ID.Inner()
	}
	now := time.Now().Unix()
	result, err := r.store.Execute(sqlstore.SystemScope,
		`INSERT INTO brio_tasks (id, content, priority, status_tag, status_payload_json, assigned_agent, parent_task_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, task.Content, uint8(task.Priority), task.Status.Tag.String(), payload, agent, parent, now, now,
	)
	if err != nil {
		return fmt.Errorf("repository: insert task: %w", err)
	}
	if task.ID.Inner() == 0 {
		lastID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("repository: read inserted task id: %w", err)
		}
		task.ID = domain.NewTaskId(uint64(lastID))
	}
	return nil
}

// UpdateStatus updates a task's status tag and structured payload after a
// supervisor transition. The assigned agent lives on Task, not TaskStatus;
// callers update it separately via UpdateAssignedAgent.
func (r *TaskRepository) UpdateStatus(id domain.TaskId, status domain.TaskStatus) error {
	payload, err := encodeStatusPayload(status)
	if err != nil {
		return err
	}
	_, err = r.store.Execute(sqlstore.SystemScope,
		`UPDATE brio_tasks SET status_tag = ?, status_payload_json = ?, updated_at = ? WHERE id = ?`,
		status.Tag.String(), payload, time.Now().Unix(), id.Inner(),
	)
	if err != nil {
		return fmt.Errorf("repository: update task status: %w", err)
	}
	return nil
}

// UpdateAssignedAgent sets or clears the agent a task is assigned to.
func (r *TaskRepository) UpdateAssignedAgent(id domain.TaskId, agent *domain.AgentId) error {
	var value any
	if agent != nil {
		value = agent.String()
	}
	_, err := r.store.Execute(sqlstore.SystemScope,
		`UPDATE brio_tasks SET assigned_agent = ? WHERE id = ?`, value, id.Inner(),
	)
	if err != nil {
		return fmt.Errorf("repository: update assigned agent: %w", err)
	}
	return nil
}

const taskSelectColumns = `id, content, priority, status_tag, status_payload_json, assigned_agent, parent_task_id`

// Get loads a task by id.
func (r *TaskRepository) Get(id domain.TaskId) (*domain.Task, error) {
	rows, err := r.store.Query(sqlstore.SystemScope,
		`SELECT `+taskSelectColumns+` FROM brio_tasks WHERE id = ?`, id.Inner(),
	)
	if err != nil {
		return nil, fmt.Errorf("repository: get task: %w", err)
	}
	if len(rows) == 0 {
		return nil, sql.ErrNoRows
	}
	return rowToTask(rows[0])
}

// ListByStatus returns every task currently in the given status.
func (r *TaskRepository) ListByStatus(tag domain.TaskStatusTag) ([]*domain.Task, error) {
	rows, err := r.store.Query(sqlstore.SystemScope,
		`SELECT `+taskSelectColumns+` FROM brio_tasks WHERE status_tag = ?`, tag.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("repository: list tasks by status: %w", err)
	}
	return rowsToTasks(rows)
}

// ListNonTerminal returns every task not yet Completed or Failed, ordered by
// priority descending, the set the Supervisor's poll cycle walks each cycle.
func (r *TaskRepository) ListNonTerminal() ([]*domain.Task, error) {
	rows, err := r.store.Query(sqlstore.SystemScope,
		`SELECT `+taskSelectColumns+` FROM brio_tasks WHERE status_tag NOT IN (?, ?) ORDER BY priority DESC, id ASC`,
		domain.TaskCompleted.String(), domain.TaskFailed.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("repository: list non-terminal tasks: %w", err)
	}
	return rowsToTasks(rows)
}

// ListByParent returns every subtask created under the given parent.
func (r *TaskRepository) ListByParent(parentID domain.TaskId) ([]*domain.Task, error) {
	rows, err := r.store.Query(sqlstore.SystemScope,
		`SELECT `+taskSelectColumns+` FROM brio_tasks WHERE parent_task_id = ?`, parentID.Inner(),
	)
	if err != nil {
		return nil, fmt.Errorf("repository: list subtasks: %w", err)
	}
	return rowsToTasks(rows)
}

func rowsToTasks(rows []sqlstore.Row) ([]*domain.Task, error) {
	tasks := make([]*domain.Task, 0, len(rows))
	for _, row := range rows {
		task, err := rowToTask(row)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func rowToTask(row sqlstore.Row) (*domain.Task, error) {
	idVal, _ := row["id"].(int64)
	content, _ := row["content"].(string)
	priorityVal, _ := row["priority"].(int64)
	statusTagVal, _ := row["status_tag"].(string)
	payloadVal, _ := row["status_payload_json"].(string)

	tag, err := domain.ParseTaskStatusTag(statusTagVal)
	if err != nil {
		return nil, fmt.Errorf("repository: decode task row: %w", err)
	}
	status, err := decodeStatusPayload(tag, payloadVal)
	if err != nil {
		return nil, err
	}

	var agent *domain.AgentId
	if raw, ok := row["assigned_agent"].(string); ok && raw != "" {
		id, err := domain.NewAgentId(raw)
		if err != nil {
			return nil, err
		}
		agent = &id
	}

	var parentID *domain.TaskId
	if raw, ok := row["parent_task_id"].(int64); ok {
		id := domain.NewTaskId(uint64(raw))
		parentID = &id
	}

	task, err := domain.NewTask(domain.NewTaskId(uint64(idVal)), content, domain.Priority(priorityVal), status, agent, parentID, nil)
	if err != nil {
		return nil, fmt.Errorf("repository: rebuild task: %w", err)
	}
	return task, nil
}
