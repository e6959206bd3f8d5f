package domain

import (
	"fmt"
	"strings"
)

// TaskStatusTag enumerates the legal states of a Task's lifecycle.
type TaskStatusTag int

const (
	TaskPending TaskStatusTag = iota
	TaskPlanning
	TaskCoordinating
	TaskExecuting
	TaskAssigned
	TaskVerifying
	TaskMerging
	TaskMergePendingApproval
	TaskCompleted
	TaskFailed
)

func (t TaskStatusTag) String() string {
	switch t {
	case TaskPending:
		return "pending"
	case TaskPlanning:
		return "planning"
	case TaskCoordinating:
		return "coordinating"
	case TaskExecuting:
		return "executing"
	case TaskAssigned:
		return "assigned"
	case TaskVerifying:
		return "verifying"
	case TaskMerging:
		return "merging"
	case TaskMergePendingApproval:
		return "merge_pending_approval"
	case TaskCompleted:
		return "completed"
	case TaskFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ParseTaskStatusTag parses the string form of a status tag (case-insensitive),
// as used by the status_tag column of {scope}_tasks.
func ParseTaskStatusTag(raw string) (TaskStatusTag, error) {
	switch strings.ToLower(raw) {
	case "pending":
		return TaskPending, nil
	case "planning":
		return TaskPlanning, nil
	case "coordinating":
		return TaskCoordinating, nil
	case "executing":
		return TaskExecuting, nil
	case "assigned":
		return TaskAssigned, nil
	case "verifying":
		return TaskVerifying, nil
	case "merging":
		return TaskMerging, nil
	case "merge_pending_approval":
		return TaskMergePendingApproval, nil
	case "completed":
		return TaskCompleted, nil
	case "failed":
		return TaskFailed, nil
	default:
		return 0, &ParseStatusError{Raw: raw}
	}
}

// taskTransitions is the total legal-transition table for a task's lifecycle.
var taskTransitions = map[TaskStatusTag]map[TaskStatusTag]bool{
	TaskPending:              {TaskPlanning: true},
	TaskPlanning:             {TaskCoordinating: true, TaskExecuting: true},
	TaskExecuting:            {TaskAssigned: true, TaskCompleted: true, TaskFailed: true, TaskMerging: true},
	TaskAssigned:             {TaskCompleted: true, TaskFailed: true, TaskMerging: true},
	TaskCoordinating:         {TaskVerifying: true, TaskFailed: true},
	TaskVerifying:            {TaskCompleted: true},
	TaskMerging:              {TaskMergePendingApproval: true, TaskCompleted: true, TaskFailed: true},
	TaskMergePendingApproval: {TaskMerging: true, TaskCompleted: true, TaskFailed: true},
	TaskCompleted:            {},
	TaskFailed:               {},
}

// IsTerminal reports whether the tag is a terminal state (Completed or Failed).
func (t TaskStatusTag) IsTerminal() bool {
	return t == TaskCompleted || t == TaskFailed
}

// ValidateTransition checks that moving from t to target is legal, returning
// an *InvalidTaskTransitionError otherwise.
func (t TaskStatusTag) ValidateTransition(target TaskStatusTag) error {
	if taskTransitions[t][target] {
		return nil
	}
	return &InvalidTaskTransitionError{From: t, To: target}
}

// TaskStatus is a tagged variant. Merging and MergePendingApproval carry
// additional structured state (the branch id set and merge-request id; the
// latter also a conflict list).
type TaskStatus struct {
	Tag            TaskStatusTag
	Branches       []BranchId
	MergeRequestID MergeRequestId
	Conflicts      []Conflict
	FailureReason  string
}

// NewStatus constructs a bare TaskStatus carrying no additional state.
func NewStatus(tag TaskStatusTag) TaskStatus { return TaskStatus{Tag: tag} }

// NewMergingStatus constructs a Merging status with its branch set and merge request id.
func NewMergingStatus(branches []BranchId, mrID MergeRequestId) TaskStatus {
	return TaskStatus{Tag: TaskMerging, Branches: branches, MergeRequestID: mrID}
}

// NewMergePendingApprovalStatus constructs a MergePendingApproval status.
func NewMergePendingApprovalStatus(branches []BranchId, mrID MergeRequestId, conflicts []Conflict) TaskStatus {
	return TaskStatus{Tag: TaskMergePendingApproval, Branches: branches, MergeRequestID: mrID, Conflicts: conflicts}
}

// NewFailedStatus constructs a Failed status carrying a human-readable reason.
func NewFailedStatus(reason string) TaskStatus {
	return TaskStatus{Tag: TaskFailed, FailureReason: reason}
}

// requiresAssignedAgent reports whether this status tag demands a recorded
// assigned agent.
func (tag TaskStatusTag) requiresAssignedAgent() bool {
	switch tag {
	case TaskAssigned, TaskExecuting, TaskMerging, TaskMergePendingApproval:
		return true
	default:
		return false
	}
}

// Capability names a skill an agent can possess or a task can require.
type Capability int

const (
	CapabilityCoding Capability = iota
	CapabilityReviewing
	CapabilityReasoning
)

func (c Capability) String() string {
	switch c {
	case CapabilityCoding:
		return "coding"
	case CapabilityReviewing:
		return "reviewing"
	case CapabilityReasoning:
		return "reasoning"
	default:
		return "unknown"
	}
}

// ParseCapability parses the string form of a capability (case-insensitive),
// as used by config-driven agent routing rules.
func ParseCapability(raw string) (Capability, error) {
	switch strings.ToLower(raw) {
	case "coding":
		return CapabilityCoding, nil
	case "reviewing":
		return CapabilityReviewing, nil
	case "reasoning":
		return CapabilityReasoning, nil
	default:
		return 0, fmt.Errorf("domain: unknown capability %q", raw)
	}
}

// Task is the unit of work driven through the Supervisor's state machine.
type Task struct {
	ID            TaskId
	Content       string
	Priority      Priority
	Status        TaskStatus
	AssignedAgent *AgentId
	ParentTaskID  *TaskId
	Capabilities  map[Capability]bool
}

// NewTask validates and constructs a Task. Content must be non-empty; if the
// initial status requires an assigned agent, one must be supplied.
func NewTask(id TaskId, content string, priority Priority, status TaskStatus, assignedAgent *AgentId, parentTaskID *TaskId, capabilities map[Capability]bool) (*Task, error) {
	if content == "" {
		return nil, ErrEmptyTaskContent
	}
	if status.Tag.requiresAssignedAgent() && assignedAgent == nil {
		return nil, ErrMissingAssignedAgent
	}
	if capabilities == nil {
		capabilities = make(map[Capability]bool)
	}
	return &Task{
		ID:            id,
		Content:       content,
		Priority:      priority,
		Status:        status,
		AssignedAgent: assignedAgent,
		ParentTaskID:  parentTaskID,
		Capabilities:  capabilities,
	}, nil
}

// IsPending reports whether the task is still awaiting planning.
func (t *Task) IsPending() bool { return t.Status.Tag == TaskPending }

// IsTerminal reports whether the task has reached Completed or Failed.
func (t *Task) IsTerminal() bool { return t.Status.Tag.IsTerminal() }

// BranchingStrategy names a multi-branch execution pattern suggested by a
// task's content, consulted (not mandated) by the Planning handler.
type BranchingStrategy int

const (
	BranchingMultipleReviewers BranchingStrategy = iota
	BranchingAlternativeImplementations
	BranchingNestedBranches
)

// ShouldUseBranching inspects task content for phrases indicating that
// branched execution (multiple reviewers, A/B alternatives, nested
// sub-task refactors) would be beneficial. Returns false if no such
// pattern is present, in which case standard single-path execution applies.
func ShouldUseBranching(t *Task) (BranchingStrategy, bool) {
	content := strings.ToLower(t.Content)

	switch {
	case strings.Contains(content, "multiple reviewers"),
		strings.Contains(content, "security and performance review"),
		strings.Contains(content, "code review from different perspectives"):
		return BranchingMultipleReviewers, true
	case strings.Contains(content, "implement both"),
		strings.Contains(content, "a/b test"),
		strings.Contains(content, "compare approaches"),
		strings.Contains(content, "alternative implementations"):
		return BranchingAlternativeImplementations, true
	case strings.Contains(content, "refactor") && strings.Contains(content, "sub-tasks"):
		return BranchingNestedBranches, true
	default:
		return 0, false
	}
}
