// Package domain defines the core value objects and entities shared by the
// Supervisor, Branch Manager, Merge Engine, and Scoped SQL Store: strongly
// typed identifiers, status enums with legal-transition tables, and the
// validation constants that make invalid states unrepresentable.
package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// BranchId uniquely identifies a branch. Backed by a UUID so branches can be
// created independently by multiple supervisors without coordination.
type BranchId struct {
	id uuid.UUID
}

// NewBranchId allocates a new BranchId with a random UUID.
func NewBranchId() BranchId {
	return BranchId{id: uuid.New()}
}

// BranchIdFromString parses an existing BranchId from its string form.
func BranchIdFromString(s string) (BranchId, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return BranchId{}, fmt.Errorf("parse branch id %q: %w", s, err)
	}
	return BranchId{id: id}, nil
}

// String renders the branch id in canonical UUID form.
func (b BranchId) String() string { return b.id.String() }

// IsZero reports whether this is the zero-value BranchId (uninitialized).
func (b BranchId) IsZero() bool { return b.id == uuid.Nil }

// MergeRequestId uniquely identifies a merge request. UUID-backed for the
// same reason as BranchId.
type MergeRequestId struct {
	id uuid.UUID
}

// NewMergeRequestId allocates a new MergeRequestId with a random UUID.
func NewMergeRequestId() MergeRequestId {
	return MergeRequestId{id: uuid.New()}
}

// MergeRequestIdFromString parses an existing MergeRequestId from its string form.
func MergeRequestIdFromString(s string) (MergeRequestId, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return MergeRequestId{}, fmt.Errorf("parse merge request id %q: %w", s, err)
	}
	return MergeRequestId{id: id}, nil
}

func (m MergeRequestId) String() string { return m.id.String() }

// IsZero reports whether this is the zero-value MergeRequestId (uninitialized).
func (m MergeRequestId) IsZero() bool { return m.id == uuid.Nil }

// TaskId uniquely identifies a task. Monotonic integer assigned by the
// Scoped SQL Store on insert (auto-increment primary key), unlike
// BranchId/MergeRequestId which are allocated client-side.
type TaskId uint64

// NewTaskId wraps a raw auto-increment value as a TaskId.
func NewTaskId(raw uint64) TaskId { return TaskId(raw) }

// Inner returns the underlying numeric value.
func (t TaskId) Inner() uint64 { return uint64(t) }

func (t TaskId) String() string { return fmt.Sprintf("task_%d", uint64(t)) }

// AgentId identifies an agent in the dispatch mesh. Always non-empty;
// construct with NewAgentId to enforce the invariant.
type AgentId struct {
	value string
}

// NewAgentId validates and wraps a raw agent identifier string.
func NewAgentId(raw string) (AgentId, error) {
	if raw == "" {
		return AgentId{}, ErrEmptyAgentId
	}
	return AgentId{value: raw}, nil
}

// MustAgentId is like NewAgentId but panics on an invalid id. Intended for
// constant agent ids known at compile time (e.g. "agent_coder").
func MustAgentId(raw string) AgentId {
	id, err := NewAgentId(raw)
	if err != nil {
		panic(err)
	}
	return id
}

func (a AgentId) String() string { return a.value }

// Priority is a task's scheduling priority in [0, 255]; higher is more
// urgent. The Supervisor's poll cycle walks active tasks in descending
// priority order.
type Priority uint8

const (
	// PriorityMin is the lowest legal priority.
	PriorityMin Priority = 0
	// PriorityMax is the highest legal priority.
	PriorityMax Priority = 255
	// PriorityDefault is assigned to tasks that don't specify one, and to
	// every subtask created by plan decomposition.
	PriorityDefault Priority = 128
)
