// Package branchmanager owns branch lifecycle, workspace isolation, change
// collection, and merge orchestration: it is the sole caller of the
// Workspace Session Manager and the Merge Engine, and implements the
// boundary the Supervisor uses to drive Merging and MergePendingApproval
// tasks.
package branchmanager

import (
	"fmt"
	"sync"
	"time"

	"github.com/brioctl/brio/internal/broadcaster"
	"github.com/brioctl/brio/internal/domain"
	"github.com/brioctl/brio/internal/mergeengine"
	"github.com/brioctl/brio/internal/repository"
	"github.com/brioctl/brio/internal/vfs"
)

// ErrMaxBranchesReached is returned by CreateBranch when the count of
// Pending, Active, and Merging branches in the Manager's index already sits
// at domain.MaxConcurrentBranches. The count spans every base the Manager
// tracks; it is not kept separately per base workspace.
var ErrMaxBranchesReached = fmt.Errorf("branchmanager: active branch count at MaxConcurrentBranches (%d)", domain.MaxConcurrentBranches)

// ErrMaxNestingDepth is returned by CreateBranch when the parent chain
// already sits at domain.MaxBranchNestingDepth.
var ErrMaxNestingDepth = fmt.Errorf("branchmanager: branch nesting depth at MaxBranchNestingDepth (%d)", domain.MaxBranchNestingDepth)

// ErrParentNotFound is returned by CreateBranch when a named parent branch
// id does not resolve to a known branch.
var ErrParentNotFound = fmt.Errorf("branchmanager: parent branch not found")

// CreationFailedError wraps an underlying failure (session snapshot, repository
// write) encountered while creating a branch.
type CreationFailedError struct {
	Reason string
	Err    error
}

func (e *CreationFailedError) Error() string {
	return fmt.Sprintf("branchmanager: create branch failed: %s: %v", e.Reason, e.Err)
}

func (e *CreationFailedError) Unwrap() error { return e.Err }

// AgentRunner drives one agent's work inside an active branch's session
// directory. Unlike supervisor.AgentDispatcher (which dispatches a single
// Task), AgentRunner drives a branch's whole agent roster and reports back
// only success/failure; branch execution has no per-task result payload.
type AgentRunner interface {
	RunAgent(branch *domain.BranchRecord, assignment domain.AgentAssignment, sessionPath string) error
}

// Manager coordinates branch lifecycle. The active-branch index is the only
// shared mutable state in the package; every read and write of it is
// serialised under mu.
type Manager struct {
	mu     sync.Mutex
	active map[domain.BranchId]*domain.BranchRecord

	branches      *repository.BranchRepository
	mergeRequests *repository.MergeRequestRepository
	sessions      *vfs.Manager
	strategies    *mergeengine.Registry
	runner        AgentRunner
	events        broadcaster.Broadcaster

	// AutoMerge, when true, makes InitiateMerge execute the merge
	// immediately after creating a MergeRequest that doesn't require
	// approval, rather than waiting for an explicit ExecuteMerge call.
	AutoMerge bool
}

// NewManager wires a Manager over its persistence, workspace, and merge
// dependencies. runner and events may be nil; a nil runner makes
// ExecuteBranch a no-op per agent, a nil events drops every emitted event.
func NewManager(
	branches *repository.BranchRepository,
	mergeRequests *repository.MergeRequestRepository,
	sessions *vfs.Manager,
	strategies *mergeengine.Registry,
	runner AgentRunner,
	events broadcaster.Broadcaster,
) *Manager {
	if strategies == nil {
		strategies = mergeengine.NewDefaultRegistry()
	}
	return &Manager{
		active:        make(map[domain.BranchId]*domain.BranchRecord),
		branches:      branches,
		mergeRequests: mergeRequests,
		sessions:      sessions,
		strategies:    strategies,
		runner:        runner,
		events:        events,
	}
}

// LoadActive reloads every non-terminal branch from the repository into the
// in-memory active index, for a process that is resuming against an
// existing store rather than starting from empty.
func (m *Manager) LoadActive() error {
	records, err := m.branches.ListNonTerminal()
	if err != nil {
		return fmt.Errorf("branchmanager: load active branches: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range records {
		m.active[rec.ID] = rec
	}
	return nil
}

func (m *Manager) emit(kind broadcaster.Kind, fields map[string]any) {
	if m.events == nil {
		return
	}
	m.events.Broadcast(broadcaster.Event{Kind: kind, Timestamp: time.Now().UnixMilli(), Fields: fields})
}
