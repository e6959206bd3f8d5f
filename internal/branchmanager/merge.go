package branchmanager

import (
	"errors"
	"fmt"
	"time"

	"github.com/brioctl/brio/internal/broadcaster"
	"github.com/brioctl/brio/internal/domain"
	"github.com/brioctl/brio/internal/mergeengine"
	"github.com/brioctl/brio/internal/vfs"
)

// InitiateMerge allocates a MergeRequest in Pending status for branch id
// under the given strategy, emits MergeRequestCreated, and — when the
// Manager's AutoMerge flag is set and approval is not required — executes
// the merge immediately, so MergeRequestCreated always precedes any
// MergeCompleted/MergeConflictsDetected event for the request, including
// on the auto-merge path.
func (m *Manager) InitiateMerge(branchID domain.BranchId, strategy domain.MergeStrategyName, requiresApproval bool) (*domain.MergeRequest, error) {
	mr := &domain.MergeRequest{
		ID:               domain.NewMergeRequestId(),
		BranchID:         branchID,
		ProposedStrategy: strategy,
		RequiresApproval: requiresApproval,
		Status:           domain.MergeRequestPending,
		CreatedAt:        time.Now().UnixMilli(),
	}
	if err := m.mergeRequests.Insert(mr); err != nil {
		return nil, fmt.Errorf("branchmanager: persist merge request: %w", err)
	}
	m.emit(broadcaster.KindMergeRequestCreated, map[string]any{
		"merge_request_id": mr.ID.String(),
		"branch_id":        branchID.String(),
		"strategy":         strategy.String(),
	})

	if m.AutoMerge && !requiresApproval {
		if err := m.ExecuteMerge(mr.ID); err != nil {
			return mr, err
		}
	}
	return mr, nil
}

// GetMergeRequest implements supervisor.BranchManager.
func (m *Manager) GetMergeRequest(id domain.MergeRequestId) (*domain.MergeRequest, error) {
	mr, err := m.mergeRequests.Get(id)
	if err != nil {
		return nil, fmt.Errorf("branchmanager: get merge request %s: %w", id, err)
	}
	return mr, nil
}

// ExecuteMerge computes the branch's changes against its base, runs the
// Merge Engine under the request's proposed strategy, and classifies the
// outcome: no conflicts applies the result to base via the Workspace
// Session Manager and marks the request Merged; any conflict records the
// conflict list and marks the request Conflict. Implements
// supervisor.BranchManager.
func (m *Manager) ExecuteMerge(id domain.MergeRequestId) error {
	mr, err := m.mergeRequests.Get(id)
	if err != nil {
		return fmt.Errorf("branchmanager: get merge request %s: %w", id, err)
	}

	branch, session, err := m.lookupSession(mr.BranchID)
	if err != nil {
		return err
	}

	if branch.Status != domain.BranchMerging {
		if err := branch.Status.ValidateTransition(domain.BranchMerging); err != nil {
			return err
		}
		if err := m.setStatus(branch, domain.BranchMerging); err != nil {
			return err
		}
	}

	baseTree, err := readTree(session.BasePath)
	if err != nil {
		return err
	}
	sessionTree, err := readTree(session.SessionPath)
	if err != nil {
		return err
	}
	// A base path missing from the session was deleted there; a nil entry
	// tells the strategy so.
	for path := range baseTree {
		if _, ok := sessionTree[path]; !ok {
			sessionTree[path] = nil
		}
	}

	strategy, err := m.strategies.Get(mr.ProposedStrategy)
	if err != nil {
		return err
	}

	result, err := strategy.Merge(baseTree, []mergeengine.BranchChanges{{Branch: branch.ID, Files: sessionTree}})
	if err != nil {
		return fmt.Errorf("branchmanager: merge strategy %s: %w", mr.ProposedStrategy, err)
	}

	if len(result.Conflicts) > 0 {
		if err := m.mergeRequests.SetConflicts(mr, result.Conflicts); err != nil {
			return fmt.Errorf("branchmanager: record conflicts: %w", err)
		}
		m.emit(broadcaster.KindMergeConflictsDetected, map[string]any{
			"merge_request_id": id.String(),
			"branch_id":        mr.BranchID.String(),
			"conflicts":        len(result.Conflicts),
		})
		return nil
	}

	// Session paths absent from the result are removed before commit, so
	// the committed tree is the merge result.
	for path := range sessionTree {
		if _, ok := result.Files[path]; !ok {
			result.Files[path] = nil
		}
	}
	if err := writeTree(session.SessionPath, result.Files); err != nil {
		return fmt.Errorf("branchmanager: stage merged files: %w", err)
	}

	var conflictErr *vfs.ConflictError
	if err := m.sessions.Commit(session.ID); err != nil {
		if errors.As(err, &conflictErr) {
			conflict := []domain.Conflict{{
				LeftBranch: branch.ID,
				Path:       conflictErr.Path,
				Type:       domain.ConflictContent,
			}}
			if err := m.mergeRequests.SetConflicts(mr, conflict); err != nil {
				return fmt.Errorf("branchmanager: record base-drift conflict: %w", err)
			}
			m.emit(broadcaster.KindMergeConflictsDetected, map[string]any{
				"merge_request_id": id.String(),
				"branch_id":        mr.BranchID.String(),
				"conflicts":        1,
				"reason":           "base changed since branch started",
			})
			return nil
		}
		return fmt.Errorf("branchmanager: commit merged base: %w", err)
	}

	if err := m.mergeRequests.UpdateStatus(mr, domain.MergeRequestMerged); err != nil {
		return fmt.Errorf("branchmanager: mark merge request merged: %w", err)
	}
	if err := m.setStatus(branch, domain.BranchMerged); err != nil {
		return err
	}

	m.emit(broadcaster.KindMergeRequestCompleted, map[string]any{
		"merge_request_id": id.String(),
		"branch_id":        mr.BranchID.String(),
	})
	return nil
}

// ApproveMergeRequest transitions a pending merge request to Approved;
// the Supervisor's MergePendingApprovalHandler picks this up on its next
// poll and calls ExecuteMerge.
func (m *Manager) ApproveMergeRequest(id domain.MergeRequestId) error {
	mr, err := m.mergeRequests.Get(id)
	if err != nil {
		return fmt.Errorf("branchmanager: get merge request %s: %w", id, err)
	}
	if err := m.mergeRequests.UpdateStatus(mr, domain.MergeRequestApproved); err != nil {
		return fmt.Errorf("branchmanager: approve merge request: %w", err)
	}
	m.emit(broadcaster.KindMergeRequestApproved, map[string]any{"merge_request_id": id.String()})
	return nil
}

// RejectMergeRequest transitions a pending or conflicted merge request to
// the terminal Rejected status.
func (m *Manager) RejectMergeRequest(id domain.MergeRequestId) error {
	mr, err := m.mergeRequests.Get(id)
	if err != nil {
		return fmt.Errorf("branchmanager: get merge request %s: %w", id, err)
	}
	if err := m.mergeRequests.UpdateStatus(mr, domain.MergeRequestRejected); err != nil {
		return fmt.Errorf("branchmanager: reject merge request: %w", err)
	}
	m.emit(broadcaster.KindMergeRequestRejected, map[string]any{"merge_request_id": id.String()})
	return nil
}
