package branchmanager

import (
	"fmt"

	"github.com/brioctl/brio/internal/broadcaster"
	"github.com/brioctl/brio/internal/domain"
)

// AbortBranch transitions a Pending or Active branch to Failed, rolls back
// its workspace session (base left untouched), and emits BranchAborted.
func (m *Manager) AbortBranch(id domain.BranchId, reason string) error {
	branch, err := m.getLocked(id)
	if err != nil {
		return err
	}
	if branch.Status != domain.BranchPending && branch.Status != domain.BranchActive {
		return &domain.InvalidBranchTransitionError{From: branch.Status, To: domain.BranchFailed}
	}

	if err := m.sessions.Rollback(branch.SessionID); err != nil {
		return fmt.Errorf("branchmanager: rollback session for aborted branch %s: %w", id, err)
	}
	if err := m.setStatus(branch, domain.BranchFailed); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.active, id)
	m.mu.Unlock()

	m.emit(broadcaster.KindBranchAborted, map[string]any{"branch_id": id.String(), "reason": reason})
	return nil
}
