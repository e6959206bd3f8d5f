package branchmanager

import (
	"fmt"
	"time"

	"github.com/brioctl/brio/internal/broadcaster"
	"github.com/brioctl/brio/internal/domain"
)

// ExecuteBranch transitions a branch Pending -> Active, drives its agent
// roster according to its ExecutionStrategy, and on completion transitions
// to Completed while recording ExecutionMetrics. A branch that has no
// runner wired still completes, having run zero agents.
func (m *Manager) ExecuteBranch(id domain.BranchId) error {
	branch, err := m.getLocked(id)
	if err != nil {
		return err
	}

	if err := branch.Status.ValidateTransition(domain.BranchActive); err != nil {
		return err
	}
	if err := m.setStatus(branch, domain.BranchActive); err != nil {
		return err
	}
	m.emit(broadcaster.KindBranchExecutionStarted, map[string]any{"branch_id": id.String()})

	session, err := m.sessions.Get(branch.SessionID)
	if err != nil {
		m.failBranch(branch, fmt.Sprintf("session lost: %v", err))
		return err
	}

	start := time.Now()
	metrics := domain.ExecutionMetrics{}

	if m.runner != nil {
		switch branch.Config.Strategy {
		case domain.ExecutionParallel:
			metrics = m.runParallel(branch, session.SessionPath)
		default:
			metrics = m.runSequential(branch, session.SessionPath)
		}
	}
	metrics.DurationMillis = time.Since(start).Milliseconds()

	if err := branch.Status.ValidateTransition(domain.BranchCompleted); err != nil {
		return err
	}
	branch.Result = &metrics
	if err := m.branches.UpdateResult(branch.ID, &metrics); err != nil {
		return fmt.Errorf("branchmanager: persist execution metrics: %w", err)
	}
	if err := m.setStatus(branch, domain.BranchCompleted); err != nil {
		return err
	}

	m.emit(broadcaster.KindBranchExecutionFinished, map[string]any{
		"branch_id":   id.String(),
		"duration_ms": metrics.DurationMillis,
		"agents_ran":  metrics.AgentsRan,
		"errors":      metrics.Errors,
	})
	return nil
}

// runSequential drives one agent at a time, in config order.
func (m *Manager) runSequential(branch *domain.BranchRecord, sessionPath string) domain.ExecutionMetrics {
	metrics := domain.ExecutionMetrics{}
	for _, assignment := range branch.Config.Agents {
		metrics.AgentsRan++
		if err := m.runner.RunAgent(branch, assignment, sessionPath); err != nil {
			metrics.Errors++
		}
	}
	return metrics
}

// runParallel fans out to every assigned agent concurrently.
func (m *Manager) runParallel(branch *domain.BranchRecord, sessionPath string) domain.ExecutionMetrics {
	type outcome struct{ err error }
	results := make(chan outcome, len(branch.Config.Agents))
	for _, assignment := range branch.Config.Agents {
		assignment := assignment
		go func() {
			results <- outcome{err: m.runner.RunAgent(branch, assignment, sessionPath)}
		}()
	}
	metrics := domain.ExecutionMetrics{AgentsRan: len(branch.Config.Agents)}
	for range branch.Config.Agents {
		if out := <-results; out.err != nil {
			metrics.Errors++
		}
	}
	return metrics
}

// getLocked returns the branch record from the active index, falling back
// to the repository for a branch not yet loaded into memory.
func (m *Manager) getLocked(id domain.BranchId) (*domain.BranchRecord, error) {
	m.mu.Lock()
	branch, ok := m.active[id]
	m.mu.Unlock()
	if ok {
		return branch, nil
	}
	loaded, err := m.branches.Get(id)
	if err != nil {
		return nil, fmt.Errorf("branchmanager: branch %s not found: %w", id, err)
	}
	m.mu.Lock()
	m.active[id] = loaded
	m.mu.Unlock()
	return loaded, nil
}

// setStatus persists and mirrors a branch status transition.
func (m *Manager) setStatus(branch *domain.BranchRecord, status domain.BranchStatus) error {
	if err := m.branches.UpdateStatus(branch.ID, status); err != nil {
		return fmt.Errorf("branchmanager: update branch status: %w", err)
	}
	m.mu.Lock()
	branch.Status = status
	m.mu.Unlock()
	return nil
}

func (m *Manager) failBranch(branch *domain.BranchRecord, reason string) {
	_ = m.setStatus(branch, domain.BranchFailed)
	m.emit(broadcaster.KindBranchAborted, map[string]any{"branch_id": branch.ID.String(), "reason": reason})
}
