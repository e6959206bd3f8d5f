package branchmanager

import (
	"time"

	"github.com/brioctl/brio/internal/broadcaster"
	"github.com/brioctl/brio/internal/domain"
)

// CreateBranch validates the name, active-count, and nesting-depth
// invariants, opens a workspace session rooted at the parent branch's
// session (or basePath when parent is nil), and records a Pending branch.
func (m *Manager) CreateBranch(
	name string,
	parent *domain.BranchId,
	strategy domain.ExecutionStrategy,
	agents []domain.AgentAssignment,
	inheritParentConfig bool,
	basePath string,
) (*domain.BranchRecord, error) {
	if err := domain.ValidateBranchName(name); err != nil {
		return nil, err
	}

	sessionRoot := basePath
	var parentRecord *domain.BranchRecord
	if parent != nil {
		rec, err := m.branches.Get(*parent)
		if err != nil {
			return nil, ErrParentNotFound
		}
		parentRecord = rec
		session, err := m.sessions.Get(rec.SessionID)
		if err != nil {
			return nil, ErrParentNotFound
		}
		sessionRoot = session.SessionPath
	}

	// The admission check (depth, active count) and the reservation that
	// follows it (session snapshot, repository insert, active-index entry)
	// must happen as one atomic unit: releasing the lock between them lets
	// two concurrent callers near the cap both pass the check and jointly
	// exceed MaxConcurrentBranches. Holding the lock across the session and
	// repository calls serializes branch creation entirely, trading
	// concurrency for the invariant.
	m.mu.Lock()
	defer m.mu.Unlock()

	depth := m.nestingDepth(parent)
	if depth >= domain.MaxBranchNestingDepth {
		return nil, ErrMaxNestingDepth
	}

	activeCount := m.countActiveLocked()
	if activeCount >= domain.MaxConcurrentBranches {
		return nil, ErrMaxBranchesReached
	}

	session, err := m.sessions.Begin(sessionRoot)
	if err != nil {
		return nil, &CreationFailedError{Reason: "open workspace session", Err: err}
	}

	config := domain.BranchConfig{Agents: agents, Strategy: strategy, InheritParentConfig: inheritParentConfig}
	if inheritParentConfig && parentRecord != nil {
		config.MaxDurationSecs = parentRecord.Config.MaxDurationSecs
		if len(agents) == 0 {
			config.Agents = parentRecord.Config.Agents
		}
	}

	branch := &domain.BranchRecord{
		ID:           domain.NewBranchId(),
		Name:         name,
		ParentBranch: parent,
		SessionID:    session.ID,
		Config:       config,
		Status:       domain.BranchPending,
		CreatedAt:    time.Now().UnixMilli(),
	}

	if err := m.branches.Insert(branch); err != nil {
		m.sessions.Rollback(session.ID)
		return nil, &CreationFailedError{Reason: "persist branch record", Err: err}
	}

	m.active[branch.ID] = branch

	fields := map[string]any{"branch_id": branch.ID.String(), "name": branch.Name}
	if parent != nil {
		fields["parent_branch_id"] = parent.String()
	}
	m.emit(broadcaster.KindBranchCreated, fields)

	return branch, nil
}

// nestingDepth walks the parent chain (live index first, falling back to
// the repository) and returns the length of the chain starting at parent:
// the parent itself plus each of its ancestors (0 for a nil parent, 1 for a
// top-level parent), i.e. the depth a new child of parent would sit at.
func (m *Manager) nestingDepth(parent *domain.BranchId) int {
	depth := 0
	current := parent
	for current != nil {
		depth++
		rec, ok := m.active[*current]
		if !ok {
			loaded, err := m.branches.Get(*current)
			if err != nil {
				break
			}
			rec = loaded
		}
		current = rec.ParentBranch
	}
	return depth
}

func (m *Manager) countActiveLocked() int {
	n := 0
	for _, rec := range m.active {
		if rec.Status.IsActive() || rec.Status == domain.BranchPending {
			n++
		}
	}
	return n
}
