package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/brioctl/brio/internal/domain"
	"github.com/brioctl/brio/internal/sqlstore"
)

// MergeRequestRepository persists domain.MergeRequest rows under the
// system scope.
type MergeRequestRepository struct {
	store *sqlstore.Store
}

// NewMergeRequestRepository wraps a Store for merge request persistence.
func NewMergeRequestRepository(store *sqlstore.Store) *MergeRequestRepository {
	return &MergeRequestRepository{store: store}
}

// mergeConflictPayload mirrors domain.Conflict for JSON storage; kept
// separate from the domain type so the wire format doesn't shift if the
// domain struct grows fields that shouldn't be persisted.
type mergeConflictPayload struct {
	Path        string `json:"path"`
	Type        int    `json:"type"`
	BaseRegion  string `json:"base_region,omitempty"`
	LeftRegion  string `json:"left_region,omitempty"`
	RightRegion string `json:"right_region,omitempty"`
	LeftBranch  string `json:"left_branch"`
	RightBranch string `json:"right_branch"`
}

func encodeConflicts(conflicts []domain.Conflict) (any, error) {
	if len(conflicts) == 0 {
		return nil, nil
	}
	payload := make([]mergeConflictPayload, len(conflicts))
	for i, c := range conflicts {
		payload[i] = mergeConflictPayload{
			Path: c.Path, Type: int(c.Type),
			BaseRegion: c.BaseRegion, LeftRegion: c.LeftRegion, RightRegion: c.RightRegion,
			LeftBranch: c.LeftBranch.String(), RightBranch: c.RightBranch.String(),
		}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("repository: encode conflicts: %w", err)
	}
	return string(raw), nil
}

func decodeConflicts(raw any) ([]domain.Conflict, error) {
	str, ok := raw.(string)
	if !ok || str == "" {
		return nil, nil
	}
	var payload []mergeConflictPayload
	if err := json.Unmarshal([]byte(str), &payload); err != nil {
		return nil, fmt.Errorf("repository: decode conflicts: %w", err)
	}
	conflicts := make([]domain.Conflict, len(payload))
	for i, p := range payload {
		if p.LeftBranch != "" {
			left, err := domain.BranchIdFromString(p.LeftBranch)
			if err != nil {
				return nil, err
			}
			conflicts[i].LeftBranch = left
		}
		if p.RightBranch != "" {
			right, err := domain.BranchIdFromString(p.RightBranch)
			if err != nil {
				return nil, err
			}
			conflicts[i].RightBranch = right
		}
		conflicts[i].Path = p.Path
		conflicts[i].Type = domain.ConflictType(p.Type)
		conflicts[i].BaseRegion = p.BaseRegion
		conflicts[i].LeftRegion = p.LeftRegion
		conflicts[i].RightRegion = p.RightRegion
	}
	return conflicts, nil
}

// Insert writes a new merge request row.
func (r *MergeRequestRepository) Insert(mr *domain.MergeRequest) error {
	approval := 0
	if mr.RequiresApproval {
		approval = 1
	}
	conflicts, err := encodeConflicts(mr.Conflicts)
	if err != nil {
		return err
	}
	_, err = r.store.Execute(sqlstore.SystemScope,
		`INSERT INTO brio_merge_requests (id, branch_id, proposed_strategy, requires_approval, status, conflicts_json, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		mr.ID.String(), mr.BranchID.String(), mr.ProposedStrategy.String(), approval, mr.Status.String(), conflicts, mr.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: insert merge request: %w", err)
	}
	return nil
}

// UpdateStatus checks the terminal-state invariant and, if it still
// permits the move, persists the new status.
func (r *MergeRequestRepository) UpdateStatus(mr *domain.MergeRequest, target domain.MergeRequestStatus) error {
	if err := mr.ValidateTransition(target); err != nil {
		return err
	}
	_, err := r.store.Execute(sqlstore.SystemScope,
		`UPDATE brio_merge_requests SET status = ? WHERE id = ?`, target.String(), mr.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("repository: update merge request status: %w", err)
	}
	mr.Status = target
	return nil
}

// SetConflicts persists a merge request's conflict list and moves its
// status to Conflict in a single write, per the Merge Engine's "Conflict"
// outcome classification.
func (r *MergeRequestRepository) SetConflicts(mr *domain.MergeRequest, conflicts []domain.Conflict) error {
	if err := mr.ValidateTransition(domain.MergeRequestConflict); err != nil {
		return err
	}
	payload, err := encodeConflicts(conflicts)
	if err != nil {
		return err
	}
	_, err = r.store.Execute(sqlstore.SystemScope,
		`UPDATE brio_merge_requests SET status = ?, conflicts_json = ? WHERE id = ?`,
		domain.MergeRequestConflict.String(), payload, mr.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("repository: set merge request conflicts: %w", err)
	}
	mr.Status = domain.MergeRequestConflict
	mr.Conflicts = conflicts
	return nil
}

// Get loads a merge request by id.
func (r *MergeRequestRepository) Get(id domain.MergeRequestId) (*domain.MergeRequest, error) {
	rows, err := r.store.Query(sqlstore.SystemScope,
		`SELECT id, branch_id, proposed_strategy, requires_approval, status, conflicts_json, created_at FROM brio_merge_requests WHERE id = ?`, id.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("repository: get merge request: %w", err)
	}
	if len(rows) == 0 {
		return nil, sql.ErrNoRows
	}
	return rowToMergeRequest(rows[0])
}

func rowToMergeRequest(row sqlstore.Row) (*domain.MergeRequest, error) {
	idStr, _ := row["id"].(string)
	id, err := domain.MergeRequestIdFromString(idStr)
	if err != nil {
		return nil, err
	}
	branchIDStr, _ := row["branch_id"].(string)
	branchID, err := domain.BranchIdFromString(branchIDStr)
	if err != nil {
		return nil, err
	}
	strategyStr, _ := row["proposed_strategy"].(string)
	strategy, err := domain.ParseMergeStrategyName(strategyStr)
	if err != nil {
		return nil, err
	}
	statusStr, _ := row["status"].(string)
	status, err := domain.ParseMergeRequestStatus(statusStr)
	if err != nil {
		return nil, err
	}
	requiresApproval, _ := row["requires_approval"].(int64)
	createdAt, _ := row["created_at"].(int64)
	conflicts, err := decodeConflicts(row["conflicts_json"])
	if err != nil {
		return nil, err
	}

	return &domain.MergeRequest{
		ID:               id,
		BranchID:         branchID,
		ProposedStrategy: strategy,
		RequiresApproval: requiresApproval != 0,
		Status:           status,
		Conflicts:        conflicts,
		CreatedAt:        createdAt,
	}, nil
}
