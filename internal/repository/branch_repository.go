package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/brioctl/brio/internal/domain"
	"github.com/brioctl/brio/internal/sqlstore"
)

type agentAssignmentPayload struct {
	Agent string `json:"agent"`
	Role  string `json:"role"`
}

type branchConfigPayload struct {
	Agents              []agentAssignmentPayload `json:"agents,omitempty"`
	Strategy            string                   `json:"strategy"`
	MaxDurationSecs     int                      `json:"max_duration_secs"`
	InheritParentConfig bool                     `json:"inherit_parent_config"`
}

type executionMetricsPayload struct {
	DurationMillis int64 `json:"duration_millis"`
	AgentsRan      int   `json:"agents_ran"`
	Errors         int   `json:"errors"`
}

func encodeBranchConfig(cfg domain.BranchConfig) (any, error) {
	payload := branchConfigPayload{
		Strategy:            cfg.Strategy.String(),
		MaxDurationSecs:     cfg.MaxDurationSecs,
		InheritParentConfig: cfg.InheritParentConfig,
	}
	for _, a := range cfg.Agents {
		payload.Agents = append(payload.Agents, agentAssignmentPayload{Agent: a.Agent.String(), Role: a.Role})
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("repository: encode branch config: %w", err)
	}
	return string(raw), nil
}

func decodeBranchConfig(raw any) (domain.BranchConfig, error) {
	str, ok := raw.(string)
	if !ok || str == "" {
		return domain.BranchConfig{}, nil
	}
	var payload branchConfigPayload
	if err := json.Unmarshal([]byte(str), &payload); err != nil {
		return domain.BranchConfig{}, fmt.Errorf("repository: decode branch config: %w", err)
	}
	strategy, err := domain.ParseExecutionStrategy(payload.Strategy)
	if err != nil {
		return domain.BranchConfig{}, err
	}
	cfg := domain.BranchConfig{
		Strategy:            strategy,
		MaxDurationSecs:     payload.MaxDurationSecs,
		InheritParentConfig: payload.InheritParentConfig,
	}
	for _, a := range payload.Agents {
		agent, err := domain.NewAgentId(a.Agent)
		if err != nil {
			return domain.BranchConfig{}, err
		}
		cfg.Agents = append(cfg.Agents, domain.AgentAssignment{Agent: agent, Role: a.Role})
	}
	return cfg, nil
}

func encodeExecutionMetrics(m *domain.ExecutionMetrics) (any, error) {
	if m == nil {
		return nil, nil
	}
	raw, err := json.Marshal(executionMetricsPayload{DurationMillis: m.DurationMillis, AgentsRan: m.AgentsRan, Errors: m.Errors})
	if err != nil {
		return nil, fmt.Errorf("repository: encode execution metrics: %w", err)
	}
	return string(raw), nil
}

func decodeExecutionMetrics(raw any) (*domain.ExecutionMetrics, error) {
	str, ok := raw.(string)
	if !ok || str == "" {
		return nil, nil
	}
	var payload executionMetricsPayload
	if err := json.Unmarshal([]byte(str), &payload); err != nil {
		return nil, fmt.Errorf("repository: decode execution metrics: %w", err)
	}
	return &domain.ExecutionMetrics{DurationMillis: payload.DurationMillis, AgentsRan: payload.AgentsRan, Errors: payload.Errors}, nil
}

// BranchRepository persists domain.BranchRecord rows under the system scope.
type BranchRepository struct {
	store *sqlstore.Store
}

// NewBranchRepository wraps a Store for branch persistence.
func NewBranchRepository(store *sqlstore.Store) *BranchRepository {
	return &BranchRepository{store: store}
}

// Insert writes a new branch row.
func (r *BranchRepository) Insert(b *domain.BranchRecord) error {
	var parent any
	if b.ParentBranch != nil {
		parent = b.ParentBranch.String()
	}
	config, err := encodeBranchConfig(b.Config)
	if err != nil {
		return err
	}
	result, err := encodeExecutionMetrics(b.Result)
	if err != nil {
		return err
	}
	_, err = r.store.Execute(sqlstore.SystemScope,
		`INSERT INTO brio_branches (id, name, parent_branch, session_id, status, config_json, result_json, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID.String(), b.Name, parent, b.SessionID, b.Status.String(), config, result, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: insert branch: %w", err)
	}
	return nil
}

// UpdateResult persists the ExecutionMetrics recorded once a branch finishes
// running its agent roster.
func (r *BranchRepository) UpdateResult(id domain.BranchId, metrics *domain.ExecutionMetrics) error {
	result, err := encodeExecutionMetrics(metrics)
	if err != nil {
		return err
	}
	_, err = r.store.Execute(sqlstore.SystemScope,
		`UPDATE brio_branches SET result_json = ? WHERE id = ?`,
		result, id.String(),
	)
	if err != nil {
		return fmt.Errorf("repository: update branch result: %w", err)
	}
	return nil
}

// UpdateStatus transitions a branch's recorded status, stamping
// completed_at when the target status is terminal.
func (r *BranchRepository) UpdateStatus(id domain.BranchId, status domain.BranchStatus) error {
	var completedAt any
	if status.IsTerminal() {
		completedAt = time.Now().UnixMilli()
	}
	_, err := r.store.Execute(sqlstore.SystemScope,
		`UPDATE brio_branches SET status = ?, completed_at = ? WHERE id = ?`,
		status.String(), completedAt, id.String(),
	)
	if err != nil {
		return fmt.Errorf("repository: update branch status: %w", err)
	}
	return nil
}

// CountActive returns how many persisted branches are currently Active or
// Merging. The Branch Manager's MaxConcurrentBranches check does not use
// it; that check counts the Manager's in-memory index.
func (r *BranchRepository) CountActive() (int, error) {
	rows, err := r.store.Query(sqlstore.SystemScope,
		`SELECT status FROM brio_branches WHERE status IN (?, ?)`,
		domain.BranchActive.String(), domain.BranchMerging.String(),
	)
	if err != nil {
		return 0, fmt.Errorf("repository: count active branches: %w", err)
	}
	return len(rows), nil
}

// ListNonTerminal returns every branch not yet Completed, Merged, or Failed,
// the set a Branch Manager reloads into its in-memory index on startup.
func (r *BranchRepository) ListNonTerminal() ([]*domain.BranchRecord, error) {
	rows, err := r.store.Query(sqlstore.SystemScope,
		`SELECT id, name, parent_branch, session_id, status, config_json, result_json, created_at FROM brio_branches WHERE status NOT IN (?, ?, ?)`,
		domain.BranchCompleted.String(), domain.BranchMerged.String(), domain.BranchFailed.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("repository: list non-terminal branches: %w", err)
	}
	branches := make([]*domain.BranchRecord, 0, len(rows))
	for _, row := range rows {
		b, err := rowToBranch(row)
		if err != nil {
			return nil, err
		}
		branches = append(branches, b)
	}
	return branches, nil
}

// Get loads a branch by id.
func (r *BranchRepository) Get(id domain.BranchId) (*domain.BranchRecord, error) {
	rows, err := r.store.Query(sqlstore.SystemScope,
		`SELECT id, name, parent_branch, session_id, status, config_json, result_json, created_at FROM brio_branches WHERE id = ?`, id.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("repository: get branch: %w", err)
	}
	if len(rows) == 0 {
		return nil, sql.ErrNoRows
	}
	return rowToBranch(rows[0])
}

func rowToBranch(row sqlstore.Row) (*domain.BranchRecord, error) {
	idStr, _ := row["id"].(string)
	id, err := domain.BranchIdFromString(idStr)
	if err != nil {
		return nil, err
	}
	name, _ := row["name"].(string)
	sessionID, _ := row["session_id"].(string)
	statusStr, _ := row["status"].(string)
	status, err := domain.ParseBranchStatus(statusStr)
	if err != nil {
		return nil, err
	}
	createdAt, _ := row["created_at"].(int64)

	var parent *domain.BranchId
	if raw, ok := row["parent_branch"].(string); ok && raw != "" {
		pid, err := domain.BranchIdFromString(raw)
		if err != nil {
			return nil, err
		}
		parent = &pid
	}

	config, err := decodeBranchConfig(row["config_json"])
	if err != nil {
		return nil, err
	}
	result, err := decodeExecutionMetrics(row["result_json"])
	if err != nil {
		return nil, err
	}

	return &domain.BranchRecord{
		ID:           id,
		Name:         name,
		ParentBranch: parent,
		SessionID:    sessionID,
		Config:       config,
		Status:       status,
		CreatedAt:    createdAt,
		Result:       result,
	}, nil
}
