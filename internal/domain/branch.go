package domain

import "strings"

// Branch validation constants.
const (
	// MaxConcurrentBranches caps the number of active branches per base workspace.
	MaxConcurrentBranches = 8
	// MaxBranchNestingDepth caps how deeply branches may nest off one another.
	MaxBranchNestingDepth = 3
	// MinBranchNameLen is the shortest legal branch name.
	MinBranchNameLen = 1
	// MaxBranchNameLen is the longest legal branch name.
	MaxBranchNameLen = 256
)

// BranchStatus enumerates a branch's lifecycle state.
type BranchStatus int

const (
	BranchPending BranchStatus = iota
	BranchActive
	BranchCompleted
	BranchFailed
	BranchMerging
	BranchMerged
)

func (b BranchStatus) String() string {
	switch b {
	case BranchPending:
		return "pending"
	case BranchActive:
		return "active"
	case BranchCompleted:
		return "completed"
	case BranchFailed:
		return "failed"
	case BranchMerging:
		return "merging"
	case BranchMerged:
		return "merged"
	default:
		return "unknown"
	}
}

// ParseBranchStatus parses the string form of a branch status (case-insensitive).
func ParseBranchStatus(raw string) (BranchStatus, error) {
	switch strings.ToLower(raw) {
	case "pending":
		return BranchPending, nil
	case "active":
		return BranchActive, nil
	case "completed":
		return BranchCompleted, nil
	case "failed":
		return BranchFailed, nil
	case "merging":
		return BranchMerging, nil
	case "merged":
		return BranchMerged, nil
	default:
		return 0, &ParseStatusError{Raw: raw}
	}
}

// IsTerminal reports whether the status is Completed, Merged, or Failed.
func (b BranchStatus) IsTerminal() bool {
	return b == BranchCompleted || b == BranchMerged || b == BranchFailed
}

// IsActive reports whether the branch is actively consuming a concurrency slot.
func (b BranchStatus) IsActive() bool {
	return b == BranchActive || b == BranchMerging
}

var branchTransitions = map[BranchStatus]map[BranchStatus]bool{
	BranchPending:   {BranchActive: true, BranchFailed: true},
	BranchActive:    {BranchCompleted: true, BranchMerging: true, BranchFailed: true},
	BranchCompleted: {BranchMerging: true},
	BranchMerging:   {BranchMerged: true, BranchFailed: true},
	BranchMerged:    {},
	BranchFailed:    {},
}

// ValidateTransition checks that moving from b to target is legal.
func (b BranchStatus) ValidateTransition(target BranchStatus) error {
	if branchTransitions[b][target] {
		return nil
	}
	return &InvalidBranchTransitionError{From: b, To: target}
}

// ExecutionStrategy governs how a branch drives its assigned agents.
type ExecutionStrategy int

const (
	// ExecutionSequential runs one agent at a time, ordered by config.
	ExecutionSequential ExecutionStrategy = iota
	// ExecutionParallel fans out to all assigned agents concurrently.
	ExecutionParallel
)

func (e ExecutionStrategy) String() string {
	if e == ExecutionParallel {
		return "parallel"
	}
	return "sequential"
}

// ParseExecutionStrategy parses the string form of an execution strategy.
func ParseExecutionStrategy(raw string) (ExecutionStrategy, error) {
	switch strings.ToLower(raw) {
	case "sequential":
		return ExecutionSequential, nil
	case "parallel":
		return ExecutionParallel, nil
	default:
		return 0, &ParseStatusError{Raw: raw}
	}
}

// AgentAssignment pairs an agent with the role it plays within a branch
// (e.g. "reviewer", "implementer-a"), used to order Sequential execution
// and to label ExecutionMetrics.
type AgentAssignment struct {
	Agent AgentId
	Role  string
}

// BranchConfig captures the agent roster, execution strategy, and resource
// caps under which a branch runs.
type BranchConfig struct {
	Agents              []AgentAssignment
	Strategy            ExecutionStrategy
	MaxDurationSecs     int
	InheritParentConfig bool
}

// ExecutionMetrics records what happened during a branch's ExecuteBranch run.
type ExecutionMetrics struct {
	DurationMillis int64
	AgentsRan      int
	Errors         int
}

// BranchRecord is the Branch entity.
type BranchRecord struct {
	ID           BranchId
	Name         string
	ParentBranch *BranchId
	SessionID    string
	Config       BranchConfig
	Status       BranchStatus
	CreatedAt    int64 // unix millis
	CompletedAt  *int64
	Result       *ExecutionMetrics
}

// ValidateBranchName enforces the 1-256 character invariant.
func ValidateBranchName(name string) error {
	if len(name) < MinBranchNameLen || len(name) > MaxBranchNameLen {
		return ErrInvalidBranchName
	}
	return nil
}
