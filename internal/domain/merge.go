package domain

import "strings"

// ChangeType classifies a FileChange.
type ChangeType int

const (
	ChangeAdded ChangeType = iota
	ChangeModified
	ChangeDeleted
)

func (c ChangeType) String() string {
	switch c {
	case ChangeAdded:
		return "added"
	case ChangeModified:
		return "modified"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// FileChange is the union of Added(path), Modified(path), Deleted(path),
// represented here as a tagged struct since Go has no sum types.
type FileChange struct {
	Path    string
	Type    ChangeType
	NewHash string // content hash after the change; empty for Deleted
}

// ConflictType classifies a Conflict.
type ConflictType int

const (
	// ConflictContent is a line-level content conflict with divergent regions.
	ConflictContent ConflictType = iota
	// ConflictAddAdd is raised when both sides add the same path with different content.
	ConflictAddAdd
	// ConflictDeleteModify is raised when one side deletes a file the other modified.
	ConflictDeleteModify
	// ConflictBinary is raised for a conflicting binary file under a strategy
	// other than Ours/Theirs.
	ConflictBinary
)

func (c ConflictType) String() string {
	switch c {
	case ConflictContent:
		return "content_conflict"
	case ConflictAddAdd:
		return "add_add"
	case ConflictDeleteModify:
		return "delete_modify"
	case ConflictBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// ParseConflictType parses the string form of a conflict type.
func ParseConflictType(raw string) (ConflictType, error) {
	switch strings.ToLower(raw) {
	case "content_conflict":
		return ConflictContent, nil
	case "add_add":
		return ConflictAddAdd, nil
	case "delete_modify":
		return ConflictDeleteModify, nil
	case "binary":
		return ConflictBinary, nil
	default:
		return 0, &ParseStatusError{Raw: raw}
	}
}

// Conflict is always anchored to exactly one branch pair and one file.
type Conflict struct {
	Path        string
	Type        ConflictType
	BaseRegion  string
	LeftRegion  string
	RightRegion string
	LeftBranch  BranchId
	RightBranch BranchId
}

// MergeStrategyName names the merge strategy a MergeRequest proposes.
type MergeStrategyName int

const (
	StrategyUnion MergeStrategyName = iota
	StrategyOurs
	StrategyTheirs
	StrategyThreeWay
)

func (s MergeStrategyName) String() string {
	switch s {
	case StrategyUnion:
		return "union"
	case StrategyOurs:
		return "ours"
	case StrategyTheirs:
		return "theirs"
	case StrategyThreeWay:
		return "three_way"
	default:
		return "unknown"
	}
}

// ParseMergeStrategyName parses the string form of a strategy name.
func ParseMergeStrategyName(raw string) (MergeStrategyName, error) {
	switch strings.ToLower(raw) {
	case "union":
		return StrategyUnion, nil
	case "ours":
		return StrategyOurs, nil
	case "theirs":
		return StrategyTheirs, nil
	case "three_way", "threeway":
		return StrategyThreeWay, nil
	default:
		return 0, &ParseStatusError{Raw: raw}
	}
}

// MergeRequestStatus enumerates a merge request's lifecycle.
type MergeRequestStatus int

const (
	MergeRequestPending MergeRequestStatus = iota
	MergeRequestApproved
	MergeRequestRejected
	MergeRequestMerged
	MergeRequestConflict
)

func (s MergeRequestStatus) String() string {
	switch s {
	case MergeRequestPending:
		return "pending"
	case MergeRequestApproved:
		return "approved"
	case MergeRequestRejected:
		return "rejected"
	case MergeRequestMerged:
		return "merged"
	case MergeRequestConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// ParseMergeRequestStatus parses the string form of a merge request status.
func ParseMergeRequestStatus(raw string) (MergeRequestStatus, error) {
	switch strings.ToLower(raw) {
	case "pending":
		return MergeRequestPending, nil
	case "approved":
		return MergeRequestApproved, nil
	case "rejected":
		return MergeRequestRejected, nil
	case "merged":
		return MergeRequestMerged, nil
	case "conflict":
		return MergeRequestConflict, nil
	default:
		return 0, &ParseStatusError{Raw: raw}
	}
}

// IsTerminal reports whether the status is Merged or Rejected: once in
// either state a merge request never changes again.
func (s MergeRequestStatus) IsTerminal() bool {
	return s == MergeRequestMerged || s == MergeRequestRejected
}

// MergeRequest records an intent to fold a branch's changes back into its parent.
type MergeRequest struct {
	ID               MergeRequestId
	BranchID         BranchId
	ProposedStrategy MergeStrategyName
	RequiresApproval bool
	Status           MergeRequestStatus
	Conflicts        []Conflict
	CreatedAt        int64
}

// ValidateTransition checks an update to the merge request's status against
// the terminal-state invariant: once Merged or Rejected, no further
// transition is permitted.
func (m *MergeRequest) ValidateTransition(target MergeRequestStatus) error {
	if m.Status.IsTerminal() {
		return &MergeRequestTerminalError{Status: m.Status, Attempted: target}
	}
	return nil
}

// MergeRequestTerminalError reports an attempt to transition a merge request
// out of a terminal status.
type MergeRequestTerminalError struct {
	Status    MergeRequestStatus
	Attempted MergeRequestStatus
}

func (e *MergeRequestTerminalError) Error() string {
	return "merge request already terminal (" + e.Status.String() + "), cannot transition to " + e.Attempted.String()
}
