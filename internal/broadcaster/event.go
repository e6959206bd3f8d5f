// Package broadcaster defines the lifecycle-event vocabulary the
// Supervisor and Branch Manager publish, plus a colorized console sink
// that renders each event as one line for interactive use.
package broadcaster

// Kind names an event's type.
type Kind string

const (
	KindBranchCreated           Kind = "branch_created"
	KindBranchExecutionStarted  Kind = "branch_execution_started"
	KindBranchExecutionFinished Kind = "branch_execution_finished"
	KindBranchAborted           Kind = "branch_aborted"
	KindMergeRequestCreated     Kind = "merge_request_created"
	KindMergeRequestApproved    Kind = "merge_request_approved"
	KindMergeRequestRejected    Kind = "merge_request_rejected"
	KindMergeRequestCompleted   Kind = "merge_request_completed"
	KindMergeConflictsDetected  Kind = "merge_conflicts_detected"
	KindTaskTransition          Kind = "task_transition"
)

// Event is the fire-and-forget payload handed to a Broadcaster. Fields
// carries event-kind-specific detail: branch events carry
// branch_id/parent_branch_id/name; merge events carry
// merge_request_id/branch_id/strategy/conflicts.
type Event struct {
	Kind      Kind
	Timestamp int64
	Fields    map[string]any
}

// Broadcaster publishes lifecycle events so UIs and external subscribers
// can observe state changes. Broadcast is fire-and-forget: delivery is
// best-effort and must never block the caller on a slow or absent
// subscriber.
type Broadcaster interface {
	Broadcast(event Event)
}
