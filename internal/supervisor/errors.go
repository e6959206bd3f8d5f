package supervisor

import (
	"fmt"

	"github.com/brioctl/brio/internal/domain"
)

// ErrorKind distinguishes the failure classes a handler can raise.
type ErrorKind int

const (
	// ErrRepository wraps a failure reading or writing a repository.
	ErrRepository ErrorKind = iota
	// ErrPlanning wraps a Planner.Plan failure.
	ErrPlanning
	// ErrDispatch wraps an AgentDispatcher.Dispatch failure.
	ErrDispatch
	// ErrStatusUpdate wraps a failure persisting a status transition.
	ErrStatusUpdate
)

func (k ErrorKind) String() string {
	switch k {
	case ErrRepository:
		return "repository"
	case ErrPlanning:
		return "planning"
	case ErrDispatch:
		return "dispatch"
	case ErrStatusUpdate:
		return "status_update"
	default:
		return "unknown"
	}
}

// SupervisorError is the uniform error type every handler returns, carrying
// which class of failure occurred and the task it occurred against.
type SupervisorError struct {
	Kind   ErrorKind
	TaskID domain.TaskId
	Err    error
}

func (e *SupervisorError) Error() string {
	return fmt.Sprintf("supervisor: %s error on %s: %v", e.Kind, e.TaskID, e.Err)
}

func (e *SupervisorError) Unwrap() error { return e.Err }

func repositoryErr(id domain.TaskId, err error) error {
	if err == nil {
		return nil
	}
	return &SupervisorError{Kind: ErrRepository, TaskID: id, Err: err}
}

func planningErr(id domain.TaskId, err error) error {
	return &SupervisorError{Kind: ErrPlanning, TaskID: id, Err: err}
}

func dispatchErr(id domain.TaskId, err error) error {
	return &SupervisorError{Kind: ErrDispatch, TaskID: id, Err: err}
}

func statusUpdateErr(id domain.TaskId, err error) error {
	return &SupervisorError{Kind: ErrStatusUpdate, TaskID: id, Err: err}
}
