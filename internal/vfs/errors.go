// Package vfs implements session-scoped copy-on-write workspaces: a branch
// begins a session against a base directory, works inside an isolated
// snapshot, and either commits its changes back (atomically, rejecting the
// commit if the base moved underneath it) or rolls back, leaving the base
// untouched.
package vfs

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when an operation names an unknown session id.
	ErrSessionNotFound = errors.New("vfs: session not found")
	// ErrSessionDirectoryLost is returned when a session's working directory
	// has disappeared out from under it (deleted externally) before commit.
	ErrSessionDirectoryLost = errors.New("vfs: session directory lost")
)

// ConflictError reports that the base directory's content hash changed
// between Begin and Commit: someone else wrote to it while the session was
// open. The base is left exactly as found; the session's changes are not
// applied.
type ConflictError struct {
	Path         string
	BaselineHash string
	CurrentHash  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("vfs: conflict on %s: base changed (baseline %s, current %s)", e.Path, e.BaselineHash, e.CurrentHash)
}
