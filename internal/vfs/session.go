package vfs

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brioctl/brio/internal/domain"
	"github.com/brioctl/brio/internal/filelock"
)

// SessionInfo describes one open copy-on-write session.
type SessionInfo struct {
	ID           string
	BasePath     string
	SessionPath  string
	BaselineHash string
	CreatedAt    time.Time
}

type session struct {
	info SessionInfo
	lock *filelock.FileLock
}

// Manager owns the lifecycle of VFS sessions rooted under a scratch
// directory, one per active branch.
type Manager struct {
	mu       sync.Mutex
	scratch  string
	sessions map[string]*session

	// OnExternalChange, if set, is invoked with the base path whenever the
	// best-effort watcher observes activity under an open session's base.
	// It is advisory only: Commit always re-derives the authoritative
	// answer from computeDirectoryHash, never from this hint.
	OnExternalChange func(basePath string)
}

// NewManager creates a Manager that stages session directories under scratchDir.
func NewManager(scratchDir string) (*Manager, error) {
	if err := os.MkdirAll(scratchDir, 0755); err != nil {
		return nil, fmt.Errorf("vfs: create scratch dir: %w", err)
	}
	return &Manager{scratch: scratchDir, sessions: map[string]*session{}}, nil
}

// Begin snapshots basePath into a fresh session directory and records the
// base's current content hash as the baseline Commit will check against.
func (m *Manager) Begin(basePath string) (SessionInfo, error) {
	absBase, err := filepath.Abs(basePath)
	if err != nil {
		return SessionInfo{}, fmt.Errorf("vfs: resolve base path: %w", err)
	}

	id := uuid.New().String()
	sessionPath := filepath.Join(m.scratch, id)
	if err := os.MkdirAll(sessionPath, 0755); err != nil {
		return SessionInfo{}, fmt.Errorf("vfs: create session dir: %w", err)
	}

	if err := copyDirReflink(absBase, sessionPath); err != nil {
		os.RemoveAll(sessionPath)
		return SessionInfo{}, fmt.Errorf("vfs: snapshot base: %w", err)
	}

	baseline, err := computeDirectoryHash(absBase)
	if err != nil {
		os.RemoveAll(sessionPath)
		return SessionInfo{}, fmt.Errorf("vfs: hash base: %w", err)
	}

	info := SessionInfo{
		ID:           id,
		BasePath:     absBase,
		SessionPath:  sessionPath,
		BaselineHash: baseline,
		CreatedAt:    time.Now(),
	}

	m.mu.Lock()
	m.sessions[id] = &session{info: info, lock: filelock.NewFileLock(absBase + ".brio-vfs.lock")}
	m.mu.Unlock()

	return info, nil
}

// Get returns the recorded info for an open session.
func (m *Manager) Get(sessionID string) (SessionInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return SessionInfo{}, ErrSessionNotFound
	}
	return s.info, nil
}

// Commit locks the base directory, verifies nobody modified it since
// Begin, and if so applies the session's files over the base atomically
// (staging a full replacement tree, then renaming it into place) before
// discarding the session. On any conflict the base is left untouched and
// a *ConflictError is returned: a session never silently overwrites a
// base that changed underneath it.
func (m *Manager) Commit(sessionID string) error {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	if _, err := os.Stat(s.info.SessionPath); os.IsNotExist(err) {
		return ErrSessionDirectoryLost
	}

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("vfs: lock base: %w", err)
	}
	defer s.lock.Unlock()

	current, err := computeDirectoryHash(s.info.BasePath)
	if err != nil {
		return fmt.Errorf("vfs: rehash base: %w", err)
	}
	if current != s.info.BaselineHash {
		return &ConflictError{Path: s.info.BasePath, BaselineHash: s.info.BaselineHash, CurrentHash: current}
	}

	staged := s.info.SessionPath + ".staged"
	if err := os.RemoveAll(staged); err != nil {
		return fmt.Errorf("vfs: clear staging dir: %w", err)
	}
	if err := copyDirReflink(s.info.SessionPath, staged); err != nil {
		os.RemoveAll(staged)
		return fmt.Errorf("vfs: stage commit: %w", err)
	}

	backup := s.info.BasePath + ".brio-vfs-backup"
	os.RemoveAll(backup)
	if err := os.Rename(s.info.BasePath, backup); err != nil {
		os.RemoveAll(staged)
		return fmt.Errorf("vfs: back up base: %w", err)
	}
	if err := os.Rename(staged, s.info.BasePath); err != nil {
		// roll back: restore the original base from the backup we just made
		os.Rename(backup, s.info.BasePath)
		return fmt.Errorf("vfs: swap in staged commit: %w", err)
	}
	os.RemoveAll(backup)

	m.discard(sessionID)
	return nil
}

// Rollback discards a session's working directory without touching base.
func (m *Manager) Rollback(sessionID string) error {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	if err := os.RemoveAll(s.info.SessionPath); err != nil {
		return fmt.Errorf("vfs: remove session dir: %w", err)
	}
	m.discard(sessionID)
	return nil
}

func (m *Manager) discard(sessionID string) {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
}

// CollectChanges diffs a session's working directory against its base by
// content hash, classifying every touched path as Added, Modified, or
// Deleted. This intentionally does not fall back to reporting every
// touched path as Modified: an unchanged file that merely exists in both
// trees is not a change at all.
func CollectChanges(info SessionInfo) ([]domain.FileChange, error) {
	baseFiles, err := hashTree(info.BasePath)
	if err != nil {
		return nil, fmt.Errorf("vfs: hash base tree: %w", err)
	}
	sessionFiles, err := hashTree(info.SessionPath)
	if err != nil {
		return nil, fmt.Errorf("vfs: hash session tree: %w", err)
	}

	var changes []domain.FileChange
	for path, hash := range sessionFiles {
		baseHash, existed := baseFiles[path]
		switch {
		case !existed:
			changes = append(changes, domain.FileChange{Path: path, Type: domain.ChangeAdded, NewHash: hash})
		case baseHash != hash:
			changes = append(changes, domain.FileChange{Path: path, Type: domain.ChangeModified, NewHash: hash})
		}
	}
	for path := range baseFiles {
		if _, stillExists := sessionFiles[path]; !stillExists {
			changes = append(changes, domain.FileChange{Path: path, Type: domain.ChangeDeleted})
		}
	}
	return changes, nil
}

// hashTree returns a per-file SHA-256 hash keyed by slash-separated path
// relative to root.
func hashTree(root string) (map[string]string, error) {
	out := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		hash, err := hashFile(path)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = hash
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
