package branchmanager

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/brioctl/brio/internal/domain"
	"github.com/brioctl/brio/internal/fileutil"
	"github.com/brioctl/brio/internal/vfs"
)

// CollectChanges diffs a branch's session directory against its base,
// delegating the hash-based classification to vfs.CollectChanges: Added,
// Modified, and Deleted are reported distinctly rather than collapsed to
// a single Modified bucket.
func (m *Manager) CollectChanges(id domain.BranchId) ([]domain.FileChange, error) {
	_, session, err := m.lookupSession(id)
	if err != nil {
		return nil, err
	}
	changes, err := vfs.CollectChanges(session)
	if err != nil {
		return nil, fmt.Errorf("branchmanager: collect changes: %w", err)
	}
	return filterDotfiles(changes), nil
}

func (m *Manager) lookupSession(id domain.BranchId) (*domain.BranchRecord, vfs.SessionInfo, error) {
	m.mu.Lock()
	branch, ok := m.active[id]
	m.mu.Unlock()
	if !ok {
		loaded, err := m.branches.Get(id)
		if err != nil {
			return nil, vfs.SessionInfo{}, fmt.Errorf("branchmanager: branch %s not found: %w", id, err)
		}
		branch = loaded
	}
	session, err := m.sessions.Get(branch.SessionID)
	if err != nil {
		return nil, vfs.SessionInfo{}, fmt.Errorf("branchmanager: session for branch %s: %w", id, err)
	}
	return branch, session, nil
}

// filterDotfiles drops any change whose path has a dotfile component.
func filterDotfiles(changes []domain.FileChange) []domain.FileChange {
	out := changes[:0]
	for _, c := range changes {
		if !hasDotfileComponent(c.Path) {
			out = append(out, c)
		}
	}
	return out
}

func hasDotfileComponent(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}

// readTree reads every non-dotfile regular file under root into a
// path-to-lines map, the shape mergeengine.MergeStrategy operates on.
// Directory traversal and dotfile-directory exclusion are delegated to
// fileutil.ScanDirectory, the same scanner a plan file discovery walk uses.
func readTree(root string) (map[string][]string, error) {
	scan, err := fileutil.ScanDirectory(root, fileutil.ScanOptions{Recursive: true, ExcludeDirs: []string{".git"}})
	if err != nil {
		return nil, fmt.Errorf("branchmanager: read tree %s: %w", root, err)
	}

	out := map[string][]string{}
	for _, abs := range scan.Files {
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			return nil, fmt.Errorf("branchmanager: read tree %s: %w", root, err)
		}
		rel = filepath.ToSlash(rel)
		if hasDotfileComponent(rel) {
			continue
		}
		content, err := os.ReadFile(abs)
		if err != nil {
			return nil, fmt.Errorf("branchmanager: read tree %s: %w", root, err)
		}
		out[rel] = splitLines(string(content))
	}
	return out, nil
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

// writeTree writes result onto root: a nil slice for a path deletes it,
// anything else (re)writes its joined content.
func writeTree(root string, result map[string][]string) error {
	for path, lines := range result {
		target := filepath.Join(root, filepath.FromSlash(path))
		if lines == nil {
			if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("branchmanager: remove %s: %w", target, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("branchmanager: create parent dirs for %s: %w", target, err)
		}
		content := strings.Join(lines, "\n")
		if len(lines) > 0 {
			content += "\n"
		}
		if err := os.WriteFile(target, []byte(content), 0644); err != nil {
			return fmt.Errorf("branchmanager: write %s: %w", target, err)
		}
	}
	return nil
}
