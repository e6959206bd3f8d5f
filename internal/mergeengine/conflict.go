package mergeengine

import (
	"bytes"

	"github.com/brioctl/brio/internal/domain"
)

// BinarySniffLen is how many leading bytes of a file are scanned for a NUL
// byte to classify it as binary.
const BinarySniffLen = 8192

// IsBinaryFile reports whether content looks binary by scanning its first
// BinarySniffLen bytes for a NUL byte.
func IsBinaryFile(content []byte) bool {
	limit := len(content)
	if limit > BinarySniffLen {
		limit = BinarySniffLen
	}
	return bytes.IndexByte(content[:limit], 0) != -1
}

// ChangesConflict reports whether two FileChanges on the same path,
// proposed by different branches, require a Conflict to be raised: an
// Add/Add or Modified/Modified with different content, or a Delete paired
// with a Modified.
func ChangesConflict(left, right domain.FileChange) bool {
	if left.Path != right.Path {
		return false
	}
	switch {
	case left.Type == domain.ChangeAdded && right.Type == domain.ChangeAdded:
		return left.NewHash != right.NewHash
	case left.Type == domain.ChangeDeleted && right.Type == domain.ChangeModified,
		left.Type == domain.ChangeModified && right.Type == domain.ChangeDeleted:
		return true
	case left.Type == domain.ChangeModified && right.Type == domain.ChangeModified:
		return left.NewHash != right.NewHash
	default:
		return false
	}
}

// DetectConflicts pairs up changes from two branches by path and reports
// every pair that conflicts per ChangesConflict, anchoring the resulting
// Conflict to both branch ids.
func DetectConflicts(leftBranch, rightBranch domain.BranchId, left, right []domain.FileChange) []domain.Conflict {
	rightByPath := make(map[string]domain.FileChange, len(right))
	for _, c := range right {
		rightByPath[c.Path] = c
	}

	var conflicts []domain.Conflict
	for _, lc := range left {
		rc, ok := rightByPath[lc.Path]
		if !ok || !ChangesConflict(lc, rc) {
			continue
		}
		ctype := domain.ConflictContent
		switch {
		case lc.Type == domain.ChangeAdded && rc.Type == domain.ChangeAdded:
			ctype = domain.ConflictAddAdd
		case lc.Type == domain.ChangeDeleted || rc.Type == domain.ChangeDeleted:
			ctype = domain.ConflictDeleteModify
		}
		conflicts = append(conflicts, domain.Conflict{
			Path:        lc.Path,
			Type:        ctype,
			LeftBranch:  leftBranch,
			RightBranch: rightBranch,
		})
	}
	return conflicts
}
