package mergeengine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brioctl/brio/internal/domain"
)

func TestIsBinaryFile(t *testing.T) {
	assert.False(t, IsBinaryFile([]byte("hello world\nline two")))
	assert.True(t, IsBinaryFile([]byte{0x50, 0x4B, 0x00, 0x03, 0x04}))
}

func TestIsBinaryFile_OnlyScansSniffWindow(t *testing.T) {
	content := make([]byte, BinarySniffLen+10)
	for i := range content {
		content[i] = 'a'
	}
	content[len(content)-1] = 0 // NUL past the sniff window
	assert.False(t, IsBinaryFile(content))
}

func TestChangesConflict(t *testing.T) {
	assert.True(t, ChangesConflict(
		domain.FileChange{Path: "a", Type: domain.ChangeAdded, NewHash: "h1"},
		domain.FileChange{Path: "a", Type: domain.ChangeAdded, NewHash: "h2"},
	))
	assert.False(t, ChangesConflict(
		domain.FileChange{Path: "a", Type: domain.ChangeAdded, NewHash: "h1"},
		domain.FileChange{Path: "a", Type: domain.ChangeAdded, NewHash: "h1"},
	))
	assert.True(t, ChangesConflict(
		domain.FileChange{Path: "a", Type: domain.ChangeDeleted},
		domain.FileChange{Path: "a", Type: domain.ChangeModified, NewHash: "h1"},
	))
	assert.False(t, ChangesConflict(
		domain.FileChange{Path: "a", Type: domain.ChangeModified},
		domain.FileChange{Path: "b", Type: domain.ChangeModified},
	))
}

func TestDetectConflicts(t *testing.T) {
	left := domain.NewBranchId()
	right := domain.NewBranchId()

	conflicts := DetectConflicts(left, right,
		[]domain.FileChange{{Path: "a.txt", Type: domain.ChangeModified, NewHash: "h1"}},
		[]domain.FileChange{{Path: "a.txt", Type: domain.ChangeModified, NewHash: "h2"}},
	)
	assert.Len(t, conflicts, 1)
	assert.Equal(t, domain.ConflictContent, conflicts[0].Type)
	assert.Equal(t, left, conflicts[0].LeftBranch)
	assert.Equal(t, right, conflicts[0].RightBranch)
}
