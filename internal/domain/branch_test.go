package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBranchStatus_ValidateTransition(t *testing.T) {
	require.NoError(t, BranchPending.ValidateTransition(BranchActive))
	require.NoError(t, BranchActive.ValidateTransition(BranchCompleted))
	require.NoError(t, BranchCompleted.ValidateTransition(BranchMerging))
	require.NoError(t, BranchMerging.ValidateTransition(BranchMerged))

	err := BranchMerged.ValidateTransition(BranchActive)
	require.Error(t, err)
	var transErr *InvalidBranchTransitionError
	require.ErrorAs(t, err, &transErr)
}

func TestBranchStatus_TerminalAndActive(t *testing.T) {
	assert.True(t, BranchMerged.IsTerminal())
	assert.True(t, BranchCompleted.IsTerminal())
	assert.True(t, BranchFailed.IsTerminal())
	assert.False(t, BranchPending.IsTerminal())

	assert.True(t, BranchActive.IsActive())
	assert.True(t, BranchMerging.IsActive())
	assert.False(t, BranchPending.IsActive())
}

func TestValidateBranchName(t *testing.T) {
	require.NoError(t, ValidateBranchName("a"))
	require.NoError(t, ValidateBranchName("feature-x"))
	require.Error(t, ValidateBranchName(""))

	long := make([]byte, MaxBranchNameLen+1)
	for i := range long {
		long[i] = 'a'
	}
	require.Error(t, ValidateBranchName(string(long)))
}

func TestParseBranchStatus_RoundTrips(t *testing.T) {
	for _, s := range []BranchStatus{BranchPending, BranchActive, BranchCompleted, BranchFailed, BranchMerging, BranchMerged} {
		parsed, err := ParseBranchStatus(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
}
