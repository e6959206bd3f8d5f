package mergeengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreeWayMergeLines_CleanWhenOnlyOneSideChanges(t *testing.T) {
	base := []string{"1", "2", "3"}
	left := []string{"1", "X", "3"}
	right := []string{"1", "2", "3"}

	outcome := ThreeWayMergeLines(base, left, right)
	require.True(t, outcome.Clean)
	assert.Equal(t, []string{"1", "X", "3"}, outcome.Lines)
}

func TestThreeWayMergeLines_CleanWhenBothSidesMakeSameEdit(t *testing.T) {
	base := []string{"1", "2", "3"}
	left := []string{"1", "X", "3"}
	right := []string{"1", "X", "3"}

	outcome := ThreeWayMergeLines(base, left, right)
	require.True(t, outcome.Clean)
	assert.Equal(t, []string{"1", "X", "3"}, outcome.Lines)
}

// TestThreeWayMergeLines_ConflictScenario exercises the conflict scenario:
// base "1\n2\n3", left "1\nX\n3", right "1\nY\n3" must yield one LineConflict
// on line 2 with regions "X" and "Y" against base "2".
func TestThreeWayMergeLines_ConflictScenario(t *testing.T) {
	base := []string{"1", "2", "3"}
	left := []string{"1", "X", "3"}
	right := []string{"1", "Y", "3"}

	outcome := ThreeWayMergeLines(base, left, right)
	require.False(t, outcome.Clean)
	require.Len(t, outcome.Conflicts, 1)

	c := outcome.Conflicts[0]
	assert.Equal(t, []string{"2"}, base[c.BaseStart:c.BaseEnd])
	assert.Equal(t, []string{"X"}, c.LeftLines)
	assert.Equal(t, []string{"Y"}, c.RightLines)
}

func TestThreeWayMergeLines_NonOverlappingEditsBothApply(t *testing.T) {
	base := []string{"1", "2", "3", "4", "5"}
	left := []string{"L", "2", "3", "4", "5"}
	right := []string{"1", "2", "3", "4", "R"}

	outcome := ThreeWayMergeLines(base, left, right)
	require.True(t, outcome.Clean)
	assert.Equal(t, []string{"L", "2", "3", "4", "R"}, outcome.Lines)
}
