package mergeengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brioctl/brio/internal/domain"
)

func TestRegistry_Get(t *testing.T) {
	r := NewDefaultRegistry()
	for _, name := range []domain.MergeStrategyName{domain.StrategyUnion, domain.StrategyOurs, domain.StrategyTheirs, domain.StrategyThreeWay} {
		s, err := r.Get(name)
		require.NoError(t, err)
		assert.Equal(t, name, s.Name())
	}
	_, err := r.Get(domain.MergeStrategyName(99))
	require.Error(t, err)
}

func TestValidateBranchCount(t *testing.T) {
	require.NoError(t, ValidateBranchCount(domain.StrategyOurs, 1))
	require.Error(t, ValidateBranchCount(domain.StrategyOurs, 2))
	require.Error(t, ValidateBranchCount(domain.StrategyTheirs, 0))
	require.NoError(t, ValidateBranchCount(domain.StrategyThreeWay, 2))
	require.Error(t, ValidateBranchCount(domain.StrategyThreeWay, 3))
	require.NoError(t, ValidateBranchCount(domain.StrategyUnion, 5))
}

func TestOursStrategy_RejectsBranchChanges(t *testing.T) {
	r := NewDefaultRegistry()
	s, err := r.Get(domain.StrategyOurs)
	require.NoError(t, err)

	base := map[string][]string{"a.txt": {"base"}}
	branch := BranchChanges{Branch: domain.NewBranchId(), Files: map[string][]string{"a.txt": {"branch"}}}

	result, err := s.Merge(base, []BranchChanges{branch})
	require.NoError(t, err)
	assert.Equal(t, []string{"base"}, result.Files["a.txt"])
	assert.Empty(t, result.Conflicts)
}

func TestTheirsStrategy_AcceptsBranchChangesWholesale(t *testing.T) {
	r := NewDefaultRegistry()
	s, err := r.Get(domain.StrategyTheirs)
	require.NoError(t, err)

	base := map[string][]string{"a.txt": {"base"}}
	branch := BranchChanges{Branch: domain.NewBranchId(), Files: map[string][]string{"a.txt": {"branch"}}}

	result, err := s.Merge(base, []BranchChanges{branch})
	require.NoError(t, err)
	assert.Equal(t, []string{"branch"}, result.Files["a.txt"])
	assert.Empty(t, result.Conflicts)
}

func TestUnionStrategy_NonOverlappingChangesBothApply(t *testing.T) {
	r := NewDefaultRegistry()
	s, err := r.Get(domain.StrategyUnion)
	require.NoError(t, err)

	base := map[string][]string{"a.txt": {"base-a"}, "b.txt": {"base-b"}}
	b1 := BranchChanges{Branch: domain.NewBranchId(), Files: map[string][]string{"a.txt": {"changed-a"}}}
	b2 := BranchChanges{Branch: domain.NewBranchId(), Files: map[string][]string{"b.txt": {"changed-b"}}}

	result, err := s.Merge(base, []BranchChanges{b1, b2})
	require.NoError(t, err)
	assert.Equal(t, []string{"changed-a"}, result.Files["a.txt"])
	assert.Equal(t, []string{"changed-b"}, result.Files["b.txt"])
	assert.Empty(t, result.Conflicts)
}

func TestUnionStrategy_SamePathDifferentContentConflicts(t *testing.T) {
	r := NewDefaultRegistry()
	s, err := r.Get(domain.StrategyUnion)
	require.NoError(t, err)

	base := map[string][]string{"a.txt": {"base"}}
	b1 := BranchChanges{Branch: domain.NewBranchId(), Files: map[string][]string{"a.txt": {"left"}}}
	b2 := BranchChanges{Branch: domain.NewBranchId(), Files: map[string][]string{"a.txt": {"right"}}}

	result, err := s.Merge(base, []BranchChanges{b1, b2})
	require.NoError(t, err)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, []string{"base"}, result.Files["a.txt"])
}

func TestThreeWayStrategy_MergesNonOverlappingLineEdits(t *testing.T) {
	r := NewDefaultRegistry()
	s, err := r.Get(domain.StrategyThreeWay)
	require.NoError(t, err)

	base := map[string][]string{"a.txt": {"1", "2", "3"}}
	left := BranchChanges{Branch: domain.NewBranchId(), Files: map[string][]string{"a.txt": {"L", "2", "3"}}}
	right := BranchChanges{Branch: domain.NewBranchId(), Files: map[string][]string{"a.txt": {"1", "2", "R"}}}

	result, err := s.Merge(base, []BranchChanges{left, right})
	require.NoError(t, err)
	assert.Equal(t, []string{"L", "2", "R"}, result.Files["a.txt"])
	assert.Empty(t, result.Conflicts)
}

func TestThreeWayStrategy_ConflictsOnOverlappingEdits(t *testing.T) {
	r := NewDefaultRegistry()
	s, err := r.Get(domain.StrategyThreeWay)
	require.NoError(t, err)

	base := map[string][]string{"a.txt": {"1", "2", "3"}}
	left := BranchChanges{Branch: domain.NewBranchId(), Files: map[string][]string{"a.txt": {"1", "X", "3"}}}
	right := BranchChanges{Branch: domain.NewBranchId(), Files: map[string][]string{"a.txt": {"1", "Y", "3"}}}

	result, err := s.Merge(base, []BranchChanges{left, right})
	require.NoError(t, err)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, base["a.txt"], result.Files["a.txt"])

	conflict := result.Conflicts[0]
	assert.Equal(t, "2", conflict.BaseRegion)
	assert.Equal(t, "X", conflict.LeftRegion)
	assert.Equal(t, "Y", conflict.RightRegion)
	assert.Equal(t, left.Branch, conflict.LeftBranch)
	assert.Equal(t, right.Branch, conflict.RightBranch)
}
