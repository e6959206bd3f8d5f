package mergeengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff_RoundTripReconstructsNew(t *testing.T) {
	cases := []struct {
		name string
		old  []string
		new  []string
	}{
		{"identical", []string{"a", "b", "c"}, []string{"a", "b", "c"}},
		{"append", []string{"a", "b"}, []string{"a", "b", "c"}},
		{"prepend", []string{"b", "c"}, []string{"a", "b", "c"}},
		{"middle-replace", []string{"a", "b", "c"}, []string{"a", "x", "c"}},
		{"full-replace", []string{"a", "b"}, []string{"x", "y", "z"}},
		{"empty-old", nil, []string{"a", "b"}},
		{"empty-new", []string{"a", "b"}, nil},
		{"both-empty", nil, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ops := Diff(tc.old, tc.new)
			got := ReconstructWithSource(tc.old, tc.new, ops)
			assert.Equal(t, tc.new, got)
		})
	}
}

func TestDiff_CoalescesAdjacentDeleteInsertIntoReplace(t *testing.T) {
	ops := Diff([]string{"a", "b", "c"}, []string{"a", "x", "c"})
	var replaces int
	for _, op := range ops {
		if op.Kind == OpReplace {
			replaces++
		}
		require.NotEqual(t, OpInsert, op.Kind, "insert should have coalesced with the adjacent delete")
	}
	assert.Equal(t, 1, replaces)
}

func TestDiff_NoChangesProducesSingleEqualOp(t *testing.T) {
	ops := Diff([]string{"a", "b"}, []string{"a", "b"})
	require.Len(t, ops, 1)
	assert.Equal(t, OpEqual, ops[0].Kind)
}
