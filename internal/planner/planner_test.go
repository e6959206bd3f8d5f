package planner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecklistPlanner_DecomposesCheckboxItems(t *testing.T) {
	p := New()
	subtasks, err := p.Plan(context.Background(), "- [ ] write the parser\n- [ ] wire it into the supervisor\n- [x] draft the design doc\n")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"write the parser",
		"wire it into the supervisor",
		"draft the design doc",
	}, subtasks)
}

func TestChecklistPlanner_PlainBulletsWithoutCheckboxes(t *testing.T) {
	p := New()
	subtasks, err := p.Plan(context.Background(), "- first step\n- second step\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"first step", "second step"}, subtasks)
}

func TestChecklistPlanner_LeafObjectiveReturnsEmpty(t *testing.T) {
	p := New()
	subtasks, err := p.Plan(context.Background(), "Implement the thing end to end, no further breakdown needed.")
	require.NoError(t, err)
	assert.Empty(t, subtasks)
}

func TestChecklistPlanner_NumberedList(t *testing.T) {
	p := New()
	subtasks, err := p.Plan(context.Background(), "1. set up the schema\n2. backfill existing rows\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"set up the schema", "backfill existing rows"}, subtasks)
}

func TestChecklistPlanner_RespectsCancelledContext(t *testing.T) {
	p := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Plan(ctx, "- [ ] anything")
	assert.ErrorIs(t, err, context.Canceled)
}
