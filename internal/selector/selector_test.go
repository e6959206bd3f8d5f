package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brioctl/brio/internal/domain"
)

func mustTask(t *testing.T, content string, caps map[domain.Capability]bool) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(domain.NewTaskId(1), content, domain.PriorityDefault, domain.TaskStatus{Tag: domain.TaskPending}, nil, nil, caps)
	require.NoError(t, err)
	return task
}

func TestKeywordSelector_RoutesByExplicitCapability(t *testing.T) {
	s := NewDefault()
	task := mustTask(t, "anything", map[domain.Capability]bool{domain.CapabilityReviewing: true})
	agent, err := s.Select(task)
	require.NoError(t, err)
	assert.Equal(t, "agent_reviewer", agent.String())
}

func TestKeywordSelector_InfersReviewingFromKeyword(t *testing.T) {
	s := NewDefault()
	task := mustTask(t, "please review this patch before merge", nil)
	agent, err := s.Select(task)
	require.NoError(t, err)
	assert.Equal(t, "agent_reviewer", agent.String())
}

func TestKeywordSelector_InfersReasoningFromKeyword(t *testing.T) {
	s := NewDefault()
	task := mustTask(t, "design the new retry policy", nil)
	agent, err := s.Select(task)
	require.NoError(t, err)
	assert.Equal(t, "agent_reasoner", agent.String())
}

func TestKeywordSelector_FallsBackToDefault(t *testing.T) {
	s := NewDefault()
	task := mustTask(t, "implement the parser", nil)
	agent, err := s.Select(task)
	require.NoError(t, err)
	assert.Equal(t, "agent_coder", agent.String())
}

func TestFromRoutes_BuildsWorkingSelector(t *testing.T) {
	s, err := FromRoutes([]Route{
		{Capability: "reviewing", Agent: "agent_reviewer", Keywords: []string{"review"}},
	}, "agent_coder")
	require.NoError(t, err)

	agent, err := s.Select(mustTask(t, "please review this", nil))
	require.NoError(t, err)
	assert.Equal(t, "agent_reviewer", agent.String())

	agent, err = s.Select(mustTask(t, "write the thing", nil))
	require.NoError(t, err)
	assert.Equal(t, "agent_coder", agent.String())
}

func TestFromRoutes_RejectsUnknownCapability(t *testing.T) {
	_, err := FromRoutes([]Route{{Capability: "bogus", Agent: "agent_x"}}, "agent_coder")
	assert.Error(t, err)
}

func TestKeywordSelector_ErrorsWhenCapabilityUncovered(t *testing.T) {
	coder := domain.MustAgentId("agent_coder")
	s := New(
		[]AgentProfile{{Agent: coder, Capabilities: map[domain.Capability]bool{domain.CapabilityCoding: true}}},
		nil,
		coder,
	)
	task := mustTask(t, "anything", map[domain.Capability]bool{domain.CapabilityReasoning: true})
	_, err := s.Select(task)
	var notCovered *ErrNoAgentForCapability
	assert.ErrorAs(t, err, &notCovered)
}
