// Package selector implements the default keyword-based AgentSelector: it
// routes a task to an agent profile by required domain.Capability, inferring
// the capability from keywords in the task content when the task itself
// carries none. It is the standalone, configurable counterpart to the
// supervisor package's own zero-config defaultSelect fallback.
package selector

import (
	"fmt"
	"strings"

	"github.com/brioctl/brio/internal/domain"
)

// AgentProfile names the capabilities a known agent id can service.
type AgentProfile struct {
	Agent        domain.AgentId
	Capabilities map[domain.Capability]bool
}

// KeywordRule maps a set of keywords to the capability they imply when
// found in a task's content.
type KeywordRule struct {
	Capability domain.Capability
	Keywords   []string
}

// ErrNoAgentForCapability is returned by Select when no configured profile
// covers the capability a task requires.
type ErrNoAgentForCapability struct {
	Capability domain.Capability
}

func (e *ErrNoAgentForCapability) Error() string {
	return fmt.Sprintf("selector: no agent profile covers capability %s", e.Capability)
}

// KeywordSelector picks an agent by matching a task's required capabilities
// (or, absent any, capabilities inferred from content keywords) against a
// fixed list of agent profiles, first match wins. Capabilities with no
// keyword rule and no explicit task requirement fall through to Default.
type KeywordSelector struct {
	profiles []AgentProfile
	rules    []KeywordRule
	Default  domain.AgentId
}

// New builds a KeywordSelector from explicit profiles and keyword rules.
func New(profiles []AgentProfile, rules []KeywordRule, fallback domain.AgentId) *KeywordSelector {
	return &KeywordSelector{profiles: profiles, rules: rules, Default: fallback}
}

// NewDefault returns the stock routing table over the Coding, Reviewing,
// and Reasoning capabilities: content mentioning review/audit/check routes
// to a reviewing-capable agent, content mentioning plan/design/why routes
// to a reasoning-capable agent, everything else goes to the coding-capable
// agent.
func NewDefault() *KeywordSelector {
	coder := domain.MustAgentId("agent_coder")
	reviewer := domain.MustAgentId("agent_reviewer")
	reasoner := domain.MustAgentId("agent_reasoner")
	return New(
		[]AgentProfile{
			{Agent: reviewer, Capabilities: map[domain.Capability]bool{domain.CapabilityReviewing: true}},
			{Agent: reasoner, Capabilities: map[domain.Capability]bool{domain.CapabilityReasoning: true}},
			{Agent: coder, Capabilities: map[domain.Capability]bool{domain.CapabilityCoding: true}},
		},
		[]KeywordRule{
			{Capability: domain.CapabilityReviewing, Keywords: []string{"review", "audit", "check"}},
			{Capability: domain.CapabilityReasoning, Keywords: []string{"plan", "design", "why", "investigate"}},
		},
		coder,
	)
}

// Route is a single capability's on-disk routing entry: which agent covers
// it and which content keywords imply it. It mirrors config.AgentRoute
// without selector importing the config package.
type Route struct {
	Capability string
	Agent      string
	Keywords   []string
}

// FromRoutes builds a KeywordSelector from a capability routing table plus
// a fallback agent id, as loaded from BrioConfig.AgentRouting.
func FromRoutes(routes []Route, fallback string) (*KeywordSelector, error) {
	defaultAgent, err := domain.NewAgentId(fallback)
	if err != nil {
		return nil, fmt.Errorf("selector: default agent: %w", err)
	}

	var profiles []AgentProfile
	var rules []KeywordRule
	for _, route := range routes {
		cap, err := domain.ParseCapability(route.Capability)
		if err != nil {
			return nil, fmt.Errorf("selector: agent route: %w", err)
		}
		agent, err := domain.NewAgentId(route.Agent)
		if err != nil {
			return nil, fmt.Errorf("selector: agent route for capability %s: %w", route.Capability, err)
		}
		profiles = append(profiles, AgentProfile{Agent: agent, Capabilities: map[domain.Capability]bool{cap: true}})
		rules = append(rules, KeywordRule{Capability: cap, Keywords: route.Keywords})
	}
	return New(profiles, rules, defaultAgent), nil
}

// Select implements supervisor.AgentSelector.
func (s *KeywordSelector) Select(task *domain.Task) (domain.AgentId, error) {
	required := s.requiredCapability(task)
	if required == nil {
		return s.Default, nil
	}
	for _, profile := range s.profiles {
		if profile.Capabilities[*required] {
			return profile.Agent, nil
		}
	}
	return domain.AgentId{}, &ErrNoAgentForCapability{Capability: *required}
}

// requiredCapability prefers the task's own declared capabilities, falling
// back to the first keyword rule whose terms appear in its content.
func (s *KeywordSelector) requiredCapability(task *domain.Task) *domain.Capability {
	for cap, required := range task.Capabilities {
		if required {
			c := cap
			return &c
		}
	}
	content := strings.ToLower(task.Content)
	for _, rule := range s.rules {
		for _, kw := range rule.Keywords {
			if kw != "" && strings.Contains(content, kw) {
				c := rule.Capability
				return &c
			}
		}
	}
	return nil
}
