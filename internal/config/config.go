// Package config loads BrioConfig from a gopkg.in/yaml.v3 file, merging
// file values over a set of sensible defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/brioctl/brio/internal/domain"
)

// AgentRoute maps a capability name to the agent that covers it and the
// keywords in a task's content that imply it, the on-disk form of
// selector.AgentProfile plus selector.KeywordRule.
type AgentRoute struct {
	Capability string   `yaml:"capability"`
	Agent      string   `yaml:"agent"`
	Keywords   []string `yaml:"keywords"`
}

// BrioConfig holds every runtime-tunable setting the Supervisor, Branch
// Manager, and Scoped SQL Store read at startup.
type BrioConfig struct {
	// PollInterval is how often the Supervisor's poll loop runs.
	PollInterval time.Duration `yaml:"poll_interval"`

	// MaxConcurrentBranches is the configured limit on concurrently active
	// branches. Validate rejects values above domain.MaxConcurrentBranches.
	// The Branch Manager does not read this field: CreateBranch enforces
	// domain.MaxConcurrentBranches.
	MaxConcurrentBranches int `yaml:"max_concurrent_branches"`

	// MaxBranchNestingDepth is the configured limit on a branch's parent
	// chain. Validate rejects values above domain.MaxBranchNestingDepth.
	// The Branch Manager does not read this field: CreateBranch enforces
	// domain.MaxBranchNestingDepth.
	MaxBranchNestingDepth int `yaml:"max_branch_nesting_depth"`

	// AgentRouting is the default keyword routing table consulted by the
	// default AgentSelector.
	AgentRouting []AgentRoute `yaml:"agent_routing"`

	// DefaultAgent is the fallback agent id when no routing rule matches.
	DefaultAgent string `yaml:"default_agent"`

	// AutoMerge, when true, executes a merge immediately once its merge
	// request is created and doesn't require approval.
	AutoMerge bool `yaml:"auto_merge"`

	// SQLiteDSN is the path (or DSN) the Scoped SQL Store opens.
	SQLiteDSN string `yaml:"sqlite_dsn"`

	// PreferReflink records the reflink-vs-copy preference for branch
	// session snapshots. Nothing reads it: the vfs package always attempts
	// a FICLONE clone on Linux and falls back to a plain copy, whatever
	// this field holds.
	PreferReflink bool `yaml:"prefer_reflink"`
}

// DefaultConfig returns a BrioConfig with sensible defaults: a 2 second
// poll interval, the domain package's hard concurrency/nesting ceilings,
// the stock reviewing/reasoning/coding keyword table, auto-merge off, and
// reflink snapshots preferred.
func DefaultConfig() *BrioConfig {
	return &BrioConfig{
		PollInterval:          2 * time.Second,
		MaxConcurrentBranches: domain.MaxConcurrentBranches,
		MaxBranchNestingDepth: domain.MaxBranchNestingDepth,
		AgentRouting: []AgentRoute{
			{Capability: domain.CapabilityReviewing.String(), Agent: "agent_reviewer", Keywords: []string{"review", "audit", "check"}},
			{Capability: domain.CapabilityReasoning.String(), Agent: "agent_reasoner", Keywords: []string{"plan", "design", "why", "investigate"}},
		},
		DefaultAgent:  "agent_coder",
		AutoMerge:     false,
		SQLiteDSN:     "brio.db",
		PreferReflink: true,
	}
}

// LoadConfig loads BrioConfig from path, merging over DefaultConfig. A
// missing file is not an error: defaults are returned as-is.
func LoadConfig(path string) (*BrioConfig, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var onDisk BrioConfig
	if err := yaml.Unmarshal(data, &onDisk); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if onDisk.PollInterval != 0 {
		cfg.PollInterval = onDisk.PollInterval
	}
	if onDisk.MaxConcurrentBranches != 0 {
		cfg.MaxConcurrentBranches = onDisk.MaxConcurrentBranches
	}
	if onDisk.MaxBranchNestingDepth != 0 {
		cfg.MaxBranchNestingDepth = onDisk.MaxBranchNestingDepth
	}
	if len(onDisk.AgentRouting) > 0 {
		cfg.AgentRouting = onDisk.AgentRouting
	}
	if onDisk.DefaultAgent != "" {
		cfg.DefaultAgent = onDisk.DefaultAgent
	}
	if onDisk.AutoMerge {
		cfg.AutoMerge = true
	}
	if onDisk.SQLiteDSN != "" {
		cfg.SQLiteDSN = onDisk.SQLiteDSN
	}
	cfg.PreferReflink = onDisk.PreferReflink || cfg.PreferReflink

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces the hard ceilings: config may tighten
// MaxConcurrentBranches/MaxBranchNestingDepth below the domain package's
// constants, never loosen them past it.
func (c *BrioConfig) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("config: poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.MaxConcurrentBranches <= 0 || c.MaxConcurrentBranches > domain.MaxConcurrentBranches {
		return fmt.Errorf("config: max_concurrent_branches must be in (0, %d], got %d", domain.MaxConcurrentBranches, c.MaxConcurrentBranches)
	}
	if c.MaxBranchNestingDepth <= 0 || c.MaxBranchNestingDepth > domain.MaxBranchNestingDepth {
		return fmt.Errorf("config: max_branch_nesting_depth must be in (0, %d], got %d", domain.MaxBranchNestingDepth, c.MaxBranchNestingDepth)
	}
	if c.DefaultAgent == "" {
		return fmt.Errorf("config: default_agent must not be empty")
	}
	return nil
}
