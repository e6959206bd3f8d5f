package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brioctl/brio/internal/domain"
)

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_MergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brio.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
poll_interval: 5s
max_concurrent_branches: 4
auto_merge: true
default_agent: agent_custom
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, 4, cfg.MaxConcurrentBranches)
	assert.True(t, cfg.AutoMerge)
	assert.Equal(t, "agent_custom", cfg.DefaultAgent)
	assert.Equal(t, domain.MaxBranchNestingDepth, cfg.MaxBranchNestingDepth)
}

func TestLoadConfig_RejectsConcurrencyAboveHardCeiling(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brio.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
max_concurrent_branches: 99
`), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_RejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brio.yaml")
	require.NoError(t, os.WriteFile(path, []byte("not: [valid"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestBrioConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.PollInterval = 0
	assert.Error(t, cfg.Validate())
}
