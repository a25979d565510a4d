package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 4, cfg.Runner.MaxConcurrentRuns)
	assert.Equal(t, 8, cfg.Swarm.MaxHandoffs)
	assert.Equal(t, 30*time.Second, cfg.Tools.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.Memory.Consolidation.Interval)
	assert.InDelta(t, 0.3, cfg.Memory.Consolidation.PruneThreshold, 1e-9)
	assert.Equal(t, 3, cfg.Debate.MaxRounds)
	assert.InDelta(t, 0.8, cfg.Debate.ConvergenceThreshold, 1e-9)
	assert.True(t, cfg.Runner.PausedHoldSlot)
}

func TestLoad_MissingPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Runner, cfg.Runner)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `
runner:
  max_concurrent_runs: 9
swarm:
  max_handoffs: 3
memory:
  backend: sqlite
  path: /tmp/facts.db
  consolidation:
    interval: 1h
    prune_threshold: 0.5
agents:
  - name: helper
    role: generalist
    can_handoff: true
    tools: [task_create]
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Runner.MaxConcurrentRuns)
	assert.Equal(t, 3, cfg.Swarm.MaxHandoffs)
	assert.Equal(t, "sqlite", cfg.Memory.Backend)
	assert.Equal(t, time.Hour, cfg.Memory.Consolidation.Interval)
	require.Len(t, cfg.Agents, 1)
	assert.Equal(t, "helper", cfg.Agents[0].Name)
	assert.Equal(t, []string{"task_create"}, cfg.Agents[0].Tools)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("SWARMCORE_RUNNER_MAX_CONCURRENT_RUNS", "12")
	t.Setenv("SWARMCORE_SWARM_MAX_HANDOFFS", "5")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Runner.MaxConcurrentRuns)
	assert.Equal(t, 5, cfg.Swarm.MaxHandoffs)
}

func TestLoad_UnreadableFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("runner: ["), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero concurrency", func(c *Config) { c.Runner.MaxConcurrentRuns = 0 }},
		{"negative handoffs", func(c *Config) { c.Swarm.MaxHandoffs = -1 }},
		{"zero tool timeout", func(c *Config) { c.Tools.Timeout = 0 }},
		{"unknown backend", func(c *Config) { c.Memory.Backend = "redis" }},
		{"sqlite without path", func(c *Config) { c.Memory.Backend = "sqlite"; c.Memory.Path = "" }},
		{"prune threshold out of range", func(c *Config) { c.Memory.Consolidation.PruneThreshold = 1.5 }},
		{"zero debate rounds", func(c *Config) { c.Debate.MaxRounds = 0 }},
		{"convergence above one", func(c *Config) { c.Debate.ConvergenceThreshold = 1.1 }},
		{"unknown sink", func(c *Config) { c.Events.Sink = "kafka" }},
		{"no agents", func(c *Config) { c.Agents = nil }},
		{"duplicate agent", func(c *Config) { c.Agents = append(c.Agents, c.Agents[0]) }},
		{"agent without name", func(c *Config) { c.Agents[0].Name = "" }},
		{"no generalist", func(c *Config) {
			for i := range c.Agents {
				c.Agents[i].Role = "research"
			}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestAgentConfig_Definition(t *testing.T) {
	a := AgentConfig{Name: "x", Role: "plan", Tools: []string{"t"}, CanHandoff: true}
	def := a.Definition()
	assert.Equal(t, "x", def.Name)
	assert.Equal(t, "plan", def.Role)
	assert.True(t, def.CanHandoff)
	assert.True(t, def.HasTool("t"))
}
