// Package config provides process configuration for the orchestration core.
// Settings are loaded once at startup from an optional YAML file with
// environment variable overrides, validated, and treated as immutable for
// the process lifetime.
package config

import (
	"fmt"
	"time"

	"github.com/taskweave/swarmcore/core"
	"github.com/taskweave/swarmcore/registry"
)

// Config is the root configuration struct.
type Config struct {
	Runner  RunnerConfig  `yaml:"runner"`
	Swarm   SwarmConfig   `yaml:"swarm"`
	Tools   ToolsConfig   `yaml:"tools"`
	Memory  MemoryConfig  `yaml:"memory"`
	Debate  DebateConfig  `yaml:"debate"`
	Events  EventsConfig  `yaml:"events"`
	Logging LoggingConfig `yaml:"logging"`
	Agents  []AgentConfig `yaml:"agents"`
}

// RunnerConfig groups run lifecycle settings.
type RunnerConfig struct {
	MaxConcurrentRuns int  `yaml:"max_concurrent_runs" envconfig:"MAX_CONCURRENT_RUNS"`
	PausedHoldSlot    bool `yaml:"paused_hold_slot" envconfig:"PAUSED_HOLD_SLOT"`
}

// SwarmConfig groups orchestration settings.
type SwarmConfig struct {
	MaxHandoffs int `yaml:"max_handoffs" envconfig:"MAX_HANDOFFS"`
}

// ToolsConfig groups tool execution settings.
type ToolsConfig struct {
	Timeout time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
}

// MemoryConfig selects and tunes the fact store.
type MemoryConfig struct {
	// Backend is "inmemory" or "sqlite".
	Backend string `yaml:"backend" envconfig:"BACKEND"`
	// Path locates the sqlite database when Backend is "sqlite".
	Path          string              `yaml:"path" envconfig:"PATH"`
	Consolidation ConsolidationConfig `yaml:"consolidation"`
}

// ConsolidationConfig tunes the consolidation sweep.
type ConsolidationConfig struct {
	Interval       time.Duration `yaml:"interval" envconfig:"INTERVAL"`
	PruneThreshold float64       `yaml:"prune_threshold" envconfig:"PRUNE_THRESHOLD"`
}

// DebateConfig tunes the consensus protocol.
type DebateConfig struct {
	MaxRounds            int     `yaml:"max_rounds" envconfig:"MAX_ROUNDS"`
	ConvergenceThreshold float64 `yaml:"convergence_threshold" envconfig:"CONVERGENCE_THRESHOLD"`
}

// EventsConfig selects the event sink.
type EventsConfig struct {
	// Sink is "noop", "inproc" or "nats".
	Sink string `yaml:"sink" envconfig:"SINK"`
	// URL of an external NATS server. Empty with Sink "nats" starts an
	// embedded server.
	URL string `yaml:"url" envconfig:"URL"`
}

// LoggingConfig tunes the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL"`
	Format string `yaml:"format" envconfig:"FORMAT"`
}

// AgentConfig declares one swarm member.
type AgentConfig struct {
	Name       string   `yaml:"name"`
	Role       string   `yaml:"role"`
	Tools      []string `yaml:"tools"`
	CanHandoff bool     `yaml:"can_handoff"`
}

// Definition converts the entry to the immutable core type.
func (a AgentConfig) Definition() core.AgentDefinition {
	return core.AgentDefinition{Name: a.Name, Role: a.Role, Tools: a.Tools, CanHandoff: a.CanHandoff}
}

// Default returns the baseline configuration: a four-agent swarm covering
// every routing category, in-memory stores and no event publication.
func Default() *Config {
	return &Config{
		Runner: RunnerConfig{MaxConcurrentRuns: 4, PausedHoldSlot: true},
		Swarm:  SwarmConfig{MaxHandoffs: 8},
		Tools:  ToolsConfig{Timeout: 30 * time.Second},
		Memory: MemoryConfig{
			Backend: "inmemory",
			Consolidation: ConsolidationConfig{
				Interval:       24 * time.Hour,
				PruneThreshold: 0.3,
			},
		},
		Debate:  DebateConfig{MaxRounds: 3, ConvergenceThreshold: 0.8},
		Events:  EventsConfig{Sink: "noop"},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Agents: []AgentConfig{
			{Name: "researcher", Role: "research", CanHandoff: true},
			{Name: "planner", Role: "plan", CanHandoff: true},
			{Name: "executor", Role: "execute", CanHandoff: true},
			{Name: "generalist", Role: "generalist", CanHandoff: true},
		},
	}
}

// Validate rejects configurations that would fail at runtime. Failures here
// are fatal at startup.
func (c *Config) Validate() error {
	if c.Runner.MaxConcurrentRuns < 1 {
		return fmt.Errorf("runner.max_concurrent_runs must be >= 1, got %d", c.Runner.MaxConcurrentRuns)
	}
	if c.Swarm.MaxHandoffs < 0 {
		return fmt.Errorf("swarm.max_handoffs must be >= 0, got %d", c.Swarm.MaxHandoffs)
	}
	if c.Tools.Timeout <= 0 {
		return fmt.Errorf("tools.timeout must be positive, got %v", c.Tools.Timeout)
	}
	switch c.Memory.Backend {
	case "inmemory":
	case "sqlite":
		if c.Memory.Path == "" {
			return fmt.Errorf("memory.path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("memory.backend must be inmemory or sqlite, got %q", c.Memory.Backend)
	}
	if t := c.Memory.Consolidation.PruneThreshold; t < 0 || t > 1 {
		return fmt.Errorf("memory.consolidation.prune_threshold %v out of [0,1]", t)
	}
	if c.Debate.MaxRounds < 1 {
		return fmt.Errorf("debate.max_rounds must be >= 1, got %d", c.Debate.MaxRounds)
	}
	if t := c.Debate.ConvergenceThreshold; t <= 0 || t > 1 {
		return fmt.Errorf("debate.convergence_threshold %v out of (0,1]", t)
	}
	switch c.Events.Sink {
	case "noop", "inproc", "nats":
	default:
		return fmt.Errorf("events.sink must be noop, inproc or nats, got %q", c.Events.Sink)
	}

	seen := make(map[string]bool, len(c.Agents))
	hasGeneralist := false
	for _, a := range c.Agents {
		if err := a.Definition().Validate(); err != nil {
			return err
		}
		if seen[a.Name] {
			return fmt.Errorf("agent %q declared twice", a.Name)
		}
		seen[a.Name] = true
		if registry.Category(a.Role) == registry.CategoryGeneralist {
			hasGeneralist = true
		}
	}
	if len(c.Agents) == 0 {
		return fmt.Errorf("at least one agent must be configured")
	}
	if !hasGeneralist {
		return fmt.Errorf("a generalist agent is required so goal routing never fails")
	}
	return nil
}
