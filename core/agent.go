package core

import (
	"errors"
	"fmt"
)

// AgentDefinition describes a member of the swarm. Definitions are created
// once at process start from configuration and never mutated afterwards.
type AgentDefinition struct {
	// Name is the unique identifier used for registration, handoff targets
	// and event attribution.
	Name string `json:"name" yaml:"name"`
	// Role is a descriptive label ("research", "plan", "execute",
	// "generalist") used by goal routing.
	Role string `json:"role" yaml:"role"`
	// Tools lists the tool identifiers this agent may invoke. Invocations of
	// tools outside this set are rejected by the step executor.
	Tools []string `json:"tools" yaml:"tools"`
	// CanHandoff controls whether this agent is allowed to transfer control
	// to another agent.
	CanHandoff bool `json:"can_handoff" yaml:"can_handoff"`
}

// HasTool reports whether the definition allows invoking the named tool.
func (d AgentDefinition) HasTool(name string) bool {
	for _, t := range d.Tools {
		if t == name {
			return true
		}
	}
	return false
}

// Validate checks the definition for configuration errors. Definitions with
// an empty name are rejected at startup.
func (d AgentDefinition) Validate() error {
	if d.Name == "" {
		return errors.New("agent definition: name must not be empty")
	}
	if d.Role == "" {
		return fmt.Errorf("agent definition %q: role must not be empty", d.Name)
	}
	return nil
}
