// Package registry holds the immutable agent role definitions and the
// deterministic goal routing used to pick an initial agent. The registry is
// an explicit, injected store so multiple independent orchestration
// instances can coexist in one process.
package registry

import (
	"fmt"
	"sync"

	"github.com/taskweave/swarmcore/core"
)

// Registry stores agent definitions by name. Registration happens at process
// start from configuration; lookups are safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]core.AgentDefinition
	// order preserves registration order so routing scans are deterministic.
	order []string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{agents: make(map[string]core.AgentDefinition)}
}

// Register adds a definition. It fails with ErrDuplicateAgent if the name is
// already taken and rejects invalid definitions.
func (r *Registry) Register(def core.AgentDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.agents[def.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateAgent, def.Name)
	}
	r.agents[def.Name] = def
	r.order = append(r.order, def.Name)
	return nil
}

// Resolve returns the definition for the given name or ErrUnknownAgent.
func (r *Registry) Resolve(name string) (core.AgentDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.agents[name]
	if !ok {
		return core.AgentDefinition{}, fmt.Errorf("%w: %s", ErrUnknownAgent, name)
	}
	return def, nil
}

// Names returns the registered agent names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Validate checks the registry is usable for goal dispatch: at least one
// generalist entry must exist so SelectForGoal can always return a
// definition. Call once after configuration loading; a failure is fatal at
// startup.
func (r *Registry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range r.order {
		if Category(r.agents[name].Role) == CategoryGeneralist {
			return nil
		}
	}
	return ErrNoGeneralist
}

// SelectForGoal routes a goal to an agent definition. The first registered
// agent whose role matches the goal's category wins; when no agent covers
// the category the registered generalist is returned. SelectForGoal never
// fails on a registry that passed Validate.
func (r *Registry) SelectForGoal(goal string) (core.AgentDefinition, error) {
	category := CategorizeGoal(goal)
	r.mu.RLock()
	defer r.mu.RUnlock()

	var generalist *core.AgentDefinition
	for _, name := range r.order {
		def := r.agents[name]
		if Category(def.Role) == category {
			return def, nil
		}
		if generalist == nil && Category(def.Role) == CategoryGeneralist {
			g := def
			generalist = &g
		}
	}
	if generalist != nil {
		return *generalist, nil
	}
	return core.AgentDefinition{}, ErrNoGeneralist
}
