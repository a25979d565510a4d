// Package swarmcore provides a high-level façade over the orchestration core:
// agent registry, swarm orchestrator, run manager, shared temporal memory and
// the consolidation loop. Most applications interact with this package by:
//  1. Creating a Swarmcore via New() (optionally overriding the in-memory services)
//  2. Binding a step function per registered agent
//  3. Starting runs through the run manager (Start/Pause/Resume/Cancel/Status)
//
// The façade delegates run control to runner.Manager and step routing to
// swarm.Orchestrator while keeping setup concise. All defaults are safe for
// local development and testing; deployments typically supply the sqlite fact
// store, a NATS event sink and a structured logger via FromConfig.
package swarmcore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taskweave/swarmcore/config"
	"github.com/taskweave/swarmcore/core"
	"github.com/taskweave/swarmcore/eventbus"
	"github.com/taskweave/swarmcore/logging"
	"github.com/taskweave/swarmcore/memory"
	"github.com/taskweave/swarmcore/memory/sqlite"
	"github.com/taskweave/swarmcore/registry"
	"github.com/taskweave/swarmcore/runner"
	"github.com/taskweave/swarmcore/swarm"
	"github.com/taskweave/swarmcore/tool"
)

// Options configures the Swarmcore instance.
type Options struct {
	// Agents registered at construction. Empty means the caller registers
	// agents through Registry() before binding steps.
	Agents []core.AgentDefinition

	// MaxConcurrentRuns limits runs in the running state. Defaults to
	// runner.DefaultMaxConcurrentRuns.
	MaxConcurrentRuns int
	// PausedHoldSlot keeps paused runs counted against the ceiling.
	PausedHoldSlot bool
	// MaxHandoffs bounds the handoff chain of one run.
	MaxHandoffs int

	// Memory defaults to an in-memory fact store.
	Memory core.FactStore
	// Tools defaults to an empty tool executor.
	Tools *tool.Executor
	// Sink defaults to a no-op event sink.
	Sink core.EventSink
	// Logger defaults to a NoOp logger.
	Logger logging.Logger
}

// Swarmcore aggregates the orchestration services behind one handle.
type Swarmcore struct {
	registry     *registry.Registry
	memory       core.FactStore
	tools        *tool.Executor
	orchestrator *swarm.Orchestrator
	runner       *runner.Manager
	consolidator *memory.Consolidator

	closers []func() error
}

// New creates a Swarmcore with optional overrides. Any unset service is
// initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) (*Swarmcore, error) {
	opts := Options{
		MaxConcurrentRuns: runner.DefaultMaxConcurrentRuns,
		PausedHoldSlot:    true,
		MaxHandoffs:       swarm.DefaultMaxHandoffs,
		Memory:            memory.NewInMemoryStore(),
		Sink:              core.NoOpSink{},
		Logger:            logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Tools == nil {
		opts.Tools = tool.NewExecutor(func(o *tool.ExecutorOptions) {
			o.Logger = opts.Logger
		})
	}

	reg := registry.New()
	for _, def := range opts.Agents {
		if err := reg.Register(def); err != nil {
			return nil, fmt.Errorf("register agent: %w", err)
		}
	}

	orc := swarm.New(reg, opts.Memory, opts.Tools, func(o *swarm.Options) {
		o.MaxHandoffs = opts.MaxHandoffs
		o.Logger = opts.Logger
		o.Sink = opts.Sink
	})
	run := runner.NewManager(orc, func(o *runner.Options) {
		o.MaxConcurrentRuns = opts.MaxConcurrentRuns
		o.PausedHoldSlot = opts.PausedHoldSlot
		o.Logger = opts.Logger
		o.Sink = opts.Sink
	})
	cons := memory.NewConsolidator(opts.Memory, func(o *memory.ConsolidatorOptions) {
		o.Logger = opts.Logger
		o.Sink = opts.Sink
	})

	return &Swarmcore{
		registry:     reg,
		memory:       opts.Memory,
		tools:        opts.Tools,
		orchestrator: orc,
		runner:       run,
		consolidator: cons,
	}, nil
}

// FromConfig builds a fully wired Swarmcore from a validated configuration:
// agents, fact store backend, event sink and logger all follow the config.
// Close releases every resource FromConfig opened (sqlite handle, NATS
// connection, embedded server).
func FromConfig(cfg *config.Config) (*Swarmcore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := newLogger(cfg.Logging)

	var closers []func() error

	var store core.FactStore
	switch cfg.Memory.Backend {
	case "sqlite":
		s, err := sqlite.New(cfg.Memory.Path)
		if err != nil {
			return nil, fmt.Errorf("open fact store: %w", err)
		}
		closers = append(closers, s.Close)
		store = s
	default:
		store = memory.NewInMemoryStore()
	}

	sink, sinkClosers, err := newSink(cfg.Events)
	if err != nil {
		runClosers(closers)
		return nil, err
	}
	closers = append(closers, sinkClosers...)

	defs := make([]core.AgentDefinition, 0, len(cfg.Agents))
	for _, a := range cfg.Agents {
		defs = append(defs, a.Definition())
	}

	sc, err := New(func(o *Options) {
		o.Agents = defs
		o.MaxConcurrentRuns = cfg.Runner.MaxConcurrentRuns
		o.PausedHoldSlot = cfg.Runner.PausedHoldSlot
		o.MaxHandoffs = cfg.Swarm.MaxHandoffs
		o.Memory = store
		o.Tools = tool.NewExecutor(func(to *tool.ExecutorOptions) {
			to.Timeout = cfg.Tools.Timeout
			to.Logger = logger
		})
		o.Sink = sink
		o.Logger = logger
	})
	if err != nil {
		runClosers(closers)
		return nil, err
	}

	sc.consolidator = memory.NewConsolidator(store, func(o *memory.ConsolidatorOptions) {
		o.Interval = cfg.Memory.Consolidation.Interval
		o.PruneThreshold = cfg.Memory.Consolidation.PruneThreshold
		o.Logger = logger
		o.Sink = sink
	})
	sc.closers = closers
	return sc, nil
}

// Registry exposes the agent registry for late registration and lookups.
func (s *Swarmcore) Registry() *registry.Registry { return s.registry }

// Memory exposes the shared fact store.
func (s *Swarmcore) Memory() core.FactStore { return s.memory }

// Tools exposes the tool executor for tool registration.
func (s *Swarmcore) Tools() *tool.Executor { return s.tools }

// Runner exposes the run control surface.
func (s *Swarmcore) Runner() *runner.Manager { return s.runner }

// Consolidator exposes the memory consolidation loop.
func (s *Swarmcore) Consolidator() *memory.Consolidator { return s.consolidator }

// BindStep attaches a step function to a registered agent.
func (s *Swarmcore) BindStep(agentName string, fn swarm.StepFunc) error {
	return s.orchestrator.BindStep(agentName, fn)
}

// StartConsolidation launches the periodic consolidation loop.
func (s *Swarmcore) StartConsolidation(ctx context.Context) {
	s.consolidator.Start(ctx)
}

// Close releases resources opened by FromConfig. Instances built with New
// own no resources and Close is a no-op.
func (s *Swarmcore) Close() error {
	return runClosers(s.closers)
}

func newLogger(cfg config.LoggingConfig) logging.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	lc := logging.DefaultConfig()
	lc.Level = level
	lc.Format = cfg.Format
	return logging.New(lc)
}

// newSink builds the configured event sink plus the closers it requires.
func newSink(cfg config.EventsConfig) (core.EventSink, []func() error, error) {
	switch cfg.Sink {
	case "inproc":
		return eventbus.NewInProcBus(), nil, nil
	case "nats":
		url := cfg.URL
		var closers []func() error
		if url == "" {
			srv, err := eventbus.NewServer(eventbus.ServerConfig{})
			if err != nil {
				return nil, nil, fmt.Errorf("start embedded nats: %w", err)
			}
			closers = append(closers, func() error { srv.Close(); return nil })
			url = srv.ClientURL()
		}
		pub, err := eventbus.NewNATSPublisher(url)
		if err != nil {
			runClosers(closers)
			return nil, nil, err
		}
		// Close the connection before the embedded server.
		closers = append([]func() error{func() error { pub.Close(); return nil }}, closers...)
		return pub, closers, nil
	default:
		return core.NoOpSink{}, nil, nil
	}
}

func runClosers(closers []func() error) error {
	var first error
	for _, fn := range closers {
		if err := fn(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
