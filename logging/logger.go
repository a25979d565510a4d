// Package logging provides a tiny abstraction over slog so the orchestration
// packages depend on a minimal interface (Logger) while callers can plug any
// structured logger. It also offers a SwarmLogger with contextual helpers
// (run, agent, component) and domain specific helpers for tool calls,
// handoffs and debate rounds.
package logging

import (
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger is the minimal logging interface consumed across swarmcore.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NoOpLogger discards all log messages. Default for library construction.
type NoOpLogger struct{}

// Debug discards the message.
func (NoOpLogger) Debug(string, ...any) {}

// Info discards the message.
func (NoOpLogger) Info(string, ...any) {}

// Warn discards the message.
func (NoOpLogger) Warn(string, ...any) {}

// Error discards the message.
func (NoOpLogger) Error(string, ...any) {}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger { return &SlogAdapter{Logger: logger} }

// NewDefaultSlogLogger creates a Logger using slog.Default().
func NewDefaultSlogLogger() Logger { return NewSlogAdapter(slog.Default()) }

// Config configures construction of a SwarmLogger.
type Config struct {
	Level  slog.Level
	Format string // "json" or "text"
	Output io.Writer
}

// DefaultConfig returns a baseline JSON info-level configuration.
func DefaultConfig() *Config {
	return &Config{Level: slog.LevelInfo, Format: "json", Output: os.Stdout}
}

// SwarmLogger wraps slog.Logger adding contextual cloning helpers and domain
// convenience methods. The With* methods are cheap and return copies.
type SwarmLogger struct {
	logger *slog.Logger
}

// New builds a SwarmLogger from a config (or defaults if nil).
func New(cfg *Config) *SwarmLogger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(cfg.Output, opts)
	} else {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	}
	return &SwarmLogger{logger: slog.New(handler)}
}

// WithComponent attaches the logical component (runner, swarm, memory, …).
func (l *SwarmLogger) WithComponent(c string) *SwarmLogger {
	return &SwarmLogger{logger: l.logger.With(slog.String("component", c))}
}

// WithRun attaches run and agent identifiers.
func (l *SwarmLogger) WithRun(runID, agent string) *SwarmLogger {
	return &SwarmLogger{logger: l.logger.With(slog.String("run_id", runID), slog.String("agent", agent))}
}

// Debug logs at debug level.
func (l *SwarmLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }

// Info logs at info level.
func (l *SwarmLogger) Info(msg string, args ...any) { l.logger.Info(msg, args...) }

// Warn logs at warn level.
func (l *SwarmLogger) Warn(msg string, args ...any) { l.logger.Warn(msg, args...) }

// Error logs at error level.
func (l *SwarmLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

// LogToolCall records execution details for a tool invocation.
func (l *SwarmLogger) LogToolCall(tool string, dur time.Duration, err error) {
	if err != nil {
		l.logger.Error("tool execution failed", "tool", tool, "duration", dur, "error", err)
		return
	}
	l.logger.Info("tool execution completed", "tool", tool, "duration", dur)
}

// LogHandoff records a control transfer between agents.
func (l *SwarmLogger) LogHandoff(runID, from, to string, hop int) {
	l.logger.Info("handoff", "run_id", runID, "from", from, "to", to, "hop", hop)
}

// LogDebateRound records the convergence share after a debate round.
func (l *SwarmLogger) LogDebateRound(question string, round int, share float64) {
	l.logger.Debug("debate round", "question", question, "round", round, "agreement", share)
}

// LogConsolidation records the stats of a consolidation sweep.
func (l *SwarmLogger) LogConsolidation(removed, merged, pruned int, dur time.Duration) {
	l.logger.Info("consolidation sweep", "removed", removed, "merged", merged, "pruned", pruned, "duration", dur)
}

// OrNoOp returns the logger or a NoOpLogger when nil. Constructors use it to
// guarantee a non-nil logger.
func OrNoOp(l Logger) Logger {
	if l == nil {
		return NoOpLogger{}
	}
	return l
}
