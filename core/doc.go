// Package core provides the foundational domain types and interfaces shared
// by the swarmcore orchestration packages. It defines:
//
//   - AgentDefinition (immutable agent role descriptors)
//   - AgentRun and its lifecycle state machine
//   - MemoryFact and the FactStore contract for temporal shared knowledge
//   - ToolExecutor (the narrow interface to external tool execution)
//   - Event / EventSink (lifecycle and orchestration event publication)
//
// The package intentionally keeps implementation concerns (persistence,
// orchestration loops, concrete agents) out of scope, exposing small
// interfaces so backends can be swapped without dependency cycles.
package core
