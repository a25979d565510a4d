// Package memory contains the shared fact store implementations and the
// consolidation sweep. The store contract (core.FactStore) and the
// MemoryFact type live in the core package; depend on core.FactStore in your
// code and select an implementation (the in-memory log below, or the sqlite
// backend in the sqlite subpackage) at wiring time.
//
// The store is an append-only log ordered by CreatedAt with an index per
// (entityType, entityID, property) key rather than a mutable key-value
// overwrite, which preserves the temporal-query property: corrections are
// new facts, never in-place updates.
package memory
