package core

import (
	"fmt"
	"time"
)

// MemoryFact is the unit of shared knowledge exchanged between agents through
// the fact store. Facts are append-only from the orchestrator's point of
// view; only the consolidator removes them or marks them superseded.
type MemoryFact struct {
	ID          string     `json:"id"`
	EntityType  string     `json:"entity_type"`
	EntityID    string     `json:"entity_id"`
	Property    string     `json:"property"`
	Value       string     `json:"value"`
	SourceAgent string     `json:"source_agent"`
	Confidence  float64    `json:"confidence"`
	ValidFrom   time.Time  `json:"valid_from"`
	// ValidUntil is nil for facts that never expire.
	ValidUntil *time.Time `json:"valid_until,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	// SupersededBy points at the canonical fact chosen during duplicate
	// merging. Empty for live facts.
	SupersededBy string `json:"superseded_by,omitempty"`
}

// FactKey identifies the "latest fact about a property" grouping. Multiple
// facts with the same key may coexist as a history.
type FactKey struct {
	EntityType string
	EntityID   string
	Property   string
}

// Key returns the identity key of the fact.
func (f MemoryFact) Key() FactKey {
	return FactKey{EntityType: f.EntityType, EntityID: f.EntityID, Property: f.Property}
}

// String renders the key in "type/id.property" form for logs and summaries.
func (k FactKey) String() string {
	return fmt.Sprintf("%s/%s.%s", k.EntityType, k.EntityID, k.Property)
}

// ValidAt reports whether the fact's validity window covers the instant t,
// using the half-open interval [ValidFrom, ValidUntil).
func (f MemoryFact) ValidAt(t time.Time) bool {
	if t.Before(f.ValidFrom) {
		return false
	}
	if f.ValidUntil != nil && !t.Before(*f.ValidUntil) {
		return false
	}
	return true
}

// IntersectsWindow reports whether the validity interval overlaps [from, to].
// Open-ended facts intersect every window at or after ValidFrom.
func (f MemoryFact) IntersectsWindow(from, to time.Time) bool {
	if f.ValidFrom.After(to) {
		return false
	}
	if f.ValidUntil != nil && f.ValidUntil.Before(from) {
		return false
	}
	return true
}

// Expired reports whether the fact's validity window has fully elapsed at t.
func (f MemoryFact) Expired(t time.Time) bool {
	return f.ValidUntil != nil && !t.Before(*f.ValidUntil)
}

// Validate checks the temporal invariant ValidUntil > ValidFrom and the
// confidence bounds.
func (f MemoryFact) Validate() error {
	if f.EntityType == "" || f.EntityID == "" || f.Property == "" {
		return fmt.Errorf("fact %s: entity type, entity id and property are required", f.ID)
	}
	if f.Confidence < 0 || f.Confidence > 1 {
		return fmt.Errorf("fact %s: confidence %v out of [0,1]", f.ID, f.Confidence)
	}
	if f.ValidUntil != nil && !f.ValidUntil.After(f.ValidFrom) {
		return fmt.Errorf("fact %s: valid_until must be after valid_from", f.ID)
	}
	return nil
}

// FactStore is the shared memory contract. StoreFact always appends; there is
// no in-place mutation through this interface. Corrections are new facts with
// a later CreatedAt and typically higher confidence.
//
// AllFacts, RemoveFacts and MarkSuperseded exist for the consolidator; agent
// step code must not call them.
type FactStore interface {
	// StoreFact appends a fact, assigning ID, CreatedAt and defaulting
	// ValidFrom to the current time when zero. It returns the fact id.
	StoreFact(f MemoryFact) (string, error)

	// RetrieveFacts returns the live facts for the entity valid at asOf,
	// sorted by (Confidence desc, CreatedAt desc). A zero asOf means now.
	// An empty result is not an error.
	RetrieveFacts(entityType, entityID string, asOf time.Time) ([]MemoryFact, error)

	// TemporalQuery returns every fact of the entity type whose validity
	// interval intersects [at-window, at+window], superseded facts
	// included, supporting "what did we believe at time T" reconstruction.
	TemporalQuery(entityType string, at time.Time, window time.Duration) ([]MemoryFact, error)

	// AllFacts snapshots the full log ordered by CreatedAt.
	AllFacts() ([]MemoryFact, error)

	// RemoveFacts hard-deletes facts by id, returning the removed count.
	RemoveFacts(ids []string) (int, error)

	// MarkSuperseded records a soft supersession pointer on the fact.
	MarkSuperseded(id, canonicalID string) error
}
