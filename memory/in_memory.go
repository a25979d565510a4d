package memory

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/taskweave/swarmcore/core"
)

// InMemoryStore is a process-local core.FactStore backed by an append-only
// slice plus per-key and per-id indexes. Concurrent writers never lose
// updates because writes only append; a single RWMutex guards the indexes.
type InMemoryStore struct {
	mu    sync.RWMutex
	log   []core.MemoryFact
	byKey map[core.FactKey][]string
	byID  map[string]int

	// now is swappable in tests to pin fact timestamps.
	now func() time.Time
}

// InMemoryOptions customizes store construction.
type InMemoryOptions struct {
	// Clock overrides the time source. Defaults to time.Now.
	Clock func() time.Time
}

// NewInMemoryStore creates an empty in-memory fact store.
func NewInMemoryStore(optFns ...func(o *InMemoryOptions)) *InMemoryStore {
	opts := InMemoryOptions{Clock: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &InMemoryStore{
		byKey: make(map[core.FactKey][]string),
		byID:  make(map[string]int),
		now:   opts.Clock,
	}
}

// StoreFact appends a fact to the log. ID and CreatedAt are always assigned
// by the store; a zero ValidFrom defaults to the current time.
func (s *InMemoryStore) StoreFact(f core.MemoryFact) (string, error) {
	now := s.now().UTC()
	f.ID = core.NewID()
	f.CreatedAt = now
	if f.ValidFrom.IsZero() {
		f.ValidFrom = now
	}
	f.SupersededBy = ""
	if err := f.Validate(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[f.ID] = len(s.log)
	s.log = append(s.log, f)
	key := f.Key()
	s.byKey[key] = append(s.byKey[key], f.ID)
	return f.ID, nil
}

// RetrieveFacts returns the live (non-superseded) facts about an entity that
// are valid at asOf, ordered by confidence then recency. Returns an empty
// slice when nothing matches.
func (s *InMemoryStore) RetrieveFacts(entityType, entityID string, asOf time.Time) ([]core.MemoryFact, error) {
	if asOf.IsZero() {
		asOf = s.now().UTC()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := []core.MemoryFact{}
	for _, f := range s.log {
		if f.EntityType != entityType || f.EntityID != entityID {
			continue
		}
		if f.SupersededBy != "" || !f.ValidAt(asOf) {
			continue
		}
		results = append(results, f)
	}
	sortByRank(results)
	return results, nil
}

// TemporalQuery returns every fact of the entity type whose validity window
// intersects [at-window, at+window]. Superseded facts are included so belief
// state at a past instant can be reconstructed.
func (s *InMemoryStore) TemporalQuery(entityType string, at time.Time, window time.Duration) ([]core.MemoryFact, error) {
	if window < 0 {
		return nil, fmt.Errorf("temporal query: negative window %v", window)
	}
	from, to := at.Add(-window), at.Add(window)

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := []core.MemoryFact{}
	for _, f := range s.log {
		if f.EntityType != entityType {
			continue
		}
		if f.IntersectsWindow(from, to) {
			results = append(results, f)
		}
	}
	sortByRank(results)
	return results, nil
}

// AllFacts returns a snapshot of the log in CreatedAt order.
func (s *InMemoryStore) AllFacts() ([]core.MemoryFact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.MemoryFact, len(s.log))
	copy(out, s.log)
	return out, nil
}

// RemoveFacts hard-deletes facts by id and reindexes. Consolidator use only.
func (s *InMemoryStore) RemoveFacts(ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.log[:0]
	removed := 0
	for _, f := range s.log {
		if _, gone := drop[f.ID]; gone {
			removed++
			continue
		}
		kept = append(kept, f)
	}
	s.log = kept
	s.reindexLocked()
	return removed, nil
}

// MarkSuperseded sets the supersession pointer on a stored fact.
func (s *InMemoryStore) MarkSuperseded(id, canonicalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("mark superseded: fact %s not found", id)
	}
	if _, ok := s.byID[canonicalID]; !ok {
		return fmt.Errorf("mark superseded: canonical fact %s not found", canonicalID)
	}
	s.log[idx].SupersededBy = canonicalID
	return nil
}

func (s *InMemoryStore) reindexLocked() {
	s.byID = make(map[string]int, len(s.log))
	s.byKey = make(map[core.FactKey][]string)
	for i, f := range s.log {
		s.byID[f.ID] = i
		key := f.Key()
		s.byKey[key] = append(s.byKey[key], f.ID)
	}
}

// sortByRank orders facts by (Confidence desc, CreatedAt desc), the
// retrieval ranking shared by both query paths.
func sortByRank(facts []core.MemoryFact) {
	sort.SliceStable(facts, func(i, j int) bool {
		if facts[i].Confidence != facts[j].Confidence {
			return facts[i].Confidence > facts[j].Confidence
		}
		return facts[i].CreatedAt.After(facts[j].CreatedAt)
	})
}
