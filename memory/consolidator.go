package memory

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/taskweave/swarmcore/core"
	"github.com/taskweave/swarmcore/logging"
)

// Default consolidation settings.
const (
	DefaultConsolidationInterval = 24 * time.Hour
	DefaultPruneThreshold        = 0.3
)

// ConsolidationStats summarizes one sweep. Skipped is true when another
// sweep was already in flight and this call was a no-op.
type ConsolidationStats struct {
	Removed int  `json:"removed"`
	Merged  int  `json:"merged"`
	Pruned  int  `json:"pruned"`
	Skipped bool `json:"skipped,omitempty"`
}

// Consolidator periodically shrinks the fact store: it removes expired
// facts, merges duplicate (entityType, entityID, property) groups keeping
// the highest-confidence fact as canonical, and prunes low-confidence noise.
// It runs on a fixed interval independent of any run, or on demand.
type Consolidator struct {
	store    core.FactStore
	interval time.Duration
	// threshold is the confidence floor below which facts are pruned.
	threshold float64
	logger    logging.Logger
	sink      core.EventSink
	now       func() time.Time

	// inFlight guards against overlapping sweeps: a concurrent call
	// observes true and returns immediately instead of blocking.
	inFlight atomic.Bool
	stop     chan struct{}
}

// ConsolidatorOptions customizes construction.
type ConsolidatorOptions struct {
	Interval       time.Duration
	PruneThreshold float64
	Logger         logging.Logger
	Sink           core.EventSink
	Clock          func() time.Time
}

// NewConsolidator creates a consolidator over the given store.
func NewConsolidator(store core.FactStore, optFns ...func(o *ConsolidatorOptions)) *Consolidator {
	opts := ConsolidatorOptions{
		Interval:       DefaultConsolidationInterval,
		PruneThreshold: DefaultPruneThreshold,
		Logger:         logging.NoOpLogger{},
		Sink:           core.NoOpSink{},
		Clock:          time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Consolidator{
		store:     store,
		interval:  opts.Interval,
		threshold: opts.PruneThreshold,
		logger:    logging.OrNoOp(opts.Logger),
		sink:      opts.Sink,
		now:       opts.Clock,
		stop:      make(chan struct{}),
	}
}

// Start launches the interval loop. It returns immediately; the loop ends
// when ctx is done or Stop is called.
func (c *Consolidator) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stop:
				return
			case <-ticker.C:
				if _, err := c.Consolidate(); err != nil {
					c.logger.Error("consolidation sweep failed", "error", err)
				}
			}
		}
	}()
}

// Stop ends the interval loop. Safe to call once.
func (c *Consolidator) Stop() { close(c.stop) }

// Consolidate performs one sweep in the fixed order: remove expired facts,
// merge duplicates, prune low confidence. Removing expired facts first
// shrinks the merge/prune working set; merging before pruning ensures the
// canonical fact of a duplicate group is chosen before confidence-based
// deletion could remove the wrong one. Overlapping calls return a no-op
// stats object without blocking.
func (c *Consolidator) Consolidate() (ConsolidationStats, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return ConsolidationStats{Skipped: true}, nil
	}
	defer c.inFlight.Store(false)

	start := c.now()
	var stats ConsolidationStats

	removed, err := c.removeExpired(start.UTC())
	if err != nil {
		return stats, err
	}
	stats.Removed = removed

	merged, err := c.mergeDuplicates()
	if err != nil {
		return stats, err
	}
	stats.Merged = merged

	pruned, err := c.pruneLowConfidence()
	if err != nil {
		return stats, err
	}
	stats.Pruned = pruned

	c.logger.Info("consolidation sweep",
		"removed", stats.Removed, "merged", stats.Merged, "pruned", stats.Pruned,
		"duration", time.Since(start))
	if err := c.sink.Publish(core.NewConsolidationEvent(stats.Removed, stats.Merged, stats.Pruned)); err != nil {
		c.logger.Warn("consolidation event publish failed", "error", err)
	}
	return stats, nil
}

// removeExpired deletes facts whose validity window has fully elapsed.
func (c *Consolidator) removeExpired(now time.Time) (int, error) {
	facts, err := c.store.AllFacts()
	if err != nil {
		return 0, err
	}
	var expired []string
	for _, f := range facts {
		if f.Expired(now) {
			expired = append(expired, f.ID)
		}
	}
	return c.store.RemoveFacts(expired)
}

// mergeDuplicates groups live facts by key; groups holding more than one
// distinct value keep their highest-confidence fact as canonical and the
// rest receive a superseded_by pointer. Information is never discarded here,
// so merging is idempotent: already-superseded facts are skipped.
func (c *Consolidator) mergeDuplicates() (int, error) {
	facts, err := c.store.AllFacts()
	if err != nil {
		return 0, err
	}

	groups := make(map[core.FactKey][]core.MemoryFact)
	for _, f := range facts {
		if f.SupersededBy != "" {
			continue
		}
		groups[f.Key()] = append(groups[f.Key()], f)
	}

	merged := 0
	for _, group := range groups {
		if len(group) < 2 || !hasDistinctValues(group) {
			continue
		}
		canonical := group[0]
		for _, f := range group[1:] {
			if f.Confidence > canonical.Confidence ||
				(f.Confidence == canonical.Confidence && f.CreatedAt.After(canonical.CreatedAt)) {
				canonical = f
			}
		}
		for _, f := range group {
			if f.ID == canonical.ID {
				continue
			}
			if err := c.store.MarkSuperseded(f.ID, canonical.ID); err != nil {
				return merged, err
			}
			merged++
		}
	}
	return merged, nil
}

// pruneLowConfidence deletes facts below the confidence threshold. The
// canonical fact of a merged group survives as long as it clears the
// threshold; superseded duplicates are eligible like any other fact.
func (c *Consolidator) pruneLowConfidence() (int, error) {
	facts, err := c.store.AllFacts()
	if err != nil {
		return 0, err
	}
	var doomed []string
	for _, f := range facts {
		if f.Confidence < c.threshold {
			doomed = append(doomed, f.ID)
		}
	}
	return c.store.RemoveFacts(doomed)
}

func hasDistinctValues(group []core.MemoryFact) bool {
	for _, f := range group[1:] {
		if f.Value != group[0].Value {
			return true
		}
	}
	return false
}
