// Package seen tracks how many times each catalog item has been shown
// to the viewer.
//
// Counts only grow when a page is actually displayed, never when items
// are merely fetched or scored. The map is persisted as a small JSON
// document after every mutation so a restart does not resurface items
// the viewer has already scrolled past.
package seen

import (
	"context"
	"sync"

	"github.com/goccy/go-json"

	"github.com/okian/gamefeed/internal/adapters/persistence"
	"github.com/okian/gamefeed/pkg/logger"
	"github.com/okian/gamefeed/pkg/metrics"
)

// Tracker records display counts for catalog item identities.
type Tracker interface {
	// MarkDisplayed increments the display count of each id by exactly
	// one, regardless of how many times an id repeats within the batch.
	MarkDisplayed(ctx context.Context, ids []string)

	// CountOf returns how many times id has been displayed. Unknown ids
	// count as zero.
	CountOf(ctx context.Context, id string) int

	// Snapshot returns a copy of the full id -> count mapping.
	Snapshot(ctx context.Context) map[string]int

	// Reset discards all counts and persists the empty map.
	Reset(ctx context.Context)

	Size() int64
}

type inMemoryTracker struct {
	mu     sync.RWMutex
	counts map[string]int
	store  persistence.Port
	logger logger.Logger
}

// NewTracker creates a tracker, loading any previously persisted counts.
// A missing or unreadable document starts the tracker empty rather than
// failing: losing seen state degrades freshness, not correctness.
func NewTracker(ctx context.Context, opts ...Option) Tracker {
	t := &inMemoryTracker{
		counts: make(map[string]int),
		logger: logger.Get().Named("seen"),
	}

	for _, opt := range opts {
		opt(t)
	}

	t.load(ctx)
	return t
}

func (t *inMemoryTracker) MarkDisplayed(ctx context.Context, ids []string) {
	if len(ids) == 0 {
		return
	}

	t.mu.Lock()
	batch := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := batch[id]; dup {
			continue
		}
		batch[id] = struct{}{}
		t.counts[id]++
	}
	size := len(t.counts)
	t.mu.Unlock()

	metrics.UpdateSeenItemsTracked(size)
	t.save(ctx)
}

func (t *inMemoryTracker) CountOf(ctx context.Context, id string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.counts[id]
}

func (t *inMemoryTracker) Snapshot(ctx context.Context) map[string]int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]int, len(t.counts))
	for id, n := range t.counts {
		out[id] = n
	}
	return out
}

func (t *inMemoryTracker) Reset(ctx context.Context) {
	t.mu.Lock()
	t.counts = make(map[string]int)
	t.mu.Unlock()

	metrics.UpdateSeenItemsTracked(0)
	t.save(ctx)
}

func (t *inMemoryTracker) Size() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return int64(len(t.counts))
}

func (t *inMemoryTracker) load(ctx context.Context) {
	if t.store == nil {
		return
	}

	data, err := t.store.Load(ctx, persistence.KeySeenMap)
	if err == persistence.ErrNotFound {
		return
	}
	if err != nil {
		t.logger.Warn(ctx, "failed to load seen map, starting empty", logger.Error(err))
		metrics.RecordPersistenceError("load")
		return
	}

	counts := make(map[string]int)
	if err := json.Unmarshal(data, &counts); err != nil {
		t.logger.Warn(ctx, "corrupt seen map document, starting empty", logger.Error(err))
		metrics.RecordPersistenceError("load")
		return
	}

	t.mu.Lock()
	t.counts = counts
	t.mu.Unlock()
	metrics.UpdateSeenItemsTracked(len(counts))
}

// save persists the current counts. Persistence failures are logged and
// counted but never surfaced: the in-memory map stays authoritative for
// the session.
func (t *inMemoryTracker) save(ctx context.Context) {
	if t.store == nil {
		return
	}

	data, err := json.Marshal(t.Snapshot(ctx))
	if err != nil {
		t.logger.Error(ctx, "failed to encode seen map", logger.Error(err))
		metrics.RecordPersistenceError("save")
		return
	}

	if err := t.store.Save(ctx, persistence.KeySeenMap, data); err != nil {
		t.logger.Error(ctx, "failed to persist seen map", logger.Error(err))
		metrics.RecordPersistenceError("save")
	}
}
