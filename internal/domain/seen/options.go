package seen

import "github.com/okian/gamefeed/internal/adapters/persistence"

// Option applies a configuration option to the tracker.
type Option func(*inMemoryTracker)

// WithStore sets the persistence backend used to load and save the seen
// map. Without a store the tracker keeps counts in memory only.
func WithStore(store persistence.Port) Option {
	return func(t *inMemoryTracker) {
		t.store = store
	}
}
