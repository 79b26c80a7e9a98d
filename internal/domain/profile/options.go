package profile

import (
	"time"

	"github.com/okian/gamefeed/internal/adapters/persistence"
)

// Option applies a configuration option to the engine.
type Option func(*inMemoryEngine)

// WithStore sets the persistence backend for the profile document.
// Without a store the profile lives in memory only.
func WithStore(store persistence.Port) Option {
	return func(e *inMemoryEngine) {
		e.store = store
	}
}

// WithNow overrides the clock used for release-year bucketing, for
// deterministic tests.
func WithNow(now func() time.Time) Option {
	return func(e *inMemoryEngine) {
		if now != nil {
			e.now = now
		}
	}
}
