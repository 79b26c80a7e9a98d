package scoring

import "time"

// Option applies a configuration option to the WeightedRanker.
type Option func(*WeightedRanker)

// WithNow overrides the clock used for recency, for deterministic tests.
func WithNow(now func() time.Time) Option {
	return func(r *WeightedRanker) {
		if now != nil {
			r.now = now
		}
	}
}
