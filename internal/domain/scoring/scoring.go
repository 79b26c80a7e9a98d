// Package scoring ranks a merged candidate pool for one feed page.
//
// The score blends item quality signals with a seeded jitter draw. The
// jitter carries half the weight on purpose: quality orders the feed
// loosely while the per-seed randomness keeps two sessions with
// different seeds from producing the same page.
package scoring

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/okian/gamefeed/internal/domain/model"
	"github.com/okian/gamefeed/internal/domain/seeded"
)

// Score component weights. They sum to 1.0 before the seen penalty.
const (
	qualityWeight   = 0.15
	ratingWeight    = 0.05
	recencyWeight   = 0.05
	obscurityWeight = 0.05
	relevanceWeight = 0.10
	jitterWeight    = 0.50
)

// Seen penalties step rather than scale: one prior display is a nudge,
// two or more pushes the item below everything unseen.
const (
	seenOncePenalty   = -0.5
	seenRepeatPenalty = -10.0
)

// Relevance tiers for search matching against the item name.
const (
	relevanceExact    = 1.0
	relevancePrefix   = 0.9
	relevanceContains = 0.7
)

const yearDuration = 365 * 24 * time.Hour

// Candidate is one scored pool entry, ready for diversity selection.
type Candidate struct {
	Item      model.CatalogItem
	Score     float64
	Jitter    float64
	SeenCount int
}

// Ranker scores and orders a candidate pool.
type Ranker interface {
	// Rank scores items against seed and search, drops non-viable
	// entries, and returns the survivors ordered best first. seen maps
	// item keys to prior display counts.
	Rank(ctx context.Context, seed, search string, items []model.CatalogItem, seen map[string]int) []Candidate
}

// WeightedRanker implements Ranker with the blended quality/jitter score.
type WeightedRanker struct {
	now func() time.Time
}

// NewWeightedRanker creates a ranker with configuration options.
func NewWeightedRanker(opts ...Option) *WeightedRanker {
	r := &WeightedRanker{
		now: time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Rank scores the pool and returns viable candidates ordered by score
// descending, breaking ties by jitter descending so equal scores still
// resolve deterministically per seed.
func (r *WeightedRanker) Rank(ctx context.Context, seed, search string, items []model.CatalogItem, seen map[string]int) []Candidate {
	if len(items) == 0 {
		return nil
	}

	// Popularity normalizes against the most-listed item in this pool.
	maxPopularity := 1
	for _, it := range items {
		if it.Popularity > maxPopularity {
			maxPopularity = it.Popularity
		}
	}

	now := r.now()
	out := make([]Candidate, 0, len(items))
	for _, it := range items {
		if !it.Viable {
			continue
		}

		quality := clamp01(it.Quality / 100)
		rating := clamp01(it.Rating / 5)
		popularity := clamp01(float64(it.Popularity) / float64(maxPopularity))
		recency := clamp01(1 / (1 + yearsSince(now, it.Released)))
		relevance := searchRelevance(search, it.Name)

		jitter := seeded.Derive(seed, it.Key())
		seenCount := seen[it.Key()]

		score := quality*qualityWeight +
			rating*ratingWeight +
			recency*recencyWeight +
			(1-popularity)*obscurityWeight +
			relevance*relevanceWeight +
			jitter*jitterWeight +
			seenPenalty(seenCount)

		out = append(out, Candidate{
			Item:      it,
			Score:     score,
			Jitter:    jitter,
			SeenCount: seenCount,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Jitter > out[j].Jitter
	})

	return out
}

func seenPenalty(count int) float64 {
	switch {
	case count >= 2:
		return seenRepeatPenalty
	case count == 1:
		return seenOncePenalty
	default:
		return 0
	}
}

// searchRelevance grades how well name matches the search query.
func searchRelevance(search, name string) float64 {
	if search == "" || name == "" {
		return 0
	}

	q := strings.ToLower(search)
	n := strings.ToLower(name)
	switch {
	case n == q:
		return relevanceExact
	case strings.HasPrefix(n, q):
		return relevancePrefix
	case strings.Contains(n, q):
		return relevanceContains
	default:
		return 0
	}
}

// yearsSince returns fractional years between now and released, with the
// default age standing in for unknown dates.
func yearsSince(now time.Time, released time.Time) float64 {
	if released.IsZero() {
		return model.DefaultYearsSinceRelease
	}
	return math.Max(0, now.Sub(released).Hours()/(yearDuration.Hours()))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
