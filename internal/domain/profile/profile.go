// Package profile learns per-genre viewer preference from dwell and skip
// signals and serves the personalized "smart feed" ordering.
//
// The profile is a small persisted document: signed affinity per genre,
// skip counters, a bounded view history, and a total interaction count.
// Mutations are cheap and synchronous; persistence failures degrade to
// in-memory operation for the rest of the session.
package profile

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/okian/gamefeed/internal/adapters/persistence"
	"github.com/okian/gamefeed/internal/domain/model"
	"github.com/okian/gamefeed/internal/domain/seeded"
	"github.com/okian/gamefeed/pkg/logger"
	"github.com/okian/gamefeed/pkg/metrics"
)

// Affinity deltas per interaction kind.
const (
	shortDwellSeconds = 3.0
	longDwellSeconds  = 8.0
	shortDwellBoost   = 2.0
	longDwellBoost    = 5.0
	skipPenalty       = 1.0
	interestBoost     = 10.0
)

// Item scoring constants.
const (
	baseScore     = 50.0
	affinityScale = 2.0

	ratingTierTop    = 4.5
	ratingTierHigh   = 4.0
	ratingTierMid    = 3.5
	ratingTierLow    = 2.5
	ratingBonusTop   = 15.0
	ratingBonusHigh  = 10.0
	ratingBonusMid   = 5.0
	ratingPenaltyLow = -10.0

	skipEscalationThreshold = 2
	skipEscalationStep      = 5.0

	freshYears       = 2
	recentYears      = 5
	staleYears       = 15
	freshBonus       = 8.0
	recentBonus      = 4.0
	stalePenalty     = -5.0
	disqualifyingScore = -1000.0
)

// Smart feed assembly constants.
const (
	bootstrapInteractions = 10
	highBandFloor         = 70.0
	mediumBandFloor       = 50.0
	discoveryBandFloor    = 30.0
	highBandShare         = 6 // tenths of the page
	mediumBandShare       = 3
	viewHistoryLimit      = 30
)

// ViewRecord is one bounded view-history entry.
type ViewRecord struct {
	ItemID       int64    `json:"item_id"`
	DwellSeconds float64  `json:"dwell_seconds"`
	Genres       []string `json:"genres"`
}

// GenreScore pairs a genre slug with its learned affinity.
type GenreScore struct {
	Slug  string  `json:"slug"`
	Score float64 `json:"score"`
}

// Scored pairs a candidate with its preference score.
type Scored struct {
	Item  model.CatalogItem
	Score float64
}

// document is the persisted profile shape.
type document struct {
	GenreScores       map[string]float64 `json:"genre_scores"`
	SkippedGenres     map[string]int     `json:"skipped_genres"`
	ViewHistory       []ViewRecord       `json:"view_history"`
	TotalInteractions int                `json:"total_interactions"`
}

func defaultDocument() document {
	return document{
		GenreScores:   make(map[string]float64),
		SkippedGenres: make(map[string]int),
	}
}

// Engine learns viewer preference and scores candidates against it.
type Engine interface {
	// RecordView registers a completed view with its dwell time. Longer
	// dwells push the item's genre affinities up in two steps.
	RecordView(ctx context.Context, item model.CatalogItem, dwellSeconds float64)

	// RecordSkip registers a fast swipe-away, counting a skip and
	// nudging each of the item's genre affinities down.
	RecordSkip(ctx context.Context, item model.CatalogItem)

	// RecordGenreInterest registers an explicit genre pick, a stronger
	// signal than any implicit dwell.
	RecordGenreInterest(ctx context.Context, genreSlug string)

	// ScoreItem computes the preference score for one candidate. Items
	// already interacted with this session score disqualifyingly low.
	ScoreItem(ctx context.Context, item model.CatalogItem) float64

	// SmartFeed ranks candidates by preference and returns up to
	// pageSize of them, tier-mixed once enough history exists.
	SmartFeed(ctx context.Context, seed string, candidates []model.CatalogItem, pageSize int) []Scored

	// TopGenres returns the highest-affinity genres, best first.
	TopGenres(ctx context.Context, limit int) []GenreScore

	// TotalInteractions returns the learned interaction count.
	TotalInteractions(ctx context.Context) int

	// Reset restores the default profile and clears session seen state.
	Reset(ctx context.Context)
}

type inMemoryEngine struct {
	mu     sync.RWMutex
	doc    document
	seen   map[int64]struct{} // session-scoped: items interacted with
	store  persistence.Port
	now    func() time.Time
	logger logger.Logger
}

// NewEngine creates an engine, loading any previously persisted profile.
// A missing or unreadable document starts the profile fresh.
func NewEngine(ctx context.Context, opts ...Option) Engine {
	e := &inMemoryEngine{
		doc:    defaultDocument(),
		seen:   make(map[int64]struct{}),
		now:    time.Now,
		logger: logger.Get().Named("profile"),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.load(ctx)
	return e
}

func (e *inMemoryEngine) RecordView(ctx context.Context, item model.CatalogItem, dwellSeconds float64) {
	if item.ID == 0 {
		return
	}

	e.mu.Lock()
	e.seen[item.ID] = struct{}{}
	e.doc.TotalInteractions++
	e.doc.ViewHistory = append(e.doc.ViewHistory, ViewRecord{
		ItemID:       item.ID,
		DwellSeconds: dwellSeconds,
		Genres:       item.GenreSlugs(),
	})
	if len(e.doc.ViewHistory) > viewHistoryLimit {
		e.doc.ViewHistory = e.doc.ViewHistory[len(e.doc.ViewHistory)-viewHistoryLimit:]
	}

	// The two dwell boosts stack: a long view earns both.
	if dwellSeconds > shortDwellSeconds {
		for _, slug := range item.GenreSlugs() {
			e.doc.GenreScores[slug] += shortDwellBoost
		}
	}
	if dwellSeconds > longDwellSeconds {
		for _, slug := range item.GenreSlugs() {
			e.doc.GenreScores[slug] += longDwellBoost
		}
	}
	genreCount := len(e.doc.GenreScores)
	e.mu.Unlock()

	metrics.RecordInteraction("view")
	metrics.UpdateProfileGenres(genreCount)
	e.save(ctx)
}

func (e *inMemoryEngine) RecordSkip(ctx context.Context, item model.CatalogItem) {
	if item.ID == 0 || len(item.Genres) == 0 {
		return
	}

	e.mu.Lock()
	e.seen[item.ID] = struct{}{}
	e.doc.TotalInteractions++
	for _, slug := range item.GenreSlugs() {
		e.doc.SkippedGenres[slug]++
		e.doc.GenreScores[slug] -= skipPenalty
	}
	genreCount := len(e.doc.GenreScores)
	e.mu.Unlock()

	metrics.RecordInteraction("skip")
	metrics.UpdateProfileGenres(genreCount)
	e.save(ctx)
}

func (e *inMemoryEngine) RecordGenreInterest(ctx context.Context, genreSlug string) {
	if genreSlug == "" {
		return
	}

	e.mu.Lock()
	e.doc.GenreScores[genreSlug] += interestBoost
	genreCount := len(e.doc.GenreScores)
	e.mu.Unlock()

	metrics.RecordInteraction("genre_interest")
	metrics.UpdateProfileGenres(genreCount)
	e.save(ctx)
}

func (e *inMemoryEngine) ScoreItem(ctx context.Context, item model.CatalogItem) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.scoreLocked(item)
}

// scoreLocked computes the preference score. Caller holds at least a
// read lock.
func (e *inMemoryEngine) scoreLocked(item model.CatalogItem) float64 {
	if _, interacted := e.seen[item.ID]; interacted {
		return disqualifyingScore
	}

	score := baseScore

	slugs := item.GenreSlugs()
	if len(slugs) > 0 {
		var sum float64
		for _, slug := range slugs {
			sum += e.doc.GenreScores[slug]
		}
		score += affinityScale * (sum / float64(len(slugs)))
	}

	switch {
	case item.Rating >= ratingTierTop:
		score += ratingBonusTop
	case item.Rating >= ratingTierHigh:
		score += ratingBonusHigh
	case item.Rating >= ratingTierMid:
		score += ratingBonusMid
	case item.Rating < ratingTierLow:
		score += ratingPenaltyLow
	}

	for _, slug := range slugs {
		if skips := e.doc.SkippedGenres[slug]; skips > skipEscalationThreshold {
			score -= skipEscalationStep * float64(skips-skipEscalationThreshold)
		}
	}

	if year := item.ReleaseYear(); year > 0 {
		age := e.now().Year() - year
		switch {
		case age <= freshYears:
			score += freshBonus
		case age <= recentYears:
			score += recentBonus
		case age > staleYears:
			score += stalePenalty
		}
	}

	return score
}

func (e *inMemoryEngine) SmartFeed(ctx context.Context, seed string, candidates []model.CatalogItem, pageSize int) []Scored {
	if pageSize <= 0 || len(candidates) == 0 {
		return nil
	}

	e.mu.RLock()
	ranked := make([]Scored, 0, len(candidates))
	for _, it := range candidates {
		if s := e.scoreLocked(it); s > 0 {
			ranked = append(ranked, Scored{Item: it, Score: s})
		}
	}
	interactions := e.doc.TotalInteractions
	e.mu.RUnlock()

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if interactions < bootstrapInteractions {
		// Exploration phase: no tier bias yet, just a reshuffled slice
		// of the best candidates.
		top := ranked
		if len(top) > pageSize {
			top = top[:pageSize]
		}
		out := shuffle(seed, "bootstrap", top)
		metrics.RecordSmartFeedServed("bootstrap")
		return out
	}

	var high, medium, discovery []Scored
	for _, s := range ranked {
		switch {
		case s.Score >= highBandFloor:
			high = append(high, s)
		case s.Score >= mediumBandFloor:
			medium = append(medium, s)
		case s.Score >= discoveryBandFloor:
			discovery = append(discovery, s)
		}
	}

	highN := pageSize * highBandShare / 10
	mediumN := pageSize * mediumBandShare / 10
	discoveryN := pageSize - highN - mediumN

	out := make([]Scored, 0, pageSize)
	out = append(out, take(shuffle(seed, "high", high), highN)...)
	out = append(out, take(shuffle(seed, "medium", medium), mediumN)...)
	out = append(out, take(shuffle(seed, "discovery", discovery), discoveryN)...)

	// Short bands leave slots open; refill from the remaining ranked
	// candidates so a thin band never shorts the page.
	if len(out) < pageSize {
		used := make(map[int64]struct{}, len(out))
		for _, s := range out {
			used[s.Item.ID] = struct{}{}
		}
		for _, s := range ranked {
			if len(out) == pageSize {
				break
			}
			if _, dup := used[s.Item.ID]; dup {
				continue
			}
			out = append(out, s)
			used[s.Item.ID] = struct{}{}
		}
	}

	out = shuffle(seed, "mix", out)
	metrics.RecordSmartFeedServed("personalized")
	return out
}

func (e *inMemoryEngine) TopGenres(ctx context.Context, limit int) []GenreScore {
	e.mu.RLock()
	out := make([]GenreScore, 0, len(e.doc.GenreScores))
	for slug, score := range e.doc.GenreScores {
		out = append(out, GenreScore{Slug: slug, Score: score})
	}
	e.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Slug < out[j].Slug
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (e *inMemoryEngine) TotalInteractions(ctx context.Context) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.doc.TotalInteractions
}

func (e *inMemoryEngine) Reset(ctx context.Context) {
	e.mu.Lock()
	e.doc = defaultDocument()
	e.seen = make(map[int64]struct{})
	e.mu.Unlock()

	metrics.UpdateProfileGenres(0)
	e.save(ctx)
}

// shuffle orders scored items by a seeded draw keyed on the item id and
// a stage label, so the same seed reproduces the same shuffle.
func shuffle(seed, stage string, in []Scored) []Scored {
	out := make([]Scored, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		a := seeded.Derive(seed, stage+"-"+out[i].Item.Key())
		b := seeded.Derive(seed, stage+"-"+out[j].Item.Key())
		return a > b
	})
	return out
}

func take(in []Scored, n int) []Scored {
	if len(in) <= n {
		return in
	}
	return in[:n]
}

func (e *inMemoryEngine) load(ctx context.Context) {
	if e.store == nil {
		return
	}

	data, err := e.store.Load(ctx, persistence.KeyProfile)
	if err == persistence.ErrNotFound {
		return
	}
	if err != nil {
		e.logger.Warn(ctx, "failed to load profile, starting fresh", logger.Error(err))
		metrics.RecordPersistenceError("load")
		return
	}

	doc := defaultDocument()
	if err := json.Unmarshal(data, &doc); err != nil {
		e.logger.Warn(ctx, "corrupt profile document, starting fresh", logger.Error(err))
		metrics.RecordPersistenceError("load")
		return
	}
	if doc.GenreScores == nil {
		doc.GenreScores = make(map[string]float64)
	}
	if doc.SkippedGenres == nil {
		doc.SkippedGenres = make(map[string]int)
	}

	e.mu.Lock()
	e.doc = doc
	e.mu.Unlock()
	metrics.UpdateProfileGenres(len(doc.GenreScores))
}

func (e *inMemoryEngine) save(ctx context.Context) {
	if e.store == nil {
		return
	}

	e.mu.RLock()
	data, err := json.Marshal(e.doc)
	e.mu.RUnlock()
	if err != nil {
		e.logger.Error(ctx, "failed to encode profile", logger.Error(err))
		metrics.RecordPersistenceError("save")
		return
	}

	if err := e.store.Save(ctx, persistence.KeyProfile, data); err != nil {
		e.logger.Error(ctx, "failed to persist profile", logger.Error(err))
		metrics.RecordPersistenceError("save")
	}
}
