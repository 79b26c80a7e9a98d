// Package service wires the feed pipeline together and owns all
// per-session state.
//
// One Service is one viewer session: its seed, seen map, preference
// profile, and interaction queue. The HTTP API talks only to this
// package.
package service

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	eventqueue "github.com/okian/gamefeed/internal/adapters/mq/queue"
	feedworker "github.com/okian/gamefeed/internal/adapters/mq/worker"
	"github.com/okian/gamefeed/internal/adapters/persistence"
	"github.com/okian/gamefeed/internal/adapters/storelink"
	"github.com/okian/gamefeed/internal/assembler"
	"github.com/okian/gamefeed/internal/domain/diversity"
	"github.com/okian/gamefeed/internal/domain/model"
	"github.com/okian/gamefeed/internal/domain/profile"
	"github.com/okian/gamefeed/internal/domain/scoring"
	"github.com/okian/gamefeed/internal/domain/seen"
	"github.com/okian/gamefeed/internal/domain/types"
	"github.com/okian/gamefeed/pkg/logger"
	"github.com/okian/gamefeed/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultPageSize  = 20
	defaultPoolPages = 2
	defaultQueueSize = 4096
	topGenresLimit   = 5
	releasedUnknown  = "N/A"
	releasedLayout   = "2006-01-02"
	scorePrecision   = 10000 // _score rounded to 4 decimals
)

// Catalog is the upstream surface the service needs.
type Catalog interface {
	assembler.Fetcher
	Detail(ctx context.Context, id int64) (model.CatalogItem, error)
	Screenshots(ctx context.Context, id int64) ([]string, error)
	Genres(ctx context.Context) ([]model.Genre, error)
}

// ItemDetail is one detail lookup result, optionally with screenshots.
type ItemDetail struct {
	Item        model.CatalogItem
	Screenshots []string
}

// Service implements the feed engine for one viewer session.
type Service struct {
	mu sync.RWMutex

	// Core components
	catalog    Catalog
	stores     storelink.Resolver
	store      persistence.Port
	assembler  *assembler.Assembler
	ranker     scoring.Ranker
	tracker    seen.Tracker
	learner    profile.Engine
	eventQueue eventqueue.Queue
	worker     *feedworker.InMemoryWorker

	// Configuration
	seed      string
	pageSize  int
	poolPages int
	queueSize int

	// State
	started  bool
	fetching atomic.Bool   // in-flight guard for NextPage
	epoch    atomic.Uint64 // bumped by Reset to void late results
	stopCh   chan struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithCatalog sets the upstream catalog client.
func WithCatalog(c Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithStoreResolver sets the storefront link resolver.
func WithStoreResolver(r storelink.Resolver) Option {
	return func(s *Service) {
		if r != nil {
			s.stores = r
		}
	}
}

// WithPersistence sets the backend for seen and profile state.
func WithPersistence(p persistence.Port) Option {
	return func(s *Service) {
		if p != nil {
			s.store = p
		}
	}
}

// WithSeed pins the session seed. Without it the service mints one.
func WithSeed(seed string) Option {
	return func(s *Service) {
		if seed != "" {
			s.seed = seed
		}
	}
}

// WithPageSize sets how many items one feed page carries.
func WithPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithPoolPages sets how many upstream pages feed one candidate pool.
func WithPoolPages(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.poolPages = n
		}
	}
}

// WithQueueSize sets the interaction queue capacity.
func WithQueueSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		pageSize:  defaultPageSize,
		poolPages: defaultPoolPages,
		queueSize: defaultQueueSize,
		stopCh:    make(chan struct{}),
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.catalog == nil {
		return ErrNoCatalog
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	// A session without a caller-supplied seed mints one, once. The
	// session stays reproducible from that point on.
	if s.seed == "" {
		s.seed = uuid.NewString()
		s.logger.Info(ctx, "minted session seed", logger.String("seed", s.seed))
	}

	s.logger.Info(ctx, "starting feed service...")

	var trackerOpts []seen.Option
	var learnerOpts []profile.Option
	if s.store != nil {
		trackerOpts = append(trackerOpts, seen.WithStore(s.store))
		learnerOpts = append(learnerOpts, profile.WithStore(s.store))
	}
	s.tracker = seen.NewTracker(ctx, trackerOpts...)
	s.learner = profile.NewEngine(ctx, learnerOpts...)

	s.assembler = assembler.New(s.catalog, assembler.WithPoolPages(s.poolPages))
	s.ranker = scoring.NewWeightedRanker()

	s.eventQueue = eventqueue.NewInMemoryQueue(
		eventqueue.WithCapacity(s.queueSize),
		eventqueue.WithBufferSize(s.queueSize),
	)
	s.worker = feedworker.NewInMemoryWorker(s.eventQueue, s.tracker, s.learner)
	go s.worker.Run(ctx)

	s.started = true
	s.logger.Info(ctx, "feed service started",
		logger.String("seed", s.seed),
		logger.Int("pageSize", s.pageSize),
		logger.Int("poolPages", s.poolPages),
		logger.Int("queueSize", s.queueSize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping feed service...")

	// Close the queue first so the worker drains and exits.
	if err := s.eventQueue.Close(); err != nil {
		s.logger.Warn(ctx, "queue close", logger.Error(err))
	}
	if s.worker != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := s.worker.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(ctx, "worker shutdown", logger.Error(err))
		}
		cancel()
	}

	select {
	case <-s.stopCh:
		// Channel already closed
	default:
		close(s.stopCh)
	}

	s.started = false
	s.logger.Info(ctx, "feed service stopped")
}

// Seed returns the session seed.
func (s *Service) Seed() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seed
}

// NextPage runs the full pipeline for one feed page. A second call
// while one is outstanding is rejected with ErrFetchInFlight so rapid
// scroll events cannot fan out duplicate upstream fetches.
func (s *Service) NextPage(ctx context.Context, page int, genres, search string) (types.FeedPage, error) {
	if !s.isStarted() {
		return types.FeedPage{}, ErrNotStarted
	}

	if !s.fetching.CompareAndSwap(false, true) {
		return types.FeedPage{}, ErrFetchInFlight
	}
	defer s.fetching.Store(false)

	epoch := s.epoch.Load()

	pool, err := s.assembler.Assemble(ctx, s.seed, assembler.PageRequest{
		Page:     page,
		PageSize: s.pageSize,
		Genres:   genres,
		Search:   search,
	})
	if err != nil {
		return types.FeedPage{}, err
	}

	ranked := s.ranker.Rank(ctx, s.seed, search, pool, s.tracker.Snapshot(ctx))
	metrics.RecordCandidatesScored(len(pool))
	metrics.RecordNonviableDropped(len(pool) - len(ranked))

	sel := diversity.Select(ranked, s.pageSize)
	metrics.RecordDiversityBackfill(sel.Backfilled)

	// A Reset during the fetch means this pool was sampled against
	// discarded state; drop it rather than merging it into the fresh
	// session.
	if s.epoch.Load() != epoch {
		return types.FeedPage{}, ErrStaleResult
	}

	items := make([]types.FeedItem, 0, len(sel.Candidates))
	for _, c := range sel.Candidates {
		items = append(items, feedItem(c))
	}

	return types.FeedPage{
		Items:     items,
		Page:      page,
		Seed:      s.seed,
		FirstPass: len(sel.Candidates) - sel.Backfilled,
	}, nil
}

// SmartFeed serves the preference-ranked page over a fresh candidate
// pool. It shares the in-flight guard with NextPage: both hit the
// upstream.
func (s *Service) SmartFeed(ctx context.Context, page int, genres, search string) (types.FeedPage, error) {
	if !s.isStarted() {
		return types.FeedPage{}, ErrNotStarted
	}

	if !s.fetching.CompareAndSwap(false, true) {
		return types.FeedPage{}, ErrFetchInFlight
	}
	defer s.fetching.Store(false)

	epoch := s.epoch.Load()

	pool, err := s.assembler.Assemble(ctx, s.seed, assembler.PageRequest{
		Page:     page,
		PageSize: s.pageSize,
		Genres:   genres,
		Search:   search,
	})
	if err != nil {
		return types.FeedPage{}, err
	}

	candidates := make([]model.CatalogItem, 0, len(pool))
	for _, it := range pool {
		if it.Viable {
			candidates = append(candidates, it)
		}
	}

	scored := s.learner.SmartFeed(ctx, s.seed, candidates, s.pageSize)

	if s.epoch.Load() != epoch {
		return types.FeedPage{}, ErrStaleResult
	}

	items := make([]types.FeedItem, 0, len(scored))
	for _, sc := range scored {
		items = append(items, feedItem(scoring.Candidate{
			Item:      sc.Item,
			Score:     sc.Score,
			SeenCount: s.tracker.CountOf(ctx, sc.Item.Key()),
		}))
	}

	return types.FeedPage{
		Items:     items,
		Page:      page,
		Seed:      s.seed,
		FirstPass: len(items),
	}, nil
}

// MarkDisplayed reports a batch of item ids as shown to the viewer.
// Returns false when the queue sheds the event.
func (s *Service) MarkDisplayed(ctx context.Context, ids []int64) bool {
	if !s.isStarted() || len(ids) == 0 {
		return false
	}
	metrics.RecordInteraction("displayed")
	return s.eventQueue.Enqueue(ctx, eventqueue.Event{
		ID:      uuid.NewString(),
		Kind:    model.InteractionDisplayed,
		ItemIDs: ids,
		TS:      time.Now(),
	})
}

// RecordView reports dwell time on one item.
func (s *Service) RecordView(ctx context.Context, item model.CatalogItem, dwellSeconds float64) bool {
	if !s.isStarted() || item.ID == 0 {
		return false
	}
	return s.eventQueue.Enqueue(ctx, eventqueue.Event{
		ID:           uuid.NewString(),
		Kind:         model.InteractionView,
		Item:         item,
		DwellSeconds: dwellSeconds,
		TS:           time.Now(),
	})
}

// RecordSkip reports the viewer moved past one item quickly.
func (s *Service) RecordSkip(ctx context.Context, item model.CatalogItem) bool {
	if !s.isStarted() || item.ID == 0 {
		return false
	}
	return s.eventQueue.Enqueue(ctx, eventqueue.Event{
		ID:   uuid.NewString(),
		Kind: model.InteractionSkip,
		Item: item,
		TS:   time.Now(),
	})
}

// RecordGenreInterest reports an explicit genre pick.
func (s *Service) RecordGenreInterest(ctx context.Context, genreSlug string) bool {
	if !s.isStarted() || genreSlug == "" {
		return false
	}
	return s.eventQueue.Enqueue(ctx, eventqueue.Event{
		ID:        uuid.NewString(),
		Kind:      model.InteractionGenreInterest,
		GenreSlug: genreSlug,
		TS:        time.Now(),
	})
}

// StoreLinks resolves storefront links for a game name. Lookups are
// best effort: failures degrade to an empty list so a missing store
// button never fails a feed.
func (s *Service) StoreLinks(ctx context.Context, name string) []model.StoreLink {
	if !s.isStarted() || s.stores == nil || name == "" {
		return []model.StoreLink{}
	}

	links, err := s.stores.Lookup(ctx, name)
	if err != nil {
		s.logger.Warn(ctx, "store lookup failed",
			logger.String("name", name), logger.Error(err))
		return []model.StoreLink{}
	}
	return links
}

// Genres returns the upstream genre list.
func (s *Service) Genres(ctx context.Context) ([]model.Genre, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	return s.catalog.Genres(ctx)
}

// Detail returns one item, optionally with its screenshots.
func (s *Service) Detail(ctx context.Context, id int64, withScreenshots bool) (ItemDetail, error) {
	if !s.isStarted() {
		return ItemDetail{}, ErrNotStarted
	}

	item, err := s.catalog.Detail(ctx, id)
	if err != nil {
		return ItemDetail{}, err
	}

	detail := ItemDetail{Item: item}
	if withScreenshots {
		shots, err := s.catalog.Screenshots(ctx, id)
		if err != nil {
			// Screenshots are decoration; the detail still stands.
			s.logger.Warn(ctx, "screenshot fetch failed",
				logger.Int64("id", id), logger.Error(err))
		} else {
			detail.Screenshots = shots
		}
	}
	return detail, nil
}

// Reset discards all viewer state: seen counts, learned preferences,
// and any in-flight page via the epoch bump.
func (s *Service) Reset(ctx context.Context) {
	if !s.isStarted() {
		return
	}

	s.epoch.Add(1)
	s.tracker.Reset(ctx)
	s.learner.Reset(ctx)
	s.logger.Info(ctx, "session state reset")
}

// Stats returns service statistics for monitoring.
func (s *Service) Stats(ctx context.Context) map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":   s.started,
		"seed":      s.seed,
		"pageSize":  s.pageSize,
		"poolPages": s.poolPages,
	}

	if s.started {
		stats["queueLength"] = s.eventQueue.Len(ctx)
		stats["seenItems"] = s.tracker.Size()
		stats["totalInteractions"] = s.learner.TotalInteractions(ctx)
		stats["topGenres"] = s.learner.TopGenres(ctx, topGenresLimit)
	}

	return stats
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// feedItem renders one candidate for the presentation layer.
func feedItem(c scoring.Candidate) types.FeedItem {
	released := releasedUnknown
	if !c.Item.Released.IsZero() {
		released = c.Item.Released.Format(releasedLayout)
	}

	return types.FeedItem{
		ID:          c.Item.ID,
		Name:        c.Item.Name,
		Released:    released,
		ImageURL:    c.Item.ImageURL,
		Rating:      c.Item.Rating,
		Quality:     c.Item.Quality,
		Genres:      c.Item.Genres,
		Description: c.Item.Description,
		Score:       math.Round(c.Score*scorePrecision) / scorePrecision,
		SeenCount:   c.SeenCount,
	}
}
