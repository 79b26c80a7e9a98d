// Package assembler builds the candidate pool for one feed page.
//
// The seed picks which upstream pages to pull: the requested page plus
// further pages spaced by a seeded distance, so two sessions with
// different seeds sample different slices of the catalog. Fetches run
// concurrently and settle independently; a failed page contributes
// nothing instead of failing the batch.
package assembler

import (
	"context"
	"sync"
	"time"

	"github.com/okian/gamefeed/internal/domain/model"
	"github.com/okian/gamefeed/internal/domain/seeded"
	"github.com/okian/gamefeed/pkg/logger"
	"github.com/okian/gamefeed/pkg/metrics"
)

// Default pool configuration.
const (
	defaultPoolPages = 2
)

// PageRequest describes one upstream page fetch.
type PageRequest struct {
	Page     int
	PageSize int
	Genres   string
	Search   string
}

// Fetcher pulls one catalog page. The catalog adapter implements this.
type Fetcher interface {
	FetchPage(ctx context.Context, req PageRequest) ([]model.CatalogItem, error)
}

// Assembler fetches, merges, and deduplicates candidate pools.
type Assembler struct {
	fetcher   Fetcher
	poolPages int
	logger    logger.Logger
}

// New creates an assembler over the given fetcher with configuration
// options.
func New(fetcher Fetcher, opts ...Option) *Assembler {
	a := &Assembler{
		fetcher:   fetcher,
		poolPages: defaultPoolPages,
		logger:    logger.Get().Named("assembler"),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Assemble returns the deduplicated candidate pool for one page request.
// An empty pool is a valid result, not an error; the only errors are
// contract violations on the arguments.
func (a *Assembler) Assemble(ctx context.Context, seed string, req PageRequest) ([]model.CatalogItem, error) {
	if req.Page < 1 {
		return nil, ErrInvalidPage
	}
	if req.PageSize < 1 {
		return nil, ErrInvalidPageSize
	}

	start := time.Now()
	distance := seeded.PageDistance(seed)

	type settled struct {
		page  int
		items []model.CatalogItem
		err   error
	}

	results := make([]settled, a.poolPages)
	var wg sync.WaitGroup
	for i := 0; i < a.poolPages; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pageReq := req
			pageReq.Page = req.Page + i*(distance+1)
			items, err := a.fetcher.FetchPage(ctx, pageReq)
			results[i] = settled{page: pageReq.Page, items: items, err: err}
		}(i)
	}
	wg.Wait()

	pool := make([]model.CatalogItem, 0, a.poolPages*req.PageSize)
	for _, r := range results {
		if r.err != nil {
			// Settle-all: a failed page shrinks the pool, nothing more.
			a.logger.Warn(ctx, "upstream page fetch failed",
				logger.Int("page", r.page), logger.Error(r.err))
			continue
		}
		pool = append(pool, r.items...)
	}

	merged := dedupe(pool)

	metrics.RecordPageAssembled()
	metrics.ObservePoolSize(len(merged))
	metrics.RecordAssemblyLatency(float64(time.Since(start).Milliseconds()))
	return merged, nil
}

// dedupe collapses duplicate ids, keeping the record with the higher
// merge weight. First occurrence wins ties, and survivor order follows
// first appearance.
func dedupe(pool []model.CatalogItem) []model.CatalogItem {
	if len(pool) == 0 {
		return nil
	}

	index := make(map[int64]int, len(pool))
	out := make([]model.CatalogItem, 0, len(pool))
	for _, item := range pool {
		if item.ID == 0 {
			continue
		}
		at, exists := index[item.ID]
		if !exists {
			index[item.ID] = len(out)
			out = append(out, item)
			continue
		}
		metrics.RecordDuplicateDropped()
		if item.MergeWeight > out[at].MergeWeight {
			out[at] = item
		}
	}
	return out
}
