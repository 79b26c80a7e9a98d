// Package worker applies queued interaction events to the learning state.
//
// Exactly one worker consumes the queue. The seen tracker and the
// preference profile are mutated only from this loop, so interaction
// processing needs no coordination with the request path beyond the
// queue itself.
package worker

import (
	"context"
	"fmt"
	"strconv"

	"github.com/okian/gamefeed/internal/domain/model"
	"github.com/okian/gamefeed/pkg/logger"
)

// Event is what the worker reads off the queue.
type Event = model.Interaction

// Tracker receives confirmed display batches.
type Tracker interface {
	MarkDisplayed(ctx context.Context, ids []string)
}

// Learner absorbs view, skip, and genre-interest signals.
type Learner interface {
	RecordView(ctx context.Context, item model.CatalogItem, dwellSeconds float64)
	RecordSkip(ctx context.Context, item model.CatalogItem)
	RecordGenreInterest(ctx context.Context, genreSlug string)
}

// Queue defines how the worker receives events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Worker processes interaction events until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	// It will process any remaining events before stopping.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker over the in-memory queue.
type InMemoryWorker struct {
	queue   Queue
	tracker Tracker
	learner Learner
	name    string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, tracker Tracker, learner Learner, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		tracker:  tracker,
		learner:  learner,
		name:     "worker", // default name
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"), // will be updated by options
	}

	// Apply all options
	for _, opt := range opts {
		opt(w)
	}

	// Set up logger with worker name if not already set
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer func() {
		close(w.done)
	}()

	eventChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case event, ok := <-eventChan:
			if !ok {
				// Channel closed, worker should stop
				return
			}

			if err := w.processEvent(ctx, event); err != nil {
				w.logger.Error(ctx, "error processing interaction", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	// Signal shutdown
	close(w.shutdown)

	// Wait for worker to finish or context to timeout
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processEvent applies a single interaction to the learning state.
// A "view" below the skip dwell threshold is reclassified as a skip:
// the viewer was shown the item and moved on.
func (w *InMemoryWorker) processEvent(ctx context.Context, event Event) error {
	switch event.Kind {
	case model.InteractionDisplayed:
		if len(event.ItemIDs) == 0 {
			return nil
		}
		ids := make([]string, 0, len(event.ItemIDs))
		for _, id := range event.ItemIDs {
			ids = append(ids, strconv.FormatInt(id, 10))
		}
		w.tracker.MarkDisplayed(ctx, ids)

	case model.InteractionView:
		if event.DwellSeconds < model.SkipDwellThreshold {
			w.learner.RecordSkip(ctx, event.Item)
			return nil
		}
		w.learner.RecordView(ctx, event.Item, event.DwellSeconds)

	case model.InteractionSkip:
		w.learner.RecordSkip(ctx, event.Item)

	case model.InteractionGenreInterest:
		w.learner.RecordGenreInterest(ctx, event.GenreSlug)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, event.Kind)
	}

	return nil
}
