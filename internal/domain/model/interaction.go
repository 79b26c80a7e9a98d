package model

import "time"

// InteractionKind classifies a viewer attention signal.
type InteractionKind string

// Interaction kinds reported by the presentation layer.
const (
	// InteractionDisplayed confirms a batch of items was shown to the viewer.
	InteractionDisplayed InteractionKind = "displayed"
	// InteractionView reports dwell time on a single item.
	InteractionView InteractionKind = "view"
	// InteractionSkip reports the viewer moved past an item quickly.
	InteractionSkip InteractionKind = "skip"
	// InteractionGenreInterest reports an explicit genre selection.
	InteractionGenreInterest InteractionKind = "genre_interest"
)

// SkipDwellThreshold separates a skip from a view: dwell below it is a skip.
const SkipDwellThreshold = 2.0 // seconds

// Interaction is one viewer attention event flowing through the queue.
type Interaction struct {
	ID           string          // unique id for idempotent processing
	Kind         InteractionKind // what happened
	Item         CatalogItem     // populated for view/skip
	ItemIDs      []int64         // populated for displayed batches
	GenreSlug    string          // populated for genre interest
	DwellSeconds float64         // populated for view
	TS           time.Time
}
