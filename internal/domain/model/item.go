// Package model contains domain models passed between layers.
package model

import (
	"strconv"
	"time"
)

// Defaults applied at the ingestion boundary for absent upstream fields.
const (
	// DefaultQuality substitutes a missing quality score during scoring.
	DefaultQuality = 50.0
	// DefaultRating substitutes a missing rating during scoring.
	DefaultRating = 3.0
	// DefaultYearsSinceRelease substitutes a missing or unparseable release date.
	DefaultYearsSinceRelease = 10.0
)

// Viability gate thresholds. An item failing all three legs never reaches the UI.
const (
	minViableQuality = 30.0
	minViableRating  = 2.0
)

// Genre is one genre tag carried by a catalog item.
type Genre struct {
	ID   int64  `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// StoreLink points at a storefront page for an item.
type StoreLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// CatalogItem is one upstream catalog entry after ingestion defaulting.
// All fields are concrete; presence checks happen once, in RawItem.Normalize.
type CatalogItem struct {
	ID          int64
	Name        string
	Released    time.Time // zero when the upstream date is absent or unparseable
	ImageURL    string
	Rating      float64 // 0-5, defaulted when absent
	Quality     float64 // 0-100, defaulted when absent
	Popularity  int
	Genres      []Genre
	Description string

	// MergeWeight ranks duplicates during pool merge: raw quality + raw rating,
	// absent fields counting as zero.
	MergeWeight float64

	// Viable records the minimum-viability gate evaluated on raw fields.
	Viable bool
}

// Key returns the string identity used for seen tracking and persistence.
func (i CatalogItem) Key() string {
	return strconv.FormatInt(i.ID, 10)
}

// GenreSlugs returns the item's genre slugs, skipping empty ones.
func (i CatalogItem) GenreSlugs() []string {
	slugs := make([]string, 0, len(i.Genres))
	for _, g := range i.Genres {
		if g.Slug != "" {
			slugs = append(slugs, g.Slug)
		}
	}
	return slugs
}

// ReleaseYear returns the release year, or 0 when the date is unknown.
func (i CatalogItem) ReleaseYear() int {
	if i.Released.IsZero() {
		return 0
	}
	return i.Released.Year()
}

// RawItem mirrors the optional/partial upstream JSON shape. Pointer fields
// distinguish absent from zero so Normalize can apply the defaulting rules
// exactly once.
type RawItem struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Released    string   `json:"released"`
	ImageURL    string   `json:"background_image"`
	Rating      *float64 `json:"rating"`
	Quality     *float64 `json:"metacritic"`
	Popularity  *int     `json:"added"`
	Genres      []Genre  `json:"genres"`
	Description string   `json:"description_raw"`
}

// Normalize converts a raw upstream record into a CatalogItem, applying the
// per-field defaults and precomputing merge weight and viability from the
// raw (pre-default) values.
func (r RawItem) Normalize() CatalogItem {
	var rawQuality, rawRating float64
	if r.Quality != nil {
		rawQuality = *r.Quality
	}
	if r.Rating != nil {
		rawRating = *r.Rating
	}

	item := CatalogItem{
		ID:          r.ID,
		Name:        r.Name,
		ImageURL:    r.ImageURL,
		Rating:      DefaultRating,
		Quality:     DefaultQuality,
		Genres:      r.Genres,
		Description: r.Description,
		MergeWeight: rawQuality + rawRating,
		Viable: (r.Quality != nil && rawQuality >= minViableQuality) ||
			(r.Rating != nil && rawRating >= minViableRating) ||
			r.ImageURL != "",
	}
	if r.Rating != nil {
		item.Rating = rawRating
	}
	if r.Quality != nil {
		item.Quality = rawQuality
	}
	if r.Popularity != nil {
		item.Popularity = *r.Popularity
	}
	if r.Released != "" {
		if t, err := time.Parse("2006-01-02", r.Released); err == nil {
			item.Released = t
		}
	}
	return item
}
