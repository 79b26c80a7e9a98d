// Package types contains common types used across the application
package types

import "github.com/okian/gamefeed/internal/domain/model"

// FeedItem is one rendered feed entry returned to the presentation layer.
// Field names mirror the upstream catalog shape the UI already consumes,
// plus underscore-prefixed scoring diagnostics.
type FeedItem struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Released    string        `json:"released"` // ISO date, or "N/A" when unknown
	ImageURL    string        `json:"background_image"`
	Rating      float64       `json:"rating"`
	Quality     float64       `json:"metacritic"`
	Genres      []model.Genre `json:"genres"`
	Description string        `json:"description"`
	Score       float64       `json:"_score"`
	SeenCount   int           `json:"_seenCount"`
}

// FeedPage is one assembled page of feed items.
type FeedPage struct {
	Items []FeedItem `json:"items"`
	Page  int        `json:"page"`
	Seed  string     `json:"seed"`
	// FirstPass counts how many items the diversity selector accepted under
	// the genre cap; the remainder came from the cap-free backfill pass.
	FirstPass int `json:"first_pass"`
}
