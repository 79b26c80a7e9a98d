// Package catalogsim serves a synthetic catalog over the same wire
// shape as the real upstream API.
//
// Items are derived from a seed, so the same seed always produces the
// same catalog. The generator mixes archetypes the way a real catalog
// does: blockbusters, acclaimed classics, hidden gems, shovelware, and
// records with missing metadata, so the viability gate and the
// defaulting rules get exercised against realistic gaps.
package catalogsim

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/gamefeed/internal/domain/model"
	"github.com/okian/gamefeed/internal/domain/seeded"
)

// Default catalog dimensions.
const (
	defaultTotalItems = 2000
	defaultSeed       = "catalog-sim"
)

// Archetype cases for synthetic items.
const (
	caseBlockbuster      = 0
	caseAcclaimedClassic = 1
	caseHiddenGem        = 2
	caseShovelware       = 3
	caseAverageTitle     = 4
	caseUnratedIndie     = 5
	caseNoMetadata       = 6
	caseRetro            = 7

	archetypeCount = 8
)

// Release year window for generated items.
const (
	earliestYear  = 1988
	yearSpan      = 37
	retroLatest   = 2000
	retroYearSpan = 12
)

// Popularity ("added") ranges per archetype tier.
const (
	hugePopularity  = 150000
	midPopularity   = 20000
	smallPopularity = 2000
)

var adjectives = []string{
	"Shattered", "Crimson", "Endless", "Forgotten", "Neon",
	"Silent", "Iron", "Hollow", "Radiant", "Savage",
	"Frozen", "Wandering", "Last", "Broken", "Astral",
}

var nouns = []string{
	"Kingdom", "Odyssey", "Protocol", "Depths", "Horizon",
	"Legacy", "Vanguard", "Expanse", "Citadel", "Requiem",
	"Frontier", "Covenant", "Spire", "Dynasty", "Abyss",
}

var genreCatalog = []model.Genre{
	{ID: 1, Slug: "action", Name: "Action"},
	{ID: 2, Slug: "rpg", Name: "RPG"},
	{ID: 3, Slug: "strategy", Name: "Strategy"},
	{ID: 4, Slug: "indie", Name: "Indie"},
	{ID: 5, Slug: "adventure", Name: "Adventure"},
	{ID: 6, Slug: "puzzle", Name: "Puzzle"},
	{ID: 7, Slug: "simulation", Name: "Simulation"},
	{ID: 8, Slug: "shooter", Name: "Shooter"},
}

// Catalog generates and serves a deterministic synthetic catalog.
type Catalog struct {
	seed  string
	total int
}

// Option applies a configuration option to the Catalog.
type Option func(*Catalog)

// WithSeed pins the generation seed.
func WithSeed(seed string) Option {
	return func(c *Catalog) {
		if seed != "" {
			c.seed = seed
		}
	}
}

// WithTotalItems sets how many items the catalog holds.
func WithTotalItems(n int) Option {
	return func(c *Catalog) {
		if n > 0 {
			c.total = n
		}
	}
}

// New creates a synthetic catalog with configuration options.
func New(opts ...Option) *Catalog {
	c := &Catalog{
		seed:  defaultSeed,
		total: defaultTotalItems,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Total returns the catalog size.
func (c *Catalog) Total() int {
	return c.total
}

// Genres returns the fixed genre list.
func (c *Catalog) Genres() []model.Genre {
	out := make([]model.Genre, len(genreCatalog))
	copy(out, genreCatalog)
	return out
}

// draw returns the deterministic [0,1) value for one item facet.
func (c *Catalog) draw(id int64, facet string) float64 {
	return seeded.Derive(c.seed, fmt.Sprintf("%s-%d", facet, id))
}

// Item generates the catalog record for one id. Ids outside
// [1, Total()] yield false.
func (c *Catalog) Item(id int64) (model.RawItem, bool) {
	if id < 1 || id > int64(c.total) {
		return model.RawItem{}, false
	}

	archetype := int(c.draw(id, "arch") * archetypeCount)

	item := model.RawItem{
		ID:   id,
		Name: c.name(id),
	}

	switch archetype {
	case caseBlockbuster:
		item.Rating = ptr(4.0 + c.draw(id, "rating"))
		item.Quality = ptr(80 + c.draw(id, "quality")*18)
		item.Popularity = ptrInt(int(c.draw(id, "added")*hugePopularity) + midPopularity)
		item.ImageURL = c.imageURL(id)
		item.Released = c.released(id, earliestYear, yearSpan)
	case caseAcclaimedClassic:
		item.Rating = ptr(4.2 + c.draw(id, "rating")*0.7)
		item.Quality = ptr(85 + c.draw(id, "quality")*14)
		item.Popularity = ptrInt(int(c.draw(id, "added")*midPopularity) + smallPopularity)
		item.ImageURL = c.imageURL(id)
		item.Released = c.released(id, earliestYear, retroYearSpan+10)
	case caseHiddenGem:
		item.Rating = ptr(3.8 + c.draw(id, "rating"))
		item.Quality = ptr(70 + c.draw(id, "quality")*20)
		item.Popularity = ptrInt(int(c.draw(id, "added") * smallPopularity))
		item.ImageURL = c.imageURL(id)
		item.Released = c.released(id, earliestYear, yearSpan)
	case caseShovelware:
		item.Rating = ptr(0.5 + c.draw(id, "rating")*1.5)
		item.Quality = ptr(10 + c.draw(id, "quality")*15)
		item.Popularity = ptrInt(int(c.draw(id, "added") * smallPopularity))
		item.Released = c.released(id, earliestYear, yearSpan)
	case caseAverageTitle:
		item.Rating = ptr(2.5 + c.draw(id, "rating")*1.5)
		item.Quality = ptr(50 + c.draw(id, "quality")*25)
		item.Popularity = ptrInt(int(c.draw(id, "added") * midPopularity))
		item.ImageURL = c.imageURL(id)
		item.Released = c.released(id, earliestYear, yearSpan)
	case caseUnratedIndie:
		// No rating or metacritic yet; image keeps it viable.
		item.Popularity = ptrInt(int(c.draw(id, "added") * smallPopularity))
		item.ImageURL = c.imageURL(id)
		item.Released = c.released(id, earliestYear+30, 7)
	case caseNoMetadata:
		// Bare record: no scores, no image, no date. Never viable.
	case caseRetro:
		item.Rating = ptr(3.5 + c.draw(id, "rating")*1.3)
		item.Quality = ptr(60 + c.draw(id, "quality")*30)
		item.Popularity = ptrInt(int(c.draw(id, "added") * midPopularity))
		item.ImageURL = c.imageURL(id)
		item.Released = c.released(id, earliestYear, retroYearSpan)
	}

	item.Genres = c.genres(id)
	if archetype != caseNoMetadata {
		item.Description = "A " + strings.ToLower(item.Genres[0].Name) + " title from the synthetic catalog."
	}
	return item, true
}

// Page returns one slice of the catalog. Filters mirror the upstream
// API: genres is a comma-separated slug list, search matches the name
// case-insensitively. The returned count is the filtered total.
func (c *Catalog) Page(page, pageSize int, genreFilter, search string) (int, []model.RawItem) {
	if page < 1 || pageSize < 1 {
		return 0, nil
	}

	wanted := map[string]struct{}{}
	for _, slug := range strings.Split(genreFilter, ",") {
		if slug = strings.TrimSpace(slug); slug != "" {
			wanted[slug] = struct{}{}
		}
	}
	needle := strings.ToLower(strings.TrimSpace(search))

	matched := make([]model.RawItem, 0, pageSize)
	count := 0
	skip := (page - 1) * pageSize
	for id := int64(1); id <= int64(c.total); id++ {
		item, _ := c.Item(id)
		if !c.matches(item, wanted, needle) {
			continue
		}
		if count >= skip && len(matched) < pageSize {
			matched = append(matched, item)
		}
		count++
	}
	return count, matched
}

func (c *Catalog) matches(item model.RawItem, wanted map[string]struct{}, needle string) bool {
	if needle != "" && !strings.Contains(strings.ToLower(item.Name), needle) {
		return false
	}
	if len(wanted) == 0 {
		return true
	}
	for _, g := range item.Genres {
		if _, ok := wanted[g.Slug]; ok {
			return true
		}
	}
	return false
}

// Screenshots returns synthetic screenshot URLs for one item.
func (c *Catalog) Screenshots(id int64) []string {
	if id < 1 || id > int64(c.total) {
		return nil
	}
	n := 2 + int(c.draw(id, "shots")*3)
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, fmt.Sprintf("https://img.catalog-sim.local/%d/shot-%d.jpg", id, i+1))
	}
	return out
}

func (c *Catalog) name(id int64) string {
	adj := adjectives[int(c.draw(id, "adj")*float64(len(adjectives)))]
	noun := nouns[int(c.draw(id, "noun")*float64(len(nouns)))]
	// Sequels keep generated names unique across a large catalog.
	serial := id % 7
	if serial < 2 {
		return adj + " " + noun
	}
	return fmt.Sprintf("%s %s %d", adj, noun, serial)
}

func (c *Catalog) genres(id int64) []model.Genre {
	n := 1 + int(c.draw(id, "genre-count")*3)
	out := make([]model.Genre, 0, n)
	used := map[string]struct{}{}
	for i := 0; i < n; i++ {
		g := genreCatalog[int(c.draw(id, fmt.Sprintf("genre-%d", i))*float64(len(genreCatalog)))]
		if _, dup := used[g.Slug]; dup {
			continue
		}
		used[g.Slug] = struct{}{}
		out = append(out, g)
	}
	return out
}

func (c *Catalog) released(id int64, fromYear, span int) string {
	year := fromYear + int(c.draw(id, "year")*float64(span))
	month := time.Month(1 + int(c.draw(id, "month")*12))
	day := 1 + int(c.draw(id, "day")*28)
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

func (c *Catalog) imageURL(id int64) string {
	return fmt.Sprintf("https://img.catalog-sim.local/%d/cover.jpg", id)
}

func ptr(v float64) *float64 { return &v }

func ptrInt(v int) *int { return &v }
