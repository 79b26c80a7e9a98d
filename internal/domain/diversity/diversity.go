// Package diversity picks the final page from a ranked candidate list
// while capping how many items any single genre can contribute.
//
// Selection is two-pass: a greedy pass honors the per-genre cap in rank
// order, then a backfill pass relaxes the cap if the capped pass could
// not fill the page. A short page only happens when the pool itself is
// short.
package diversity

import "github.com/okian/gamefeed/internal/domain/scoring"

// Selection is the output of one page selection.
type Selection struct {
	Candidates []scoring.Candidate
	// Backfilled counts items admitted past the genre cap to fill the
	// page. Zero means the capped pass alone filled it.
	Backfilled int
}

// FirstPassOnly reports whether the genre cap held for the whole page.
func (s Selection) FirstPassOnly() bool {
	return s.Backfilled == 0
}

// MaxPerGenre returns the per-genre cap for a page of the given size,
// one third of the page rounded up.
func MaxPerGenre(pageSize int) int {
	return (pageSize + 2) / 3
}

// Select walks ranked best-first and returns up to pageSize candidates.
func Select(ranked []scoring.Candidate, pageSize int) Selection {
	if pageSize <= 0 || len(ranked) == 0 {
		return Selection{}
	}

	limit := MaxPerGenre(pageSize)
	selected := make([]scoring.Candidate, 0, pageSize)
	used := make(map[int64]struct{}, pageSize)
	genreCount := make(map[string]int)

	for _, c := range ranked {
		if len(selected) == pageSize {
			break
		}
		if _, dup := used[c.Item.ID]; dup {
			continue
		}

		genres := genreKeys(c)
		blocked := false
		for _, g := range genres {
			if genreCount[g] >= limit {
				blocked = true
				break
			}
		}
		if blocked {
			continue
		}

		selected = append(selected, c)
		used[c.Item.ID] = struct{}{}
		for _, g := range genres {
			genreCount[g]++
		}
	}

	backfilled := 0
	for _, c := range ranked {
		if len(selected) == pageSize {
			break
		}
		if _, dup := used[c.Item.ID]; dup {
			continue
		}
		selected = append(selected, c)
		used[c.Item.ID] = struct{}{}
		backfilled++
	}

	return Selection{Candidates: selected, Backfilled: backfilled}
}

// genreKeys returns the genre labels used for capping, preferring the
// display name over the slug.
func genreKeys(c scoring.Candidate) []string {
	keys := make([]string, 0, len(c.Item.Genres))
	for _, g := range c.Item.Genres {
		switch {
		case g.Name != "":
			keys = append(keys, g.Name)
		case g.Slug != "":
			keys = append(keys, g.Slug)
		}
	}
	return keys
}
