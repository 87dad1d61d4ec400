// Package flair derives a reader's rank and genre labels from their
// cumulative reading statistics. Everything here is pure: no clocks,
// no storage, no side effects.
package flair

import "sort"

// maxGenreFlairs caps the number of genre labels a reader can carry.
const maxGenreFlairs = 3

// DefaultFlair is returned when a reader has no genre history and no
// manual selection.
const DefaultFlair = "Explorer"

// rankStep is one rank threshold.
type rankStep struct {
	min   int
	label string
}

// rankSteps is evaluated highest-first; the final step is the floor.
var rankSteps = []rankStep{
	{min: 1000, label: "Archivist"},
	{min: 500, label: "Binger"},
	{min: 200, label: "Enthusiast"},
	{min: 50, label: "Reader"},
	{min: 0, label: "Newbie"},
}

// RankFor maps a total chapters-read count to a rank label.
// Total and monotonic non-decreasing in its input.
func RankFor(totalChaptersRead int) string {
	for _, step := range rankSteps {
		if totalChaptersRead >= step.min {
			return step.label
		}
	}
	return rankSteps[len(rankSteps)-1].label
}

// GenreFlairsFor selects up to three genre labels for a reader.
//
// A non-empty manual override wins verbatim, deduplicated and truncated
// to three. Otherwise the top genres by count are chosen; ties break by
// genre name ascending so the result is deterministic regardless of map
// iteration order. An empty result collapses to the Explorer sentinel.
func GenreFlairsFor(genreCounts map[string]int, override []string) []string {
	if picked := dedupe(override); len(picked) > 0 {
		if len(picked) > maxGenreFlairs {
			picked = picked[:maxGenreFlairs]
		}
		return picked
	}

	type genreCount struct {
		genre string
		count int
	}
	ranked := make([]genreCount, 0, len(genreCounts))
	for genre, count := range genreCounts {
		if count > 0 {
			ranked = append(ranked, genreCount{genre: genre, count: count})
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].genre < ranked[j].genre
	})

	if len(ranked) > maxGenreFlairs {
		ranked = ranked[:maxGenreFlairs]
	}
	out := make([]string, 0, len(ranked))
	for _, gc := range ranked {
		out = append(out, gc.genre)
	}
	if len(out) == 0 {
		return []string{DefaultFlair}
	}
	return out
}

// dedupe drops empty strings and duplicates, preserving order.
func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
