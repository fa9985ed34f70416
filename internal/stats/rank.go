package stats

import (
	"cmp"
	"slices"
)

// Order is the leaderboard sort direction by value.
type Order string

const (
	Ascending  Order = "asc"
	Descending Order = "desc"
)

// Entry is a ranked result with its 1-based position.
type Entry struct {
	Result
	Position int `json:"position"`
}

// Rank sorts results by value in the given order, breaking ties by ascending key. Empty groups
// are left out. topN <= 0 returns the full list. The input is not modified.
func Rank(results []Result, order Order, topN int) []Entry {
	sorted := make([]Result, 0, len(results))
	for _, r := range results {
		if r.Count > 0 {
			sorted = append(sorted, r)
		}
	}

	slices.SortStableFunc(sorted, func(a, b Result) int {
		c := cmp.Compare(a.Value, b.Value)
		if order == Descending {
			c = -c
		}
		if c != 0 {
			return c
		}
		return a.Key.Compare(b.Key)
	})

	if topN > 0 && len(sorted) > topN {
		sorted = sorted[:topN]
	}

	out := make([]Entry, len(sorted))
	for i, r := range sorted {
		out[i] = Entry{Result: r, Position: i + 1}
	}
	return out
}
