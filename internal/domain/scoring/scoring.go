// Package scoring turns tournament entries into a ranked list of card scores.
//
// Everything here is a pure function of its input: no I/O, no package state,
// no errors. Callers fetch entries first and then hand them to ComputeScores.
package scoring

import (
	"cmp"
	"slices"

	"github.com/okian/cardrank/internal/domain/model"
)

// accumulator holds the running total for one card name.
type accumulator struct {
	score   float64
	preview string
}

// Performance returns the weight an entry contributes to each of its cards:
// 1 - standing/size. A missing standing counts as last place and a missing or
// zero size yields 0, so unknown placements never earn credit.
func Performance(entry model.TournamentEntry) float64 {
	size := 0
	if entry.TournamentSize != nil {
		size = *entry.TournamentSize
	}
	standing := size
	if entry.Standing != nil {
		standing = *entry.Standing
	}
	if size <= 0 {
		return 0
	}
	return 1 - float64(standing)/float64(size)
}

// ComputeScores aggregates per-card performance over entries and returns the
// cards ordered by score descending, ties broken by name ascending.
//
// Card refs without a name are skipped. The first non-empty preview URL seen
// for a name, in entry then card order, is kept.
func ComputeScores(entries []model.TournamentEntry) []model.CardScore {
	totals := make(map[string]*accumulator)

	for _, entry := range entries {
		perf := Performance(entry)
		for _, card := range entry.MaindeckCards {
			if card.Name == "" {
				continue
			}
			acc, ok := totals[card.Name]
			if !ok {
				acc = &accumulator{}
				totals[card.Name] = acc
			}
			acc.score += perf
			if acc.preview == "" && card.PreviewImageURL != "" {
				acc.preview = card.PreviewImageURL
			}
		}
	}

	scores := make([]model.CardScore, 0, len(totals))
	for name, acc := range totals {
		scores = append(scores, model.CardScore{
			Name:            name,
			Score:           acc.score,
			PreviewImageURL: acc.preview,
		})
	}
	SortScores(scores)
	return scores
}

// SortScores orders scores in place: score DESC, then name ASC (deterministic).
func SortScores(scores []model.CardScore) {
	slices.SortFunc(scores, compareScores)
}

func compareScores(a, b model.CardScore) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	return cmp.Compare(a.Name, b.Name)
}
