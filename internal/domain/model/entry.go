// Package model contains domain models passed between layers.
package model

// TournamentEntry is one recorded placement of a deck in a tournament.
// Absent numeric fields are nil; the aggregator decides how to treat them.
type TournamentEntry struct {
	Standing       *int      // final placement, 1 = winner
	TournamentSize *int      // number of competitors in the event
	MaindeckCards  []CardRef // cards registered in the deck, commander included
}

// CardRef is a card as listed in an entry's maindeck.
type CardRef struct {
	Name            string // aggregation key; empty means the upstream record had no usable name
	PreviewImageURL string // optional
}

// CardScore is the accumulated performance weight of one card across entries.
type CardScore struct {
	Name            string
	Score           float64
	PreviewImageURL string
}

// IntPtr returns a pointer to v. Used to build entries with optional fields.
func IntPtr(v int) *int { return &v }
