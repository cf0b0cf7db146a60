package scoring_test

import (
	"fmt"
	"testing"

	"github.com/okian/cardrank/internal/domain/model"
	"github.com/okian/cardrank/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

const epsilon = 1e-9

func entry(standing, size *int, cards ...model.CardRef) model.TournamentEntry {
	return model.TournamentEntry{Standing: standing, TournamentSize: size, MaindeckCards: cards}
}

func card(name string) model.CardRef { return model.CardRef{Name: name} }

func cardWithPreview(name, url string) model.CardRef {
	return model.CardRef{Name: name, PreviewImageURL: url}
}

func find(scores []model.CardScore, name string) (model.CardScore, bool) {
	for _, s := range scores {
		if s.Name == name {
			return s, true
		}
	}
	return model.CardScore{}, false
}

func TestPerformance(t *testing.T) {
	Convey("Given tournament entries", t, func() {
		Convey("When the entry won a 100 player event", func() {
			perf := scoring.Performance(entry(model.IntPtr(1), model.IntPtr(100)))

			Convey("Then it earns 0.99", func() {
				So(perf, ShouldAlmostEqual, 0.99, epsilon)
			})
		})

		Convey("When standing equals tournament size", func() {
			perf := scoring.Performance(entry(model.IntPtr(1), model.IntPtr(1)))

			Convey("Then it earns nothing", func() {
				So(perf, ShouldEqual, 0)
			})
		})

		Convey("When the tournament size is missing", func() {
			perf := scoring.Performance(entry(model.IntPtr(1), nil))

			Convey("Then it earns nothing regardless of standing", func() {
				So(perf, ShouldEqual, 0)
			})
		})

		Convey("When the tournament size is zero", func() {
			Convey("Then it does not divide by zero", func() {
				So(func() { scoring.Performance(entry(model.IntPtr(3), model.IntPtr(0))) }, ShouldNotPanic)
				So(scoring.Performance(entry(model.IntPtr(3), model.IntPtr(0))), ShouldEqual, 0)
			})
		})

		Convey("When the standing is missing", func() {
			perf := scoring.Performance(entry(nil, model.IntPtr(64)))

			Convey("Then it is treated as last place", func() {
				So(perf, ShouldEqual, 0)
			})
		})

		Convey("When both fields are missing", func() {
			So(scoring.Performance(model.TournamentEntry{}), ShouldEqual, 0)
		})
	})
}

func TestComputeScores(t *testing.T) {
	Convey("Given the score aggregator", t, func() {
		Convey("When there are no entries", func() {
			scores := scoring.ComputeScores(nil)

			Convey("Then it returns an empty, non-nil result", func() {
				So(scores, ShouldNotBeNil)
				So(scores, ShouldBeEmpty)
			})
		})

		Convey("When a single entry has standing equal to size", func() {
			scores := scoring.ComputeScores([]model.TournamentEntry{
				entry(model.IntPtr(1), model.IntPtr(1), card("Sol Ring")),
			})

			Convey("Then the card is listed with zero credit", func() {
				So(scores, ShouldHaveLength, 1)
				So(scores[0].Name, ShouldEqual, "Sol Ring")
				So(scores[0].Score, ShouldEqual, 0)
			})
		})

		Convey("When a single entry won a 100 player event", func() {
			scores := scoring.ComputeScores([]model.TournamentEntry{
				entry(model.IntPtr(1), model.IntPtr(100), card("Sol Ring")),
			})

			Convey("Then the card scores about 0.99", func() {
				So(scores, ShouldHaveLength, 1)
				So(scores[0].Score, ShouldAlmostEqual, 0.99, epsilon)
			})
		})

		Convey("When an entry has no tournament size", func() {
			scores := scoring.ComputeScores([]model.TournamentEntry{
				entry(model.IntPtr(1), nil, card("Sol Ring"), card("Mana Crypt")),
				entry(model.IntPtr(2), model.IntPtr(0), card("Sol Ring")),
			})

			Convey("Then all of its cards contribute zero", func() {
				So(scores, ShouldHaveLength, 2)
				for _, s := range scores {
					So(s.Score, ShouldEqual, 0)
				}
			})
		})

		Convey("When the same card appears across entries", func() {
			scores := scoring.ComputeScores([]model.TournamentEntry{
				entry(model.IntPtr(1), model.IntPtr(2), card("Sol Ring")),  // 0.5
				entry(model.IntPtr(7), model.IntPtr(10), card("Sol Ring")), // 0.3
			})

			Convey("Then performances accumulate", func() {
				So(scores, ShouldHaveLength, 1)
				So(scores[0].Score, ShouldAlmostEqual, 0.8, epsilon)
			})
		})

		Convey("When preview URLs differ across entries", func() {
			scores := scoring.ComputeScores([]model.TournamentEntry{
				entry(model.IntPtr(1), model.IntPtr(10), card("Sol Ring")),
				entry(model.IntPtr(2), model.IntPtr(10), cardWithPreview("Sol Ring", "https://img.example/first.jpg")),
				entry(model.IntPtr(3), model.IntPtr(10), cardWithPreview("Sol Ring", "https://img.example/second.jpg")),
			})

			Convey("Then the first non-empty preview wins", func() {
				So(scores[0].PreviewImageURL, ShouldEqual, "https://img.example/first.jpg")
			})
		})

		Convey("When no entry supplies a preview", func() {
			scores := scoring.ComputeScores([]model.TournamentEntry{
				entry(model.IntPtr(1), model.IntPtr(10), card("Arcane Signet")),
			})

			Convey("Then the preview stays empty", func() {
				So(scores[0].PreviewImageURL, ShouldEqual, "")
			})
		})

		Convey("When a deck lists the same card twice", func() {
			scores := scoring.ComputeScores([]model.TournamentEntry{
				entry(model.IntPtr(1), model.IntPtr(4), card("Island"), card("Island")),
			})

			Convey("Then each listing adds the entry's weight", func() {
				So(scores, ShouldHaveLength, 1)
				So(scores[0].Score, ShouldAlmostEqual, 1.5, epsilon)
			})
		})

		Convey("When many decks mention overlapping cards", func() {
			var entries []model.TournamentEntry
			for i := 1; i <= 20; i++ {
				entries = append(entries, entry(model.IntPtr(i), model.IntPtr(20),
					card("Sol Ring"), card("Command Tower"), card(fmt.Sprintf("Pet Card %d", i%3))))
			}
			scores := scoring.ComputeScores(entries)

			Convey("Then each distinct name appears exactly once", func() {
				So(scores, ShouldHaveLength, 5)
				seen := map[string]bool{}
				for _, s := range scores {
					So(seen[s.Name], ShouldBeFalse)
					seen[s.Name] = true
				}
			})
		})

		Convey("When a card ref has no name", func() {
			scores := scoring.ComputeScores([]model.TournamentEntry{
				entry(model.IntPtr(1), model.IntPtr(10), card(""), cardWithPreview("", "https://img.example/x.jpg"), card("Sol Ring")),
			})

			Convey("Then it is skipped", func() {
				So(scores, ShouldHaveLength, 1)
				So(scores[0].Name, ShouldEqual, "Sol Ring")
				_, found := find(scores, "")
				So(found, ShouldBeFalse)
			})
		})

		Convey("When cards have different totals", func() {
			scores := scoring.ComputeScores([]model.TournamentEntry{
				entry(model.IntPtr(1), model.IntPtr(10), card("A"), card("B"), card("C")),
				entry(model.IntPtr(5), model.IntPtr(10), card("B"), card("C")),
				entry(model.IntPtr(2), model.IntPtr(10), card("C")),
			})

			Convey("Then they are ordered by score descending", func() {
				So(scores, ShouldHaveLength, 3)
				for i := 1; i < len(scores); i++ {
					So(scores[i-1].Score, ShouldBeGreaterThanOrEqualTo, scores[i].Score)
				}
				So(scores[0].Name, ShouldEqual, "C")
				So(scores[1].Name, ShouldEqual, "B")
				So(scores[2].Name, ShouldEqual, "A")
			})
		})

		Convey("When cards tie on score", func() {
			scores := scoring.ComputeScores([]model.TournamentEntry{
				entry(model.IntPtr(1), model.IntPtr(4), card("Zuran Orb"), card("Mox Opal"), card("Brainstorm")),
			})

			Convey("Then ties are broken by name ascending", func() {
				So(scores[0].Name, ShouldEqual, "Brainstorm")
				So(scores[1].Name, ShouldEqual, "Mox Opal")
				So(scores[2].Name, ShouldEqual, "Zuran Orb")
			})

			Convey("And repeated calls return the same order", func() {
				for i := 0; i < 10; i++ {
					again := scoring.ComputeScores([]model.TournamentEntry{
						entry(model.IntPtr(1), model.IntPtr(4), card("Zuran Orb"), card("Mox Opal"), card("Brainstorm")),
					})
					So(again, ShouldResemble, scores)
				}
			})
		})

		Convey("When inputs are passed in", func() {
			in := []model.TournamentEntry{
				entry(model.IntPtr(1), model.IntPtr(8), cardWithPreview("Sol Ring", "u")),
			}
			_ = scoring.ComputeScores(in)

			Convey("Then they are not mutated", func() {
				So(*in[0].Standing, ShouldEqual, 1)
				So(*in[0].TournamentSize, ShouldEqual, 8)
				So(in[0].MaindeckCards[0], ShouldResemble, cardWithPreview("Sol Ring", "u"))
			})
		})

		Convey("When every entry is empty", func() {
			scores := scoring.ComputeScores([]model.TournamentEntry{{}, {}, {MaindeckCards: []model.CardRef{}}})

			Convey("Then the result is empty without error", func() {
				So(scores, ShouldBeEmpty)
			})
		})
	})
}

func TestSortScores(t *testing.T) {
	Convey("Given an unsorted slice of scores", t, func() {
		scores := []model.CardScore{
			{Name: "b", Score: 1},
			{Name: "a", Score: 1},
			{Name: "c", Score: 2},
		}

		Convey("When sorting", func() {
			scoring.SortScores(scores)

			Convey("Then higher scores come first and ties sort by name", func() {
				So(scores[0].Name, ShouldEqual, "c")
				So(scores[1].Name, ShouldEqual, "a")
				So(scores[2].Name, ShouldEqual, "b")
			})
		})
	})
}
