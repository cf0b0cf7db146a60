// Package types contains the wire shapes returned by the HTTP API and the CLI.
package types

import (
	"time"

	"github.com/okian/cardrank/internal/domain/model"
)

// CardEntry is one ranked card.
type CardEntry struct {
	Rank            int     `json:"rank"`
	Name            string  `json:"name"`
	Score           float64 `json:"score"`
	PreviewImageURL string  `json:"preview_image_url,omitempty"`
}

// Analysis is the JSON form of model.Analysis.
type Analysis struct {
	Commander    string      `json:"commander"`
	MinEventSize int         `json:"min_event_size"`
	TimePeriod   string      `json:"time_period"`
	EntryCount   int         `json:"entry_count"`
	CardCount    int         `json:"card_count"`
	GeneratedAt  time.Time   `json:"generated_at"`
	Cards        []CardEntry `json:"cards"`
}

// Job is the JSON form of model.Job.
type Job struct {
	ID           string    `json:"id"`
	Status       string    `json:"status"`
	Commander    string    `json:"commander"`
	MinEventSize int       `json:"min_event_size"`
	TimePeriod   string    `json:"time_period"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Result       *Analysis `json:"result,omitempty"`
}

// Cards ranks scores 1..n. limit <= 0 keeps every card.
func Cards(scores []model.CardScore, limit int) []CardEntry {
	if limit > 0 && limit < len(scores) {
		scores = scores[:limit]
	}
	out := make([]CardEntry, len(scores))
	for i, s := range scores {
		out[i] = CardEntry{
			Rank:            i + 1,
			Name:            s.Name,
			Score:           s.Score,
			PreviewImageURL: s.PreviewImageURL,
		}
	}
	return out
}

// FromAnalysis converts an analysis, keeping at most limit cards (limit <= 0 keeps all).
func FromAnalysis(a *model.Analysis, limit int) Analysis {
	return Analysis{
		Commander:    a.Query.Commander,
		MinEventSize: a.Query.MinEventSize,
		TimePeriod:   a.Query.TimePeriod.String(),
		EntryCount:   a.EntryCount,
		CardCount:    len(a.Cards),
		GeneratedAt:  a.GeneratedAt,
		Cards:        Cards(a.Cards, limit),
	}
}

// FromJob converts a job. The result is only attached once the job succeeded.
func FromJob(j model.Job, limit int) Job {
	out := Job{
		ID:           j.ID,
		Status:       string(j.Status),
		Commander:    j.Query.Commander,
		MinEventSize: j.Query.MinEventSize,
		TimePeriod:   j.Query.TimePeriod.String(),
		Error:        j.Error,
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    j.UpdatedAt,
	}
	if j.Status == model.JobSucceeded && j.Analysis != nil {
		res := FromAnalysis(j.Analysis, limit)
		out.Result = &res
	}
	return out
}
