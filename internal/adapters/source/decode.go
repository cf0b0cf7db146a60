package source

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/okian/cardrank/internal/domain/model"
)

// response mirrors the GraphQL envelope. Node payloads stay raw so that one
// malformed entry cannot fail the whole decode.
type response struct {
	Data struct {
		Commander *struct {
			Entries struct {
				Edges []struct {
					Node json.RawMessage `json:"node"`
				} `json:"edges"`
			} `json:"entries"`
		} `json:"commander"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type graphQLError struct {
	Message string `json:"message"`
}

func decodeResponse(body []byte) (*response, error) {
	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// entries converts raw edges into tournament entries. Edges whose node is not
// a JSON object are dropped.
func (r *response) entries() []model.TournamentEntry {
	if r.Data.Commander == nil {
		return []model.TournamentEntry{}
	}
	edges := r.Data.Commander.Entries.Edges
	out := make([]model.TournamentEntry, 0, len(edges))
	for _, edge := range edges {
		fields, ok := object(edge.Node)
		if !ok {
			continue
		}
		out = append(out, decodeEntry(fields))
	}
	return out
}

func decodeEntry(fields map[string]json.RawMessage) model.TournamentEntry {
	entry := model.TournamentEntry{Standing: optInt(fields["standing"])}
	if tournament, ok := object(fields["tournament"]); ok {
		entry.TournamentSize = optInt(tournament["size"])
	}

	var deck []json.RawMessage
	if err := json.Unmarshal(fields["maindeck"], &deck); err != nil {
		return entry
	}
	entry.MaindeckCards = make([]model.CardRef, 0, len(deck))
	for _, raw := range deck {
		card, ok := object(raw)
		if !ok {
			continue
		}
		entry.MaindeckCards = append(entry.MaindeckCards, model.CardRef{
			Name:            optString(card["name"]),
			PreviewImageURL: firstImage(card["imageUrls"]),
		})
	}
	return entry
}

func object(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil || m == nil {
		return nil, false
	}
	return m, true
}

// optInt accepts an integral JSON number or a numeric string. Anything else
// is reported as absent.
func optInt(raw json.RawMessage) *int {
	if len(raw) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	switch t := v.(type) {
	case json.Number:
		return integral(t.String())
	case string:
		return integral(strings.TrimSpace(t))
	default:
		return nil
	}
}

func integral(s string) *int {
	if n, err := strconv.Atoi(s); err == nil {
		return &n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return nil
	}
	n := int(f)
	return &n
}

func optString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// firstImage returns the first non-empty URL from either a string array or a
// bare string.
func firstImage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var list []any
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, v := range list {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
		return ""
	}
	return optString(raw)
}
