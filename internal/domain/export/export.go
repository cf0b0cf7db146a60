// Package export renders ranked card scores as a plain deck list.
//
// The format is one card per line as "1 <name>", a blank separator, then
// "1 <anchor>" where the anchor is the commander the list was built for.
package export

import (
	"strings"

	"github.com/okian/cardrank/internal/domain/model"
)

const (
	lineSeparator   = "\n"
	maxFilenameLen  = 100
	defaultFilename = "deck"
)

// ClampN bounds a requested list length to [1, total]. An empty score list
// clamps to zero since there is nothing to take.
func ClampN(n, total int) int {
	if n < 1 {
		n = 1
	}
	if n > total {
		n = total
	}
	return n
}

// TopN returns the deck-list lines for the first n scores followed by the anchor.
// scores must already be ranked.
func TopN(scores []model.CardScore, n int, anchor string) []string {
	n = ClampN(n, len(scores))
	lines := make([]string, 0, n+2)
	for _, s := range scores[:n] {
		lines = append(lines, line(s.Name))
	}
	return append(lines, "", line(anchor))
}

// Text joins deck-list lines into the clipboard/file payload.
func Text(lines []string) string {
	return strings.Join(lines, lineSeparator)
}

// Filename suggests a download name for a list anchored on commander.
func Filename(anchor string) string {
	return sanitizeFilename(anchor) + ".txt"
}

func line(name string) string {
	return "1 " + name
}

func sanitizeFilename(name string) string {
	// Replace invalid filename characters with underscore
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	result := strings.TrimSpace(replacer.Replace(name))
	if len(result) > maxFilenameLen {
		result = result[:maxFilenameLen]
	}
	if result == "" {
		result = defaultFilename
	}
	return result
}
