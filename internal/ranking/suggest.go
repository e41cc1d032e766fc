package ranking

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/jask/palette/internal/command"
)

// Suggest returns the available command whose label is closest to query by
// edit distance, for "did you mean" hints when a search comes back empty.
// Labels further than max(2, len(query)/3) edits away are not offered.
func (e *Engine) Suggest(catalog command.Catalog, query string) (command.Command, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return command.Command{}, false
	}
	limit := max(2, utf8.RuneCountInString(q)/3)
	var best command.Command
	bestDist := limit + 1
	for _, cmd := range e.available(catalog) {
		dist := levenshtein.ComputeDistance(strings.ToLower(cmd.Label), q)
		if dist < bestDist {
			best, bestDist = cmd, dist
		}
	}
	if bestDist > limit {
		return command.Command{}, false
	}
	return best, true
}
