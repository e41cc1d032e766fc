package ranking

import "strings"

const (
	GroupSearchResults = "Search Results"
	GroupRecent        = "Recent"
	GroupFrequent      = "Frequent"
	GroupOther         = "Other"
)

type Group struct {
	Name    string
	Matches []Match
}

// GroupForDisplay partitions ranked results into display sections. Every
// result lands in exactly one group, groups appear in order of first use
// and keep rank order inside. Empty groups are never returned.
func GroupForDisplay(results []Match, queryNonEmpty bool) []Group {
	if len(results) == 0 {
		return nil
	}
	if queryNonEmpty {
		return []Group{{Name: GroupSearchResults, Matches: append([]Match(nil), results...)}}
	}

	var recent, frequent []Match
	var sections []Group
	index := map[string]int{}
	for _, m := range results {
		switch {
		case m.IsRecent:
			recent = append(recent, m)
		case m.IsFrequent:
			frequent = append(frequent, m)
		default:
			name := strings.TrimSpace(m.Command.Section)
			if name == "" {
				name = GroupOther
			}
			i, ok := index[name]
			if !ok {
				i = len(sections)
				index[name] = i
				sections = append(sections, Group{Name: name})
			}
			sections[i].Matches = append(sections[i].Matches, m)
		}
	}

	out := make([]Group, 0, len(sections)+2)
	if len(recent) > 0 {
		out = append(out, Group{Name: GroupRecent, Matches: recent})
	}
	if len(frequent) > 0 {
		out = append(out, Group{Name: GroupFrequent, Matches: frequent})
	}
	return append(out, sections...)
}

// Flatten returns matches in display order.
func Flatten(groups []Group) []Match {
	n := 0
	for _, g := range groups {
		n += len(g.Matches)
	}
	out := make([]Match, 0, n)
	for _, g := range groups {
		out = append(out, g.Matches...)
	}
	return out
}
