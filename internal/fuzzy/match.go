// Package fuzzy scores a query against a single text field.
//
// Rules are tried in priority order (exact, prefix, substring, subsequence)
// and the first one that applies wins. Matching is case-insensitive and all
// offsets are rune offsets into the candidate text.
package fuzzy

import "unicode"

// Kind reports which rule produced a match.
type Kind int

const (
	KindNone Kind = iota
	KindExact
	KindPrefix
	KindSubstring
	KindSubsequence
)

func (k Kind) String() string {
	switch k {
	case KindExact:
		return "exact"
	case KindPrefix:
		return "prefix"
	case KindSubstring:
		return "substring"
	case KindSubsequence:
		return "fuzzy"
	default:
		return "none"
	}
}

// Range is a half-open [Start, End) span of runes in the candidate.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

type Result struct {
	Matched bool
	Score   int
	Kind    Kind
	Ranges  []Range
}

// Scoring holds the constants used by Matcher. The zero value is not useful;
// start from DefaultScoring.
type Scoring struct {
	Exact            int
	Prefix           int
	Substring        int
	Fuzzy            int
	ConsecutiveBonus int
	BoundaryBonus    int
	GapPenalty       int
}

func DefaultScoring() Scoring {
	return Scoring{
		Exact:            100,
		Prefix:           80,
		Substring:        60,
		Fuzzy:            40,
		ConsecutiveBonus: 5,
		BoundaryBonus:    10,
		GapPenalty:       2,
	}
}

type Matcher struct {
	Scoring Scoring
}

func NewMatcher(s Scoring) Matcher {
	return Matcher{Scoring: s}
}

var defaultMatcher = NewMatcher(DefaultScoring())

// Match scores pattern against candidate with the default scoring table.
func Match(candidate, pattern string) Result {
	return defaultMatcher.Match(candidate, pattern)
}

func (m Matcher) Match(candidate, pattern string) Result {
	if pattern == "" {
		return Result{Matched: true}
	}
	text := lowerRunes(candidate)
	pat := lowerRunes(pattern)
	if len(pat) > len(text) {
		return Result{}
	}

	if equalRunes(text, pat) {
		return Result{
			Matched: true,
			Score:   m.Scoring.Exact,
			Kind:    KindExact,
			Ranges:  []Range{{Start: 0, End: len(text)}},
		}
	}
	if equalRunes(text[:len(pat)], pat) {
		return Result{
			Matched: true,
			Score:   m.Scoring.Prefix,
			Kind:    KindPrefix,
			Ranges:  []Range{{Start: 0, End: len(pat)}},
		}
	}
	if idx := indexRunes(text, pat); idx >= 0 {
		return Result{
			Matched: true,
			Score:   m.Scoring.Substring,
			Kind:    KindSubstring,
			Ranges:  []Range{{Start: idx, End: idx + len(pat)}},
		}
	}
	return m.subsequence(text, pat)
}

// subsequence walks text once, greedily consuming pat.
func (m Matcher) subsequence(text, pat []rune) Result {
	s := m.Scoring
	score := s.Fuzzy
	ranges := make([]Range, 0, len(pat))
	pi := 0
	last := -1
	for ti := 0; ti < len(text) && pi < len(pat); ti++ {
		if text[ti] != pat[pi] {
			continue
		}
		switch {
		case last >= 0 && ti == last+1:
			score += s.ConsecutiveBonus
			ranges[len(ranges)-1].End = ti + 1
		default:
			if last >= 0 {
				score -= s.GapPenalty
			}
			ranges = append(ranges, Range{Start: ti, End: ti + 1})
		}
		if ti == 0 || isBoundary(text[ti-1]) {
			score += s.BoundaryBonus
		}
		last = ti
		pi++
	}
	if pi < len(pat) {
		return Result{}
	}
	if score < 0 {
		score = 0
	}
	if ceiling := s.Substring - 1; score > ceiling {
		score = ceiling
	}
	return Result{Matched: true, Score: score, Kind: KindSubsequence, Ranges: ranges}
}

func isBoundary(r rune) bool {
	return r == ' ' || r == '-'
}

func lowerRunes(s string) []rune {
	out := []rune(s)
	for i, r := range out {
		out[i] = unicode.ToLower(r)
	}
	return out
}

func equalRunes(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func indexRunes(text, pat []rune) int {
	for i := 0; i+len(pat) <= len(text); i++ {
		if equalRunes(text[i:i+len(pat)], pat) {
			return i
		}
	}
	return -1
}
