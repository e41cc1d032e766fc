// Package ranking orders palette commands for a query by fusing fuzzy match
// quality with usage history, and partitions the result for display.
package ranking

import (
	"cmp"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/jask/palette/internal/command"
	"github.com/jask/palette/internal/fuzzy"
	"github.com/jask/palette/internal/history"
)

type MatchType string

const (
	TypeNone      MatchType = "none"
	TypeExact     MatchType = "exact"
	TypePrefix    MatchType = "prefix"
	TypeSubstring MatchType = "substring"
	TypeFuzzy     MatchType = "fuzzy"
)

// Field names the command field a match was scored on.
type Field string

const (
	FieldNone        Field = ""
	FieldLabel       Field = "label"
	FieldSection     Field = "section"
	FieldDescription Field = "description"
)

// Match is one ranked command. Highlights index runes of the field named by Field.
type Match struct {
	Command    command.Command
	Score      float64
	Type       MatchType
	Field      Field
	Highlights []fuzzy.Range
	IsRecent   bool
	IsFrequent bool
}

// History is the read side of the usage store.
type History interface {
	Entries() []history.Entry
	Lookup(commandID string) (history.Entry, bool)
	IsRecent(commandID string) bool
}

// Synthetic empty-query scores; they only fix display precedence.
const (
	RecentScore   = 1000
	FrequentScore = 900
	FallbackScore = 0
)

type Options struct {
	Scoring fuzzy.Scoring

	LabelWeight       float64
	SectionWeight     float64
	DescriptionWeight float64

	// History boost is min(useCount*BoostPerUse, BoostCap).
	BoostPerUse float64
	BoostCap    float64

	RecentLimit   int
	FrequentLimit int
	FallbackLimit int
}

func DefaultOptions() Options {
	return Options{
		Scoring:           fuzzy.DefaultScoring(),
		LabelWeight:       1.0,
		SectionWeight:     0.8,
		DescriptionWeight: 0.6,
		BoostPerUse:       5,
		BoostCap:          25,
		RecentLimit:       5,
		FrequentLimit:     5,
		FallbackLimit:     10,
	}
}

type Engine struct {
	opts    Options
	matcher fuzzy.Matcher
	logger  *slog.Logger
}

// NewEngine builds an engine. A nil logger discards output.
func NewEngine(opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{opts: opts, matcher: fuzzy.NewMatcher(opts.Scoring), logger: logger}
}

func (e *Engine) Options() Options { return e.opts }

// Rank orders the currently available commands of catalog for query.
// A nil history ranks on match quality alone.
func (e *Engine) Rank(catalog command.Catalog, query string, h History) []Match {
	avail := e.available(catalog)
	q := strings.TrimSpace(query)
	if q == "" {
		return e.rankEmpty(avail, h)
	}
	return e.rankSearch(avail, q, h)
}

func (e *Engine) available(catalog command.Catalog) []command.Command {
	out := make([]command.Command, 0, len(catalog))
	for _, cmd := range catalog {
		ok, err := cmd.IsAvailable()
		if err != nil {
			e.logger.Debug("command excluded", "command", cmd.ID, "error", err)
			continue
		}
		if ok {
			out = append(out, cmd)
		}
	}
	return out
}

func (e *Engine) rankEmpty(avail []command.Command, h History) []Match {
	byID := make(map[string]command.Command, len(avail))
	for _, cmd := range avail {
		if _, dup := byID[cmd.ID]; !dup {
			byID[cmd.ID] = cmd
		}
	}
	included := make(map[string]bool)
	var recent, frequent []Match
	if h != nil {
		for _, entry := range h.Entries() {
			cmd, ok := byID[entry.CommandID]
			if !ok || included[cmd.ID] {
				continue
			}
			if h.IsRecent(cmd.ID) {
				if len(recent) < e.opts.RecentLimit {
					recent = append(recent, Match{Command: cmd, Score: RecentScore, Type: TypeNone, IsRecent: true})
					included[cmd.ID] = true
				}
				continue
			}
			if len(frequent) < e.opts.FrequentLimit {
				frequent = append(frequent, Match{Command: cmd, Score: FrequentScore, Type: TypeNone, IsFrequent: true})
				included[cmd.ID] = true
			}
		}
	}

	out := make([]Match, 0, len(recent)+len(frequent)+e.opts.FallbackLimit)
	out = append(out, recent...)
	out = append(out, frequent...)
	fallback := 0
	for _, cmd := range avail {
		if fallback >= e.opts.FallbackLimit {
			break
		}
		if included[cmd.ID] {
			continue
		}
		included[cmd.ID] = true
		out = append(out, Match{Command: cmd, Score: FallbackScore, Type: TypeNone})
		fallback++
	}
	return out
}

func (e *Engine) rankSearch(avail []command.Command, q string, h History) []Match {
	out := make([]Match, 0, len(avail))
	for _, cmd := range avail {
		label := e.matcher.Match(cmd.Label, q)
		best := Match{Command: cmd}
		found := false
		consider := func(res fuzzy.Result, weight float64, field Field) {
			if !res.Matched {
				return
			}
			weighted := float64(res.Score) * weight
			if found && weighted <= best.Score {
				return
			}
			found = true
			best.Score = weighted
			best.Field = field
			best.Highlights = res.Ranges
		}
		consider(label, e.opts.LabelWeight, FieldLabel)
		consider(e.matcher.Match(cmd.Section, q), e.opts.SectionWeight, FieldSection)
		if cmd.Description != "" {
			consider(e.matcher.Match(cmd.Description, q), e.opts.DescriptionWeight, FieldDescription)
		}
		if !found {
			continue
		}
		best.Type = e.typeFor(label.Score)
		if h != nil {
			if entry, ok := h.Lookup(cmd.ID); ok {
				best.Score += min(float64(entry.UseCount)*e.opts.BoostPerUse, e.opts.BoostCap)
				best.IsRecent = h.IsRecent(cmd.ID)
				best.IsFrequent = !best.IsRecent
			}
		}
		out = append(out, best)
	}
	slices.SortStableFunc(out, func(a, b Match) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return out
}

// typeFor classifies by the label score regardless of which field won.
func (e *Engine) typeFor(labelScore int) MatchType {
	s := e.opts.Scoring
	switch {
	case labelScore >= s.Exact:
		return TypeExact
	case labelScore >= s.Prefix:
		return TypePrefix
	case labelScore >= s.Substring:
		return TypeSubstring
	default:
		return TypeFuzzy
	}
}
