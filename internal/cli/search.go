package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jask/palette/internal/fuzzy"
	"github.com/jask/palette/internal/ranking"
)

const msgNoMatches = "No matching commands."

type searchResult struct {
	Group      string        `json:"group"`
	ID         string        `json:"id"`
	Label      string        `json:"label"`
	Section    string        `json:"section"`
	Type       string        `json:"type"`
	Field      string        `json:"field,omitempty"`
	Score      float64       `json:"score"`
	Highlights []fuzzy.Range `json:"highlights,omitempty"`
	Recent     bool          `json:"recent"`
	Frequent   bool          `json:"frequent"`
}

func newSearchCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search [query...]",
		Short: "Rank catalog commands for a query",
		Long:  "search prints ranked commands for the query. With no query it shows recent, frequent and catalog commands the way an empty palette does.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			query := strings.TrimSpace(strings.Join(args, " "))
			a.store.Load(ctx)
			cat := a.commands()
			groups := ranking.GroupForDisplay(a.engine.Rank(cat, query, a.store), query != "")
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), groups)
			}
			if len(groups) == 0 {
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, msgNoMatches)
				if s, ok := a.engine.Suggest(cat, query); ok {
					fmt.Fprintf(out, "Did you mean %q? (%s)\n", s.Label, s.ID)
				}
				return nil
			}
			writeGroups(cmd.OutOrStdout(), groups)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	return cmd
}

func writeGroups(w io.Writer, groups []ranking.Group) {
	for i, g := range groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, g.Name)
		for _, m := range g.Matches {
			line := fmt.Sprintf("  %-20s %-12s %-9s %6.1f", m.Command.Label, m.Command.Section, m.Type, m.Score)
			if m.Command.Shortcut != "" {
				line += "  " + m.Command.Shortcut
			}
			switch {
			case m.IsRecent:
				line += "  [recent]"
			case m.IsFrequent:
				line += "  [frequent]"
			}
			fmt.Fprintln(w, strings.TrimRight(line, " "))
		}
	}
}

func writeJSON(w io.Writer, groups []ranking.Group) error {
	out := make([]searchResult, 0)
	for _, g := range groups {
		for _, m := range g.Matches {
			out = append(out, searchResult{
				Group:      g.Name,
				ID:         m.Command.ID,
				Label:      m.Command.Label,
				Section:    m.Command.Section,
				Type:       string(m.Type),
				Field:      string(m.Field),
				Score:      m.Score,
				Highlights: m.Highlights,
				Recent:     m.IsRecent,
				Frequent:   m.IsFrequent,
			})
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
