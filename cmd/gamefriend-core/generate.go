package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/gamefriend-core/internal/core/domain"
)

func NewGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Build embedding indexes from downloaded guides",
		Long:  `Without --game every game in the guide library is regenerated. --platform restricts the run to one platform directory.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			game, _ := cmd.Flags().GetString("game")
			platform, _ := cmd.Flags().GetString("platform")
			out := cmd.OutOrStdout()

			if game != "" && platform == "" {
				summary, err := a.indexer.Generate(cmd.Context(), game)
				if err != nil {
					return fmt.Errorf("generate %s: %w", game, err)
				}
				printSummary(out, summary)
				return nil
			}

			games, err := a.guideStore.ListGames(cmd.Context())
			if err != nil {
				return err
			}
			games = filterGames(games, game, platform)
			if len(games) == 0 {
				return fmt.Errorf("no games match game=%q platform=%q: %w", game, platform, domain.ErrNotFound)
			}

			report, err := a.indexer.GenerateGames(cmd.Context(), games)
			if report != nil {
				printReport(out, report)
			}
			if err != nil {
				return err
			}
			if len(report.Failed) > 0 {
				return fmt.Errorf("%d of %d games failed", len(report.Failed), len(games))
			}
			return nil
		},
	}

	cmd.Flags().String("game", "", "Game to regenerate (partial names match)")
	cmd.Flags().String("platform", "", "Only games under this platform")
	return cmd
}

// filterGames keeps games on platform whose id matches game; empty filters match all
func filterGames(games []domain.Game, game, platform string) []domain.Game {
	id := domain.NormalizeGameID(game)
	var out []domain.Game
	for _, g := range games {
		if platform != "" && !strings.EqualFold(g.Platform, platform) {
			continue
		}
		if id != "" && !domain.GameMatches(g.ID, id) {
			continue
		}
		out = append(out, g)
	}
	return out
}

func printSummary(w io.Writer, s *domain.IndexSummary) {
	fmt.Fprintf(w, "Generated %s: %d chunks from %d guides (%s, dim %d)\n",
		s.GameID, s.Chunks, s.Guides, s.Model, s.Dimension)
}

func printReport(w io.Writer, r *domain.GenerationReport) {
	fmt.Fprintf(w, "Processed: %d  Failed: %d\n", len(r.Processed), len(r.Failed))
	failed := make([]string, 0, len(r.Failed))
	for id := range r.Failed {
		failed = append(failed, id)
	}
	sort.Strings(failed)
	for _, id := range failed {
		fmt.Fprintf(w, "  %s: %s\n", id, r.Failed[id])
	}
}
