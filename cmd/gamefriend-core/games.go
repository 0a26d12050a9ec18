package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func NewGamesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "games",
		Short: "List games in the guide library and whether they are indexed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			games, err := a.guides.ListGames(cmd.Context())
			if err != nil {
				return err
			}
			if len(games) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No guides under %s\n", a.cfg.GuidesDir)
				return nil
			}

			ids, err := a.store.List(cmd.Context())
			if err != nil {
				return err
			}
			indexed := make(map[string]bool, len(ids))
			for _, id := range ids {
				indexed[id] = true
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "GAME\tPLATFORM\tINDEXED")
			for _, g := range games {
				fmt.Fprintf(tw, "%s\t%s\t%t\n", g.ID, g.Platform, indexed[g.ID])
			}
			return tw.Flush()
		},
	}
}
