package main

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/gamefriend-core/internal/tui"
)

func NewBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse <game>",
		Short: "Search a game's guides interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			return tui.Run(a.retrieval, args[0], a.cfg.SearchOptions())
		},
	}
}
