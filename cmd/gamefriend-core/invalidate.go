package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewInvalidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invalidate <game>",
		Short: "Tell running instances to reload a game's index",
		Long:  `Drops the cached index in this process and, when Redis is configured, broadcasts the invalidation to every serving instance.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.retrieval.Invalidate(cmd.Context(), args[0]); err != nil {
				return err
			}
			if a.invalidator == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Redis not configured; only this process was invalidated.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Invalidated %s\n", args[0])
			return nil
		},
	}
}
