package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download <url>",
		Short: "Download every page of a guide and re-embed its game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.guides.Download(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("download: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Saved %d pages to %s\n", result.Pages, result.Path)
			if result.Index != nil {
				printSummary(out, result.Index)
			}
			if result.IndexError != "" {
				fmt.Fprintf(out, "Index not rebuilt: %s\n", result.IndexError)
			}
			return nil
		},
	}
}
