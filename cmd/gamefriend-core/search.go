package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/gamefriend-core/internal/core/domain"
)

func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <game> <query>",
		Short: "Find the guide passages closest to a question",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.retrieval.Search(cmd.Context(), args[0], strings.Join(args[1:], " "), searchOptions(cmd, a))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			if len(result.Results) == 0 {
				fmt.Fprintln(out, "No results.")
				return nil
			}
			for _, r := range result.Results {
				fmt.Fprintf(out, "%d. %s (score %.3f)\n%s\n\n", r.Rank, filepath.Base(r.Chunk.Source), r.Score, r.Chunk.Text)
			}
			return nil
		},
	}

	addSearchFlags(cmd)
	cmd.Flags().Bool("json", false, "Output in JSON format")
	return cmd
}

func NewContextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "context <game> <query>",
		Short: "Print search results formatted as prompt context",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			text, err := a.retrieval.GetContext(cmd.Context(), args[0], strings.Join(args[1:], " "), searchOptions(cmd, a))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), text)
			return nil
		},
	}

	addSearchFlags(cmd)
	return cmd
}

func addSearchFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("top-k", "k", 0, "Number of passages (default from config)")
	cmd.Flags().Int("max-tokens", 0, "Context token budget (default from config)")
}

// searchOptions starts from the configured defaults and applies flags
func searchOptions(cmd *cobra.Command, a *app) domain.SearchOptions {
	opts := a.cfg.SearchOptions()
	if k, _ := cmd.Flags().GetInt("top-k"); k > 0 {
		opts.TopK = k
	}
	if n, _ := cmd.Flags().GetInt("max-tokens"); n > 0 {
		opts.MaxTokens = n
	}
	return opts.Normalize()
}
