package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/gamefriend-core/internal/config"
)

// NewRootCmd builds the command tree
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gamefriend-core",
		Short:         "Download game guides and answer questions from them",
		Long:          `Scrapes walkthroughs into a local guide library, embeds them per game and serves similarity search over the result.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	addPersistentFlags(rootCmd)
	rootCmd.AddCommand(
		NewServeCmd(version),
		NewGenerateCmd(),
		NewDownloadCmd(),
		NewSearchCmd(),
		NewContextCmd(),
		NewGamesCmd(),
		NewInvalidateCmd(),
		NewDeleteCmd(),
		NewBrowseCmd(),
	)
	return rootCmd
}

func addPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("config", "", "Config file (default "+config.DefaultPath+" when present)")
	cmd.PersistentFlags().String("guides-dir", "", "Guide library root")
	cmd.PersistentFlags().String("embeddings-dir", "", "Embedding record directory")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Debug logging")
}

// loadConfig reads the config file and applies persistent flag overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if dir, _ := cmd.Flags().GetString("guides-dir"); dir != "" {
		cfg.GuidesDir = dir
	}
	if dir, _ := cmd.Flags().GetString("embeddings-dir"); dir != "" {
		cfg.EmbeddingsDir = dir
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// loadApp loads config, installs the logger and wires the pipeline
func loadApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)
	return newApp(cmd.Context(), cfg, logger)
}
