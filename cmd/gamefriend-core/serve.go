package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	httpadapter "github.com/custodia-labs/gamefriend-core/internal/adapters/driving/http"
	"github.com/custodia-labs/gamefriend-core/internal/config"
	"github.com/custodia-labs/gamefriend-core/internal/core/services"
	"github.com/custodia-labs/gamefriend-core/internal/watcher"
)

func NewServeCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if port, _ := cmd.Flags().GetInt("port"); port > 0 {
				a.cfg.Server.Port = port
			}
			watch, _ := cmd.Flags().GetBool("watch")
			reload := func() (*config.Config, error) { return loadConfig(cmd) }
			return runServe(cmd.Context(), a, version, watch, reload)
		},
	}

	cmd.Flags().Int("port", 0, "Listen port (overrides config)")
	cmd.Flags().Bool("watch", false, "Regenerate a game's index when its guide files change")
	return cmd
}

func runServe(ctx context.Context, a *app, version string, watch bool, reload func() (*config.Config, error)) error {
	if svc := a.runtime.EmbeddingService(); svc != nil {
		if err := svc.HealthCheck(ctx); err != nil {
			a.logger.Warn("embedding service health check failed; queries will fail until it is reachable",
				"provider", a.cfg.Embedding.Provider, "error", err)
		}
	}

	server := httpadapter.NewServer(httpadapter.Config{
		Host:           a.cfg.Server.Host,
		Port:           a.cfg.Server.Port,
		Version:        version,
		AllowedOrigins: a.cfg.Server.AllowedOrigins,
		Logger:         a.logger,
	}, httpadapter.Services{
		Retrieval: a.retrieval,
		Indexer:   a.indexer,
		Guides:    a.guides,
	}, a.pingers)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	// the first component to fail stops the others
	run := func(fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errOnce.Do(func() { firstErr = err })
			}
			cancel()
		}()
	}

	run(server.Start)
	run(func(ctx context.Context) error {
		return reloadOnHangup(ctx, a, reload)
	})
	if a.invalidator != nil {
		run(func(ctx context.Context) error {
			return services.ListenForInvalidations(ctx, a.invalidator, a.store, a.logger)
		})
	}
	if watch {
		w := watcher.New(watcher.Config{
			Root:     a.cfg.GuidesDir,
			Indexer:  a.indexer,
			Debounce: a.cfg.WatchDebounce,
			Ignore:   a.writes,
			Logger:   a.logger,
		})
		run(w.Run)
	}

	wg.Wait()
	return firstErr
}

// reloadOnHangup re-reads the config on SIGHUP and swaps the embedding
// service. A failed reload is logged and the server keeps its current one.
func reloadOnHangup(ctx context.Context, a *app, load func() (*config.Config, error)) error {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hup:
			cfg, err := load()
			if err != nil {
				a.logger.Error("reload failed", "error", err)
				continue
			}
			if err := a.reload(ctx, &cfg.Embedding); err != nil {
				a.logger.Error("reload failed", "error", err)
			}
		}
	}
}
