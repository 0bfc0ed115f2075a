package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/kgevolve/wikidated/config"
	"github.com/kgevolve/wikidated/dataset"
	"github.com/kgevolve/wikidated/dump"
)

// settleDelay lets a mirrored dump file finish writing before a build is
// triggered by its appearance.
const settleDelay = 5 * time.Second

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the dumps directory and build new partitions as they appear",
		Long: `Watch observes the dumps directory. Whenever a new pages-meta-history
file finishes mirroring, the dataset build runs again; partitions that
are already committed are skipped, so only the new partitions are
built.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("create watcher: %w", err)
			}
			defer watcher.Close()

			if err := watcher.Add(cfg.Dumps.Dir); err != nil {
				return fmt.Errorf("watch %s: %w", cfg.Dumps.Dir, err)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			slog.Info("watching dumps directory", slog.String("dir", cfg.Dumps.Dir))

			// Catch up on anything mirrored before the watch started.
			runBuild(ctx, cfg)

			var settle *time.Timer
			settled := make(chan struct{}, 1)
			for {
				select {
				case <-ctx.Done():
					return nil

				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
						continue
					}
					if _, err := dump.ParsePagesMetaHistory(event.Name); err != nil {
						continue
					}
					slog.Info("new dump file", slog.String("path", event.Name))
					if settle != nil {
						settle.Stop()
					}
					settle = time.AfterFunc(settleDelay, func() {
						select {
						case settled <- struct{}{}:
						default:
						}
					})

				case <-settled:
					runBuild(ctx, cfg)

				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					slog.Warn("watcher error", slog.String("error", err.Error()))
				}
			}
		},
	}
	return cmd
}

func runBuild(ctx context.Context, cfg *config.Config) {
	dumps, version, err := discoverDumps(cfg)
	if err != nil {
		slog.Warn("skipping build", slog.String("reason", err.Error()))
		return
	}

	ds := dataset.New(cfg.Data.Dir, version, slog.Default())
	defer ds.Close()

	err = ds.Build(ctx, dataset.BuildOptions{
		Dumps:           dumps,
		Workers:         cfg.Build.Workers,
		ContinueOnError: cfg.Build.ContinueOnError,
		GlobalStream:    cfg.Build.GlobalStream,
	})
	if err != nil {
		slog.Error("build failed", slog.String("error", err.Error()))
		return
	}
	slog.Info("dataset up to date", slog.String("dataset", ds.Name()))
}
