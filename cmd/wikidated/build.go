package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kgevolve/wikidated/dataset"
	"github.com/kgevolve/wikidated/metrics"
	"github.com/kgevolve/wikidated/stream"
)

func buildCmd() *cobra.Command {
	var (
		workers         int
		continueOnError bool
		globalStream    bool
		metricsAddr     string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the dataset's stream archives from the dump files",
		Long: `Build discovers the pages-meta-history dump files, builds one entity
stream archive per partition in parallel, merges them, and optionally
produces the globally chronological stream.

Committed archives from earlier runs are reused, so an interrupted
build resumes where it stopped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("workers") {
				cfg.Build.Workers = workers
			}
			if cmd.Flags().Changed("continue-on-error") {
				cfg.Build.ContinueOnError = continueOnError
			}
			if cmd.Flags().Changed("global-stream") {
				cfg.Build.GlobalStream = globalStream
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.Metrics.Addr = metricsAddr
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if cfg.Metrics.Addr != "" {
				go func() {
					if err := metrics.Serve(ctx, cfg.Metrics.Addr, slog.Default()); err != nil {
						slog.Error("metrics listener failed", slog.String("error", err.Error()))
					}
				}()
			}

			dumps, version, err := discoverDumps(cfg)
			if err != nil {
				return err
			}

			ds := dataset.New(cfg.Data.Dir, version, slog.Default())
			defer ds.Close()

			err = ds.Build(ctx, dataset.BuildOptions{
				Dumps:           dumps,
				Workers:         cfg.Build.Workers,
				ContinueOnError: cfg.Build.ContinueOnError,
				GlobalStream:    cfg.Build.GlobalStream,
				Progress: func(partition string, pagesDone, pagesTotal int64) {
					slog.Info("build progress",
						slog.String("partition", partition),
						slog.Int64("pages_done", pagesDone),
						slog.Int64("pages_total", pagesTotal))
				},
			})
			if err != nil {
				return err
			}

			slog.Info("dataset built", slog.String("dataset", ds.Name()), slog.String("dir", ds.Dir()))
			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "Parallel partition builders (default from config)")
	cmd.Flags().BoolVar(&continueOnError, "continue-on-error", false, "Finish remaining partitions after a failure")
	cmd.Flags().BoolVar(&globalStream, "global-stream", true, "Also build the merged global stream")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Expose Prometheus metrics on this address during the build")

	return cmd
}

func mergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge already-built partition archives",
		Long: `Merge combines committed partition archives into the merged entity
stream and the global stream without rebuilding any partition. Useful
after building partitions on separate machines.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			dumps, version, err := discoverDumps(cfg)
			if err != nil {
				return err
			}

			ds := dataset.New(cfg.Data.Dir, version, slog.Default())

			partials := make([]*stream.File, len(dumps))
			sorted := make([]*stream.File, len(dumps))
			for i, f := range dumps {
				partials[i] = stream.PartialEntityFile(ds.Dir(), ds.Name(), f.PageIDs)
				sorted[i] = stream.SortedPartialFile(ds.Dir(), ds.Name(), f.PageIDs)
			}

			skipped, err := stream.MergeEntity(stream.MergedEntityFile(ds.Dir(), ds.Name()), partials)
			if err != nil {
				return fmt.Errorf("merge entity streams: %w", err)
			}
			slog.Info("merged entity streams", slog.Bool("skipped", skipped))

			if !cfg.Build.GlobalStream {
				return nil
			}
			for i := range dumps {
				if _, err := stream.BuildSortedPartial(sorted[i], partials[i]); err != nil {
					return fmt.Errorf("sort partition %s: %w", dumps[i].PageIDs, err)
				}
			}
			skipped, err = stream.MergeGlobal(stream.GlobalFile(ds.Dir(), ds.Name()), sorted)
			if err != nil {
				return fmt.Errorf("merge global stream: %w", err)
			}
			slog.Info("merged global stream", slog.Bool("skipped", skipped))
			return nil
		},
	}
	return cmd
}
