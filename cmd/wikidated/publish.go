package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kgevolve/wikidated/publish"
)

func publishCmd() *cobra.Command {
	var (
		url           string
		subjectPrefix string
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Replay the global stream to NATS",
		Long: `Publish replays the merged global stream in chronological order, one
JSON diff revision per message, so downstream consumers can follow the
dataset's history. Requires a built global stream and a configured NATS
URL.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("url") {
				cfg.NATS.URL = url
			}
			if cmd.Flags().Changed("subject-prefix") {
				cfg.NATS.SubjectPrefix = subjectPrefix
			}

			ds, err := openDataset()
			if err != nil {
				return err
			}
			defer ds.Close()

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			published, err := publish.Replay(ctx, ds.GlobalStreamFile(), publish.Options{
				URL:           cfg.NATS.URL,
				SubjectPrefix: cfg.NATS.SubjectPrefix,
			}, slog.Default())
			if err != nil {
				return err
			}
			slog.Info("publish finished", slog.Int("messages", published))
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "NATS server URL (overrides config)")
	cmd.Flags().StringVar(&subjectPrefix, "subject-prefix", "", "Subject root for published revisions (overrides config)")

	return cmd
}
