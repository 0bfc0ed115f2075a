// Package main provides the wikidated binary entry point.
// Wikidated derives per-entity semantic diff streams from the full
// revision history of a Wikibase knowledge base.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kgevolve/wikidated/config"
	"github.com/kgevolve/wikidated/dump"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "wikidated"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Semantic diff streams over a knowledge-base revision history",
		Long: `Wikidated turns the pages-meta-history dumps of a Wikibase knowledge
base into diff streams: for every entity, the sequence of semantic
triples each revision added and deleted.

It builds per-partition entity stream archives in parallel, merges them
into one entity-addressable archive, and optionally produces a single
globally chronological stream across the whole dataset.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(logLevel)
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(buildCmd())
	cmd.AddCommand(mergeCmd())
	cmd.AddCommand(inspectCmd())
	cmd.AddCommand(publishCmd())
	cmd.AddCommand(watchCmd())

	// Version command
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

func configureLogging(logLevel string) {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.NewLoader(slog.Default()).Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// discoverDumps finds the dump files and resolves the dataset version:
// the pinned config version when set, the single version present in the
// dumps directory otherwise.
func discoverDumps(cfg *config.Config) ([]*dump.PagesMetaHistory, time.Time, error) {
	files, err := dump.Discover(cfg.Dumps.Dir, cfg.Dumps.Glob)
	if err != nil {
		return nil, time.Time{}, err
	}
	if len(files) == 0 {
		return nil, time.Time{}, fmt.Errorf("no dump files found in %s", cfg.Dumps.Dir)
	}

	if cfg.Data.Version != "" {
		version, err := time.Parse("20060102", cfg.Data.Version)
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("parse data.version: %w", err)
		}
		pinned := files[:0]
		for _, f := range files {
			if f.Version.Equal(version) {
				pinned = append(pinned, f)
			}
		}
		if len(pinned) == 0 {
			return nil, time.Time{}, fmt.Errorf("no dump files for version %s in %s", cfg.Data.Version, cfg.Dumps.Dir)
		}
		return pinned, version, nil
	}

	version := files[0].Version
	for _, f := range files {
		if !f.Version.Equal(version) {
			return nil, time.Time{}, fmt.Errorf("dumps directory mixes versions %s and %s, pin one with data.version",
				version.Format("20060102"), f.Version.Format("20060102"))
		}
	}
	return files, version, nil
}
