package main

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/kgevolve/wikidated/dataset"
)

func inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect a built dataset",
	}
	cmd.AddCommand(inspectEntitiesCmd())
	cmd.AddCommand(inspectRevisionsCmd())
	return cmd
}

// openDataset resolves the dataset to inspect from the config, without
// requiring dump files when the version is pinned.
func openDataset() (*dataset.Dataset, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Data.Version != "" {
		version, err := time.Parse("20060102", cfg.Data.Version)
		if err != nil {
			return nil, fmt.Errorf("parse data.version: %w", err)
		}
		return dataset.New(cfg.Data.Dir, version, slog.Default()), nil
	}
	_, version, err := discoverDumps(cfg)
	if err != nil {
		return nil, err
	}
	return dataset.New(cfg.Data.Dir, version, slog.Default()), nil
}

func inspectEntitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "entities",
		Short: "List the page ids present in the merged entity stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := openDataset()
			if err != nil {
				return err
			}
			defer ds.Close()

			pageIDs, err := ds.PageIDs()
			if err != nil {
				return err
			}
			for _, pageID := range pageIDs {
				fmt.Fprintln(cmd.OutOrStdout(), pageID)
			}
			return nil
		},
	}
}

func inspectRevisionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revisions <page-id>",
		Short: "Print one entity's diff stream as JSON lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pageID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("parse page id %q: %w", args[0], err)
			}

			ds, err := openDataset()
			if err != nil {
				return err
			}
			defer ds.Close()

			scanner, err := ds.Revisions(pageID)
			if err != nil {
				return err
			}
			defer scanner.Close()

			out := cmd.OutOrStdout()
			for {
				_, line, err := scanner.Next()
				if err == io.EOF {
					return nil
				}
				if err != nil {
					return err
				}
				if _, err := out.Write(line); err != nil {
					return err
				}
			}
		},
	}
}
