// Package dataset ties the build pipeline together: one dataset directory
// holding the partition archives, their merged entity stream, and the
// merged global stream for one dump version.
package dataset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/kgevolve/wikidated/convert"
	"github.com/kgevolve/wikidated/datamodel"
	"github.com/kgevolve/wikidated/diff"
	"github.com/kgevolve/wikidated/dump"
	"github.com/kgevolve/wikidated/metrics"
	"github.com/kgevolve/wikidated/pool"
	"github.com/kgevolve/wikidated/stream"
)

// Dataset addresses the stream archives of one dump version below the
// data directory, e.g. `<dataDir>/wikidated-20210401/`.
type Dataset struct {
	dir     string
	name    string
	version time.Time
	logger  *slog.Logger

	entityReader *stream.Reader
	globalReader *stream.Reader
}

// New addresses the dataset for a dump version. Nothing is opened or
// created until the dataset is built or read.
func New(dataDir string, version time.Time, logger *slog.Logger) *Dataset {
	if logger == nil {
		logger = slog.Default()
	}
	name := "wikidated-" + version.Format("20060102")
	return &Dataset{
		dir:     filepath.Join(dataDir, name),
		name:    name,
		version: version,
		logger:  logger,
	}
}

// Name returns the dataset identifier, e.g. "wikidated-20210401".
func (d *Dataset) Name() string { return d.name }

// Dir returns the dataset directory.
func (d *Dataset) Dir() string { return d.dir }

// Version returns the dump version the dataset is derived from.
func (d *Dataset) Version() time.Time { return d.version }

// Progress observes partition build progress: how many pages of the
// partition's page range have been fully processed. pagesTotal is the
// range capacity, an upper bound on the pages the dump actually holds.
// Partitions reused from an earlier run report a single completed call.
// Called concurrently from the build workers.
type Progress func(partition string, pagesDone, pagesTotal int64)

// BuildOptions configures one build run.
type BuildOptions struct {
	// Dumps are the partition inputs. Page ranges must be disjoint and
	// every dump must carry the dataset's version.
	Dumps []*dump.PagesMetaHistory
	// Converter constructs one converter per worker. Defaults to the
	// Wikibase converter.
	Converter convert.Factory
	// Workers bounds build parallelism; pool.DefaultWorkers when zero.
	Workers int
	// ContinueOnError finishes the remaining partitions after a failure.
	ContinueOnError bool
	// GlobalStream also builds the sorted partials and the merged
	// global stream.
	GlobalStream bool
	// Progress observes page-level progress within each partition.
	Progress Progress
}

// partitionItem is one pool work item: build a single partition archive.
type partitionItem struct {
	file   *dump.PagesMetaHistory
	target *stream.File
}

func (i partitionItem) Name() string { return i.file.PageIDs.String() }

// Build produces the dataset's archives: partition entity streams in
// parallel, then the merged entity stream, then (optionally) the sorted
// partials and the merged global stream. Committed archives from earlier
// runs are reused, so an interrupted build resumes where it stopped.
func (d *Dataset) Build(ctx context.Context, opts BuildOptions) error {
	if len(opts.Dumps) == 0 {
		return fmt.Errorf("build dataset %s: no dump files", d.name)
	}
	for _, f := range opts.Dumps {
		if !f.Version.Equal(d.version) {
			return fmt.Errorf("dump %q has version %s, dataset wants %s",
				f.Path, f.Version.Format("20060102"), d.version.Format("20060102"))
		}
	}
	factory := opts.Converter
	if factory == nil {
		factory = func() (convert.Converter, error) { return convert.NewWikibase(), nil }
	}

	logger := d.logger.With(slog.String("build_session", uuid.NewString()))
	logger.Info("building dataset",
		slog.String("dataset", d.name),
		slog.Int("partitions", len(opts.Dumps)))

	tally := convert.NewTally()
	items := make([]partitionItem, 0, len(opts.Dumps))
	for _, f := range opts.Dumps {
		items = append(items, partitionItem{
			file:   f,
			target: stream.PartialEntityFile(d.dir, d.name, f.PageIDs),
		})
	}

	err := pool.Run(ctx, items,
		pool.Options{
			Workers:         opts.Workers,
			ContinueOnError: opts.ContinueOnError,
			Progress: func(name string, done, total int) {
				logger.Info("partition finished",
					slog.String("partition", name),
					slog.Int("done", done),
					slog.Int("total", total))
			},
		},
		factory,
		func(ctx context.Context, converter convert.Converter, item partitionItem) error {
			return d.buildPartition(ctx, converter, tally, item, opts.Progress, logger)
		},
		func(converter convert.Converter) error { return converter.Close() },
	)
	if err != nil {
		return fmt.Errorf("build partitions: %w", err)
	}
	reportTally(tally, logger)

	partials := make([]*stream.File, len(items))
	for i, item := range items {
		partials[i] = item.target
	}
	skipped, err := stream.MergeEntity(stream.MergedEntityFile(d.dir, d.name), partials)
	if err != nil {
		return fmt.Errorf("merge entity streams: %w", err)
	}
	logger.Info("merged entity streams", slog.Bool("skipped", skipped))

	if !opts.GlobalStream {
		return nil
	}
	sorted := make([]*stream.File, len(items))
	for i, item := range items {
		sorted[i] = stream.SortedPartialFile(d.dir, d.name, item.file.PageIDs)
		if _, err := stream.BuildSortedPartial(sorted[i], partials[i]); err != nil {
			return fmt.Errorf("sort partition %s: %w", item.Name(), err)
		}
	}
	skipped, err = stream.MergeGlobal(stream.GlobalFile(d.dir, d.name), sorted)
	if err != nil {
		return fmt.Errorf("merge global stream: %w", err)
	}
	logger.Info("merged global stream", slog.Bool("skipped", skipped))
	return nil
}

func (d *Dataset) buildPartition(ctx context.Context, converter convert.Converter,
	tally *convert.Tally, item partitionItem, progress Progress, logger *slog.Logger) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	total := item.file.PageIDs.Len()
	report := func(done int64) {
		if progress != nil {
			progress(item.Name(), done, total)
		}
	}

	source, err := item.file.Revisions()
	if err != nil {
		return err
	}
	defer source.Close()

	differ := diff.NewDiffer(converter, tally, logger)
	skipped, err := stream.BuildPartial(item.target, &pageProgressSource{source: source, report: report}, differ,
		func(*datamodel.DiffRevision) { metrics.Revisions.Inc() })
	if err != nil {
		return err
	}
	if skipped {
		metrics.PartitionsSkipped.Inc()
		report(total)
		logger.Info("partition already built", slog.String("partition", item.Name()))
	} else {
		metrics.PartitionsBuilt.Inc()
	}
	return nil
}

// pageProgressSource reports completed pages as the partition source is
// consumed. A page counts as done once the next page begins or the
// source ends, so the revisions of the reported pages have all been
// handed to the differ.
type pageProgressSource struct {
	source  stream.Source
	report  func(done int64)
	current int64
	done    int64
}

func (s *pageProgressSource) Next() (*datamodel.RawRevision, error) {
	revision, err := s.source.Next()
	if err == io.EOF {
		if s.current != 0 {
			s.done++
			s.report(s.done)
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	if revision.Entity.PageID != s.current {
		if s.current != 0 {
			s.done++
			s.report(s.done)
		}
		s.current = revision.Entity.PageID
	}
	return revision, nil
}

func reportTally(tally *convert.Tally, logger *slog.Logger) {
	for _, rc := range tally.Counts() {
		metrics.ConversionFailures.WithLabelValues(rc.Reason).Add(float64(rc.Count))
		logger.Info("revisions skipped during conversion",
			slog.String("reason", rc.Reason),
			slog.Int("count", rc.Count))
	}
}

// EntityStreams opens the merged entity stream archive. The reader is
// cached and closed with the dataset.
func (d *Dataset) EntityStreams() (*stream.Reader, error) {
	if d.entityReader == nil {
		r, err := stream.OpenReader(stream.MergedEntityFile(d.dir, d.name))
		if err != nil {
			return nil, err
		}
		d.entityReader = r
	}
	return d.entityReader, nil
}

// GlobalStream opens the merged global stream archive. The reader is
// cached and closed with the dataset.
func (d *Dataset) GlobalStream() (*stream.Reader, error) {
	if d.globalReader == nil {
		r, err := stream.OpenReader(stream.GlobalFile(d.dir, d.name))
		if err != nil {
			return nil, err
		}
		d.globalReader = r
	}
	return d.globalReader, nil
}

// PageIDs lists the entities of the merged entity stream.
func (d *Dataset) PageIDs() ([]int64, error) {
	r, err := d.EntityStreams()
	if err != nil {
		return nil, err
	}
	return r.PageIDs()
}

// Revisions scans one entity's diff stream from the merged entity
// archive.
func (d *Dataset) Revisions(pageID int64) (*stream.Scanner, error) {
	r, err := d.EntityStreams()
	if err != nil {
		return nil, err
	}
	return r.Revisions(pageID)
}

// GlobalRevisions scans the whole dataset chronologically.
func (d *Dataset) GlobalRevisions() (*stream.Scanner, error) {
	r, err := d.GlobalStream()
	if err != nil {
		return nil, err
	}
	return r.All(), nil
}

// GlobalStreamFile addresses the merged global stream archive without
// opening it.
func (d *Dataset) GlobalStreamFile() *stream.File {
	return stream.GlobalFile(d.dir, d.name)
}

// Close releases any open readers.
func (d *Dataset) Close() error {
	var firstErr error
	for _, r := range []*stream.Reader{d.entityReader, d.globalReader} {
		if r != nil {
			if err := r.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	d.entityReader, d.globalReader = nil, nil
	return firstErr
}
