// Package diff computes per-entity triple-level diffs across an ordered
// revision history.
package diff

import (
	"errors"
	"log/slog"

	"github.com/kgevolve/wikidated/convert"
	"github.com/kgevolve/wikidated/datamodel"
	"github.com/kgevolve/wikidated/rdf"
)

// Engine carries the active triple set of one entity and turns each
// resolved revision into the sorted additions and deletions relative to
// the previous one. Diff computation is strictly sequential: the engine
// holds mutable running state and must not be shared.
type Engine struct {
	state *rdf.Set
}

// NewEngine returns an engine with an empty active state, so the first
// revision's triples all appear as additions.
func NewEngine() *Engine {
	return &Engine{state: rdf.NewSet(nil)}
}

// Step diffs one resolved revision against the active state, replaces the
// state, and returns the resulting diff revision. Output order follows
// input order exactly.
func (e *Engine) Step(revision *datamodel.RdfRevision) *datamodel.DiffRevision {
	next := rdf.NewSet(revision.Triples)
	additions, deletions := e.state.Diff(next)
	e.state = next

	return &datamodel.DiffRevision{
		RevisionBase:    revision.RevisionBase,
		TripleDeletions: deletions,
		TripleAdditions: additions,
	}
}

// Reset clears the active state for the next entity.
func (e *Engine) Reset() {
	e.state = rdf.NewSet(nil)
}

// Differ combines the conversion boundary with the engine and applies the
// skip-on-failure policy: a revision that fails conversion is tallied and
// skipped, leaving the active state untouched, so its statements fold into
// the next successful revision's diff.
type Differ struct {
	converter convert.Converter
	tally     *convert.Tally
	logger    *slog.Logger
	engine    *Engine
}

// NewDiffer builds a differ over one converter instance. The tally may be
// shared across differs; the converter must not be.
func NewDiffer(converter convert.Converter, tally *convert.Tally, logger *slog.Logger) *Differ {
	if logger == nil {
		logger = slog.Default()
	}
	return &Differ{
		converter: converter,
		tally:     tally,
		logger:    logger,
		engine:    NewEngine(),
	}
}

// Next processes one raw revision. It returns (diff, true, nil) on
// success, (nil, false, nil) when the revision was skipped because of a
// conversion error, and a non-nil error only for failures that must abort
// the build.
func (d *Differ) Next(revision *datamodel.RawRevision) (*datamodel.DiffRevision, bool, error) {
	resolved, err := d.converter.Convert(revision)
	if err != nil {
		var convErr *convert.Error
		if errors.As(err, &convErr) {
			if d.tally != nil {
				d.tally.Add(convErr.Reason)
			}
			d.logger.Debug("skipping revision, conversion failed",
				slog.String("entity", convErr.EntityID),
				slog.Int64("revision_id", convErr.RevisionID),
				slog.String("reason", convErr.Reason))
			return nil, false, nil
		}
		return nil, false, err
	}
	return d.engine.Step(resolved), true, nil
}

// Reset prepares the differ for the next entity.
func (d *Differ) Reset() {
	d.engine.Reset()
}
