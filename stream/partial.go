package stream

import (
	"fmt"
	"io"

	"github.com/kgevolve/wikidated/archive"
	"github.com/kgevolve/wikidated/datamodel"
	"github.com/kgevolve/wikidated/diff"
)

// Source yields raw revisions grouped by entity in page order, revision
// order within each entity, terminated with io.EOF. dump.RevisionReader
// satisfies it.
type Source interface {
	Next() (*datamodel.RawRevision, error)
}

// EmitFunc observes each diff revision as it is written, for progress
// reporting and metrics.
type EmitFunc func(*datamodel.DiffRevision)

// BuildPartial builds a per-partition entity stream archive from the
// partition's revision source. A committed archive at the target path is
// reused as-is and reported as skipped, which makes interrupted builds
// resumable. Entities whose revisions all fail conversion contribute no
// member at all.
func BuildPartial(f *File, source Source, differ *diff.Differ, emit EmitFunc) (skipped bool, err error) {
	if f.Kind != KindPartial || f.Axis != AxisEntity {
		return false, fmt.Errorf("build partial: %q is not a partial entity stream", f.Path)
	}
	if archive.Exists(f.Path) {
		return true, nil
	}

	w, err := archive.NewWriter(f.Path)
	if err != nil {
		return false, err
	}
	defer w.Abort()

	var (
		currentPageID int64 = -1
		member        io.Writer
	)
	for {
		revision, err := source.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return false, err
		}
		if f.PageIDs != nil && !f.PageIDs.Contains(revision.Entity.PageID) {
			return false, fmt.Errorf("revision %d of page %d is outside partition %s",
				revision.Revision.RevisionID, revision.Entity.PageID, f.PageIDs)
		}

		if revision.Entity.PageID != currentPageID {
			currentPageID = revision.Entity.PageID
			member = nil
			differ.Reset()
		}

		diffRevision, ok, err := differ.Next(revision)
		if err != nil {
			return false, err
		}
		if !ok {
			continue
		}

		// The member is opened lazily so entities without a single
		// successful conversion leave no trace in the archive.
		if member == nil {
			member, err = w.Member(entityMember(currentPageID))
			if err != nil {
				return false, err
			}
		}
		line, err := diffRevision.MarshalLine()
		if err != nil {
			return false, err
		}
		if _, err := member.Write(line); err != nil {
			return false, fmt.Errorf("write entity stream member: %w", err)
		}
		if emit != nil {
			emit(diffRevision)
		}
	}

	if err := w.Commit(); err != nil {
		return false, err
	}
	return false, nil
}
