package stream

import (
	"fmt"
	"io"
	"sort"

	"github.com/kgevolve/wikidated/archive"
	"github.com/kgevolve/wikidated/datamodel"
)

// chronological orders revisions by timestamp, revision id breaking ties.
func chronological(a, b *datamodel.DiffRevision) bool {
	if !a.Revision.Timestamp.Equal(b.Revision.Timestamp) {
		return a.Revision.Timestamp.Before(b.Revision.Timestamp)
	}
	return a.Revision.RevisionID < b.Revision.RevisionID
}

// BuildSortedPartial re-orders one partition's entity stream
// chronologically, producing the partition's input to the global merge.
// Memory is bounded by the partition, never the dataset. A committed
// archive at the target path is reused and reported as skipped.
func BuildSortedPartial(sorted, partial *File) (skipped bool, err error) {
	if sorted.Kind != KindPartial || sorted.Axis != AxisGlobal {
		return false, fmt.Errorf("build sorted partial: %q is not a sorted partition stream", sorted.Path)
	}
	if archive.Exists(sorted.Path) {
		return true, nil
	}

	r, err := OpenReader(partial)
	if err != nil {
		return false, err
	}
	defer r.Close()

	var revisions []*datamodel.DiffRevision
	scanner := r.All()
	defer scanner.Close()
	for {
		revision, _, err := scanner.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return false, err
		}
		revisions = append(revisions, revision)
	}

	sort.SliceStable(revisions, func(i, j int) bool {
		return chronological(revisions[i], revisions[j])
	})

	w, err := archive.NewWriter(sorted.Path)
	if err != nil {
		return false, err
	}
	defer w.Abort()

	member, err := w.Member(sortedMember)
	if err != nil {
		return false, err
	}
	for _, revision := range revisions {
		line, err := revision.MarshalLine()
		if err != nil {
			return false, err
		}
		if _, err := member.Write(line); err != nil {
			return false, fmt.Errorf("write sorted stream member: %w", err)
		}
	}

	if err := w.Commit(); err != nil {
		return false, err
	}
	return false, nil
}
