package stream

import (
	"container/heap"
	"fmt"
	"io"

	"github.com/kgevolve/wikidated/archive"
	"github.com/kgevolve/wikidated/datamodel"
)

// IntegrityError reports a corrupted merge input: the same entity appears
// in more than one partition archive, which should be impossible for
// disjoint page ranges.
type IntegrityError struct {
	Member string
	Path   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("member %q appears more than once, last in %q", e.Member, e.Path)
}

// MergeEntity concatenates the partial entity streams into the merged
// entity archive. Partition ranges are disjoint, so member sets must be
// too; a duplicate member aborts the merge with an IntegrityError. A
// committed archive at the target path is reused and reported as skipped.
func MergeEntity(merged *File, partials []*File) (skipped bool, err error) {
	if merged.Kind != KindMerged || merged.Axis != AxisEntity {
		return false, fmt.Errorf("merge entity streams: %q is not a merged entity stream", merged.Path)
	}
	if archive.Exists(merged.Path) {
		return true, nil
	}

	w, err := archive.NewWriter(merged.Path)
	if err != nil {
		return false, err
	}
	defer w.Abort()

	seen := make(map[string]bool)
	for _, partial := range partials {
		if err := copyMembers(w, partial, seen); err != nil {
			return false, err
		}
	}

	if err := w.Commit(); err != nil {
		return false, err
	}
	return false, nil
}

func copyMembers(w *archive.Writer, partial *File, seen map[string]bool) error {
	r, err := archive.OpenReader(partial.Path)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, name := range r.Names() {
		if seen[name] {
			return &IntegrityError{Member: name, Path: partial.Path}
		}
		seen[name] = true

		rc, err := r.Member(name)
		if err != nil {
			return err
		}
		member, err := w.Member(name)
		if err != nil {
			rc.Close()
			return err
		}
		if _, err := io.Copy(member, rc); err != nil {
			rc.Close()
			return fmt.Errorf("copy member %q from %q: %w", name, partial.Path, err)
		}
		rc.Close()
	}
	return nil
}

// mergeHeap orders the head revision of each sorted partition
// chronologically, revision id breaking ties.
type mergeHeap []*mergeCursor

type mergeCursor struct {
	scanner  *Scanner
	revision *datamodel.DiffRevision
	line     []byte
}

func (h mergeHeap) Len() int { return len(h) }

func (h mergeHeap) Less(i, j int) bool {
	return chronological(h[i].revision, h[j].revision)
}

func (h mergeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *mergeHeap) Push(x any) { *h = append(*h, x.(*mergeCursor)) }

func (h *mergeHeap) Pop() any {
	old := *h
	last := old[len(old)-1]
	*h = old[:len(old)-1]
	return last
}

func (c *mergeCursor) advance() (bool, error) {
	revision, line, err := c.scanner.Next()
	if err == io.EOF {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	c.revision, c.line = revision, line
	return true, nil
}

// MergeGlobal merges the sorted partition streams into the global stream
// archive: one chronological sequence over the whole dataset, split into
// one member per calendar month. A committed archive at the target path
// is reused and reported as skipped.
func MergeGlobal(global *File, sorted []*File) (skipped bool, err error) {
	if global.Kind != KindMerged || global.Axis != AxisGlobal {
		return false, fmt.Errorf("merge global stream: %q is not a global stream", global.Path)
	}
	if archive.Exists(global.Path) {
		return true, nil
	}

	readers := make([]*Reader, 0, len(sorted))
	defer func() {
		for _, r := range readers {
			r.Close()
		}
	}()

	cursors := make(mergeHeap, 0, len(sorted))
	for _, f := range sorted {
		r, err := OpenReader(f)
		if err != nil {
			return false, err
		}
		readers = append(readers, r)

		cursor := &mergeCursor{scanner: r.All()}
		ok, err := cursor.advance()
		if err != nil {
			return false, err
		}
		if ok {
			cursors = append(cursors, cursor)
		}
	}
	heap.Init(&cursors)

	w, err := archive.NewWriter(global.Path)
	if err != nil {
		return false, err
	}
	defer w.Abort()

	var (
		month  string
		member io.Writer
	)
	for cursors.Len() > 0 {
		cursor := cursors[0]

		// Sorted inputs make the merged timestamps non-decreasing, so
		// month members can be written strictly sequentially.
		if m := monthMember(cursor.revision.Revision.Timestamp); m != month {
			month = m
			member, err = w.Member(month)
			if err != nil {
				return false, err
			}
		}
		if _, err := member.Write(cursor.line); err != nil {
			return false, fmt.Errorf("write global stream member: %w", err)
		}

		ok, err := cursor.advance()
		if err != nil {
			return false, err
		}
		if ok {
			heap.Fix(&cursors, 0)
		} else {
			heap.Pop(&cursors)
		}
	}

	if err := w.Commit(); err != nil {
		return false, err
	}
	return false, nil
}
