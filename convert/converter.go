// Package convert defines the boundary to the semantic triple converter:
// the interface the diff engine consumes, the conversion error type, and a
// tally of failures by reason for post-hoc reporting.
package convert

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kgevolve/wikidated/datamodel"
)

// Converter turns one raw revision into its semantic triple set. A
// converter may wrap expensive, stateful resources; it must not be shared
// across workers and must be released with Close when no longer needed.
type Converter interface {
	Convert(revision *datamodel.RawRevision) (*datamodel.RdfRevision, error)
	Close() error
}

// Factory constructs one converter instance. The build orchestrator calls
// it once per worker.
type Factory func() (Converter, error)

// Error reports that one revision could not be converted to triples. It is
// recovered locally by the diff engine: the revision is skipped and the
// entity's stream continues from the next successful revision.
type Error struct {
	Reason     string
	EntityID   string
	PageID     int64
	RevisionID int64
	Err        error
}

// NewError builds a conversion error for the given revision.
func NewError(reason string, revision *datamodel.RawRevision, err error) *Error {
	return &Error{
		Reason:     reason,
		EntityID:   revision.Entity.EntityID,
		PageID:     revision.Entity.PageID,
		RevisionID: revision.Revision.RevisionID,
		Err:        err,
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%s, page ID: %d, revision ID: %d)",
		e.Reason, e.EntityID, e.PageID, e.RevisionID)
}

func (e *Error) Unwrap() error { return e.Err }

// Tally counts conversion failures by reason. Safe for concurrent use so
// parallel partition builds can share one instance.
type Tally struct {
	mu      sync.Mutex
	reasons map[string]int
}

// NewTally returns an empty tally.
func NewTally() *Tally {
	return &Tally{reasons: make(map[string]int)}
}

// Add records one failure for the given reason.
func (t *Tally) Add(reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reasons[reason]++
}

// Total returns the number of recorded failures.
func (t *Tally) Total() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	total := 0
	for _, n := range t.reasons {
		total += n
	}
	return total
}

// Counts returns the failure counts sorted by descending count, then
// reason, for reporting.
func (t *Tally) Counts() []ReasonCount {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]ReasonCount, 0, len(t.reasons))
	for reason, n := range t.reasons {
		out = append(out, ReasonCount{Reason: reason, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Reason < out[j].Reason
	})
	return out
}

// ReasonCount is one tally entry.
type ReasonCount struct {
	Reason string
	Count  int
}
