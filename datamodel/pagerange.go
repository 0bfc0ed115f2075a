package datamodel

import "fmt"

// PageRange is a contiguous, inclusive range of entity page ids. It is the
// unit of partitioning: one dump file, one partial stream archive, and one
// build work item each cover exactly one range.
type PageRange struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// NewPageRange builds an inclusive range and validates its bounds.
func NewPageRange(start, end int64) (PageRange, error) {
	if start < 0 || end < start {
		return PageRange{}, fmt.Errorf("invalid page range p%d-p%d", start, end)
	}
	return PageRange{Start: start, End: end}, nil
}

// Contains reports whether the page id falls inside the range.
func (r PageRange) Contains(pageID int64) bool {
	return r.Start <= pageID && pageID <= r.End
}

// Overlaps reports whether two ranges share any page id.
func (r PageRange) Overlaps(other PageRange) bool {
	return r.Start <= other.End && other.Start <= r.End
}

// Len returns the number of page ids covered.
func (r PageRange) Len() int64 {
	return r.End - r.Start + 1
}

// String renders the range in the dump naming convention, e.g. "p1-p192".
func (r PageRange) String() string {
	return fmt.Sprintf("p%d-p%d", r.Start, r.End)
}
