package rdf

import "sort"

// Set is a collection of triples keyed by their equivalence relation, so a
// blank-node object never causes spurious membership misses when the
// generated identifier changes between conversions.
type Set struct {
	members map[Triple]Triple
}

// NewSet builds a set from the given triples. Later duplicates (under the
// equivalence relation) replace earlier ones.
func NewSet(triples []Triple) *Set {
	s := &Set{members: make(map[Triple]Triple, len(triples))}
	for _, t := range triples {
		s.members[t.EquivalenceKey()] = t
	}
	return s
}

// Len returns the number of distinct members.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.members)
}

// Contains reports membership under the equivalence relation.
func (s *Set) Contains(t Triple) bool {
	if s == nil {
		return false
	}
	_, ok := s.members[t.EquivalenceKey()]
	return ok
}

// Sorted returns the members ordered lexicographically.
func (s *Set) Sorted() []Triple {
	out := make([]Triple, 0, s.Len())
	if s != nil {
		for _, t := range s.members {
			out = append(out, t)
		}
	}
	SortTriples(out)
	return out
}

// Diff computes the triples present in next but not in s (additions) and
// present in s but not in next (deletions), both sorted.
func (s *Set) Diff(next *Set) (additions, deletions []Triple) {
	if next != nil {
		for key, t := range next.members {
			if s == nil || s.members == nil {
				additions = append(additions, t)
				continue
			}
			if _, ok := s.members[key]; !ok {
				additions = append(additions, t)
			}
		}
	}
	if s != nil {
		for key, t := range s.members {
			if next == nil || next.members == nil {
				deletions = append(deletions, t)
				continue
			}
			if _, ok := next.members[key]; !ok {
				deletions = append(deletions, t)
			}
		}
	}
	SortTriples(additions)
	SortTriples(deletions)
	return additions, deletions
}

// SortTriples orders a slice lexicographically by (subject, predicate,
// object) in place.
func SortTriples(triples []Triple) {
	sort.Slice(triples, func(i, j int) bool { return triples[i].Less(triples[j]) })
}
