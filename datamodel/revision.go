package datamodel

import (
	"encoding/json"
	"fmt"

	"github.com/kgevolve/wikidated/rdf"
)

// RawRevision is a revision as read from the dump: metadata plus the raw
// serialized document payload. Text is empty when the dump suppressed it.
type RawRevision struct {
	RevisionBase
	Text string `json:"text,omitempty"`
}

// RdfRevision is the converter's output: one revision resolved to its full
// semantic triple set.
type RdfRevision struct {
	RevisionBase
	Triples []rdf.Triple `json:"triples"`
}

// DiffRevision is the persisted unit: one revision expressed as the sorted
// triples it removed from and added to the entity's previous state.
// Created once during diff computation and never mutated.
type DiffRevision struct {
	RevisionBase
	TripleDeletions []rdf.Triple `json:"triple_deletions"`
	TripleAdditions []rdf.Triple `json:"triple_additions"`
}

// MarshalLine serializes the revision as a single JSON line, the archive
// member record format.
func (r *DiffRevision) MarshalLine() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal diff revision %d: %w", r.Revision.RevisionID, err)
	}
	return append(data, '\n'), nil
}

// ParseDiffRevision parses one JSON line back into a DiffRevision.
func ParseDiffRevision(line []byte) (*DiffRevision, error) {
	var r DiffRevision
	if err := json.Unmarshal(line, &r); err != nil {
		return nil, fmt.Errorf("parse diff revision: %w", err)
	}
	return &r, nil
}
