// Package rdf models semantic triples in prefixed form and the equivalence
// relation used to diff them across revisions.
package rdf

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kgevolve/wikidated/vocabulary/wikidata"
)

// BlankNodeMarker is the reserved prefix of opaque, run-generated node
// identifiers. The upstream RDF writer emits blank nodes as something like
// "_:node1f8mm5pv5x4125"; the identifier is not stable across runs.
const BlankNodeMarker = "_:"

// Triple is a single subject-predicate-object statement with all terms
// already abbreviated to prefixed form.
//
// Blank nodes only ever occur in the object position and are never reused
// across (subject, predicate) pairs of one document. Two triples whose
// objects are both blank nodes therefore compare equal whenever subject and
// predicate match, regardless of the generated identifiers. EquivalenceKey
// encodes that relation; it must be used everywhere triples are compared,
// hashed, or diffed.
type Triple struct {
	Subject   string
	Predicate string
	Object    string
}

// IsBlankObject reports whether the object term is an opaque blank node.
func (t Triple) IsBlankObject() bool {
	return strings.HasPrefix(t.Object, BlankNodeMarker)
}

// EquivalenceKey returns the key under which this triple is considered for
// set membership. Blank-node objects collapse to the bare marker.
func (t Triple) EquivalenceKey() Triple {
	if t.IsBlankObject() {
		return Triple{Subject: t.Subject, Predicate: t.Predicate, Object: BlankNodeMarker}
	}
	return t
}

// Less orders triples lexicographically by (subject, predicate, object).
// Emitted addition/deletion lists are sorted with it for reproducibility.
func (t Triple) Less(other Triple) bool {
	if t.Subject != other.Subject {
		return t.Subject < other.Subject
	}
	if t.Predicate != other.Predicate {
		return t.Predicate < other.Predicate
	}
	return t.Object < other.Object
}

// String renders the triple in N-Triples statement form.
func (t Triple) String() string {
	return fmt.Sprintf("%s %s %s .", t.Subject, t.Predicate, t.Object)
}

// MarshalJSON serializes the triple as a three-element array, the wire
// format used by the persisted streams.
func (t Triple) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]string{t.Subject, t.Predicate, t.Object})
}

// UnmarshalJSON parses the three-element array form.
func (t *Triple) UnmarshalJSON(data []byte) error {
	var terms [3]string
	if err := json.Unmarshal(data, &terms); err != nil {
		return fmt.Errorf("parse triple: %w", err)
	}
	t.Subject, t.Predicate, t.Object = terms[0], terms[1], terms[2]
	return nil
}

// ParseNTriples splits raw N-Triples converter output into prefixed triples.
// Statements are terminated by " .\n" rather than by line, because literal
// objects may contain newlines. Subject and predicate never contain spaces,
// so splitting each statement on its first two spaces keeps literal spaces
// intact.
func ParseNTriples(ntriples string, prefixer *wikidata.Prefixer) []Triple {
	var triples []Triple
	for _, statement := range strings.Split(ntriples, " .\n") {
		if statement == "" {
			continue
		}
		parts := strings.SplitN(statement, " ", 3)
		if len(parts) != 3 {
			continue
		}
		triples = append(triples, Triple{
			Subject:   prefixer.Prefix(parts[0]),
			Predicate: prefixer.Prefix(parts[1]),
			Object:    prefixer.Prefix(parts[2]),
		})
	}
	return triples
}
