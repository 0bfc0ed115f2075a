// Package wikidata defines the Wikibase RDF vocabulary: the registered
// ontology namespace prefixes and the prefixer that abbreviates full IRIs
// to shortcode form.
package wikidata

import (
	"sort"
	"strings"
)

// Prefixer rewrites angle-bracket-delimited IRIs to `shortcode:remainder`
// form using longest-prefix matching over the registered prefix table.
// Terms that are not delimited as IRIs (literals, blank nodes) and IRIs
// outside every registered namespace pass through unchanged.
type Prefixer struct {
	// prefixes sorted longest-first so the first match is the longest one.
	prefixes []string
	codes    map[string]string
}

// NewPrefixer builds a Prefixer over the standard Wikibase prefix table.
func NewPrefixer() *Prefixer {
	return NewPrefixerWithTable(Prefixes)
}

// NewPrefixerWithTable builds a Prefixer over a custom prefix table mapping
// namespace IRIs to shortcodes.
func NewPrefixerWithTable(table map[string]string) *Prefixer {
	p := &Prefixer{
		prefixes: make([]string, 0, len(table)),
		codes:    make(map[string]string, len(table)),
	}
	for prefix, code := range table {
		p.prefixes = append(p.prefixes, prefix)
		p.codes[prefix] = code
	}
	sort.Slice(p.prefixes, func(i, j int) bool {
		if len(p.prefixes[i]) != len(p.prefixes[j]) {
			return len(p.prefixes[i]) > len(p.prefixes[j])
		}
		return p.prefixes[i] < p.prefixes[j]
	})
	return p
}

// Prefix abbreviates a single N-Triples term. A term is treated as an IRI
// only when wrapped in angle brackets; anything else is returned verbatim.
func (p *Prefixer) Prefix(term string) string {
	if len(term) < 2 || term[0] != '<' || !strings.HasSuffix(term, ">") {
		return term
	}
	iri := term[1 : len(term)-1]
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(iri, prefix) {
			return p.codes[prefix] + ":" + iri[len(prefix):]
		}
	}
	return iri
}

// PrefixIRI abbreviates a bare (undelimited) IRI. Unknown namespaces are
// returned unchanged.
func (p *Prefixer) PrefixIRI(iri string) string {
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(iri, prefix) {
			return p.codes[prefix] + ":" + iri[len(prefix):]
		}
	}
	return iri
}
