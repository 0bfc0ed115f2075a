package datamodel

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgevolve/wikidated/rdf"
)

func TestDiffRevisionLineRoundTrip(t *testing.T) {
	in := &DiffRevision{
		RevisionBase: RevisionBase{
			Entity: EntityMeta{EntityID: "Q42", PageID: 138, Namespace: 0},
			Revision: RevisionMeta{
				RevisionID:   123456,
				Timestamp:    time.Date(2013, 5, 4, 12, 30, 0, 0, time.UTC),
				ContentModel: "wikibase-item",
			},
		},
		TripleDeletions: []rdf.Triple{
			{Subject: "wd:Q42", Predicate: "rdfs:label", Object: `"Duglas Adams"@en`},
		},
		TripleAdditions: []rdf.Triple{
			{Subject: "wd:Q42", Predicate: "rdfs:label", Object: `"Douglas Adams"@en`},
		},
	}

	line, err := in.MarshalLine()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(line), "\n"), "record must be one line")
	assert.Equal(t, 1, strings.Count(string(line), "\n"))

	out, err := ParseDiffRevision(line)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDiffRevisionTripleWireFormat(t *testing.T) {
	in := &DiffRevision{
		TripleAdditions: []rdf.Triple{{Subject: "wd:Q1", Predicate: "wdt:P31", Object: "wd:Q5"}},
	}

	line, err := in.MarshalLine()
	require.NoError(t, err)
	assert.Contains(t, string(line), `["wd:Q1","wdt:P31","wd:Q5"]`,
		"triples are persisted as three-element arrays")
}

func TestPageRange(t *testing.T) {
	r, err := NewPageRange(100, 199)
	require.NoError(t, err)

	assert.True(t, r.Contains(100))
	assert.True(t, r.Contains(199))
	assert.False(t, r.Contains(200))
	assert.Equal(t, int64(100), r.Len())
	assert.Equal(t, "p100-p199", r.String())

	other := PageRange{Start: 199, End: 300}
	assert.True(t, r.Overlaps(other))
	assert.False(t, r.Overlaps(PageRange{Start: 200, End: 300}))

	_, err = NewPageRange(10, 5)
	assert.Error(t, err)
}
