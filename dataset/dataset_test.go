package dataset_test

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgevolve/wikidated/archive"
	"github.com/kgevolve/wikidated/convert"
	"github.com/kgevolve/wikidated/datamodel"
	"github.com/kgevolve/wikidated/dataset"
	"github.com/kgevolve/wikidated/dump"
	"github.com/kgevolve/wikidated/rdf"
)

var version = time.Date(2021, 4, 1, 0, 0, 0, 0, time.UTC)

type testRevision struct {
	pageID     int64
	revisionID int64
	timestamp  time.Time
}

// writeDump renders a minimal pages-meta-history file covering the given
// revisions, grouped by page in input order.
func writeDump(t *testing.T, dir string, pageIDs datamodel.PageRange, revisions []testRevision) *dump.PagesMetaHistory {
	t.Helper()

	var b strings.Builder
	b.WriteString(`<mediawiki xmlns="http://www.mediawiki.org/xml/export-0.10/" version="0.10" xml:lang="en">` + "\n")
	b.WriteString("  <siteinfo>\n    <sitename>Wikidata</sitename>\n    <dbname>wikidatawiki</dbname>\n  </siteinfo>\n")

	var currentPage int64 = -1
	for _, r := range revisions {
		if r.pageID != currentPage {
			if currentPage != -1 {
				b.WriteString("  </page>\n")
			}
			currentPage = r.pageID
			fmt.Fprintf(&b, "  <page>\n    <title>Q%d</title>\n    <ns>0</ns>\n    <id>%d</id>\n", r.pageID, r.pageID)
		}
		fmt.Fprintf(&b, `    <revision>
      <id>%d</id>
      <timestamp>%s</timestamp>
      <contributor>
        <username>tester</username>
        <id>1</id>
      </contributor>
      <model>wikibase-item</model>
      <format>application/json</format>
      <text bytes="2" xml:space="preserve">{}</text>
      <sha1>abc</sha1>
    </revision>
`, r.revisionID, r.timestamp.Format(time.RFC3339))
	}
	if currentPage != -1 {
		b.WriteString("  </page>\n")
	}
	b.WriteString("</mediawiki>\n")

	name := fmt.Sprintf("wikidatawiki-20210401-pages-meta-history1.xml-p%dp%d", pageIDs.Start, pageIDs.End)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))

	file, err := dump.ParsePagesMetaHistory(path)
	require.NoError(t, err)
	return file
}

// stubConverter resolves revision ids to canned triple sets.
type stubConverter struct {
	triples map[int64][]rdf.Triple
}

func (c *stubConverter) Convert(revision *datamodel.RawRevision) (*datamodel.RdfRevision, error) {
	triples, ok := c.triples[revision.Revision.RevisionID]
	if !ok {
		return nil, convert.NewError("conversion failed", revision, nil)
	}
	return &datamodel.RdfRevision{RevisionBase: revision.RevisionBase, Triples: triples}, nil
}

func (c *stubConverter) Close() error { return nil }

func stubFactory(triples map[int64][]rdf.Triple) convert.Factory {
	return func() (convert.Converter, error) {
		return &stubConverter{triples: triples}, nil
	}
}

func at(day, hour int) time.Time {
	return time.Date(2021, 3, day, hour, 0, 0, 0, time.UTC)
}

func TestDatasetBuildAndRead(t *testing.T) {
	dumpsDir := t.TempDir()
	dataDir := t.TempDir()

	first := writeDump(t, dumpsDir, datamodel.PageRange{Start: 1, End: 99}, []testRevision{
		{pageID: 1, revisionID: 10, timestamp: at(1, 0)},
		{pageID: 1, revisionID: 13, timestamp: at(2, 0)},
		{pageID: 2, revisionID: 11, timestamp: at(1, 12)},
	})
	second := writeDump(t, dumpsDir, datamodel.PageRange{Start: 100, End: 199}, []testRevision{
		{pageID: 100, revisionID: 12, timestamp: at(1, 18)},
	})

	label := rdf.Triple{Subject: "wd:Q1", Predicate: "rdfs:label", Object: `"one"@en`}
	claim := rdf.Triple{Subject: "wd:Q1", Predicate: "wdt:P31", Object: "wd:Q5"}
	triples := map[int64][]rdf.Triple{
		10: {label},
		13: {label, claim},
		11: {{Subject: "wd:Q2", Predicate: "rdfs:label", Object: `"two"@en`}},
		12: {{Subject: "wd:Q100", Predicate: "rdfs:label", Object: `"hundred"@en`}},
	}

	ds := dataset.New(dataDir, version, nil)
	defer ds.Close()
	assert.Equal(t, "wikidated-20210401", ds.Name())

	var (
		progressMu sync.Mutex
		dones      = map[string][]int64{}
		totals     = map[string]int64{}
	)
	err := ds.Build(context.Background(), dataset.BuildOptions{
		Dumps:        []*dump.PagesMetaHistory{first, second},
		Converter:    stubFactory(triples),
		Workers:      2,
		GlobalStream: true,
		Progress: func(partition string, pagesDone, pagesTotal int64) {
			progressMu.Lock()
			defer progressMu.Unlock()
			dones[partition] = append(dones[partition], pagesDone)
			totals[partition] = pagesTotal
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, dones["p1-p99"], "progress advances page by page within a partition")
	assert.Equal(t, []int64{1}, dones["p100-p199"])
	assert.Equal(t, int64(99), totals["p1-p99"])
	assert.Equal(t, int64(100), totals["p100-p199"])

	pageIDs, err := ds.PageIDs()
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2, 100}, pageIDs)

	scanner, err := ds.Revisions(1)
	require.NoError(t, err)
	defer scanner.Close()

	firstRev, _, err := scanner.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(10), firstRev.Revision.RevisionID)
	assert.Equal(t, []rdf.Triple{label}, firstRev.TripleAdditions)

	secondRev, _, err := scanner.Next()
	require.NoError(t, err)
	assert.Equal(t, []rdf.Triple{claim}, secondRev.TripleAdditions)

	global, err := ds.GlobalRevisions()
	require.NoError(t, err)
	defer global.Close()

	var order []int64
	for {
		revision, _, err := global.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		order = append(order, revision.Revision.RevisionID)
	}
	assert.Equal(t, []int64{10, 11, 12, 13}, order, "global stream is chronological across partitions")
}

func TestDatasetBuildIsResumable(t *testing.T) {
	dumpsDir := t.TempDir()
	dataDir := t.TempDir()

	file := writeDump(t, dumpsDir, datamodel.PageRange{Start: 1, End: 99}, []testRevision{
		{pageID: 1, revisionID: 10, timestamp: at(1, 0)},
	})
	triples := map[int64][]rdf.Triple{
		10: {{Subject: "wd:Q1", Predicate: "rdfs:label", Object: `"one"@en`}},
	}

	ds := dataset.New(dataDir, version, nil)
	defer ds.Close()
	opts := dataset.BuildOptions{
		Dumps:     []*dump.PagesMetaHistory{file},
		Converter: stubFactory(triples),
	}
	require.NoError(t, ds.Build(context.Background(), opts))

	partial := filepath.Join(ds.Dir(), "wikidated-20210401-entity-streams-p1-p99.zip")
	require.True(t, archive.Exists(partial))
	info, err := os.Stat(partial)
	require.NoError(t, err)

	// A second run must reuse every committed archive untouched and
	// report the partition as fully done in one call.
	var calls [][2]int64
	opts.Progress = func(partition string, pagesDone, pagesTotal int64) {
		calls = append(calls, [2]int64{pagesDone, pagesTotal})
	}
	require.NoError(t, ds.Build(context.Background(), opts))
	after, err := os.Stat(partial)
	require.NoError(t, err)
	assert.Equal(t, info.ModTime(), after.ModTime())
	assert.Equal(t, [][2]int64{{99, 99}}, calls)
}

func TestDatasetBuildRejectsVersionMismatch(t *testing.T) {
	dumpsDir := t.TempDir()
	file := writeDump(t, dumpsDir, datamodel.PageRange{Start: 1, End: 99}, nil)

	ds := dataset.New(t.TempDir(), time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), nil)
	err := ds.Build(context.Background(), dataset.BuildOptions{
		Dumps:     []*dump.PagesMetaHistory{file},
		Converter: stubFactory(nil),
	})
	assert.ErrorContains(t, err, "version")
}
