package dump_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"

	"github.com/kgevolve/wikidated/datamodel"
	"github.com/kgevolve/wikidated/dump"
)

const dumpXML = `<mediawiki xmlns="http://www.mediawiki.org/xml/export-0.10/" version="0.10" xml:lang="en">
  <siteinfo>
    <sitename>Wikidata</sitename>
    <dbname>wikidatawiki</dbname>
  </siteinfo>
  <page>
    <title>Q1</title>
    <ns>0</ns>
    <id>1</id>
    <revision>
      <id>10</id>
      <timestamp>2014-01-01T12:00:00Z</timestamp>
      <contributor>
        <username>Alice &amp; Bob</username>
        <id>7</id>
      </contributor>
      <comment>created</comment>
      <model>wikibase-item</model>
      <format>application/json</format>
      <text bytes="18" xml:space="preserve">{&quot;id&quot;:&quot;Q1&quot;}</text>
      <sha1>abcdef</sha1>
    </revision>
    <revision>
      <id>11</id>
      <parentid>10</parentid>
      <timestamp>2014-01-02T12:00:00Z</timestamp>
      <contributor>
        <ip>192.0.2.1</ip>
      </contributor>
      <minor/>
      <model>wikibase-item</model>
      <format>application/json</format>
      <text bytes="40" xml:space="preserve">{&quot;id&quot;:&quot;Q1&quot;,
&quot;type&quot;:&quot;item&quot;}</text>
      <sha1>012345</sha1>
    </revision>
  </page>
  <page>
    <title>Q2</title>
    <ns>0</ns>
    <id>2</id>
    <redirect title="Q1" />
    <revision>
      <id>12</id>
      <timestamp>2014-01-03T12:00:00Z</timestamp>
      <contributor deleted="deleted" />
      <comment deleted="deleted" />
      <model>wikibase-item</model>
      <format>application/json</format>
      <text bytes="0" />
      <sha1/>
    </revision>
  </page>
</mediawiki>
`

func writeDump(t *testing.T, name string, compress bool) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	var w io.Writer = f
	if compress {
		xw, err := xz.NewWriter(f)
		require.NoError(t, err)
		defer xw.Close()
		w = xw
	}
	_, err = io.WriteString(w, dumpXML)
	require.NoError(t, err)
	return path
}

func readAll(t *testing.T, path string) []*datamodel.RawRevision {
	t.Helper()
	file, err := dump.ParsePagesMetaHistory(path)
	require.NoError(t, err)

	reader, err := file.Revisions()
	require.NoError(t, err)
	defer reader.Close()
	assert.Equal(t, dump.SiteInfo{SiteName: "Wikidata", DBName: "wikidatawiki"}, reader.SiteInfo())

	var revisions []*datamodel.RawRevision
	for {
		revision, err := reader.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		revisions = append(revisions, revision)
	}
	return revisions
}

func TestRevisionReader(t *testing.T) {
	path := writeDump(t, "wikidatawiki-20210401-pages-meta-history1.xml-p1p2", false)
	revisions := readAll(t, path)
	require.Len(t, revisions, 3)

	first := revisions[0]
	assert.Equal(t, "Q1", first.Entity.EntityID)
	assert.Equal(t, int64(1), first.Entity.PageID)
	assert.Equal(t, int64(10), first.Revision.RevisionID)
	assert.Equal(t, int64(0), first.Revision.ParentRevisionID)
	assert.Equal(t, time.Date(2014, 1, 1, 12, 0, 0, 0, time.UTC), first.Revision.Timestamp)
	assert.Equal(t, "Alice & Bob", first.Revision.Contributor)
	assert.Equal(t, int64(7), first.Revision.ContributorID)
	assert.Equal(t, "created", first.Revision.Comment)
	assert.Equal(t, "wikibase-item", first.Revision.ContentModel)
	assert.Equal(t, `{"id":"Q1"}`, first.Text)
	assert.Equal(t, "abcdef", first.Revision.SHA1)
	assert.False(t, first.Revision.IsMinor)

	second := revisions[1]
	assert.Equal(t, int64(11), second.Revision.RevisionID)
	assert.Equal(t, int64(10), second.Revision.ParentRevisionID)
	assert.Equal(t, "192.0.2.1", second.Revision.Contributor)
	assert.True(t, second.Revision.IsMinor)
	assert.Equal(t, "{\"id\":\"Q1\",\n\"type\":\"item\"}", second.Text)

	third := revisions[2]
	assert.Equal(t, "Q2", third.Entity.EntityID)
	assert.Equal(t, "Q1", third.Entity.Redirect)
	assert.Empty(t, third.Revision.Contributor, "deleted contributor is suppressed")
	assert.Empty(t, third.Revision.Comment, "deleted comment is suppressed")
	assert.Empty(t, third.Text, "suppressed text reads as empty")
	assert.Empty(t, third.Revision.SHA1)
}

func TestRevisionReaderXz(t *testing.T) {
	path := writeDump(t, "wikidatawiki-20210401-pages-meta-history1.xml-p1p2.xz", true)
	revisions := readAll(t, path)
	require.Len(t, revisions, 3)
	assert.Equal(t, int64(12), revisions[2].Revision.RevisionID)
}

func TestParsePagesMetaHistory(t *testing.T) {
	file, err := dump.ParsePagesMetaHistory("/dumps/wikidatawiki-20210401-pages-meta-history27.xml-p100p199.xz")
	require.NoError(t, err)
	assert.Equal(t, "wikidatawiki", file.Wiki)
	assert.Equal(t, time.Date(2021, 4, 1, 0, 0, 0, 0, time.UTC), file.Version)
	assert.Equal(t, datamodel.PageRange{Start: 100, End: 199}, file.PageIDs)

	_, err = dump.ParsePagesMetaHistory("/dumps/notes.txt")
	assert.Error(t, err)
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"wikidatawiki-20210401-pages-meta-history1.xml-p200p299",
		"wikidatawiki-20210401-pages-meta-history1.xml-p1p99.xz",
		"wikidatawiki-20210401-pages-meta-history1.xml-p100p199",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "status.json"), nil, 0o644))

	files, err := dump.Discover(dir, "")
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, int64(1), files[0].PageIDs.Start)
	assert.Equal(t, int64(100), files[1].PageIDs.Start)
	assert.Equal(t, int64(200), files[2].PageIDs.Start)
}

func TestDiscoverRejectsOverlap(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"wikidatawiki-20210401-pages-meta-history1.xml-p1p150",
		"wikidatawiki-20210401-pages-meta-history2.xml-p100p199",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	_, err := dump.Discover(dir, "")
	assert.ErrorContains(t, err, "overlapping page ranges")
}
