// Package dump reads pages-meta-history dump files: the raw revision
// source. Each dump file covers one contiguous page-id range and yields
// revisions already grouped by entity in page order, revision-ordered
// within each entity.
package dump

import (
	"fmt"
	"path/filepath"
	"regexp"
	"time"

	"github.com/kgevolve/wikidated/datamodel"
)

// fileNamePattern matches the standard dump naming scheme, e.g.
// "wikidatawiki-20210401-pages-meta-history1.xml-p1p192" with an optional
// ".xz" suffix.
var fileNamePattern = regexp.MustCompile(
	`^(?P<wiki>.+)-(?P<date>\d{8})-pages-meta-history\d*\.xml-p(?P<min>\d+)p(?P<max>\d+)(?P<ext>\.xz)?$`)

// PagesMetaHistory identifies one dump file: the partition it covers and
// the dump version it belongs to.
type PagesMetaHistory struct {
	Path    string
	Wiki    string
	Version time.Time
	PageIDs datamodel.PageRange
}

// ParsePagesMetaHistory derives a dump file's identity from its name.
func ParsePagesMetaHistory(path string) (*PagesMetaHistory, error) {
	match := fileNamePattern.FindStringSubmatch(filepath.Base(path))
	if match == nil {
		return nil, fmt.Errorf("file %q is not a pages-meta-history dump (based on file name)", filepath.Base(path))
	}

	version, err := time.Parse("20060102", match[fileNamePattern.SubexpIndex("date")])
	if err != nil {
		return nil, fmt.Errorf("parse dump version from %q: %w", filepath.Base(path), err)
	}

	var minID, maxID int64
	fmt.Sscanf(match[fileNamePattern.SubexpIndex("min")], "%d", &minID)
	fmt.Sscanf(match[fileNamePattern.SubexpIndex("max")], "%d", &maxID)
	pageIDs, err := datamodel.NewPageRange(minID, maxID)
	if err != nil {
		return nil, fmt.Errorf("parse page range from %q: %w", filepath.Base(path), err)
	}

	return &PagesMetaHistory{
		Path:    path,
		Wiki:    match[fileNamePattern.SubexpIndex("wiki")],
		Version: version,
		PageIDs: pageIDs,
	}, nil
}
