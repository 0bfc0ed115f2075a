package dump

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/kgevolve/wikidated/datamodel"
)

// The dump XML is not parsed with a DOM: each element starts and ends on
// its own line and the element order inside pages and revisions is fixed,
// which a line-oriented reader exploits. The reader has to be updated
// manually if the dump format changes, but is much faster.

// SiteInfo describes the wiki the dump was exported from.
type SiteInfo struct {
	SiteName string
	DBName   string
}

// RevisionReader iterates the raw revisions of one dump file in dump
// order. Not safe for concurrent use.
type RevisionReader struct {
	lines    *lineReader
	file     *os.File
	siteInfo SiteInfo
	entity   *datamodel.EntityMeta
	done     bool
}

// Revisions opens the dump file and positions the reader after the site
// info header. Files ending in ".xz" are decompressed transparently.
func (f *PagesMetaHistory) Revisions() (*RevisionReader, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open dump: %w", err)
	}

	var src io.Reader = file
	if strings.HasSuffix(f.Path, ".xz") {
		xr, err := xz.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("open xz dump: %w", err)
		}
		src = xr
	}

	lines := &lineReader{r: bufio.NewReaderSize(src, 1<<20)}

	line, err := lines.next()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("read dump header: %w", err)
	}
	if !isOpeningTag(line, "mediawiki") {
		file.Close()
		return nil, fmt.Errorf("expected <mediawiki>, instead line was %q", strings.TrimSpace(line))
	}

	var siteInfo SiteInfo
	for {
		line, err = lines.next()
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("read site info: %w", err)
		}
		switch {
		case isOpeningTag(line, "sitename"):
			siteInfo.SiteName, _ = extractValue(line, "sitename")
		case isOpeningTag(line, "dbname"):
			siteInfo.DBName, _ = extractValue(line, "dbname")
		}
		if isClosingTag(line, "siteinfo") {
			break
		}
	}

	return &RevisionReader{lines: lines, file: file, siteInfo: siteInfo}, nil
}

// SiteInfo returns the dump header metadata.
func (r *RevisionReader) SiteInfo() SiteInfo {
	return r.siteInfo
}

// Next returns the next raw revision, or io.EOF after the last one.
func (r *RevisionReader) Next() (*datamodel.RawRevision, error) {
	if r.done {
		return nil, io.EOF
	}

	for {
		line, err := r.lines.next()
		if err != nil {
			return nil, fmt.Errorf("read dump: %w", err)
		}

		switch {
		case r.entity == nil && isOpeningTag(line, "page"):
			entity, err := r.readPageHeader()
			if err != nil {
				return nil, err
			}
			r.entity = entity

		case r.entity != nil && isOpeningTag(line, "revision"):
			revision, text, err := r.readRevision()
			if err != nil {
				return nil, err
			}
			return &datamodel.RawRevision{
				RevisionBase: datamodel.RevisionBase{Entity: *r.entity, Revision: *revision},
				Text:         text,
			}, nil

		case r.entity != nil && isClosingTag(line, "page"):
			r.entity = nil

		case isClosingTag(line, "mediawiki"):
			r.done = true
			return nil, io.EOF

		default:
			return nil, fmt.Errorf("unexpected dump line %q", strings.TrimSpace(line))
		}
	}
}

// Close releases the underlying file.
func (r *RevisionReader) Close() error {
	return r.file.Close()
}

func (r *RevisionReader) readPageHeader() (*datamodel.EntityMeta, error) {
	title, err := r.extractNext("title")
	if err != nil {
		return nil, err
	}
	nsValue, err := r.extractNext("ns")
	if err != nil {
		return nil, err
	}
	namespace, err := strconv.Atoi(nsValue)
	if err != nil {
		return nil, fmt.Errorf("parse page namespace: %w", err)
	}
	idValue, err := r.extractNext("id")
	if err != nil {
		return nil, err
	}
	pageID, err := strconv.ParseInt(idValue, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse page id: %w", err)
	}

	entity := &datamodel.EntityMeta{
		EntityID:  unescapeXML(title),
		PageID:    pageID,
		Namespace: namespace,
	}

	line, err := r.lines.next()
	if err != nil {
		return nil, fmt.Errorf("read page header: %w", err)
	}
	if isOpeningTag(line, "redirect") {
		entity.Redirect = attributeValue(line, "title")
	} else {
		r.lines.pushBack(line)
	}
	return entity, nil
}

func (r *RevisionReader) readRevision() (*datamodel.RevisionMeta, string, error) {
	meta := &datamodel.RevisionMeta{}

	idValue, err := r.extractNext("id")
	if err != nil {
		return nil, "", err
	}
	meta.RevisionID, err = strconv.ParseInt(idValue, 10, 64)
	if err != nil {
		return nil, "", fmt.Errorf("parse revision id: %w", err)
	}

	line, err := r.lines.next()
	if err != nil {
		return nil, "", err
	}
	if isOpeningTag(line, "parentid") {
		parent, err := extractValue(line, "parentid")
		if err != nil {
			return nil, "", err
		}
		meta.ParentRevisionID, _ = strconv.ParseInt(parent, 10, 64)
	} else {
		r.lines.pushBack(line)
	}

	timestampValue, err := r.extractNext("timestamp")
	if err != nil {
		return nil, "", err
	}
	meta.Timestamp, err = time.Parse(time.RFC3339, timestampValue)
	if err != nil {
		return nil, "", fmt.Errorf("parse revision timestamp: %w", err)
	}

	if err := r.readContributor(meta); err != nil {
		return nil, "", err
	}

	line, err = r.lines.next()
	if err != nil {
		return nil, "", err
	}
	if isOpeningTag(line, "minor") {
		meta.IsMinor = true
	} else {
		r.lines.pushBack(line)
	}

	line, err = r.lines.next()
	if err != nil {
		return nil, "", err
	}
	if isOpeningTag(line, "comment") {
		if !strings.Contains(line, `deleted="deleted"`) {
			r.lines.pushBack(line)
			comment, err := r.extractMultiline("comment")
			if err != nil {
				return nil, "", err
			}
			meta.Comment = unescapeXML(comment)
		}
	} else {
		r.lines.pushBack(line)
	}

	if meta.ContentModel, err = r.extractNext("model"); err != nil {
		return nil, "", err
	}
	if meta.ContentFormat, err = r.extractNext("format"); err != nil {
		return nil, "", err
	}

	text, err := r.extractMultiline("text")
	if err != nil {
		return nil, "", err
	}
	text = unescapeXML(text)

	line, err = r.lines.next()
	if err != nil {
		return nil, "", err
	}
	if !isOpeningTag(line, "sha1") {
		return nil, "", fmt.Errorf("expected <sha1>, instead line was %q", strings.TrimSpace(line))
	}
	if !strings.HasSuffix(strings.TrimSpace(line), "/>") {
		if meta.SHA1, err = extractValue(line, "sha1"); err != nil {
			return nil, "", err
		}
	}

	line, err = r.lines.next()
	if err != nil {
		return nil, "", err
	}
	if !isClosingTag(line, "revision") {
		return nil, "", fmt.Errorf("expected </revision>, instead line was %q", strings.TrimSpace(line))
	}

	return meta, text, nil
}

func (r *RevisionReader) readContributor(meta *datamodel.RevisionMeta) error {
	line, err := r.lines.next()
	if err != nil {
		return err
	}
	if !isOpeningTag(line, "contributor") {
		return fmt.Errorf("expected <contributor>, instead line was %q", strings.TrimSpace(line))
	}
	if strings.Contains(line, `deleted="deleted"`) {
		return nil
	}

	line, err = r.lines.next()
	if err != nil {
		return err
	}
	if isOpeningTag(line, "ip") {
		if meta.Contributor, err = extractValue(line, "ip"); err != nil {
			return err
		}
	} else {
		if meta.Contributor, err = extractValue(line, "username"); err != nil {
			return err
		}
		meta.Contributor = unescapeXML(meta.Contributor)
		idValue, err := r.extractNext("id")
		if err != nil {
			return err
		}
		meta.ContributorID, _ = strconv.ParseInt(idValue, 10, 64)
	}

	line, err = r.lines.next()
	if err != nil {
		return err
	}
	if !isClosingTag(line, "contributor") {
		return fmt.Errorf("expected </contributor>, instead line was %q", strings.TrimSpace(line))
	}
	return nil
}

func (r *RevisionReader) extractNext(element string) (string, error) {
	line, err := r.lines.next()
	if err != nil {
		return "", fmt.Errorf("read <%s>: %w", element, err)
	}
	return extractValue(line, element)
}

// extractMultiline reads an element whose value may span lines (comment,
// text). Self-closing elements (e.g. <text bytes="0" />) yield "".
func (r *RevisionReader) extractMultiline(element string) (string, error) {
	line, err := r.lines.next()
	if err != nil {
		return "", fmt.Errorf("read <%s>: %w", element, err)
	}
	if !isOpeningTag(line, element) {
		return "", fmt.Errorf("expected <%s>, instead line was %q", element, strings.TrimSpace(line))
	}

	stripped := strings.TrimRight(line, "\n")
	if strings.HasSuffix(strings.TrimSpace(stripped), "/>") {
		return "", nil
	}
	if isClosingTag(line, element) {
		return extractValue(line, element)
	}

	var value strings.Builder
	value.WriteString(line[strings.Index(line, ">")+1:])
	for {
		line, err = r.lines.next()
		if err != nil {
			return "", fmt.Errorf("read <%s> value: %w", element, err)
		}
		if isClosingTag(line, element) {
			value.WriteString(line[:strings.LastIndex(line, "</")])
			break
		}
		value.WriteString(line)
	}
	return value.String(), nil
}

// lineReader reads newline-terminated lines with one line of pushback.
type lineReader struct {
	r         *bufio.Reader
	pushed    string
	hasPushed bool
}

func (l *lineReader) next() (string, error) {
	if l.hasPushed {
		l.hasPushed = false
		return l.pushed, nil
	}
	line, err := l.r.ReadString('\n')
	if err == io.EOF && line != "" {
		return line, nil
	}
	return line, err
}

func (l *lineReader) pushBack(line string) {
	l.pushed = line
	l.hasPushed = true
}

func isOpeningTag(line, element string) bool {
	return strings.HasPrefix(strings.TrimLeft(line, " \t"), "<"+element)
}

func isClosingTag(line, element string) bool {
	return strings.HasSuffix(strings.TrimRight(line, " \t\n"), "</"+element+">")
}

func extractValue(line, element string) (string, error) {
	if !isOpeningTag(line, element) || !isClosingTag(line, element) {
		return "", fmt.Errorf("expected <%s>...</%s>, instead line was %q", element, element, strings.TrimSpace(line))
	}
	return line[strings.Index(line, ">")+1 : strings.LastIndex(line, "</")], nil
}

func attributeValue(line, attribute string) string {
	marker := attribute + `="`
	start := strings.Index(line, marker)
	if start < 0 {
		return ""
	}
	start += len(marker)
	end := strings.Index(line[start:], `"`)
	if end < 0 {
		return ""
	}
	return unescapeXML(line[start : start+end])
}

func unescapeXML(value string) string {
	return html.UnescapeString(value)
}
