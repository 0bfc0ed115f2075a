// Package stream builds, merges, and reads the diff-stream archives of a
// dataset: per-partition entity streams, their merged form, per-partition
// time-sorted streams, and the merged global stream.
package stream

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kgevolve/wikidated/datamodel"
)

// Kind distinguishes per-partition files from their merged form.
type Kind int

const (
	KindPartial Kind = iota
	KindMerged
)

// Axis distinguishes the two stream orderings: grouped by entity versus
// globally chronological.
type Axis int

const (
	AxisEntity Axis = iota
	AxisGlobal
)

// File identifies one stream archive. PageIDs is set for partial files
// and nil for merged files, which cover the whole dataset.
type File struct {
	Path    string
	PageIDs *datamodel.PageRange
	Kind    Kind
	Axis    Axis
}

// PartialEntityFile names the per-partition entity stream archive.
func PartialEntityFile(dir, dataset string, pageIDs datamodel.PageRange) *File {
	name := fmt.Sprintf("%s-entity-streams-%s.zip", dataset, pageIDs)
	return &File{
		Path:    filepath.Join(dir, name),
		PageIDs: &pageIDs,
		Kind:    KindPartial,
		Axis:    AxisEntity,
	}
}

// MergedEntityFile names the merged entity stream archive.
func MergedEntityFile(dir, dataset string) *File {
	return &File{
		Path: filepath.Join(dir, dataset+"-entity-streams.zip"),
		Kind: KindMerged,
		Axis: AxisEntity,
	}
}

// SortedPartialFile names the per-partition time-sorted stream archive,
// the input to the global merge.
func SortedPartialFile(dir, dataset string, pageIDs datamodel.PageRange) *File {
	name := fmt.Sprintf("%s-sorted-entity-streams-%s.zip", dataset, pageIDs)
	return &File{
		Path:    filepath.Join(dir, name),
		PageIDs: &pageIDs,
		Kind:    KindPartial,
		Axis:    AxisGlobal,
	}
}

// GlobalFile names the merged global stream archive.
func GlobalFile(dir, dataset string) *File {
	return &File{
		Path: filepath.Join(dir, dataset+"-global-stream.zip"),
		Kind: KindMerged,
		Axis: AxisGlobal,
	}
}

// entityMember names the archive member holding one entity's stream.
func entityMember(pageID int64) string {
	return strconv.FormatInt(pageID, 10) + ".jsonl"
}

// parseEntityMember recovers the page id from an entity member name.
func parseEntityMember(name string) (int64, error) {
	base, ok := strings.CutSuffix(name, ".jsonl")
	if !ok {
		return 0, fmt.Errorf("member %q is not an entity stream member", name)
	}
	pageID, err := strconv.ParseInt(base, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("member %q is not an entity stream member", name)
	}
	return pageID, nil
}

// monthMember names the global stream member holding one month, e.g.
// "d201401.jsonl" for January 2014.
func monthMember(timestamp time.Time) string {
	return "d" + timestamp.UTC().Format("200601") + ".jsonl"
}

// sortedMember is the single member of a sorted partial stream.
const sortedMember = "revisions.jsonl"
