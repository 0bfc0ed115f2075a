package dump

import (
	"fmt"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultGlob matches the dump files of a full pages-meta-history export,
// compressed or not, anywhere below the dumps directory.
const DefaultGlob = "**/*-pages-meta-history*.xml-p*p*"

// Discover finds the dump files matching the glob below dir, sorted by the
// start of their page range. Overlapping ranges indicate a mixed-up dumps
// directory and are rejected.
func Discover(dir, glob string) ([]*PagesMetaHistory, error) {
	if glob == "" {
		glob = DefaultGlob
	}

	matches, err := doublestar.FilepathGlob(withTrailingXz(dir, glob))
	if err != nil {
		return nil, fmt.Errorf("glob dump files: %w", err)
	}

	seen := make(map[string]bool, len(matches))
	files := make([]*PagesMetaHistory, 0, len(matches))
	for _, match := range matches {
		if seen[match] {
			continue
		}
		seen[match] = true
		file, err := ParsePagesMetaHistory(match)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].PageIDs.Start < files[j].PageIDs.Start
	})

	for i := 1; i < len(files); i++ {
		if files[i].PageIDs.Overlaps(files[i-1].PageIDs) {
			return nil, fmt.Errorf("dump files %q and %q cover overlapping page ranges",
				files[i-1].Path, files[i].Path)
		}
	}
	return files, nil
}

// withTrailingXz admits both plain and compressed files in one pass.
func withTrailingXz(dir, glob string) string {
	return dir + "/" + glob + "{,.xz}"
}
