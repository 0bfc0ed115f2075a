// Package archive provides the container store for stream files: named
// members inside one zip container, written to a temporary path and
// atomically renamed into place on commit. A partially written container
// is never observable under its final name.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrMemberNotFound is returned when a named member is absent.
var ErrMemberNotFound = errors.New("archive member not found")

// TempPrefix marks in-construction containers next to their final path.
const TempPrefix = "tmp."

// Exists reports whether a committed container is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Writer builds a container member by member. Members must be written
// sequentially: creating a new member finishes the previous one.
type Writer struct {
	finalPath string
	tmpPath   string
	file      *os.File
	zw        *zip.Writer
	done      bool
}

// NewWriter opens a temporary container next to the final path. The parent
// directory is created if needed; a stale temporary from an interrupted
// run is discarded.
func NewWriter(path string) (*Writer, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}

	tmpPath := filepath.Join(dir, TempPrefix+filepath.Base(path))
	if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("remove stale temporary archive: %w", err)
	}

	file, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("create temporary archive: %w", err)
	}

	return &Writer{
		finalPath: path,
		tmpPath:   tmpPath,
		file:      file,
		zw:        zip.NewWriter(file),
	}, nil
}

// Member starts a new named member and returns its writer. The returned
// writer is valid until the next Member, Commit, or Abort call.
func (w *Writer) Member(name string) (io.Writer, error) {
	if w.done {
		return nil, fmt.Errorf("archive writer already finished")
	}
	member, err := w.zw.Create(name)
	if err != nil {
		return nil, fmt.Errorf("create archive member %q: %w", name, err)
	}
	return member, nil
}

// Commit finishes the container and atomically renames it into place.
// This is the single commit point of a build.
func (w *Writer) Commit() error {
	if w.done {
		return fmt.Errorf("archive writer already finished")
	}
	w.done = true

	if err := w.zw.Close(); err != nil {
		w.file.Close()
		return fmt.Errorf("finish archive: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		w.file.Close()
		return fmt.Errorf("sync archive: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}
	if err := os.Rename(w.tmpPath, w.finalPath); err != nil {
		return fmt.Errorf("commit archive: %w", err)
	}
	return nil
}

// Abort discards the temporary container. Safe to call after Commit, so it
// can be deferred unconditionally.
func (w *Writer) Abort() {
	if w.done {
		return
	}
	w.done = true
	w.zw.Close()
	w.file.Close()
	os.Remove(w.tmpPath)
}

// Reader provides random access to a committed container.
type Reader struct {
	zr *zip.ReadCloser
}

// OpenReader opens a committed container for reading.
func OpenReader(path string) (*Reader, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive %q: %w", path, err)
	}
	return &Reader{zr: zr}, nil
}

// Member opens the named member for reading.
func (r *Reader) Member(name string) (io.ReadCloser, error) {
	for _, f := range r.zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("open archive member %q: %w", name, err)
			}
			return rc, nil
		}
	}
	return nil, fmt.Errorf("member %q: %w", name, ErrMemberNotFound)
}

// Names lists member names in archive-native order.
func (r *Reader) Names() []string {
	names := make([]string, 0, len(r.zr.File))
	for _, f := range r.zr.File {
		names = append(names, f.Name)
	}
	return names
}

// Close releases the container.
func (r *Reader) Close() error {
	return r.zr.Close()
}
