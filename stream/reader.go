package stream

import (
	"bufio"
	"bytes"
	"io"

	"github.com/kgevolve/wikidated/archive"
	"github.com/kgevolve/wikidated/datamodel"
)

// Reader reads a committed stream archive.
type Reader struct {
	file    *File
	archive *archive.Reader
}

// OpenReader opens a committed stream file.
func OpenReader(f *File) (*Reader, error) {
	ar, err := archive.OpenReader(f.Path)
	if err != nil {
		return nil, err
	}
	return &Reader{file: f, archive: ar}, nil
}

// PageIDs lists the entities present, in archive-native order.
func (r *Reader) PageIDs() ([]int64, error) {
	names := r.archive.Names()
	pageIDs := make([]int64, 0, len(names))
	for _, name := range names {
		pageID, err := parseEntityMember(name)
		if err != nil {
			return nil, err
		}
		pageIDs = append(pageIDs, pageID)
	}
	return pageIDs, nil
}

// Revisions scans one entity's diff stream in revision order. The member
// must exist; asking for an entity the archive does not hold is an error.
func (r *Reader) Revisions(pageID int64) (*Scanner, error) {
	rc, err := r.archive.Member(entityMember(pageID))
	if err != nil {
		return nil, err
	}
	return newScanner(rc), nil
}

// All scans every member in archive order, one continuous stream.
func (r *Reader) All() *Scanner {
	return &Scanner{archive: r.archive, pending: r.archive.Names()}
}

// Close releases the archive.
func (r *Reader) Close() error {
	return r.archive.Close()
}

// Scanner iterates diff revisions line by line, across one member or a
// sequence of members.
type Scanner struct {
	archive *archive.Reader
	pending []string
	current io.ReadCloser
	lines   *bufio.Reader
}

func newScanner(rc io.ReadCloser) *Scanner {
	return &Scanner{current: rc, lines: bufio.NewReader(rc)}
}

// Next returns the next revision and its raw line, or io.EOF after the
// last one.
func (s *Scanner) Next() (*datamodel.DiffRevision, []byte, error) {
	for {
		if s.lines == nil {
			if len(s.pending) == 0 {
				return nil, nil, io.EOF
			}
			rc, err := s.archive.Member(s.pending[0])
			if err != nil {
				return nil, nil, err
			}
			s.pending = s.pending[1:]
			s.current = rc
			s.lines = bufio.NewReader(rc)
		}

		line, err := s.lines.ReadBytes('\n')
		if err == io.EOF {
			s.current.Close()
			s.current = nil
			s.lines = nil
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}
		} else if err != nil {
			return nil, nil, err
		}

		revision, err := datamodel.ParseDiffRevision(line)
		if err != nil {
			return nil, nil, err
		}
		return revision, line, nil
	}
}

// Close releases the member being scanned. Safe after exhaustion.
func (s *Scanner) Close() error {
	if s.current != nil {
		err := s.current.Close()
		s.current = nil
		s.lines = nil
		return err
	}
	return nil
}
