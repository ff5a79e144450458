// Package source holds the adapters that turn a backend (directory walk,
// archive file, text listing) into the normalized entry stream the tree
// builder consumes. All external I/O is confined here; the builder and
// renderer never touch the filesystem.
package source

import (
	"io"

	"larch/pkg/types"
)

// Source is a lazy, finite, single-pass stream of entries. Next returns
// io.EOF once the stream is exhausted; any other error is a read failure
// and ends the stream. Close releases underlying resources and is
// idempotent. Sources are not restartable: a drained or abandoned source
// cannot be reused.
type Source interface {
	Next() (types.Entry, error)
	Close() error
}

// sliceSource serves a pre-built entry slice. The listing adapter and tests
// use it for inputs that are already fully in memory.
type sliceSource struct {
	entries []types.Entry
	pos     int
}

func (s *sliceSource) Next() (types.Entry, error) {
	if s.pos >= len(s.entries) {
		return types.Entry{}, io.EOF
	}
	e := s.entries[s.pos]
	s.pos++
	return e, nil
}

func (s *sliceSource) Close() error {
	s.entries = nil
	s.pos = 0
	return nil
}

// FromEntries wraps a fixed set of entries as a Source.
func FromEntries(entries []types.Entry) Source {
	return &sliceSource{entries: entries}
}
