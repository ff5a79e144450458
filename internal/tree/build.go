package tree

import (
	"io"

	"larch/internal/log"
	"larch/pkg/types"
)

// EntrySource is the stream contract the builder consumes: a finite,
// single-pass sequence of entries. Next returns io.EOF when the stream is
// exhausted. Close releases whatever the adapter holds open (archive
// handle, directory state) and must be safe to call more than once.
type EntrySource interface {
	Next() (types.Entry, error)
	Close() error
}

// Build drains a source into a new tree. The source is always closed, even
// when the stream is abandoned because of a read failure. When a read fails
// mid-stream the already-built tree is returned alongside the error; its
// invariants hold, so the caller may render it as best-effort output.
func Build(label string, kind SourceKind, src EntrySource) (*Tree, error) {
	t := New(label, kind)
	defer src.Close()

	for {
		entry, err := src.Next()
		if err == io.EOF {
			return t, nil
		}
		if err != nil {
			return t, err
		}
		if err := t.Insert(entry); err != nil {
			// A bad entry is a data-quality problem in one record, not a
			// reason to drop the rest of the stream.
			log.Warnf("skipping entry: %v", err)
		}
	}
}
