package source

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"larch/internal/errors"
	"larch/internal/log"
	"larch/pkg/types"
)

// Filesystem walks a directory depth-first and yields one entry per file,
// directory, or symlink found beneath the root. Symlinks are never followed
// into; their target is only read for display. An unreadable subdirectory
// is logged and skipped, it does not abort the walk.
type Filesystem struct {
	root  string
	stack []*fsFrame
}

type fsFrame struct {
	rel     []string
	entries []fs.DirEntry
	pos     int
}

// NewFilesystem opens a directory walk rooted at root.
func NewFilesystem(root string) (*Filesystem, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.NewSourceError("cannot stat path", root, errors.SourceFailure, err)
	}
	if !info.IsDir() {
		return nil, errors.NewSourceError("not a directory", root, errors.SourceFailure, nil)
	}
	dirents, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.NewSourceError("cannot read directory", root, errors.SourceFailure, err)
	}
	return &Filesystem{
		root:  root,
		stack: []*fsFrame{{entries: dirents}},
	}, nil
}

// Next implements Source.
func (f *Filesystem) Next() (types.Entry, error) {
	for len(f.stack) > 0 {
		top := f.stack[len(f.stack)-1]
		if top.pos >= len(top.entries) {
			f.stack = f.stack[:len(f.stack)-1]
			continue
		}
		de := top.entries[top.pos]
		top.pos++

		rel := make([]string, len(top.rel), len(top.rel)+1)
		copy(rel, top.rel)
		rel = append(rel, de.Name())
		full := filepath.Join(f.root, filepath.Join(rel...))

		entry := types.Entry{Path: rel, Kind: kindOfDirEntry(de)}
		if info, err := de.Info(); err == nil {
			entry.Metadata = &types.Metadata{
				Size: info.Size(),
				Mode: info.Mode(),
			}
		}
		if entry.Kind == types.Symlink {
			if target, err := os.Readlink(full); err == nil {
				if entry.Metadata == nil {
					entry.Metadata = &types.Metadata{}
				}
				entry.Metadata.LinkTarget = target
			}
		}

		// Descend into real directories only; a symlinked directory would
		// let a cycle run the walk forever.
		if de.IsDir() && de.Type()&fs.ModeSymlink == 0 {
			children, err := os.ReadDir(full)
			if err != nil {
				log.Warnf("skipping unreadable directory %s: %v", full, err)
			} else {
				f.stack = append(f.stack, &fsFrame{rel: rel, entries: children})
			}
		}
		return entry, nil
	}
	return types.Entry{}, io.EOF
}

// Close implements Source.
func (f *Filesystem) Close() error {
	f.stack = nil
	return nil
}

func kindOfDirEntry(de fs.DirEntry) types.Kind {
	switch {
	case de.Type()&fs.ModeSymlink != 0:
		return types.Symlink
	case de.IsDir():
		return types.Directory
	case de.Type().IsRegular():
		return types.RegularFile
	default:
		return types.Other
	}
}
