package source

import (
	"bufio"
	"io"
	"os"
	"strings"

	"larch/internal/errors"
	"larch/pkg/types"
)

// listingSource parses a newline-separated list of path names, one entry
// per line. Package managers emit these (dpkg .list files), and the text
// listing mode feeds arbitrary stdin through it.
type listingSource struct {
	name    string
	rc      io.ReadCloser
	scanner *bufio.Scanner
	checkFS bool
	first   bool
}

// NewListing wraps a reader of newline-separated paths as a Source. When
// checkFS is set, each path is lstat'ed so the entry gets a real kind,
// metadata, and symlink target; otherwise a trailing separator marks a
// directory and everything else is a plain file with no metadata.
func NewListing(rc io.ReadCloser, name string, checkFS bool) Source {
	return &listingSource{
		name:    name,
		rc:      rc,
		scanner: bufio.NewScanner(rc),
		checkFS: checkFS,
		first:   true,
	}
}

// OpenListing opens a listing file, or stdin for "-".
func OpenListing(path string, checkFS bool) (Source, error) {
	if path == "-" {
		return NewListing(io.NopCloser(os.Stdin), "[stdin]", checkFS), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewSourceError("cannot open listing", path, errors.SourceFailure, err)
	}
	return NewListing(f, path, checkFS), nil
}

// Next implements Source.
func (s *listingSource) Next() (types.Entry, error) {
	for s.scanner.Scan() {
		line := s.scanner.Text()
		if s.first {
			s.first = false
			// dpkg listings start with a bare "/." record for the root.
			if line == "/." {
				continue
			}
		}
		if line == "" {
			continue
		}

		isDir := strings.HasSuffix(line, "/")
		segs := types.SplitPath(line)
		if len(segs) == 0 {
			continue
		}

		if s.checkFS {
			if entry, ok := statEntry(line, segs); ok {
				return entry, nil
			}
		}

		entry := types.Entry{Path: segs, Kind: types.RegularFile}
		if isDir {
			entry.Kind = types.Directory
		}
		return entry, nil
	}
	if err := s.scanner.Err(); err != nil {
		return types.Entry{}, errors.NewSourceError("cannot read listing", s.name, errors.SourceFailure, err)
	}
	return types.Entry{}, io.EOF
}

// Close implements Source; it is safe to call repeatedly.
func (s *listingSource) Close() error {
	if s.rc == nil {
		return nil
	}
	err := s.rc.Close()
	s.rc = nil
	return err
}

// statEntry looks the path up on disk. Missing files fall back to the
// metadata-free entry so a stale listing still renders.
func statEntry(path string, segs []string) (types.Entry, bool) {
	info, err := os.Lstat(path)
	if err != nil {
		return types.Entry{}, false
	}
	entry := types.Entry{
		Path: segs,
		Metadata: &types.Metadata{
			Size: info.Size(),
			Mode: info.Mode(),
		},
	}
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		entry.Kind = types.Symlink
		if target, err := os.Readlink(path); err == nil {
			entry.Metadata.LinkTarget = target
		}
	case info.IsDir():
		entry.Kind = types.Directory
	case info.Mode().IsRegular():
		entry.Kind = types.RegularFile
	default:
		entry.Kind = types.Other
	}
	return entry, true
}
