package pkgmgr

import (
	"bufio"
	"compress/gzip"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"larch/internal/errors"
	"larch/pkg/types"
)

// mtreeSource streams entries from a pacman mtree file: a gzip-compressed
// mtree(5) listing with one path per line followed by keyword=value pairs,
// and /set lines establishing defaults for subsequent entries.
type mtreeSource struct {
	path     string
	f        *os.File
	gz       *gzip.Reader
	scanner  *bufio.Scanner
	defaults map[string]string
}

func openMtree(path string) (*mtreeSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewSourceError("cannot open mtree", path, errors.SourceFailure, err)
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, errors.NewSourceError("mtree is not gzip compressed", path, errors.SourceFailure, err)
	}
	return &mtreeSource{
		path:     path,
		f:        f,
		gz:       gz,
		scanner:  bufio.NewScanner(gz),
		defaults: make(map[string]string),
	}, nil
}

// Next implements the entry stream consumed by tree.Build.
func (m *mtreeSource) Next() (types.Entry, error) {
	for m.scanner.Scan() {
		line := strings.TrimSpace(m.scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		word, kvs := fields[0], fields[1:]

		switch word {
		case "/set":
			for _, kv := range kvs {
				if k, v, ok := strings.Cut(kv, "="); ok {
					m.defaults[k] = v
				}
			}
			continue
		case "/unset":
			for _, k := range kvs {
				delete(m.defaults, k)
			}
			continue
		}

		segs := types.SplitPath(decodeVis(word))
		if len(segs) == 0 {
			continue
		}
		// Top-level dotfiles in a package mtree (.BUILDINFO, .PKGINFO,
		// .INSTALL) are packaging metadata, not installed files.
		if len(segs) == 1 && strings.HasPrefix(segs[0], ".") {
			continue
		}

		attrs := make(map[string]string, len(m.defaults)+len(kvs))
		for k, v := range m.defaults {
			attrs[k] = v
		}
		for _, kv := range kvs {
			if k, v, ok := strings.Cut(kv, "="); ok {
				attrs[k] = v
			}
		}
		return mtreeEntry(segs, attrs), nil
	}
	if err := m.scanner.Err(); err != nil {
		return types.Entry{}, errors.NewSourceError("cannot read mtree", m.path, errors.SourceFailure, err)
	}
	return types.Entry{}, io.EOF
}

// Close releases the gzip stream and the underlying file.
func (m *mtreeSource) Close() error {
	if m.f == nil {
		return nil
	}
	gzErr := m.gz.Close()
	fErr := m.f.Close()
	m.f = nil
	m.gz = nil
	if gzErr != nil {
		return gzErr
	}
	return fErr
}

// mtreeEntry converts one mtree record's attributes into an Entry.
func mtreeEntry(segs []string, attrs map[string]string) types.Entry {
	entry := types.Entry{Path: segs, Metadata: &types.Metadata{}}

	switch attrs["type"] {
	case "dir":
		entry.Kind = types.Directory
		entry.Metadata.Mode |= fs.ModeDir
	case "link":
		entry.Kind = types.Symlink
		entry.Metadata.Mode |= fs.ModeSymlink
		entry.Metadata.LinkTarget = decodeVis(attrs["link"])
	case "file", "":
		entry.Kind = types.RegularFile
	default:
		entry.Kind = types.Other
	}

	if size, err := strconv.ParseInt(attrs["size"], 10, 64); err == nil {
		entry.Metadata.Size = size
	}
	if mode, err := strconv.ParseUint(attrs["mode"], 8, 32); err == nil {
		entry.Metadata.Mode |= fs.FileMode(mode) & fs.ModePerm
	}
	return entry
}

// decodeVis undoes the vis(3) octal escapes mtree uses for whitespace and
// special characters in path names, e.g. "\040" for a space.
func decodeVis(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+3 < len(s) && isOctal(s[i+1]) && isOctal(s[i+2]) && isOctal(s[i+3]) {
			n, err := strconv.ParseUint(s[i+1:i+4], 8, 8)
			if err == nil {
				b.WriteByte(byte(n))
				i += 3
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isOctal(c byte) bool {
	return c >= '0' && c <= '7'
}
